package transport

import (
	"net"
	"time"

	smerr "smdrcollect/internal/errors"
)

// TCPAcceptor listens on a TCP address.
type TCPAcceptor struct {
	ln   *net.TCPListener
	addr string
}

// Listen binds address.  Failure (port in use, insufficient permission)
// is returned as a *errors.NetworkError with Op "listen".
func Listen(address string) (*TCPAcceptor, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, smerr.Wrap("listen", address, err)
	}
	return &TCPAcceptor{ln: ln.(*net.TCPListener), addr: address}, nil
}

// Accept implements [Acceptor].
func (a *TCPAcceptor) Accept(wait time.Duration) (net.Conn, error) {
	if err := a.ln.SetDeadline(time.Now().Add(wait)); err != nil {
		return nil, smerr.Wrap("accept", a.addr, err)
	}
	conn, err := a.ln.AcceptTCP()
	if err != nil {
		return nil, smerr.Wrap("accept", a.addr, err)
	}
	return conn, nil
}

// Addr implements [Acceptor].
func (a *TCPAcceptor) Addr() net.Addr { return a.ln.Addr() }

// Close implements [Acceptor].
func (a *TCPAcceptor) Close() error { return a.ln.Close() }
