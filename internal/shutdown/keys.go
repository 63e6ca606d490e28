package shutdown

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ctrlC arrives as a plain byte once the terminal is in raw mode.
const ctrlC = 0x03

// Keys watches an input stream for the quit key (q or Q).
type Keys struct {
	Flag

	fd    int
	state *term.State // nil unless the terminal was put in raw mode
}

// WatchTerminal puts the terminal behind in into raw mode, so single
// keystrokes arrive without Enter, and starts watching it for q, Q or
// Ctrl-C.  Call Close to restore the terminal.  It fails when in is not
// a terminal; the caller should then rely on signals alone.
func WatchTerminal(in *os.File) (*Keys, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%s is not a terminal", in.Name())
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("raw mode on %s: %w", in.Name(), err)
	}

	k := &Keys{fd: fd, state: state}
	go k.watch(in)
	return k, nil
}

// WatchReader watches r for the quit key without touching any terminal
// state.  The watcher goroutine ends when r returns an error.
func WatchReader(r io.Reader) *Keys {
	k := &Keys{fd: -1}
	go k.watch(r)
	return k
}

// Raw reports whether the terminal is in raw mode.  Output written to
// it while raw needs "\r\n" line endings.
func (k *Keys) Raw() bool { return k.state != nil }

// Close restores the terminal state saved by WatchTerminal.
func (k *Keys) Close() error {
	if k.state == nil {
		return nil
	}
	err := term.Restore(k.fd, k.state)
	k.state = nil
	return err
}

func (k *Keys) watch(r io.Reader) {
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			if b == 'q' || b == 'Q' || b == ctrlC {
				k.Trigger()
				return
			}
		}
		if err != nil {
			return
		}
	}
}
