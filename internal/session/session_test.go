package session

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"

	smerr "smdrcollect/internal/errors"
	"smdrcollect/internal/framer"
	"smdrcollect/util"
)

func newPipeSession(t *testing.T, idle time.Duration) (*Session, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { client.Close() })
	return New(1, server, framer.New(0), idle, util.NewLogger(0)), client
}

func TestSession_Read(t *testing.T) {
	s, client := newPipeSession(t, time.Second)
	defer s.Close()

	go client.Write([]byte("abc\n")) //nolint:errcheck

	buf := make([]byte, 16)
	n, err := s.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := string(buf[:n]); got != "abc\n" {
		t.Errorf("got %q", got)
	}
}

func TestSession_IdleTimeout(t *testing.T) {
	s, _ := newPipeSession(t, 50*time.Millisecond)
	defer s.Close()

	start := time.Now()
	_, err := s.Read(make([]byte, 16))
	if !smerr.Is(err, smerr.ErrIdleTimeout) {
		t.Fatalf("expected idle timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("idle timeout took %v", elapsed)
	}
}

func TestSession_PeerClosed(t *testing.T) {
	s, client := newPipeSession(t, time.Second)
	defer s.Close()

	client.Close()
	_, err := s.Read(make([]byte, 16))
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

// deadlineRefused is a conn whose SetReadDeadline always fails, the way
// a closing socket reports itself.
type deadlineRefused struct {
	net.Conn
}

func (deadlineRefused) SetReadDeadline(time.Time) error {
	return errors.New("set deadline: use of closed connection")
}

func TestSession_ReadDespiteDeadlineError(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	s := New(1, deadlineRefused{server}, framer.New(0), time.Second, util.NewLogger(0))
	defer s.Close()

	go client.Write([]byte("abc\n")) //nolint:errcheck

	buf := make([]byte, 16)
	n, err := s.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := string(buf[:n]); got != "abc\n" {
		t.Errorf("got %q", got)
	}
}

func TestSession_PeerClosedAfterData(t *testing.T) {
	s, client := newPipeSession(t, time.Second)
	defer s.Close()

	go func() {
		client.Write([]byte("abc\n")) //nolint:errcheck
		client.Close()
	}()

	buf := make([]byte, 16)
	if _, err := s.Read(buf); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if _, err := s.Read(buf); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestSession_LocalCloseIsEOF(t *testing.T) {
	s, _ := newPipeSession(t, time.Second)
	s.Conn.Close()

	if _, err := s.Read(make([]byte, 16)); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestSession_CloseDiscardsPartial(t *testing.T) {
	s, _ := newPipeSession(t, time.Second)

	if err := s.Framer.Feed([]byte("partial"), func(string) {
		t.Error("partial record must not be emitted")
	}); err != nil {
		t.Fatal(err)
	}
	if n := s.Close(); n != len("partial") {
		t.Errorf("discarded %d bytes, want %d", n, len("partial"))
	}
}

func TestSession_NextRecord(t *testing.T) {
	s, _ := newPipeSession(t, time.Second)
	defer s.Close()

	for want := int64(1); want <= 3; want++ {
		if got := s.NextRecord(); got != want {
			t.Errorf("NextRecord() = %d, want %d", got, want)
		}
	}
	if s.Records() != 3 {
		t.Errorf("Records() = %d, want 3", s.Records())
	}
}
