// Package shutdown decides when the collector should stop.
//
// The control loop asks [Monitor.PollQuitSignal] between accept waits
// and between reads.  Every implementation answers immediately; the
// ones that watch a blocking source (the keyboard) do so on their own
// goroutine and publish the result through a single atomic flag.
package shutdown

import (
	"context"
	"sync/atomic"
)

// Monitor reports whether the operator asked the collector to stop.
// Once PollQuitSignal has returned true it keeps returning true.
type Monitor interface {
	PollQuitSignal() bool
}

// Flag is a latched quit flag that can be triggered from any goroutine.
// The zero value is ready to use.
type Flag struct {
	set atomic.Bool
}

// Trigger latches the flag.
func (f *Flag) Trigger() { f.set.Store(true) }

// PollQuitSignal implements [Monitor].
func (f *Flag) PollQuitSignal() bool { return f.set.Load() }

// Context latches when ctx is done (SIGINT/SIGTERM through
// signal.NotifyContext in main).
type Context struct {
	ctx context.Context
}

// FromContext returns a Monitor for ctx.
func FromContext(ctx context.Context) *Context {
	return &Context{ctx: ctx}
}

// PollQuitSignal implements [Monitor].
func (c *Context) PollQuitSignal() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

// Any reports quit as soon as one of its monitors does.  Nil entries
// are skipped.
type Any []Monitor

// PollQuitSignal implements [Monitor].
func (a Any) PollQuitSignal() bool {
	for _, m := range a {
		if m != nil && m.PollQuitSignal() {
			return true
		}
	}
	return false
}

// Never is a Monitor that never asks to quit.
type Never struct{}

// PollQuitSignal implements [Monitor].
func (Never) PollQuitSignal() bool { return false }
