// Package retry provides exponential backoff for operations that fail
// transiently.  The collector uses it around accept: descriptor
// exhaustion or an aborted handshake should not end the process, but a
// listener that keeps failing should.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Defaults applied to zero fields of a Backoff.
const (
	DefaultInitialDelay = 100 * time.Millisecond
	DefaultMaxDelay     = 5 * time.Second
	DefaultMultiplier   = 2.0
)

// PermanentError marks an error that retrying will not fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so that [Backoff.Do] returns it at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err was wrapped with [Permanent].
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// Backoff is an exponential retry policy.  A Backoff holds no state
// between calls to Do, so one value can be reused; every Do starts again
// from InitialDelay.
type Backoff struct {
	InitialDelay time.Duration // first wait; default 100ms
	MaxDelay     time.Duration // cap on any wait; default 5s
	Multiplier   float64       // growth per attempt; default 2
	MaxAttempts  int           // total tries including the first; 0 = until ctx is done
	Jitter       bool          // randomise each wait by ±25%

	// OnRetry, when set, is called before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// AcceptBackoff is the policy around accept: a short first wait capped
// at maxDelay, giving up after maxAttempts consecutive failures.  Zero
// arguments take the package defaults and retry without limit.
func AcceptBackoff(maxAttempts int, maxDelay time.Duration) *Backoff {
	return &Backoff{
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     maxDelay,
		Multiplier:   DefaultMultiplier,
		MaxAttempts:  maxAttempts,
		Jitter:       true,
	}
}

// Do calls fn until it returns nil, returns a [Permanent] error, runs
// out of attempts, or ctx is done.  attempt is 1-based.
func (b *Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	delay, maxDelay, multiplier := b.params()

	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		switch {
		case err == nil:
			return nil
		case IsPermanent(err):
			return errors.Unwrap(err)
		case b.MaxAttempts > 0 && attempt >= b.MaxAttempts:
			return fmt.Errorf("gave up after %d attempts: %w", attempt, err)
		}

		wait := delay
		if b.Jitter {
			wait = jitter(wait)
		}
		if b.OnRetry != nil {
			b.OnRetry(attempt, err, wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}

		delay = time.Duration(float64(delay) * multiplier)
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

func (b *Backoff) params() (delay, maxDelay time.Duration, multiplier float64) {
	delay, maxDelay, multiplier = b.InitialDelay, b.MaxDelay, b.Multiplier
	if delay <= 0 {
		delay = DefaultInitialDelay
	}
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}
	if multiplier < 1 {
		multiplier = DefaultMultiplier
	}
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay, maxDelay, multiplier
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// jitter spreads d uniformly over [0.75d, 1.25d], never below 1ms.
func jitter(d time.Duration) time.Duration {
	spread := float64(d) / 2
	j := time.Duration(float64(d) - spread/2 + rand.Float64()*spread)
	if j < time.Millisecond {
		j = time.Millisecond
	}
	return j
}
