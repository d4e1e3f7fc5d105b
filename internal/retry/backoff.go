// Package retry polls an operation with exponential backoff.  It is used
// by callers that wait for a device to come online; the adb layer itself
// never retries.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ── Permanent errors ─────────────────────────────────────────────────

// PermanentError wraps an error to signal that retrying will not help,
// such as a missing adb binary.  Return [Permanent](err) from the
// operation function to stop retrying immediately.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as non-retryable.  The backoff loop will return
// the inner error immediately without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err has been marked as permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// ── Backoff ──────────────────────────────────────────────────────────

// Backoff implements exponential backoff with optional jitter.
type Backoff struct {
	// InitialDelay is the delay before the first retry (default 250ms).
	InitialDelay time.Duration
	// MaxDelay caps the backoff duration (default 2s).
	MaxDelay time.Duration
	// Multiplier increases the delay each attempt (default 1.5).
	Multiplier float64
	// MaxAttempts is the total number of tries including the first.
	// 0 retries until the context is done.
	MaxAttempts int
	// Jitter adds ±25% randomisation to each delay.
	Jitter bool

	// OnRetry, when set, is called after a failed attempt with the
	// delay before the next one.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultBackoff returns the policy used to wait for a device.
func DefaultBackoff() *Backoff {
	return &Backoff{
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   1.5,
		Jitter:       true,
	}
}

// Do executes fn repeatedly until it succeeds, returns a permanent
// error, or the retry budget (attempts / context) is exhausted.
//
// The attempt parameter passed to fn is 1-based.  On success fn should
// return nil.  To abort retrying, wrap the error with [Permanent].
func (b *Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	delay := b.InitialDelay
	if delay == 0 {
		delay = 250 * time.Millisecond
	}
	multiplier := b.Multiplier
	if multiplier <= 0 {
		multiplier = 1.5
	}
	maxDelay := b.MaxDelay
	if maxDelay == 0 {
		maxDelay = 2 * time.Second
	}

	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}

		// Permanent errors are never retried.
		if IsPermanent(err) {
			return errors.Unwrap(err)
		}

		if b.MaxAttempts > 0 && attempt >= b.MaxAttempts {
			return fmt.Errorf("gave up after %d attempts: %w", attempt, err)
		}

		wait := delay
		if b.Jitter {
			wait = addJitter(delay)
		}
		if b.OnRetry != nil {
			b.OnRetry(attempt, err, wait)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * multiplier)
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

// Within is Do bounded by timeout.  A timeout of 0 means a single
// attempt.
func (b *Backoff) Within(ctx context.Context, timeout time.Duration, fn func(attempt int) error) error {
	if timeout <= 0 {
		return fn(1)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return b.Do(ctx, fn)
}

// addJitter adds ±25% randomisation to a duration.
func addJitter(d time.Duration) time.Duration {
	quarter := float64(d) * 0.25
	delta := (rand.Float64() * 2 * quarter) - quarter
	result := float64(d) + delta
	return time.Duration(math.Max(result, float64(time.Millisecond)))
}
