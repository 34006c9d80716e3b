// Package yabackoff provides the exponential back-off used when the key
// store dials its backend.
//
//	backoff := yabackoff.NewExponential(100*time.Millisecond, 2, time.Second)
//	err := yabackoff.Retry(ctx, 3, &backoff, func(ctx context.Context) error {
//	    return client.Ping(ctx).Err()
//	})
package yabackoff

import (
	"context"
	"time"
)

const (
	// DefaultInitialInterval is used when initialInterval == 0.
	DefaultInitialInterval = 100 * time.Millisecond

	// DefaultMultiplier is used when multiplier == 0.
	DefaultMultiplier = 2.0

	// DefaultMaxInterval is used when maxInterval == 0.
	DefaultMaxInterval = 2 * time.Second
)

// Exponential multiplies the delay by a constant factor on every Next,
// capped at maxInterval. The zero value uses the package defaults.
type Exponential struct {
	initialInterval time.Duration
	multiplier      float64
	maxInterval     time.Duration
	currentInterval time.Duration
}

// NewExponential creates an exponential back-off. Zero arguments are
// replaced by the defaults on first use.
func NewExponential(initialInterval time.Duration, multiplier float64, maxInterval time.Duration) Exponential {
	return Exponential{
		initialInterval: initialInterval,
		multiplier:      multiplier,
		maxInterval:     maxInterval,
		currentInterval: initialInterval,
	}
}

// Next returns the delay to wait before the next attempt. The first call
// returns the initial interval.
func (e *Exponential) Next() time.Duration {
	if e.safety() {
		return e.currentInterval
	}

	e.currentInterval = min(time.Duration(float64(e.currentInterval)*e.multiplier), e.maxInterval)

	return e.currentInterval
}

// Current reports the delay returned by the most recent Next.
func (e *Exponential) Current() time.Duration {
	return e.currentInterval
}

// Reset puts the back-off back to its initial interval.
func (e *Exponential) Reset() {
	e.currentInterval = 0
}

// Wait sleeps for Next or until ctx is done, whichever comes first.
func (e *Exponential) Wait(ctx context.Context) error {
	timer := time.NewTimer(e.Next())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// safety fills in defaults and reports whether this is the first interval.
func (e *Exponential) safety() bool {
	if e.initialInterval == 0 {
		e.initialInterval = DefaultInitialInterval
	}

	if e.multiplier == 0 {
		e.multiplier = DefaultMultiplier
	}

	if e.maxInterval == 0 {
		e.maxInterval = DefaultMaxInterval
	}

	if e.currentInterval == 0 {
		e.currentInterval = min(e.initialInterval, e.maxInterval)

		return true
	}

	return false
}

// Retry calls fn up to attempts times, waiting on backoff between failures.
// It returns nil on the first success, the last error of fn once attempts
// are spent, or the context error if ctx ends while waiting.
func Retry(ctx context.Context, attempts int, backoff *Exponential, fn func(ctx context.Context) error) error {
	var err error

	for attempt := range max(attempts, 1) {
		if attempt > 0 {
			if waitErr := backoff.Wait(ctx); waitErr != nil {
				return waitErr
			}
		}

		if err = fn(ctx); err == nil {
			return nil
		}
	}

	return err
}
