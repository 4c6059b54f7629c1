package videogen

import (
	"math/rand/v2"
	"time"
)

// BackoffPolicy computes recovery delays for transient status-poll failures.
// Submission is never retried; the policy only shapes how the poll loop rides
// out rate limits and brief outages.
type BackoffPolicy struct {
	// BaseDelay is the first recovery delay. Defaults to half the polling
	// interval.
	BaseDelay time.Duration
	// MaxDelay caps delay growth. Defaults to the polling interval, so a
	// recovering poll never waits longer than a healthy one.
	MaxDelay time.Duration
	// Jitter perturbs a computed delay. Nil keeps delays deterministic.
	Jitter func(time.Duration) time.Duration
	// Retryable decides which poll errors keep the loop alive. Defaults to
	// IsRetryable.
	Retryable func(error) bool
}

// Delay returns the pause before retry number attempt (1-based). Delays
// double from BaseDelay until MaxDelay.
func (b BackoffPolicy) Delay(attempt int) time.Duration {
	d := b.BaseDelay
	if d <= 0 {
		return 0
	}
	for i := 1; i < attempt; i++ {
		d *= 2
		if b.MaxDelay > 0 && d >= b.MaxDelay {
			d = b.MaxDelay
			break
		}
	}
	if b.MaxDelay > 0 && d > b.MaxDelay {
		d = b.MaxDelay
	}
	if b.Jitter != nil {
		d = b.Jitter(d)
	}
	return d
}

func (b BackoffPolicy) normalized(interval time.Duration) BackoffPolicy {
	if b.BaseDelay <= 0 {
		b.BaseDelay = interval / 2
	}
	if b.MaxDelay <= 0 {
		b.MaxDelay = interval
	}
	return b
}

func (b BackoffPolicy) retryable(err error) bool {
	if b.Retryable != nil {
		return b.Retryable(err)
	}
	return IsRetryable(err)
}

// FullJitter draws a uniformly random delay from [0, d).
func FullJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(d)))
}
