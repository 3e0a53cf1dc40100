package deadlock

import (
	"time"
)

const (
	defaultAttempts     = 5
	defaultInitialRetry = 50 * time.Millisecond
	defaultMaxRetry     = time.Second
)

// RetryPolicy describes how many times and how often a backing-off worker
// retries its second lock.
// Zero values are treated as "use defaults".
type RetryPolicy struct {
	// Attempts is the maximum number of tries for the second lock.
	Attempts int

	// Initial is the first backoff duration.
	Initial time.Duration

	// Max is the cap for backoff duration.
	Max time.Duration
}

// DefaultRetryPolicy returns the policy used when Options.Retry is zero.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: defaultAttempts,
		Initial:  defaultInitialRetry,
		Max:      defaultMaxRetry,
	}
}

// withDefaults overrides zero fields of p with the defaults.
func (p RetryPolicy) withDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.Attempts > 0 {
		d.Attempts = p.Attempts
	}
	if p.Initial > 0 {
		d.Initial = p.Initial
	}
	if p.Max > 0 {
		d.Max = p.Max
	}
	return d
}
