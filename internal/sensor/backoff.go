package sensor

import "time"

// Default reconnect policy values.
const (
	DefaultBaseDelay   = 5 * time.Second
	DefaultMaxAttempts = 5
)

// BackoffPolicy computes reconnect delays and attempt limits.
//
// The policy is pure and stateless; the attempt counter lives in the
// Controller. Delays grow exponentially without jitter or cap; growth is
// bounded only by attempt-count exhaustion.
type BackoffPolicy struct {
	// BaseDelay is the delay before the first reconnect attempt.
	BaseDelay time.Duration

	// MaxAttempts is the number of attempts before a cycle gives up.
	MaxAttempts int
}

// DefaultBackoffPolicy returns the policy with default values.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		BaseDelay:   DefaultBaseDelay,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// NextDelay returns the wait before the given attempt:
// BaseDelay * 2^(attempt-1). Attempts below 1 are treated as 1.
func (p BackoffPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.BaseDelay << uint(attempt-1)
}

// ShouldContinue reports whether another attempt may start after the given
// number of completed attempts.
func (p BackoffPolicy) ShouldContinue(attempt int) bool {
	return attempt < p.MaxAttempts
}
