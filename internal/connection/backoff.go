package connection

import "time"

// Backoff is the reconnection policy: a pure computation from attempt number
// to wait duration, kept separate from the socket plumbing so it can be
// swapped or unit-tested on its own.
type Backoff struct {
	Base        time.Duration // Wait before attempt 1
	Max         time.Duration // Ceiling on the wait
	MaxAttempts int           // Attempts before automatic reconnection is abandoned
}

// DefaultBackoff returns the production policy: 1s, 2s, 4s, 8s, 16s, capped
// at 30s, five attempts.
func DefaultBackoff() Backoff {
	return Backoff{
		Base:        1 * time.Second,
		Max:         30 * time.Second,
		MaxAttempts: 5,
	}
}

// Wait returns the delay before attempt n (1-indexed): min(base * 2^(n-1), max).
func (b Backoff) Wait(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	// Guard the shift against overflow for absurd attempt numbers.
	if attempt-1 >= 62 {
		return b.Max
	}
	wait := b.Base << (attempt - 1)
	if wait > b.Max || wait <= 0 {
		return b.Max
	}
	return wait
}

// Exhausted reports whether attempt n is past the retry budget.
func (b Backoff) Exhausted(attempt int) bool {
	return attempt > b.MaxAttempts
}
