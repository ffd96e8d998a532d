// ABOUTME: Exponential reconnect delay for gateway sessions
// ABOUTME: Doubles from BaseDelay per attempt and caps at MaxDelay, no jitter

package backoff

import "time"

const (
	// BaseDelay is the delay for the first reconnect attempt.
	BaseDelay = 1 * time.Second
	// MaxDelay caps the delay regardless of attempt count.
	MaxDelay = 30 * time.Second
)

// Delay returns min(BaseDelay * 2^attempt, MaxDelay). Negative attempts are
// treated as zero.
func Delay(attempt int) time.Duration {
	delay := BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= MaxDelay {
			return MaxDelay
		}
	}
	return min(delay, MaxDelay)
}
