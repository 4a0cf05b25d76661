package console

import (
	"time"

	"github.com/jpillora/backoff"
)

const (
	RETRY_MIN_DELAY = 10 * time.Microsecond // Initial backoff between attempts.
	RETRY_MAX_DELAY = 10 * time.Millisecond // Backoff ceiling.
)

// Retry bounds a console transfer.
type Retry struct {
	Attempts int           // Maximum transport calls; 0 is unlimited.
	Timeout  time.Duration // Maximum wall time; 0 is unlimited.

	// Backoff paces the attempts. A zero value uses RETRY_MIN_DELAY and
	// RETRY_MAX_DELAY.
	Backoff backoff.Backoff
}

// NewRetry creates a policy with the default backoff.
func NewRetry(attempts int, timeout time.Duration) *Retry {
	return &Retry{
		Attempts: attempts,
		Timeout:  timeout,
		Backoff: backoff.Backoff{
			Min:    RETRY_MIN_DELAY,
			Max:    RETRY_MAX_DELAY,
			Factor: 2,
		},
	}
}

func (retry *Retry) delay() time.Duration {
	if retry.Backoff.Min == 0 && retry.Backoff.Max == 0 {
		retry.Backoff.Min = RETRY_MIN_DELAY
		retry.Backoff.Max = RETRY_MAX_DELAY
	}

	return retry.Backoff.Duration()
}
