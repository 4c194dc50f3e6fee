package verifier

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultRequestsPerSecond = 5
	DefaultBurst             = 5
)

// Throttle combines a client-side token bucket with a pause window opened by a
// rate-limited response. It is shared by every goroutine of a batch.
type Throttle struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

func NewThrottle(requestsPerSecond float64, burst int) *Throttle {
	if requestsPerSecond <= 0 {
		requestsPerSecond = DefaultRequestsPerSecond
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Wait blocks until the pause window has passed and a token is available.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	retryAt := t.retryAt
	t.mu.Unlock()

	if wait := time.Until(retryAt); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return t.limiter.Wait(ctx)
}

// Pause holds back every request for d. A shorter pause never shortens a longer one.
func (t *Throttle) Pause(d time.Duration) {
	if d <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if until := time.Now().Add(d); until.After(t.retryAt) {
		t.retryAt = until
	}
}
