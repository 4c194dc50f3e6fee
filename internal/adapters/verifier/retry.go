package verifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
	"github.com/bnema/kiro-accounts-cli/internal/ports"
)

const (
	DefaultMaxAttempts = 3
	DefaultBackoff     = 500 * time.Millisecond
	DefaultMaxBackoff  = 10 * time.Second
)

// Retrying retries rate-limited and network failures with exponential backoff.
// A Retry-After hint from upstream replaces the computed delay when it is longer.
type Retrying struct {
	next        ports.Verifier
	maxAttempts int
	backoff     time.Duration
	maxBackoff  time.Duration
	logger      *slog.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

type RetryOption func(*Retrying)

func WithMaxAttempts(n int) RetryOption {
	return func(r *Retrying) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

func WithBackoff(initial, maxDelay time.Duration) RetryOption {
	return func(r *Retrying) {
		if initial > 0 {
			r.backoff = initial
		}
		if maxDelay > 0 {
			r.maxBackoff = maxDelay
		}
	}
}

func WithLogger(logger *slog.Logger) RetryOption {
	return func(r *Retrying) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRetrying(next ports.Verifier, opts ...RetryOption) *Retrying {
	r := &Retrying{
		next:        next,
		maxAttempts: DefaultMaxAttempts,
		backoff:     DefaultBackoff,
		maxBackoff:  DefaultMaxBackoff,
		logger:      slog.Default(),
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Retrying) Verify(ctx context.Context, req domain.VerifyRequest) (domain.VerifiedAccount, error) {
	var result domain.VerifiedAccount
	err := r.do(ctx, "verify", func(ctx context.Context) error {
		var err error
		result, err = r.next.Verify(ctx, req)
		return err
	})
	return result, err
}

func (r *Retrying) Refresh(ctx context.Context, req domain.VerifyRequest) (domain.TokenRefresh, error) {
	var result domain.TokenRefresh
	err := r.do(ctx, "refresh", func(ctx context.Context) error {
		var err error
		result, err = r.next.Refresh(ctx, req)
		return err
	})
	return result, err
}

func (r *Retrying) do(ctx context.Context, op string, attempt func(ctx context.Context) error) error {
	var err error
	for n := 1; n <= r.maxAttempts; n++ {
		err = attempt(ctx)
		if err == nil {
			return nil
		}

		verr, ok := domain.AsVerificationError(err)
		if !ok || !verr.Retryable() || n == r.maxAttempts {
			return err
		}

		delay := r.delay(n, verr.RetryAfter)
		r.logger.Warn("retrying verifier call",
			"op", op,
			"attempt", n,
			"kind", verr.Kind,
			"delay", delay,
			"error", verr.Error(),
		)
		if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
			return err
		}
	}
	return err
}

func (r *Retrying) delay(attempt int, retryAfter time.Duration) time.Duration {
	delay := r.backoff << (attempt - 1)
	if delay <= 0 || delay > r.maxBackoff {
		delay = r.maxBackoff
	}
	if retryAfter > delay {
		delay = retryAfter
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
