package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
	"github.com/bnema/kiro-accounts-cli/internal/ports"
)

type BatchResult struct {
	Total    int
	Success  int
	Failed   int
	Messages []string
}

// Checker re-verifies stored accounts. Each account is updated through its own
// atomic store update, so a concurrent reader never sees a half-applied batch.
type Checker struct {
	store       *AccountStore
	verifier    ports.Verifier
	clock       ports.Clock
	logger      *slog.Logger
	concurrency int
	batchDelay  time.Duration
	sleep       sleepFunc
}

type CheckerOption func(*Checker)

func WithCheckConcurrency(n int) CheckerOption {
	return func(c *Checker) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

func WithCheckDelay(d time.Duration) CheckerOption {
	return func(c *Checker) {
		if d >= 0 {
			c.batchDelay = d
		}
	}
}

func WithCheckClock(clock ports.Clock) CheckerOption {
	return func(c *Checker) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithCheckLogger(logger *slog.Logger) CheckerOption {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewChecker(store *AccountStore, verifier ports.Verifier, opts ...CheckerOption) *Checker {
	c := &Checker{
		store:       store,
		verifier:    verifier,
		clock:       ports.SystemClock{},
		logger:      slog.Default(),
		concurrency: DefaultImportConcurrency,
		batchDelay:  DefaultBatchDelay,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BatchRefreshTokens mints new access tokens from the stored refresh tokens.
func (c *Checker) BatchRefreshTokens(ctx context.Context, ids []domain.AccountID) BatchResult {
	return c.runBatch(ctx, "refresh", ids, c.refreshOne)
}

// BatchCheckStatus runs a full re-verification, updating subscription, usage and status.
func (c *Checker) BatchCheckStatus(ctx context.Context, ids []domain.AccountID) BatchResult {
	return c.runBatch(ctx, "check", ids, c.checkOne)
}

func (c *Checker) runBatch(
	ctx context.Context,
	op string,
	ids []domain.AccountID,
	one func(ctx context.Context, account domain.Account) error,
) BatchResult {
	result := BatchResult{Total: len(ids)}
	fail := func(id domain.AccountID, err error) {
		result.Failed++
		result.Messages = append(result.Messages, fmt.Sprintf("%s: %v", c.label(id), err))
	}

	runner := newChunkRunner(c.concurrency, c.batchDelay, c.sleep)
	started, err := runner.run(ctx, len(ids),
		func(ctx context.Context, idx int) error {
			account, ok := c.store.Get(ids[idx])
			if !ok {
				return domain.ErrAccountNotFound
			}
			return one(ctx, account)
		},
		func(idx int, err error) {
			var notice *noticeError
			if errors.As(err, &notice) {
				result.Success++
				result.Messages = append(result.Messages, fmt.Sprintf("%s: %s", c.label(ids[idx]), notice.msg))
				return
			}
			if err != nil {
				fail(ids[idx], err)
				return
			}
			result.Success++
		},
	)
	if err != nil {
		for _, id := range ids[started:] {
			fail(id, fmt.Errorf("%s cancelled: %w", op, err))
		}
	}

	c.logger.Info("batch finished", "op", op, "total", result.Total, "success", result.Success, "failed", result.Failed)
	return result
}

func (c *Checker) refreshOne(ctx context.Context, account domain.Account) error {
	refreshed, err := c.verifier.Refresh(ctx, account.Credentials.VerifyRequest())
	if err != nil {
		return c.markFailure(account.ID, err)
	}

	now := c.clock.Now()
	return c.store.Update(account.ID, func(a *domain.Account) {
		a.Credentials.AccessToken = refreshed.AccessToken
		if refreshed.RefreshToken != "" {
			a.Credentials.RefreshToken = refreshed.RefreshToken
		}
		a.Credentials = a.Credentials.WithExpiry(refreshed.ExpiresIn, now)
		a.Status = domain.StatusActive
		a.LastError = ""
		a.LastCheckedAt = now
	})
}

func (c *Checker) checkOne(ctx context.Context, account domain.Account) error {
	verified, err := c.verifier.Verify(ctx, account.Credentials.VerifyRequest())
	if err != nil {
		return c.markFailure(account.ID, err)
	}

	// An identity already held by another account stays where it is; the
	// email and user id are the dedup key.
	owner, keepIdentity := c.store.IdentityOwner(account.ID, verified.Email, verified.UserID)
	if keepIdentity {
		c.logger.Warn("verified identity belongs to another account", "id", account.ID, "owner", owner)
	}

	now := c.clock.Now()
	err = c.store.Update(account.ID, func(a *domain.Account) {
		if !keepIdentity && verified.Email != "" {
			a.Email = verified.Email
		}
		if !keepIdentity && verified.UserID != "" {
			a.UserID = verified.UserID
		}
		if verified.AccessToken != "" {
			a.Credentials.AccessToken = verified.AccessToken
			a.Credentials = a.Credentials.WithExpiry(verified.ExpiresIn, now)
		}
		if verified.RefreshToken != "" {
			a.Credentials.RefreshToken = verified.RefreshToken
		}

		subscription := verified.Subscription
		if subscription.Type == "" {
			subscription.Type = domain.ClassifySubscription(subscription.RawType, subscription.Title)
		}
		a.Subscription = subscription

		a.Usage = verified.Usage
		a.Usage.LastUpdated = now
		a.Status = domain.StatusActive
		a.LastError = ""
		a.LastCheckedAt = now
	})
	if err != nil || !keepIdentity {
		return err
	}

	return &noticeError{msg: fmt.Sprintf("verified identity already belongs to %s, kept stored identity", c.label(owner))}
}

// noticeError reports a message for an account that was otherwise updated.
type noticeError struct {
	msg string
}

func (e *noticeError) Error() string {
	return e.msg
}

// markFailure flags the account only when the credential itself was rejected.
// Transient failures leave the stored account untouched.
func (c *Checker) markFailure(id domain.AccountID, err error) error {
	verr, ok := domain.AsVerificationError(err)
	if !ok || verr.Kind != domain.VerificationInvalidCredential {
		return err
	}

	now := c.clock.Now()
	if updateErr := c.store.Update(id, func(a *domain.Account) {
		a.Status = domain.StatusError
		a.LastError = verr.Error()
		a.LastCheckedAt = now
	}); updateErr != nil {
		return fmt.Errorf("%w (mark error: %v)", err, updateErr)
	}
	return err
}

func (c *Checker) label(id domain.AccountID) string {
	if account, ok := c.store.Get(id); ok {
		if name := account.DisplayName(); name != "" {
			return name
		}
	}
	return string(id)
}
