package verifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
	"github.com/bnema/kiro-accounts-cli/internal/ports/mocks"
)

func newTestRetrying(next *mocks.MockVerifier, sleeps *[]time.Duration) *Retrying {
	r := NewRetrying(next, WithMaxAttempts(3), WithBackoff(100*time.Millisecond, time.Second))
	r.sleep = func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
	return r
}

func TestRetryingRetriesTransientFailures(t *testing.T) {
	next := mocks.NewMockVerifier(t)
	var sleeps []time.Duration
	retrying := newTestRetrying(next, &sleeps)

	next.EXPECT().Verify(mock.Anything, testRequest).
		Return(domain.VerifiedAccount{}, domain.NewVerificationError(domain.VerificationNetwork, "connection reset")).Once()
	next.EXPECT().Verify(mock.Anything, testRequest).
		Return(domain.VerifiedAccount{}, &domain.VerificationError{Kind: domain.VerificationRateLimited, RetryAfter: 2 * time.Second}).Once()
	next.EXPECT().Verify(mock.Anything, testRequest).
		Return(domain.VerifiedAccount{Email: "a@example.com"}, nil).Once()

	result, err := retrying.Verify(context.Background(), testRequest)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", result.Email)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 2 * time.Second}, sleeps)
}

func TestRetryingDoesNotRetryInvalidCredential(t *testing.T) {
	next := mocks.NewMockVerifier(t)
	var sleeps []time.Duration
	retrying := newTestRetrying(next, &sleeps)

	rejected := domain.NewVerificationError(domain.VerificationInvalidCredential, "revoked")
	next.EXPECT().Refresh(mock.Anything, testRequest).Return(domain.TokenRefresh{}, rejected).Once()

	_, err := retrying.Refresh(context.Background(), testRequest)
	assert.ErrorIs(t, err, rejected)
	assert.Empty(t, sleeps)
}

func TestRetryingGivesUpAfterMaxAttempts(t *testing.T) {
	next := mocks.NewMockVerifier(t)
	var sleeps []time.Duration
	retrying := newTestRetrying(next, &sleeps)

	unavailable := domain.NewVerificationError(domain.VerificationNetwork, "503")
	next.EXPECT().Verify(mock.Anything, testRequest).Return(domain.VerifiedAccount{}, unavailable).Times(3)

	_, err := retrying.Verify(context.Background(), testRequest)
	assert.ErrorIs(t, err, unavailable)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, sleeps)
}

func TestRetryingPassesThroughUnclassifiedErrors(t *testing.T) {
	next := mocks.NewMockVerifier(t)
	var sleeps []time.Duration
	retrying := newTestRetrying(next, &sleeps)

	plain := errors.New("boom")
	next.EXPECT().Verify(mock.Anything, testRequest).Return(domain.VerifiedAccount{}, plain).Once()

	_, err := retrying.Verify(context.Background(), testRequest)
	assert.ErrorIs(t, err, plain)
	assert.Empty(t, sleeps)
}

func TestRetryingStopsWhenContextEnds(t *testing.T) {
	next := mocks.NewMockVerifier(t)
	retrying := NewRetrying(next, WithBackoff(time.Minute, time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	unavailable := domain.NewVerificationError(domain.VerificationNetwork, "503")
	next.EXPECT().Verify(mock.Anything, testRequest).
		RunAndReturn(func(context.Context, domain.VerifyRequest) (domain.VerifiedAccount, error) {
			cancel()
			return domain.VerifiedAccount{}, unavailable
		}).Once()

	_, err := retrying.Verify(ctx, testRequest)
	assert.ErrorIs(t, err, unavailable)
}

func TestRetryingDelayIsCapped(t *testing.T) {
	r := NewRetrying(nil, WithBackoff(time.Second, 5*time.Second))

	assert.Equal(t, time.Second, r.delay(1, 0))
	assert.Equal(t, 4*time.Second, r.delay(3, 0))
	assert.Equal(t, 5*time.Second, r.delay(4, 0))
	assert.Equal(t, 30*time.Second, r.delay(1, 30*time.Second))
}
