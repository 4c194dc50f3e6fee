package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
	"github.com/bnema/kiro-accounts-cli/internal/ports/mocks"
)

func newTestImporter(store *AccountStore, verifier *fakeVerifier, opts ...ImporterOption) *Importer {
	base := []ImporterOption{
		WithImportClock(fixedClock{now: testNow}),
		WithIDGenerator(sequentialIDs("acc")),
		WithBatchDelay(0),
	}
	return NewImporter(store, verifier, append(base, opts...)...)
}

func candidates(tokens ...string) []domain.Candidate {
	result := make([]domain.Candidate, 0, len(tokens))
	for i, token := range tokens {
		result = append(result, domain.Candidate{Position: i + 1, RefreshToken: token})
	}
	return result
}

func TestImportBatchMaterializesVerifiedAccounts(t *testing.T) {
	verifier := newFakeVerifier()
	verifier.results["rt-1"] = verifiedFor("alice@example.com")
	store := NewAccountStore()
	importer := newTestImporter(store, verifier)

	report := importer.ImportBatch(context.Background(), domain.ImportSourceOIDC, []domain.Candidate{
		{Position: 1, RefreshToken: "rt-1", ClientID: "cid", ClientSecret: "secret"},
	})

	assert.Equal(t, Report{
		Total:   1,
		Success: 1,
		Entries: []ReportEntry{{
			Label:     "#1",
			Outcome:   domain.ImportSucceeded,
			AccountID: "acc-a",
			Email:     "alice@example.com",
		}},
	}, report)

	account, ok := store.Get("acc-a")
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", account.Email)
	assert.Equal(t, "alice", account.Nickname)
	assert.Equal(t, "uid-alice@example.com", account.UserID)
	assert.Equal(t, domain.IdPBuilderID, account.IdP)
	assert.Equal(t, domain.StatusActive, account.Status)
	assert.Equal(t, domain.Credentials{
		AccessToken:  "at-alice@example.com",
		RefreshToken: "rt-rotated-alice@example.com",
		ClientID:     "cid",
		ClientSecret: "secret",
		Region:       domain.DefaultRegion,
		ExpiresAt:    testNow.Add(time.Hour),
		AuthMethod:   domain.AuthMethodIdC,
		Provider:     domain.IdPBuilderID,
	}, account.Credentials)
	assert.Equal(t, domain.SubscriptionProPlus, account.Subscription.Type)
	assert.Equal(t, testNow, account.Usage.LastUpdated)
	assert.Equal(t, 0.1, account.Usage.PercentUsed())
}

func TestImportBatchRespectsConcurrencyBoundAndChunks(t *testing.T) {
	verifier := newFakeVerifier()
	verifier.delay = 20 * time.Millisecond
	for i := 1; i <= 5; i++ {
		verifier.results[fmt.Sprintf("rt-%d", i)] = verifiedFor(fmt.Sprintf("user%d@example.com", i))
	}

	var mu sync.Mutex
	var callsAtSleep []int
	sleep := func(_ context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 50*time.Millisecond, d)
		callsAtSleep = append(callsAtSleep, verifier.callCount())
		return nil
	}

	store := NewAccountStore()
	importer := newTestImporter(store, verifier,
		WithConcurrency(2),
		WithBatchDelay(50*time.Millisecond),
		withSleep(sleep),
	)

	report := importer.ImportBatch(context.Background(), domain.ImportSourceOIDC, candidates("rt-1", "rt-2", "rt-3", "rt-4", "rt-5"))

	assert.Equal(t, 5, report.Success)
	assert.Equal(t, 0, report.Failed)
	assert.LessOrEqual(t, verifier.maxInFlight.Load(), int32(2))
	assert.Equal(t, []int{2, 4}, callsAtSleep)
	assert.Equal(t, 5, store.Len())
}

func TestImportBatchReportsFailuresWithoutAborting(t *testing.T) {
	verifier := newFakeVerifier()
	verifier.results["good"] = verifiedFor("good@example.com")
	verifier.failures["banned"] = domain.NewVerificationError(domain.VerificationInvalidCredential, "account suspended")
	verifier.failures["throttled"] = &domain.VerificationError{Kind: domain.VerificationRateLimited, Message: "too many requests"}
	verifier.failures["weird"] = errors.New("decoder blew up")
	verifier.panics["panic"] = true

	existing := domain.Account{ID: "keep", Email: "keep@example.com", Status: domain.StatusActive}
	store := NewAccountStore()
	require.NoError(t, store.Add(existing))
	importer := newTestImporter(store, verifier, WithConcurrency(2))

	report := importer.ImportBatch(context.Background(), domain.ImportSourceOIDC,
		candidates("banned", "good", "throttled", "weird", "panic", ""))

	assert.Equal(t, 6, report.Total)
	assert.Equal(t, 1, report.Success)
	assert.Equal(t, 5, report.Failed)
	assert.Equal(t, 0, report.Skipped)
	assert.ElementsMatch(t, []string{
		"#6: missing refresh token",
		"#1: account suspended",
		"#3: too many requests",
		"#4: unexpected failure: decoder blew up",
		"#5: unexpected failure: panic: verifier exploded",
	}, report.Messages)

	kept, ok := store.Get("keep")
	require.True(t, ok)
	assert.Equal(t, existing, kept)
	assert.Equal(t, 2, store.Len())
}

func TestImportBatchSameIdentityInOneBatchInsertsOnce(t *testing.T) {
	verifier := newFakeVerifier()
	verifier.results["rt-1"] = verifiedFor("same@example.com")
	verifier.results["rt-2"] = verifiedFor("same@example.com")
	store := NewAccountStore()
	importer := newTestImporter(store, verifier, WithConcurrency(2))

	report := importer.ImportBatch(context.Background(), domain.ImportSourceOIDC, candidates("rt-1", "rt-2"))

	assert.Equal(t, 1, report.Success)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Messages, 1)
	assert.Regexp(t, `^#[12]: email already exists$`, report.Messages[0])
	assert.Equal(t, 1, store.Len())
}

func TestImportBatchReimportReportsAlreadyExisting(t *testing.T) {
	verifier := newFakeVerifier()
	verifier.results["rt-1"] = verifiedFor("a@example.com")
	verifier.results["rt-2"] = verifiedFor("b@example.com")
	store := NewAccountStore()
	importer := newTestImporter(store, verifier)
	input := []domain.Candidate{
		{Position: 1, Email: "a@example.com", RefreshToken: "rt-1"},
		{Position: 2, Email: "b@example.com", RefreshToken: "rt-2"},
	}

	first := importer.ImportBatch(context.Background(), domain.ImportSourceFile, input)
	require.Equal(t, 2, first.Success)
	callsAfterFirst := verifier.callCount()

	second := importer.ImportBatch(context.Background(), domain.ImportSourceFile, input)

	assert.Equal(t, 0, second.Success)
	assert.Equal(t, 0, second.Failed)
	assert.Equal(t, 2, second.Skipped)
	assert.Equal(t, []string{"#1: email already exists", "#2: email already exists"}, second.Messages)
	assert.Equal(t, callsAfterFirst, verifier.callCount())
}

func TestImportBatchCancelledBetweenChunksFailsRemaining(t *testing.T) {
	verifier := newFakeVerifier()
	verifier.results["rt-1"] = verifiedFor("a@example.com")
	verifier.results["rt-2"] = verifiedFor("b@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	sleep := func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}
	importer := newTestImporter(NewAccountStore(), verifier, WithConcurrency(1), withSleep(sleep))

	report := importer.ImportBatch(ctx, domain.ImportSourceOIDC, candidates("rt-1", "rt-2"))

	assert.Equal(t, 1, report.Success)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Messages, 1)
	assert.Contains(t, report.Messages[0], "#2: import cancelled")
}

func TestImportBatchAfterStoreClosedDropsResults(t *testing.T) {
	verifier := newFakeVerifier()
	verifier.results["rt-1"] = verifiedFor("a@example.com")
	store := NewAccountStore()
	store.Close()

	report := newTestImporter(store, verifier).ImportBatch(context.Background(), domain.ImportSourceOIDC, candidates("rt-1"))

	assert.Equal(t, 0, report.Success)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, store.Len())
}

func TestImportBatchRecordsHistory(t *testing.T) {
	verifier := newFakeVerifier()
	verifier.results["rt-1"] = verifiedFor("a@example.com")
	history := &memoryHistory{}
	importer := newTestImporter(NewAccountStore(), verifier, WithImportHistory(history))

	importer.ImportBatch(context.Background(), domain.ImportSourceOIDC, candidates("rt-1", "bad"))

	require.Len(t, history.records, 2)
	byLabel := map[string]domain.ImportRecord{}
	for _, record := range history.records {
		byLabel[record.Label] = record
	}
	assert.Equal(t, domain.ImportRecord{
		Label:            "#1",
		AccountID:        "acc-a",
		Email:            "a@example.com",
		UserID:           "uid-a@example.com",
		Outcome:          domain.ImportSucceeded,
		SubscriptionType: domain.SubscriptionProPlus,
		UsageCurrent:     10,
		UsageLimit:       100,
		Source:           domain.ImportSourceOIDC,
		ImportedAt:       testNow,
	}, byLabel["#1"])
	assert.Equal(t, domain.ImportFailed, byLabel["#2"].Outcome)
	assert.Equal(t, domain.VerificationInvalidCredential, byLabel["#2"].ErrorKind)
}

func TestImportBatchHistoryFailureIsNotFatal(t *testing.T) {
	verifier := mocks.NewMockVerifier(t)
	history := mocks.NewMockImportHistory(t)
	verifier.EXPECT().Verify(mockAnyContext(), domain.VerifyRequest{
		RefreshToken: "rt-1",
		Region:       domain.DefaultRegion,
		AuthMethod:   domain.AuthMethodSocial,
		Provider:     domain.IdPGithub,
	}).Return(verifiedFor("a@example.com"), nil)
	history.EXPECT().Record(mockAnyContext(), mock.Anything).Return(errors.New("disk full"))

	importer := NewImporter(NewAccountStore(), verifier,
		WithImportHistory(history),
		WithImportClock(fixedClock{now: testNow}),
	)

	report := importer.ImportBatch(context.Background(), domain.ImportSourceOIDC, []domain.Candidate{
		{Position: 1, RefreshToken: "rt-1", Provider: domain.IdPGithub},
	})

	assert.Equal(t, 1, report.Success)
}

func TestImportAccountsFromExport(t *testing.T) {
	store := NewAccountStore()
	require.NoError(t, store.Add(domain.Account{ID: "taken", Email: "owner@example.com"}))
	importer := newTestImporter(store, newFakeVerifier())

	report := importer.ImportAccounts(context.Background(), []domain.Account{
		{ID: "exp-1", Email: "a@example.com", Status: domain.StatusActive},
		{ID: "taken", Email: "b@example.com"},
		{Email: "owner@example.com"},
		{},
	})

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 2, report.Success)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"#3: email already exists", "#4: missing email and refresh token"}, report.Messages)

	exported, ok := store.Get("exp-1")
	require.True(t, ok)
	assert.Equal(t, "a", exported.Nickname)
	assert.Equal(t, testNow, exported.CreatedAt)

	renamed, ok := store.Get("acc-a")
	require.True(t, ok)
	assert.Equal(t, "b@example.com", renamed.Email)
	assert.Equal(t, domain.StatusUnknown, renamed.Status)
}

func TestAddVerified(t *testing.T) {
	verifier := newFakeVerifier()
	verifier.results["rt-1"] = verifiedFor("a@example.com")
	store := NewAccountStore()
	importer := newTestImporter(store, verifier)

	account, err := importer.AddVerified(context.Background(), domain.Candidate{RefreshToken: "rt-1", Nickname: "work"})
	require.NoError(t, err)
	assert.Equal(t, "work", account.Nickname)

	_, err = importer.AddVerified(context.Background(), domain.Candidate{RefreshToken: "rt-1"})
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)

	_, err = importer.AddVerified(context.Background(), domain.Candidate{})
	assert.ErrorIs(t, err, ErrMissingRefreshToken)

	_, err = importer.AddVerified(context.Background(), domain.Candidate{RefreshToken: "nope"})
	verr, ok := domain.AsVerificationError(err)
	require.True(t, ok)
	assert.Equal(t, domain.VerificationInvalidCredential, verr.Kind)
	assert.Equal(t, 1, store.Len())
}
