package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}

func mockAnyContext() interface{} {
	return mock.Anything
}

var testNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

// fakeVerifier answers by refresh token and tracks how many calls overlap.
type fakeVerifier struct {
	mu        sync.Mutex
	results   map[string]domain.VerifiedAccount
	refreshes map[string]domain.TokenRefresh
	failures  map[string]error
	panics    map[string]bool
	delay     time.Duration
	calls     []string

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{
		results:   map[string]domain.VerifiedAccount{},
		refreshes: map[string]domain.TokenRefresh{},
		failures:  map[string]error{},
		panics:    map[string]bool{},
	}
}

func (f *fakeVerifier) enter(token string) func() {
	current := f.inFlight.Add(1)
	for {
		seen := f.maxInFlight.Load()
		if current <= seen || f.maxInFlight.CompareAndSwap(seen, current) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, token)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return func() { f.inFlight.Add(-1) }
}

func (f *fakeVerifier) Verify(_ context.Context, req domain.VerifyRequest) (domain.VerifiedAccount, error) {
	defer f.enter(req.RefreshToken)()

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.panics[req.RefreshToken] {
		panic("verifier exploded")
	}
	if err, ok := f.failures[req.RefreshToken]; ok {
		return domain.VerifiedAccount{}, err
	}
	if result, ok := f.results[req.RefreshToken]; ok {
		return result, nil
	}
	return domain.VerifiedAccount{}, domain.NewVerificationError(domain.VerificationInvalidCredential, "unknown token")
}

func (f *fakeVerifier) Refresh(_ context.Context, req domain.VerifyRequest) (domain.TokenRefresh, error) {
	defer f.enter(req.RefreshToken)()

	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.failures[req.RefreshToken]; ok {
		return domain.TokenRefresh{}, err
	}
	if result, ok := f.refreshes[req.RefreshToken]; ok {
		return result, nil
	}
	return domain.TokenRefresh{}, domain.NewVerificationError(domain.VerificationInvalidCredential, "unknown token")
}

func (f *fakeVerifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type memoryHistory struct {
	mu      sync.Mutex
	records []domain.ImportRecord
}

func (h *memoryHistory) Record(_ context.Context, records []domain.ImportRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, records...)
	return nil
}

func (h *memoryHistory) List(_ context.Context, limit int) ([]domain.ImportRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit <= 0 || limit > len(h.records) {
		limit = len(h.records)
	}
	return append([]domain.ImportRecord(nil), h.records[:limit]...), nil
}

func sequentialIDs(prefix string) func() domain.AccountID {
	var n atomic.Int32
	return func() domain.AccountID {
		return domain.AccountID(prefix + "-" + string(rune('a'+n.Add(1)-1)))
	}
}

func verifiedFor(email string) domain.VerifiedAccount {
	return domain.VerifiedAccount{
		Email:        email,
		UserID:       "uid-" + email,
		AccessToken:  "at-" + email,
		RefreshToken: "rt-rotated-" + email,
		ExpiresIn:    3600,
		Subscription: domain.Subscription{Title: "KIRO PRO+"},
		Usage:        domain.Usage{Current: 10, Limit: 100},
	}
}
