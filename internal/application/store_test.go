package application

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
)

func seededStore(t *testing.T, accounts ...domain.Account) *AccountStore {
	t.Helper()
	store := NewAccountStore(WithStoreClock(fixedClock{now: testNow}))
	for _, account := range accounts {
		require.NoError(t, store.Add(account))
	}
	return store
}

func TestAccountStoreAddUpsertsByID(t *testing.T) {
	store := seededStore(t,
		domain.Account{ID: "a", Email: "a@example.com"},
		domain.Account{ID: "b", Email: "b@example.com"},
	)

	require.NoError(t, store.Add(domain.Account{ID: "a", Email: "a@example.com", Nickname: "renamed"}))

	accounts := store.List()
	require.Len(t, accounts, 2)
	assert.Equal(t, domain.AccountID("a"), accounts[0].ID)
	assert.Equal(t, "renamed", accounts[0].Nickname)
	assert.ErrorIs(t, store.Add(domain.Account{}), ErrEmptyAccountID)
}

func TestAccountStoreExistsMatchesEmailOrUserID(t *testing.T) {
	store := seededStore(t, domain.Account{ID: "a", Email: "a@example.com", UserID: "u-1"})

	assert.True(t, store.Exists("A@Example.com", ""))
	assert.True(t, store.Exists("new@example.com", "u-1"))
	assert.False(t, store.Exists("new@example.com", "u-2"))
	assert.False(t, store.Exists("", ""))
}

func TestAccountStoreInsertIfAbsent(t *testing.T) {
	store := seededStore(t, domain.Account{ID: "a", Email: "a@example.com"})

	assert.Equal(t, Duplicate, store.InsertIfAbsent(domain.Account{ID: "b", Email: "A@example.com"}))
	assert.Equal(t, Duplicate, store.InsertIfAbsent(domain.Account{ID: "a", Email: "other@example.com"}))
	assert.Equal(t, Inserted, store.InsertIfAbsent(domain.Account{ID: "c", Email: "c@example.com"}))

	store.Close()
	assert.Equal(t, StoreClosed, store.InsertIfAbsent(domain.Account{ID: "d", Email: "d@example.com"}))
	assert.Equal(t, 2, store.Len())
}

func TestAccountStoreConcurrentInsertsKeepOneIdentity(t *testing.T) {
	store := NewAccountStore()

	var wg sync.WaitGroup
	results := make([]InsertResult, 20)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = store.InsertIfAbsent(domain.Account{
				ID:    domain.AccountID(rune('a' + i)),
				Email: "same@example.com",
			})
		}()
	}
	wg.Wait()

	inserted := 0
	for _, result := range results {
		if result == Inserted {
			inserted++
		}
	}
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 1, store.Len())
}

func TestAccountStoreRemoveDropsSelection(t *testing.T) {
	store := seededStore(t,
		domain.Account{ID: "a", Email: "a@example.com"},
		domain.Account{ID: "b", Email: "b@example.com"},
		domain.Account{ID: "c", Email: "c@example.com"},
	)
	store.Select("a", "b", "missing")
	require.Equal(t, []domain.AccountID{"a", "b"}, store.Selected())

	removed := store.Remove("a", "missing")

	assert.Equal(t, 1, removed)
	assert.Equal(t, []domain.AccountID{"b"}, store.Selected())
	assert.False(t, store.IsSelected("a"))
	_, ok := store.Get("a")
	assert.False(t, ok)
}

func TestAccountStoreDeselect(t *testing.T) {
	store := seededStore(t,
		domain.Account{ID: "a", Email: "a@example.com"},
		domain.Account{ID: "b", Email: "b@example.com"},
		domain.Account{ID: "c", Email: "c@example.com"},
	)
	store.Select("a", "b")

	store.Deselect("a")
	assert.Equal(t, []domain.AccountID{"b"}, store.Selected())
	assert.False(t, store.IsSelected("a"))

	store.Deselect("c", "missing")
	assert.Equal(t, []domain.AccountID{"b"}, store.Selected())
	assert.Equal(t, 3, store.Len())

	store.Deselect("b")
	assert.Empty(t, store.Selected())
}

func TestAccountStoreIdentityOwnerSkipsSelf(t *testing.T) {
	store := seededStore(t,
		domain.Account{ID: "a", Email: "a@example.com", UserID: "u-a"},
		domain.Account{ID: "b", Email: "b@example.com"},
	)

	_, taken := store.IdentityOwner("a", "a@example.com", "u-a")
	assert.False(t, taken)

	owner, taken := store.IdentityOwner("a", "B@example.com", "")
	assert.True(t, taken)
	assert.Equal(t, domain.AccountID("b"), owner)

	owner, taken = store.IdentityOwner("b", "", "u-a")
	assert.True(t, taken)
	assert.Equal(t, domain.AccountID("a"), owner)
}

func TestAccountStoreUpdate(t *testing.T) {
	store := seededStore(t, domain.Account{ID: "a", Email: "a@example.com", Tags: []string{"x"}})

	err := store.Update("a", func(account *domain.Account) {
		account.ID = "hijacked"
		account.Nickname = "alice"
		account.AddTags("y")
	})
	require.NoError(t, err)

	account, ok := store.Get("a")
	require.True(t, ok)
	assert.Equal(t, "alice", account.Nickname)
	assert.Equal(t, []string{"x", "y"}, account.Tags)
	_, ok = store.Get("hijacked")
	assert.False(t, ok)

	assert.ErrorIs(t, store.Update("missing", func(*domain.Account) {}), domain.ErrAccountNotFound)
}

func TestAccountStoreReturnsCopies(t *testing.T) {
	store := seededStore(t, domain.Account{ID: "a", Tags: []string{"x"}})

	account, _ := store.Get("a")
	account.Tags[0] = "mutated"

	stored, _ := store.Get("a")
	assert.Equal(t, "x", stored.Tags[0])
}

func TestAccountStoreFilterIsReadOnlyView(t *testing.T) {
	store := seededStore(t,
		domain.Account{ID: "a", Email: "alice@example.com", Status: domain.StatusActive},
		domain.Account{ID: "b", Email: "bob@example.com", Status: domain.StatusError},
		domain.Account{ID: "c", Email: "carol@example.com", Status: domain.StatusActive, Tags: []string{"team"}},
	)

	store.SetFilter(domain.Filter{Statuses: []domain.Status{domain.StatusActive}})
	filtered := store.Filtered()
	require.Len(t, filtered, 2)
	assert.Equal(t, domain.AccountID("a"), filtered[0].ID)
	assert.Equal(t, domain.AccountID("c"), filtered[1].ID)
	assert.Equal(t, 3, store.Len())

	store.SelectAll()
	assert.Equal(t, []domain.AccountID{"a", "c"}, store.Selected())

	store.DeselectAll()
	assert.Empty(t, store.Selected())

	store.SetFilter(domain.Filter{})
	assert.Len(t, store.Filtered(), 3)
}

func TestAccountStoreStats(t *testing.T) {
	store := NewAccountStore(WithStoreClock(fixedClock{now: testNow}), WithExpiringWindow(time.Hour))
	require.NoError(t, store.Add(domain.Account{
		ID:          "a",
		Status:      domain.StatusActive,
		Credentials: domain.Credentials{ExpiresAt: testNow.Add(20 * time.Minute)},
		Usage:       domain.Usage{Current: 5, Limit: 10},
	}))
	require.NoError(t, store.Add(domain.Account{ID: "b", Status: domain.StatusError}))
	require.NoError(t, store.Add(domain.Account{ID: "c", Status: domain.StatusUnknown}))

	stats := store.Stats()

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.ActiveCount)
	assert.Equal(t, map[domain.Status]int{
		domain.StatusActive:  1,
		domain.StatusError:   1,
		domain.StatusUnknown: 1,
	}, stats.ByStatus)
	assert.Equal(t, 1, stats.ExpiringSoonCount)
	assert.Equal(t, 50.0, stats.Usage.PercentUsed)
}

func TestAccountStoreCloseMakesWritesNoOps(t *testing.T) {
	store := seededStore(t, domain.Account{ID: "a", Email: "a@example.com"})
	store.Close()

	require.NoError(t, store.Add(domain.Account{ID: "b"}))
	require.NoError(t, store.Update("a", func(account *domain.Account) { account.Nickname = "late" }))
	assert.Equal(t, 0, store.Remove("a"))

	account, ok := store.Get("a")
	require.True(t, ok)
	assert.Empty(t, account.Nickname)
	assert.Equal(t, 1, store.Len())
	assert.True(t, store.Closed())
}

func TestAccountStoreDirtyTracking(t *testing.T) {
	store := NewAccountStore()
	store.Hydrate([]domain.Account{{ID: "a"}, {ID: "b"}})
	assert.True(t, store.TakeDirty().IsEmpty())

	require.NoError(t, store.Update("a", func(account *domain.Account) { account.Nickname = "x" }))
	store.Remove("b")
	require.NoError(t, store.Add(domain.Account{ID: "c"}))

	changes := store.TakeDirty()
	require.Len(t, changes.Upserted, 2)
	assert.Equal(t, domain.AccountID("a"), changes.Upserted[0].ID)
	assert.Equal(t, domain.AccountID("c"), changes.Upserted[1].ID)
	assert.Equal(t, []domain.AccountID{"b"}, changes.Removed)
	assert.True(t, store.TakeDirty().IsEmpty())

	store.Requeue(changes)
	requeued := store.TakeDirty()
	assert.Len(t, requeued.Upserted, 2)
	assert.Equal(t, []domain.AccountID{"b"}, requeued.Removed)
}
