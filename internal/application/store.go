package application

import (
	"sync"
	"time"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
	"github.com/bnema/kiro-accounts-cli/internal/ports"
)

type InsertResult int

const (
	Inserted InsertResult = iota
	Duplicate
	StoreClosed
)

func (r InsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Duplicate:
		return "duplicate"
	case StoreClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Changes lists the mutations made since the last TakeDirty call.
type Changes struct {
	Upserted []domain.Account
	Removed  []domain.AccountID
}

func (c Changes) IsEmpty() bool {
	return len(c.Upserted) == 0 && len(c.Removed) == 0
}

// AccountStore is the single mutable collection of accounts. Every mutation is an
// atomic upsert or delete keyed by account id. After Close, writes are no-ops.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[domain.AccountID]domain.Account
	order    []domain.AccountID
	selected map[domain.AccountID]struct{}
	filter   domain.Filter
	closed   bool

	dirty   map[domain.AccountID]struct{}
	removed map[domain.AccountID]struct{}

	clock          ports.Clock
	expiringWindow time.Duration
}

type StoreOption func(*AccountStore)

func WithStoreClock(clock ports.Clock) StoreOption {
	return func(s *AccountStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithExpiringWindow(window time.Duration) StoreOption {
	return func(s *AccountStore) {
		if window > 0 {
			s.expiringWindow = window
		}
	}
}

func NewAccountStore(opts ...StoreOption) *AccountStore {
	s := &AccountStore{
		accounts:       make(map[domain.AccountID]domain.Account),
		selected:       make(map[domain.AccountID]struct{}),
		dirty:          make(map[domain.AccountID]struct{}),
		removed:        make(map[domain.AccountID]struct{}),
		clock:          ports.SystemClock{},
		expiringWindow: domain.DefaultExpiringWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate replaces the collection with persisted state without marking anything dirty.
func (s *AccountStore) Hydrate(accounts []domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = make(map[domain.AccountID]domain.Account, len(accounts))
	s.order = s.order[:0]
	s.selected = make(map[domain.AccountID]struct{})
	s.dirty = make(map[domain.AccountID]struct{})
	s.removed = make(map[domain.AccountID]struct{})

	for _, account := range accounts {
		if account.ID == "" {
			continue
		}
		if _, ok := s.accounts[account.ID]; !ok {
			s.order = append(s.order, account.ID)
		}
		s.accounts[account.ID] = account.Clone()
	}
}

// Add inserts or replaces the account with the same id.
func (s *AccountStore) Add(account domain.Account) error {
	if account.ID == "" {
		return ErrEmptyAccountID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.putLocked(account)
	return nil
}

// InsertIfAbsent inserts account unless an account with the same id, email or user
// id is already present. The check and the insert happen under one lock.
func (s *AccountStore) InsertIfAbsent(account domain.Account) InsertResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return StoreClosed
	}
	if _, ok := s.accounts[account.ID]; ok || account.ID == "" {
		return Duplicate
	}
	if s.existsLocked(account.Email, account.UserID) {
		return Duplicate
	}
	s.putLocked(account)
	return Inserted
}

func (s *AccountStore) putLocked(account domain.Account) {
	if _, ok := s.accounts[account.ID]; !ok {
		s.order = append(s.order, account.ID)
	}
	s.accounts[account.ID] = account.Clone()
	s.dirty[account.ID] = struct{}{}
	delete(s.removed, account.ID)
}

// Remove deletes the given accounts and drops them from the selection. It returns
// how many were present.
func (s *AccountStore) Remove(ids ...domain.AccountID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0
	}

	drop := make(map[domain.AccountID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.accounts[id]; !ok {
			continue
		}
		drop[id] = struct{}{}
		delete(s.accounts, id)
		delete(s.selected, id)
		delete(s.dirty, id)
		s.removed[id] = struct{}{}
	}
	if len(drop) == 0 {
		return 0
	}

	order := s.order[:0]
	for _, id := range s.order {
		if _, ok := drop[id]; !ok {
			order = append(order, id)
		}
	}
	s.order = order

	return len(drop)
}

// Update applies patch to a copy of the account and stores the result atomically.
// The id cannot be changed by patch.
func (s *AccountStore) Update(id domain.AccountID, patch func(*domain.Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	current, ok := s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}

	next := current.Clone()
	patch(&next)
	next.ID = id
	s.accounts[id] = next
	s.dirty[id] = struct{}{}
	return nil
}

func (s *AccountStore) Get(id domain.AccountID) (domain.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, false
	}
	return account.Clone(), true
}

// List returns every account in insertion order.
func (s *AccountStore) List() []domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Account, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.accounts[id].Clone())
	}
	return result
}

func (s *AccountStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

// Exists reports whether any stored account has the same email or, when given, the
// same user id.
func (s *AccountStore) Exists(email, userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.existsLocked(email, userID)
}

func (s *AccountStore) existsLocked(email, userID string) bool {
	_, ok := s.ownerLocked("", email, userID)
	return ok
}

// IdentityOwner returns an account other than self that matches email or userID.
func (s *AccountStore) IdentityOwner(self domain.AccountID, email, userID string) (domain.AccountID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownerLocked(self, email, userID)
}

func (s *AccountStore) ownerLocked(self domain.AccountID, email, userID string) (domain.AccountID, bool) {
	for id, account := range s.accounts {
		if id != self && account.SameIdentity(email, userID) {
			return id, true
		}
	}
	return "", false
}

func (s *AccountStore) SetFilter(filter domain.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = filter
}

func (s *AccountStore) Filter() domain.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// Filtered returns the accounts matching the current filter in insertion order.
func (s *AccountStore) Filtered() []domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filteredLocked()
}

func (s *AccountStore) filteredLocked() []domain.Account {
	result := make([]domain.Account, 0, len(s.order))
	for _, id := range s.order {
		account := s.accounts[id]
		if s.filter.Matches(account) {
			result = append(result, account.Clone())
		}
	}
	return result
}

// Select adds present ids to the selection; unknown ids are ignored.
func (s *AccountStore) Select(ids ...domain.AccountID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if _, ok := s.accounts[id]; ok {
			s.selected[id] = struct{}{}
		}
	}
}

func (s *AccountStore) Deselect(ids ...domain.AccountID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.selected, id)
	}
}

// SelectAll selects every account visible through the current filter.
func (s *AccountStore) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range s.filteredLocked() {
		s.selected[account.ID] = struct{}{}
	}
}

func (s *AccountStore) DeselectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[domain.AccountID]struct{})
}

// Selected returns the selected ids in insertion order.
func (s *AccountStore) Selected() []domain.AccountID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AccountID, 0, len(s.selected))
	for _, id := range s.order {
		if _, ok := s.selected[id]; ok {
			result = append(result, id)
		}
	}
	return result
}

func (s *AccountStore) IsSelected(id domain.AccountID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selected[id]
	return ok
}

func (s *AccountStore) Stats() domain.Stats {
	accounts := s.List()
	return domain.ComputeStats(accounts, s.clock.Now(), s.expiringWindow)
}

// Close tears the store down. Later writes are dropped silently.
func (s *AccountStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *AccountStore) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// TakeDirty returns and clears the pending changes.
func (s *AccountStore) TakeDirty() Changes {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changes Changes
	for _, id := range s.order {
		if _, ok := s.dirty[id]; ok {
			changes.Upserted = append(changes.Upserted, s.accounts[id].Clone())
		}
	}
	for id := range s.removed {
		changes.Removed = append(changes.Removed, id)
	}

	s.dirty = make(map[domain.AccountID]struct{})
	s.removed = make(map[domain.AccountID]struct{})

	return changes
}

// Requeue marks changes as pending again, skipping ids that changed meanwhile.
func (s *AccountStore) Requeue(changes Changes) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range changes.Upserted {
		if _, ok := s.accounts[account.ID]; ok {
			s.dirty[account.ID] = struct{}{}
		}
	}
	for _, id := range changes.Removed {
		if _, ok := s.accounts[id]; !ok {
			s.removed[id] = struct{}{}
		}
	}
}
