package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
	"github.com/bnema/kiro-accounts-cli/internal/ports"
)

var (
	ErrEmptyAccountID      = errors.New("account id is empty")
	ErrMissingRefreshToken = errors.New("refresh token is required")
	ErrStoreClosed         = errors.New("account store is closed")
)

// Service moves accounts between persistent storage and an AccountStore. Metadata
// goes to the repository, credentials to the vault.
type Service struct {
	repo  ports.AccountRepository
	vault ports.CredentialVault
	clock ports.Clock
}

func NewService(repo ports.AccountRepository, vault ports.CredentialVault, clock ports.Clock) *Service {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Service{
		repo:  repo,
		vault: vault,
		clock: clock,
	}
}

// Load hydrates store from the repository. Accounts whose credentials are missing
// from the vault are loaded without credentials.
func (s *Service) Load(ctx context.Context, store *AccountStore) error {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	for idx := range accounts {
		creds, err := s.vault.Get(ctx, accounts[idx].ID)
		if err != nil {
			if errors.Is(err, domain.ErrCredentialNotFound) {
				continue
			}
			return fmt.Errorf("get credentials for %s: %w", accounts[idx].ID, err)
		}
		accounts[idx].Credentials = mergeCredentials(accounts[idx].Credentials, creds)
	}

	store.Hydrate(accounts)
	return nil
}

// Account returns one persisted account with its credentials.
func (s *Service) Account(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Account{}, fmt.Errorf("get account by id: %w", err)
	}

	creds, err := s.vault.Get(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrCredentialNotFound) {
		return domain.Account{}, fmt.Errorf("get credentials: %w", err)
	}
	if err == nil {
		account.Credentials = mergeCredentials(account.Credentials, creds)
	}

	return account, nil
}

// Flush persists the changes the store accumulated since the last flush, one account
// at a time. Unpersisted changes are requeued on failure.
func (s *Service) Flush(ctx context.Context, store *AccountStore) error {
	changes := store.TakeDirty()
	if changes.IsEmpty() {
		return nil
	}

	for idx, account := range changes.Upserted {
		if err := s.saveAccount(ctx, account); err != nil {
			store.Requeue(Changes{Upserted: changes.Upserted[idx:], Removed: changes.Removed})
			return fmt.Errorf("save account %s: %w", account.ID, err)
		}
	}

	for idx, id := range changes.Removed {
		if err := s.deleteAccount(ctx, id); err != nil {
			store.Requeue(Changes{Removed: changes.Removed[idx:]})
			return fmt.Errorf("delete account %s: %w", id, err)
		}
	}

	return nil
}

func (s *Service) saveAccount(ctx context.Context, account domain.Account) error {
	if account.ID == "" {
		return ErrEmptyAccountID
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = s.clock.Now()
	}

	previous, err := s.vault.Get(ctx, account.ID)
	hadPrevious := err == nil
	if err != nil && !errors.Is(err, domain.ErrCredentialNotFound) {
		return fmt.Errorf("read previous credentials: %w", err)
	}

	if err := s.vault.Put(ctx, account.ID, account.Credentials); err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}

	if err := s.repo.Save(ctx, account); err != nil {
		var rollbackErr error
		if hadPrevious {
			rollbackErr = s.vault.Put(ctx, account.ID, previous)
		} else {
			rollbackErr = s.vault.Delete(ctx, account.ID)
		}
		if rollbackErr != nil {
			return fmt.Errorf("save account and rollback stored credentials: %w", errors.Join(err, rollbackErr))
		}

		return fmt.Errorf("save account: %w", err)
	}

	return nil
}

func (s *Service) deleteAccount(ctx context.Context, id domain.AccountID) error {
	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return fmt.Errorf("delete account metadata: %w", err)
	}

	if err := s.vault.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrCredentialNotFound) {
		return fmt.Errorf("delete credentials: %w", err)
	}

	return nil
}

// mergeCredentials prefers vault values and keeps repository metadata for fields the
// vault left empty.
func mergeCredentials(meta, secret domain.Credentials) domain.Credentials {
	merged := secret
	if merged.Region == "" {
		merged.Region = meta.Region
	}
	if merged.AuthMethod == "" {
		merged.AuthMethod = meta.AuthMethod
	}
	if merged.Provider == "" {
		merged.Provider = meta.Provider
	}
	if merged.ExpiresAt.IsZero() {
		merged.ExpiresAt = meta.ExpiresAt
	}
	if merged.ClientID == "" {
		merged.ClientID = meta.ClientID
	}
	return merged
}
