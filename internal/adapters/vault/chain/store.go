package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/kiro-accounts-cli/internal/adapters/vault/file"
	passstore "github.com/bnema/kiro-accounts-cli/internal/adapters/vault/pass"
	"github.com/bnema/kiro-accounts-cli/internal/domain"
	"github.com/bnema/kiro-accounts-cli/internal/ports"
)

// Store tries primary first and falls back on any failure except context ends.
// Reads also fall back when primary has no entry, since an earlier write may
// have landed in the fallback while primary was unavailable.
type Store struct {
	primary  ports.CredentialVault
	fallback ports.CredentialVault
}

var _ ports.CredentialVault = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary credential vault is nil")
	errNilFallbackStore = errors.New("fallback credential vault is nil")
)

func NewStore(primary ports.CredentialVault, fallback ports.CredentialVault) *Store {
	store, err := NewStoreChecked(primary, fallback)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(primary ports.CredentialVault, fallback ports.CredentialVault) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback}, nil
}

func NewPassFirstWithFileFallback(fileRoot string) (*Store, error) {
	return NewStoreChecked(passstore.NewStore(), filestore.NewStore(fileRoot))
}

func (s *Store) Put(ctx context.Context, id domain.AccountID, creds domain.Credentials) error {
	err := s.primary.Put(ctx, id, creds)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Put(ctx, id, creds)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary backend put failed: %w; fallback backend put failed: %w", err, fallbackErr)
}

func (s *Store) Get(ctx context.Context, id domain.AccountID) (domain.Credentials, error) {
	creds, err := s.primary.Get(ctx, id)
	if err == nil {
		return creds, nil
	}
	if shouldSkipFallback(err) {
		return domain.Credentials{}, err
	}

	fallbackCreds, fallbackErr := s.fallback.Get(ctx, id)
	if fallbackErr == nil {
		return fallbackCreds, nil
	}

	if errors.Is(err, domain.ErrCredentialNotFound) && errors.Is(fallbackErr, domain.ErrCredentialNotFound) {
		return domain.Credentials{}, fmt.Errorf("credentials %q: %w", id, domain.ErrCredentialNotFound)
	}

	return domain.Credentials{}, fmt.Errorf("primary backend get failed: %w; fallback backend get failed: %w", err, fallbackErr)
}

// Delete clears both backends so a stale fallback copy cannot resurface on Get.
func (s *Store) Delete(ctx context.Context, id domain.AccountID) error {
	err := s.primary.Delete(ctx, id)
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Delete(ctx, id)
	if err == nil || fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary backend delete failed: %w; fallback backend delete failed: %w", err, fallbackErr)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
