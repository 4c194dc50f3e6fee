package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bnema/kiro-accounts-cli/internal/adapters/vault"
	"github.com/bnema/kiro-accounts-cli/internal/domain"
	"github.com/bnema/kiro-accounts-cli/internal/ports"
)

const (
	storeDirMode   = 0o700
	secretFileMode = 0o600
	fileSuffix     = ".json"
)

// Store keeps one JSON document per account under root.
type Store struct {
	root string
	mu   sync.RWMutex
}

var _ ports.CredentialVault = (*Store)(nil)

func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

func (s *Store) Put(ctx context.Context, id domain.AccountID, creds domain.Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathFor(id)
	if err != nil {
		return err
	}

	data, err := vault.Encode(creds)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), storeDirMode); err != nil {
		return fmt.Errorf("create credential directory: %w", err)
	}

	if err := os.WriteFile(path, data, secretFileMode); err != nil {
		return fmt.Errorf("write credentials %q: %w", id, err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, id domain.AccountID) (domain.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return domain.Credentials{}, err
	}

	path, err := s.pathFor(id)
	if err != nil {
		return domain.Credentials{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Credentials{}, fmt.Errorf("file credentials %q: %w", id, domain.ErrCredentialNotFound)
		}
		return domain.Credentials{}, fmt.Errorf("read credentials %q: %w", id, err)
	}

	return vault.Decode(data)
}

// Delete is idempotent.
func (s *Store) Delete(ctx context.Context, id domain.AccountID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathFor(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete credentials %q: %w", id, err)
	}

	return nil
}

func (s *Store) pathFor(id domain.AccountID) (string, error) {
	key, err := vault.Key(id)
	if err != nil {
		return "", err
	}

	return filepath.Join(s.root, filepath.FromSlash(key)+fileSuffix), nil
}
