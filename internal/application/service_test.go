package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
	"github.com/bnema/kiro-accounts-cli/internal/ports/mocks"
)

func TestServiceLoadMergesVaultCredentials(t *testing.T) {
	repo := mocks.NewMockAccountRepository(t)
	vault := mocks.NewMockCredentialVault(t)
	service := NewService(repo, vault, fixedClock{now: testNow})

	expiresAt := testNow.Add(time.Hour)
	repo.EXPECT().List(mockAnyContext()).Return([]domain.Account{
		{ID: "a", Email: "a@example.com", Credentials: domain.Credentials{Region: "eu-west-1", ExpiresAt: expiresAt}},
		{ID: "b", Email: "b@example.com"},
	}, nil)
	vault.EXPECT().Get(mockAnyContext(), domain.AccountID("a")).Return(domain.Credentials{RefreshToken: "rt-a"}, nil)
	vault.EXPECT().Get(mockAnyContext(), domain.AccountID("b")).Return(domain.Credentials{}, domain.ErrCredentialNotFound)

	store := NewAccountStore()
	require.NoError(t, service.Load(context.Background(), store))

	a, ok := store.Get("a")
	require.True(t, ok)
	assert.Equal(t, domain.Credentials{RefreshToken: "rt-a", Region: "eu-west-1", ExpiresAt: expiresAt}, a.Credentials)
	_, ok = store.Get("b")
	assert.True(t, ok)
	assert.True(t, store.TakeDirty().IsEmpty())
}

func TestServiceLoadFailsOnVaultError(t *testing.T) {
	repo := mocks.NewMockAccountRepository(t)
	vault := mocks.NewMockCredentialVault(t)
	service := NewService(repo, vault, nil)

	vaultErr := errors.New("gpg agent unavailable")
	repo.EXPECT().List(mockAnyContext()).Return([]domain.Account{{ID: "a"}}, nil)
	vault.EXPECT().Get(mockAnyContext(), domain.AccountID("a")).Return(domain.Credentials{}, vaultErr)

	err := service.Load(context.Background(), NewAccountStore())
	assert.ErrorIs(t, err, vaultErr)
}

func TestServiceFlushPersistsDirtyAccounts(t *testing.T) {
	repo := mocks.NewMockAccountRepository(t)
	vault := mocks.NewMockCredentialVault(t)
	service := NewService(repo, vault, fixedClock{now: testNow})

	store := NewAccountStore()
	store.Hydrate([]domain.Account{{ID: "gone"}})
	creds := domain.Credentials{RefreshToken: "rt"}
	require.NoError(t, store.Add(domain.Account{ID: "a", Email: "a@example.com", Credentials: creds}))
	store.Remove("gone")

	vault.EXPECT().Get(mockAnyContext(), domain.AccountID("a")).Return(domain.Credentials{}, domain.ErrCredentialNotFound)
	vault.EXPECT().Put(mockAnyContext(), domain.AccountID("a"), creds).Return(nil)
	repo.EXPECT().Save(mockAnyContext(), domain.Account{ID: "a", Email: "a@example.com", Credentials: creds, CreatedAt: testNow}).Return(nil)
	repo.EXPECT().Delete(mockAnyContext(), domain.AccountID("gone")).Return(nil)
	vault.EXPECT().Delete(mockAnyContext(), domain.AccountID("gone")).Return(domain.ErrCredentialNotFound)

	require.NoError(t, service.Flush(context.Background(), store))
	assert.True(t, store.TakeDirty().IsEmpty())
}

func TestServiceFlushRollsBackNewCredentialsWhenSaveFails(t *testing.T) {
	repo := mocks.NewMockAccountRepository(t)
	vault := mocks.NewMockCredentialVault(t)
	service := NewService(repo, vault, fixedClock{now: testNow})

	store := NewAccountStore()
	account := domain.Account{ID: "a", CreatedAt: testNow, Credentials: domain.Credentials{RefreshToken: "rt"}}
	require.NoError(t, store.Add(account))

	saveErr := errors.New("disk full")
	vault.EXPECT().Get(mockAnyContext(), domain.AccountID("a")).Return(domain.Credentials{}, domain.ErrCredentialNotFound)
	vault.EXPECT().Put(mockAnyContext(), domain.AccountID("a"), account.Credentials).Return(nil)
	repo.EXPECT().Save(mockAnyContext(), account).Return(saveErr)
	vault.EXPECT().Delete(mockAnyContext(), domain.AccountID("a")).Return(nil)

	err := service.Flush(context.Background(), store)
	require.ErrorIs(t, err, saveErr)
	assert.Contains(t, err.Error(), "save account a")

	requeued := store.TakeDirty()
	require.Len(t, requeued.Upserted, 1)
}

func TestServiceFlushRestoresPreviousCredentialsWhenSaveFails(t *testing.T) {
	repo := mocks.NewMockAccountRepository(t)
	vault := mocks.NewMockCredentialVault(t)
	service := NewService(repo, vault, fixedClock{now: testNow})

	store := NewAccountStore()
	account := domain.Account{ID: "a", CreatedAt: testNow, Credentials: domain.Credentials{RefreshToken: "rt-new"}}
	require.NoError(t, store.Add(account))

	previous := domain.Credentials{RefreshToken: "rt-old"}
	saveErr := errors.New("disk full")
	restoreErr := errors.New("vault locked")
	vault.EXPECT().Get(mockAnyContext(), domain.AccountID("a")).Return(previous, nil)
	vault.EXPECT().Put(mockAnyContext(), domain.AccountID("a"), account.Credentials).Return(nil)
	repo.EXPECT().Save(mockAnyContext(), account).Return(saveErr)
	vault.EXPECT().Put(mockAnyContext(), domain.AccountID("a"), previous).Return(restoreErr)

	err := service.Flush(context.Background(), store)
	require.Error(t, err)
	assert.ErrorIs(t, err, saveErr)
	assert.ErrorIs(t, err, restoreErr)
	assert.Contains(t, err.Error(), "rollback stored credentials")
}

func TestServiceFlushFailsWhenVaultPutFails(t *testing.T) {
	repo := mocks.NewMockAccountRepository(t)
	vault := mocks.NewMockCredentialVault(t)
	service := NewService(repo, vault, fixedClock{now: testNow})

	store := NewAccountStore()
	require.NoError(t, store.Add(domain.Account{ID: "a", CreatedAt: testNow}))

	putErr := errors.New("pass insert failed")
	vault.EXPECT().Get(mockAnyContext(), domain.AccountID("a")).Return(domain.Credentials{}, domain.ErrCredentialNotFound)
	vault.EXPECT().Put(mockAnyContext(), domain.AccountID("a"), domain.Credentials{}).Return(putErr)

	err := service.Flush(context.Background(), store)
	assert.ErrorIs(t, err, putErr)
}

func TestServiceAccountReturnsCredentials(t *testing.T) {
	repo := mocks.NewMockAccountRepository(t)
	vault := mocks.NewMockCredentialVault(t)
	service := NewService(repo, vault, nil)

	repo.EXPECT().GetByID(mockAnyContext(), domain.AccountID("a")).Return(domain.Account{ID: "a"}, nil)
	vault.EXPECT().Get(mockAnyContext(), domain.AccountID("a")).Return(domain.Credentials{AccessToken: "at"}, nil)

	account, err := service.Account(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "at", account.Credentials.AccessToken)

	repo.EXPECT().GetByID(mockAnyContext(), domain.AccountID("missing")).Return(domain.Account{}, domain.ErrAccountNotFound)
	_, err = service.Account(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}
