package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
	portmocks "github.com/bnema/kiro-accounts-cli/internal/ports/mocks"
)

var (
	testID    = domain.AccountID("acc-1")
	testCreds = domain.Credentials{RefreshToken: "rt", Region: "us-east-1"}
)

func TestStoreGetUsesPrimaryWhenItSucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockCredentialVault(t)
	fallback := portmocks.NewMockCredentialVault(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, testID).Return(testCreds, nil).Once()

	creds, err := store.Get(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, testCreds, creds)
}

func TestStoreGetFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockCredentialVault(t)
	fallback := portmocks.NewMockCredentialVault(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, testID).Return(domain.Credentials{}, errors.New("pass unavailable")).Once()
	fallback.EXPECT().Get(mock.Anything, testID).Return(testCreds, nil).Once()

	creds, err := store.Get(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, testCreds, creds)
}

func TestStoreGetFallsBackWhenPrimaryHasNoEntry(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockCredentialVault(t)
	fallback := portmocks.NewMockCredentialVault(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, testID).Return(domain.Credentials{}, domain.ErrCredentialNotFound).Once()
	fallback.EXPECT().Get(mock.Anything, testID).Return(testCreds, nil).Once()

	creds, err := store.Get(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, testCreds, creds)
}

func TestStoreGetReportsNotFoundWhenNeitherBackendHasEntry(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockCredentialVault(t)
	fallback := portmocks.NewMockCredentialVault(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, testID).Return(domain.Credentials{}, domain.ErrCredentialNotFound).Once()
	fallback.EXPECT().Get(mock.Anything, testID).Return(domain.Credentials{}, domain.ErrCredentialNotFound).Once()

	_, err := store.Get(context.Background(), testID)
	require.ErrorIs(t, err, domain.ErrCredentialNotFound)
	assert.NotContains(t, err.Error(), "primary backend")
}

func TestStoreGetReturnsCombinedErrorWhenBothBackendsFail(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockCredentialVault(t)
	fallback := portmocks.NewMockCredentialVault(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, testID).Return(domain.Credentials{}, errors.New("pass failed")).Once()
	fallback.EXPECT().Get(mock.Anything, testID).Return(domain.Credentials{}, errors.New("file failed")).Once()

	_, err := store.Get(context.Background(), testID)
	require.Error(t, err)
	assert.ErrorContains(t, err, "primary backend")
	assert.ErrorContains(t, err, "fallback backend")
	assert.ErrorContains(t, err, "pass failed")
	assert.ErrorContains(t, err, "file failed")
}

func TestStorePutFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockCredentialVault(t)
	fallback := portmocks.NewMockCredentialVault(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Put(mock.Anything, testID, testCreds).Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Put(mock.Anything, testID, testCreds).Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), testID, testCreds))
}

func TestStorePutDoesNotCallFallbackWhenPrimarySucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockCredentialVault(t)
	fallback := portmocks.NewMockCredentialVault(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Put(mock.Anything, testID, testCreds).Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), testID, testCreds))
}

func TestStoreDeleteClearsBothBackends(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockCredentialVault(t)
	fallback := portmocks.NewMockCredentialVault(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Delete(mock.Anything, testID).Return(nil).Once()
	fallback.EXPECT().Delete(mock.Anything, testID).Return(nil).Once()

	require.NoError(t, store.Delete(context.Background(), testID))
}

func TestStoreDeleteSucceedsWhenOneBackendFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockCredentialVault(t)
	fallback := portmocks.NewMockCredentialVault(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Delete(mock.Anything, testID).Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Delete(mock.Anything, testID).Return(nil).Once()

	require.NoError(t, store.Delete(context.Background(), testID))
}

func TestStoreGetDoesNotFallbackOnCanceledContextError(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockCredentialVault(t)
	fallback := portmocks.NewMockCredentialVault(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, testID).Return(domain.Credentials{}, context.Canceled).Once()

	_, err := store.Get(context.Background(), testID)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewStoreCheckedRejectsNilBackends(t *testing.T) {
	t.Parallel()

	_, err := NewStoreChecked(nil, portmocks.NewMockCredentialVault(t))
	assert.ErrorIs(t, err, errNilPrimaryStore)

	_, err = NewStoreChecked(portmocks.NewMockCredentialVault(t), nil)
	assert.ErrorIs(t, err, errNilFallbackStore)
}
