package pass

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
)

func TestStorePutUsesPassInsert(t *testing.T) {
	t.Parallel()

	called := false
	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			called = true
			assert.Equal(t, []string{"insert", "-m", "-f", "kiro-accounts/acc-1"}, args)
			assert.Equal(t, `{"refreshToken":"rt","region":"us-east-1"}`+"\n", input)
			return "", "", nil
		},
	}

	err := store.Put(context.Background(), "acc-1", domain.Credentials{RefreshToken: "rt", Region: "us-east-1"})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestStoreGetUsesPassShowAndDecodes(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			assert.Equal(t, []string{"show", "kiro-accounts/acc-1"}, args)
			assert.Empty(t, input)
			return `{"accessToken":"at","refreshToken":"rt","authMethod":"social","provider":"Google"}` + "\n", "", nil
		},
	}

	creds, err := store.Get(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.Credentials{
		AccessToken:  "at",
		RefreshToken: "rt",
		AuthMethod:   domain.AuthMethodSocial,
		Provider:     domain.IdPGoogle,
	}, creds)
}

func TestStoreGetMissingEntryIsNotFound(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			return "", "Error: kiro-accounts/acc-1 is not in the password store.", errors.New("exit status 1")
		},
	}

	_, err := store.Get(context.Background(), "acc-1")
	assert.ErrorIs(t, err, domain.ErrCredentialNotFound)
}

func TestStoreDeleteUsesPassRemove(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			assert.Equal(t, []string{"rm", "-f", "kiro-accounts/acc-1"}, args)
			assert.Empty(t, input)
			return "", "", nil
		},
	}

	require.NoError(t, store.Delete(context.Background(), "acc-1"))
}

func TestStoreGetReturnsClearError(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			return "", "gpg: decryption failed: No secret key", errors.New("exit status 2")
		},
	}

	_, err := store.Get(context.Background(), "acc-1")
	require.Error(t, err)
	assert.ErrorContains(t, err, "pass get")
	assert.ErrorContains(t, err, "kiro-accounts/acc-1")
	assert.ErrorContains(t, err, "No secret key")
	assert.NotErrorIs(t, err, domain.ErrCredentialNotFound)
}

func TestStoreGetRejectsCorruptEntry(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			return "not json\n", "", nil
		},
	}

	_, err := store.Get(context.Background(), "acc-1")
	assert.ErrorContains(t, err, "decode credentials")
}
