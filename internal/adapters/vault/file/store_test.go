package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
)

func TestStoreRejectsInvalidIDs(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	testCases := []struct {
		name    string
		id      domain.AccountID
		wantErr string
	}{
		{name: "empty", id: "", wantErr: "credential key is empty"},
		{name: "whitespace", id: "   ", wantErr: "credential key is empty"},
		{name: "separator", id: "a/b", wantErr: "invalid credential key"},
		{name: "traversal", id: "..", wantErr: "invalid credential key"},
		{name: "backslash", id: `..\escape`, wantErr: "invalid credential key"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.Put(context.Background(), tc.id, domain.Credentials{RefreshToken: "rt"})
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestStorePutGetRoundTripAndPermissions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)
	want := domain.Credentials{
		AccessToken:  "at",
		RefreshToken: "rt",
		ClientID:     "cid",
		ClientSecret: "cs",
		Region:       "us-east-1",
		ExpiresAt:    time.Date(2026, 10, 15, 10, 30, 0, 0, time.UTC),
		AuthMethod:   domain.AuthMethodIdC,
		Provider:     domain.IdPBuilderID,
	}

	require.NoError(t, store.Put(context.Background(), "acc-1", want))

	got, err := store.Get(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := os.Stat(filepath.Join(root, "kiro-accounts", "acc-1.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(secretFileMode), info.Mode().Perm())
}

func TestStoreGetMissingIsNotFound(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	_, err := store.Get(context.Background(), "acc-1")
	assert.ErrorIs(t, err, domain.ErrCredentialNotFound)
}

func TestStoreDeleteIsIdempotentWhenMissing(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	require.NoError(t, store.Put(context.Background(), "acc-1", domain.Credentials{RefreshToken: "rt"}))

	require.NoError(t, store.Delete(context.Background(), "acc-1"))
	require.NoError(t, store.Delete(context.Background(), "acc-1"))

	_, err := store.Get(context.Background(), "acc-1")
	assert.ErrorIs(t, err, domain.ErrCredentialNotFound)
}
