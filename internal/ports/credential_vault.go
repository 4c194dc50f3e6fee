package ports

import (
	"context"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
)

type CredentialVault interface {
	Get(ctx context.Context, id domain.AccountID) (domain.Credentials, error)
	Put(ctx context.Context, id domain.AccountID, creds domain.Credentials) error
	Delete(ctx context.Context, id domain.AccountID) error
}
