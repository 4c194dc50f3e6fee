package ports

import (
	"context"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
)

// AccountRepository persists account metadata. Credentials live in a CredentialVault.
type AccountRepository interface {
	GetByID(ctx context.Context, id domain.AccountID) (domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	Save(ctx context.Context, account domain.Account) error
	Delete(ctx context.Context, id domain.AccountID) error
}
