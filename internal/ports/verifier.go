package ports

import (
	"context"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
)

// Verifier exchanges a refresh token for live account state. Implementations
// return failures as *domain.VerificationError.
type Verifier interface {
	Verify(ctx context.Context, req domain.VerifyRequest) (domain.VerifiedAccount, error)
	Refresh(ctx context.Context, req domain.VerifyRequest) (domain.TokenRefresh, error)
}
