package ports

import (
	"context"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
)

type ImportHistory interface {
	Record(ctx context.Context, records []domain.ImportRecord) error
	// List returns the newest records first. limit <= 0 returns everything.
	List(ctx context.Context, limit int) ([]domain.ImportRecord, error)
}
