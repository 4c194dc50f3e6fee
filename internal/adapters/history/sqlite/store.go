// Package sqlite persists the import ledger in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/bnema/kiro-accounts-cli/internal/domain"
	"github.com/bnema/kiro-accounts-cli/internal/ports"
)

const dataDirMode = 0o700

type Store struct {
	db   *sql.DB
	path string
}

var _ ports.ImportHistory = (*Store)(nil)

// Open creates the database file and its parent directory when missing and
// applies the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("import history path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), dataDirMode); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS import_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			label TEXT NOT NULL DEFAULT '',
			account_id TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			user_id TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL,
			error_kind TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			subscription_type TEXT NOT NULL DEFAULT '',
			usage_current REAL NOT NULL DEFAULT 0,
			usage_limit REAL NOT NULL DEFAULT 0,
			source TEXT NOT NULL DEFAULT '',
			imported_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_import_records_imported_at ON import_records(imported_at);`,
		`CREATE INDEX IF NOT EXISTS idx_import_records_email ON import_records(email);`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("migrate import history: %w", err)
		}
	}

	return nil
}

// Record appends records in one transaction.
func (s *Store) Record(ctx context.Context, records []domain.ImportRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import history transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO import_records (
		label, account_id, email, user_id, outcome, error_kind, message,
		subscription_type, usage_current, usage_limit, source, imported_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare import history insert: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		_, err := stmt.ExecContext(ctx,
			record.Label,
			string(record.AccountID),
			record.Email,
			record.UserID,
			string(record.Outcome),
			string(record.ErrorKind),
			record.Message,
			string(record.SubscriptionType),
			record.UsageCurrent,
			record.UsageLimit,
			string(record.Source),
			record.ImportedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("insert import record %q: %w", record.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import history: %w", err)
	}

	return nil
}

func (s *Store) List(ctx context.Context, limit int) ([]domain.ImportRecord, error) {
	query := `SELECT label, account_id, email, user_id, outcome, error_kind, message,
		subscription_type, usage_current, usage_limit, source, imported_at
		FROM import_records ORDER BY imported_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query import history: %w", err)
	}
	defer rows.Close()

	var records []domain.ImportRecord
	for rows.Next() {
		var (
			record           domain.ImportRecord
			accountID        string
			outcome          string
			errorKind        string
			subscriptionType string
			source           string
			importedAt       int64
		)
		if err := rows.Scan(
			&record.Label,
			&accountID,
			&record.Email,
			&record.UserID,
			&outcome,
			&errorKind,
			&record.Message,
			&subscriptionType,
			&record.UsageCurrent,
			&record.UsageLimit,
			&source,
			&importedAt,
		); err != nil {
			return nil, fmt.Errorf("scan import record: %w", err)
		}

		record.AccountID = domain.AccountID(accountID)
		record.Outcome = domain.ImportOutcome(outcome)
		record.ErrorKind = domain.VerificationErrorKind(errorKind)
		record.SubscriptionType = domain.SubscriptionType(subscriptionType)
		record.Source = domain.ImportSource(source)
		record.ImportedAt = time.UnixMilli(importedAt).UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import history: %w", err)
	}

	return records, nil
}
