package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
	"github.com/bnema/kiro-accounts-cli/internal/ports"
)

const (
	DefaultImportConcurrency = 3
	DefaultBatchDelay        = 100 * time.Millisecond
)

type ReportEntry struct {
	Label     string
	Outcome   domain.ImportOutcome
	AccountID domain.AccountID
	Email     string
	ErrorKind domain.VerificationErrorKind
	Message   string
}

// Report is the aggregate outcome of one import call. Duplicates count toward
// Skipped only. Messages and Entries follow completion order.
type Report struct {
	Total    int
	Success  int
	Failed   int
	Skipped  int
	Messages []string
	Entries  []ReportEntry
}

func (r *Report) add(entry ReportEntry) {
	switch entry.Outcome {
	case domain.ImportSucceeded:
		r.Success++
	case domain.ImportFailed:
		r.Failed++
	case domain.ImportDuplicate:
		r.Skipped++
	}
	if entry.Message != "" {
		r.Messages = append(r.Messages, entry.Message)
	}
	r.Entries = append(r.Entries, entry)
}

func (r Report) Inserted() []domain.AccountID {
	ids := make([]domain.AccountID, 0, r.Success)
	for _, entry := range r.Entries {
		if entry.Outcome == domain.ImportSucceeded {
			ids = append(ids, entry.AccountID)
		}
	}
	return ids
}

type Importer struct {
	store       *AccountStore
	verifier    ports.Verifier
	clock       ports.Clock
	history     ports.ImportHistory
	logger      *slog.Logger
	concurrency int
	batchDelay  time.Duration
	sleep       sleepFunc
	newID       func() domain.AccountID
}

type ImporterOption func(*Importer)

func WithConcurrency(n int) ImporterOption {
	return func(i *Importer) {
		if n > 0 {
			i.concurrency = n
		}
	}
}

func WithBatchDelay(d time.Duration) ImporterOption {
	return func(i *Importer) {
		if d >= 0 {
			i.batchDelay = d
		}
	}
}

func WithImportClock(clock ports.Clock) ImporterOption {
	return func(i *Importer) {
		if clock != nil {
			i.clock = clock
		}
	}
}

func WithImportHistory(history ports.ImportHistory) ImporterOption {
	return func(i *Importer) {
		i.history = history
	}
}

func WithImportLogger(logger *slog.Logger) ImporterOption {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

func WithIDGenerator(newID func() domain.AccountID) ImporterOption {
	return func(i *Importer) {
		if newID != nil {
			i.newID = newID
		}
	}
}

func withSleep(sleep sleepFunc) ImporterOption {
	return func(i *Importer) {
		i.sleep = sleep
	}
}

func NewImporter(store *AccountStore, verifier ports.Verifier, opts ...ImporterOption) *Importer {
	i := &Importer{
		store:       store,
		verifier:    verifier,
		clock:       ports.SystemClock{},
		logger:      slog.Default(),
		concurrency: DefaultImportConcurrency,
		batchDelay:  DefaultBatchDelay,
		sleep:       sleepContext,
		newID:       NewAccountID,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func NewAccountID() domain.AccountID {
	return domain.AccountID(uuid.NewString())
}

// ImportBatch verifies candidates in chunks of the configured concurrency and
// inserts every verified, previously unknown account into the store. Per-record
// failures never abort the batch.
func (i *Importer) ImportBatch(ctx context.Context, source domain.ImportSource, candidates []domain.Candidate) Report {
	report := Report{Total: len(candidates)}
	records := make([]domain.ImportRecord, 0, len(candidates))
	record := func(entry ReportEntry, extra func(*domain.ImportRecord)) {
		report.add(entry)
		rec := domain.ImportRecord{
			Label:      entry.Label,
			AccountID:  entry.AccountID,
			Email:      entry.Email,
			Outcome:    entry.Outcome,
			ErrorKind:  entry.ErrorKind,
			Message:    entry.Message,
			Source:     source,
			ImportedAt: i.clock.Now(),
		}
		if extra != nil {
			extra(&rec)
		}
		records = append(records, rec)
	}

	pending := make([]domain.Candidate, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for idx, raw := range candidates {
		candidate := raw.Normalized()
		if candidate.Position == 0 {
			candidate.Position = idx + 1
		}
		label := candidate.Label()

		if candidate.RefreshToken == "" {
			record(ReportEntry{
				Label:   label,
				Outcome: domain.ImportFailed,
				Email:   candidate.Email,
				Message: fmt.Sprintf("%s: missing refresh token", label),
			}, nil)
			continue
		}

		emailKey := strings.ToLower(candidate.Email)
		_, repeated := seen[emailKey]
		if emailKey != "" && (repeated || i.store.Exists(candidate.Email, "")) {
			record(duplicateEntry(label, candidate.Email), nil)
			continue
		}
		if emailKey != "" {
			seen[emailKey] = struct{}{}
		}

		pending = append(pending, candidate)
	}

	runner := newChunkRunner(i.concurrency, i.batchDelay, i.sleep)
	verified := make([]domain.VerifiedAccount, len(pending))

	started, err := runner.run(ctx, len(pending),
		func(ctx context.Context, idx int) error {
			if idx%runner.size == 0 {
				i.logger.Debug("verifying chunk", "first", pending[idx].Label(), "size", min(runner.size, len(pending)-idx))
			}
			result, err := i.verifier.Verify(ctx, pending[idx].VerifyRequest())
			if err != nil {
				return err
			}
			verified[idx] = result
			return nil
		},
		func(idx int, err error) {
			candidate := pending[idx]
			if err != nil {
				record(failureEntry(candidate.Label(), candidate.Email, err), nil)
				return
			}

			account := i.materialize(candidate, verified[idx])
			entry, extra := i.insert(candidate.Label(), account)
			record(entry, extra)
		},
	)
	if err != nil {
		for _, candidate := range pending[started:] {
			record(ReportEntry{
				Label:     candidate.Label(),
				Outcome:   domain.ImportFailed,
				Email:     candidate.Email,
				ErrorKind: domain.VerificationNetwork,
				Message:   fmt.Sprintf("%s: import cancelled: %v", candidate.Label(), err),
			}, nil)
		}
	}

	i.recordHistory(ctx, records)
	i.logger.Info("import finished",
		"source", source,
		"total", report.Total,
		"success", report.Success,
		"failed", report.Failed,
		"skipped", report.Skipped,
	)

	return report
}

// ImportAccounts inserts already verified accounts from a full export without calling
// the verifier. Exported ids are kept unless empty or already taken.
func (i *Importer) ImportAccounts(ctx context.Context, accounts []domain.Account) Report {
	report := Report{Total: len(accounts)}
	records := make([]domain.ImportRecord, 0, len(accounts))
	now := i.clock.Now()

	for idx, account := range accounts {
		label := fmt.Sprintf("#%d", idx+1)

		if strings.TrimSpace(account.Email) == "" && strings.TrimSpace(account.Credentials.RefreshToken) == "" {
			entry := ReportEntry{
				Label:   label,
				Outcome: domain.ImportFailed,
				Message: fmt.Sprintf("%s: missing email and refresh token", label),
			}
			report.add(entry)
			records = append(records, exportRecord(entry, account, now))
			continue
		}

		if account.ID == "" {
			account.ID = i.newID()
		} else if _, taken := i.store.Get(account.ID); taken && !i.store.Exists(account.Email, account.UserID) {
			account.ID = i.newID()
		}
		if account.Nickname == "" {
			account.Nickname = domain.NicknameFromEmail(account.Email)
		}
		if account.Status == "" {
			account.Status = domain.StatusUnknown
		}
		if account.CreatedAt.IsZero() {
			account.CreatedAt = now
		}

		entry, _ := i.insert(label, account)
		report.add(entry)
		records = append(records, exportRecord(entry, account, now))
	}

	i.recordHistory(ctx, records)
	i.logger.Info("export import finished", "total", report.Total, "success", report.Success, "skipped", report.Skipped)

	return report
}

// AddVerified verifies a single candidate and inserts it through the same dedup path
// as a batch import.
func (i *Importer) AddVerified(ctx context.Context, candidate domain.Candidate) (domain.Account, error) {
	candidate = candidate.Normalized()
	if candidate.Position == 0 {
		candidate.Position = 1
	}
	if candidate.RefreshToken == "" {
		return domain.Account{}, fmt.Errorf("add account: %w", ErrMissingRefreshToken)
	}

	result, err := i.verifier.Verify(ctx, candidate.VerifyRequest())
	if err != nil {
		i.recordHistory(ctx, []domain.ImportRecord{{
			Label:      candidate.Label(),
			Email:      candidate.Email,
			Outcome:    domain.ImportFailed,
			ErrorKind:  errorKind(err),
			Message:    err.Error(),
			Source:     domain.ImportSourceManual,
			ImportedAt: i.clock.Now(),
		}})
		return domain.Account{}, fmt.Errorf("verify account: %w", err)
	}

	account := i.materialize(candidate, result)
	entry, extra := i.insert(candidate.Label(), account)
	rec := domain.ImportRecord{
		Label:      entry.Label,
		AccountID:  entry.AccountID,
		Email:      entry.Email,
		Outcome:    entry.Outcome,
		Message:    entry.Message,
		Source:     domain.ImportSourceManual,
		ImportedAt: i.clock.Now(),
	}
	if extra != nil {
		extra(&rec)
	}
	i.recordHistory(ctx, []domain.ImportRecord{rec})

	switch entry.Outcome {
	case domain.ImportSucceeded:
		return account, nil
	case domain.ImportDuplicate:
		return domain.Account{}, fmt.Errorf("add %s: %w", account.Email, domain.ErrDuplicateAccount)
	default:
		return domain.Account{}, fmt.Errorf("add %s: %w", account.Email, ErrStoreClosed)
	}
}

func (i *Importer) materialize(candidate domain.Candidate, result domain.VerifiedAccount) domain.Account {
	now := i.clock.Now()

	email := strings.TrimSpace(result.Email)
	if email == "" {
		email = candidate.Email
	}
	nickname := strings.TrimSpace(candidate.Nickname)
	if nickname == "" {
		nickname = domain.NicknameFromEmail(email)
	}
	refreshToken := result.RefreshToken
	if refreshToken == "" {
		refreshToken = candidate.RefreshToken
	}

	subscription := result.Subscription
	if subscription.Type == "" {
		subscription.Type = domain.ClassifySubscription(subscription.RawType, subscription.Title)
	}
	usage := result.Usage
	usage.LastUpdated = now

	return domain.Account{
		ID:       i.newID(),
		Email:    email,
		UserID:   result.UserID,
		Nickname: nickname,
		IdP:      candidate.IdP,
		Credentials: domain.Credentials{
			AccessToken:  result.AccessToken,
			RefreshToken: refreshToken,
			ClientID:     candidate.ClientID,
			ClientSecret: candidate.ClientSecret,
			Region:       candidate.Region,
			AuthMethod:   candidate.AuthMethod,
			Provider:     candidate.Provider,
		}.WithExpiry(result.ExpiresIn, now),
		Subscription:  subscription,
		Usage:         usage,
		Status:        domain.StatusActive,
		CreatedAt:     now,
		LastCheckedAt: now,
	}
}

func (i *Importer) insert(label string, account domain.Account) (ReportEntry, func(*domain.ImportRecord)) {
	switch i.store.InsertIfAbsent(account) {
	case Inserted:
		return ReportEntry{
				Label:     label,
				Outcome:   domain.ImportSucceeded,
				AccountID: account.ID,
				Email:     account.Email,
			}, func(rec *domain.ImportRecord) {
				rec.UserID = account.UserID
				rec.SubscriptionType = account.Subscription.Type
				rec.UsageCurrent = account.Usage.Current
				rec.UsageLimit = account.Usage.Limit
			}
	case Duplicate:
		return duplicateEntry(label, account.Email), nil
	default:
		i.logger.Debug("store closed, dropping verified account", "label", label)
		return ReportEntry{
			Label:   label,
			Outcome: domain.ImportDuplicate,
			Email:   account.Email,
			Message: fmt.Sprintf("%s: account store closed, result dropped", label),
		}, nil
	}
}

func (i *Importer) recordHistory(ctx context.Context, records []domain.ImportRecord) {
	if i.history == nil || len(records) == 0 {
		return
	}
	if err := i.history.Record(context.WithoutCancel(ctx), records); err != nil {
		i.logger.Warn("record import history", "error", err)
	}
}

func duplicateEntry(label, email string) ReportEntry {
	return ReportEntry{
		Label:   label,
		Outcome: domain.ImportDuplicate,
		Email:   email,
		Message: fmt.Sprintf("%s: email already exists", label),
	}
}

func failureEntry(label, email string, err error) ReportEntry {
	entry := ReportEntry{
		Label:     label,
		Outcome:   domain.ImportFailed,
		Email:     email,
		ErrorKind: errorKind(err),
	}

	if verr, ok := domain.AsVerificationError(err); ok {
		entry.Message = fmt.Sprintf("%s: %s", label, verr.Error())
	} else {
		entry.Message = fmt.Sprintf("%s: unexpected failure: %v", label, err)
	}
	return entry
}

func errorKind(err error) domain.VerificationErrorKind {
	if verr, ok := domain.AsVerificationError(err); ok {
		return verr.Kind
	}
	return domain.VerificationUnknown
}

func exportRecord(entry ReportEntry, account domain.Account, now time.Time) domain.ImportRecord {
	return domain.ImportRecord{
		Label:            entry.Label,
		AccountID:        entry.AccountID,
		Email:            account.Email,
		UserID:           account.UserID,
		Outcome:          entry.Outcome,
		Message:          entry.Message,
		SubscriptionType: account.Subscription.Type,
		UsageCurrent:     account.Usage.Current,
		UsageLimit:       account.Usage.Limit,
		Source:           domain.ImportSourceExport,
		ImportedAt:       now,
	}
}
