package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
	"github.com/bnema/kiro-accounts-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	accountsPathKey    = "accounts.path"
	accountsFileMode   = 0o600
	accountsDirMode    = 0o700
	accountsConfigDir  = ".kiro-accounts"
	accountsConfigFile = "accounts.toml"
	tempFilePattern    = ".accounts-*.toml.tmp"
)

type Repository struct {
	accountsPath string
	mu           *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.AccountRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, accountsConfigDir, accountsConfigFile)

	cfg.SetDefault(accountsPathKey, defaultPath)

	accountsPath := cfg.GetString(accountsPathKey)
	if accountsPath == "" {
		return nil, errors.New("accounts path is empty")
	}
	accountsPath, err = normalizeAccountsPath(accountsPath)
	if err != nil {
		return nil, err
	}

	return &Repository{accountsPath: accountsPath, mu: lockForPath(accountsPath)}, nil
}

func (r *Repository) Save(ctx context.Context, account domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	file.applyDefaults()

	encoded := toSchema(account)
	updated := false
	for i := range file.Accounts {
		if file.Accounts[i].ID == encoded.ID {
			file.Accounts[i] = encoded
			updated = true
			break
		}
	}

	if !updated {
		file.Accounts = append(file.Accounts, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.writeSchema(file); err != nil {
		return err
	}

	return nil
}

// Delete removes the account entry. A missing id is reported as
// domain.ErrAccountNotFound and leaves the file untouched.
func (r *Repository) Delete(ctx context.Context, id domain.AccountID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	kept := file.Accounts[:0]
	removed := false
	for _, entry := range file.Accounts {
		if entry.ID == string(id) {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}
	if !removed {
		return domain.ErrAccountNotFound
	}
	file.Accounts = kept

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

// Path returns the resolved accounts file location.
func (r *Repository) Path() string {
	return r.accountsPath
}

func (r *Repository) GetByID(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Account{}, err
	}
	file.applyDefaults()

	for _, entry := range file.Accounts {
		if entry.ID == string(id) {
			return fromSchema(entry), nil
		}
	}

	return domain.Account{}, domain.ErrAccountNotFound
}

func (r *Repository) List(ctx context.Context) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}
	file.applyDefaults()

	accounts := make([]domain.Account, 0, len(file.Accounts))
	for _, entry := range file.Accounts {
		accounts = append(accounts, fromSchema(entry))
	}

	return accounts, nil
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.accountsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read accounts file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode accounts file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func normalizeAccountsPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve accounts path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.accountsPath), accountsDirMode); err != nil {
		return fmt.Errorf("create accounts directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode accounts file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.accountsPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp accounts file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp accounts file: %w", err)
	}

	if err := tempFile.Chmod(accountsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp accounts file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp accounts file: %w", err)
	}

	if err := os.Rename(tempName, r.accountsPath); err != nil {
		return fmt.Errorf("replace accounts file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(r.accountsPath, accountsFileMode); err != nil {
		return fmt.Errorf("chmod accounts file: %w", err)
	}

	return nil
}

func toSchema(account domain.Account) accountSchema {
	var bonuses []bonusSchema
	for _, bonus := range account.Usage.Bonuses {
		bonuses = append(bonuses, bonusSchema{
			Code:      bonus.Code,
			Name:      bonus.Name,
			Current:   bonus.Current,
			Limit:     bonus.Limit,
			ExpiresAt: formatTime(bonus.ExpiresAt),
		})
	}

	var tags []string
	if len(account.Tags) > 0 {
		tags = append(tags, account.Tags...)
	}

	return accountSchema{
		ID:            string(account.ID),
		Email:         account.Email,
		UserID:        account.UserID,
		Nickname:      account.Nickname,
		IdP:           string(account.IdP),
		Status:        string(account.Status),
		LastError:     account.LastError,
		Tags:          tags,
		CreatedAt:     formatTime(account.CreatedAt),
		LastCheckedAt: formatTime(account.LastCheckedAt),
		Credentials: credentialsSchema{
			ClientID:   account.Credentials.ClientID,
			Region:     account.Credentials.Region,
			AuthMethod: string(account.Credentials.AuthMethod),
			Provider:   string(account.Credentials.Provider),
			ExpiresAt:  formatTime(account.Credentials.ExpiresAt),
		},
		Subscription: subscriptionSchema{
			Type:              string(account.Subscription.Type),
			RawType:           account.Subscription.RawType,
			Title:             account.Subscription.Title,
			DaysRemaining:     account.Subscription.DaysRemaining,
			ExpiresAt:         formatTime(account.Subscription.ExpiresAt),
			ManagementTarget:  account.Subscription.ManagementTarget,
			UpgradeCapability: account.Subscription.UpgradeCapability,
			OverageCapability: account.Subscription.OverageCapability,
		},
		Usage: usageSchema{
			Current:          account.Usage.Current,
			Limit:            account.Usage.Limit,
			LastUpdated:      formatTime(account.Usage.LastUpdated),
			BaseLimit:        account.Usage.BaseLimit,
			BaseCurrent:      account.Usage.BaseCurrent,
			FreeTrialLimit:   account.Usage.FreeTrialLimit,
			FreeTrialCurrent: account.Usage.FreeTrialCurrent,
			FreeTrialExpiry:  formatTime(account.Usage.FreeTrialExpiry),
			NextResetDate:    formatTime(account.Usage.NextResetDate),
			Bonuses:          bonuses,
		},
	}
}

// fromSchema returns an account whose Credentials carry metadata only.
func fromSchema(entry accountSchema) domain.Account {
	var bonuses []domain.Bonus
	for _, bonus := range entry.Usage.Bonuses {
		bonuses = append(bonuses, domain.Bonus{
			Code:      bonus.Code,
			Name:      bonus.Name,
			Current:   bonus.Current,
			Limit:     bonus.Limit,
			ExpiresAt: parseTime(bonus.ExpiresAt),
		})
	}

	status, ok := domain.ParseStatus(entry.Status)
	if !ok {
		status = domain.StatusUnknown
	}

	var tags []string
	if len(entry.Tags) > 0 {
		tags = append(tags, entry.Tags...)
	}

	return domain.Account{
		ID:            domain.AccountID(entry.ID),
		Email:         entry.Email,
		UserID:        entry.UserID,
		Nickname:      entry.Nickname,
		IdP:           domain.IdP(entry.IdP),
		Status:        status,
		LastError:     entry.LastError,
		Tags:          tags,
		CreatedAt:     parseTime(entry.CreatedAt),
		LastCheckedAt: parseTime(entry.LastCheckedAt),
		Credentials: domain.Credentials{
			ClientID:   entry.Credentials.ClientID,
			Region:     entry.Credentials.Region,
			AuthMethod: domain.AuthMethod(entry.Credentials.AuthMethod),
			Provider:   domain.IdP(entry.Credentials.Provider),
			ExpiresAt:  parseTime(entry.Credentials.ExpiresAt),
		},
		Subscription: domain.Subscription{
			Type:              domain.SubscriptionType(entry.Subscription.Type),
			RawType:           entry.Subscription.RawType,
			Title:             entry.Subscription.Title,
			DaysRemaining:     entry.Subscription.DaysRemaining,
			ExpiresAt:         parseTime(entry.Subscription.ExpiresAt),
			ManagementTarget:  entry.Subscription.ManagementTarget,
			UpgradeCapability: entry.Subscription.UpgradeCapability,
			OverageCapability: entry.Subscription.OverageCapability,
		},
		Usage: domain.Usage{
			Current:          entry.Usage.Current,
			Limit:            entry.Usage.Limit,
			LastUpdated:      parseTime(entry.Usage.LastUpdated),
			BaseLimit:        entry.Usage.BaseLimit,
			BaseCurrent:      entry.Usage.BaseCurrent,
			FreeTrialLimit:   entry.Usage.FreeTrialLimit,
			FreeTrialCurrent: entry.Usage.FreeTrialCurrent,
			FreeTrialExpiry:  parseTime(entry.Usage.FreeTrialExpiry),
			NextResetDate:    parseTime(entry.Usage.NextResetDate),
			Bonuses:          bonuses,
		},
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339)
}
