package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	historystore "github.com/bnema/kiro-accounts-cli/internal/adapters/history/sqlite"
	tomlrepo "github.com/bnema/kiro-accounts-cli/internal/adapters/repo/toml"
	chainvault "github.com/bnema/kiro-accounts-cli/internal/adapters/vault/chain"
	filevault "github.com/bnema/kiro-accounts-cli/internal/adapters/vault/file"
	passvault "github.com/bnema/kiro-accounts-cli/internal/adapters/vault/pass"
	"github.com/bnema/kiro-accounts-cli/internal/adapters/verifier"
	"github.com/bnema/kiro-accounts-cli/internal/application"
	"github.com/bnema/kiro-accounts-cli/internal/config"
	"github.com/bnema/kiro-accounts-cli/internal/logging"
	"github.com/bnema/kiro-accounts-cli/internal/ports"
)

type app struct {
	cfg        config.Config
	logger     *slog.Logger
	service    *application.Service
	history    *historystore.Store
	httpClient *http.Client
	clock      ports.Clock
}

func (a *app) wire(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.Setup(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)

	repoConfig := viper.New()
	repoConfig.Set(config.KeyAccountsPath, cfg.AccountsPath)
	repo, err := tomlrepo.NewRepository(repoConfig)
	if err != nil {
		return fmt.Errorf("wire account repository: %w", err)
	}

	vault, err := newVault(cfg.Vault)
	if err != nil {
		return fmt.Errorf("wire credential vault: %w", err)
	}

	if a.clock == nil {
		a.clock = ports.SystemClock{}
	}
	if a.httpClient == nil {
		a.httpClient = http.DefaultClient
	}

	a.cfg = cfg
	a.logger = logger
	a.service = application.NewService(repo, vault, a.clock)

	logger.Debug("wired app", "accounts", repo.Path(), "vault", cfg.Vault.Backend)
	return nil
}

func newVault(cfg config.VaultConfig) (ports.CredentialVault, error) {
	switch cfg.Backend {
	case config.VaultFile:
		return filevault.NewStore(cfg.Dir), nil
	case config.VaultPass:
		return passvault.NewStore(), nil
	default:
		return chainvault.NewPassFirstWithFileFallback(cfg.Dir)
	}
}

// openHistory opens the import ledger on first use.
func (a *app) openHistory() (*historystore.Store, error) {
	if a.history != nil {
		return a.history, nil
	}

	store, err := historystore.Open(a.cfg.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("open import history: %w", err)
	}
	a.history = store
	return store, nil
}

func (a *app) verifier() (ports.Verifier, error) {
	if err := a.cfg.RequireVerifier(); err != nil {
		return nil, err
	}

	v := a.cfg.Verifier
	client := verifier.Client{
		API: verifier.API{
			BaseURL:     v.BaseURL,
			VerifyPath:  v.VerifyPath,
			RefreshPath: v.RefreshPath,
		},
		HTTPClient:     a.httpClient,
		RequestTimeout: v.Timeout,
		Throttle:       verifier.NewThrottle(v.RatePerSecond, v.Burst),
		Now:            a.clock.Now,
	}

	return verifier.NewRetrying(client,
		verifier.WithMaxAttempts(v.MaxAttempts),
		verifier.WithBackoff(v.Backoff, 10*time.Second),
		verifier.WithLogger(a.logger),
	), nil
}

func (a *app) newStore() *application.AccountStore {
	return application.NewAccountStore(
		application.WithStoreClock(a.clock),
		application.WithExpiringWindow(a.cfg.ExpiringWindow),
	)
}

func (a *app) loadStore(ctx context.Context) (*application.AccountStore, error) {
	store := a.newStore()
	if err := a.service.Load(ctx, store); err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	return store, nil
}

// withStore loads the store, runs fn and persists whatever fn changed, even when
// fn fails or ctx was cancelled part way through a batch.
func (a *app) withStore(ctx context.Context, fn func(store *application.AccountStore) error) error {
	store, err := a.loadStore(ctx)
	if err != nil {
		return err
	}

	runErr := fn(store)
	store.Close()

	if err := a.service.Flush(context.WithoutCancel(ctx), store); err != nil {
		return errors.Join(runErr, fmt.Errorf("save accounts: %w", err))
	}

	return runErr
}

func (a *app) importer(store *application.AccountStore, v ports.Verifier) (*application.Importer, error) {
	history, err := a.openHistory()
	if err != nil {
		return nil, err
	}

	return application.NewImporter(store, v,
		application.WithConcurrency(a.cfg.Import.Concurrency),
		application.WithBatchDelay(a.cfg.Import.BatchDelay),
		application.WithImportHistory(history),
		application.WithImportClock(a.clock),
		application.WithImportLogger(a.logger),
	), nil
}

func (a *app) checker(store *application.AccountStore, v ports.Verifier) *application.Checker {
	return application.NewChecker(store, v,
		application.WithCheckConcurrency(a.cfg.Import.Concurrency),
		application.WithCheckDelay(a.cfg.Import.BatchDelay),
		application.WithCheckClock(a.clock),
		application.WithCheckLogger(a.logger),
	)
}

func (a *app) close() error {
	if a.history == nil {
		return nil
	}
	err := a.history.Close()
	a.history = nil
	return err
}
