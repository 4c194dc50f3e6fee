// Package config resolves runtime settings. Precedence, highest first: values set
// on the viper instance, KA_* environment variables, ~/.kiro-accounts/config.toml,
// defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "KA"
	ConfigDir  = ".kiro-accounts"
	configName = "config"
	configType = "toml"

	// ConfigFileKey names an explicit config file; it may come from a flag or KA_CONFIG.
	ConfigFileKey = "config"

	KeyAccountsPath          = "accounts.path"
	KeyVaultDir              = "vault.dir"
	KeyVaultBackend          = "vault.backend"
	KeyHistoryPath           = "history.path"
	KeyImportConcurrency     = "import.concurrency"
	KeyImportBatchDelay      = "import.batch_delay"
	KeyVerifierBaseURL       = "verifier.base_url"
	KeyVerifierVerifyPath    = "verifier.verify_path"
	KeyVerifierRefreshPath   = "verifier.refresh_path"
	KeyVerifierTimeout       = "verifier.timeout"
	KeyVerifierMaxAttempts   = "verifier.max_attempts"
	KeyVerifierBackoff       = "verifier.backoff"
	KeyVerifierRatePerSecond = "verifier.rate_per_second"
	KeyVerifierBurst         = "verifier.burst"
	KeyStatsExpiringWindow   = "stats.expiring_window"
	KeyLogLevel              = "log.level"
	KeyLogFormat             = "log.format"
)

type VaultBackend string

const (
	VaultChain VaultBackend = "chain"
	VaultFile  VaultBackend = "file"
	VaultPass  VaultBackend = "pass"
)

var ErrVerifierNotConfigured = errors.New("verifier.base_url is not configured")

type Config struct {
	AccountsPath   string
	HistoryPath    string
	Vault          VaultConfig
	Import         ImportConfig
	Verifier       VerifierConfig
	ExpiringWindow time.Duration
	Log            LogConfig
}

type VaultConfig struct {
	Dir     string
	Backend VaultBackend
}

type ImportConfig struct {
	Concurrency int
	BatchDelay  time.Duration
}

type VerifierConfig struct {
	BaseURL       string
	VerifyPath    string
	RefreshPath   string
	Timeout       time.Duration
	MaxAttempts   int
	Backoff       time.Duration
	RatePerSecond float64
	Burst         int
}

type LogConfig struct {
	Level  string
	Format string
}

// RequireVerifier reports ErrVerifierNotConfigured when no endpoint is set.
func (c Config) RequireVerifier() error {
	if strings.TrimSpace(c.Verifier.BaseURL) == "" {
		return ErrVerifierNotConfigured
	}
	return nil
}

// SetDefaults registers every key's default rooted at home.
func SetDefaults(v *viper.Viper, home string) {
	root := filepath.Join(home, ConfigDir)

	v.SetDefault(KeyAccountsPath, filepath.Join(root, "accounts.toml"))
	v.SetDefault(KeyVaultDir, filepath.Join(root, "vault"))
	v.SetDefault(KeyVaultBackend, string(VaultChain))
	v.SetDefault(KeyHistoryPath, filepath.Join(root, "history.db"))
	v.SetDefault(KeyImportConcurrency, 3)
	v.SetDefault(KeyImportBatchDelay, 100*time.Millisecond)
	v.SetDefault(KeyVerifierBaseURL, "")
	v.SetDefault(KeyVerifierVerifyPath, "/api/account/verify")
	v.SetDefault(KeyVerifierRefreshPath, "/api/account/refresh")
	v.SetDefault(KeyVerifierTimeout, 30*time.Second)
	v.SetDefault(KeyVerifierMaxAttempts, 3)
	v.SetDefault(KeyVerifierBackoff, 500*time.Millisecond)
	v.SetDefault(KeyVerifierRatePerSecond, 5.0)
	v.SetDefault(KeyVerifierBurst, 5)
	v.SetDefault(KeyStatsExpiringWindow, time.Hour)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
}

func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}

	SetDefaults(v, homeDir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicit := v.GetString(ConfigFileKey); explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(filepath.Join(homeDir, ConfigDir))
		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	cfg := Config{
		AccountsPath: v.GetString(KeyAccountsPath),
		HistoryPath:  v.GetString(KeyHistoryPath),
		Vault: VaultConfig{
			Dir:     v.GetString(KeyVaultDir),
			Backend: VaultBackend(strings.ToLower(strings.TrimSpace(v.GetString(KeyVaultBackend)))),
		},
		Import: ImportConfig{
			Concurrency: v.GetInt(KeyImportConcurrency),
			BatchDelay:  v.GetDuration(KeyImportBatchDelay),
		},
		Verifier: VerifierConfig{
			BaseURL:       strings.TrimSpace(v.GetString(KeyVerifierBaseURL)),
			VerifyPath:    v.GetString(KeyVerifierVerifyPath),
			RefreshPath:   v.GetString(KeyVerifierRefreshPath),
			Timeout:       v.GetDuration(KeyVerifierTimeout),
			MaxAttempts:   v.GetInt(KeyVerifierMaxAttempts),
			Backoff:       v.GetDuration(KeyVerifierBackoff),
			RatePerSecond: v.GetFloat64(KeyVerifierRatePerSecond),
			Burst:         v.GetInt(KeyVerifierBurst),
		},
		ExpiringWindow: v.GetDuration(KeyStatsExpiringWindow),
		Log: LogConfig{
			Level:  strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
			Format: strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.AccountsPath) == "" {
		errs = append(errs, fmt.Errorf("invalid %s: path is empty", KeyAccountsPath))
	}
	if strings.TrimSpace(c.HistoryPath) == "" {
		errs = append(errs, fmt.Errorf("invalid %s: path is empty", KeyHistoryPath))
	}
	switch c.Vault.Backend {
	case VaultChain, VaultFile, VaultPass:
	default:
		errs = append(errs, fmt.Errorf("invalid %s: %q (want chain, file or pass)", KeyVaultBackend, c.Vault.Backend))
	}
	if c.Vault.Backend != VaultPass && strings.TrimSpace(c.Vault.Dir) == "" {
		errs = append(errs, fmt.Errorf("invalid %s: path is empty", KeyVaultDir))
	}
	if c.Import.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("invalid %s: %d (must be >= 1)", KeyImportConcurrency, c.Import.Concurrency))
	}
	if c.Import.BatchDelay < 0 {
		errs = append(errs, fmt.Errorf("invalid %s: %s (must be >= 0)", KeyImportBatchDelay, c.Import.BatchDelay))
	}
	if c.Verifier.BaseURL != "" {
		if err := validateBaseURL(c.Verifier.BaseURL); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", KeyVerifierBaseURL, err))
		}
	}
	if c.Verifier.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid %s: %s (must be > 0)", KeyVerifierTimeout, c.Verifier.Timeout))
	}
	if c.Verifier.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("invalid %s: %d (must be >= 1)", KeyVerifierMaxAttempts, c.Verifier.MaxAttempts))
	}
	if c.Verifier.Backoff < 0 {
		errs = append(errs, fmt.Errorf("invalid %s: %s (must be >= 0)", KeyVerifierBackoff, c.Verifier.Backoff))
	}
	if c.Verifier.RatePerSecond <= 0 {
		errs = append(errs, fmt.Errorf("invalid %s: %g (must be > 0)", KeyVerifierRatePerSecond, c.Verifier.RatePerSecond))
	}
	if c.Verifier.Burst < 1 {
		errs = append(errs, fmt.Errorf("invalid %s: %d (must be >= 1)", KeyVerifierBurst, c.Verifier.Burst))
	}
	if c.ExpiringWindow <= 0 {
		errs = append(errs, fmt.Errorf("invalid %s: %s (must be > 0)", KeyStatsExpiringWindow, c.ExpiringWindow))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid %s: %q", KeyLogLevel, c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid %s: %q (want text or json)", KeyLogFormat, c.Log.Format))
	}

	return errors.Join(errs...)
}

func validateBaseURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%q must use http or https", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}
