package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	root := filepath.Join(home, ".kiro-accounts")
	assert.Equal(t, filepath.Join(root, "accounts.toml"), cfg.AccountsPath)
	assert.Equal(t, filepath.Join(root, "history.db"), cfg.HistoryPath)
	assert.Equal(t, VaultConfig{Dir: filepath.Join(root, "vault"), Backend: VaultChain}, cfg.Vault)
	assert.Equal(t, ImportConfig{Concurrency: 3, BatchDelay: 100 * time.Millisecond}, cfg.Import)
	assert.Equal(t, VerifierConfig{
		VerifyPath:    "/api/account/verify",
		RefreshPath:   "/api/account/refresh",
		Timeout:       30 * time.Second,
		MaxAttempts:   3,
		Backoff:       500 * time.Millisecond,
		RatePerSecond: 5,
		Burst:         5,
	}, cfg.Verifier)
	assert.Equal(t, time.Hour, cfg.ExpiringWindow)
	assert.Equal(t, LogConfig{Level: "info", Format: "text"}, cfg.Log)
	assert.ErrorIs(t, cfg.RequireVerifier(), ErrVerifierNotConfigured)
}

func TestLoadReadsConfigFileFromHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".kiro-accounts")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(strings.Join([]string{
		"[import]",
		"concurrency = 6",
		"batch_delay = \"250ms\"",
		"",
		"[verifier]",
		"base_url = \"https://verify.example.com\"",
		"max_attempts = 5",
		"",
		"[vault]",
		"backend = \"file\"",
		"",
	}, "\n")), 0o600))

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Import.Concurrency)
	assert.Equal(t, 250*time.Millisecond, cfg.Import.BatchDelay)
	assert.Equal(t, "https://verify.example.com", cfg.Verifier.BaseURL)
	assert.Equal(t, 5, cfg.Verifier.MaxAttempts)
	assert.Equal(t, VaultFile, cfg.Vault.Backend)
	assert.NoError(t, cfg.RequireVerifier())
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	configPath := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[import]\nconcurrency = 6\n"), 0o600))

	t.Setenv("KA_CONFIG", configPath)
	t.Setenv("KA_IMPORT_CONCURRENCY", "2")
	t.Setenv("KA_LOG_FORMAT", "JSON")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Import.Concurrency)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadExplicitOverrideWins(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("KA_IMPORT_CONCURRENCY", "2")

	v := viper.New()
	v.Set(KeyImportConcurrency, 9)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Import.Concurrency)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	v := viper.New()
	v.Set(ConfigFileKey, filepath.Join(t.TempDir(), "absent.toml"))

	_, err := Load(v)
	assert.ErrorContains(t, err, "read config file")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantErr string
	}{
		{name: "zero concurrency", key: KeyImportConcurrency, value: 0, wantErr: "invalid import.concurrency"},
		{name: "negative delay", key: KeyImportBatchDelay, value: "-1s", wantErr: "invalid import.batch_delay"},
		{name: "bad backend", key: KeyVaultBackend, value: "keyring", wantErr: "invalid vault.backend"},
		{name: "non http base url", key: KeyVerifierBaseURL, value: "ftp://example.com", wantErr: "invalid verifier.base_url"},
		{name: "zero timeout", key: KeyVerifierTimeout, value: "0s", wantErr: "invalid verifier.timeout"},
		{name: "zero attempts", key: KeyVerifierMaxAttempts, value: 0, wantErr: "invalid verifier.max_attempts"},
		{name: "zero rate", key: KeyVerifierRatePerSecond, value: 0, wantErr: "invalid verifier.rate_per_second"},
		{name: "zero burst", key: KeyVerifierBurst, value: 0, wantErr: "invalid verifier.burst"},
		{name: "zero window", key: KeyStatsExpiringWindow, value: "0s", wantErr: "invalid stats.expiring_window"},
		{name: "bad level", key: KeyLogLevel, value: "loud", wantErr: "invalid log.level"},
		{name: "bad format", key: KeyLogFormat, value: "xml", wantErr: "invalid log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())

			v := viper.New()
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
