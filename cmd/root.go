package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bnema/kiro-accounts-cli/internal/config"
)

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &app{}
	err := newRootCmd(app).ExecuteContext(ctx)
	return errors.Join(err, app.close())
}

func newRootCmd(app *app) *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "ka",
		Short:         "Kiro Accounts CLI (ka): import, verify and track Kiro accounts",
		Long:          "ka (Kiro Accounts CLI) keeps a local pool of Kiro accounts: bulk import from exports, CSV or OIDC credential files, token refresh, status and usage checks, and export back out.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.wire(cmd, v)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "path to a config file (default ~/.kiro-accounts/config.toml)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	_ = v.BindPFlag(config.ConfigFileKey, flags.Lookup("config"))
	_ = v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))

	rootCmd.AddCommand(
		newVersionCmd(),
		newAccountCmd(app),
		newStatsCmd(app),
		newImportCmd(app),
		newExportCmd(app),
		newRefreshCmd(app),
		newCheckCmd(app),
		newHistoryCmd(app),
	)

	return rootCmd
}
