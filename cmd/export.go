package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/kiro-accounts-cli/internal/adapters/codec"
	"github.com/bnema/kiro-accounts-cli/internal/domain"
)

func newExportCmd(app *app) *cobra.Command {
	var (
		filters filterFlags
		format  string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "export [id|email|id-prefix...]",
		Short: "Export accounts with their credentials",
		Long: "Export accounts as a JSON export (restorable with `ka import file`), CSV or TXT. " +
			"Without selectors every account the filter flags match is exported. " +
			"The output contains refresh tokens; it is written with mode 0600.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(output), ".")
			}
			if format == "" {
				format = string(codec.FormatJSON)
			}
			resolved, err := codec.ParseFormat(format)
			if err != nil {
				return err
			}

			store, err := app.loadStore(cmd.Context())
			if err != nil {
				return err
			}

			ids, err := filters.selectTargets(store, args)
			if err != nil {
				return err
			}

			selected := make([]domain.Account, 0, len(ids))
			for _, id := range ids {
				if account, ok := store.Get(id); ok {
					selected = append(selected, account)
				}
			}

			var buf bytes.Buffer
			if err := codec.Encode(&buf, resolved, selected, app.clock.Now()); err != nil {
				return err
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}

			if err := os.WriteFile(output, buf.Bytes(), 0o600); err != nil {
				return fmt.Errorf("write export: %w", err)
			}

			app.logger.Info("exported accounts", "count", len(selected), "format", resolved, "path", output)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported %d account(s) to %s\n", len(selected), output)
			return err
		},
	}

	filters.registerTargets(cmd)
	cmd.Flags().StringVar(&format, "format", "", "Output format: json, csv or txt (default from --output extension, else json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")

	return cmd
}

