package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/kiro-accounts-cli/internal/adapters/render/accounts"
)

const defaultHistoryLimit = 50

func newHistoryCmd(app *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the import ledger, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 {
				return fmt.Errorf("invalid --limit %d (must be >= 1)", limit)
			}

			history, err := app.openHistory()
			if err != nil {
				return err
			}

			records, err := history.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list import history: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			rendered, err := accounts.RenderHistory(records)
			if err != nil {
				return fmt.Errorf("render import history: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().IntVar(&limit, "limit", defaultHistoryLimit, "Maximum number of entries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")

	return cmd
}
