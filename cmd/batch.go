package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/kiro-accounts-cli/internal/adapters/render/accounts"
	"github.com/bnema/kiro-accounts-cli/internal/application"
	"github.com/bnema/kiro-accounts-cli/internal/domain"
)

type batchFunc func(ctx context.Context, checker *application.Checker, ids []domain.AccountID) application.BatchResult

func newRefreshCmd(app *app) *cobra.Command {
	return newBatchCmd(app, batchSpec{
		use:     "refresh [id|email|id-prefix...]",
		short:   "Refresh access tokens",
		title:   "Token Refresh",
		working: "Refreshing tokens...",
		run: func(ctx context.Context, checker *application.Checker, ids []domain.AccountID) application.BatchResult {
			return checker.BatchRefreshTokens(ctx, ids)
		},
	})
}

func newCheckCmd(app *app) *cobra.Command {
	return newBatchCmd(app, batchSpec{
		use:     "check [id|email|id-prefix...]",
		short:   "Re-verify accounts and update status, subscription and usage",
		title:   "Status Check",
		working: "Checking accounts...",
		run: func(ctx context.Context, checker *application.Checker, ids []domain.AccountID) application.BatchResult {
			return checker.BatchCheckStatus(ctx, ids)
		},
	})
}

type batchSpec struct {
	use     string
	short   string
	title   string
	working string
	run     batchFunc
}

func newBatchCmd(app *app, spec batchSpec) *cobra.Command {
	var (
		filters filterFlags
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   spec.use,
		Short: spec.short,
		Long:  spec.short + ". Without selectors every account the filter flags match is processed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			verifier, err := app.verifier()
			if err != nil {
				return err
			}

			var result application.BatchResult
			err = app.withStore(cmd.Context(), func(store *application.AccountStore) error {
				ids, err := filters.selectTargets(store, args)
				if err != nil {
					return err
				}

				checker := app.checker(store, verifier)
				return runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), spec.working, func(ctx context.Context) error {
					result = spec.run(ctx, checker, ids)
					return nil
				})
			})
			if err != nil {
				return err
			}

			if err := writeBatchResult(cmd, spec.title, result, asJSON); err != nil {
				return err
			}
			if cmd.Context().Err() != nil {
				return fmt.Errorf("%s interrupted: %w", cmd.Name(), cmd.Context().Err())
			}
			return nil
		},
	}

	filters.registerTargets(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the batch result as JSON")

	return cmd
}

func writeBatchResult(cmd *cobra.Command, title string, result application.BatchResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	rendered, err := accounts.RenderBatch(title, result)
	if err != nil {
		return fmt.Errorf("render %s: %w", cmd.Name(), err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
