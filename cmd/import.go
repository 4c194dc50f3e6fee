package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bnema/kiro-accounts-cli/internal/adapters/codec"
	"github.com/bnema/kiro-accounts-cli/internal/adapters/render/accounts"
	"github.com/bnema/kiro-accounts-cli/internal/application"
	"github.com/bnema/kiro-accounts-cli/internal/domain"
	"github.com/bnema/kiro-accounts-cli/internal/ports"
)

func newImportCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk import accounts",
	}

	cmd.AddCommand(
		newImportFileCmd(app),
		newImportOIDCCmd(app),
	)

	return cmd
}

func newImportFileCmd(app *app) *cobra.Command {
	var (
		format string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "file <path|->",
		Short: "Import a JSON export, CSV or TXT file",
		Long: "Import accounts from a file. JSON exports are restored as-is; CSV and TXT " +
			"records are verified against the configured verifier before they are stored. " +
			"Use - to read from stdin together with --format.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			resolved, err := resolveImportFormat(path, format)
			if err != nil {
				return err
			}

			raw, err := readImportInput(cmd, path)
			if err != nil {
				return err
			}

			parsed, err := codec.Parse(resolved, raw)
			if err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}

			if len(parsed.Accounts) > 0 {
				return runImport(cmd, app, nil, func(ctx context.Context, importer *application.Importer) application.Report {
					return importer.ImportAccounts(ctx, parsed.Accounts)
				}, asJSON)
			}

			verifier, err := app.verifier()
			if err != nil {
				return err
			}

			return runImport(cmd, app, verifier, func(ctx context.Context, importer *application.Importer) application.Report {
				return importer.ImportBatch(ctx, domain.ImportSourceFile, parsed.Candidates)
			}, asJSON)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Input format: json, csv or txt (default from the file extension)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the import report as JSON")

	return cmd
}

func newImportOIDCCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "oidc <path|->",
		Short: "Import OIDC credential records and verify each one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readImportInput(cmd, args[0])
			if err != nil {
				return err
			}

			candidates, err := codec.ParseOIDC(raw)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			verifier, err := app.verifier()
			if err != nil {
				return err
			}

			return runImport(cmd, app, verifier, func(ctx context.Context, importer *application.Importer) application.Report {
				return importer.ImportBatch(ctx, domain.ImportSourceOIDC, candidates)
			}, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the import report as JSON")

	return cmd
}

type importFunc func(ctx context.Context, importer *application.Importer) application.Report

func runImport(cmd *cobra.Command, app *app, verifier ports.Verifier, run importFunc, asJSON bool) error {
	var report application.Report
	err := app.withStore(cmd.Context(), func(store *application.AccountStore) error {
		importer, err := app.importer(store, verifier)
		if err != nil {
			return err
		}

		return runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), "Importing accounts...", func(ctx context.Context) error {
			report = run(ctx, importer)
			return nil
		})
	})
	if err != nil {
		return err
	}

	if err := writeReport(cmd, report, asJSON); err != nil {
		return err
	}
	if cmd.Context().Err() != nil {
		return fmt.Errorf("import interrupted: %w", cmd.Context().Err())
	}
	return nil
}

func writeReport(cmd *cobra.Command, report application.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	rendered, err := accounts.RenderReport(report)
	if err != nil {
		return fmt.Errorf("render import report: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func resolveImportFormat(path, flag string) (codec.Format, error) {
	if flag != "" {
		return codec.ParseFormat(flag)
	}
	if path == "-" {
		return "", errors.New("--format is required when reading from stdin")
	}
	return codec.DetectFormat(path)
}

func readImportInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return raw, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	return raw, nil
}
