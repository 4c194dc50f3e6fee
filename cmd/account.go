package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/bnema/kiro-accounts-cli/internal/adapters/render/accounts"
	"github.com/bnema/kiro-accounts-cli/internal/application"
	"github.com/bnema/kiro-accounts-cli/internal/domain"
)

func newAccountCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}

	cmd.AddCommand(
		newAccountListCmd(app),
		newAccountShowCmd(app),
		newAccountAddCmd(app),
		newAccountRemoveCmd(app),
		newAccountRenameCmd(app),
		newAccountTagCmd(app),
	)

	return cmd
}

func newAccountListCmd(app *app) *cobra.Command {
	var (
		filters filterFlags
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := filters.filter()
			if err != nil {
				return err
			}

			store, err := app.loadStore(cmd.Context())
			if err != nil {
				return err
			}
			store.SetFilter(filter)

			return writeAccountsOutput(cmd, app, store.Filtered(), store.Len(), asJSON)
		},
	}

	filters.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print accounts as JSON")

	return cmd
}

func newAccountShowCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id|email|id-prefix>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.loadStore(cmd.Context())
			if err != nil {
				return err
			}

			account, err := resolveAccount(store.List(), args[0])
			if err != nil {
				return err
			}

			return writeAccountsOutput(cmd, app, []domain.Account{account}, 0, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the account as JSON")

	return cmd
}

func newAccountAddCmd(app *app) *cobra.Command {
	var (
		candidate    domain.Candidate
		idp          string
		authMethod   string
		refreshToken string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Verify a refresh token and add the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(idp) != "" {
				parsed, ok := domain.ParseIdP(idp)
				if !ok {
					return fmt.Errorf("invalid --idp %q (want BuilderId, Github or Google)", idp)
				}
				candidate.IdP = parsed
				candidate.Provider = parsed
			}
			if strings.TrimSpace(authMethod) != "" {
				parsed, ok := domain.ParseAuthMethod(authMethod)
				if !ok {
					return fmt.Errorf("invalid --auth-method %q (want IdC or social)", authMethod)
				}
				candidate.AuthMethod = parsed
			}
			candidate.RefreshToken = refreshToken

			verifier, err := app.verifier()
			if err != nil {
				return err
			}

			var added domain.Account
			err = app.withStore(cmd.Context(), func(store *application.AccountStore) error {
				importer, err := app.importer(store, verifier)
				if err != nil {
					return err
				}

				return runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), "Verifying account...", func(ctx context.Context) error {
					added, err = importer.AddVerified(ctx, candidate)
					return err
				})
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", sanitizeForTerminal(added.DisplayName()), added.ID)
			return err
		},
	}

	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "Refresh token to verify")
	cmd.Flags().StringVar(&candidate.ClientID, "client-id", "", "OIDC client id (IdC accounts)")
	cmd.Flags().StringVar(&candidate.ClientSecret, "client-secret", "", "OIDC client secret (IdC accounts)")
	cmd.Flags().StringVar(&candidate.Region, "region", "", "Region (default us-east-1)")
	cmd.Flags().StringVar(&candidate.Nickname, "nickname", "", "Nickname (default derived from the email)")
	cmd.Flags().StringVar(&idp, "idp", "", "Identity provider: BuilderId, Github or Google")
	cmd.Flags().StringVar(&authMethod, "auth-method", "", "Auth method: IdC or social (default depends on the provider)")
	_ = cmd.MarkFlagRequired("refresh-token")

	return cmd
}

func newAccountRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id|email|id-prefix>...",
		Aliases: []string{"rm"},
		Short:   "Remove accounts and their stored credentials",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var removed int
			err := app.withStore(cmd.Context(), func(store *application.AccountStore) error {
				ids := make([]domain.AccountID, 0, len(args))
				for _, selector := range args {
					account, err := resolveAccount(store.List(), selector)
					if err != nil {
						return err
					}
					ids = append(ids, account.ID)
				}
				removed = store.Remove(ids...)
				return nil
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %d account(s)\n", removed)
			return err
		},
	}
}

func newAccountRenameCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id|email|id-prefix> <nickname>",
		Short: "Set an account nickname",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			nickname := strings.TrimSpace(args[1])
			if nickname == "" {
				return errors.New("nickname is empty")
			}

			return app.withStore(cmd.Context(), func(store *application.AccountStore) error {
				account, err := resolveAccount(store.List(), args[0])
				if err != nil {
					return err
				}

				return store.Update(account.ID, func(a *domain.Account) {
					a.Nickname = nickname
				})
			})
		},
	}
}

func newAccountTagCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <id|email|id-prefix> <tag>...",
		Short: "Add tags to an account",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withStore(cmd.Context(), func(store *application.AccountStore) error {
				account, err := resolveAccount(store.List(), args[0])
				if err != nil {
					return err
				}

				return store.Update(account.ID, func(a *domain.Account) {
					a.AddTags(args[1:]...)
				})
			})
		},
	}
}

func writeAccountsOutput(cmd *cobra.Command, app *app, list []domain.Account, total int, asJSON bool) error {
	if asJSON {
		redacted := make([]domain.Account, 0, len(list))
		for _, account := range list {
			redacted = append(redacted, redactSecrets(account))
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(redacted)
	}

	rendered, err := accounts.Render(list, accounts.RenderOptions{
		Now:            app.clock.Now(),
		ExpiringWindow: app.cfg.ExpiringWindow,
		Total:          total,
	})
	if err != nil {
		return fmt.Errorf("render accounts: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func redactSecrets(account domain.Account) domain.Account {
	account = account.Clone()
	account.Credentials.AccessToken = ""
	account.Credentials.RefreshToken = ""
	account.Credentials.ClientSecret = ""
	return account
}

// resolveAccount matches selector against ids, then emails, then a unique id prefix.
func resolveAccount(list []domain.Account, selector string) (domain.Account, error) {
	trimmed := strings.TrimSpace(selector)
	if trimmed == "" {
		return domain.Account{}, errors.New("account selector is empty")
	}

	for _, account := range list {
		if string(account.ID) == trimmed {
			return account, nil
		}
	}
	for _, account := range list {
		if strings.EqualFold(account.Email, trimmed) {
			return account, nil
		}
	}

	var matches []domain.Account
	for _, account := range list {
		if strings.HasPrefix(string(account.ID), trimmed) {
			matches = append(matches, account)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return domain.Account{}, fmt.Errorf("account %q: %w", sanitizeForTerminal(selector), domain.ErrAccountNotFound)
	default:
		return domain.Account{}, fmt.Errorf("account %q is ambiguous (%d matches)", sanitizeForTerminal(selector), len(matches))
	}
}

func sanitizeForTerminal(value string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
}
