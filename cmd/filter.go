package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/kiro-accounts-cli/internal/application"
	"github.com/bnema/kiro-accounts-cli/internal/domain"
)

type filterFlags struct {
	search   string
	statuses []string
	tags     []string
	excludes []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.search, "search", "", "case-insensitive match on email, nickname, user id, id, provider or tag")
	cmd.Flags().StringSliceVar(&f.statuses, "status", nil, "only accounts with this status (active, error, unknown); repeatable")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "only accounts carrying this tag; repeatable")
}

// registerTargets adds the filter flags plus --exclude for commands that act on a selection.
func (f *filterFlags) registerTargets(cmd *cobra.Command) {
	f.register(cmd)
	cmd.Flags().StringSliceVar(&f.excludes, "exclude", nil, "skip this account (id, email or id prefix); repeatable")
}

func (f filterFlags) filter() (domain.Filter, error) {
	filter := domain.Filter{Search: strings.TrimSpace(f.search)}

	for _, raw := range f.statuses {
		status, ok := domain.ParseStatus(raw)
		if !ok {
			return domain.Filter{}, fmt.Errorf("invalid status %q (want active, error or unknown)", raw)
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	for _, tag := range f.tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			filter.Tags = append(filter.Tags, trimmed)
		}
	}

	return filter, nil
}

// selectTargets selects the accounts a batch command acts on: the explicit
// selectors when given, otherwise everything the filter lets through minus the
// excluded accounts.
func (f filterFlags) selectTargets(store *application.AccountStore, selectors []string) ([]domain.AccountID, error) {
	filter, err := f.filter()
	if err != nil {
		return nil, err
	}

	if len(selectors) > 0 && (!filter.IsZero() || len(f.excludes) > 0) {
		return nil, errors.New("account selectors cannot be combined with filter flags")
	}

	store.DeselectAll()
	if len(selectors) > 0 {
		for _, selector := range selectors {
			account, err := resolveAccount(store.List(), selector)
			if err != nil {
				return nil, err
			}
			store.Select(account.ID)
		}
		return store.Selected(), nil
	}

	store.SetFilter(filter)
	store.SelectAll()
	for _, selector := range f.excludes {
		account, err := resolveAccount(store.List(), selector)
		if err != nil {
			return nil, err
		}
		store.Deselect(account.ID)
	}
	return store.Selected(), nil
}
