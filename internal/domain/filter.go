package domain

import "strings"

// Filter is a read-only predicate over accounts. Zero value matches everything.
type Filter struct {
	Search   string
	Statuses []Status
	Tags     []string
}

func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" && len(f.Statuses) == 0 && len(f.Tags) == 0
}

func (f Filter) Matches(account Account) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, account.Status) {
		return false
	}

	for _, tag := range f.Tags {
		if !account.HasTag(tag) {
			return false
		}
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	if search == "" {
		return true
	}

	fields := []string{account.Email, account.Nickname, account.UserID, string(account.ID), string(account.IdP)}
	fields = append(fields, account.Tags...)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}

	return false
}

func containsStatus(statuses []Status, status Status) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}
