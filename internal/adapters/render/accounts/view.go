package accounts

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
)

type RenderOptions struct {
	Now            time.Time
	ExpiringWindow time.Duration
	// Total is the size of the unfiltered collection; zero means the list is unfiltered.
	Total int
}

const usageBarWidth = 24

// Usage older than this is marked stale in the list.
const staleUsageAge = 24 * time.Hour

// Render draws the account list.
func Render(accounts []domain.Account, opts RenderOptions) (string, error) {
	return run(func(s styles) string {
		return renderList(accounts, opts, s)
	})
}

func renderList(accounts []domain.Account, opts RenderOptions, s styles) string {
	header := fmt.Sprintf("accounts: %d", len(accounts))
	if opts.Total > 0 && opts.Total != len(accounts) {
		header = fmt.Sprintf("accounts: %d of %d", len(accounts), opts.Total)
	}

	lines := []string{
		s.title.Render("Kiro Accounts"),
		s.header.Render(header),
	}

	if len(accounts) == 0 {
		lines = append(lines, s.empty.Render("No accounts match."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, account := range accounts {
		lines = append(lines, s.section.Render(renderAccount(account, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderAccount(account domain.Account, opts RenderOptions, s styles) string {
	title := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.account.Render(accountTitle(account)),
		" ",
		s.faint.Render(fmt.Sprintf("%s · %s", idpLabel(account.IdP), account.ID)),
	)

	parts := []string{
		title,
		s.detail.Render(fmt.Sprintf("status: %s  plan: %s", statusBadge(account.Status, s), planLabel(account.Subscription))),
		usageLine(account.Usage, opts.Now, s),
		tokenLine(account.Credentials, opts, s),
	}

	if len(account.Tags) > 0 {
		parts = append(parts, s.tag.Render("tags: "+strings.Join(account.Tags, ", ")))
	}
	if account.Status == domain.StatusError && account.LastError != "" {
		parts = append(parts, s.warning.Render("error: "+account.LastError))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func accountTitle(account domain.Account) string {
	name := account.DisplayName()
	email := strings.TrimSpace(account.Email)
	switch {
	case name == "" && email == "":
		return string(account.ID)
	case email == "" || strings.EqualFold(name, email):
		return name
	default:
		return fmt.Sprintf("%s <%s>", name, email)
	}
}

func idpLabel(idp domain.IdP) string {
	if idp == "" {
		return "unknown"
	}
	return string(idp)
}

func statusBadge(status domain.Status, s styles) string {
	switch status {
	case domain.StatusActive:
		return s.status(string(status), true)
	case domain.StatusError:
		return s.status(string(status), false)
	default:
		return s.faint.Render(string(domain.StatusUnknown))
	}
}

func planLabel(sub domain.Subscription) string {
	label := sub.Label()
	if sub.DaysRemaining > 0 {
		return fmt.Sprintf("%s (%d days left)", label, sub.DaysRemaining)
	}
	return label
}

func usageLine(usage domain.Usage, now time.Time, s styles) string {
	if usage.Limit <= 0 {
		return s.detail.Render("usage: n/a")
	}

	percent := usage.PercentUsed() * 100
	parts := []string{
		s.detail.Render("usage: "),
		renderProgressBar(percent, usageBarWidth, s),
		" ",
		s.detail.Render(fmt.Sprintf("%s (%.0f%% used)", usage.CurrentCompact(), percent)),
	}
	if !now.IsZero() && usage.IsStale(now, staleUsageAge) {
		parts = append(parts, s.faint.Render(" · stale"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func tokenLine(creds domain.Credentials, opts RenderOptions, s styles) string {
	switch {
	case creds.ExpiresAt.IsZero():
		return s.faint.Render("token: expiry unknown")
	case opts.Now.IsZero():
		return s.detail.Render("token: expires " + creds.ExpiresAt.Format(time.RFC3339))
	case creds.Expired(opts.Now):
		return s.warning.Render("token: expired")
	case creds.ExpiringWithin(opts.Now, opts.ExpiringWindow):
		return s.warning.Render("token: expiring soon (" + formatRelative(creds.ExpiresAt, opts.Now) + ")")
	default:
		return s.detail.Render("token: expires " + formatRelative(creds.ExpiresAt, opts.Now))
	}
}

func renderProgressBar(usedPercent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	used := clampPercent(usedPercent)
	leftFraction := (100.0 - used) / 100.0
	filled := int(math.Round(float64(width) * leftFraction))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func formatRelative(at, now time.Time) string {
	remaining := at.Sub(now)
	if remaining < time.Hour {
		minutes := int(math.Ceil(remaining.Minutes()))
		if minutes < 1 {
			minutes = 1
		}
		return fmt.Sprintf("in %d min", minutes)
	}

	if remaining < 24*time.Hour {
		hours := int(math.Ceil(remaining.Hours()))
		suffix := "hours"
		if hours == 1 {
			suffix = "hour"
		}
		return fmt.Sprintf("in %d %s (%s)", hours, suffix, at.Format("15:04"))
	}

	days := int(math.Ceil(remaining.Hours() / 24))
	suffix := "days"
	if days == 1 {
		suffix = "day"
	}
	return fmt.Sprintf("in %d %s (%s)", days, suffix, at.Format("15:04 on 02 Jan"))
}
