package accounts

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/kiro-accounts-cli/internal/application"
	"github.com/bnema/kiro-accounts-cli/internal/domain"
)

func RenderStats(stats domain.Stats) (string, error) {
	return run(func(s styles) string {
		usage := stats.Usage
		lines := []string{
			s.title.Render("Account Stats"),
			s.detail.Render(fmt.Sprintf("total: %d", stats.Total)),
			s.detail.Render(fmt.Sprintf("active: %d  error: %d  unknown: %d",
				stats.ByStatus[domain.StatusActive],
				stats.ByStatus[domain.StatusError],
				stats.ByStatus[domain.StatusUnknown],
			)),
			expiringLine(stats.ExpiringSoonCount, s),
		}

		if usage.ValidAccounts == 0 {
			lines = append(lines, s.section.Render(s.empty.Render("No usage reported by active accounts.")))
			return lipgloss.JoinVertical(lipgloss.Left, lines...)
		}

		lines = append(lines,
			s.section.Render(s.title.Render("Usage")),
			lipgloss.JoinHorizontal(
				lipgloss.Top,
				renderProgressBar(usage.PercentUsed, usageBarWidth, s),
				" ",
				s.detail.Render(fmt.Sprintf("%.1f%% used", usage.PercentUsed)),
			),
			s.detail.Render(fmt.Sprintf("used: %.1f / %.1f  remaining: %.1f", usage.TotalUsed, usage.TotalLimit, usage.Remaining)),
			s.faint.Render(fmt.Sprintf("across %d active accounts", usage.ValidAccounts)),
		)

		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	})
}

func expiringLine(count int, s styles) string {
	line := fmt.Sprintf("expiring soon: %d", count)
	if count > 0 {
		return s.warning.Render(line)
	}
	return s.detail.Render(line)
}

// RenderReport draws an import report. Messages keep their completion order.
func RenderReport(report application.Report) (string, error) {
	return run(func(s styles) string {
		lines := []string{
			s.title.Render("Import"),
			s.detail.Render(fmt.Sprintf("total: %d", report.Total)),
			lipgloss.JoinHorizontal(
				lipgloss.Top,
				s.success.Render(fmt.Sprintf("success: %d", report.Success)),
				"  ",
				failedLabel(report.Failed, s),
				"  ",
				s.faint.Render(fmt.Sprintf("skipped: %d", report.Skipped)),
			),
		}

		return lipgloss.JoinVertical(lipgloss.Left, append(lines, messageLines(report.Messages, s)...)...)
	})
}

func RenderBatch(title string, result application.BatchResult) (string, error) {
	return run(func(s styles) string {
		lines := []string{
			s.title.Render(title),
			s.detail.Render(fmt.Sprintf("total: %d", result.Total)),
			lipgloss.JoinHorizontal(
				lipgloss.Top,
				s.success.Render(fmt.Sprintf("success: %d", result.Success)),
				"  ",
				failedLabel(result.Failed, s),
			),
		}

		return lipgloss.JoinVertical(lipgloss.Left, append(lines, messageLines(result.Messages, s)...)...)
	})
}

func failedLabel(failed int, s styles) string {
	label := fmt.Sprintf("failed: %d", failed)
	if failed > 0 {
		return s.warning.Render(label)
	}
	return s.faint.Render(label)
}

func messageLines(messages []string, s styles) []string {
	if len(messages) == 0 {
		return nil
	}

	lines := []string{s.section.Render(s.header.Render("messages:"))}
	for _, message := range messages {
		lines = append(lines, s.detail.Render("  "+message))
	}
	return lines
}

func RenderHistory(records []domain.ImportRecord) (string, error) {
	return run(func(s styles) string {
		lines := []string{
			s.title.Render("Import History"),
			s.header.Render(fmt.Sprintf("entries: %d", len(records))),
		}

		if len(records) == 0 {
			lines = append(lines, s.empty.Render("No imports recorded."))
			return lipgloss.JoinVertical(lipgloss.Left, lines...)
		}

		for _, record := range records {
			lines = append(lines, historyLine(record, s))
		}

		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	})
}

func historyLine(record domain.ImportRecord, s styles) string {
	outcome := string(record.Outcome)
	switch record.Outcome {
	case domain.ImportSucceeded:
		outcome = s.success.Render(outcome)
	case domain.ImportFailed:
		outcome = s.warning.Render(outcome)
	default:
		outcome = s.faint.Render(outcome)
	}

	fields := []string{
		s.faint.Render(record.ImportedAt.UTC().Format(time.DateTime)),
		s.faint.Render(string(record.Source)),
		record.Label,
		outcome,
	}
	if record.Email != "" {
		fields = append(fields, record.Email)
	}
	if record.SubscriptionType != "" {
		fields = append(fields, string(record.SubscriptionType))
	}
	if record.Message != "" && record.Outcome != domain.ImportSucceeded {
		fields = append(fields, s.detail.Render(record.Message))
	}

	return strings.Join(fields, "  ")
}
