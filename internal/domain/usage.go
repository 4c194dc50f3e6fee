package domain

import (
	"fmt"
	"time"
)

type Bonus struct {
	Code      string
	Name      string
	Current   float64
	Limit     float64
	ExpiresAt time.Time
}

type Usage struct {
	Current          float64
	Limit            float64
	LastUpdated      time.Time
	BaseLimit        float64
	BaseCurrent      float64
	FreeTrialLimit   float64
	FreeTrialCurrent float64
	FreeTrialExpiry  time.Time
	Bonuses          []Bonus
	NextResetDate    time.Time
}

// PercentUsed returns Current/Limit as a fraction, or 0 when Limit <= 0.
func (u Usage) PercentUsed() float64 {
	if u.Limit <= 0 {
		return 0
	}
	return u.Current / u.Limit
}

func (u Usage) Remaining() float64 {
	return u.Limit - u.Current
}

// IsStale reports whether usage was never fetched or is older than maxAge.
// A non-positive maxAge only flags usage that was never fetched.
func (u Usage) IsStale(now time.Time, maxAge time.Duration) bool {
	if u.LastUpdated.IsZero() {
		return true
	}

	if maxAge <= 0 {
		return false
	}

	return now.Sub(u.LastUpdated) > maxAge
}

func (u Usage) CurrentCompact() string {
	return fmt.Sprintf("%s / %s", compactNumber(u.Current), compactNumber(u.Limit))
}

// UsageSummary aggregates quota over active accounts that report a positive limit.
type UsageSummary struct {
	TotalLimit    float64
	TotalUsed     float64
	Remaining     float64
	PercentUsed   float64
	ValidAccounts int
}

func SummarizeUsage(accounts []Account) UsageSummary {
	var summary UsageSummary
	for _, account := range accounts {
		if account.Status != StatusActive || account.Usage.Limit <= 0 {
			continue
		}
		summary.TotalLimit += account.Usage.Limit
		summary.TotalUsed += account.Usage.Current
		summary.Remaining += account.Usage.Remaining()
		summary.ValidAccounts++
	}

	if summary.TotalLimit > 0 {
		summary.PercentUsed = summary.TotalUsed / summary.TotalLimit * 100
	}

	return summary
}

func compactNumber(v float64) string {
	if v < 1_000 {
		return fmt.Sprintf("%.0f", v)
	}

	if v < 1_000_000 {
		return fmt.Sprintf("%.1fk", v/1_000)
	}

	return fmt.Sprintf("%.1fM", v/1_000_000)
}
