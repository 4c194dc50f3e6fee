package domain

import "time"

const DefaultExpiringWindow = time.Hour

type Stats struct {
	Total             int
	ActiveCount       int
	ByStatus          map[Status]int
	ExpiringSoonCount int
	Usage             UsageSummary
}

// ComputeStats derives aggregate counters; an account is expiring soon when its
// access token expires within window of now.
func ComputeStats(accounts []Account, now time.Time, window time.Duration) Stats {
	stats := Stats{
		Total:    len(accounts),
		ByStatus: map[Status]int{StatusActive: 0, StatusError: 0, StatusUnknown: 0},
	}

	for _, account := range accounts {
		status := account.Status
		if status == "" {
			status = StatusUnknown
		}
		stats.ByStatus[status]++
		if status == StatusActive {
			stats.ActiveCount++
		}
		if account.Credentials.ExpiringWithin(now, window) {
			stats.ExpiringSoonCount++
		}
	}

	stats.Usage = SummarizeUsage(accounts)

	return stats
}
