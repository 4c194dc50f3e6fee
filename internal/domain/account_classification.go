package domain

import (
	"strings"
	"time"
)

type SubscriptionType string

const (
	SubscriptionFree    SubscriptionType = "Free"
	SubscriptionPro     SubscriptionType = "Pro"
	SubscriptionProPlus SubscriptionType = "Pro+"
	SubscriptionPower   SubscriptionType = "Power"
)

// ClassifySubscription matches the display title (or the raw type when the title is
// empty) by case-insensitive substring. Upstream titles vary ("KIRO PRO+",
// "Kiro Pro Plus", "PRO_PLUS"), so equality would miss most of them.
func ClassifySubscription(rawType, title string) SubscriptionType {
	text := strings.TrimSpace(title)
	if text == "" {
		text = rawType
	}
	text = strings.ToUpper(text)

	switch {
	case strings.Contains(text, "PRO+"),
		strings.Contains(text, "PRO_PLUS"),
		strings.Contains(text, "PROPLUS"),
		strings.Contains(text, "PRO PLUS"):
		return SubscriptionProPlus
	case strings.Contains(text, "POWER"):
		return SubscriptionPower
	case strings.Contains(text, "PRO"):
		return SubscriptionPro
	default:
		return SubscriptionFree
	}
}

type Subscription struct {
	Type              SubscriptionType
	RawType           string
	Title             string
	DaysRemaining     int
	ExpiresAt         time.Time
	ManagementTarget  string
	UpgradeCapability string
	OverageCapability string
}

func (s Subscription) Label() string {
	if title := strings.TrimSpace(s.Title); title != "" {
		return title
	}
	if s.Type != "" {
		return string(s.Type)
	}
	return string(SubscriptionFree)
}
