package verifier

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
)

type requestPayload struct {
	RefreshToken string `json:"refreshToken"`
	ClientID     string `json:"clientId,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
	Region       string `json:"region,omitempty"`
	AuthMethod   string `json:"authMethod,omitempty"`
	Provider     string `json:"provider,omitempty"`
}

func newRequestPayload(req domain.VerifyRequest) requestPayload {
	return requestPayload{
		RefreshToken: req.RefreshToken,
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		Region:       req.Region,
		AuthMethod:   string(req.AuthMethod),
		Provider:     string(req.Provider),
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   errorPayload    `json:"error"`
}

// errorPayload accepts either a bare string or an object with a message.
type errorPayload struct {
	Message string
	Code    string
}

func (e *errorPayload) UnmarshalJSON(raw []byte) error {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	if trimmed[0] == '"' {
		return json.Unmarshal(raw, &e.Message)
	}

	var obj struct {
		Message     string `json:"message"`
		Error       string `json:"error"`
		Description string `json:"error_description"`
		Code        string `json:"code"`
		Type        string `json:"type"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		e.Message = trimmed
		return nil
	}

	e.Message = firstNonEmpty(obj.Message, obj.Description, obj.Error)
	e.Code = firstNonEmpty(obj.Code, obj.Type, obj.Error)
	return nil
}

func (e errorPayload) String() string {
	switch {
	case e.Message != "" && e.Code != "" && !strings.Contains(e.Message, e.Code):
		return e.Code + ": " + e.Message
	case e.Message != "":
		return e.Message
	default:
		return e.Code
	}
}

type verifyData struct {
	Email             string           `json:"email"`
	UserID            string           `json:"userId"`
	AccessToken       string           `json:"accessToken"`
	RefreshToken      string           `json:"refreshToken"`
	ExpiresIn         int64            `json:"expiresIn"`
	SubscriptionType  string           `json:"subscriptionType"`
	SubscriptionTitle string           `json:"subscriptionTitle"`
	DaysRemaining     int              `json:"daysRemaining"`
	ExpiresAt         flexTime         `json:"expiresAt"`
	Subscription      subscriptionData `json:"subscription"`
	Usage             usageData        `json:"usage"`
}

type subscriptionData struct {
	ManagementTarget  string `json:"managementTarget"`
	UpgradeCapability string `json:"upgradeCapability"`
	OverageCapability string `json:"overageCapability"`
}

type usageData struct {
	Current          float64     `json:"current"`
	Limit            float64     `json:"limit"`
	BaseLimit        float64     `json:"baseLimit"`
	BaseCurrent      float64     `json:"baseCurrent"`
	FreeTrialLimit   float64     `json:"freeTrialLimit"`
	FreeTrialCurrent float64     `json:"freeTrialCurrent"`
	FreeTrialExpiry  flexTime    `json:"freeTrialExpiry"`
	Bonuses          []bonusData `json:"bonuses"`
	NextResetDate    flexTime    `json:"nextResetDate"`
}

type bonusData struct {
	Code      string   `json:"code"`
	Name      string   `json:"name"`
	Current   float64  `json:"current"`
	Limit     float64  `json:"limit"`
	ExpiresAt flexTime `json:"expiresAt"`
}

type refreshData struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

func (d verifyData) toDomain() domain.VerifiedAccount {
	var bonuses []domain.Bonus
	for _, bonus := range d.Usage.Bonuses {
		bonuses = append(bonuses, domain.Bonus{
			Code:      bonus.Code,
			Name:      bonus.Name,
			Current:   bonus.Current,
			Limit:     bonus.Limit,
			ExpiresAt: bonus.ExpiresAt.Time,
		})
	}

	return domain.VerifiedAccount{
		Email:        strings.TrimSpace(d.Email),
		UserID:       strings.TrimSpace(d.UserID),
		AccessToken:  d.AccessToken,
		RefreshToken: d.RefreshToken,
		ExpiresIn:    d.ExpiresIn,
		Subscription: domain.Subscription{
			Type:              domain.ClassifySubscription(d.SubscriptionType, d.SubscriptionTitle),
			RawType:           d.SubscriptionType,
			Title:             d.SubscriptionTitle,
			DaysRemaining:     d.DaysRemaining,
			ExpiresAt:         d.ExpiresAt.Time,
			ManagementTarget:  d.Subscription.ManagementTarget,
			UpgradeCapability: d.Subscription.UpgradeCapability,
			OverageCapability: d.Subscription.OverageCapability,
		},
		Usage: domain.Usage{
			Current:          d.Usage.Current,
			Limit:            d.Usage.Limit,
			BaseLimit:        d.Usage.BaseLimit,
			BaseCurrent:      d.Usage.BaseCurrent,
			FreeTrialLimit:   d.Usage.FreeTrialLimit,
			FreeTrialCurrent: d.Usage.FreeTrialCurrent,
			FreeTrialExpiry:  d.Usage.FreeTrialExpiry.Time,
			Bonuses:          bonuses,
			NextResetDate:    d.Usage.NextResetDate.Time,
		},
	}
}

// flexTime decodes epoch milliseconds, epoch seconds or an RFC 3339 string.
type flexTime struct {
	time.Time
}

func (f *flexTime) UnmarshalJSON(raw []byte) error {
	text := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if text == "" || text == "null" {
		return nil
	}

	if n, err := strconv.ParseFloat(text, 64); err == nil {
		if n <= 0 {
			return nil
		}
		// values below 1e12 are seconds
		if n < 1e12 {
			f.Time = time.Unix(int64(n), 0).UTC()
		} else {
			f.Time = time.UnixMilli(int64(n)).UTC()
		}
		return nil
	}

	parsed, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return nil
	}
	f.Time = parsed.UTC()
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
