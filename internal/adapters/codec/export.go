package codec

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
)

const ExportVersion = "1.0"

type exportFile struct {
	Version    string          `json:"version"`
	ExportedAt int64           `json:"exportedAt,omitempty"`
	Accounts   []exportAccount `json:"accounts"`
}

type exportAccount struct {
	ID            string             `json:"id"`
	Email         string             `json:"email"`
	UserID        string             `json:"userId,omitempty"`
	Nickname      string             `json:"nickname,omitempty"`
	IdP           string             `json:"idp"`
	Credentials   exportCredentials  `json:"credentials"`
	Subscription  exportSubscription `json:"subscription"`
	Usage         exportUsage        `json:"usage"`
	Status        string             `json:"status"`
	LastError     string             `json:"lastError,omitempty"`
	Tags          []string           `json:"tags,omitempty"`
	CreatedAt     int64              `json:"createdAt,omitempty"`
	LastCheckedAt int64              `json:"lastCheckedAt,omitempty"`
}

type exportCredentials struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken"`
	ClientID     string `json:"clientId,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
	Region       string `json:"region,omitempty"`
	ExpiresAt    int64  `json:"expiresAt,omitempty"`
	AuthMethod   string `json:"authMethod,omitempty"`
	Provider     string `json:"provider,omitempty"`
}

type exportSubscription struct {
	Type              string `json:"type,omitempty"`
	RawType           string `json:"rawType,omitempty"`
	Title             string `json:"title,omitempty"`
	DaysRemaining     int    `json:"daysRemaining,omitempty"`
	ExpiresAt         int64  `json:"expiresAt,omitempty"`
	ManagementTarget  string `json:"managementTarget,omitempty"`
	UpgradeCapability string `json:"upgradeCapability,omitempty"`
	OverageCapability string `json:"overageCapability,omitempty"`
}

type exportUsage struct {
	Current          float64       `json:"current"`
	Limit            float64       `json:"limit"`
	PercentUsed      float64       `json:"percentUsed"`
	LastUpdated      int64         `json:"lastUpdated,omitempty"`
	BaseLimit        float64       `json:"baseLimit,omitempty"`
	BaseCurrent      float64       `json:"baseCurrent,omitempty"`
	FreeTrialLimit   float64       `json:"freeTrialLimit,omitempty"`
	FreeTrialCurrent float64       `json:"freeTrialCurrent,omitempty"`
	FreeTrialExpiry  int64         `json:"freeTrialExpiry,omitempty"`
	Bonuses          []exportBonus `json:"bonuses,omitempty"`
	NextResetDate    int64         `json:"nextResetDate,omitempty"`
}

type exportBonus struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Current   float64 `json:"current"`
	Limit     float64 `json:"limit"`
	ExpiresAt int64   `json:"expiresAt,omitempty"`
}

func (a exportAccount) toDomain() domain.Account {
	status, ok := domain.ParseStatus(a.Status)
	if !ok {
		status = domain.StatusUnknown
	}
	authMethod, _ := domain.ParseAuthMethod(a.Credentials.AuthMethod)

	bonuses := make([]domain.Bonus, 0, len(a.Usage.Bonuses))
	for _, bonus := range a.Usage.Bonuses {
		bonuses = append(bonuses, domain.Bonus{
			Code:      bonus.Code,
			Name:      bonus.Name,
			Current:   bonus.Current,
			Limit:     bonus.Limit,
			ExpiresAt: fromMillis(bonus.ExpiresAt),
		})
	}
	if len(bonuses) == 0 {
		bonuses = nil
	}

	subscription := domain.Subscription{
		Type:              domain.SubscriptionType(a.Subscription.Type),
		RawType:           a.Subscription.RawType,
		Title:             a.Subscription.Title,
		DaysRemaining:     a.Subscription.DaysRemaining,
		ExpiresAt:         fromMillis(a.Subscription.ExpiresAt),
		ManagementTarget:  a.Subscription.ManagementTarget,
		UpgradeCapability: a.Subscription.UpgradeCapability,
		OverageCapability: a.Subscription.OverageCapability,
	}
	if subscription.Type == "" {
		subscription.Type = domain.ClassifySubscription(subscription.RawType, subscription.Title)
	}

	return domain.Account{
		ID:       domain.AccountID(strings.TrimSpace(a.ID)),
		Email:    strings.TrimSpace(a.Email),
		UserID:   a.UserID,
		Nickname: a.Nickname,
		IdP:      parseIdP(a.IdP, domain.IdPBuilderID),
		Credentials: domain.Credentials{
			AccessToken:  a.Credentials.AccessToken,
			RefreshToken: a.Credentials.RefreshToken,
			ClientID:     a.Credentials.ClientID,
			ClientSecret: a.Credentials.ClientSecret,
			Region:       a.Credentials.Region,
			ExpiresAt:    fromMillis(a.Credentials.ExpiresAt),
			AuthMethod:   authMethod,
			Provider:     verbatimProvider(strings.TrimSpace(a.Credentials.Provider)),
		},
		Subscription: subscription,
		Usage: domain.Usage{
			Current:          a.Usage.Current,
			Limit:            a.Usage.Limit,
			LastUpdated:      fromMillis(a.Usage.LastUpdated),
			BaseLimit:        a.Usage.BaseLimit,
			BaseCurrent:      a.Usage.BaseCurrent,
			FreeTrialLimit:   a.Usage.FreeTrialLimit,
			FreeTrialCurrent: a.Usage.FreeTrialCurrent,
			FreeTrialExpiry:  fromMillis(a.Usage.FreeTrialExpiry),
			Bonuses:          bonuses,
			NextResetDate:    fromMillis(a.Usage.NextResetDate),
		},
		Status:        status,
		LastError:     a.LastError,
		Tags:          a.Tags,
		CreatedAt:     fromMillis(a.CreatedAt),
		LastCheckedAt: fromMillis(a.LastCheckedAt),
	}
}

func fromDomain(a domain.Account) exportAccount {
	bonuses := make([]exportBonus, 0, len(a.Usage.Bonuses))
	for _, bonus := range a.Usage.Bonuses {
		bonuses = append(bonuses, exportBonus{
			Code:      bonus.Code,
			Name:      bonus.Name,
			Current:   bonus.Current,
			Limit:     bonus.Limit,
			ExpiresAt: toMillis(bonus.ExpiresAt),
		})
	}

	return exportAccount{
		ID:       string(a.ID),
		Email:    a.Email,
		UserID:   a.UserID,
		Nickname: a.Nickname,
		IdP:      string(a.IdP),
		Credentials: exportCredentials{
			AccessToken:  a.Credentials.AccessToken,
			RefreshToken: a.Credentials.RefreshToken,
			ClientID:     a.Credentials.ClientID,
			ClientSecret: a.Credentials.ClientSecret,
			Region:       a.Credentials.Region,
			ExpiresAt:    toMillis(a.Credentials.ExpiresAt),
			AuthMethod:   string(a.Credentials.AuthMethod),
			Provider:     string(a.Credentials.Provider),
		},
		Subscription: exportSubscription{
			Type:              string(a.Subscription.Type),
			RawType:           a.Subscription.RawType,
			Title:             a.Subscription.Title,
			DaysRemaining:     a.Subscription.DaysRemaining,
			ExpiresAt:         toMillis(a.Subscription.ExpiresAt),
			ManagementTarget:  a.Subscription.ManagementTarget,
			UpgradeCapability: a.Subscription.UpgradeCapability,
			OverageCapability: a.Subscription.OverageCapability,
		},
		Usage: exportUsage{
			Current:          a.Usage.Current,
			Limit:            a.Usage.Limit,
			PercentUsed:      a.Usage.PercentUsed(),
			LastUpdated:      toMillis(a.Usage.LastUpdated),
			BaseLimit:        a.Usage.BaseLimit,
			BaseCurrent:      a.Usage.BaseCurrent,
			FreeTrialLimit:   a.Usage.FreeTrialLimit,
			FreeTrialCurrent: a.Usage.FreeTrialCurrent,
			FreeTrialExpiry:  toMillis(a.Usage.FreeTrialExpiry),
			Bonuses:          bonuses,
			NextResetDate:    toMillis(a.Usage.NextResetDate),
		},
		Status:        string(a.Status),
		LastError:     a.LastError,
		Tags:          a.Tags,
		CreatedAt:     toMillis(a.CreatedAt),
		LastCheckedAt: toMillis(a.LastCheckedAt),
	}
}

// Encode writes accounts in format. CSV and TXT use the column orders Parse reads.
func Encode(w io.Writer, format Format, accounts []domain.Account, now time.Time) error {
	switch format {
	case FormatJSON:
		file := exportFile{
			Version:    ExportVersion,
			ExportedAt: toMillis(now),
			Accounts:   make([]exportAccount, 0, len(accounts)),
		}
		for _, account := range accounts {
			file.Accounts = append(file.Accounts, fromDomain(account))
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(file); err != nil {
			return fmt.Errorf("encode json export: %w", err)
		}
		return nil
	case FormatCSV:
		writer := csv.NewWriter(w)
		rows := [][]string{{"email", "nickname", "idp", "refreshToken", "clientId", "clientSecret", "region"}}
		for _, account := range accounts {
			rows = append(rows, []string{
				account.Email,
				account.Nickname,
				string(account.IdP),
				account.Credentials.RefreshToken,
				account.Credentials.ClientID,
				account.Credentials.ClientSecret,
				account.Credentials.Region,
			})
		}
		if err := writer.WriteAll(rows); err != nil {
			return fmt.Errorf("encode csv export: %w", err)
		}
		return nil
	case FormatTXT:
		var b strings.Builder
		b.WriteString("# email|refreshToken|nickname|idp\n")
		for _, account := range accounts {
			b.WriteString(strings.Join([]string{
				account.Email,
				account.Credentials.RefreshToken,
				account.Nickname,
				string(account.IdP),
			}, "|"))
			b.WriteByte('\n')
		}
		if _, err := io.WriteString(w, b.String()); err != nil {
			return fmt.Errorf("encode txt export: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
