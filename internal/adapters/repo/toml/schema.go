package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Accounts []accountSchema `toml:"accounts"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported accounts schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type accountSchema struct {
	ID            string             `toml:"id"`
	Email         string             `toml:"email"`
	UserID        string             `toml:"user_id,omitempty"`
	Nickname      string             `toml:"nickname,omitempty"`
	IdP           string             `toml:"idp"`
	Status        string             `toml:"status"`
	LastError     string             `toml:"last_error,omitempty"`
	Tags          []string           `toml:"tags,omitempty"`
	CreatedAt     string             `toml:"created_at,omitempty"`
	LastCheckedAt string             `toml:"last_checked_at,omitempty"`
	Credentials   credentialsSchema  `toml:"credentials"`
	Subscription  subscriptionSchema `toml:"subscription"`
	Usage         usageSchema        `toml:"usage"`
}

// credentialsSchema holds only the non-secret half of the credentials.
// Tokens and the client secret live in the credential vault.
type credentialsSchema struct {
	ClientID   string `toml:"client_id,omitempty"`
	Region     string `toml:"region,omitempty"`
	AuthMethod string `toml:"auth_method,omitempty"`
	Provider   string `toml:"provider,omitempty"`
	ExpiresAt  string `toml:"expires_at,omitempty"`
}

type subscriptionSchema struct {
	Type              string `toml:"type,omitempty"`
	RawType           string `toml:"raw_type,omitempty"`
	Title             string `toml:"title,omitempty"`
	DaysRemaining     int    `toml:"days_remaining,omitempty"`
	ExpiresAt         string `toml:"expires_at,omitempty"`
	ManagementTarget  string `toml:"management_target,omitempty"`
	UpgradeCapability string `toml:"upgrade_capability,omitempty"`
	OverageCapability string `toml:"overage_capability,omitempty"`
}

type usageSchema struct {
	Current          float64       `toml:"current"`
	Limit            float64       `toml:"limit"`
	LastUpdated      string        `toml:"last_updated,omitempty"`
	BaseLimit        float64       `toml:"base_limit,omitempty"`
	BaseCurrent      float64       `toml:"base_current,omitempty"`
	FreeTrialLimit   float64       `toml:"free_trial_limit,omitempty"`
	FreeTrialCurrent float64       `toml:"free_trial_current,omitempty"`
	FreeTrialExpiry  string        `toml:"free_trial_expiry,omitempty"`
	NextResetDate    string        `toml:"next_reset_date,omitempty"`
	Bonuses          []bonusSchema `toml:"bonuses,omitempty"`
}

type bonusSchema struct {
	Code      string  `toml:"code"`
	Name      string  `toml:"name"`
	Current   float64 `toml:"current"`
	Limit     float64 `toml:"limit"`
	ExpiresAt string  `toml:"expires_at,omitempty"`
}
