package domain

import (
	"strings"
	"time"
)

type AuthMethod string

const (
	AuthMethodIdC    AuthMethod = "IdC"
	AuthMethodSocial AuthMethod = "social"
)

const (
	DefaultRegion        = "us-east-1"
	DefaultTokenLifetime = time.Hour
)

func ParseAuthMethod(raw string) (AuthMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "idc":
		return AuthMethodIdC, true
	case "social":
		return AuthMethodSocial, true
	default:
		return "", false
	}
}

// DefaultAuthMethod is IdC for BuilderId and social for every other provider.
func DefaultAuthMethod(provider IdP) AuthMethod {
	if provider == IdPBuilderID || provider == "" {
		return AuthMethodIdC
	}
	return AuthMethodSocial
}

type Credentials struct {
	AccessToken  string
	RefreshToken string
	ClientID     string
	ClientSecret string
	Region       string
	ExpiresAt    time.Time
	AuthMethod   AuthMethod
	Provider     IdP
}

// WithExpiry sets ExpiresAt to now+expiresIn seconds. Upstream only reports a
// relative lifetime; a non-positive value falls back to DefaultTokenLifetime.
func (c Credentials) WithExpiry(expiresIn int64, now time.Time) Credentials {
	lifetime := DefaultTokenLifetime
	if expiresIn > 0 {
		lifetime = time.Duration(expiresIn) * time.Second
	}
	c.ExpiresAt = now.Add(lifetime)
	return c
}

// ExpiringWithin reports whether ExpiresAt is in (now, now+window]. Already expired
// and unknown expiries are not "expiring".
func (c Credentials) ExpiringWithin(now time.Time, window time.Duration) bool {
	if c.ExpiresAt.IsZero() || window <= 0 {
		return false
	}
	if !c.ExpiresAt.After(now) {
		return false
	}
	return !c.ExpiresAt.After(now.Add(window))
}

func (c Credentials) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !c.ExpiresAt.After(now)
}

func (c Credentials) VerifyRequest() VerifyRequest {
	return VerifyRequest{
		RefreshToken: c.RefreshToken,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Region:       c.Region,
		AuthMethod:   c.AuthMethod,
		Provider:     c.Provider,
	}
}
