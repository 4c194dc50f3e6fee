// Package vault holds the credential encoding shared by the vault backends.
package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
)

// KeyPrefix namespaces every stored credential entry.
const KeyPrefix = "kiro-accounts"

type payload struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ClientID     string `json:"clientId,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
	Region       string `json:"region,omitempty"`
	ExpiresAt    int64  `json:"expiresAt,omitempty"`
	AuthMethod   string `json:"authMethod,omitempty"`
	Provider     string `json:"provider,omitempty"`
}

// Key returns the backend-neutral entry name for an account.
func Key(id domain.AccountID) (string, error) {
	trimmed := strings.TrimSpace(string(id))
	if trimmed == "" {
		return "", errors.New("credential key is empty")
	}
	if strings.ContainsAny(trimmed, `/\`) || trimmed == "." || trimmed == ".." {
		return "", fmt.Errorf("invalid credential key %q", string(id))
	}

	return KeyPrefix + "/" + trimmed, nil
}

func Encode(creds domain.Credentials) ([]byte, error) {
	p := payload{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Region:       creds.Region,
		AuthMethod:   string(creds.AuthMethod),
		Provider:     string(creds.Provider),
	}
	if !creds.ExpiresAt.IsZero() {
		p.ExpiresAt = creds.ExpiresAt.UnixMilli()
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode credentials: %w", err)
	}

	return data, nil
}

func Decode(data []byte) (domain.Credentials, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Credentials{}, fmt.Errorf("decode credentials: %w", err)
	}

	creds := domain.Credentials{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		Region:       p.Region,
		AuthMethod:   domain.AuthMethod(p.AuthMethod),
		Provider:     domain.IdP(p.Provider),
	}
	if p.ExpiresAt > 0 {
		creds.ExpiresAt = time.UnixMilli(p.ExpiresAt).UTC()
	}

	return creds, nil
}
