package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
)

type oidcRecord struct {
	RefreshToken string `json:"refreshToken"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	Region       string `json:"region"`
	AuthMethod   string `json:"authMethod"`
	Provider     string `json:"provider"`
}

// ParseOIDC reads a JSON array or a single object of OIDC credentials. Records
// without a refresh token are kept so the import can report them by position.
func ParseOIDC(raw []byte) ([]domain.Candidate, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, domain.ErrEmptyInput
	}

	var records []oidcRecord
	switch text[0] {
	case '[':
		if err := json.Unmarshal([]byte(text), &records); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnrecognizedFormat, err)
		}
	case '{':
		var record oidcRecord
		if err := json.Unmarshal([]byte(text), &record); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnrecognizedFormat, err)
		}
		records = []oidcRecord{record}
	default:
		return nil, fmt.Errorf("%w: expected a JSON object or array", domain.ErrUnrecognizedFormat)
	}

	if len(records) == 0 {
		return nil, domain.ErrEmptyInput
	}

	candidates := make([]domain.Candidate, 0, len(records))
	for idx, record := range records {
		authMethod, _ := domain.ParseAuthMethod(record.AuthMethod)
		// The verifier receives the provider as written; only IdP is narrowed.
		providerName := strings.TrimSpace(record.Provider)
		idp := parseIdP(providerName, domain.IdPBuilderID)
		provider := idp
		if providerName != "" {
			provider = verbatimProvider(providerName)
		}
		candidates = append(candidates, domain.Candidate{
			Position:     idx + 1,
			RefreshToken: strings.TrimSpace(record.RefreshToken),
			ClientID:     strings.TrimSpace(record.ClientID),
			ClientSecret: strings.TrimSpace(record.ClientSecret),
			Region:       strings.TrimSpace(record.Region),
			AuthMethod:   authMethod,
			Provider:     provider,
			IdP:          idp,
		}.Normalized())
	}

	return candidates, nil
}
