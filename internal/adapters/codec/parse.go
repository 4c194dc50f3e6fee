package codec

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
)

// Parsed holds the outcome of Parse. A full JSON export yields Accounts, which skip
// verification; every other format yields Candidates.
type Parsed struct {
	Candidates []domain.Candidate
	Accounts   []domain.Account
}

func (p Parsed) Len() int {
	return len(p.Candidates) + len(p.Accounts)
}

// Parse decodes raw according to format. Malformed records are dropped; only an
// input that is unusable as a whole returns an error.
func Parse(format Format, raw []byte) (Parsed, error) {
	text := string(bytes.TrimPrefix(raw, []byte("\ufeff")))
	if strings.TrimSpace(text) == "" {
		return Parsed{}, domain.ErrEmptyInput
	}

	switch format {
	case FormatJSON:
		accounts, err := parseExport([]byte(text))
		if err != nil {
			return Parsed{}, err
		}
		return Parsed{Accounts: accounts}, nil
	case FormatCSV:
		candidates, err := parseCSV(text)
		if err != nil {
			return Parsed{}, err
		}
		return Parsed{Candidates: candidates}, nil
	case FormatTXT:
		candidates, err := parseTXT(text)
		if err != nil {
			return Parsed{}, err
		}
		return Parsed{Candidates: candidates}, nil
	default:
		return Parsed{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
}

// parseExport accepts any non-null version. Entries that do not decode as an
// account are skipped so one bad record does not sink the file.
func parseExport(raw []byte) ([]domain.Account, error) {
	var envelope struct {
		Version  json.RawMessage `json:"version"`
		Accounts json.RawMessage `json:"accounts"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnrecognizedFormat, err)
	}
	if isJSONNull(envelope.Version) {
		return nil, fmt.Errorf("%w: missing version", domain.ErrUnrecognizedFormat)
	}
	if isJSONNull(envelope.Accounts) {
		return nil, fmt.Errorf("%w: missing accounts", domain.ErrUnrecognizedFormat)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(envelope.Accounts, &entries); err != nil {
		return nil, fmt.Errorf("%w: accounts is not a list", domain.ErrUnrecognizedFormat)
	}

	accounts := make([]domain.Account, 0, len(entries))
	for _, entry := range entries {
		var decoded exportAccount
		if err := json.Unmarshal(entry, &decoded); err != nil {
			continue
		}
		accounts = append(accounts, decoded.toDomain())
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: export holds no usable accounts", domain.ErrEmptyInput)
	}
	return accounts, nil
}

func isJSONNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// splitLines drops blank lines and trailing carriage returns.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// csv columns: email, nickname, idp, refreshToken, clientId, clientSecret, region
func parseCSV(text string) ([]domain.Candidate, error) {
	lines := splitLines(text)
	if len(lines) < 2 {
		return nil, fmt.Errorf("%w: csv has no data rows", domain.ErrEmptyInput)
	}

	candidates := make([]domain.Candidate, 0, len(lines)-1)
	for idx, line := range lines[1:] {
		fields, err := splitCSVLine(line)
		if err != nil {
			continue
		}

		candidate := domain.Candidate{
			Position:     idx + 1,
			Email:        field(fields, 0),
			Nickname:     field(fields, 1),
			IdP:          parseIdP(field(fields, 2), domain.IdPGoogle),
			RefreshToken: field(fields, 3),
			ClientID:     field(fields, 4),
			ClientSecret: field(fields, 5),
			Region:       field(fields, 6),
		}
		if candidate.Email == "" || candidate.RefreshToken == "" {
			continue
		}
		if candidate.Region == "" {
			candidate.Region = domain.DefaultRegion
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

func splitCSVLine(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.Read()
}

// txt fields: email, refreshToken, nickname, idp. '|' wins over ','.
func parseTXT(text string) ([]domain.Candidate, error) {
	lines := splitLines(text)

	candidates := make([]domain.Candidate, 0, len(lines))
	position := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			continue
		}
		position++

		sep := ","
		if strings.Contains(line, "|") {
			sep = "|"
		}
		fields := strings.Split(line, sep)

		candidate := domain.Candidate{
			Position:     position,
			Email:        field(fields, 0),
			RefreshToken: field(fields, 1),
			Nickname:     field(fields, 2),
			IdP:          parseIdP(field(fields, 3), domain.IdPGoogle),
		}
		if candidate.Email == "" || candidate.RefreshToken == "" {
			continue
		}
		candidates = append(candidates, candidate)
	}

	if position == 0 {
		return nil, fmt.Errorf("%w: txt has only comments", domain.ErrEmptyInput)
	}

	return candidates, nil
}

func field(fields []string, idx int) string {
	if idx >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[idx])
}

// parseIdP maps raw onto a known provider, or fallback when it is blank or unknown.
func parseIdP(raw string, fallback domain.IdP) domain.IdP {
	if idp, ok := domain.ParseIdP(raw); ok {
		return idp
	}
	return fallback
}

// verbatimProvider canonicalizes known providers and keeps anything else as is.
func verbatimProvider(raw string) domain.IdP {
	if idp, ok := domain.ParseIdP(raw); ok {
		return idp
	}
	return domain.IdP(raw)
}
