package domain

import (
	"strings"
	"time"
)

type AccountID string

type IdP string

const (
	IdPBuilderID IdP = "BuilderId"
	IdPGithub    IdP = "Github"
	IdPGoogle    IdP = "Google"
)

// ParseIdP matches raw case-insensitively against the known providers.
func ParseIdP(raw string) (IdP, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "builderid", "builder_id", "builder-id":
		return IdPBuilderID, true
	case "github":
		return IdPGithub, true
	case "google":
		return IdPGoogle, true
	default:
		return "", false
	}
}

type Status string

const (
	StatusActive  Status = "active"
	StatusError   Status = "error"
	StatusUnknown Status = "unknown"
)

func ParseStatus(raw string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusActive:
		return StatusActive, true
	case StatusError:
		return StatusError, true
	case StatusUnknown:
		return StatusUnknown, true
	default:
		return "", false
	}
}

type Account struct {
	ID            AccountID
	Email         string
	UserID        string
	Nickname      string
	IdP           IdP
	Credentials   Credentials
	Subscription  Subscription
	Usage         Usage
	Status        Status
	LastError     string
	Tags          []string
	CreatedAt     time.Time
	LastCheckedAt time.Time
}

// Clone returns a copy that shares no slices with a.
func (a Account) Clone() Account {
	if a.Tags != nil {
		a.Tags = append([]string(nil), a.Tags...)
	}
	if a.Usage.Bonuses != nil {
		a.Usage.Bonuses = append([]Bonus(nil), a.Usage.Bonuses...)
	}
	return a
}

// DisplayName prefers the nickname, then the local part of the email.
func (a Account) DisplayName() string {
	if nickname := strings.TrimSpace(a.Nickname); nickname != "" {
		return nickname
	}
	return NicknameFromEmail(a.Email)
}

func NicknameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	return local
}

func (a Account) HasTag(tag string) bool {
	for _, existing := range a.Tags {
		if strings.EqualFold(existing, tag) {
			return true
		}
	}
	return false
}

// AddTags appends tags not already present, keeping first-seen order.
func (a *Account) AddTags(tags ...string) {
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" || a.HasTag(trimmed) {
			continue
		}
		a.Tags = append(a.Tags, trimmed)
	}
}

// SameIdentity reports whether the account matches email or, when given, userID.
// Empty values never match.
func (a Account) SameIdentity(email, userID string) bool {
	email = strings.TrimSpace(email)
	if email != "" && strings.EqualFold(strings.TrimSpace(a.Email), email) {
		return true
	}
	userID = strings.TrimSpace(userID)
	return userID != "" && strings.TrimSpace(a.UserID) == userID
}
