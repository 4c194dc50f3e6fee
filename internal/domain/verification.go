package domain

import (
	"errors"
	"fmt"
	"time"
)

type VerifyRequest struct {
	RefreshToken string
	ClientID     string
	ClientSecret string
	Region       string
	AuthMethod   AuthMethod
	Provider     IdP
}

// VerifiedAccount is the live state returned by a successful verification.
// ExpiresIn is relative (seconds); callers normalise it with Credentials.WithExpiry.
type VerifiedAccount struct {
	Email        string
	UserID       string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	Subscription Subscription
	Usage        Usage
}

type TokenRefresh struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

type VerificationErrorKind string

const (
	VerificationInvalidCredential VerificationErrorKind = "invalid_credential"
	VerificationRateLimited       VerificationErrorKind = "rate_limited"
	VerificationNetwork           VerificationErrorKind = "network_error"
	VerificationUnknown           VerificationErrorKind = "unknown"
)

func (k VerificationErrorKind) Retryable() bool {
	return k == VerificationRateLimited || k == VerificationNetwork
}

// VerificationError is the single classified failure shape of the verifier boundary.
type VerificationError struct {
	Kind       VerificationErrorKind
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *VerificationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

func (e *VerificationError) Retryable() bool {
	return e.Kind.Retryable()
}

func NewVerificationError(kind VerificationErrorKind, format string, args ...any) *VerificationError {
	return &VerificationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsVerificationError extracts a classified error from err's chain.
func AsVerificationError(err error) (*VerificationError, bool) {
	var verr *VerificationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
