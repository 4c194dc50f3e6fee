package verifier

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
)

const HeaderRetryAfter = "Retry-After"

var (
	invalidCredentialHints = []string{
		"invalid_grant", "invalid_client", "invalid token", "invalid refresh", "expired",
		"revoked", "suspended", "banned", "locked", "unauthorized", "forbidden", "access denied",
	}
	rateLimitHints = []string{"rate limit", "rate_limit", "ratelimit", "too many requests", "throttl"}
	networkHints   = []string{"timeout", "timed out", "connection", "network", "unavailable", "econnreset"}
)

// classifyTransport turns a failed round trip into a network error.
func classifyTransport(op string, err error) *domain.VerificationError {
	msg := op + ": " + err.Error()
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		msg = op + ": request timed out"
	case errors.Is(err, context.Canceled):
		msg = op + ": request cancelled"
	}
	return &domain.VerificationError{Kind: domain.VerificationNetwork, Message: msg, Err: err}
}

// classifyStatus maps a non-2xx response. message is the decoded upstream error, if any.
func classifyStatus(resp *http.Response, message string, now time.Time) *domain.VerificationError {
	if message == "" {
		message = "status " + strconv.Itoa(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &domain.VerificationError{
			Kind:       domain.VerificationRateLimited,
			Message:    message,
			RetryAfter: parseRetryAfter(resp.Header.Get(HeaderRetryAfter), now),
		}
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return &domain.VerificationError{Kind: domain.VerificationInvalidCredential, Message: message}
	case resp.StatusCode == http.StatusRequestTimeout, resp.StatusCode >= http.StatusInternalServerError:
		return &domain.VerificationError{Kind: domain.VerificationNetwork, Message: message}
	default:
		return classifyMessage(message)
	}
}

// classifyMessage is used when upstream answers with success=false and only a text
// tells the failure apart.
func classifyMessage(message string) *domain.VerificationError {
	lower := strings.ToLower(message)
	kind := domain.VerificationUnknown
	switch {
	case containsAny(lower, rateLimitHints):
		kind = domain.VerificationRateLimited
	case containsAny(lower, invalidCredentialHints):
		kind = domain.VerificationInvalidCredential
	case containsAny(lower, networkHints):
		kind = domain.VerificationNetwork
	}
	if message == "" {
		message = "verification failed"
	}
	return &domain.VerificationError{Kind: kind, Message: message}
}

func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if wait := at.Sub(now); wait > 0 {
			return wait
		}
	}
	return 0
}

func containsAny(text string, hints []string) bool {
	for _, hint := range hints {
		if strings.Contains(text, hint) {
			return true
		}
	}
	return false
}
