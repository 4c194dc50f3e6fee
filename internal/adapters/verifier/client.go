package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
)

const (
	DefaultVerifyPath     = "/api/account/verify"
	DefaultRefreshPath    = "/api/account/refresh"
	DefaultRequestTimeout = 30 * time.Second

	maxResponseBytes = 1 << 20
)

type API struct {
	BaseURL     string
	VerifyPath  string
	RefreshPath string
}

// Client calls the remote verification service. Every failure it returns is a
// *domain.VerificationError.
type Client struct {
	API            API
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	Throttle       *Throttle
	Now            func() time.Time
}

func (c Client) Verify(ctx context.Context, req domain.VerifyRequest) (domain.VerifiedAccount, error) {
	var data verifyData
	if err := c.call(ctx, "verify", c.path(c.API.VerifyPath, DefaultVerifyPath), req, &data); err != nil {
		return domain.VerifiedAccount{}, err
	}
	if data.AccessToken == "" {
		return domain.VerifiedAccount{}, domain.NewVerificationError(domain.VerificationUnknown, "verify: response missing access token")
	}
	return data.toDomain(), nil
}

func (c Client) Refresh(ctx context.Context, req domain.VerifyRequest) (domain.TokenRefresh, error) {
	var data refreshData
	if err := c.call(ctx, "refresh", c.path(c.API.RefreshPath, DefaultRefreshPath), req, &data); err != nil {
		return domain.TokenRefresh{}, err
	}
	if data.AccessToken == "" {
		return domain.TokenRefresh{}, domain.NewVerificationError(domain.VerificationUnknown, "refresh: response missing access token")
	}
	return domain.TokenRefresh{
		AccessToken:  data.AccessToken,
		RefreshToken: data.RefreshToken,
		ExpiresIn:    data.ExpiresIn,
	}, nil
}

func (c Client) call(ctx context.Context, op, path string, req domain.VerifyRequest, out any) error {
	if req.RefreshToken == "" {
		return domain.NewVerificationError(domain.VerificationInvalidCredential, "%s: refresh token is required", op)
	}

	endpoint, err := buildAPIURL(c.API.BaseURL, path)
	if err != nil {
		return &domain.VerificationError{Kind: domain.VerificationUnknown, Message: op + ": " + err.Error(), Err: err}
	}

	body, err := json.Marshal(newRequestPayload(req))
	if err != nil {
		return &domain.VerificationError{Kind: domain.VerificationUnknown, Message: op + ": encode request", Err: err}
	}

	if c.Throttle != nil {
		if err := c.Throttle.Wait(ctx); err != nil {
			return classifyTransport(op, err)
		}
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return &domain.VerificationError{Kind: domain.VerificationUnknown, Message: op + ": create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return classifyTransport(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return classifyTransport(op, err)
	}

	var payload envelope
	decodeErr := json.Unmarshal(raw, &payload)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		verr := classifyStatus(resp, payload.Error.String(), c.now())
		if verr.Kind == domain.VerificationRateLimited && c.Throttle != nil {
			c.Throttle.Pause(verr.RetryAfter)
		}
		return verr
	}

	if decodeErr != nil {
		return &domain.VerificationError{Kind: domain.VerificationUnknown, Message: op + ": decode response", Err: decodeErr}
	}
	if !payload.Success || len(payload.Data) == 0 || string(payload.Data) == "null" {
		return classifyMessage(payload.Error.String())
	}
	if err := json.Unmarshal(payload.Data, out); err != nil {
		return &domain.VerificationError{Kind: domain.VerificationUnknown, Message: op + ": decode response data", Err: err}
	}

	return nil
}

func (c Client) path(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func buildAPIURL(baseURL string, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("verifier base url is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse verifier base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("verifier base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("verifier base url host is required")
	}

	endpoint, err := parsed.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse verifier path: %w", err)
	}
	return endpoint.String(), nil
}
