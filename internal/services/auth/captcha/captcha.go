// Package captcha verifies captcha tokens with the provider's siteverify
// endpoint.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/ledgerly/ledgerly/internal/platform/errors"
	"github.com/ledgerly/ledgerly/internal/platform/timeouts"
)

// DefaultVerifyURL is the reCAPTCHA siteverify endpoint.
const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// Verifier checks a captcha token. A rejected token returns
// CodeCaptchaFailed; provider failures are internal errors.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// NewVerifier returns an HTTP verifier, or a verifier that accepts every
// token when secret is empty.
func NewVerifier(secret, verifyURL string, client *http.Client) Verifier {
	if strings.TrimSpace(secret) == "" {
		return Disabled{}
	}
	return NewHTTPVerifier(secret, verifyURL, client)
}

// Disabled accepts every token.
type Disabled struct{}

func (Disabled) Verify(context.Context, string, string) error { return nil }

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// HTTPVerifier posts tokens to a siteverify endpoint.
type HTTPVerifier struct {
	secret  string
	url     string
	client  *http.Client
	timeout time.Duration
}

// NewHTTPVerifier builds a siteverify client.
func NewHTTPVerifier(secret, verifyURL string, client *http.Client) *HTTPVerifier {
	if client == nil {
		client = http.DefaultClient
	}
	if strings.TrimSpace(verifyURL) == "" {
		verifyURL = DefaultVerifyURL
	}
	return &HTTPVerifier{
		secret:  secret,
		url:     verifyURL,
		client:  client,
		timeout: timeouts.CaptchaRequest,
	}
}

// Verify asks the provider whether token is valid.
func (v *HTTPVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.New(apperrors.CodeCaptchaFailed, "captcha token is required")
	}
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	form := url.Values{"secret": {v.secret}, "response": {token}}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, strings.NewReader(form.Encode()))
	if err != nil {
		return apperrors.FromTransport("build captcha request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return apperrors.FromTransport("captcha request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperrors.FromTransport("captcha request", fmt.Errorf("siteverify returned %s", resp.Status))
	}
	var result siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return apperrors.FromSerialization("decode captcha response", err)
	}
	if !result.Success {
		return apperrors.WithMetadata(apperrors.CodeCaptchaFailed, "captcha rejected",
			map[string]string{"ErrorCodes": strings.Join(result.ErrorCodes, ",")})
	}
	return nil
}
