package authguard

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	apperrors "github.com/ledgerly/ledgerly/internal/platform/errors"
	"github.com/ledgerly/ledgerly/internal/platform/requestctx"
	"github.com/ledgerly/ledgerly/internal/platform/timeouts"
	"github.com/ledgerly/ledgerly/internal/services/shared/grpcauthctx"
	"github.com/ledgerly/ledgerly/internal/services/shared/httpmw"
)

// HTTPVerifier calls the auth service's GET /verify endpoint. It serves
// deployments where downstream services cannot reach the gRPC port.
type HTTPVerifier struct {
	url    string
	client *http.Client
}

// NewHTTPVerifier creates a verifier that calls the given /verify URL.
func NewHTTPVerifier(url string, client *http.Client) *HTTPVerifier {
	if client == nil {
		client = &http.Client{Timeout: timeouts.GRPCRequest}
	}
	return &HTTPVerifier{url: url, client: client}
}

type verifyResult struct {
	UserID string `json:"user_id"`
}

// Verify implements Verifier.
func (h *HTTPVerifier) Verify(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", missingToken()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return "", apperrors.FromTransport("build verify request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", apperrors.FromTransport("verify request", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var result verifyResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return "", apperrors.FromSerialization("decode verify response", err)
		}
		if strings.TrimSpace(result.UserID) == "" {
			return "", reasonError("")
		}
		return result.UserID, nil
	case http.StatusUnauthorized:
		var body httpmw.ErrorBody
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return "", reasonError(body.Error)
	default:
		return "", apperrors.FromTransport("verify request", &statusError{status: resp.Status})
	}
}

type statusError struct {
	status string
}

func (e *statusError) Error() string {
	return "verify returned " + e.status
}

// Middleware authenticates requests with an "Authorization: Bearer" header.
// Rejected tokens get a 401 and the user id of accepted ones is available
// through requestctx.UserIDFromContext.
func Middleware(verifier Verifier, logf func(string, ...any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := grpcauthctx.ParseBearer(r.Header.Get("Authorization"))
			if !ok {
				httpmw.WriteError(w, r, missingToken(), logf)
				return
			}
			userID, err := verifier.Verify(r.Context(), token)
			if err != nil {
				httpmw.WriteError(w, r, err, logf)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithUserID(r.Context(), userID)))
		})
	}
}
