// Package httpapi serves the auth HTTP edge: password accounts, passkey
// ceremonies, session tokens and the audit log.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-webauthn/webauthn/protocol"
	apperrors "github.com/ledgerly/ledgerly/internal/platform/errors"
	"github.com/ledgerly/ledgerly/internal/services/auth/account"
	"github.com/ledgerly/ledgerly/internal/services/auth/passkey"
	"github.com/ledgerly/ledgerly/internal/services/auth/storage"
	"github.com/ledgerly/ledgerly/internal/services/auth/user"
	"github.com/ledgerly/ledgerly/internal/services/shared/authguard"
	"github.com/ledgerly/ledgerly/internal/services/shared/httpmw"
	"github.com/ledgerly/ledgerly/internal/services/shared/i18nhttp"
)

const (
	maxBodyBytes   = 1 << 20
	requestTimeout = 30 * time.Second
)

// Accounts is the password account lifecycle.
type Accounts interface {
	Register(ctx context.Context, in account.RegisterInput) (user.User, error)
	Activate(ctx context.Context, linkID string) (string, error)
	Login(ctx context.Context, in account.LoginInput) (account.Session, error)
	Logout(ctx context.Context, userID string) error
	ForgotPassword(ctx context.Context, emailAddr, captchaToken string) error
	ResetPassword(ctx context.Context, linkID, newPassword string) error
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
}

// Passkeys runs WebAuthn ceremonies.
type Passkeys interface {
	StartRegistration(ctx context.Context, username, emailAddr string) (passkey.RegistrationOptions, error)
	FinishRegistration(ctx context.Context, sessionID string, response []byte) (passkey.Registration, error)
	StartAddPasskey(ctx context.Context, userID string) (passkey.RegistrationOptions, error)
	FinishAddPasskey(ctx context.Context, userID, sessionID string, response []byte) (passkey.Registration, error)
	StartAuthentication(ctx context.Context, username string) (*protocol.CredentialAssertion, error)
	FinishAuthentication(ctx context.Context, username string, response []byte) (passkey.Login, error)
}

// AuditLog lists a user's authentication attempts.
type AuditLog interface {
	List(ctx context.Context, userID string, limit int) ([]storage.AuditEntry, error)
}

// Deps are the collaborators of the HTTP edge.
type Deps struct {
	Accounts    Accounts
	Passkeys    Passkeys
	Tokens      authguard.Verifier
	Audit       AuditLog
	Metrics     http.Handler
	CORSOrigins []string
	Logf        func(string, ...any)
}

// Handler serves the auth HTTP API.
type Handler struct {
	accounts    Accounts
	passkeys    Passkeys
	tokens      authguard.Verifier
	audit       AuditLog
	metrics     http.Handler
	corsOrigins []string
	logf        func(string, ...any)
}

// NewHandler validates deps and returns a handler.
func NewHandler(deps Deps) (*Handler, error) {
	switch {
	case deps.Accounts == nil:
		return nil, errors.New("account service is required")
	case deps.Passkeys == nil:
		return nil, errors.New("passkey engine is required")
	case deps.Tokens == nil:
		return nil, errors.New("token verifier is required")
	case deps.Audit == nil:
		return nil, errors.New("audit log is required")
	}
	logf := deps.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Handler{
		accounts:    deps.Accounts,
		passkeys:    deps.Passkeys,
		tokens:      deps.Tokens,
		audit:       deps.Audit,
		metrics:     deps.Metrics,
		corsOrigins: deps.CORSOrigins,
		logf:        logf,
	}, nil
}

// Router builds the chi router with the edge middleware stack.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(httpmw.RequestLogger(h.logf))
	r.Use(httpmw.Recover(h.logf))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept-Language", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httpmw.CanonicalPath)
	r.Use(httpmw.ClientInfo)
	r.Use(i18nhttp.Middleware)
	r.Use(chimw.Timeout(requestTimeout))

	r.Get("/up", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	r.Post("/register/start", h.registerStart)
	r.Post("/register/finish", h.registerFinish)
	r.Post("/login", h.login)
	r.Get("/verify", h.verify)
	r.Post("/password/forgot", h.forgotPassword)
	r.Post("/password/reset", h.resetPassword)

	requireSession := authguard.Middleware(h.tokens, h.logf)
	r.Route("/passkey", func(r chi.Router) {
		r.Post("/register/options", h.passkeyRegisterOptions)
		r.Post("/register/complete", h.passkeyRegisterComplete)
		r.Post("/login/options", h.passkeyLoginOptions)
		r.Post("/login/complete", h.passkeyLoginComplete)
		r.With(requireSession).Post("/add/options", h.passkeyAddOptions)
		r.With(requireSession).Post("/add/complete", h.passkeyAddComplete)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireSession)
		r.Post("/logout", h.logout)
		r.Get("/audit", h.listAudit)
		r.Post("/password/change", h.changePassword)
	})
	return r
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	httpmw.WriteError(w, r, err, h.logf)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.New(apperrors.CodeRequestInvalid, "request body is required")
		}
		return apperrors.Wrap(apperrors.CodeRequestInvalid, "decode request body", err)
	}
	return nil
}
