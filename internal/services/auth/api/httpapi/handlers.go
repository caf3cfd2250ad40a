package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	apperrors "github.com/ledgerly/ledgerly/internal/platform/errors"
	errori18n "github.com/ledgerly/ledgerly/internal/platform/errors/i18n"
	"github.com/ledgerly/ledgerly/internal/platform/pagination"
	"github.com/ledgerly/ledgerly/internal/platform/requestctx"
	"github.com/ledgerly/ledgerly/internal/services/auth/account"
	"github.com/ledgerly/ledgerly/internal/services/auth/audit"
	"github.com/ledgerly/ledgerly/internal/services/auth/user"
	"github.com/ledgerly/ledgerly/internal/services/shared/grpcauthctx"
	"github.com/ledgerly/ledgerly/internal/services/shared/httpmw"
	"github.com/ledgerly/ledgerly/internal/services/shared/i18nhttp"
)

type userResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

func toUserResponse(u user.User) userResponse {
	return userResponse{UserID: u.ID, Username: u.Username, Email: u.Email, Verified: u.Verified}
}

type sessionResponse struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type registerRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	CaptchaToken string `json:"captcha_token"`
}

func (h *Handler) registerStart(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	_, err := h.accounts.Register(r.Context(), account.RegisterInput{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		CaptchaToken: req.CaptchaToken,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	message := errori18n.GetCatalog(i18nhttp.Locale(r)).Format(errori18n.MessageRegistrationStarted, nil)
	httpmw.WriteJSON(w, http.StatusOK, messageResponse{Message: message})
}

type linkRequest struct {
	ID string `json:"id"`
}

func (h *Handler) registerFinish(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	userID, err := h.accounts.Activate(r.Context(), req.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpmw.WriteJSON(w, http.StatusOK, map[string]any{"user_id": userID, "verified": true})
}

type loginRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	CaptchaToken string `json:"captcha_token"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	session, err := h.accounts.Login(r.Context(), account.LoginInput{
		Username:     req.Username,
		Password:     req.Password,
		CaptchaToken: req.CaptchaToken,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpmw.WriteJSON(w, http.StatusOK, sessionResponse{
		UserID:    session.User.ID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Logout(r.Context(), requestctx.UserIDFromContext(r.Context())); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// verify answers downstream services that authenticate over HTTP. Rejected
// tokens are reported as TOKEN_EXPIRED or TOKEN_INVALID only.
func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	token, ok := grpcauthctx.ParseBearer(r.Header.Get("Authorization"))
	if !ok {
		h.writeError(w, r, apperrors.New(apperrors.CodeTokenMissing, "bearer token is required"))
		return
	}
	userID, err := h.tokens.Verify(r.Context(), token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpmw.WriteJSON(w, http.StatusOK, map[string]string{"user_id": userID})
}

type auditEntryResponse struct {
	ID        string            `json:"id"`
	Method    string            `json:"method"`
	Success   bool              `json:"success"`
	IP        string            `json:"ip,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// listAudit returns the caller's newest audit entries. A missing or
// unparsable limit falls back to the default page size.
func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	limit := pagination.ParseLimit(r.URL.Query().Get("limit"), audit.ListLimits)
	entries, err := h.audit.List(r.Context(), requestctx.UserIDFromContext(r.Context()), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]auditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, auditEntryResponse{
			ID:        entry.ID,
			Method:    entry.Method,
			Success:   entry.Success,
			IP:        entry.IP,
			UserAgent: entry.UserAgent,
			Metadata:  entry.Metadata,
			CreatedAt: entry.CreatedAt,
		})
	}
	httpmw.WriteJSON(w, http.StatusOK, map[string]any{"entries": out})
}

type forgotPasswordRequest struct {
	Email        string `json:"email"`
	CaptchaToken string `json:"captcha_token"`
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.accounts.ForgotPassword(r.Context(), req.Email, req.CaptchaToken); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type resetPasswordRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.accounts.ResetPassword(r.Context(), req.ID, req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	userID := requestctx.UserIDFromContext(r.Context())
	if err := h.accounts.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type registrationOptionsResponse struct {
	SessionID string                       `json:"session_id"`
	Options   *protocol.CredentialCreation `json:"options"`
}

type passkeyRegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (h *Handler) passkeyRegisterOptions(w http.ResponseWriter, r *http.Request) {
	var req passkeyRegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	opts, err := h.passkeys.StartRegistration(r.Context(), req.Username, req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpmw.WriteJSON(w, http.StatusOK, registrationOptionsResponse{SessionID: opts.SessionID, Options: opts.Options})
}

type passkeyCompleteRequest struct {
	SessionID  string          `json:"session_id"`
	Credential json.RawMessage `json:"credential"`
}

type registrationResponse struct {
	User    userResponse `json:"user"`
	Created bool         `json:"created"`
}

func (h *Handler) passkeyRegisterComplete(w http.ResponseWriter, r *http.Request) {
	var req passkeyCompleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	reg, err := h.passkeys.FinishRegistration(r.Context(), req.SessionID, req.Credential)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpmw.WriteJSON(w, http.StatusCreated, registrationResponse{User: toUserResponse(reg.User), Created: reg.Created})
}

func (h *Handler) passkeyAddOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.passkeys.StartAddPasskey(r.Context(), requestctx.UserIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpmw.WriteJSON(w, http.StatusOK, registrationOptionsResponse{SessionID: opts.SessionID, Options: opts.Options})
}

func (h *Handler) passkeyAddComplete(w http.ResponseWriter, r *http.Request) {
	var req passkeyCompleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	userID := requestctx.UserIDFromContext(r.Context())
	reg, err := h.passkeys.FinishAddPasskey(r.Context(), userID, req.SessionID, req.Credential)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpmw.WriteJSON(w, http.StatusCreated, registrationResponse{User: toUserResponse(reg.User)})
}

type passkeyLoginRequest struct {
	Username   string          `json:"username"`
	Credential json.RawMessage `json:"credential,omitempty"`
}

func (h *Handler) passkeyLoginOptions(w http.ResponseWriter, r *http.Request) {
	var req passkeyLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	assertion, err := h.passkeys.StartAuthentication(r.Context(), req.Username)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpmw.WriteJSON(w, http.StatusOK, map[string]any{"options": assertion})
}

func (h *Handler) passkeyLoginComplete(w http.ResponseWriter, r *http.Request) {
	var req passkeyLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	login, err := h.passkeys.FinishAuthentication(r.Context(), req.Username, req.Credential)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpmw.WriteJSON(w, http.StatusOK, sessionResponse{
		UserID:    login.User.ID,
		Token:     login.Token,
		ExpiresAt: login.ExpiresAt,
	})
}
