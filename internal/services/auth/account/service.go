package account

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/ledgerly/ledgerly/internal/platform/errors"
	"github.com/ledgerly/ledgerly/internal/platform/id"
	"github.com/ledgerly/ledgerly/internal/platform/requestctx"
	"github.com/ledgerly/ledgerly/internal/services/auth/audit"
	"github.com/ledgerly/ledgerly/internal/services/auth/captcha"
	"github.com/ledgerly/ledgerly/internal/services/auth/email"
	"github.com/ledgerly/ledgerly/internal/services/auth/password"
	"github.com/ledgerly/ledgerly/internal/services/auth/storage"
	"github.com/ledgerly/ledgerly/internal/services/auth/user"
)

const (
	// DefaultActivationTTL is how long an activation link stays valid.
	DefaultActivationTTL = 24 * time.Hour
	// DefaultResetTTL is how long a password reset link stays valid.
	DefaultResetTTL = time.Hour
)

// Audit failure reasons.
const (
	reasonUnknownUser    = "unknown_user"
	reasonNoPassword     = "password_not_set"
	reasonBadPassword    = "bad_password"
	reasonNotVerified    = "not_verified"
	reasonInactive       = "inactive"
	reasonMalformedHash  = "malformed_hash"
	reasonCaptchaFailure = "captcha_failed"
)

// Store is the persistence the account service needs.
type Store interface {
	storage.UserStore
	storage.AccountStore
	storage.PasswordStore
}

// Tokens issues and revokes session tokens.
type Tokens interface {
	Issue(ctx context.Context, userID string) (string, time.Time, error)
	RevokeAll(ctx context.Context, userID string) (int64, error)
}

// Auditor records authentication attempts.
type Auditor interface {
	Success(ctx context.Context, userID, method string)
	Failure(ctx context.Context, userID, method, reason string)
}

// Links builds the URLs placed in account emails.
type Links interface {
	Activation(linkID string) string
	PasswordReset(linkID string) string
}

// Deps wires the service.
type Deps struct {
	Store         Store
	Policy        *password.Policy
	Tokens        Tokens
	Captcha       captcha.Verifier
	Audit         Auditor
	Mailer        email.Sender
	Links         Links
	ActivationTTL time.Duration
	ResetTTL      time.Duration
	Logf          func(string, ...any)
}

// Service implements the password account lifecycle.
type Service struct {
	store         Store
	policy        *password.Policy
	tokens        Tokens
	captcha       captcha.Verifier
	audit         Auditor
	mailer        email.Sender
	links         Links
	activationTTL time.Duration
	resetTTL      time.Duration
	logf          func(string, ...any)
	clock         func() time.Time
	idGenerator   func() (string, error)
}

// NewService validates deps and builds the service.
func NewService(deps Deps) (*Service, error) {
	if deps.Store == nil {
		return nil, errors.New("account store is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("token service is required")
	}
	if deps.Mailer == nil {
		return nil, errors.New("email sender is required")
	}
	if deps.Links == nil {
		return nil, errors.New("email links are required")
	}
	s := &Service{
		store:         deps.Store,
		policy:        deps.Policy,
		tokens:        deps.Tokens,
		captcha:       deps.Captcha,
		audit:         deps.Audit,
		mailer:        deps.Mailer,
		links:         deps.Links,
		activationTTL: deps.ActivationTTL,
		resetTTL:      deps.ResetTTL,
		logf:          deps.Logf,
		clock:         time.Now,
		idGenerator:   id.NewID,
	}
	if s.policy == nil {
		s.policy = password.NewPolicy(nil, 0, 0)
	}
	if s.captcha == nil {
		s.captcha = captcha.Disabled{}
	}
	if s.audit == nil {
		s.audit = noopAuditor{}
	}
	if s.activationTTL <= 0 {
		s.activationTTL = DefaultActivationTTL
	}
	if s.resetTTL <= 0 {
		s.resetTTL = DefaultResetTTL
	}
	if s.logf == nil {
		s.logf = func(string, ...any) {}
	}
	return s, nil
}

type noopAuditor struct{}

func (noopAuditor) Success(context.Context, string, string)         {}
func (noopAuditor) Failure(context.Context, string, string, string) {}

// RegisterInput is the password registration request.
type RegisterInput struct {
	Username     string
	Email        string
	Password     string
	CaptchaToken string
}

// Register creates an unverified password account and sends its activation
// email. The user, its first history entry and its activation link are
// written together; an email failure does not undo them.
func (s *Service) Register(ctx context.Context, in RegisterInput) (user.User, error) {
	if err := s.verifyCaptcha(ctx, in.CaptchaToken); err != nil {
		return user.User{}, err
	}
	normalized, err := user.NormalizeCreateUserInput(user.CreateUserInput{Username: in.Username, Email: in.Email})
	if err != nil {
		return user.User{}, err
	}
	if err := s.policy.ValidateComplexity(in.Password); err != nil {
		return user.User{}, err
	}
	if err := s.ensureAvailable(ctx, normalized.Username, normalized.Email); err != nil {
		return user.User{}, err
	}
	hash, err := s.policy.Hash(in.Password)
	if err != nil {
		return user.User{}, err
	}
	normalized.PasswordHash = hash

	created, err := user.CreateUser(normalized, s.clock, s.idGenerator)
	if err != nil {
		return user.User{}, apperrors.FromCrypto("create user", err)
	}
	link, err := s.newLink(created.ID, created.CreatedAt, s.activationTTL)
	if err != nil {
		return user.User{}, err
	}
	if err := s.store.CreatePasswordAccount(ctx, created, link); err != nil {
		return user.User{}, accountWriteError(err)
	}

	if err := s.mailer.SendActivationEmail(ctx, email.Message{
		Username: created.Username,
		Email:    created.Email,
		Link:     s.links.Activation(link.ID),
	}); err != nil {
		s.logf("send activation email for user %s: %v", created.ID, err)
		return created, apperrors.FromTransport("send activation email", err)
	}
	return created, nil
}

// Activate consumes an activation link and marks its account verified.
func (s *Service) Activate(ctx context.Context, linkID string) (string, error) {
	linkID = strings.TrimSpace(linkID)
	if linkID == "" {
		return "", apperrors.New(apperrors.CodeRequestInvalid, "activation link id is required")
	}
	userID, err := s.store.ActivateUser(ctx, linkID, s.clock().UTC())
	if err != nil {
		return "", linkError(err, "consume activation link")
	}
	return userID, nil
}

// LoginInput is the password login request.
type LoginInput struct {
	Username     string
	Password     string
	CaptchaToken string
}

// Session is an issued session token.
type Session struct {
	User      user.User
	Token     string
	ExpiresAt time.Time
}

// Login checks a username and password and issues a session token.
func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	if err := s.verifyCaptcha(ctx, in.CaptchaToken); err != nil {
		if apperrors.IsCode(err, apperrors.CodeCaptchaFailed) {
			s.audit.Failure(ctx, "", audit.MethodPassword, reasonCaptchaFailure)
		}
		return Session{}, err
	}
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if username == "" || in.Password == "" {
		return Session{}, apperrors.New(apperrors.CodeRequestInvalid, "username and password are required")
	}

	account, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.audit.Failure(ctx, "", audit.MethodPassword, reasonUnknownUser)
			return Session{}, invalidCredentials()
		}
		return Session{}, apperrors.FromDatabase("load user", err)
	}
	if !account.HasPassword() {
		s.audit.Failure(ctx, account.ID, audit.MethodPassword, reasonNoPassword)
		return Session{}, apperrors.New(apperrors.CodePasswordNotSet, "account has no password")
	}
	ok, err := s.policy.Verify(in.Password, account.PasswordHash)
	if err != nil {
		s.audit.Failure(ctx, account.ID, audit.MethodPassword, reasonMalformedHash)
		return Session{}, err
	}
	if !ok {
		s.audit.Failure(ctx, account.ID, audit.MethodPassword, reasonBadPassword)
		return Session{}, invalidCredentials()
	}
	if err := account.CanSignIn(); err != nil {
		reason := reasonInactive
		if apperrors.IsCode(err, apperrors.CodeAccountNotVerified) {
			reason = reasonNotVerified
		}
		s.audit.Failure(ctx, account.ID, audit.MethodPassword, reason)
		return Session{}, err
	}

	token, expiresAt, err := s.tokens.Issue(ctx, account.ID)
	if err != nil {
		return Session{}, err
	}
	now := s.clock().UTC()
	if err := s.store.TouchLastLogin(ctx, account.ID, now); err != nil {
		s.logf("touch last login for user %s: %v", account.ID, err)
	} else {
		account.LastLoginAt = &now
	}
	s.audit.Success(ctx, account.ID, audit.MethodPassword)
	return Session{User: account, Token: token, ExpiresAt: expiresAt}, nil
}

// Logout revokes every session token of the user.
func (s *Service) Logout(ctx context.Context, userID string) error {
	_, err := s.tokens.RevokeAll(ctx, userID)
	return err
}

// ForgotPassword sends a reset link when the address belongs to an account.
// The outcome is the same whether or not it does.
func (s *Service) ForgotPassword(ctx context.Context, emailAddr, captchaToken string) error {
	if err := s.verifyCaptcha(ctx, captchaToken); err != nil {
		return err
	}
	normalized, err := user.NormalizeEmail(emailAddr)
	if err != nil {
		return err
	}
	account, err := s.store.GetUserByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return apperrors.FromDatabase("load user by email", err)
	}

	link, err := s.newLink(account.ID, s.clock().UTC(), s.resetTTL)
	if err != nil {
		return err
	}
	if err := s.store.PutForgotPasswordLink(ctx, link); err != nil {
		return apperrors.FromDatabase("store reset link", err)
	}
	if err := s.mailer.SendPasswordResetEmail(ctx, email.Message{
		Username: account.Username,
		Email:    account.Email,
		Link:     s.links.PasswordReset(link.ID),
	}); err != nil {
		s.logf("send password reset email for user %s: %v", account.ID, err)
	}
	return nil
}

// ResetPassword consumes a reset link and sets a new password. Every session
// of the account is revoked.
func (s *Service) ResetPassword(ctx context.Context, linkID, newPassword string) error {
	linkID = strings.TrimSpace(linkID)
	if linkID == "" {
		return apperrors.New(apperrors.CodeRequestInvalid, "reset link id is required")
	}
	link, err := s.store.GetForgotPasswordLink(ctx, linkID)
	if err != nil {
		return linkError(err, "load reset link")
	}
	now := s.clock().UTC()
	if !now.Before(link.ExpiresAt) {
		if err := s.store.DeleteForgotPasswordLink(ctx, linkID); err != nil {
			s.logf("delete expired reset link: %v", err)
		}
		return apperrors.New(apperrors.CodeLinkExpired, "reset link expired")
	}

	hash, err := s.prepareNewPassword(ctx, link.UserID, newPassword)
	if err != nil {
		return err
	}
	if err := s.store.ResetPassword(ctx, linkID, link.UserID, hash, now, s.policy.HistoryDepth()); err != nil {
		return linkError(err, "reset password")
	}
	if _, err := s.tokens.RevokeAll(ctx, link.UserID); err != nil {
		s.logf("revoke tokens after password reset for user %s: %v", link.UserID, err)
	}
	return nil
}

// ChangePassword replaces the password of an authenticated user after
// checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return apperrors.New(apperrors.CodeRequestInvalid, "user id is required")
	}
	account, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeUserNotFound, "user not found")
		}
		return apperrors.FromDatabase("load user", err)
	}
	if !account.HasPassword() {
		return apperrors.New(apperrors.CodePasswordNotSet, "account has no password")
	}
	ok, err := s.policy.Verify(currentPassword, account.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return invalidCredentials()
	}

	hash, err := s.prepareNewPassword(ctx, account.ID, newPassword)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, account.ID, hash, s.clock().UTC(), s.policy.HistoryDepth()); err != nil {
		return apperrors.FromDatabase("update password", err)
	}
	return nil
}

func (s *Service) prepareNewPassword(ctx context.Context, userID, newPassword string) (string, error) {
	if err := s.policy.ValidateComplexity(newPassword); err != nil {
		return "", err
	}
	history, err := s.store.ListPasswordHistory(ctx, userID, s.policy.HistoryDepth())
	if err != nil {
		return "", apperrors.FromDatabase("list password history", err)
	}
	hashes := make([]string, len(history))
	for i, entry := range history {
		hashes[i] = entry.PasswordHash
	}
	if err := s.policy.CheckReuse(newPassword, hashes); err != nil {
		return "", err
	}
	return s.policy.Hash(newPassword)
}

func (s *Service) verifyCaptcha(ctx context.Context, token string) error {
	return s.captcha.Verify(ctx, token, requestctx.ClientFromContext(ctx).IP)
}

func (s *Service) ensureAvailable(ctx context.Context, username, emailAddr string) error {
	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return apperrors.New(apperrors.CodeUsernameTaken, "username taken")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return apperrors.FromDatabase("load user by username", err)
	}
	if _, err := s.store.GetUserByEmail(ctx, emailAddr); err == nil {
		return apperrors.New(apperrors.CodeEmailTaken, "email taken")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return apperrors.FromDatabase("load user by email", err)
	}
	return nil
}

func (s *Service) newLink(userID string, createdAt time.Time, ttl time.Duration) (storage.Link, error) {
	linkID, err := s.idGenerator()
	if err != nil {
		return storage.Link{}, apperrors.FromCrypto("generate link id", err)
	}
	return storage.Link{
		ID:        linkID,
		UserID:    userID,
		ExpiresAt: createdAt.Add(ttl),
		CreatedAt: createdAt,
	}, nil
}

func invalidCredentials() error {
	return apperrors.New(apperrors.CodeInvalidCredentials, "invalid username or password")
}

func accountWriteError(err error) error {
	switch {
	case errors.Is(err, storage.ErrUsernameTaken):
		return apperrors.New(apperrors.CodeUsernameTaken, "username taken")
	case errors.Is(err, storage.ErrEmailTaken):
		return apperrors.New(apperrors.CodeEmailTaken, "email taken")
	default:
		return apperrors.FromDatabase("create account", err)
	}
}

func linkError(err error, op string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.New(apperrors.CodeLinkNotFound, "link not found")
	case errors.Is(err, storage.ErrExpired):
		return apperrors.New(apperrors.CodeLinkExpired, "link expired")
	default:
		return apperrors.FromDatabase(op, err)
	}
}
