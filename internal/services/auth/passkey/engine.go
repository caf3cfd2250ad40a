package passkey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	apperrors "github.com/ledgerly/ledgerly/internal/platform/errors"
	"github.com/ledgerly/ledgerly/internal/platform/id"
	"github.com/ledgerly/ledgerly/internal/services/auth/audit"
	"github.com/ledgerly/ledgerly/internal/services/auth/ceremony"
	"github.com/ledgerly/ledgerly/internal/services/auth/email"
	"github.com/ledgerly/ledgerly/internal/services/auth/storage"
	"github.com/ledgerly/ledgerly/internal/services/auth/user"
)

// DefaultActivationTTL is how long an activation link stays valid.
const DefaultActivationTTL = 24 * time.Hour

// Failure reasons recorded in the audit log. They never reach clients.
const (
	reasonSessionExpired    = "session_expired"
	reasonMalformedResponse = "malformed_response"
	reasonUnknownUser       = "unknown_user"
	reasonNotVerified       = "not_verified"
	reasonInactive          = "inactive"
	reasonAssertionInvalid  = "assertion_invalid"
	reasonUnknownCredential = "unknown_credential"
	reasonCounterRegressed  = "counter_regressed"
)

// Store is the persistence the engine needs.
type Store interface {
	storage.UserStore
	storage.AccountStore
	storage.PasskeyStore
}

// TokenIssuer issues a session token after a successful login.
type TokenIssuer interface {
	Issue(ctx context.Context, userID string) (string, time.Time, error)
}

// Auditor records authentication attempts.
type Auditor interface {
	Success(ctx context.Context, userID, method string)
	Failure(ctx context.Context, userID, method, reason string)
}

// Metrics receives ceremony starts.
type Metrics interface {
	RecordCeremonyStarted(kind string)
}

// Deps wires the engine.
type Deps struct {
	Store          Store
	Ceremonies     ceremony.Store
	WebAuthn       *webauthn.WebAuthn
	Tokens         TokenIssuer
	Audit          Auditor
	Mailer         email.Sender
	ActivationLink func(linkID string) string
	SessionTTL     time.Duration
	ActivationTTL  time.Duration
	Metrics        Metrics
	Logf           func(string, ...any)
}

// Engine runs passkey ceremonies.
type Engine struct {
	store          Store
	ceremonies     ceremony.Store
	provider       provider
	parser         parser
	tokens         TokenIssuer
	audit          Auditor
	mailer         email.Sender
	activationLink func(string) string
	sessionTTL     time.Duration
	activationTTL  time.Duration
	metrics        Metrics
	logf           func(string, ...any)
	clock          func() time.Time
	idGenerator    func() (string, error)
}

// NewEngine validates deps and builds an engine.
func NewEngine(deps Deps) (*Engine, error) {
	if deps.Store == nil {
		return nil, errors.New("passkey store is required")
	}
	if deps.Ceremonies == nil {
		return nil, errors.New("ceremony store is required")
	}
	if deps.WebAuthn == nil {
		return nil, errors.New("webauthn relying party is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("token issuer is required")
	}
	if deps.Mailer == nil {
		return nil, errors.New("email sender is required")
	}
	e := newEngine(deps)
	e.provider = deps.WebAuthn
	return e, nil
}

func newEngine(deps Deps) *Engine {
	e := &Engine{
		store:          deps.Store,
		ceremonies:     deps.Ceremonies,
		parser:         defaultParser{},
		tokens:         deps.Tokens,
		audit:          deps.Audit,
		mailer:         deps.Mailer,
		activationLink: deps.ActivationLink,
		sessionTTL:     deps.SessionTTL,
		activationTTL:  deps.ActivationTTL,
		metrics:        deps.Metrics,
		logf:           deps.Logf,
		clock:          time.Now,
		idGenerator:    id.NewID,
	}
	if e.sessionTTL <= 0 {
		e.sessionTTL = DefaultSessionTTL
	}
	if e.activationTTL <= 0 {
		e.activationTTL = DefaultActivationTTL
	}
	if e.logf == nil {
		e.logf = func(string, ...any) {}
	}
	if e.activationLink == nil {
		e.activationLink = func(linkID string) string { return linkID }
	}
	if e.audit == nil {
		e.audit = noopAuditor{}
	}
	return e
}

type noopAuditor struct{}

func (noopAuditor) Success(context.Context, string, string)         {}
func (noopAuditor) Failure(context.Context, string, string, string) {}

// RegistrationOptions is returned by the registration start operations.
type RegistrationOptions struct {
	SessionID string
	Options   *protocol.CredentialCreation
}

// Registration describes a completed registration.
type Registration struct {
	User         user.User
	CredentialID []byte
	// Created is true when the ceremony created a new account.
	Created bool
}

// Login describes a completed passkey login.
type Login struct {
	User      user.User
	Token     string
	ExpiresAt time.Time
}

// StartRegistration opens a registration ceremony for a new account. The
// username and email are held in the ceremony state until finish.
func (e *Engine) StartRegistration(ctx context.Context, username, emailAddr string) (RegistrationOptions, error) {
	input, err := user.NormalizeCreateUserInput(user.CreateUserInput{Username: username, Email: emailAddr})
	if err != nil {
		return RegistrationOptions{}, err
	}
	if err := e.ensureAvailable(ctx, input.Username, input.Email); err != nil {
		return RegistrationOptions{}, err
	}
	userID, err := e.idGenerator()
	if err != nil {
		return RegistrationOptions{}, apperrors.FromCrypto("generate user id", err)
	}
	pending := &ceremonyUser{id: userID, name: input.Username}
	return e.beginRegistration(ctx, ceremony.State{
		Kind:     ceremony.KindRegistration,
		UserID:   userID,
		Username: input.Username,
		Email:    input.Email,
	}, pending, nil)
}

// StartAddPasskey opens a registration ceremony that attaches another
// passkey to an existing account. Credentials already registered to the
// account are excluded.
func (e *Engine) StartAddPasskey(ctx context.Context, userID string) (RegistrationOptions, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return RegistrationOptions{}, apperrors.New(apperrors.CodeRequestInvalid, "user id is required")
	}
	existing, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return RegistrationOptions{}, userLookupError(err)
	}
	records, err := e.store.ListPasskeyCredentials(ctx, existing.ID)
	if err != nil {
		return RegistrationOptions{}, apperrors.FromDatabase("list passkeys", err)
	}
	credentials := toWebAuthnCredentials(records)
	return e.beginRegistration(ctx, ceremony.State{
		Kind:     ceremony.KindAddPasskey,
		UserID:   existing.ID,
		Username: existing.Username,
	}, &ceremonyUser{id: existing.ID, name: existing.Username, credentials: credentials}, credentials)
}

func (e *Engine) beginRegistration(ctx context.Context, state ceremony.State, wu *ceremonyUser, exclude []webauthn.Credential) (RegistrationOptions, error) {
	options := []webauthn.RegistrationOption{
		webauthn.WithResidentKeyRequirement(protocol.ResidentKeyRequirementPreferred),
	}
	if len(exclude) > 0 {
		options = append(options, webauthn.WithExclusions(webauthn.Credentials(exclude).CredentialDescriptors()))
	}
	creation, session, err := e.provider.BeginRegistration(wu, options...)
	if err != nil {
		return RegistrationOptions{}, apperrors.FromWebAuthn("begin registration", err)
	}
	sessionID, err := e.idGenerator()
	if err != nil {
		return RegistrationOptions{}, apperrors.FromCrypto("generate ceremony id", err)
	}
	state.Session = *session
	if err := e.ceremonies.Put(ctx, ceremony.RegistrationKey(sessionID), state, e.sessionTTL); err != nil {
		return RegistrationOptions{}, apperrors.FromDatabase("store ceremony state", err)
	}
	e.recordStart(string(state.Kind))
	return RegistrationOptions{SessionID: sessionID, Options: creation}, nil
}

// FinishRegistration completes a new-account registration ceremony. The
// user, its passkey and its activation link are created together and the
// activation email is sent after they are committed.
func (e *Engine) FinishRegistration(ctx context.Context, sessionID string, response []byte) (Registration, error) {
	return e.finishRegistration(ctx, ceremony.KindRegistration, "", sessionID, response)
}

// FinishAddPasskey completes a ceremony opened by StartAddPasskey. The
// ceremony must belong to userID.
func (e *Engine) FinishAddPasskey(ctx context.Context, userID, sessionID string, response []byte) (Registration, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Registration{}, apperrors.New(apperrors.CodeRequestInvalid, "user id is required")
	}
	return e.finishRegistration(ctx, ceremony.KindAddPasskey, userID, sessionID, response)
}

func (e *Engine) finishRegistration(ctx context.Context, kind ceremony.Kind, userID, sessionID string, response []byte) (Registration, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Registration{}, apperrors.New(apperrors.CodeRequestInvalid, "session id is required")
	}
	if len(response) == 0 {
		return Registration{}, apperrors.New(apperrors.CodeRequestInvalid, "credential response is required")
	}
	state, err := e.takeCeremony(ctx, ceremony.RegistrationKey(sessionID))
	if err != nil {
		return Registration{}, err
	}
	if state.Kind != kind || (userID != "" && state.UserID != userID) {
		return Registration{}, apperrors.New(apperrors.CodeCeremonyExpired, "ceremony does not match request")
	}

	parsed, err := e.parser.ParseCredentialCreationResponseBytes(response)
	if err != nil {
		return Registration{}, apperrors.Wrap(apperrors.CodePasskeyVerification, "parse credential response", err)
	}

	wu := &ceremonyUser{id: state.UserID, name: state.Username}
	if state.Kind == ceremony.KindAddPasskey {
		records, err := e.store.ListPasskeyCredentials(ctx, state.UserID)
		if err != nil {
			return Registration{}, apperrors.FromDatabase("list passkeys", err)
		}
		wu.credentials = toWebAuthnCredentials(records)
	}
	credential, err := e.provider.CreateCredential(wu, state.Session, parsed)
	if err != nil {
		return Registration{}, apperrors.Wrap(apperrors.CodePasskeyVerification, "verify credential response", err)
	}

	recordID, err := e.idGenerator()
	if err != nil {
		return Registration{}, apperrors.FromCrypto("generate passkey id", err)
	}
	now := e.clock().UTC()
	record := fromWebAuthnCredential(recordID, state.UserID, credential)
	record.SignCount = 0
	record.CreatedAt = now

	if state.Kind == ceremony.KindAddPasskey {
		return e.attachPasskey(ctx, state.UserID, record)
	}
	return e.createPasskeyAccount(ctx, state, record)
}

func (e *Engine) attachPasskey(ctx context.Context, userID string, record storage.PasskeyCredential) (Registration, error) {
	existing, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return Registration{}, userLookupError(err)
	}
	if err := e.store.PutPasskeyCredential(ctx, record); err != nil {
		return Registration{}, credentialWriteError(err)
	}
	return Registration{User: existing, CredentialID: record.CredentialID}, nil
}

func (e *Engine) createPasskeyAccount(ctx context.Context, state ceremony.State, record storage.PasskeyCredential) (Registration, error) {
	created, err := user.CreateUser(user.CreateUserInput{
		Username: state.Username,
		Email:    state.Email,
	}, e.clock, func() (string, error) { return state.UserID, nil })
	if err != nil {
		return Registration{}, err
	}
	linkID, err := e.idGenerator()
	if err != nil {
		return Registration{}, apperrors.FromCrypto("generate activation link", err)
	}
	link := storage.Link{
		ID:        linkID,
		UserID:    created.ID,
		ExpiresAt: created.CreatedAt.Add(e.activationTTL),
		CreatedAt: created.CreatedAt,
	}

	if err := e.store.CreatePasskeyAccount(ctx, created, record, link); err != nil {
		switch {
		case errors.Is(err, storage.ErrUsernameTaken):
			return Registration{}, apperrors.New(apperrors.CodeUsernameTaken, "username taken")
		case errors.Is(err, storage.ErrEmailTaken):
			return Registration{}, apperrors.New(apperrors.CodeEmailTaken, "email taken")
		default:
			return Registration{}, credentialWriteError(err)
		}
	}

	reg := Registration{User: created, CredentialID: record.CredentialID, Created: true}
	if err := e.mailer.SendActivationEmail(ctx, email.Message{
		Username: created.Username,
		Email:    created.Email,
		Link:     e.activationLink(linkID),
	}); err != nil {
		e.logf("send activation email for user %s: %v", created.ID, err)
		return reg, apperrors.FromTransport("send activation email", err)
	}
	return reg, nil
}

// StartAuthentication opens a login ceremony for a username. No challenge
// is issued for accounts without passkeys.
func (e *Engine) StartAuthentication(ctx context.Context, username string) (*protocol.CredentialAssertion, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, apperrors.New(apperrors.CodeRequestInvalid, "username is required")
	}
	account, err := e.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.New(apperrors.CodePasskeyNotFound, "no passkey configured")
		}
		return nil, apperrors.FromDatabase("load user", err)
	}
	records, err := e.store.ListPasskeyCredentials(ctx, account.ID)
	if err != nil {
		return nil, apperrors.FromDatabase("list passkeys", err)
	}
	if len(records) == 0 {
		return nil, apperrors.New(apperrors.CodePasskeyNotFound, "no passkey configured")
	}

	wu := &ceremonyUser{id: account.ID, name: account.Username, credentials: toWebAuthnCredentials(records)}
	assertion, session, err := e.provider.BeginLogin(wu)
	if err != nil {
		return nil, apperrors.FromWebAuthn("begin login", err)
	}
	if err := e.ceremonies.Put(ctx, ceremony.LoginKey(username), ceremony.State{
		Kind:     ceremony.KindLogin,
		UserID:   account.ID,
		Username: account.Username,
		Session:  *session,
	}, e.sessionTTL); err != nil {
		return nil, apperrors.FromDatabase("store ceremony state", err)
	}
	e.recordStart(string(ceremony.KindLogin))
	return assertion, nil
}

// FinishAuthentication verifies an assertion and issues a session token.
//
// Verification failures are audited with their reason and returned as a
// single generic error.
func (e *Engine) FinishAuthentication(ctx context.Context, username string, response []byte) (Login, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return Login{}, apperrors.New(apperrors.CodeRequestInvalid, "username is required")
	}
	if len(response) == 0 {
		return Login{}, apperrors.New(apperrors.CodeRequestInvalid, "credential response is required")
	}
	state, err := e.takeCeremony(ctx, ceremony.LoginKey(username))
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeCeremonyExpired) {
			e.audit.Failure(ctx, "", audit.MethodPasskey, reasonSessionExpired)
		}
		return Login{}, err
	}
	if state.Kind != ceremony.KindLogin {
		return Login{}, apperrors.New(apperrors.CodeCeremonyExpired, "ceremony kind mismatch")
	}

	parsed, err := e.parser.ParseCredentialRequestResponseBytes(response)
	if err != nil {
		return Login{}, e.rejectLogin(ctx, state.UserID, reasonMalformedResponse, err)
	}

	account, err := e.store.GetUser(ctx, state.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Login{}, e.rejectLogin(ctx, state.UserID, reasonUnknownUser, err)
		}
		return Login{}, apperrors.FromDatabase("load user", err)
	}
	records, err := e.store.ListPasskeyCredentials(ctx, account.ID)
	if err != nil {
		return Login{}, apperrors.FromDatabase("list passkeys", err)
	}
	wu := &ceremonyUser{id: account.ID, name: account.Username, credentials: toWebAuthnCredentials(records)}
	if _, err := e.provider.ValidateLogin(wu, state.Session, parsed); err != nil {
		return Login{}, e.rejectLogin(ctx, account.ID, reasonAssertionInvalid, err)
	}

	if err := account.CanSignIn(); err != nil {
		reason := reasonInactive
		if apperrors.IsCode(err, apperrors.CodeAccountNotVerified) {
			reason = reasonNotVerified
		}
		e.audit.Failure(ctx, account.ID, audit.MethodPasskey, reason)
		return Login{}, err
	}

	stored, ok := findCredential(records, parsed.RawID)
	if !ok {
		return Login{}, e.rejectLogin(ctx, account.ID, reasonUnknownCredential, nil)
	}
	asserted := parsed.Response.AuthenticatorData.Counter
	if asserted < stored.SignCount {
		return Login{}, e.rejectLogin(ctx, account.ID, reasonCounterRegressed,
			fmt.Errorf("asserted counter %d below stored %d", asserted, stored.SignCount))
	}

	now := e.clock().UTC()
	if err := e.store.UpdatePasskeyUsage(ctx, stored.CredentialID, asserted, now); err != nil {
		if errors.Is(err, storage.ErrCounterRegressed) {
			return Login{}, e.rejectLogin(ctx, account.ID, reasonCounterRegressed, err)
		}
		return Login{}, apperrors.FromDatabase("update passkey usage", err)
	}

	token, expiresAt, err := e.tokens.Issue(ctx, account.ID)
	if err != nil {
		return Login{}, err
	}
	if err := e.store.TouchLastLogin(ctx, account.ID, now); err != nil {
		e.logf("touch last login for user %s: %v", account.ID, err)
	}
	e.audit.Success(ctx, account.ID, audit.MethodPasskey)
	return Login{User: account, Token: token, ExpiresAt: expiresAt}, nil
}

func (e *Engine) rejectLogin(ctx context.Context, userID, reason string, cause error) error {
	e.audit.Failure(ctx, userID, audit.MethodPasskey, reason)
	return apperrors.Wrap(apperrors.CodePasskeyVerification, "passkey login rejected: "+reason, cause)
}

func (e *Engine) takeCeremony(ctx context.Context, key string) (ceremony.State, error) {
	state, err := e.ceremonies.Take(ctx, key)
	if err != nil {
		if errors.Is(err, ceremony.ErrNotFound) {
			return ceremony.State{}, apperrors.New(apperrors.CodeCeremonyExpired, "ceremony state missing or expired")
		}
		return ceremony.State{}, apperrors.FromDatabase("take ceremony state", err)
	}
	return state, nil
}

func (e *Engine) ensureAvailable(ctx context.Context, username, emailAddr string) error {
	if _, err := e.store.GetUserByUsername(ctx, username); err == nil {
		return apperrors.New(apperrors.CodeUsernameTaken, "username taken")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return apperrors.FromDatabase("load user by username", err)
	}
	if _, err := e.store.GetUserByEmail(ctx, emailAddr); err == nil {
		return apperrors.New(apperrors.CodeEmailTaken, "email taken")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return apperrors.FromDatabase("load user by email", err)
	}
	return nil
}

func (e *Engine) recordStart(kind string) {
	if e.metrics != nil {
		e.metrics.RecordCeremonyStarted(kind)
	}
}

func userLookupError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.New(apperrors.CodeUserNotFound, "user not found")
	}
	return apperrors.FromDatabase("load user", err)
}

func credentialWriteError(err error) error {
	if errors.Is(err, storage.ErrCredentialExists) {
		return apperrors.Wrap(apperrors.CodePasskeyVerification, "credential already registered", err)
	}
	return apperrors.FromDatabase("store passkey", err)
}
