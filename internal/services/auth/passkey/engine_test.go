package passkey

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	apperrors "github.com/ledgerly/ledgerly/internal/platform/errors"
	"github.com/ledgerly/ledgerly/internal/services/auth/ceremony"
	"github.com/ledgerly/ledgerly/internal/services/auth/email"
	"github.com/ledgerly/ledgerly/internal/services/auth/storage"
	"github.com/ledgerly/ledgerly/internal/services/auth/storage/sqlite"
	"github.com/ledgerly/ledgerly/internal/services/auth/user"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeProvider struct {
	credential    *webauthn.Credential
	createErr     error
	validateErr   error
	beginLogins   int
	lastExclusion int
	challenges    int
}

func (f *fakeProvider) session(u webauthn.User) *webauthn.SessionData {
	f.challenges++
	return &webauthn.SessionData{
		Challenge: fmt.Sprintf("challenge-%d", f.challenges),
		UserID:    u.WebAuthnID(),
	}
}

func (f *fakeProvider) BeginRegistration(u webauthn.User, opts ...webauthn.RegistrationOption) (*protocol.CredentialCreation, *webauthn.SessionData, error) {
	var options protocol.PublicKeyCredentialCreationOptions
	for _, opt := range opts {
		opt(&options)
	}
	f.lastExclusion = len(options.CredentialExcludeList)
	return &protocol.CredentialCreation{}, f.session(u), nil
}

func (f *fakeProvider) CreateCredential(webauthn.User, webauthn.SessionData, *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	credential := *f.credential
	return &credential, nil
}

func (f *fakeProvider) BeginLogin(u webauthn.User, _ ...webauthn.LoginOption) (*protocol.CredentialAssertion, *webauthn.SessionData, error) {
	f.beginLogins++
	return &protocol.CredentialAssertion{}, f.session(u), nil
}

func (f *fakeProvider) ValidateLogin(webauthn.User, webauthn.SessionData, *protocol.ParsedCredentialAssertionData) (*webauthn.Credential, error) {
	if f.validateErr != nil {
		return nil, f.validateErr
	}
	return f.credential, nil
}

type fakeParser struct {
	rawID   []byte
	counter uint32
}

func (f *fakeParser) ParseCredentialCreationResponseBytes(data []byte) (*protocol.ParsedCredentialCreationData, error) {
	if string(data) == "malformed" {
		return nil, errors.New("malformed")
	}
	return &protocol.ParsedCredentialCreationData{}, nil
}

func (f *fakeParser) ParseCredentialRequestResponseBytes(data []byte) (*protocol.ParsedCredentialAssertionData, error) {
	if string(data) == "malformed" {
		return nil, errors.New("malformed")
	}
	parsed := &protocol.ParsedCredentialAssertionData{}
	parsed.RawID = f.rawID
	parsed.Response.AuthenticatorData.Counter = f.counter
	return parsed, nil
}

type fakeTokens struct {
	issued []string
}

func (f *fakeTokens) Issue(_ context.Context, userID string) (string, time.Time, error) {
	f.issued = append(f.issued, userID)
	return "token-for-" + userID, baseTime.Add(24 * time.Hour), nil
}

type auditRecord struct {
	userID  string
	success bool
	reason  string
}

type recordingAuditor struct {
	mu      sync.Mutex
	records []auditRecord
}

func (r *recordingAuditor) Success(_ context.Context, userID, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, auditRecord{userID: userID, success: true})
}

func (r *recordingAuditor) Failure(_ context.Context, userID, _, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, auditRecord{userID: userID, reason: reason})
}

func (r *recordingAuditor) last() auditRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.records) == 0 {
		return auditRecord{}
	}
	return r.records[len(r.records)-1]
}

type recordingMailer struct {
	activations []email.Message
	err         error
}

func (m *recordingMailer) SendActivationEmail(_ context.Context, msg email.Message) error {
	m.activations = append(m.activations, msg)
	return m.err
}

func (m *recordingMailer) SendPasswordResetEmail(context.Context, email.Message) error {
	return nil
}

type engineFixture struct {
	engine   *Engine
	store    *sqlite.Store
	provider *fakeProvider
	parser   *fakeParser
	tokens   *fakeTokens
	audit    *recordingAuditor
	mailer   *recordingMailer
}

func newFixture(t *testing.T) *engineFixture {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	f := &engineFixture{
		store: store,
		provider: &fakeProvider{credential: &webauthn.Credential{
			ID:              []byte("cred-1"),
			PublicKey:       []byte("public-key"),
			AttestationType: "none",
			Transport:       []protocol.AuthenticatorTransport{protocol.Internal},
			Flags:           webauthn.CredentialFlags{UserPresent: true, BackupEligible: true},
		}},
		parser: &fakeParser{rawID: []byte("cred-1")},
		tokens: &fakeTokens{},
		audit:  &recordingAuditor{},
		mailer: &recordingMailer{},
	}
	f.engine = newEngine(Deps{
		Store:      store,
		Ceremonies: ceremony.NewMemoryStore(),
		Tokens:     f.tokens,
		Audit:      f.audit,
		Mailer:     f.mailer,
		ActivationLink: func(linkID string) string {
			return linkID
		},
	})
	f.engine.provider = f.provider
	f.engine.parser = f.parser
	f.engine.clock = func() time.Time { return baseTime }
	n := 0
	f.engine.idGenerator = func() (string, error) {
		n++
		return fmt.Sprintf("id-%d", n), nil
	}
	return f
}

// register runs a full new-account registration and returns the user.
func (f *engineFixture) register(t *testing.T, username, emailAddr string) user.User {
	t.Helper()
	ctx := context.Background()
	opts, err := f.engine.StartRegistration(ctx, username, emailAddr)
	if err != nil {
		t.Fatalf("start registration: %v", err)
	}
	reg, err := f.engine.FinishRegistration(ctx, opts.SessionID, []byte("attestation"))
	if err != nil {
		t.Fatalf("finish registration: %v", err)
	}
	return reg.User
}

// activate consumes the most recent activation link.
func (f *engineFixture) activate(t *testing.T) {
	t.Helper()
	if len(f.mailer.activations) == 0 {
		t.Fatal("no activation email sent")
	}
	link := f.mailer.activations[len(f.mailer.activations)-1].Link
	if _, err := f.store.ActivateUser(context.Background(), link, baseTime.Add(time.Minute)); err != nil {
		t.Fatalf("activate: %v", err)
	}
}

func TestNewEngineRequiresDeps(t *testing.T) {
	if _, err := NewEngine(Deps{}); err == nil {
		t.Fatal("expected error for missing deps")
	}
}

func TestRegistrationCreatesUnverifiedPasskeyAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	opts, err := f.engine.StartRegistration(ctx, " Alice ", "alice@example.com")
	if err != nil {
		t.Fatalf("start registration: %v", err)
	}
	if opts.SessionID == "" || opts.Options == nil {
		t.Fatalf("options = %+v", opts)
	}

	reg, err := f.engine.FinishRegistration(ctx, opts.SessionID, []byte("attestation"))
	if err != nil {
		t.Fatalf("finish registration: %v", err)
	}
	if !reg.Created {
		t.Fatal("expected a new account")
	}

	stored, err := f.store.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if stored.Verified || stored.HasPassword() {
		t.Fatalf("stored user = %+v, want unverified without password", stored)
	}
	if stored.Email != "alice@example.com" {
		t.Fatalf("email = %q", stored.Email)
	}

	credentials, err := f.store.ListPasskeyCredentials(ctx, stored.ID)
	if err != nil {
		t.Fatalf("list passkeys: %v", err)
	}
	if len(credentials) != 1 {
		t.Fatalf("credentials = %d, want 1", len(credentials))
	}
	if credentials[0].SignCount != 0 || !credentials[0].BackupEligible {
		t.Fatalf("credential = %+v", credentials[0])
	}
	if len(credentials[0].Transports) != 1 || credentials[0].Transports[0] != "internal" {
		t.Fatalf("transports = %v", credentials[0].Transports)
	}

	if len(f.mailer.activations) != 1 || f.mailer.activations[0].Email != "alice@example.com" {
		t.Fatalf("activations = %+v", f.mailer.activations)
	}
}

func TestFinishRegistrationIsSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	opts, err := f.engine.StartRegistration(ctx, "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("start registration: %v", err)
	}
	if _, err := f.engine.FinishRegistration(ctx, opts.SessionID, []byte("attestation")); err != nil {
		t.Fatalf("finish registration: %v", err)
	}
	_, err = f.engine.FinishRegistration(ctx, opts.SessionID, []byte("attestation"))
	if !apperrors.IsCode(err, apperrors.CodeCeremonyExpired) {
		t.Fatalf("second finish err = %v, want %s", err, apperrors.CodeCeremonyExpired)
	}
}

func TestFinishRegistrationUnknownSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.FinishRegistration(context.Background(), "missing", []byte("attestation"))
	if !apperrors.IsCode(err, apperrors.CodeCeremonyExpired) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeCeremonyExpired)
	}
	if apperrors.GetCode(err).HTTPStatus() != 400 {
		t.Fatalf("status = %d, want 400", apperrors.GetCode(err).HTTPStatus())
	}
}

func TestStartRegistrationRejectsTakenIdentity(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "alice@example.com")

	_, err := f.engine.StartRegistration(context.Background(), "alice", "other@example.com")
	if !apperrors.IsCode(err, apperrors.CodeUsernameTaken) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeUsernameTaken)
	}
	_, err = f.engine.StartRegistration(context.Background(), "bobby", "ALICE@example.com")
	if !apperrors.IsCode(err, apperrors.CodeEmailTaken) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeEmailTaken)
	}
}

func TestConcurrentRegistrationOfSameUsernameConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.engine.StartRegistration(ctx, "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("start first: %v", err)
	}
	second, err := f.engine.StartRegistration(ctx, "alice", "alice2@example.com")
	if err != nil {
		t.Fatalf("start second: %v", err)
	}
	if _, err := f.engine.FinishRegistration(ctx, first.SessionID, []byte("attestation")); err != nil {
		t.Fatalf("finish first: %v", err)
	}
	f.provider.credential.ID = []byte("cred-2")
	_, err = f.engine.FinishRegistration(ctx, second.SessionID, []byte("attestation"))
	if !apperrors.IsCode(err, apperrors.CodeUsernameTaken) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeUsernameTaken)
	}
}

func TestStartRegistrationValidatesInput(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.StartRegistration(context.Background(), "abc", "abc@example.com")
	if !apperrors.IsCode(err, apperrors.CodeUsernameInvalid) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeUsernameInvalid)
	}
	_, err = f.engine.StartRegistration(context.Background(), "alice", "not-an-email")
	if !apperrors.IsCode(err, apperrors.CodeEmailInvalid) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeEmailInvalid)
	}
}

func TestFinishRegistrationVerificationFailure(t *testing.T) {
	f := newFixture(t)
	f.provider.createErr = errors.New("bad attestation")
	opts, err := f.engine.StartRegistration(context.Background(), "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	_, err = f.engine.FinishRegistration(context.Background(), opts.SessionID, []byte("attestation"))
	if !apperrors.IsCode(err, apperrors.CodePasskeyVerification) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodePasskeyVerification)
	}
	if _, err := f.store.GetUserByUsername(context.Background(), "alice"); err == nil {
		t.Fatal("expected no account after failed verification")
	}
}

func TestFinishRegistrationEmailFailureKeepsAccount(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("email service down")
	opts, err := f.engine.StartRegistration(context.Background(), "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	_, err = f.engine.FinishRegistration(context.Background(), opts.SessionID, []byte("attestation"))
	if apperrors.KindOf(err) != apperrors.KindInternal {
		t.Fatalf("kind = %v, want internal", apperrors.KindOf(err))
	}
	if _, err := f.store.GetUserByUsername(context.Background(), "alice"); err != nil {
		t.Fatalf("account should survive email failure: %v", err)
	}
}

func TestStartAddPasskeyExcludesExistingCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@example.com")

	opts, err := f.engine.StartAddPasskey(ctx, alice.ID)
	if err != nil {
		t.Fatalf("start add: %v", err)
	}
	if f.provider.lastExclusion != 1 {
		t.Fatalf("exclusions = %d, want 1", f.provider.lastExclusion)
	}

	f.provider.credential.ID = []byte("cred-2")
	reg, err := f.engine.FinishAddPasskey(ctx, alice.ID, opts.SessionID, []byte("attestation"))
	if err != nil {
		t.Fatalf("finish add: %v", err)
	}
	if reg.Created || reg.User.ID != alice.ID {
		t.Fatalf("registration = %+v", reg)
	}
	credentials, err := f.store.ListPasskeyCredentials(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(credentials) != 2 {
		t.Fatalf("credentials = %d, want 2", len(credentials))
	}
}

func TestFinishAddPasskeyRequiresOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@example.com")
	opts, err := f.engine.StartAddPasskey(ctx, alice.ID)
	if err != nil {
		t.Fatalf("start add: %v", err)
	}

	f.provider.credential.ID = []byte("cred-2")
	_, err = f.engine.FinishAddPasskey(ctx, "someone-else", opts.SessionID, []byte("attestation"))
	if !apperrors.IsCode(err, apperrors.CodeCeremonyExpired) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeCeremonyExpired)
	}
}

func TestFinishRegistrationRejectsAddPasskeySession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@example.com")
	opts, err := f.engine.StartAddPasskey(ctx, alice.ID)
	if err != nil {
		t.Fatalf("start add: %v", err)
	}

	_, err = f.engine.FinishRegistration(ctx, opts.SessionID, []byte("attestation"))
	if !apperrors.IsCode(err, apperrors.CodeCeremonyExpired) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeCeremonyExpired)
	}
}

func TestStartAddPasskeyUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.StartAddPasskey(context.Background(), "missing")
	if !apperrors.IsCode(err, apperrors.CodeUserNotFound) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeUserNotFound)
	}
}

func TestStartAuthenticationWithoutPasskey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	passwordUser := user.User{
		ID: "pw-user", Username: "carol", Email: "carol@example.com", PasswordHash: "hash",
		Active: true, Role: user.RoleUser, CreatedAt: baseTime, UpdatedAt: baseTime,
	}
	if err := f.store.CreatePasswordAccount(ctx, passwordUser, activationLink("pw-link", passwordUser.ID)); err != nil {
		t.Fatalf("create password account: %v", err)
	}

	for _, username := range []string{"carol", "nobody"} {
		_, err := f.engine.StartAuthentication(ctx, username)
		if !apperrors.IsCode(err, apperrors.CodePasskeyNotFound) {
			t.Fatalf("%s: err = %v, want %s", username, err, apperrors.CodePasskeyNotFound)
		}
	}
	if f.provider.beginLogins != 0 {
		t.Fatalf("begin logins = %d, want 0", f.provider.beginLogins)
	}
	_, err := f.engine.FinishAuthentication(ctx, "carol", []byte("assertion"))
	if !apperrors.IsCode(err, apperrors.CodeCeremonyExpired) {
		t.Fatalf("finish err = %v, want %s", err, apperrors.CodeCeremonyExpired)
	}
}

func TestAuthenticationIssuesTokenAndAdvancesCounter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@example.com")
	f.activate(t)

	if _, err := f.engine.StartAuthentication(ctx, "alice"); err != nil {
		t.Fatalf("start auth: %v", err)
	}
	f.parser.counter = 5
	login, err := f.engine.FinishAuthentication(ctx, "Alice", []byte("assertion"))
	if err != nil {
		t.Fatalf("finish auth: %v", err)
	}
	if login.Token != "token-for-"+alice.ID || login.User.ID != alice.ID {
		t.Fatalf("login = %+v", login)
	}
	if got := f.audit.last(); !got.success || got.userID != alice.ID {
		t.Fatalf("audit = %+v", got)
	}

	stored, err := f.store.GetPasskeyCredential(ctx, []byte("cred-1"))
	if err != nil {
		t.Fatalf("get passkey: %v", err)
	}
	if stored.SignCount != 5 || stored.LastUsedAt == nil {
		t.Fatalf("stored = %+v", stored)
	}
	account, err := f.store.GetUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if account.LastLoginAt == nil {
		t.Fatal("expected last login to be recorded")
	}
}

func TestAuthenticationAcceptsEqualCounter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "alice@example.com")
	f.activate(t)

	for i := range 2 {
		if _, err := f.engine.StartAuthentication(ctx, "alice"); err != nil {
			t.Fatalf("start auth %d: %v", i, err)
		}
		if _, err := f.engine.FinishAuthentication(ctx, "alice", []byte("assertion")); err != nil {
			t.Fatalf("finish auth %d with zero counter: %v", i, err)
		}
	}
}

func TestAuthenticationRejectsCounterRegression(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@example.com")
	f.activate(t)

	if _, err := f.engine.StartAuthentication(ctx, "alice"); err != nil {
		t.Fatalf("start auth: %v", err)
	}
	f.parser.counter = 10
	if _, err := f.engine.FinishAuthentication(ctx, "alice", []byte("assertion")); err != nil {
		t.Fatalf("finish auth: %v", err)
	}

	if _, err := f.engine.StartAuthentication(ctx, "alice"); err != nil {
		t.Fatalf("start auth: %v", err)
	}
	f.parser.counter = 9
	_, err := f.engine.FinishAuthentication(ctx, "alice", []byte("assertion"))
	if !apperrors.IsCode(err, apperrors.CodePasskeyVerification) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodePasskeyVerification)
	}
	if got := f.audit.last(); got.success || got.reason != reasonCounterRegressed || got.userID != alice.ID {
		t.Fatalf("audit = %+v", got)
	}
	stored, err := f.store.GetPasskeyCredential(ctx, []byte("cred-1"))
	if err != nil {
		t.Fatalf("get passkey: %v", err)
	}
	if stored.SignCount != 10 {
		t.Fatalf("sign count = %d, want 10", stored.SignCount)
	}
	if len(f.tokens.issued) != 1 {
		t.Fatalf("tokens issued = %d, want 1", len(f.tokens.issued))
	}
}

func TestAuthenticationRequiresVerifiedAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "alice@example.com")

	if _, err := f.engine.StartAuthentication(ctx, "alice"); err != nil {
		t.Fatalf("start auth: %v", err)
	}
	_, err := f.engine.FinishAuthentication(ctx, "alice", []byte("assertion"))
	if !apperrors.IsCode(err, apperrors.CodeAccountNotVerified) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeAccountNotVerified)
	}
	if got := f.audit.last(); got.success || got.reason != reasonNotVerified {
		t.Fatalf("audit = %+v", got)
	}
	if len(f.tokens.issued) != 0 {
		t.Fatal("no token should be issued")
	}
}

func TestAuthenticationFailuresAreGeneric(t *testing.T) {
	cases := []struct {
		name     string
		setup    func(*engineFixture)
		response string
		reason   string
	}{
		{
			name:     "malformed response",
			response: "malformed",
			reason:   reasonMalformedResponse,
		},
		{
			name:     "invalid assertion",
			setup:    func(f *engineFixture) { f.provider.validateErr = errors.New("signature mismatch") },
			response: "assertion",
			reason:   reasonAssertionInvalid,
		},
		{
			name:     "unknown credential",
			setup:    func(f *engineFixture) { f.parser.rawID = []byte("other") },
			response: "assertion",
			reason:   reasonUnknownCredential,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.register(t, "alice", "alice@example.com")
			f.activate(t)
			if _, err := f.engine.StartAuthentication(ctx, "alice"); err != nil {
				t.Fatalf("start auth: %v", err)
			}
			if tc.setup != nil {
				tc.setup(f)
			}

			_, err := f.engine.FinishAuthentication(ctx, "alice", []byte(tc.response))
			if !apperrors.IsCode(err, apperrors.CodePasskeyVerification) {
				t.Fatalf("err = %v, want %s", err, apperrors.CodePasskeyVerification)
			}
			if status := apperrors.GetCode(err).HTTPStatus(); status != 401 {
				t.Fatalf("status = %d, want 401", status)
			}
			if got := f.audit.last(); got.success || got.reason != tc.reason {
				t.Fatalf("audit = %+v, want reason %q", got, tc.reason)
			}
			_, message := apperrors.Localize(err, "en-US")
			if message == "" || message == tc.reason {
				t.Fatalf("localized message = %q", message)
			}
		})
	}
}

func TestFinishAuthenticationIsSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "alice@example.com")
	f.activate(t)

	if _, err := f.engine.StartAuthentication(ctx, "alice"); err != nil {
		t.Fatalf("start auth: %v", err)
	}
	if _, err := f.engine.FinishAuthentication(ctx, "alice", []byte("assertion")); err != nil {
		t.Fatalf("finish auth: %v", err)
	}
	_, err := f.engine.FinishAuthentication(ctx, "alice", []byte("assertion"))
	if !apperrors.IsCode(err, apperrors.CodeCeremonyExpired) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeCeremonyExpired)
	}
}

func activationLink(id, userID string) storage.Link {
	return storage.Link{ID: id, UserID: userID, ExpiresAt: baseTime.Add(24 * time.Hour), CreatedAt: baseTime}
}
