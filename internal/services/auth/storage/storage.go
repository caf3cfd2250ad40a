package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ledgerly/ledgerly/internal/services/auth/user"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrExpired indicates a link was found past its expiry. The link is
	// deleted before this error is returned.
	ErrExpired = errors.New("record expired")
	// ErrUsernameTaken indicates the username unique constraint fired.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrEmailTaken indicates the email unique constraint fired.
	ErrEmailTaken = errors.New("email already exists")
	// ErrCredentialExists indicates the credential id is already registered.
	ErrCredentialExists = errors.New("credential already exists")
	// ErrCounterRegressed indicates a signature counter update would move
	// the stored counter backwards.
	ErrCounterRegressed = errors.New("signature counter regressed")
)

// PasswordHistoryEntry is one previously used password hash.
type PasswordHistoryEntry struct {
	ID           string
	UserID       string
	PasswordHash string
	CreatedAt    time.Time
}

// PasskeyCredential stores a WebAuthn credential for a user.
type PasskeyCredential struct {
	ID              string
	UserID          string
	CredentialID    []byte
	PublicKey       []byte
	SignCount       uint32
	Transports      []string
	BackupEligible  bool
	BackupState     bool
	AttestationType string
	AAGUID          []byte
	CreatedAt       time.Time
	LastUsedAt      *time.Time
}

// Token is a persisted session token. Only tokens present in storage are
// accepted; deleting the row revokes the token.
type Token struct {
	Token     string
	UserID    string
	Type      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Link is a single-use activation or password reset link.
type Link struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// AuditEntry records one authentication attempt. UserID is empty when the
// attempt never resolved to an account.
type AuditEntry struct {
	ID        string
	UserID    string
	Method    string
	Success   bool
	IP        string
	UserAgent string
	Metadata  map[string]string
	CreatedAt time.Time
}

// UserStore reads auth user records and applies account state changes.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (user.User, error)
	GetUserByUsername(ctx context.Context, username string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
	// ActivateUser consumes an activation link and marks its user verified.
	// Returns ErrNotFound for unknown or already used links and ErrExpired
	// for stale ones.
	ActivateUser(ctx context.Context, linkID string, now time.Time) (string, error)
}

// AccountStore creates accounts together with their first credential.
type AccountStore interface {
	// CreatePasswordAccount inserts the user, the first history entry and
	// the activation link atomically.
	CreatePasswordAccount(ctx context.Context, u user.User, activation Link) error
	// CreatePasskeyAccount inserts the user, the first passkey and the
	// activation link atomically.
	CreatePasskeyAccount(ctx context.Context, u user.User, credential PasskeyCredential, activation Link) error
}

// PasswordStore persists password hashes, their history and reset links.
type PasswordStore interface {
	// UpdatePassword sets the user's hash, appends it to history and prunes
	// history to the newest keep entries.
	UpdatePassword(ctx context.Context, userID, hash string, at time.Time, keep int) error
	ListPasswordHistory(ctx context.Context, userID string, limit int) ([]PasswordHistoryEntry, error)
	PrunePasswordHistory(ctx context.Context, userID string, keep int) error
	PutForgotPasswordLink(ctx context.Context, link Link) error
	GetForgotPasswordLink(ctx context.Context, linkID string) (Link, error)
	DeleteForgotPasswordLink(ctx context.Context, linkID string) error
	// ResetPassword consumes the link and applies UpdatePassword in one
	// transaction. Returns ErrNotFound when the link is already gone.
	ResetPassword(ctx context.Context, linkID, userID, hash string, at time.Time, keep int) error
}

// PasskeyStore persists WebAuthn credentials.
type PasskeyStore interface {
	PutPasskeyCredential(ctx context.Context, credential PasskeyCredential) error
	GetPasskeyCredential(ctx context.Context, credentialID []byte) (PasskeyCredential, error)
	ListPasskeyCredentials(ctx context.Context, userID string) ([]PasskeyCredential, error)
	// UpdatePasskeyUsage stores a new signature counter and last-used time.
	// The update is refused with ErrCounterRegressed if the stored counter
	// is already greater than signCount.
	UpdatePasskeyUsage(ctx context.Context, credentialID []byte, signCount uint32, usedAt time.Time) error
}

// TokenStore persists issued session tokens.
type TokenStore interface {
	PutToken(ctx context.Context, token Token) error
	GetToken(ctx context.Context, token string) (Token, error)
	DeleteToken(ctx context.Context, token string) error
	DeleteUserTokens(ctx context.Context, userID string) (int64, error)
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// AuditStore persists authentication attempts.
type AuditStore interface {
	PutAuditEntry(ctx context.Context, entry AuditEntry) error
	// ListAuditEntries returns the newest entries first.
	ListAuditEntries(ctx context.Context, userID string, limit int) ([]AuditEntry, error)
}
