// Package ceremony holds transient WebAuthn ceremony state between the
// options and complete steps.
//
// State is single-use: finishing a ceremony takes the state out of the store
// in one operation, so two concurrent completions cannot both observe it.
package ceremony

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
)

// ErrNotFound is returned when no live state exists for a key. Expired state
// is reported the same way.
var ErrNotFound = errors.New("ceremony state not found")

// Kind describes the ceremony purpose.
type Kind string

const (
	// KindRegistration creates a new account around a first passkey.
	KindRegistration Kind = "registration"
	// KindAddPasskey attaches another passkey to an existing account.
	KindAddPasskey Kind = "add_passkey"
	// KindLogin authenticates with an existing passkey.
	KindLogin Kind = "login"
)

// State is the data carried from ceremony start to finish.
type State struct {
	Kind Kind `json:"kind"`
	// UserID is the WebAuthn user handle. For new-account registration it is
	// the id the account will be created with.
	UserID string `json:"user_id"`
	// Username and Email hold the pending account for KindRegistration.
	Username string               `json:"username,omitempty"`
	Email    string               `json:"email,omitempty"`
	Session  webauthn.SessionData `json:"session"`
}

// Store keeps ceremony state for a bounded time.
type Store interface {
	Put(ctx context.Context, key string, state State, ttl time.Duration) error
	Get(ctx context.Context, key string) (State, error)
	// Take returns and removes the state atomically.
	Take(ctx context.Context, key string) (State, error)
}

// LoginKey is the correlation key for a login ceremony.
func LoginKey(username string) string {
	return "login:" + strings.ToLower(strings.TrimSpace(username))
}

// RegistrationKey is the correlation key for a registration ceremony.
func RegistrationKey(sessionID string) string {
	return "registration:" + strings.TrimSpace(sessionID)
}
