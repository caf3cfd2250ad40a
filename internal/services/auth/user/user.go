package user

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/ledgerly/ledgerly/internal/platform/errors"
	"github.com/ledgerly/ledgerly/internal/platform/id"
)

// MinUsernameLength is the shortest accepted username.
const MinUsernameLength = 4

const maxUsernameLength = 64

var (
	// ErrInvalidUsername indicates a username outside the accepted length.
	ErrInvalidUsername = apperrors.WithMetadata(apperrors.CodeUsernameInvalid, "username length out of range",
		map[string]string{"MinLength": strconv.Itoa(MinUsernameLength)})
	// ErrInvalidEmail indicates an address that does not parse as RFC 5322.
	ErrInvalidEmail = apperrors.New(apperrors.CodeEmailInvalid, "email is not a valid address")
)

// Role scopes what an account may do across services.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents an authenticated identity record.
//
// An account signs in with a password, with passkeys, or with both. An empty
// PasswordHash marks a passkey-only account.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Verified     bool
	Active       bool
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  *time.Time
}

// HasPassword reports whether the account can sign in with a password.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}

// CanSignIn reports whether the account is activated and enabled.
func (u User) CanSignIn() error {
	if !u.Verified {
		return apperrors.New(apperrors.CodeAccountNotVerified, "account not verified")
	}
	if !u.Active {
		return apperrors.New(apperrors.CodeAccountInactive, "account inactive")
	}
	return nil
}

// CreateUserInput describes the metadata needed to create a user.
type CreateUserInput struct {
	Username     string
	Email        string
	PasswordHash string
}

// ValidateUsername enforces the username length bounds.
func ValidateUsername(s string) error {
	n := utf8.RuneCountInString(s)
	if n < MinUsernameLength || n > maxUsernameLength {
		return ErrInvalidUsername
	}
	return nil
}

// NormalizeEmail parses s as a bare RFC 5322 address and lowercases it.
// Display-name forms such as "Alice <a@b.c>" are rejected.
func NormalizeEmail(s string) (string, error) {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || !strings.Contains(addr.Address, "@") {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

// CreateUser creates a new, not yet activated user from validated input.
func CreateUser(input CreateUserInput, now func() time.Time, idGenerator func() (string, error)) (User, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateUserInput(input)
	if err != nil {
		return User{}, err
	}

	userID, err := idGenerator()
	if err != nil {
		return User{}, fmt.Errorf("generate user id: %w", err)
	}

	createdAt := now().UTC()
	return User{
		ID:           userID,
		Username:     normalized.Username,
		Email:        normalized.Email,
		PasswordHash: normalized.PasswordHash,
		Active:       true,
		Role:         RoleUser,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}, nil
}

// NormalizeCreateUserInput trims and normalizes input before validation.
func NormalizeCreateUserInput(input CreateUserInput) (CreateUserInput, error) {
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	if err := ValidateUsername(input.Username); err != nil {
		return CreateUserInput{}, err
	}
	email, err := NormalizeEmail(input.Email)
	if err != nil {
		return CreateUserInput{}, err
	}
	input.Email = email
	return input, nil
}
