// Package errors provides structured error handling with i18n support.
package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code. It doubles as the translation key
// for user-facing messages.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"
	// CodeInternal is the generic internal failure surfaced to clients.
	CodeInternal Code = "INTERNAL"

	// Request errors
	CodeRequestInvalid Code = "REQUEST_INVALID"
	CodeCaptchaFailed  Code = "CAPTCHA_FAILED"

	// User errors
	CodeUsernameInvalid Code = "USERNAME_INVALID"
	CodeEmailInvalid    Code = "EMAIL_INVALID"
	CodeUsernameTaken   Code = "USERNAME_TAKEN"
	CodeEmailTaken      Code = "EMAIL_TAKEN"
	CodeUserNotFound    Code = "USER_NOT_FOUND"

	// Password errors
	CodePasswordTooShort       Code = "PASSWORD_TOO_SHORT"
	CodePasswordMissingUpper   Code = "PASSWORD_MISSING_UPPERCASE"
	CodePasswordMissingLower   Code = "PASSWORD_MISSING_LOWERCASE"
	CodePasswordMissingDigit   Code = "PASSWORD_MISSING_DIGIT"
	CodePasswordMissingSpecial Code = "PASSWORD_MISSING_SPECIAL"
	CodePasswordReused         Code = "PASSWORD_REUSED"
	CodePasswordNotSet         Code = "PASSWORD_NOT_SET"

	// Credential errors
	CodeInvalidCredentials  Code = "INVALID_CREDENTIALS"
	CodeAccountNotVerified  Code = "ACCOUNT_NOT_VERIFIED"
	CodeAccountInactive     Code = "ACCOUNT_INACTIVE"
	CodeTokenMissing        Code = "TOKEN_MISSING"
	CodeTokenInvalid        Code = "TOKEN_INVALID"
	CodeTokenExpired        Code = "TOKEN_EXPIRED"
	CodeLinkNotFound        Code = "LINK_NOT_FOUND"
	CodeLinkExpired         Code = "LINK_EXPIRED"
	CodeCeremonyExpired     Code = "PASSKEY_SESSION_EXPIRED"
	CodePasskeyNotFound     Code = "PASSKEY_NOT_CONFIGURED"
	CodePasskeyVerification Code = "PASSKEY_VERIFICATION_FAILED"
)

// Kind groups codes into the taxonomy shared by every transport.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindConflict
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Kind returns the taxonomy kind of the code.
func (c Code) Kind() Kind {
	switch c {
	case CodeRequestInvalid,
		CodeCaptchaFailed,
		CodeUsernameInvalid,
		CodeEmailInvalid,
		CodePasswordTooShort,
		CodePasswordMissingUpper,
		CodePasswordMissingLower,
		CodePasswordMissingDigit,
		CodePasswordMissingSpecial,
		CodePasswordReused,
		CodeCeremonyExpired:
		return KindValidation

	case CodeUserNotFound,
		CodeLinkNotFound,
		CodeLinkExpired,
		CodePasskeyNotFound:
		return KindNotFound

	case CodeInvalidCredentials,
		CodeAccountNotVerified,
		CodeAccountInactive,
		CodeTokenMissing,
		CodeTokenInvalid,
		CodeTokenExpired,
		CodePasskeyVerification,
		CodePasswordNotSet:
		return KindUnauthorized

	case CodeUsernameTaken,
		CodeEmailTaken:
		return KindConflict

	default:
		return KindInternal
	}
}

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeAccountNotVerified, CodeAccountInactive:
		return codes.PermissionDenied
	case CodeLinkExpired:
		return codes.FailedPrecondition
	}
	switch c.Kind() {
	case KindValidation:
		return codes.InvalidArgument
	case KindNotFound:
		return codes.NotFound
	case KindUnauthorized:
		return codes.Unauthenticated
	case KindConflict:
		return codes.AlreadyExists
	default:
		return codes.Internal
	}
}

// HTTPStatus maps domain codes to HTTP status codes.
//
// Conflicts are reported as 400 so clients cannot tell a duplicate apart from
// other input problems by status alone. Missing users are 404, while links
// and passkey lookups stay 400.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeAccountNotVerified, CodeAccountInactive:
		return http.StatusForbidden
	case CodeUserNotFound:
		return http.StatusNotFound
	}
	switch c.Kind() {
	case KindValidation, KindNotFound, KindConflict:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
