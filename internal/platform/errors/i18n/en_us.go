package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeInternal               = "INTERNAL"
	CodeRequestInvalid         = "REQUEST_INVALID"
	CodeCaptchaFailed          = "CAPTCHA_FAILED"
	CodeUsernameInvalid        = "USERNAME_INVALID"
	CodeEmailInvalid           = "EMAIL_INVALID"
	CodeUsernameTaken          = "USERNAME_TAKEN"
	CodeEmailTaken             = "EMAIL_TAKEN"
	CodeUserNotFound           = "USER_NOT_FOUND"
	CodePasswordTooShort       = "PASSWORD_TOO_SHORT"
	CodePasswordMissingUpper   = "PASSWORD_MISSING_UPPERCASE"
	CodePasswordMissingLower   = "PASSWORD_MISSING_LOWERCASE"
	CodePasswordMissingDigit   = "PASSWORD_MISSING_DIGIT"
	CodePasswordMissingSpecial = "PASSWORD_MISSING_SPECIAL"
	CodePasswordReused         = "PASSWORD_REUSED"
	CodePasswordNotSet         = "PASSWORD_NOT_SET"
	CodeInvalidCredentials     = "INVALID_CREDENTIALS"
	CodeAccountNotVerified     = "ACCOUNT_NOT_VERIFIED"
	CodeAccountInactive        = "ACCOUNT_INACTIVE"
	CodeTokenMissing           = "TOKEN_MISSING"
	CodeTokenInvalid           = "TOKEN_INVALID"
	CodeTokenExpired           = "TOKEN_EXPIRED"
	CodeLinkNotFound           = "LINK_NOT_FOUND"
	CodeLinkExpired            = "LINK_EXPIRED"
	CodeCeremonyExpired        = "PASSKEY_SESSION_EXPIRED"
	CodePasskeyNotFound        = "PASSKEY_NOT_CONFIGURED"
	CodePasskeyVerification    = "PASSKEY_VERIFICATION_FAILED"
)

// Success message keys share the catalogs with error codes.
const (
	MessageRegistrationStarted = "REGISTRATION_STARTED"
)

var enUSMessages = map[Code]string{
	CodeInternal:       "An unexpected error occurred",
	CodeRequestInvalid: "The request is malformed",
	CodeCaptchaFailed:  "Captcha verification failed",

	CodeUsernameInvalid: "Username must have at least {{.MinLength}} characters",
	CodeEmailInvalid:    "Email address is not valid",
	CodeUsernameTaken:   "Username is already taken",
	CodeEmailTaken:      "Email is already registered",
	CodeUserNotFound:    "User not found",

	CodePasswordTooShort:       "Password must have at least {{.MinLength}} characters",
	CodePasswordMissingUpper:   "Password must contain an uppercase letter",
	CodePasswordMissingLower:   "Password must contain a lowercase letter",
	CodePasswordMissingDigit:   "Password must contain a digit",
	CodePasswordMissingSpecial: "Password must contain a special character",
	CodePasswordReused:         "Password was used recently, choose a different one",
	CodePasswordNotSet:         "This account signs in with a passkey",

	CodeInvalidCredentials:  "Invalid username or password",
	CodeAccountNotVerified:  "Account is not activated yet",
	CodeAccountInactive:     "Account is disabled",
	CodeTokenMissing:        "Authentication required",
	CodeTokenInvalid:        "Session is invalid",
	CodeTokenExpired:        "Session has expired",
	CodeLinkNotFound:        "Link is invalid or was already used",
	CodeLinkExpired:         "Link has expired",
	CodeCeremonyExpired:     "Passkey session expired, please try again",
	CodePasskeyNotFound:     "No passkey configured for this account",
	CodePasskeyVerification: "Passkey verification failed",

	MessageRegistrationStarted: "Registration received, check your email to activate the account",
}
