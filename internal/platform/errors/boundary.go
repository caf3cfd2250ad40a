package errors

// External failures are wrapped once at the boundary where they enter the
// domain. Each constructor names the failing subsystem so logs stay
// searchable while clients only ever see CodeInternal.

// FromDatabase wraps a storage driver failure.
func FromDatabase(op string, cause error) *Error {
	return Wrap(CodeInternal, "database: "+op, cause)
}

// FromCrypto wraps a hashing or signing failure.
func FromCrypto(op string, cause error) *Error {
	return Wrap(CodeInternal, "crypto: "+op, cause)
}

// FromWebAuthn wraps a WebAuthn library failure that is not a verification
// outcome, such as building ceremony options.
func FromWebAuthn(op string, cause error) *Error {
	return Wrap(CodeInternal, "webauthn: "+op, cause)
}

// FromSerialization wraps an encode or decode failure of persisted state.
func FromSerialization(op string, cause error) *Error {
	return Wrap(CodeInternal, "serialization: "+op, cause)
}

// FromTransport wraps a failure calling a collaborator service.
func FromTransport(op string, cause error) *Error {
	return Wrap(CodeInternal, "transport: "+op, cause)
}
