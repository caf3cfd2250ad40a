// Package auth is the session authentication core for Ledgerly.
//
// It owns credentials (passwords and passkeys), issues and revokes session
// tokens, and answers token verification for downstream services.
//
// Subpackages:
//   - app: server wiring and lifecycle
//   - api/grpc/auth: TokenService (VerifyToken) handler
//   - api/httpapi: chi HTTP edge for registration, login and passkeys
//   - account: registration, activation, login and password flows
//   - passkey: WebAuthn ceremonies
//   - token: JWT issue, verify and revoke
//   - password: argon2id hashing and policy
//   - audit: authentication attempt log
//   - ceremony: short-lived ceremony state (memory or Redis)
//   - storage: persistence interfaces and the SQLite implementation
package auth
