// Package passkey runs WebAuthn registration and authentication ceremonies.
//
// Ceremony state lives in a ceremony.Store between the options and complete
// steps and is taken out before the response is verified, so every ceremony
// completes at most once. Credentials are persisted through the auth storage
// contracts and signature counters only move forward.
package passkey
