package passkey

import (
	"bytes"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/ledgerly/ledgerly/internal/services/auth/storage"
)

// provider is the subset of *webauthn.WebAuthn the engine drives.
type provider interface {
	BeginRegistration(user webauthn.User, opts ...webauthn.RegistrationOption) (*protocol.CredentialCreation, *webauthn.SessionData, error)
	CreateCredential(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error)
	BeginLogin(user webauthn.User, opts ...webauthn.LoginOption) (*protocol.CredentialAssertion, *webauthn.SessionData, error)
	ValidateLogin(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialAssertionData) (*webauthn.Credential, error)
}

type parser interface {
	ParseCredentialCreationResponseBytes(data []byte) (*protocol.ParsedCredentialCreationData, error)
	ParseCredentialRequestResponseBytes(data []byte) (*protocol.ParsedCredentialAssertionData, error)
}

type defaultParser struct{}

func (defaultParser) ParseCredentialCreationResponseBytes(data []byte) (*protocol.ParsedCredentialCreationData, error) {
	return protocol.ParseCredentialCreationResponseBytes(data)
}

func (defaultParser) ParseCredentialRequestResponseBytes(data []byte) (*protocol.ParsedCredentialAssertionData, error) {
	return protocol.ParseCredentialRequestResponseBytes(data)
}

// ceremonyUser adapts an account, existing or pending, to webauthn.User.
type ceremonyUser struct {
	id          string
	name        string
	credentials []webauthn.Credential
}

func (u *ceremonyUser) WebAuthnID() []byte {
	return []byte(u.id)
}

func (u *ceremonyUser) WebAuthnName() string {
	return u.name
}

func (u *ceremonyUser) WebAuthnDisplayName() string {
	return u.name
}

func (u *ceremonyUser) WebAuthnCredentials() []webauthn.Credential {
	return u.credentials
}

func toWebAuthnCredentials(records []storage.PasskeyCredential) []webauthn.Credential {
	if len(records) == 0 {
		return nil
	}
	credentials := make([]webauthn.Credential, 0, len(records))
	for _, record := range records {
		transports := make([]protocol.AuthenticatorTransport, 0, len(record.Transports))
		for _, transport := range record.Transports {
			transports = append(transports, protocol.AuthenticatorTransport(transport))
		}
		credentials = append(credentials, webauthn.Credential{
			ID:              record.CredentialID,
			PublicKey:       record.PublicKey,
			AttestationType: record.AttestationType,
			Transport:       transports,
			Flags: webauthn.CredentialFlags{
				UserPresent:    true,
				BackupEligible: record.BackupEligible,
				BackupState:    record.BackupState,
			},
			Authenticator: webauthn.Authenticator{
				AAGUID:    record.AAGUID,
				SignCount: record.SignCount,
			},
		})
	}
	return credentials
}

func fromWebAuthnCredential(id, userID string, credential *webauthn.Credential) storage.PasskeyCredential {
	transports := make([]string, 0, len(credential.Transport))
	for _, transport := range credential.Transport {
		transports = append(transports, string(transport))
	}
	return storage.PasskeyCredential{
		ID:              id,
		UserID:          userID,
		CredentialID:    credential.ID,
		PublicKey:       credential.PublicKey,
		Transports:      transports,
		BackupEligible:  credential.Flags.BackupEligible,
		BackupState:     credential.Flags.BackupState,
		AttestationType: credential.AttestationType,
		AAGUID:          credential.Authenticator.AAGUID,
	}
}

func findCredential(records []storage.PasskeyCredential, credentialID []byte) (storage.PasskeyCredential, bool) {
	for _, record := range records {
		if bytes.Equal(record.CredentialID, credentialID) {
			return record, true
		}
	}
	return storage.PasskeyCredential{}, false
}
