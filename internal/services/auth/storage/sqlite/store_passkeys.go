package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ledgerly/ledgerly/internal/services/auth/storage"
)

const passkeyColumns = `id, user_id, credential_id, public_key, sign_count, transports, backup_eligible, backup_state, attestation_type, aaguid, created_at, last_used_at`

// PutPasskeyCredential stores a WebAuthn credential for an existing user.
func (s *Store) PutPasskeyCredential(ctx context.Context, credential storage.PasskeyCredential) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return insertPasskey(ctx, s.sqlDB, credential)
}

// GetPasskeyCredential fetches a credential by its raw WebAuthn id.
func (s *Store) GetPasskeyCredential(ctx context.Context, credentialID []byte) (storage.PasskeyCredential, error) {
	if err := s.ready(ctx); err != nil {
		return storage.PasskeyCredential{}, err
	}
	if len(credentialID) == 0 {
		return storage.PasskeyCredential{}, fmt.Errorf("credential id is required")
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+passkeyColumns+` FROM passkey_credentials WHERE credential_id = ?`, credentialID)
	credential, err := scanPasskey(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.PasskeyCredential{}, storage.ErrNotFound
		}
		return storage.PasskeyCredential{}, fmt.Errorf("get passkey: %w", err)
	}
	return credential, nil
}

// ListPasskeyCredentials returns the passkeys of a user, oldest first.
func (s *Store) ListPasskeyCredentials(ctx context.Context, userID string) ([]storage.PasskeyCredential, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+passkeyColumns+` FROM passkey_credentials WHERE user_id = ? ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list passkeys: %w", err)
	}
	defer rows.Close()

	var credentials []storage.PasskeyCredential
	for rows.Next() {
		credential, err := scanPasskey(rows)
		if err != nil {
			return nil, fmt.Errorf("scan passkey: %w", err)
		}
		credentials = append(credentials, credential)
	}
	return credentials, rows.Err()
}

// UpdatePasskeyUsage stores a new signature counter unless it would move the
// stored counter backwards.
func (s *Store) UpdatePasskeyUsage(ctx context.Context, credentialID []byte, signCount uint32, usedAt time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE passkey_credentials SET sign_count = ?, last_used_at = ?
		 WHERE credential_id = ? AND sign_count <= ?`,
		int64(signCount), toMillis(usedAt), credentialID, int64(signCount),
	)
	if err != nil {
		return fmt.Errorf("update passkey usage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.GetPasskeyCredential(ctx, credentialID); err != nil {
		return err
	}
	return storage.ErrCounterRegressed
}

func insertPasskey(ctx context.Context, exec execContexter, credential storage.PasskeyCredential) error {
	if strings.TrimSpace(credential.ID) == "" {
		return fmt.Errorf("passkey id is required")
	}
	if strings.TrimSpace(credential.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if len(credential.CredentialID) == 0 {
		return fmt.Errorf("credential id is required")
	}
	if len(credential.PublicKey) == 0 {
		return fmt.Errorf("public key is required")
	}
	transports := credential.Transports
	if transports == nil {
		transports = []string{}
	}
	transportsJSON, err := json.Marshal(transports)
	if err != nil {
		return fmt.Errorf("encode transports: %w", err)
	}

	_, err = exec.ExecContext(ctx,
		`INSERT INTO passkey_credentials (`+passkeyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		credential.ID, credential.UserID, credential.CredentialID, credential.PublicKey,
		int64(credential.SignCount), string(transportsJSON),
		boolToInt(credential.BackupEligible), boolToInt(credential.BackupState),
		credential.AttestationType, credential.AAGUID,
		toMillis(credential.CreatedAt), nullMillis(credential.LastUsedAt),
	)
	if isUniqueViolation(err, "passkey_credentials.credential_id") {
		return storage.ErrCredentialExists
	}
	if err != nil {
		return fmt.Errorf("insert passkey: %w", err)
	}
	return nil
}

func scanPasskey(row rowScanner) (storage.PasskeyCredential, error) {
	var (
		credential     storage.PasskeyCredential
		signCount      int64
		transportsJSON string
		backupEligible int
		backupState    int
		createdAt      int64
		lastUsed       sql.NullInt64
	)
	if err := row.Scan(
		&credential.ID, &credential.UserID, &credential.CredentialID, &credential.PublicKey,
		&signCount, &transportsJSON, &backupEligible, &backupState,
		&credential.AttestationType, &credential.AAGUID, &createdAt, &lastUsed,
	); err != nil {
		return storage.PasskeyCredential{}, err
	}
	if err := json.Unmarshal([]byte(transportsJSON), &credential.Transports); err != nil {
		return storage.PasskeyCredential{}, fmt.Errorf("decode transports: %w", err)
	}
	credential.SignCount = uint32(signCount)
	credential.BackupEligible = backupEligible == 1
	credential.BackupState = backupState == 1
	credential.CreatedAt = fromMillis(createdAt)
	credential.LastUsedAt = fromNullMillis(lastUsed)
	return credential, nil
}
