package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ledgerly/ledgerly/internal/services/auth/storage"
)

// PutAuditEntry appends an authentication attempt.
func (s *Store) PutAuditEntry(ctx context.Context, entry storage.AuditEntry) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(entry.ID) == "" {
		return fmt.Errorf("audit entry id is required")
	}
	// Attempts that never resolved to an account are stored without a user.
	userID := sql.NullString{String: entry.UserID, Valid: strings.TrimSpace(entry.UserID) != ""}
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode audit metadata: %w", err)
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO authentication_audit_log (id, user_id, method, success, ip, user_agent, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, userID, entry.Method, boolToInt(entry.Success),
		entry.IP, entry.UserAgent, string(metadataJSON), toMillis(entry.CreatedAt),
	); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListAuditEntries returns up to limit entries for a user, newest first.
func (s *Store) ListAuditEntries(ctx context.Context, userID string, limit int) ([]storage.AuditEntry, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, user_id, method, success, ip, user_agent, metadata, created_at
		 FROM authentication_audit_log WHERE user_id = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []storage.AuditEntry
	for rows.Next() {
		var (
			entry        storage.AuditEntry
			ownerID      sql.NullString
			success      int
			metadataJSON string
			createdAt    int64
		)
		if err := rows.Scan(&entry.ID, &ownerID, &entry.Method, &success,
			&entry.IP, &entry.UserAgent, &metadataJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &entry.Metadata); err != nil {
			return nil, fmt.Errorf("decode audit metadata: %w", err)
		}
		entry.UserID = ownerID.String
		entry.Success = success == 1
		entry.CreatedAt = fromMillis(createdAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
