package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ledgerly/ledgerly/internal/platform/id"
	"github.com/ledgerly/ledgerly/internal/services/auth/storage"
)

// UpdatePassword sets the user's hash, appends it to history and prunes
// history to the newest keep entries.
func (s *Store) UpdatePassword(ctx context.Context, userID, hash string, at time.Time, keep int) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return applyPasswordChange(ctx, tx, userID, hash, at, keep)
	})
}

// ResetPassword consumes a reset link and applies the password change in one
// transaction.
func (s *Store) ResetPassword(ctx context.Context, linkID, userID, hash string, at time.Time, keep int) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM forgot_password_links WHERE id = ? AND user_id = ?`, linkID, userID)
		if err != nil {
			return fmt.Errorf("consume reset link: %w", err)
		}
		if err := requireAffected(res, storage.ErrNotFound); err != nil {
			return err
		}
		return applyPasswordChange(ctx, tx, userID, hash, at, keep)
	})
}

// ListPasswordHistory returns up to limit hashes, newest first.
func (s *Store) ListPasswordHistory(ctx context.Context, userID string, limit int) ([]storage.PasswordHistoryEntry, error) {
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
		`SELECT id, user_id, password_hash, created_at FROM password_history
		 WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list password history: %w", err)
	}
	defer rows.Close()

	var entries []storage.PasswordHistoryEntry
	for rows.Next() {
		var (
			entry     storage.PasswordHistoryEntry
			createdAt int64
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.PasswordHash, &createdAt); err != nil {
			return nil, fmt.Errorf("scan password history: %w", err)
		}
		entry.CreatedAt = fromMillis(createdAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// PrunePasswordHistory deletes all but the newest keep entries.
func (s *Store) PrunePasswordHistory(ctx context.Context, userID string, keep int) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return pruneHistory(ctx, s.sqlDB, userID, keep)
}

// PutForgotPasswordLink stores a reset link.
func (s *Store) PutForgotPasswordLink(ctx context.Context, link storage.Link) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return insertLink(ctx, s.sqlDB, "forgot_password_links", link)
}

// GetForgotPasswordLink fetches a reset link without consuming it.
func (s *Store) GetForgotPasswordLink(ctx context.Context, linkID string) (storage.Link, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Link{}, err
	}
	if strings.TrimSpace(linkID) == "" {
		return storage.Link{}, storage.ErrNotFound
	}
	var (
		link      storage.Link
		expiresAt int64
		createdAt int64
	)
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, user_id, expires_at, created_at FROM forgot_password_links WHERE id = ?`, linkID)
	if err := row.Scan(&link.ID, &link.UserID, &expiresAt, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Link{}, storage.ErrNotFound
		}
		return storage.Link{}, fmt.Errorf("get reset link: %w", err)
	}
	link.ExpiresAt = fromMillis(expiresAt)
	link.CreatedAt = fromMillis(createdAt)
	return link, nil
}

// DeleteForgotPasswordLink removes a reset link.
func (s *Store) DeleteForgotPasswordLink(ctx context.Context, linkID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM forgot_password_links WHERE id = ?`, linkID); err != nil {
		return fmt.Errorf("delete reset link: %w", err)
	}
	return nil
}

func applyPasswordChange(ctx context.Context, tx *sql.Tx, userID, hash string, at time.Time, keep int) error {
	if strings.TrimSpace(hash) == "" {
		return fmt.Errorf("password hash is required")
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, toMillis(at), userID,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := requireAffected(res, storage.ErrNotFound); err != nil {
		return err
	}
	if err := insertPasswordHistory(ctx, tx, userID, hash, at); err != nil {
		return err
	}
	return pruneHistory(ctx, tx, userID, keep)
}

func insertPasswordHistory(ctx context.Context, tx execContexter, userID, hash string, at time.Time) error {
	entryID, err := id.NewID()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO password_history (id, user_id, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		entryID, userID, hash, toMillis(at),
	); err != nil {
		return fmt.Errorf("insert password history: %w", err)
	}
	return nil
}

func pruneHistory(ctx context.Context, exec execContexter, userID string, keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := exec.ExecContext(ctx,
		`DELETE FROM password_history WHERE user_id = ? AND id NOT IN (
			SELECT id FROM password_history WHERE user_id = ?
			ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`,
		userID, userID, keep,
	)
	if err != nil {
		return fmt.Errorf("prune password history: %w", err)
	}
	return nil
}

type execContexter interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertLink(ctx context.Context, exec execContexter, table string, link storage.Link) error {
	if strings.TrimSpace(link.ID) == "" {
		return fmt.Errorf("link id is required")
	}
	if strings.TrimSpace(link.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if _, err := exec.ExecContext(ctx,
		`INSERT INTO `+table+` (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		link.ID, link.UserID, toMillis(link.ExpiresAt), toMillis(link.CreatedAt),
	); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}
