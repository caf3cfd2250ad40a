package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ledgerly/ledgerly/internal/services/auth/storage"
)

// PutToken persists an issued token.
func (s *Store) PutToken(ctx context.Context, token storage.Token) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(token.Token) == "" {
		return fmt.Errorf("token is required")
	}
	if strings.TrimSpace(token.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO tokens (token, user_id, token_type, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		token.Token, token.UserID, token.Type, toMillis(token.ExpiresAt), toMillis(token.CreatedAt),
	); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// GetToken fetches a persisted token.
func (s *Store) GetToken(ctx context.Context, token string) (storage.Token, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Token{}, err
	}
	var (
		record    storage.Token
		expiresAt int64
		createdAt int64
	)
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT token, user_id, token_type, expires_at, created_at FROM tokens WHERE token = ?`, token)
	if err := row.Scan(&record.Token, &record.UserID, &record.Type, &expiresAt, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Token{}, storage.ErrNotFound
		}
		return storage.Token{}, fmt.Errorf("get token: %w", err)
	}
	record.ExpiresAt = fromMillis(expiresAt)
	record.CreatedAt = fromMillis(createdAt)
	return record, nil
}

// DeleteToken removes a single token.
func (s *Store) DeleteToken(ctx context.Context, token string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM tokens WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// DeleteUserTokens removes every token of a user and reports how many.
func (s *Store) DeleteUserTokens(ctx context.Context, userID string) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM tokens WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user tokens: %w", err)
	}
	return res.RowsAffected()
}

// DeleteExpiredTokens removes tokens whose expiry is not after now.
func (s *Store) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM tokens WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return res.RowsAffected()
}
