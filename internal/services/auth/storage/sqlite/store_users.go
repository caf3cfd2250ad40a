package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ledgerly/ledgerly/internal/services/auth/storage"
	"github.com/ledgerly/ledgerly/internal/services/auth/user"
)

const userColumns = `id, username, email, password_hash, is_verified, is_active, role, created_at, updated_at, last_login_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (user.User, error) {
	var (
		u            user.User
		passwordHash sql.NullString
		verified     int
		active       int
		role         string
		createdAt    int64
		updatedAt    int64
		lastLogin    sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &passwordHash, &verified, &active, &role, &createdAt, &updatedAt, &lastLogin); err != nil {
		return user.User{}, err
	}
	u.PasswordHash = passwordHash.String
	u.Verified = verified == 1
	u.Active = active == 1
	u.Role = user.Role(role)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	u.LastLoginAt = fromNullMillis(lastLogin)
	return u, nil
}

func (s *Store) getUserWhere(ctx context.Context, column, value string) (user.User, error) {
	if err := s.ready(ctx); err != nil {
		return user.User{}, err
	}
	if strings.TrimSpace(value) == "" {
		return user.User{}, fmt.Errorf("%s is required", column)
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, storage.ErrNotFound
		}
		return user.User{}, fmt.Errorf("get user by %s: %w", column, err)
	}
	return u, nil
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, userID string) (user.User, error) {
	return s.getUserWhere(ctx, "id", userID)
}

// GetUserByUsername fetches a user by canonical username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return s.getUserWhere(ctx, "username", username)
}

// GetUserByEmail fetches a user by canonical email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return s.getUserWhere(ctx, "email", email)
}

// TouchLastLogin records a successful sign-in.
func (s *Store) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`,
		toMillis(at), toMillis(at), userID,
	)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return requireAffected(res, storage.ErrNotFound)
}

// ActivateUser consumes an activation link and marks its user verified.
func (s *Store) ActivateUser(ctx context.Context, linkID string, now time.Time) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}
	if strings.TrimSpace(linkID) == "" {
		return "", storage.ErrNotFound
	}

	var (
		userID  string
		expired bool
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var expiresAt int64
		row := tx.QueryRowContext(ctx, `DELETE FROM activation_links WHERE id = ? RETURNING user_id, expires_at`, linkID)
		if err := row.Scan(&userID, &expiresAt); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return storage.ErrNotFound
			}
			return fmt.Errorf("consume activation link: %w", err)
		}
		if !fromMillis(expiresAt).After(now) {
			// Commit the delete; the caller sees ErrExpired.
			expired = true
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET is_verified = 1, updated_at = ? WHERE id = ?`,
			toMillis(now), userID,
		); err != nil {
			return fmt.Errorf("verify user: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if expired {
		return "", storage.ErrExpired
	}
	return userID, nil
}

// CreatePasswordAccount inserts the user, the first history entry and the
// activation link atomically.
func (s *Store) CreatePasswordAccount(ctx context.Context, u user.User, activation storage.Link) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if !u.HasPassword() {
		return fmt.Errorf("password hash is required")
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertUser(ctx, tx, u); err != nil {
			return err
		}
		if err := insertPasswordHistory(ctx, tx, u.ID, u.PasswordHash, u.CreatedAt); err != nil {
			return err
		}
		return insertLink(ctx, tx, "activation_links", activation)
	})
}

// CreatePasskeyAccount inserts the user, the first passkey and the activation
// link atomically.
func (s *Store) CreatePasskeyAccount(ctx context.Context, u user.User, credential storage.PasskeyCredential, activation storage.Link) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertUser(ctx, tx, u); err != nil {
			return err
		}
		credential.UserID = u.ID
		if err := insertPasskey(ctx, tx, credential); err != nil {
			return err
		}
		return insertLink(ctx, tx, "activation_links", activation)
	})
}

func insertUser(ctx context.Context, tx *sql.Tx, u user.User) error {
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("user id is required")
	}
	passwordHash := sql.NullString{String: u.PasswordHash, Valid: u.PasswordHash != ""}
	role := u.Role
	if role == "" {
		role = user.RoleUser
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, passwordHash, boolToInt(u.Verified), boolToInt(u.Active),
		string(role), toMillis(u.CreatedAt), toMillis(u.UpdatedAt), nullMillis(u.LastLoginAt),
	)
	switch {
	case isUniqueViolation(err, "users.username"):
		return storage.ErrUsernameTaken
	case isUniqueViolation(err, "users.email"):
		return storage.ErrEmailTaken
	case err != nil:
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return missing
	}
	return nil
}
