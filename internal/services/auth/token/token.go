// Package token issues, verifies and revokes signed session tokens.
//
// A token is only accepted while its row exists in the token store. The JWT
// signature proves the token came from this service; the stored row decides
// whether it is still live.
package token

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/ledgerly/ledgerly/internal/platform/errors"
	"github.com/ledgerly/ledgerly/internal/services/auth/storage"
)

// TypeSession is the token_type stored for session tokens.
const TypeSession = "session"

// DefaultTTL is used when Config.TTL is not set.
const DefaultTTL = 24 * time.Hour

// Verification outcomes reported to metrics.
const (
	OutcomeValid     = "valid"
	OutcomeMalformed = "malformed"
	OutcomeNotFound  = "not_found"
	OutcomeExpired   = "expired"
	OutcomeMismatch  = "mismatch"
	OutcomeError     = "error"
)

// Config configures the token service.
type Config struct {
	Secret []byte
	TTL    time.Duration
}

// Metrics receives token lifecycle events.
type Metrics interface {
	RecordTokenIssued()
	RecordTokenVerification(outcome string)
}

// Service signs and validates session tokens.
type Service struct {
	store   storage.TokenStore
	secret  []byte
	ttl     time.Duration
	metrics Metrics
	logf    func(string, ...any)
	clock   func() time.Time
	jtiGen  func() (string, error)
}

// Option customizes a Service.
type Option func(*Service)

// WithMetrics reports issue and verify outcomes.
func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger overrides the log function.
func WithLogger(logf func(string, ...any)) Option {
	return func(s *Service) {
		if logf != nil {
			s.logf = logf
		}
	}
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Type string `json:"typ,omitempty"`
}

// NewService builds a token service. The secret must be non-empty.
func NewService(store storage.TokenStore, cfg Config, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("token store is required")
	}
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Service{
		store:  store,
		secret: append([]byte(nil), cfg.Secret...),
		ttl:    ttl,
		logf:   func(string, ...any) {},
		clock:  time.Now,
		jtiGen: func() (string, error) {
			id, err := uuid.NewRandom()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the canonical session lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue signs a new session token for the user and persists it.
func (s *Service) Issue(ctx context.Context, userID string) (string, time.Time, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", time.Time{}, apperrors.New(apperrors.CodeRequestInvalid, "user id is required")
	}
	now := s.clock().UTC().Truncate(time.Second)
	expiresAt := now.Add(s.ttl)
	jti, err := s.jtiGen()
	if err != nil {
		return "", time.Time{}, apperrors.FromCrypto("generate token id", err)
	}

	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        jti,
		},
		Type: TypeSession,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, apperrors.FromCrypto("sign token", err)
	}

	if err := s.store.PutToken(ctx, storage.Token{
		Token:     signed,
		UserID:    userID,
		Type:      TypeSession,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}); err != nil {
		return "", time.Time{}, apperrors.FromDatabase("persist token", err)
	}
	if s.metrics != nil {
		s.metrics.RecordTokenIssued()
	}
	return signed, expiresAt, nil
}

// Verify returns the user id bound to a live token.
//
// Callers only see CodeTokenInvalid or CodeTokenExpired for rejected tokens;
// the finer reason stays in the error message. Storage failures surface as
// internal errors.
func (s *Service) Verify(ctx context.Context, raw string) (string, error) {
	userID, outcome, err := s.verify(ctx, raw)
	if s.metrics != nil {
		s.metrics.RecordTokenVerification(outcome)
	}
	return userID, err
}

func (s *Service) verify(ctx context.Context, raw string) (string, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", OutcomeMalformed, apperrors.New(apperrors.CodeTokenInvalid, "token is empty")
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", OutcomeMalformed, apperrors.Wrap(apperrors.CodeTokenInvalid, "token is malformed", err)
	}

	stored, err := s.store.GetToken(ctx, raw)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", OutcomeNotFound, apperrors.New(apperrors.CodeTokenInvalid, "token not found")
		}
		return "", OutcomeError, apperrors.FromDatabase("load token", err)
	}

	if !s.clock().Before(stored.ExpiresAt) {
		if err := s.store.DeleteToken(ctx, raw); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logf("delete expired token for user %s: %v", stored.UserID, err)
		}
		return "", OutcomeExpired, apperrors.New(apperrors.CodeTokenExpired, "token is expired")
	}

	if claims.Subject == "" || claims.Subject != stored.UserID {
		return "", OutcomeMismatch, apperrors.New(apperrors.CodeTokenInvalid, "token subject mismatch")
	}
	return stored.UserID, OutcomeValid, nil
}

// Revoke deletes a single token. Revoking an unknown token is not an error.
func (s *Service) Revoke(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if err := s.store.DeleteToken(ctx, raw); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return apperrors.FromDatabase("delete token", err)
	}
	return nil
}

// RevokeAll deletes every token issued to the user.
func (s *Service) RevokeAll(ctx context.Context, userID string) (int64, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, apperrors.New(apperrors.CodeRequestInvalid, "user id is required")
	}
	n, err := s.store.DeleteUserTokens(ctx, userID)
	if err != nil {
		return 0, apperrors.FromDatabase("delete user tokens", err)
	}
	return n, nil
}

// SweepExpired removes tokens whose expiry has passed.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredTokens(ctx, s.clock().UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep expired tokens: %w", err)
	}
	return n, nil
}

// RunSweeper calls SweepExpired every interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepExpired(ctx)
			if err != nil {
				s.logf("%v", err)
				continue
			}
			if n > 0 {
				s.logf("swept %d expired tokens", n)
			}
		}
	}
}
