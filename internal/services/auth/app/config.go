package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ledgerly/ledgerly/internal/services/auth/passkey"
)

// Config holds the auth process settings read from the environment.
type Config struct {
	Port     int    `env:"LEDGERLY_AUTH_PORT"      envDefault:"8083"`
	HTTPAddr string `env:"LEDGERLY_AUTH_HTTP_ADDR" envDefault:"localhost:8084"`
	DBPath   string `env:"LEDGERLY_AUTH_DB_PATH"   envDefault:"data/auth.db"`

	JWTSecret  string        `env:"LEDGERLY_JWT_SECRET"`
	SessionTTL time.Duration `env:"LEDGERLY_SESSION_TTL" envDefault:"24h"`

	PasswordPepper       string `env:"LEDGERLY_PASSWORD_PEPPER"`
	PasswordHistoryDepth int    `env:"LEDGERLY_PASSWORD_HISTORY_DEPTH" envDefault:"5"`

	WebAuthn         passkey.Config
	CeremonyRedisURL string `env:"LEDGERLY_CEREMONY_REDIS_URL"`

	CaptchaSecret    string `env:"LEDGERLY_CAPTCHA_SECRET"`
	CaptchaVerifyURL string `env:"LEDGERLY_CAPTCHA_VERIFY_URL"`

	EmailAddr     string        `env:"LEDGERLY_EMAIL_ADDR"`
	FrontendURL   string        `env:"LEDGERLY_FRONTEND_URL"        envDefault:"http://localhost:3000"`
	ActivationTTL time.Duration `env:"LEDGERLY_ACTIVATION_LINK_TTL" envDefault:"24h"`
	ResetTTL      time.Duration `env:"LEDGERLY_RESET_LINK_TTL"      envDefault:"1h"`

	CORSOrigins []string `env:"LEDGERLY_CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	SentryDSN   string   `env:"LEDGERLY_SENTRY_DSN"`
	Environment string   `env:"LEDGERLY_ENVIRONMENT" envDefault:"development"`
}

// Validate reports settings the process cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("LEDGERLY_JWT_SECRET is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL)
	}
	return nil
}
