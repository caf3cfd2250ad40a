package passkey

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/ledgerly/ledgerly/internal/platform/config"
)

// DefaultSessionTTL bounds how long a ceremony may stay open.
const DefaultSessionTTL = 5 * time.Minute

// Config controls WebAuthn relying party settings.
type Config struct {
	RPDisplayName string        `env:"LEDGERLY_WEBAUTHN_RP_DISPLAY_NAME" envDefault:"Ledgerly"`
	RPID          string        `env:"LEDGERLY_WEBAUTHN_RP_ID"           envDefault:"localhost"`
	RPOrigins     []string      `env:"LEDGERLY_WEBAUTHN_RP_ORIGINS"      envSeparator:","`
	SessionTTL    time.Duration `env:"LEDGERLY_WEBAUTHN_SESSION_TTL"     envDefault:"5m"`
}

// LoadConfigFromEnv reads relying party settings and fills defaults.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.RPDisplayName) == "" {
		c.RPDisplayName = "Ledgerly"
	}
	if strings.TrimSpace(c.RPID) == "" {
		c.RPID = "localhost"
	}
	if len(c.RPOrigins) == 0 {
		c.RPOrigins = []string{"http://localhost:3000"}
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = DefaultSessionTTL
	}
	return c
}

// NewWebAuthn builds the relying party used by the ceremony engine.
func NewWebAuthn(cfg Config) (*webauthn.WebAuthn, error) {
	cfg = cfg.withDefaults()
	rp, err := webauthn.New(&webauthn.Config{
		RPID:          cfg.RPID,
		RPDisplayName: cfg.RPDisplayName,
		RPOrigins:     cfg.RPOrigins,
	})
	if err != nil {
		return nil, fmt.Errorf("configure webauthn: %w", err)
	}
	return rp, nil
}
