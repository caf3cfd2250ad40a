// Package auth parses auth service flags and launches the service.
package auth

import (
	"context"
	"flag"

	entrypoint "github.com/ledgerly/ledgerly/internal/platform/cmd"
	server "github.com/ledgerly/ledgerly/internal/services/auth/app"
)

// Config holds auth command configuration.
type Config struct {
	server.Config
}

// ParseConfig parses environment and flags into Config. Flags win over the
// environment.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The auth gRPC server port")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The auth HTTP server address (empty disables it)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the auth SQLite database")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the auth service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceAuth, func(ctx context.Context) error {
		return server.Run(ctx, cfg.Config)
	})
}
