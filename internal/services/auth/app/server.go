package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	authv1 "github.com/ledgerly/ledgerly/api/auth/v1"
	platformgrpc "github.com/ledgerly/ledgerly/internal/platform/grpc"
	"github.com/ledgerly/ledgerly/internal/platform/telemetry/metrics"
	"github.com/ledgerly/ledgerly/internal/platform/timeouts"
	"github.com/ledgerly/ledgerly/internal/services/auth/account"
	authservice "github.com/ledgerly/ledgerly/internal/services/auth/api/grpc/auth"
	"github.com/ledgerly/ledgerly/internal/services/auth/api/httpapi"
	"github.com/ledgerly/ledgerly/internal/services/auth/audit"
	"github.com/ledgerly/ledgerly/internal/services/auth/captcha"
	"github.com/ledgerly/ledgerly/internal/services/auth/ceremony"
	"github.com/ledgerly/ledgerly/internal/services/auth/email"
	"github.com/ledgerly/ledgerly/internal/services/auth/passkey"
	"github.com/ledgerly/ledgerly/internal/services/auth/password"
	authsqlite "github.com/ledgerly/ledgerly/internal/services/auth/storage/sqlite"
	"github.com/ledgerly/ledgerly/internal/services/auth/token"
	"github.com/ledgerly/ledgerly/internal/services/shared/httpmw"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

// Server hosts the auth service.
type Server struct {
	listener     net.Listener
	grpcServer   *grpc.Server
	health       *health.Server
	httpListener net.Listener
	httpServer   *http.Server
	store        *authsqlite.Store
	tokens       *token.Service
	sweepable    *ceremony.MemoryStore
	closers      []func() error
}

// New creates a configured auth server. The gRPC listener binds cfg.Port and
// the HTTP edge binds cfg.HTTPAddr when it is set.
func New(ctx context.Context, cfg Config) (s *Server, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s = &Server{}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	flushSentry, err := httpmw.InitSentry(cfg.SentryDSN, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("init sentry: %w", err)
	}
	s.onClose(func() error { flushSentry(); return nil })

	s.store, err = openAuthStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	s.onClose(s.store.Close)

	registry := metrics.NewRegistry("auth")
	s.tokens, err = token.NewService(s.store, token.Config{
		Secret: []byte(cfg.JWTSecret),
		TTL:    cfg.SessionTTL,
	}, token.WithMetrics(registry), token.WithLogger(log.Printf))
	if err != nil {
		return nil, err
	}
	auditLog := audit.NewLogger(s.store, registry, log.Printf)

	ceremonies, err := s.openCeremonyStore(ctx, cfg.CeremonyRedisURL)
	if err != nil {
		return nil, err
	}
	mailer, err := s.openMailer(ctx, cfg.EmailAddr)
	if err != nil {
		return nil, err
	}
	links, err := email.NewLinks(cfg.FrontendURL)
	if err != nil {
		return nil, err
	}

	rp, err := passkey.NewWebAuthn(cfg.WebAuthn)
	if err != nil {
		return nil, err
	}
	engine, err := passkey.NewEngine(passkey.Deps{
		Store:          s.store,
		Ceremonies:     ceremonies,
		WebAuthn:       rp,
		Tokens:         s.tokens,
		Audit:          auditLog,
		Mailer:         mailer,
		ActivationLink: links.Activation,
		SessionTTL:     cfg.WebAuthn.SessionTTL,
		ActivationTTL:  cfg.ActivationTTL,
		Metrics:        registry,
		Logf:           log.Printf,
	})
	if err != nil {
		return nil, err
	}
	accounts, err := account.NewService(account.Deps{
		Store:         s.store,
		Policy:        password.NewPolicy(password.NewHasher(password.DefaultParams, cfg.PasswordPepper), 0, cfg.PasswordHistoryDepth),
		Tokens:        s.tokens,
		Captcha:       captcha.NewVerifier(cfg.CaptchaSecret, cfg.CaptchaVerifyURL, nil),
		Audit:         auditLog,
		Mailer:        mailer,
		Links:         links,
		ActivationTTL: cfg.ActivationTTL,
		ResetTTL:      cfg.ResetTTL,
		Logf:          log.Printf,
	})
	if err != nil {
		return nil, err
	}

	s.listener, err = net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", cfg.Port, err)
	}
	s.onClose(ignoreClosed(s.listener.Close))
	s.grpcServer = grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(registry.UnaryServerInterceptor()),
	)
	authv1.RegisterTokenServiceServer(s.grpcServer, authservice.NewTokenService(s.tokens, log.Printf))
	s.health = platformgrpc.RegisterHealth(s.grpcServer, authv1.ServiceName)

	if strings.TrimSpace(cfg.HTTPAddr) != "" {
		s.httpListener, err = net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			return nil, fmt.Errorf("listen on http addr %s: %w", cfg.HTTPAddr, err)
		}
		s.onClose(ignoreClosed(s.httpListener.Close))
		handler, err := httpapi.NewHandler(httpapi.Deps{
			Accounts:    accounts,
			Passkeys:    engine,
			Tokens:      s.tokens,
			Audit:       auditLog,
			Metrics:     registry.Handler(),
			CORSOrigins: cfg.CORSOrigins,
			Logf:        log.Printf,
		})
		if err != nil {
			return nil, err
		}
		s.httpServer = &http.Server{
			Handler:           handler.Router(),
			ReadHeaderTimeout: timeouts.ReadHeader,
		}
	}
	return s, nil
}

// Addr returns the gRPC listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// HTTPAddr returns the HTTP listener address, empty when the edge is off.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// Run creates and serves an auth server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the auth server and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	serverCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.close()

	go s.tokens.RunSweeper(serverCtx, timeouts.TokenSweep)
	if s.sweepable != nil {
		go s.sweepable.RunSweeper(serverCtx, timeouts.CeremonySweep)
	}

	log.Printf("auth server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	httpErr := make(chan error, 1)
	if s.httpServer != nil && s.httpListener != nil {
		log.Printf("auth HTTP server listening at %v", s.httpListener.Addr())
		go func() {
			httpErr <- s.httpServer.Serve(s.httpListener)
		}()
	}

	handleErr := func(err error) error {
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}

	shutdownGRPC := func() {
		if s.health != nil {
			s.health.Shutdown()
		}
		s.grpcServer.GracefulStop()
	}
	shutdownHTTP := func() {
		if s.httpServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
			defer cancel()
			_ = s.httpServer.Shutdown(shutdownCtx)
		}
	}

	select {
	case <-ctx.Done():
		shutdownGRPC()
		shutdownHTTP()
		err := <-serveErr
		return handleErr(err)
	case err := <-serveErr:
		shutdownHTTP()
		return handleErr(err)
	case err := <-httpErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		shutdownGRPC()
		grpcErr := <-serveErr
		if handled := handleErr(grpcErr); handled != nil {
			return handled
		}
		return fmt.Errorf("serve HTTP: %w", err)
	}
}

func (s *Server) onClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// close releases resources in reverse order of acquisition.
func (s *Server) close() {
	if s == nil {
		return
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Printf("close auth server: %v", err)
		}
	}
	s.closers = nil
}

func ignoreClosed(fn func() error) func() error {
	return func() error {
		if err := fn(); err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
		return nil
	}
}

func openAuthStore(path string) (*authsqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join("data", "auth.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	store, err := authsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open auth sqlite store: %w", err)
	}
	return store, nil
}

// openCeremonyStore uses Redis when a URL is configured so ceremonies
// survive across replicas, and an in-process store otherwise.
func (s *Server) openCeremonyStore(ctx context.Context, redisURL string) (ceremony.Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		memory := ceremony.NewMemoryStore()
		s.sweepable = memory
		return memory, nil
	}
	store, err := ceremony.OpenRedisStore(ctx, redisURL)
	if err != nil {
		return nil, fmt.Errorf("open ceremony store: %w", err)
	}
	s.onClose(store.Close)
	log.Printf("passkey ceremonies stored in redis")
	return store, nil
}

// openMailer dials the email service, or logs messages when no address is
// configured.
func (s *Server) openMailer(ctx context.Context, addr string) (email.Sender, error) {
	if strings.TrimSpace(addr) == "" {
		log.Printf("LEDGERLY_EMAIL_ADDR not set; account emails are logged only")
		return email.NewLogSender(log.Printf), nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, err := platformgrpc.Dial(dialCtx, addr, timeouts.GRPCDial, log.Printf)
	if err != nil {
		return nil, fmt.Errorf("dial email service: %w", err)
	}
	s.onClose(conn.Close)
	return email.NewGRPCSender(conn), nil
}
