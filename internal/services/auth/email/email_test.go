package email

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"

	emailv1 "github.com/ledgerly/ledgerly/api/email/v1"
	apperrors "github.com/ledgerly/ledgerly/internal/platform/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

type recordingEmailServer struct {
	emailv1.UnimplementedEmailServiceServer
	activation []*emailv1.SendEmailRequest
	reset      []*emailv1.SendEmailRequest
	err        error
}

func (s *recordingEmailServer) SendActivationEmail(_ context.Context, in *emailv1.SendEmailRequest) (*emailv1.SendEmailResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.activation = append(s.activation, in)
	return &emailv1.SendEmailResponse{}, nil
}

func (s *recordingEmailServer) SendPasswordResetEmail(_ context.Context, in *emailv1.SendEmailRequest) (*emailv1.SendEmailResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.reset = append(s.reset, in)
	return &emailv1.SendEmailResponse{}, nil
}

func dialBufconn(t *testing.T, srv emailv1.EmailServiceServer) *grpc.ClientConn {
	t.Helper()
	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	emailv1.RegisterEmailServiceServer(server, srv)
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufconn: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestGRPCSenderDeliversRequests(t *testing.T) {
	srv := &recordingEmailServer{}
	sender := NewGRPCSender(dialBufconn(t, srv))
	msg := Message{Username: "alice", Email: "alice@example.com", Link: "https://app.test/activate?id=x", Locale: "pt-BR"}

	if err := sender.SendActivationEmail(context.Background(), msg); err != nil {
		t.Fatalf("send activation: %v", err)
	}
	if err := sender.SendPasswordResetEmail(context.Background(), msg); err != nil {
		t.Fatalf("send reset: %v", err)
	}
	if len(srv.activation) != 1 || srv.activation[0].Link != msg.Link || srv.activation[0].Locale != "pt-BR" {
		t.Fatalf("activation = %+v", srv.activation)
	}
	if len(srv.reset) != 1 || srv.reset[0].Username != "alice" {
		t.Fatalf("reset = %+v", srv.reset)
	}
}

func TestGRPCSenderWrapsFailuresAsInternal(t *testing.T) {
	srv := &recordingEmailServer{err: errors.New("smtp down")}
	sender := NewGRPCSender(dialBufconn(t, srv))

	err := sender.SendActivationEmail(context.Background(), Message{Email: "a@example.com"})
	if apperrors.KindOf(err) != apperrors.KindInternal {
		t.Fatalf("kind = %v, want internal (err = %v)", apperrors.KindOf(err), err)
	}
}

func TestLogSenderLogsLink(t *testing.T) {
	var logged []string
	sender := NewLogSender(func(format string, args ...any) {
		logged = append(logged, fmt.Sprintf(format, args...))
	})
	if err := sender.SendActivationEmail(context.Background(), Message{Username: "alice", Email: "a@example.com", Link: "L"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(logged) != 1 || !strings.Contains(logged[0], "alice") || !strings.Contains(logged[0], "L") {
		t.Fatalf("logged = %v", logged)
	}
}

func TestLinks(t *testing.T) {
	links, err := NewLinks("https://app.ledgerly.test/base/")
	if err != nil {
		t.Fatalf("new links: %v", err)
	}
	if got := links.Activation("abc"); got != "https://app.ledgerly.test/base/activate?id=abc" {
		t.Fatalf("activation = %q", got)
	}
	if got := links.PasswordReset("a b"); got != "https://app.ledgerly.test/base/reset-password?id=a+b" {
		t.Fatalf("reset = %q", got)
	}
}

func TestNewLinksRejectsRelative(t *testing.T) {
	for _, raw := range []string{"", "/relative", "app.test"} {
		if _, err := NewLinks(raw); err == nil {
			t.Fatalf("NewLinks(%q) expected error", raw)
		}
	}
}
