// Package email sends account emails through the email collaborator.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	emailv1 "github.com/ledgerly/ledgerly/api/email/v1"
	apperrors "github.com/ledgerly/ledgerly/internal/platform/errors"
	"github.com/ledgerly/ledgerly/internal/platform/timeouts"
	"google.golang.org/grpc"
)

// Message addresses an email with a single action link.
type Message struct {
	Username string
	Email    string
	Link     string
	Locale   string
}

// Sender delivers account emails.
type Sender interface {
	SendActivationEmail(ctx context.Context, msg Message) error
	SendPasswordResetEmail(ctx context.Context, msg Message) error
}

// GRPCSender calls the email service over a shared connection.
type GRPCSender struct {
	client  emailv1.EmailServiceClient
	timeout time.Duration
}

// NewGRPCSender builds a sender on an existing connection.
func NewGRPCSender(conn grpc.ClientConnInterface) *GRPCSender {
	return &GRPCSender{
		client:  emailv1.NewEmailServiceClient(conn),
		timeout: timeouts.GRPCRequest,
	}
}

func (s *GRPCSender) SendActivationEmail(ctx context.Context, msg Message) error {
	return s.send(ctx, "send activation email", msg, s.client.SendActivationEmail)
}

func (s *GRPCSender) SendPasswordResetEmail(ctx context.Context, msg Message) error {
	return s.send(ctx, "send password reset email", msg, s.client.SendPasswordResetEmail)
}

type sendFunc func(context.Context, *emailv1.SendEmailRequest, ...grpc.CallOption) (*emailv1.SendEmailResponse, error)

func (s *GRPCSender) send(ctx context.Context, op string, msg Message, call sendFunc) error {
	if s == nil || s.client == nil {
		return apperrors.FromTransport(op, errors.New("email client is not configured"))
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	_, err := call(ctx, &emailv1.SendEmailRequest{
		Username: msg.Username,
		Email:    msg.Email,
		Link:     msg.Link,
		Locale:   msg.Locale,
	})
	if err != nil {
		return apperrors.FromTransport(op, err)
	}
	return nil
}

// LogSender writes emails to the log instead of sending them. It is used
// when no email service is configured.
type LogSender struct {
	logf func(string, ...any)
}

// NewLogSender builds a LogSender.
func NewLogSender(logf func(string, ...any)) *LogSender {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &LogSender{logf: logf}
}

func (s *LogSender) SendActivationEmail(_ context.Context, msg Message) error {
	s.logf("email disabled: activation email for %s <%s>: %s", msg.Username, msg.Email, msg.Link)
	return nil
}

func (s *LogSender) SendPasswordResetEmail(_ context.Context, msg Message) error {
	s.logf("email disabled: password reset email for %s <%s>: %s", msg.Username, msg.Email, msg.Link)
	return nil
}

// Links builds the frontend URLs placed in account emails.
type Links struct {
	base *url.URL
}

// NewLinks parses the frontend base URL.
func NewLinks(frontendURL string) (Links, error) {
	raw := strings.TrimSpace(frontendURL)
	if raw == "" {
		return Links{}, errors.New("frontend url is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return Links{}, fmt.Errorf("parse frontend url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return Links{}, fmt.Errorf("frontend url %q must be absolute", raw)
	}
	return Links{base: parsed}, nil
}

// Activation returns the account activation link for a link id.
func (l Links) Activation(linkID string) string {
	return l.build("/activate", linkID)
}

// PasswordReset returns the password reset link for a link id.
func (l Links) PasswordReset(linkID string) string {
	return l.build("/reset-password", linkID)
}

func (l Links) build(path, linkID string) string {
	if l.base == nil {
		return path + "?id=" + url.QueryEscape(linkID)
	}
	u := *l.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = url.Values{"id": {linkID}}.Encode()
	return u.String()
}
