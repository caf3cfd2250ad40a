// Package audit records authentication attempts.
package audit

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/ledgerly/ledgerly/internal/platform/errors"
	"github.com/ledgerly/ledgerly/internal/platform/id"
	"github.com/ledgerly/ledgerly/internal/platform/pagination"
	"github.com/ledgerly/ledgerly/internal/platform/requestctx"
	"github.com/ledgerly/ledgerly/internal/services/auth/storage"
)

// Authentication methods.
const (
	MethodPassword = "password"
	MethodPasskey  = "passkey"
	MethodOTP      = "otp"
)

// Metadata keys.
const (
	MetaReason = "reason"
)

// ListLimits bounds audit listing. Out-of-range limits are clamped.
var ListLimits = pagination.LimitConfig{Default: 50, Max: 100}

// Entry describes one attempt to record.
type Entry struct {
	UserID    string
	Method    string
	Success   bool
	IP        string
	UserAgent string
	Metadata  map[string]string
}

// Metrics receives attempt counts.
type Metrics interface {
	RecordAuthAttempt(method string, success bool)
}

// Logger writes audit entries. Write failures never reach the caller.
type Logger struct {
	store       storage.AuditStore
	metrics     Metrics
	logf        func(string, ...any)
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewLogger builds an audit logger. metrics and logf may be nil.
func NewLogger(store storage.AuditStore, metrics Metrics, logf func(string, ...any)) *Logger {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Logger{
		store:       store,
		metrics:     metrics,
		logf:        logf,
		clock:       time.Now,
		idGenerator: id.NewID,
	}
}

// Record stores an attempt. Client details missing from the entry are taken
// from the request context.
func (l *Logger) Record(ctx context.Context, entry Entry) {
	if l == nil {
		return
	}
	if l.metrics != nil {
		l.metrics.RecordAuthAttempt(entry.Method, entry.Success)
	}
	if l.store == nil {
		return
	}
	client := requestctx.ClientFromContext(ctx)
	if strings.TrimSpace(entry.IP) == "" {
		entry.IP = client.IP
	}
	if strings.TrimSpace(entry.UserAgent) == "" {
		entry.UserAgent = client.UserAgent
	}

	entryID, err := l.idGenerator()
	if err != nil {
		l.logf("record audit entry: generate id: %v", err)
		return
	}
	// Recording outlives a canceled request.
	ctx = context.WithoutCancel(ctx)
	if err := l.store.PutAuditEntry(ctx, storage.AuditEntry{
		ID:        entryID,
		UserID:    entry.UserID,
		Method:    entry.Method,
		Success:   entry.Success,
		IP:        entry.IP,
		UserAgent: entry.UserAgent,
		Metadata:  entry.Metadata,
		CreatedAt: l.clock().UTC(),
	}); err != nil {
		l.logf("record audit entry: %v", err)
	}
}

// Failure records a failed attempt with a classified reason.
func (l *Logger) Failure(ctx context.Context, userID, method, reason string) {
	l.Record(ctx, Entry{
		UserID:   userID,
		Method:   method,
		Metadata: map[string]string{MetaReason: reason},
	})
}

// Success records a successful attempt.
func (l *Logger) Success(ctx context.Context, userID, method string) {
	l.Record(ctx, Entry{UserID: userID, Method: method, Success: true})
}

// List returns the newest entries for a user. limit is clamped to ListLimits.
func (l *Logger) List(ctx context.Context, userID string, limit int) ([]storage.AuditEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.New(apperrors.CodeRequestInvalid, "user id is required")
	}
	if l == nil || l.store == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "audit store is not configured")
	}
	entries, err := l.store.ListAuditEntries(ctx, userID, pagination.ClampLimit(limit, ListLimits))
	if err != nil {
		return nil, apperrors.FromDatabase("list audit entries", err)
	}
	return entries, nil
}
