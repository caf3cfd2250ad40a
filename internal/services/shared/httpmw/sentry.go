package httpmw

import (
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry enables error reporting when dsn is set. The returned flush
// function is always safe to call.
func InitSentry(dsn, environment string) (func(), error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		AttachStacktrace: true,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}
