package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
)

func TestRecordAuthAttempt(t *testing.T) {
	reg := NewRegistry("auth")
	reg.RecordAuthAttempt("passkey", true)
	reg.RecordAuthAttempt("passkey", false)
	reg.RecordAuthAttempt("passkey", false)

	if got := testutil.ToFloat64(reg.AuthAttempts.WithLabelValues("passkey", "failure")); got != 2 {
		t.Fatalf("failures = %v, want 2", got)
	}
	if got := testutil.ToFloat64(reg.AuthAttempts.WithLabelValues("passkey", "success")); got != 1 {
		t.Fatalf("successes = %v, want 1", got)
	}
}

func TestNilRegistryIsNoop(t *testing.T) {
	var reg *Registry
	reg.RecordAuthAttempt("password", true)
	reg.RecordTokenIssued()
	reg.RecordTokenVerification("valid")
	reg.RecordCeremonyStarted("login")
}

func TestUnaryServerInterceptorCountsCodes(t *testing.T) {
	reg := NewRegistry("auth")
	interceptor := reg.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/auth.v1.TokenService/VerifyToken"}

	_, _ = interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	_, _ = interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, errors.New("boom")
	})

	if got := testutil.ToFloat64(reg.grpcRequests.WithLabelValues(info.FullMethod, "OK")); got != 1 {
		t.Fatalf("ok count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(reg.grpcRequests.WithLabelValues(info.FullMethod, "Unknown")); got != 1 {
		t.Fatalf("unknown count = %v, want 1", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	reg := NewRegistry("auth")
	reg.RecordTokenIssued()

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "ledgerly_tokens_issued_total") {
		t.Fatalf("metrics output missing counter:\n%s", body)
	}
}

func TestGathererCountsCeremonies(t *testing.T) {
	reg := NewRegistry("auth")
	reg.RecordCeremonyStarted("registration")
	reg.RecordCeremonyStarted("login")

	count, err := testutil.GatherAndCount(reg.Gatherer(), "ledgerly_passkey_ceremonies_started_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 2 {
		t.Fatalf("series = %d, want 2", count)
	}
}
