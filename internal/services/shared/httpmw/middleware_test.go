package httpmw

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/ledgerly/ledgerly/internal/platform/errors"
	"github.com/ledgerly/ledgerly/internal/platform/requestctx"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestWriteErrorDomainCode(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	WriteError(rec, req, apperrors.New(apperrors.CodeInvalidCredentials, "bad password"), nil)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	body := decodeError(t, rec)
	if body.Error != string(apperrors.CodeInvalidCredentials) {
		t.Fatalf("error = %q, want %q", body.Error, apperrors.CodeInvalidCredentials)
	}
	if body.Message == "" || body.Message == string(apperrors.CodeInvalidCredentials) {
		t.Fatalf("message = %q, want a localized message", body.Message)
	}
}

func TestWriteErrorLocalizesForRequestLanguage(t *testing.T) {
	en := httptest.NewRecorder()
	WriteError(en, httptest.NewRequest(http.MethodPost, "/login", nil), apperrors.New(apperrors.CodeInvalidCredentials, "x"), nil)
	pt := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login?lang=pt-BR", nil)
	WriteError(pt, req, apperrors.New(apperrors.CodeInvalidCredentials, "x"), nil)

	if decodeError(t, en).Message == decodeError(t, pt).Message {
		t.Fatal("expected pt-BR message to differ from en-US")
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	var logged []string
	logf := func(format string, args ...any) { logged = append(logged, fmt.Sprintf(format, args...)) }
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/verify", nil)
	WriteError(rec, req, apperrors.FromDatabase("load token", fmt.Errorf("disk I/O error")), logf)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	body := decodeError(t, rec)
	if body.Error != string(apperrors.CodeInternal) || strings.Contains(body.Message, "disk") {
		t.Fatalf("body = %+v, want generic internal error", body)
	}
	if len(logged) != 1 || !strings.Contains(logged[0], "disk I/O error") {
		t.Fatalf("logged = %v, want the cause", logged)
	}
}

func TestRecoverWritesInternalError(t *testing.T) {
	handler := Recover(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if body := decodeError(t, rec); body.Error != string(apperrors.CodeInternal) {
		t.Fatalf("error = %q, want %q", body.Error, apperrors.CodeInternal)
	}
}

func TestRequestLoggerRecordsStatus(t *testing.T) {
	var line string
	logf := func(format string, args ...any) { line = fmt.Sprintf(format, args...) }
	handler := RequestLogger(logf)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/audit", nil))

	if !strings.HasPrefix(line, "GET /audit 418") {
		t.Fatalf("log line = %q", line)
	}
}

func TestClientInfo(t *testing.T) {
	var got requestctx.Client
	handler := ClientInfo(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = requestctx.ClientFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "192.0.2.10:5123"
	req.Header.Set("User-Agent", "test-agent")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got.IP != "192.0.2.10" || got.UserAgent != "test-agent" {
		t.Fatalf("client = %+v", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got.IP != "203.0.113.5" {
		t.Fatalf("ip = %q, want %q", got.IP, "203.0.113.5")
	}
}

func TestCanonicalPath(t *testing.T) {
	handler := CanonicalPath(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/?limit=5", nil))
	if rec.Code != http.StatusPermanentRedirect {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusPermanentRedirect)
	}
	if got := rec.Header().Get("Location"); got != "/audit?limit=5" {
		t.Fatalf("location = %q, want %q", got, "/audit?limit=5")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestInitSentryDisabledWithoutDSN(t *testing.T) {
	flush, err := InitSentry("", "test")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	flush()
}
