package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/ledgerly/ledgerly/internal/platform/errors"
)

func newSiteverify(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server.URL
}

func TestHTTPVerifierAccepts(t *testing.T) {
	var gotSecret, gotResponse, gotIP string
	url := newSiteverify(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotSecret = r.PostForm.Get("secret")
		gotResponse = r.PostForm.Get("response")
		gotIP = r.PostForm.Get("remoteip")
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	verifier := NewVerifier("s3cret", url, nil)
	if err := verifier.Verify(context.Background(), "tok", "198.51.100.7"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if gotSecret != "s3cret" || gotResponse != "tok" || gotIP != "198.51.100.7" {
		t.Fatalf("form = %q %q %q", gotSecret, gotResponse, gotIP)
	}
}

func TestHTTPVerifierRejects(t *testing.T) {
	url := newSiteverify(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	})
	err := NewHTTPVerifier("s", url, nil).Verify(context.Background(), "tok", "")
	if !apperrors.IsCode(err, apperrors.CodeCaptchaFailed) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeCaptchaFailed)
	}
}

func TestHTTPVerifierEmptyToken(t *testing.T) {
	err := NewHTTPVerifier("s", "http://unused.invalid", nil).Verify(context.Background(), " ", "")
	if !apperrors.IsCode(err, apperrors.CodeCaptchaFailed) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeCaptchaFailed)
	}
}

func TestHTTPVerifierProviderFailureIsInternal(t *testing.T) {
	url := newSiteverify(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	err := NewHTTPVerifier("s", url, nil).Verify(context.Background(), "tok", "")
	if apperrors.KindOf(err) != apperrors.KindInternal {
		t.Fatalf("kind = %v, want internal", apperrors.KindOf(err))
	}
}

func TestDisabledVerifierWithoutSecret(t *testing.T) {
	verifier := NewVerifier("", "", nil)
	if _, ok := verifier.(Disabled); !ok {
		t.Fatalf("verifier = %T, want Disabled", verifier)
	}
	if err := verifier.Verify(context.Background(), "", ""); err != nil {
		t.Fatalf("verify: %v", err)
	}
}
