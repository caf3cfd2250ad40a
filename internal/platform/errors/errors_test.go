package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestCodeMappings(t *testing.T) {
	tests := []struct {
		code     Code
		kind     Kind
		grpcCode codes.Code
		http     int
	}{
		{CodePasswordTooShort, KindValidation, codes.InvalidArgument, http.StatusBadRequest},
		{CodeUsernameTaken, KindConflict, codes.AlreadyExists, http.StatusBadRequest},
		{CodeUserNotFound, KindNotFound, codes.NotFound, http.StatusNotFound},
		{CodeLinkNotFound, KindNotFound, codes.NotFound, http.StatusBadRequest},
		{CodeTokenExpired, KindUnauthorized, codes.Unauthenticated, http.StatusUnauthorized},
		{CodeAccountInactive, KindUnauthorized, codes.PermissionDenied, http.StatusForbidden},
		{CodeInternal, KindInternal, codes.Internal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), KindInternal, codes.Internal, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := tc.code.Kind(); got != tc.kind {
			t.Errorf("%s.Kind() = %v, want %v", tc.code, got, tc.kind)
		}
		if got := tc.code.GRPCCode(); got != tc.grpcCode {
			t.Errorf("%s.GRPCCode() = %v, want %v", tc.code, got, tc.grpcCode)
		}
		if got := tc.code.HTTPStatus(); got != tc.http {
			t.Errorf("%s.HTTPStatus() = %d, want %d", tc.code, got, tc.http)
		}
	}
}

func TestBoundaryConstructorsAreInternal(t *testing.T) {
	cause := stderrors.New("disk full")
	for _, err := range []*Error{
		FromDatabase("put token", cause),
		FromCrypto("sign token", cause),
		FromWebAuthn("begin login", cause),
		FromSerialization("decode session", cause),
		FromTransport("send email", cause),
	} {
		if err.Kind() != KindInternal {
			t.Errorf("%q kind = %v, want internal", err.Message, err.Kind())
		}
		if !stderrors.Is(err, cause) {
			t.Errorf("%q does not unwrap to cause", err.Message)
		}
	}
}

func TestGetCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeEmailTaken, "email taken"))
	if got := GetCode(err); got != CodeEmailTaken {
		t.Fatalf("GetCode = %s, want %s", got, CodeEmailTaken)
	}
	if !IsCode(err, CodeEmailTaken) {
		t.Fatal("expected IsCode to match")
	}
	if GetCode(stderrors.New("plain")) != CodeUnknown {
		t.Fatal("expected unknown for plain error")
	}
}

func TestHandleErrorAttachesDetails(t *testing.T) {
	err := HandleError(WithMetadata(CodePasswordTooShort, "too short", map[string]string{"MinLength": "8"}), "pt-BR")
	st, ok := status.FromError(err)
	if !ok {
		t.Fatal("expected status error")
	}
	if st.Code() != codes.InvalidArgument {
		t.Fatalf("code = %v, want %v", st.Code(), codes.InvalidArgument)
	}
	var sawInfo, sawLocalized bool
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			sawInfo = d.Reason == string(CodePasswordTooShort)
		case *errdetails.LocalizedMessage:
			sawLocalized = d.Locale == "pt-BR" && d.Message == "A senha deve ter pelo menos 8 caracteres"
		}
	}
	if !sawInfo || !sawLocalized {
		t.Fatalf("details = %v", st.Details())
	}
}

func TestHandleErrorHidesInternal(t *testing.T) {
	err := HandleError(FromDatabase("get user", stderrors.New("secret dsn")), "")
	st, _ := status.FromError(err)
	if st.Code() != codes.Internal || st.Message() != "an unexpected error occurred" {
		t.Fatalf("status = %v %q", st.Code(), st.Message())
	}
	if HandleError(nil, "") != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestLocalize(t *testing.T) {
	code, msg := Localize(New(CodeTokenExpired, "expired"), "en-US")
	if code != CodeTokenExpired || msg != "Session has expired" {
		t.Fatalf("Localize = %s %q", code, msg)
	}
	code, msg = Localize(stderrors.New("boom"), "en-US")
	if code != CodeInternal || msg != "An unexpected error occurred" {
		t.Fatalf("Localize internal = %s %q", code, msg)
	}
}

func TestErrorStringIncludesCause(t *testing.T) {
	err := FromDatabase("load token", stderrors.New("disk I/O error"))
	if got, want := err.Error(), "database: load token: disk I/O error"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if got := New(CodeTokenInvalid, "token not found").Error(); got != "token not found" {
		t.Fatalf("Error() = %q, want message only", got)
	}
}

func TestHandleErrorKeepsCauseOutOfStatus(t *testing.T) {
	err := HandleError(FromDatabase("load token", stderrors.New("disk I/O error")), "")
	if st := status.Convert(err); st.Message() != "an unexpected error occurred" {
		t.Fatalf("status message = %q, want generic", st.Message())
	}
}
