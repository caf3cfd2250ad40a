package httpmw

import (
	"encoding/json"
	"net/http"

	"github.com/getsentry/sentry-go"
	apperrors "github.com/ledgerly/ledgerly/internal/platform/errors"
	"github.com/ledgerly/ledgerly/internal/services/shared/i18nhttp"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteJSON writes v as a JSON response with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders err for the request language. Internal failures are
// logged and reported, and the client only sees the generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logf func(string, ...any)) {
	code, message := apperrors.Localize(err, i18nhttp.Locale(r))
	if code == apperrors.CodeInternal {
		if logf != nil {
			logf("%s %s: %v", r.Method, r.URL.Path, err)
		}
		sentry.CaptureException(err)
	}
	WriteJSON(w, code.HTTPStatus(), ErrorBody{Error: string(code), Message: message})
}
