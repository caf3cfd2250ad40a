// Package i18nhttp resolves the response language of HTTP requests.
package i18nhttp

import (
	"context"
	"net/http"
	"strings"
	"time"

	platformi18n "github.com/ledgerly/ledgerly/internal/platform/i18n"
	"golang.org/x/text/language"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the user's language preference.
	LangCookieName = "ledgerly_lang"
)

// Default returns the default language tag.
func Default() language.Tag {
	return platformi18n.DefaultTag()
}

// ResolveTag determines the best language tag for the request.
// The bool indicates whether the lang query param should be persisted as a cookie.
func ResolveTag(r *http.Request) (language.Tag, bool) {
	if r == nil {
		return Default(), false
	}

	if langValue := strings.TrimSpace(r.URL.Query().Get(LangParam)); langValue != "" {
		if tag, ok := platformi18n.ParseTag(langValue); ok {
			return tag, true
		}
	}

	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if tag, ok := platformi18n.ParseTag(cookie.Value); ok {
			return tag, false
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			return platformi18n.MatchTags(tags), false
		}
	}

	return Default(), false
}

// SetLanguageCookie persists the selected language on the response.
func SetLanguageCookie(w http.ResponseWriter, tag language.Tag) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

type localeContextKey struct{}

// Middleware resolves the request language once and stores it in the request
// context. A lang query parameter is remembered in a cookie.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag, persist := ResolveTag(r)
		if persist {
			SetLanguageCookie(w, tag)
		}
		ctx := context.WithValue(r.Context(), localeContextKey{}, tag.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Locale returns the locale chosen for r, resolving it when the middleware
// did not run.
func Locale(r *http.Request) string {
	if r == nil {
		return Default().String()
	}
	if locale, ok := r.Context().Value(localeContextKey{}).(string); ok && locale != "" {
		return locale
	}
	tag, _ := ResolveTag(r)
	return tag.String()
}
