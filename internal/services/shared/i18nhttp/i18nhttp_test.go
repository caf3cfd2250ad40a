package i18nhttp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/text/language"
)

func TestResolveTag(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "http://example.com/?lang=pt-BR", nil)
	tag, persist := ResolveTag(req)
	if tag != language.BrazilianPortuguese {
		t.Fatalf("tag = %v, want %v", tag, language.BrazilianPortuguese)
	}
	if !persist {
		t.Fatal("persist = false, want true")
	}
}

func TestResolveTagAcceptLanguage(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "http://example.com/", nil)
	req.Header.Set("Accept-Language", "pt;q=0.9, fr;q=0.8")
	tag, persist := ResolveTag(req)
	if tag != language.BrazilianPortuguese {
		t.Fatalf("tag = %v, want %v", tag, language.BrazilianPortuguese)
	}
	if persist {
		t.Fatal("persist = true, want false")
	}
}

func TestResolveTagCookie(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "http://example.com/", nil)
	req.AddCookie(&http.Cookie{Name: LangCookieName, Value: "pt-BR"})
	req.Header.Set("Accept-Language", "en-US")
	tag, _ := ResolveTag(req)
	if tag != language.BrazilianPortuguese {
		t.Fatalf("tag = %v, want %v", tag, language.BrazilianPortuguese)
	}
}

func TestResolveTagDefaults(t *testing.T) {
	t.Parallel()

	if tag, _ := ResolveTag(nil); tag != Default() {
		t.Fatalf("nil request tag = %v, want %v", tag, Default())
	}
	req := httptest.NewRequest("GET", "http://example.com/?lang=xx-invalid", nil)
	if tag, _ := ResolveTag(req); tag != Default() {
		t.Fatalf("tag = %v, want %v", tag, Default())
	}
}

func TestMiddlewareStoresLocale(t *testing.T) {
	t.Parallel()

	var got string
	handler := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = Locale(r)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "http://example.com/?lang=pt-BR", nil))

	if got != "pt-BR" {
		t.Fatalf("locale = %q, want %q", got, "pt-BR")
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != LangCookieName {
		t.Fatalf("cookies = %v, want %s", cookies, LangCookieName)
	}
}

func TestLocaleWithoutMiddleware(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "http://example.com/", nil)
	if got := Locale(req); got != "en-US" {
		t.Fatalf("locale = %q, want %q", got, "en-US")
	}
}
