package i18n

import "testing"

func TestGetCatalogFallback(t *testing.T) {
	base := GetCatalog("en-US")
	if base == nil {
		t.Fatal("expected base catalog")
	}
	if fallback := GetCatalog("missing-locale"); fallback != base {
		t.Fatal("expected fallback to en-US catalog")
	}
	if empty := GetCatalog(""); empty != base {
		t.Fatal("expected empty locale to resolve to en-US")
	}
}

func TestGetCatalogMatchesRegion(t *testing.T) {
	got := GetCatalog("pt")
	if got.Locale() != "pt-BR" {
		t.Fatalf("locale = %q, want %q", got.Locale(), "pt-BR")
	}
}

func TestCatalogsCoverSameCodes(t *testing.T) {
	for code := range enUSMessages {
		if _, ok := ptBRMessages[code]; !ok {
			t.Errorf("pt-BR missing %s", code)
		}
	}
	for code := range ptBRMessages {
		if _, ok := enUSMessages[code]; !ok {
			t.Errorf("en-US missing %s", code)
		}
	}
}

func TestFormatRendersMetadata(t *testing.T) {
	got := GetCatalog("en-US").Format(CodePasswordTooShort, map[string]string{"MinLength": "8"})
	if got != "Password must have at least 8 characters" {
		t.Fatalf("Format = %q", got)
	}
}

func TestFormatFallbacks(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "hello {{.Name}}",
	})

	if cat.Format("unknown", nil) != "unknown" {
		t.Fatal("expected code fallback when template missing")
	}
	if cat.Format("code", nil) != "hello <no value>" {
		t.Fatal("expected template to render missing metadata")
	}
}

func TestFormatTemplateErrorFallback(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "{{ if .Name }}",
	})
	if cat.Format("code", map[string]string{"Name": "X"}) != "{{ if .Name }}" {
		t.Fatal("expected template fallback on parse error")
	}
}

func TestRegisterCatalog(t *testing.T) {
	custom := NewCatalog("custom", map[Code]string{"code": "ok"})
	RegisterCatalog("custom", custom)
	if got := GetCatalog("custom"); got != custom {
		t.Fatal("expected registered catalog")
	}
}

func TestRegistrationStartedMessage(t *testing.T) {
	if got := GetCatalog("pt-BR").Format(MessageRegistrationStarted, nil); got != "Cadastro recebido, verifique seu e-mail para ativar a conta" {
		t.Fatalf("pt-BR message = %q", got)
	}
	if got := GetCatalog("").Format(MessageRegistrationStarted, nil); got == MessageRegistrationStarted {
		t.Fatalf("en-US message missing for %s", MessageRegistrationStarted)
	}
}
