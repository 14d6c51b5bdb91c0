package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

const permissionsYAML = `tokens:
  mailchimp:
    env: MAILCHIMP_API_KEY
    type: api_key
    domains:
      - "*.api.mailchimp.com"
    placement:
      type: header
      name: Authorization
      format: "Bearer {token}"
`

func writeFile(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func noEnv(string) (string, bool) { return "", false }

func TestLoadTokenStore_ResolvesFromTokensFile(t *testing.T) {
	dir := t.TempDir()
	permissions := writeFile(t, dir, "permissions.yaml", permissionsYAML)
	tokens := writeFile(t, dir, "tokens.yaml", "MAILCHIMP_API_KEY: \"abc123-us21\"\n")

	store, err := LoadTokenStore(permissions, tokens, WithLookupEnv(noEnv))
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	if !store.HasToken("mailchimp") {
		t.Fatalf("expected mailchimp token to be available")
	}
	secret, err := store.Resolve("mailchimp")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if secret.Reveal() != "abc123-us21" {
		t.Fatalf("unexpected secret")
	}
	decl, _ := store.Declaration("mailchimp")
	if decl.Placement.Render(secret) != "Bearer abc123-us21" {
		t.Fatalf("unexpected rendered placement")
	}
	if names := store.Names(); len(names) != 1 || names[0] != "mailchimp" {
		t.Fatalf("unexpected declared names %v", names)
	}
}

func TestTokenStore_EnvironmentWins(t *testing.T) {
	decls := map[string]TokenDeclaration{"mailchimp": {
		Env:       "MAILCHIMP_API_KEY",
		Domains:   []string{"*.api.mailchimp.com"},
		Placement: Placement{Type: "header", Name: "Authorization"},
	}}
	store, err := NewTokenStore(decls, map[string]string{"MAILCHIMP_API_KEY": "from-file"},
		WithLookupEnv(func(key string) (string, bool) {
			if key == "MAILCHIMP_API_KEY" {
				return "from-env", true
			}
			return "", false
		}))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	secret, err := store.Resolve("mailchimp")
	if err != nil || secret.Reveal() != "from-env" {
		t.Fatalf("expected env value, got err=%v", err)
	}
}

func TestTokenStore_MissingValues(t *testing.T) {
	dir := t.TempDir()
	permissions := writeFile(t, dir, "permissions.yaml", permissionsYAML)

	store, err := LoadTokenStore(permissions, filepath.Join(dir, "absent.yaml"), WithLookupEnv(noEnv))
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	if store.HasToken("mailchimp") {
		t.Fatalf("expected token without value to be unavailable")
	}
	if _, err := store.Resolve("mailchimp"); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}
	if _, err := store.Resolve("github"); !errors.Is(err, ErrTokenNotDeclared) {
		t.Fatalf("expected ErrTokenNotDeclared, got %v", err)
	}
}

func TestTokenStore_RejectsInvalidDeclaration(t *testing.T) {
	_, err := NewTokenStore(map[string]TokenDeclaration{"mailchimp": {
		Env:       "MAILCHIMP_API_KEY",
		Domains:   []string{"*.api.mailchimp.com"},
		Placement: Placement{Type: "cookie", Name: "x"},
	}}, nil)
	if err == nil {
		t.Fatalf("expected invalid placement type to fail")
	}
}

func TestTokenStore_OpensSealedValues(t *testing.T) {
	sealer, err := NewSealer([]byte("host key"))
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}
	sealed, err := sealer.Seal([]byte("abc123-us21"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	dir := t.TempDir()
	permissions := writeFile(t, dir, "permissions.yaml", permissionsYAML)
	tokens := writeFile(t, dir, "tokens.yaml", fmt.Sprintf("MAILCHIMP_API_KEY: %q\n", sealed))

	locked, err := LoadTokenStore(permissions, tokens, WithLookupEnv(noEnv))
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	if locked.HasToken("mailchimp") {
		t.Fatalf("expected sealed value without key to be unavailable")
	}

	store, err := LoadTokenStore(permissions, tokens, WithLookupEnv(noEnv), WithSealer(sealer))
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	secret, err := store.Resolve("mailchimp")
	if err != nil || secret.Reveal() != "abc123-us21" {
		t.Fatalf("expected opened secret, err=%v", err)
	}
}

func TestMatchDomain(t *testing.T) {
	cases := []struct {
		pattern string
		host    string
		want    bool
	}{
		{"*.api.mailchimp.com", "us21.api.mailchimp.com", true},
		{"*.api.mailchimp.com", "US21.API.Mailchimp.com", true},
		{"*.api.mailchimp.com", "api.mailchimp.com", false},
		{"*.api.mailchimp.com", "evil-api.mailchimp.com", false},
		{"*.api.mailchimp.com", "us21.api.mailchimp.com.evil.io", false},
		{"login.mailchimp.com", "login.mailchimp.com", true},
		{"", "x.com", false},
	}
	for _, tc := range cases {
		if got := MatchDomain(tc.pattern, tc.host); got != tc.want {
			t.Fatalf("MatchDomain(%q, %q) = %v, want %v", tc.pattern, tc.host, got, tc.want)
		}
	}
}

func TestSecretDoesNotPrint(t *testing.T) {
	secret := NewSecret("abc123")
	if fmt.Sprintf("%v %s %#v", secret, secret, secret) != "[REDACTED] [REDACTED] [REDACTED]" {
		t.Fatalf("expected secret to be redacted when formatted")
	}
}
