package security

import (
	"bytes"
	"strings"
	"testing"
)

func TestSealer_RoundTrip(t *testing.T) {
	sealer, err := NewSealer([]byte("super-secret-test-key"), WithKeyID("laptop"), WithKeyVersion(3))
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}
	sealed, err := sealer.Seal([]byte("abc123-us21"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if !IsSealed(sealed) || strings.Contains(sealed, "abc123") {
		t.Fatalf("expected opaque sealed value, got %q", sealed)
	}
	opened, err := sealer.Open(sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if string(opened) != "abc123-us21" {
		t.Fatalf("unexpected plaintext %q", opened)
	}
}

func TestSealer_RejectsKeyMismatch(t *testing.T) {
	issuer, err := NewSealer([]byte("key-one"), WithKeyID("a"))
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	sealed, err := issuer.Seal([]byte("payload"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	otherID, _ := NewSealer([]byte("key-one"), WithKeyID("b"))
	if _, err := otherID.Open(sealed); err == nil {
		t.Fatalf("expected key id mismatch")
	}
	otherKey, _ := NewSealer([]byte("key-two"), WithKeyID("a"))
	if _, err := otherKey.Open(sealed); err == nil {
		t.Fatalf("expected decryption failure with wrong key")
	}
}

func TestSealer_Validation(t *testing.T) {
	if _, err := NewSealer([]byte("  ")); err == nil {
		t.Fatalf("expected empty key to fail")
	}
	sealer, _ := NewSealer([]byte("k"))
	if _, err := sealer.Seal(nil); err == nil {
		t.Fatalf("expected empty plaintext to fail")
	}
	if _, err := sealer.Open("plain"); err == nil {
		t.Fatalf("expected unsealed value to fail")
	}
}

func TestNormalizeKey_AlwaysAES256(t *testing.T) {
	for _, size := range []int{1, 16, 24, 32, 40} {
		material := bytes.Repeat([]byte("k"), size)
		if got := len(normalizeKey(material)); got != 32 {
			t.Fatalf("key material of %d bytes produced a %d byte key", size, got)
		}
	}
	raw := bytes.Repeat([]byte("r"), 32)
	if !bytes.Equal(normalizeKey(raw), raw) {
		t.Fatalf("expected 32 byte material to be used as is")
	}
}
