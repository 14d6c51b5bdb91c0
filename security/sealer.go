package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// SealedPrefix marks a token value that was sealed with a Sealer.
const SealedPrefix = "mailchimp.secret.v1:"

const sealAlgorithm = "aes-256-gcm"

type SealerOption func(*Sealer)

// Sealer encrypts token values at rest with a host key using AES-GCM.
type Sealer struct {
	key     []byte
	keyID   string
	version int
}

type sealedValue struct {
	KeyID      string `json:"kid"`
	Version    int    `json:"ver"`
	Algorithm  string `json:"alg"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

func WithKeyID(id string) SealerOption {
	return func(s *Sealer) {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			s.keyID = trimmed
		}
	}
}

func WithKeyVersion(version int) SealerOption {
	return func(s *Sealer) {
		if version > 0 {
			s.version = version
		}
	}
}

// NewSealer derives an AES-256 key from keyMaterial. Material that is already
// 32 bytes long is used as is; anything else is hashed with SHA-256.
func NewSealer(keyMaterial []byte, opts ...SealerOption) (*Sealer, error) {
	key := bytes.TrimSpace(keyMaterial)
	if len(key) == 0 {
		return nil, fmt.Errorf("security: key material is required")
	}
	sealer := &Sealer{
		key:     normalizeKey(key),
		keyID:   "host-key",
		version: 1,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(sealer)
	}
	return sealer, nil
}

func IsSealed(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), SealedPrefix)
}

func (s *Sealer) Seal(plaintext []byte) (string, error) {
	if s == nil {
		return "", fmt.Errorf("security: sealer is nil")
	}
	if len(plaintext) == 0 {
		return "", fmt.Errorf("security: plaintext is required")
	}
	gcm, err := s.aead()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("security: nonce generation failed: %w", err)
	}
	data, err := json.Marshal(sealedValue{
		KeyID:      s.keyID,
		Version:    s.version,
		Algorithm:  sealAlgorithm,
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(gcm.Seal(nil, nonce, plaintext, nil)),
	})
	if err != nil {
		return "", fmt.Errorf("security: encode sealed value: %w", err)
	}
	return SealedPrefix + base64.RawURLEncoding.EncodeToString(data), nil
}

func (s *Sealer) Open(value string) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("security: sealer is nil")
	}
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, SealedPrefix) {
		return nil, fmt.Errorf("security: value is not sealed")
	}
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, SealedPrefix))
	if err != nil {
		return nil, fmt.Errorf("security: decode sealed value: %w", err)
	}
	var parsed sealedValue
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("security: decode sealed value: %w", err)
	}
	if parsed.KeyID != "" && parsed.KeyID != s.keyID {
		return nil, fmt.Errorf("security: key id mismatch: got %q want %q", parsed.KeyID, s.keyID)
	}
	if parsed.Version > 0 && parsed.Version != s.version {
		return nil, fmt.Errorf("security: key version mismatch: got %d want %d", parsed.Version, s.version)
	}
	if parsed.Algorithm != "" && parsed.Algorithm != sealAlgorithm {
		return nil, fmt.Errorf("security: unsupported algorithm %q", parsed.Algorithm)
	}
	nonce, err := base64.StdEncoding.DecodeString(parsed.Nonce)
	if err != nil {
		return nil, fmt.Errorf("security: decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(parsed.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("security: decode ciphertext: %w", err)
	}
	gcm, err := s.aead()
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("security: decrypt payload: %w", err)
	}
	return plaintext, nil
}

func (s *Sealer) KeyID() string {
	if s == nil {
		return ""
	}
	return s.keyID
}

func (s *Sealer) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, fmt.Errorf("security: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("security: create gcm: %w", err)
	}
	return gcm, nil
}

func normalizeKey(value []byte) []byte {
	if len(value) == 32 {
		key := make([]byte, len(value))
		copy(key, value)
		return key
	}
	sum := sha256.Sum256(value)
	return sum[:]
}
