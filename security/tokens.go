package security

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	PlacementHeader = "header"
	PlacementQuery  = "query"

	tokenPlaceholder = "{token}"
	redactedSecret   = "[REDACTED]"
)

var (
	ErrTokenNotDeclared = errors.New("security: token not declared")
	ErrTokenMissing     = errors.New("security: token value not configured")
)

type Placement struct {
	Type   string `yaml:"type"`
	Name   string `yaml:"name"`
	Format string `yaml:"format,omitempty"`
}

// Render substitutes the secret into the placement format. An empty format
// yields the bare secret.
func (p Placement) Render(secret Secret) string {
	if strings.TrimSpace(p.Format) == "" {
		return secret.Reveal()
	}
	return strings.ReplaceAll(p.Format, tokenPlaceholder, secret.Reveal())
}

type TokenDeclaration struct {
	Name      string    `yaml:"-"`
	Env       string    `yaml:"env"`
	Type      string    `yaml:"type"`
	Domains   []string  `yaml:"domains"`
	Placement Placement `yaml:"placement"`
}

func (d TokenDeclaration) Validate() error {
	if strings.TrimSpace(d.Env) == "" {
		return fmt.Errorf("security: token %q: env is required", d.Name)
	}
	if len(d.Domains) == 0 {
		return fmt.Errorf("security: token %q: at least one domain is required", d.Name)
	}
	switch strings.ToLower(strings.TrimSpace(d.Placement.Type)) {
	case PlacementHeader, PlacementQuery:
	default:
		return fmt.Errorf("security: token %q: placement type %q is invalid", d.Name, d.Placement.Type)
	}
	if strings.TrimSpace(d.Placement.Name) == "" {
		return fmt.Errorf("security: token %q: placement name is required", d.Name)
	}
	return nil
}

// AllowsHost reports whether host matches one of the declared domains.
func (d TokenDeclaration) AllowsHost(host string) bool {
	for _, pattern := range d.Domains {
		if MatchDomain(pattern, host) {
			return true
		}
	}
	return false
}

// MatchDomain matches host against pattern. "*.example.com" matches any
// subdomain of example.com but not example.com itself.
func MatchDomain(pattern string, host string) bool {
	pattern = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(pattern), "."))
	host = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(host), "."))
	if pattern == "" || host == "" {
		return false
	}
	if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
		return strings.HasSuffix(host, "."+suffix) && len(host) > len(suffix)+1
	}
	return host == pattern
}

// Secret wraps a token value so it does not print by accident.
type Secret struct {
	value string
}

func NewSecret(value string) Secret {
	return Secret{value: value}
}

func (s Secret) Reveal() string {
	return s.value
}

func (s Secret) String() string {
	return redactedSecret
}

func (s Secret) GoString() string {
	return redactedSecret
}

func (s Secret) Empty() bool {
	return strings.TrimSpace(s.value) == ""
}

type permissionsFile struct {
	Tokens map[string]TokenDeclaration `yaml:"tokens"`
}

type StoreOption func(*TokenStore)

// WithLookupEnv replaces os.LookupEnv for secret resolution.
func WithLookupEnv(lookup func(string) (string, bool)) StoreOption {
	return func(s *TokenStore) {
		if lookup != nil {
			s.lookupEnv = lookup
		}
	}
}

// WithSealer opens sealed values found in tokens.yaml.
func WithSealer(sealer *Sealer) StoreOption {
	return func(s *TokenStore) {
		s.sealer = sealer
	}
}

// TokenStore resolves declared tokens. Values come from the environment
// first and tokens.yaml second.
type TokenStore struct {
	mu           sync.RWMutex
	declarations map[string]TokenDeclaration
	values       map[string]string
	lookupEnv    func(string) (string, bool)
	sealer       *Sealer
}

func NewTokenStore(declarations map[string]TokenDeclaration, values map[string]string, opts ...StoreOption) (*TokenStore, error) {
	store := &TokenStore{
		declarations: map[string]TokenDeclaration{},
		values:       map[string]string{},
		lookupEnv:    os.LookupEnv,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(store)
	}
	for name, decl := range declarations {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		decl.Name = name
		decl.Placement.Type = strings.ToLower(strings.TrimSpace(decl.Placement.Type))
		if err := decl.Validate(); err != nil {
			return nil, err
		}
		store.declarations[name] = decl
	}
	for key, value := range values {
		store.values[strings.TrimSpace(key)] = value
	}
	return store, nil
}

// LoadTokenStore reads permissions and token files. Missing files are
// treated as empty.
func LoadTokenStore(permissionsPath string, tokensPath string, opts ...StoreOption) (*TokenStore, error) {
	var permissions permissionsFile
	if err := readYAML(permissionsPath, &permissions); err != nil {
		return nil, err
	}
	values := map[string]string{}
	if err := readYAML(tokensPath, &values); err != nil {
		return nil, err
	}
	return NewTokenStore(permissions.Tokens, values, opts...)
}

// DefaultPaths returns the permissions and tokens files under ~/.pave.
func DefaultPaths() (string, string) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	dir := filepath.Join(home, ".pave")
	return filepath.Join(dir, "permissions.yaml"), filepath.Join(dir, "tokens.yaml")
}

func (s *TokenStore) Declaration(name string) (TokenDeclaration, bool) {
	if s == nil {
		return TokenDeclaration{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	decl, ok := s.declarations[strings.TrimSpace(name)]
	return decl, ok
}

func (s *TokenStore) Names() []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.declarations))
	for name := range s.declarations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasToken reports whether name is declared and has a value available.
func (s *TokenStore) HasToken(name string) bool {
	secret, err := s.Resolve(name)
	return err == nil && !secret.Empty()
}

func (s *TokenStore) Resolve(name string) (Secret, error) {
	decl, ok := s.Declaration(name)
	if !ok {
		return Secret{}, fmt.Errorf("%w: %s", ErrTokenNotDeclared, name)
	}
	if value, ok := s.lookupEnv(decl.Env); ok && strings.TrimSpace(value) != "" {
		return s.open(decl, value)
	}
	s.mu.RLock()
	value, ok := s.values[decl.Env]
	s.mu.RUnlock()
	if !ok || strings.TrimSpace(value) == "" {
		return Secret{}, fmt.Errorf("%w: %s", ErrTokenMissing, name)
	}
	return s.open(decl, value)
}

func (s *TokenStore) open(decl TokenDeclaration, value string) (Secret, error) {
	value = strings.TrimSpace(value)
	if !IsSealed(value) {
		return NewSecret(value), nil
	}
	if s.sealer == nil {
		return Secret{}, fmt.Errorf("security: token %q is sealed and no key is configured", decl.Name)
	}
	plaintext, err := s.sealer.Open(value)
	if err != nil {
		return Secret{}, fmt.Errorf("security: token %q: %w", decl.Name, err)
	}
	return NewSecret(string(plaintext)), nil
}

func readYAML(path string, target any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("security: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("security: parse %s: %w", path, err)
	}
	return nil
}
