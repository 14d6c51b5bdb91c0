package core

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	HistoryDriverSQLite   = "sqlite"
	HistoryDriverPostgres = "postgres"
)

var datacenterPattern = regexp.MustCompile(`^[a-z]{2,}[0-9]+$`)

type HistoryConfig struct {
	Enabled bool   `koanf:"enabled" mapstructure:"enabled"`
	Driver  string `koanf:"driver" mapstructure:"driver"`
	DSN     string `koanf:"dsn" mapstructure:"dsn"`
}

type Config struct {
	ServiceName    string        `koanf:"service_name" mapstructure:"service_name"`
	Datacenter     string        `koanf:"datacenter" mapstructure:"datacenter"`
	CredentialName string        `koanf:"credential_name" mapstructure:"credential_name"`
	BaseDomain     string        `koanf:"base_domain" mapstructure:"base_domain"`
	APIVersion     string        `koanf:"api_version" mapstructure:"api_version"`
	TimeoutMS      int           `koanf:"timeout_ms" mapstructure:"timeout_ms"`
	History        HistoryConfig `koanf:"history" mapstructure:"history"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:    "mailchimp",
		CredentialName: DefaultCredentialName,
		BaseDomain:     "api.mailchimp.com",
		APIVersion:     "3.0",
		TimeoutMS:      30000,
		History: HistoryConfig{
			Driver: HistoryDriverSQLite,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if err := ValidateDatacenter(c.Datacenter); err != nil {
		return err
	}
	if strings.TrimSpace(c.CredentialName) == "" {
		return fmt.Errorf("core: credential_name is required")
	}
	if strings.TrimSpace(c.BaseDomain) == "" {
		return fmt.Errorf("core: base_domain is required")
	}
	if strings.TrimSpace(c.APIVersion) == "" {
		return fmt.Errorf("core: api_version is required")
	}
	if c.TimeoutMS <= 0 {
		return fmt.Errorf("core: timeout_ms must be > 0")
	}
	switch strings.ToLower(strings.TrimSpace(c.History.Driver)) {
	case "", HistoryDriverSQLite, HistoryDriverPostgres:
	default:
		return fmt.Errorf("core: history driver %q is invalid", c.History.Driver)
	}
	if c.History.Enabled && strings.TrimSpace(c.History.DSN) == "" {
		return fmt.Errorf("core: history dsn is required when history is enabled")
	}
	return nil
}

// ValidateDatacenter checks the account region segment of an API key
// (for example "us21"). It becomes a host label, so nothing else is allowed.
func ValidateDatacenter(dc string) error {
	dc = strings.TrimSpace(dc)
	if dc == "" {
		return fmt.Errorf("core: datacenter is required")
	}
	if !datacenterPattern.MatchString(dc) {
		return fmt.Errorf("core: datacenter %q is invalid", dc)
	}
	return nil
}

func (c Config) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return time.Duration(DefaultConfig().TimeoutMS) * time.Millisecond
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Endpoint is the per-account base of every request URL.
type Endpoint struct {
	Origin   string
	BasePath string
}

func NewEndpoint(cfg Config) Endpoint {
	return Endpoint{
		Origin:   "https://" + strings.TrimSpace(cfg.Datacenter) + "." + strings.Trim(strings.TrimSpace(cfg.BaseDomain), "."),
		BasePath: "/" + strings.Trim(strings.TrimSpace(cfg.APIVersion), "/"),
	}
}

func (e Endpoint) URL(path string) string {
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimSuffix(e.Origin, "/") + strings.TrimSuffix(e.BasePath, "/") + path
}

// DomainPattern is the host pattern the credential must be scoped to.
func (c Config) DomainPattern() string {
	return "*." + strings.Trim(strings.TrimSpace(c.BaseDomain), ".")
}
