package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLFileLoader reads raw configuration from a YAML file. A missing file
// yields an empty map unless Required is set.
type YAMLFileLoader struct {
	Path     string
	Required bool
}

func (l YAMLFileLoader) LoadRaw(context.Context) (map[string]any, error) {
	path := strings.TrimSpace(l.Path)
	if path == "" {
		return map[string]any{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !l.Required {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("core: read config file %s: %w", path, err)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("core: parse config file %s: %w", path, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

const (
	EnvDatacenter     = "MAILCHIMP_DC"
	EnvTimeoutMS      = "MAILCHIMP_TIMEOUT_MS"
	EnvHistoryDSN     = "MAILCHIMP_HISTORY_DSN"
	EnvHistoryDriver  = "MAILCHIMP_HISTORY_DRIVER"
	EnvCredentialName = "MAILCHIMP_CREDENTIAL"
)

// EnvConfigLoader maps MAILCHIMP_* environment variables onto config keys.
type EnvConfigLoader struct {
	Lookup func(key string) (string, bool)
}

func (l EnvConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	lookup := l.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	raw := map[string]any{}
	get := func(key string) string {
		value, ok := lookup(key)
		if !ok {
			return ""
		}
		return strings.TrimSpace(value)
	}
	if value := get(EnvDatacenter); value != "" {
		raw["datacenter"] = strings.ToLower(value)
	}
	if value := get(EnvCredentialName); value != "" {
		raw["credential_name"] = value
	}
	if value := get(EnvTimeoutMS); value != "" {
		timeout, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("core: %s must be an integer: %w", EnvTimeoutMS, err)
		}
		raw["timeout_ms"] = timeout
	}
	history := map[string]any{}
	if value := get(EnvHistoryDSN); value != "" {
		history["enabled"] = true
		history["dsn"] = value
	}
	if value := get(EnvHistoryDriver); value != "" {
		history["driver"] = strings.ToLower(value)
	}
	if len(history) > 0 {
		raw["history"] = history
	}
	return raw, nil
}
