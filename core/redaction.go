package core

import "strings"

const RedactedValue = "[REDACTED]"

var credentialMarkers = []string{"authorization", "token", "secret", "password", "apikey", "api_key", "api-key", "credential", "signature"}

// RedactHeaders copies headers for logging. Values whose name looks credential
// bearing, or matches one of names case-insensitively, become RedactedValue.
func RedactHeaders(headers map[string]string, names ...string) map[string]string {
	if len(headers) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(headers))
	for key, value := range headers {
		if isCredentialKey(key, names) {
			value = RedactedValue
		}
		out[key] = value
	}
	return out
}

func isCredentialKey(key string, names []string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return false
	}
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" && strings.EqualFold(key, name) {
			return true
		}
	}
	for _, marker := range credentialMarkers {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}
