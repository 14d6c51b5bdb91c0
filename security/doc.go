// Package security holds the host side of credential handling: token
// declarations from permissions.yaml, secret values from the environment or
// tokens.yaml, and optional sealing of stored values.
package security
