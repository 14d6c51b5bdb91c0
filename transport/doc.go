// Package transport is the host side of authenticated requests. Broker
// implements core.CredentialBroker on top of a security.TokenStore and the
// REST adapter, so the client never handles the secret itself.
package transport
