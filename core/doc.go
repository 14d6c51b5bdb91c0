// Package core contains the secure request client for the Mailchimp
// Marketing API: configuration, the credential broker contract, request
// construction, outcome normalization and the API operations built on them.
//
// Core never holds a secret. It names a credential slot, asks the injected
// CredentialBroker whether the slot is configured, and hands every request
// to the broker, which places the secret according to host rules.
package core
