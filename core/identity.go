package core

import (
	"strings"

	"github.com/goliatone/go-mailchimp/digest"
)

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IdentityKey is the member lookup key the API expects: the MD5 of the
// normalized address as 32 lowercase hex characters.
func IdentityKey(email string) string {
	return digest.String(NormalizeEmail(email))
}
