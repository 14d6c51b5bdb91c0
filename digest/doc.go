// Package digest implements the RFC 1321 MD5 message digest used to derive
// stable member lookup keys. The output is bit-exact with any standard MD5
// implementation so that keys match the values the remote API computes.
//
// MD5 is used here as an addressing convention, not for secrecy.
package digest
