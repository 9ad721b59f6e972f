// Package token manages issuance and verification of the signed, expiring
// access and refresh tokens, with a distinct secret and TTL per kind.
package token
