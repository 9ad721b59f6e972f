// Package streamauth implements the credential and session subsystem for the
// streaming backend: registration, login, logout, and JWT access/refresh token
// pairs with single-active-refresh-token rotation.
//
// The package is the public surface. It exposes [Engine], [Builder], [Config],
// sentinel errors, and value types ([UserIdentity], [TokenPair]). Flow
// orchestration lives under internal/flows and is never exported; the token
// codec, password hasher, Redis credential store, and HTTP layer live in their
// own subpackages (token, password, store, middleware, httpapi).
//
// # Session model
//
// Each user holds at most one live refresh token. Issuing a session stores the
// SHA-256 hash of the refresh token on the user record; rotation replaces that
// hash with an atomic compare-and-swap, so a superseded token presented a
// second time fails and surfaces as reuse detection. Logout unsets the hash.
//
// # Architecture boundaries
//
//   - Engine methods perform all I/O; construction via [Builder.Build] is
//     allocation-only apart from config validation.
//   - Verification failures are never detailed to callers beyond the sentinel
//     error; the original cause is logged and audited internally.
//   - The HTTP layer (httpapi) is the single point that translates errors to
//     status codes and the response envelope.
package streamauth
