// Package store persists user identity records in Redis: one hash per user
// plus unique-index keys for username and email, with Lua scripts for
// atomic creation and refresh-hash compare-and-swap.
package store
