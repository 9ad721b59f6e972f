// Package metrics implements the engine's lock-free in-process counters.
// Exposition formats live with the transport layer, not here.
package metrics
