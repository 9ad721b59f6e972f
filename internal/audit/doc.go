// Package audit defines the engine's audit event model, sink interfaces,
// and the asynchronous dispatcher that decouples request latency from sink
// delivery.
package audit
