// Package diagnostic holds the immutable records rules report: descriptors,
// diagnostics with their property bags, a goroutine-safe collection and the
// JSON and msgpack wire encodings.
package diagnostic
