// Package state layers typed, per-principal property access on top of a
// ports.StateStore. Reads never fail for a valid principal: a missing key
// materializes to a caller-supplied default which is persisted atomically
// with the read, so concurrent first-reads converge on one default instance.
package state
