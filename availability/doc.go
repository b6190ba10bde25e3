// Package availability implements the per-model circuit breaker used by the
// ModelMesh selector. A model that signals quota exhaustion is suppressed
// for a time-boxed window; usage counters accumulate alongside without
// affecting availability. All state is in-memory and resets on restart.
package availability
