// Package router implements the resilient dispatch core of ModelMesh:
// ranked model selection with exclusion sets, provider error classification
// against a versioned keyword table, and the request executor that
// orchestrates select → invoke → retry → escalate until success or
// exhaustion.
//
// Execution model:
//   - The Selector filters the registry against the availability tracker
//     and ranks surviving candidates by (priority asc, intelligence desc).
//   - The Executor tries up to MaxModelAttempts distinct models. Transient
//     faults are retried on the same model with exponential backoff; quota
//     faults blacklist the model immediately and escalate to the next
//     candidate.
//   - Exhaustion is a normal terminal outcome surfaced as *ExhaustedError,
//     never a panic; callers are expected to degrade gracefully.
package router
