// Package delegate is the top-level decision engine of ModelMesh. It
// combines the complexity classifier, best-effort context enrichment, the
// quality-gated reflection loop and a TTL-bounded cache of agent
// topologies over the external agent execution backend.
//
// Routing:
//   - Requests below the delegation threshold take the direct path: enrich
//     the prompt, reflect, return.
//   - Delegation-worthy requests run a strictly sequential two-stage
//     research → writing pipeline through a cached topology.
//   - Every failure on either path degrades into plain-language user text;
//     nothing propagates out of Handle as a raw error except context
//     cancellation.
package delegate
