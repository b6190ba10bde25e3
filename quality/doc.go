// Package quality scores model responses and drives the bounded
// generate-critique-improve reflection loop.
//
// The default HeuristicAssessor is usable without an external judge model:
// it scores on length, structure, apology markers and prompt/response token
// overlap. Assessor is an interface so an LLM-backed judge can be plugged
// in without touching the loop.
package quality
