// Package model defines the provider-agnostic abstractions for addressing
// language models inside ModelMesh.
//
// Core goals:
//   - Describe models declaratively (Descriptor) in an immutable Registry
//   - Keep invocation behind a single synchronous interface (Invoker)
//   - Provide a closed error taxonomy shared by all providers
//   - Facilitate lightweight mocking for tests (MockInvoker)
//
// Providers (e.g. OpenAI, Anthropic) implement the Invoker interface from
// this package so higher layers (selector, executor, delegation) remain
// decoupled from vendor SDKs.
package model
