// Package logging provides a minimal logging interface and adapters for ModelMesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the dispatch components use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - MeshLogger with dispatch-domain helpers (model calls, selection, reflection)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	mesh := modelmesh.New(func(o *modelmesh.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
