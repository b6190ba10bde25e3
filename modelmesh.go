// Package modelmesh provides a high-level façade over the resilient model
// dispatch core: ranked selection over a model registry, per-model circuit
// breaking, retry/escalation orchestration, a quality-gated reflection
// loop and a delegation engine with a cached multi-agent pipeline. Most
// applications interact with this package by:
//  1. Creating a Mesh via New() with a model catalog and an Invoker
//  2. Optionally wiring a knowledge retrieval service and an agent backend
//  3. Calling Handle for full routing, or Execute for a single dispatch
//
// The façade delegates orchestration to the router, quality and delegate
// packages while keeping setup ergonomics concise. All defaults are safe
// for local development and testing; production deployments typically
// supply SDK-backed invokers and a structured logger.
package modelmesh

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/modelmesh/availability"
	"github.com/hupe1980/modelmesh/config"
	"github.com/hupe1980/modelmesh/delegate"
	"github.com/hupe1980/modelmesh/enrich"
	"github.com/hupe1980/modelmesh/logging"
	"github.com/hupe1980/modelmesh/model"
	"github.com/hupe1980/modelmesh/quality"
	"github.com/hupe1980/modelmesh/router"
)

// Options configures the Mesh instance.
type Options struct {
	// Config carries the recognized numeric options; defaults to
	// config.Default().
	Config config.Config

	// Registry is the static model catalog. When nil it is built from
	// Config.Models.
	Registry *model.Registry

	// Invoker executes prompts against models. Required.
	Invoker model.Invoker

	// Retrieval is the optional external knowledge service.
	Retrieval enrich.KnowledgeRetrieval

	// Backend is the optional agent execution backend; nil disables the
	// delegated pipeline.
	Backend delegate.AgentBackend

	// Assessor scores reflection candidates (defaults to the heuristic
	// assessor).
	Assessor quality.Assessor

	// Table classifies provider errors (defaults to the embedded table,
	// or the file named by Config.ClassificationTablePath).
	Table *router.ClassificationTable

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Mesh is the high-level façade aggregating the dispatch components.
type Mesh struct {
	opts     Options
	registry *model.Registry
	tracker  *availability.Tracker
	executor *router.Executor
	engine   *delegate.Engine
}

// New creates a new Mesh with optional overrides. It fails when no model
// catalog or invoker is supplied; everything else has a working default.
func New(optFns ...func(o *Options)) (*Mesh, error) {
	opts := Options{
		Config: config.Default(),
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	registry := opts.Registry
	if registry == nil {
		var err error
		registry, err = model.NewRegistry(opts.Config.Models...)
		if err != nil {
			return nil, err
		}
	}
	if registry.Len() == 0 {
		return nil, errors.New("modelmesh: no models configured")
	}
	if opts.Invoker == nil {
		return nil, errors.New("modelmesh: no invoker configured")
	}

	table := opts.Table
	if table == nil {
		if path := opts.Config.ClassificationTablePath; path != "" {
			loaded, err := router.LoadClassificationTable(path)
			if err != nil {
				return nil, err
			}
			table = loaded
		} else {
			table = router.DefaultClassificationTable()
		}
	}

	tracker := availability.NewTracker()
	selector := router.NewSelector(registry, tracker,
		router.WithIntelligenceThreshold(opts.Config.IntelligenceThreshold),
		router.WithSelectorLogger(opts.Logger),
	)
	executor := router.NewExecutor(selector, tracker, opts.Invoker, func(o *router.ExecutorOptions) {
		o.MaxModelAttempts = opts.Config.MaxModelAttempts
		o.MaxRetriesPerModel = opts.Config.MaxRetriesPerModel
		o.BlacklistDuration = opts.Config.BlacklistDuration()
		o.BackoffCap = opts.Config.BackoffCap()
		o.ColdStartWait = opts.Config.ColdStartWait()
		o.InvokeTimeout = opts.Config.InvokeTimeout()
		o.Table = table
		o.Logger = opts.Logger
	})
	reflector := quality.NewReflector(executor, func(o *quality.ReflectorOptions) {
		o.MaxIterations = opts.Config.MaxReflectionIterations
		o.MinQuality = opts.Config.MinQualityThreshold
		o.Assessor = opts.Assessor
		o.Logger = opts.Logger
	})
	enricher := enrich.NewEnricher(opts.Retrieval, func(o *enrich.EnricherOptions) {
		o.Timeout = opts.Config.RetrievalTimeout()
		o.DisableWindow = opts.Config.ContextDisableWindow()
		o.Logger = opts.Logger
	})
	engine := delegate.NewEngine(reflector, enricher, opts.Backend, func(o *delegate.EngineOptions) {
		o.CacheTTL = opts.Config.AgentCacheTTL()
		o.DelegationThreshold = opts.Config.ComplexityDelegationThreshold
		o.Logger = opts.Logger
	})

	return &Mesh{
		opts:     opts,
		registry: registry,
		tracker:  tracker,
		executor: executor,
		engine:   engine,
	}, nil
}

// Handle routes a natural-language request end to end: classification,
// enrichment, and either the direct reflection path or the delegated
// pipeline. It always produces user-facing text unless ctx is cancelled.
func (m *Mesh) Handle(ctx context.Context, message string) (string, error) {
	return m.engine.Handle(ctx, message)
}

// Execute dispatches a single prompt without classification or reflection.
// The only terminal failure is *router.ExhaustedError.
func (m *Mesh) Execute(ctx context.Context, prompt, taskType string, intelligencePriority bool) (*router.Result, error) {
	return m.executor.Execute(ctx, prompt, taskType, intelligencePriority)
}

// Registry returns the static model catalog.
func (m *Mesh) Registry() *model.Registry { return m.registry }

// AvailabilityStatus returns a snapshot of the per-model breaker state for
// diagnostics.
func (m *Mesh) AvailabilityStatus() map[string]availability.Entry {
	return m.tracker.Status()
}

// MarkUnavailable administratively suppresses a model for d (the
// configured blacklist duration when d == 0).
func (m *Mesh) MarkUnavailable(id string, d time.Duration) {
	if d == 0 {
		d = m.opts.Config.BlacklistDuration()
	}
	m.tracker.MarkUnavailable(id, d)
}

// ForceUnblock administratively clears a model's suppression window.
func (m *Mesh) ForceUnblock(id string) { m.tracker.ForceUnblock(id) }
