package delegate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/modelmesh/complexity"
	"github.com/hupe1980/modelmesh/enrich"
	"github.com/hupe1980/modelmesh/logging"
	"github.com/hupe1980/modelmesh/router"
)

// Reflector is the direct-path generator. *quality.Reflector satisfies it.
type Reflector interface {
	Reflect(ctx context.Context, prompt string) (string, error)
}

// EngineOptions configures an Engine.
type EngineOptions struct {
	// CacheTTL bounds agent topology reuse.
	CacheTTL time.Duration

	// TopologyBuilder constructs topologies on cache misses. Defaults to
	// NewTopology.
	TopologyBuilder TopologyBuilder

	// DelegationThreshold is the complexity score at which requests take
	// the delegated pipeline. Defaults to the classifier's threshold.
	DelegationThreshold int

	// Logger receives engine diagnostics. Defaults to NoOp.
	Logger logging.Logger

	// Clock overrides the time source of the topology cache. Intended for
	// tests.
	Clock func() time.Time
}

// Engine is the top-level entry point routing requests between the direct
// reflection path and the delegated agent pipeline.
type Engine struct {
	reflector Reflector
	enricher  *enrich.Enricher
	backend   AgentBackend
	cache     *topologyCache
	opts      EngineOptions
}

// NewEngine constructs an Engine. A nil backend disables delegation
// entirely; every request then takes the direct path.
func NewEngine(reflector Reflector, enricher *enrich.Enricher, backend AgentBackend, optFns ...func(o *EngineOptions)) *Engine {
	opts := EngineOptions{
		CacheTTL:        DefaultCacheTTL,
		TopologyBuilder: NewTopology,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.TopologyBuilder == nil {
		opts.TopologyBuilder = NewTopology
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Engine{
		reflector: reflector,
		enricher:  enricher,
		backend:   backend,
		cache:     newTopologyCache(opts.CacheTTL, opts.Clock),
		opts:      opts,
	}
}

// Handle routes message and always produces user-facing text. The error is
// non-nil only on context cancellation; every other failure degrades into
// a plain-language response.
func (e *Engine) Handle(ctx context.Context, message string) (string, error) {
	analysis := complexity.ClassifyWithThreshold(message, e.opts.DelegationThreshold)
	contextBlock, hasContext := e.fetchContext(ctx, message)

	e.opts.Logger.Debug("request classified",
		"category", analysis.Category, "score", analysis.Score, "delegate", analysis.RequiresDelegation, "context", hasContext)

	if !analysis.RequiresDelegation || e.backend == nil {
		return e.direct(ctx, message, contextBlock)
	}

	delegated := WithMetrics(e.opts.Logger, "delegation", func(ctx context.Context) (string, error) {
		return e.runPipeline(ctx, analysis, message, contextBlock)
	})
	// Backend trouble must never fail the overall request.
	routed := WithFallback(delegated, func(ctx context.Context) (string, error) {
		return e.direct(ctx, message, contextBlock)
	})
	return routed(ctx)
}

// TopologyBuilds reports how many agent topologies have been constructed.
// Exposed for diagnostics and tests.
func (e *Engine) TopologyBuilds() int64 {
	return e.cache.Builds()
}

func (e *Engine) fetchContext(ctx context.Context, message string) (string, bool) {
	if e.enricher == nil {
		return "", false
	}
	return e.enricher.Fetch(ctx, message)
}

// direct runs the single-model reflection path, converting terminal
// failures into degraded text.
func (e *Engine) direct(ctx context.Context, message, contextBlock string) (string, error) {
	prompt := message
	if contextBlock != "" {
		prompt = fmt.Sprintf("%s\n\nRelevant background:\n%s", message, contextBlock)
	}

	text, err := e.reflector.Reflect(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return degradedResponse(err), nil
	}
	return text, nil
}

// runPipeline executes the delegated two-stage pipeline through a cached
// topology.
func (e *Engine) runPipeline(ctx context.Context, analysis complexity.Analysis, message, contextBlock string) (string, error) {
	topology, cached := e.cache.getOrBuild(analysis.Category, analysis.Bucket(), e.opts.TopologyBuilder)
	e.opts.Logger.Debug("topology resolved", "topology_id", topology.ID, "category", topology.Category, "bucket", topology.Bucket, "cached", cached)

	research, writing := topology.Tasks(message, contextBlock)
	text, err := e.backend.Run(ctx, research, writing)
	if err != nil {
		return "", fmt.Errorf("agent backend: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("agent backend returned empty result")
	}
	return text, nil
}

// degradedResponse turns a terminal routing failure into a plain apology
// that still names the attempted and blacklisted models for operator
// diagnosis.
func degradedResponse(err error) string {
	var exhausted *router.ExhaustedError
	if errors.As(err, &exhausted) {
		var b strings.Builder
		b.WriteString("I'm sorry, I could not produce an answer right now: every available model failed.")
		if len(exhausted.Attempted) > 0 {
			fmt.Fprintf(&b, " Models attempted: %s.", strings.Join(exhausted.Attempted, ", "))
		}
		if len(exhausted.Blacklisted) > 0 {
			fmt.Fprintf(&b, " Temporarily unavailable due to quota limits: %s.", strings.Join(exhausted.Blacklisted, ", "))
		}
		b.WriteString(" Please try again in a few minutes.")
		return b.String()
	}
	return "I'm sorry, something went wrong while processing your request. Please try again in a few minutes."
}
