// Package enrich provides best-effort external knowledge lookup for
// prompts. Retrieval failures trip an independent time-boxed breaker so a
// degraded retrieval service cannot add latency to every request.
package enrich

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/modelmesh/logging"
)

// Enricher defaults.
const (
	DefaultTimeout       = 4 * time.Second
	DefaultDisableWindow = 5 * time.Minute
	DefaultMaxResults    = 3
)

// KnowledgeRetrieval is the external retrieval collaborator. The search
// algorithm itself is out of scope; only this boundary is specified.
type KnowledgeRetrieval interface {
	Search(ctx context.Context, query string, maxResults int) (string, error)
}

// Enricher wraps a KnowledgeRetrieval with a per-call timeout and a
// disable window: after a failure, calls return immediately without a
// network attempt until the window elapses.
type Enricher struct {
	retrieval KnowledgeRetrieval
	opts      EnricherOptions

	mu            sync.Mutex
	lastFailureAt time.Time

	now func() time.Time
}

// EnricherOptions configures an Enricher.
type EnricherOptions struct {
	// Timeout bounds each retrieval call.
	Timeout time.Duration

	// DisableWindow suppresses retrieval attempts after a failure.
	DisableWindow time.Duration

	// MaxResults is forwarded to the retrieval service.
	MaxResults int

	// Logger receives enrichment diagnostics. Defaults to NoOp.
	Logger logging.Logger

	// Clock overrides the time source. Intended for tests.
	Clock func() time.Time
}

// NewEnricher constructs an Enricher. A nil retrieval service yields an
// enricher that always reports no context, which keeps callers free of nil
// checks.
func NewEnricher(retrieval KnowledgeRetrieval, optFns ...func(o *EnricherOptions)) *Enricher {
	opts := EnricherOptions{
		Timeout:       DefaultTimeout,
		DisableWindow: DefaultDisableWindow,
		MaxResults:    DefaultMaxResults,
		Logger:        logging.NoOpLogger{},
		Clock:         time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Enricher{retrieval: retrieval, opts: opts, now: opts.Clock}
}

// Fetch returns external context for query, or ("", false) when retrieval
// is unavailable, disabled or empty. It never returns an error: enrichment
// is strictly best-effort.
func (e *Enricher) Fetch(ctx context.Context, query string) (string, bool) {
	if e.retrieval == nil {
		return "", false
	}
	if e.disabled() {
		e.opts.Logger.Debug("context enrichment disabled by breaker")
		return "", false
	}

	callCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	text, err := e.retrieval.Search(callCtx, query, e.opts.MaxResults)
	if err != nil {
		e.recordFailure()
		e.opts.Logger.Warn("context enrichment failed, disabling temporarily", "window", e.opts.DisableWindow, "error", err)
		return "", false
	}
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

// disabled reports whether the breaker window is still open.
func (e *Enricher) disabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastFailureAt.IsZero() {
		return false
	}
	return e.now().Sub(e.lastFailureAt) < e.opts.DisableWindow
}

func (e *Enricher) recordFailure() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastFailureAt = e.now()
}
