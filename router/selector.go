package router

import (
	"github.com/hupe1980/modelmesh/availability"
	"github.com/hupe1980/modelmesh/logging"
	"github.com/hupe1980/modelmesh/model"
)

// DefaultIntelligenceThreshold separates "high intelligence" candidates for
// intelligence-priority requests.
const DefaultIntelligenceThreshold = 80

// SelectionRequest describes one selection pass over the registry.
type SelectionRequest struct {
	// TaskType is a free-form task label carried for logging and future
	// task-aware ranking.
	TaskType string

	// TokenEstimate is the expected prompt size; models with a known
	// MaxTokens below it are skipped.
	TokenEstimate int

	// IntelligencePriority prefers candidates above the selector's
	// intelligence threshold, falling back to the full candidate set when
	// none qualifies.
	IntelligencePriority bool

	// ExcludeModels removes specific ids from consideration regardless of
	// availability.
	ExcludeModels map[string]struct{}
}

// Selector ranks available candidates for a request. It is stateless apart
// from its registry and tracker references and safe for concurrent use.
type Selector struct {
	registry              *model.Registry
	tracker               *availability.Tracker
	intelligenceThreshold int
	logger                logging.Logger
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithIntelligenceThreshold overrides the high-intelligence cutoff.
func WithIntelligenceThreshold(score int) SelectorOption {
	return func(s *Selector) { s.intelligenceThreshold = score }
}

// WithSelectorLogger sets the logger used for selection diagnostics.
func WithSelectorLogger(l logging.Logger) SelectorOption {
	return func(s *Selector) { s.logger = l }
}

// NewSelector constructs a Selector over the given registry and tracker.
func NewSelector(registry *model.Registry, tracker *availability.Tracker, opts ...SelectorOption) *Selector {
	s := &Selector{
		registry:              registry,
		tracker:               tracker,
		intelligenceThreshold: DefaultIntelligenceThreshold,
		logger:                logging.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select returns the best candidate id for the request, or ("", false) when
// the candidate set is empty. An empty result is a normal exhausted-state
// outcome, not an error.
func (s *Selector) Select(req SelectionRequest) (string, bool) {
	var candidates []model.Descriptor
	for _, d := range s.registry.All() {
		if d.Deprecated {
			continue
		}
		if _, excluded := req.ExcludeModels[d.ID]; excluded {
			continue
		}
		if d.MaxTokens > 0 && req.TokenEstimate > d.MaxTokens {
			continue
		}
		if !s.tracker.IsAvailable(d.ID) {
			continue
		}
		candidates = append(candidates, d)
	}

	if len(candidates) == 0 {
		s.logger.Debug("model selection exhausted", "task_type", req.TaskType, "excluded", len(req.ExcludeModels))
		return "", false
	}

	// Intelligence priority narrows to the high-score subset; an empty
	// subset falls back to the full candidate set rather than failing.
	if req.IntelligencePriority {
		var smart []model.Descriptor
		for _, d := range candidates {
			if d.IntelligenceScore >= s.intelligenceThreshold {
				smart = append(smart, d)
			}
		}
		if len(smart) > 0 {
			candidates = smart
		}
	}

	model.SortByRank(candidates)
	best := candidates[0]
	s.logger.Debug("model selected", "model", best.ID, "task_type", req.TaskType, "candidates", len(candidates))
	return best.ID, true
}
