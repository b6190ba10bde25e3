package model

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Descriptor describes an addressable model endpoint. Descriptors are
// immutable once loaded into a Registry.
type Descriptor struct {
	// ID is the stable, provider-scoped model identifier.
	ID string `json:"id" yaml:"id"`

	// Provider names the backing vendor ("openai", "anthropic", "local", etc.).
	Provider string `json:"provider" yaml:"provider"`

	// Priority orders candidates during selection; lower values are tried first.
	Priority int `json:"priority" yaml:"priority"`

	// IntelligenceScore is a coarse capability rating (0-100) used when a
	// request asks for intelligence-priority selection.
	IntelligenceScore int `json:"intelligence_score" yaml:"intelligence_score"`

	// Deprecated removes the model from selection without deleting the entry.
	Deprecated bool `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`

	// MaxTokens is the context window limit, 0 when unknown.
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}

// Registry is a static catalog of model descriptors. It is loaded once at
// construction time and safe for concurrent reads.
type Registry struct {
	descriptors map[string]Descriptor
	order       []string
}

// NewRegistry builds a registry from the given descriptors. Duplicate ids
// return an error so misconfiguration surfaces at startup, not during routing.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{descriptors: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if d.ID == "" {
			return nil, fmt.Errorf("model descriptor without id (provider %q)", d.Provider)
		}
		if _, exists := r.descriptors[d.ID]; exists {
			return nil, fmt.Errorf("duplicate model id %q", d.ID)
		}
		r.descriptors[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	return r, nil
}

// MustNewRegistry builds a registry, panicking on error. Use only when the
// descriptor set is statically known (e.g. in tests).
func MustNewRegistry(descriptors ...Descriptor) *Registry {
	r, err := NewRegistry(descriptors...)
	if err != nil {
		panic(fmt.Sprintf("model.MustNewRegistry: %v", err))
	}
	return r
}

// Get returns the descriptor for id.
func (r *Registry) Get(id string) (Descriptor, bool) {
	d, ok := r.descriptors[id]
	return d, ok
}

// IDs returns all model ids in declaration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// All returns all descriptors in declaration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.descriptors[id])
	}
	return out
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int { return len(r.order) }

// InvokeConfig carries per-call generation parameters.
type InvokeConfig struct {
	Temperature float64
	MaxTokens   int
}

// Invoker executes a prompt against one model. Implementations wrap a
// vendor SDK (or a local runtime) and map failures into the package error
// taxonomy where possible; unrecognized errors are classified upstream by
// text.
type Invoker interface {
	Invoke(ctx context.Context, modelID, prompt string, cfg InvokeConfig) (string, error)
}

// InvokerFunc adapts a plain function to the Invoker interface.
type InvokerFunc func(ctx context.Context, modelID, prompt string, cfg InvokeConfig) (string, error)

// Invoke implements Invoker.
func (f InvokerFunc) Invoke(ctx context.Context, modelID, prompt string, cfg InvokeConfig) (string, error) {
	return f(ctx, modelID, prompt, cfg)
}

// MockInvoker is a lightweight in-memory Invoker useful for tests & examples.
// Responses can be canned per prompt; errors can be scripted per model to
// simulate quota exhaustion or transient faults.
type MockInvoker struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string][]error
	calls     []MockCall
}

// MockCall records a single invocation for assertion purposes.
type MockCall struct {
	ModelID string
	Prompt  string
}

// NewMockInvoker constructs an empty MockInvoker.
func NewMockInvoker() *MockInvoker {
	return &MockInvoker{
		responses: make(map[string]string),
		errs:      make(map[string][]error),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockInvoker) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// FailWith queues errors returned by successive calls against modelID.
// Once the queue drains, calls succeed again.
func (m *MockInvoker) FailWith(modelID string, errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[modelID] = append(m.errs[modelID], errs...)
}

// Calls returns a copy of all recorded invocations.
func (m *MockInvoker) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of invocations recorded for modelID.
func (m *MockInvoker) CallCount(modelID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.ModelID == modelID {
			n++
		}
	}
	return n
}

// Invoke implements Invoker; replays scripted errors first, then canned or
// synthesized responses.
func (m *MockInvoker) Invoke(ctx context.Context, modelID, prompt string, _ InvokeConfig) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{ModelID: modelID, Prompt: prompt})

	if queue := m.errs[modelID]; len(queue) > 0 {
		err := queue[0]
		m.errs[modelID] = queue[1:]
		return "", err
	}
	if resp, ok := m.responses[prompt]; ok {
		return resp, nil
	}
	return fmt.Sprintf("Mock response to: %s", firstLine(prompt)), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// SortByRank orders descriptors by (Priority ascending, IntelligenceScore
// descending) with id as a deterministic tie-break. The slice is sorted in
// place and returned for chaining.
func SortByRank(descriptors []Descriptor) []Descriptor {
	sort.SliceStable(descriptors, func(i, j int) bool {
		a, b := descriptors[i], descriptors[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.IntelligenceScore != b.IntelligenceScore {
			return a.IntelligenceScore > b.IntelligenceScore
		}
		return a.ID < b.ID
	})
	return descriptors
}
