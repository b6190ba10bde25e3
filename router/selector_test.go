package router

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/modelmesh/availability"
	"github.com/hupe1980/modelmesh/model"
)

func testRegistry(t *testing.T) *model.Registry {
	t.Helper()
	return model.MustNewRegistry(
		model.Descriptor{ID: "fast", Provider: "openai", Priority: 1, IntelligenceScore: 60},
		model.Descriptor{ID: "smart", Provider: "anthropic", Priority: 2, IntelligenceScore: 95},
		model.Descriptor{ID: "old", Provider: "openai", Priority: 3, IntelligenceScore: 50, Deprecated: true},
	)
}

func TestSelector_RanksByPriorityThenIntelligence(t *testing.T) {
	selector := NewSelector(testRegistry(t), availability.NewTracker())

	id, ok := selector.Select(SelectionRequest{})
	assert.True(t, ok)
	assert.Equal(t, "fast", id)
}

func TestSelector_SkipsDeprecated(t *testing.T) {
	selector := NewSelector(testRegistry(t), availability.NewTracker())

	id, ok := selector.Select(SelectionRequest{
		ExcludeModels: map[string]struct{}{"fast": {}, "smart": {}},
	})
	assert.False(t, ok, "only the deprecated model remains, selection must be exhausted")
	assert.Empty(t, id)
}

func TestSelector_AllExcludedReturnsNone(t *testing.T) {
	registry := testRegistry(t)
	selector := NewSelector(registry, availability.NewTracker())

	exclude := make(map[string]struct{})
	for _, id := range registry.IDs() {
		exclude[id] = struct{}{}
	}

	id, ok := selector.Select(SelectionRequest{ExcludeModels: exclude})
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestSelector_SkipsBlacklisted(t *testing.T) {
	tracker := availability.NewTracker()
	tracker.MarkUnavailable("fast", time.Hour)
	selector := NewSelector(testRegistry(t), tracker)

	id, ok := selector.Select(SelectionRequest{})
	assert.True(t, ok)
	assert.Equal(t, "smart", id)
}

func TestSelector_IntelligencePriorityPrefersSmartSubset(t *testing.T) {
	selector := NewSelector(testRegistry(t), availability.NewTracker())

	id, ok := selector.Select(SelectionRequest{IntelligencePriority: true})
	assert.True(t, ok)
	assert.Equal(t, "smart", id)
}

func TestSelector_IntelligencePriorityFallsBackToFullSet(t *testing.T) {
	tracker := availability.NewTracker()
	tracker.MarkUnavailable("smart", time.Hour)
	selector := NewSelector(testRegistry(t), tracker)

	// No candidate clears the threshold; the full set is used instead of
	// failing.
	id, ok := selector.Select(SelectionRequest{IntelligencePriority: true})
	assert.True(t, ok)
	assert.Equal(t, "fast", id)
}

func TestSelector_TokenEstimateFiltersSmallModels(t *testing.T) {
	registry := model.MustNewRegistry(
		model.Descriptor{ID: "small", Priority: 1, IntelligenceScore: 60, MaxTokens: 1000},
		model.Descriptor{ID: "large", Priority: 2, IntelligenceScore: 60, MaxTokens: 100000},
	)
	selector := NewSelector(registry, availability.NewTracker())

	id, ok := selector.Select(SelectionRequest{TokenEstimate: 5000})
	assert.True(t, ok)
	assert.Equal(t, "large", id)
}
