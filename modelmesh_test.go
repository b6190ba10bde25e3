package modelmesh

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/modelmesh/config"
	"github.com/hupe1980/modelmesh/model"
)

func testCatalog() []model.Descriptor {
	return []model.Descriptor{
		{ID: "claude-sonnet", Provider: "anthropic", Priority: 1, IntelligenceScore: 90, MaxTokens: 200000},
		{ID: "gpt-4o-mini", Provider: "openai", Priority: 2, IntelligenceScore: 70, MaxTokens: 128000},
	}
}

func newTestMesh(t *testing.T, invoker model.Invoker) *Mesh {
	t.Helper()
	mesh, err := New(func(o *Options) {
		cfg := config.Default()
		cfg.Models = testCatalog()
		o.Config = cfg
		o.Invoker = invoker
	})
	require.NoError(t, err)
	return mesh
}

func TestNew_RequiresModels(t *testing.T) {
	_, err := New(func(o *Options) {
		o.Invoker = model.NewMockInvoker()
	})
	assert.ErrorContains(t, err, "no models")
}

func TestNew_RequiresInvoker(t *testing.T) {
	_, err := New(func(o *Options) {
		cfg := config.Default()
		cfg.Models = testCatalog()
		o.Config = cfg
	})
	assert.ErrorContains(t, err, "no invoker")
}

func TestNew_RejectsDuplicateModels(t *testing.T) {
	_, err := New(func(o *Options) {
		cfg := config.Default()
		cfg.Models = []model.Descriptor{
			{ID: "claude-sonnet", Provider: "anthropic", Priority: 1},
			{ID: "claude-sonnet", Provider: "anthropic", Priority: 2},
		}
		o.Config = cfg
		o.Invoker = model.NewMockInvoker()
	})
	assert.Error(t, err)
}

func TestMesh_Execute(t *testing.T) {
	invoker := model.NewMockInvoker()
	invoker.AddResponse("ping", "pong")
	mesh := newTestMesh(t, invoker)

	result, err := mesh.Execute(context.Background(), "ping", "general", false)

	require.NoError(t, err)
	assert.Equal(t, "pong", result.Text)
	assert.Equal(t, "claude-sonnet", result.ModelID)
}

func TestMesh_ExecuteEscalatesOnQuota(t *testing.T) {
	invoker := model.NewMockInvoker()
	invoker.FailWith("claude-sonnet", model.ErrQuotaExhausted)
	invoker.AddResponse("ping", "pong from fallback")
	mesh := newTestMesh(t, invoker)

	result, err := mesh.Execute(context.Background(), "ping", "general", false)

	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", result.ModelID)

	status := mesh.AvailabilityStatus()
	entry, ok := status["claude-sonnet"]
	require.True(t, ok)
	assert.True(t, entry.BlacklistedUntil.After(time.Now()))
}

func TestMesh_HandleProducesText(t *testing.T) {
	mesh := newTestMesh(t, model.NewMockInvoker())

	text, err := mesh.Handle(context.Background(), "привет, как дела?")

	require.NoError(t, err)
	assert.NotEmpty(t, text)
}

func TestMesh_ManualBlockAndUnblock(t *testing.T) {
	mesh := newTestMesh(t, model.NewMockInvoker())

	mesh.MarkUnavailable("claude-sonnet", 0)
	entry := mesh.AvailabilityStatus()["claude-sonnet"]
	assert.True(t, entry.BlacklistedUntil.After(time.Now()))

	mesh.ForceUnblock("claude-sonnet")
	entry = mesh.AvailabilityStatus()["claude-sonnet"]
	assert.True(t, entry.BlacklistedUntil.IsZero())
}

func TestMesh_Registry(t *testing.T) {
	mesh := newTestMesh(t, model.NewMockInvoker())

	assert.Equal(t, 2, mesh.Registry().Len())
	_, ok := mesh.Registry().Get("gpt-4o-mini")
	assert.True(t, ok)
}
