package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(
		Descriptor{ID: "gpt-4o", Provider: "openai"},
		Descriptor{ID: "gpt-4o", Provider: "openai"},
	)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNewRegistry_RejectsMissingID(t *testing.T) {
	_, err := NewRegistry(Descriptor{Provider: "openai"})
	assert.Error(t, err)
}

func TestRegistry_Lookup(t *testing.T) {
	r, err := NewRegistry(
		Descriptor{ID: "gpt-4o", Provider: "openai", Priority: 1},
		Descriptor{ID: "claude", Provider: "anthropic", Priority: 2},
	)
	require.NoError(t, err)

	d, ok := r.Get("claude")
	assert.True(t, ok)
	assert.Equal(t, "anthropic", d.Provider)

	_, ok = r.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"gpt-4o", "claude"}, r.IDs())
	assert.Equal(t, 2, r.Len())
}

func TestSortByRank(t *testing.T) {
	descriptors := []Descriptor{
		{ID: "c", Priority: 2, IntelligenceScore: 95},
		{ID: "b", Priority: 1, IntelligenceScore: 70},
		{ID: "a", Priority: 1, IntelligenceScore: 90},
		{ID: "d", Priority: 1, IntelligenceScore: 90},
	}

	SortByRank(descriptors)

	ids := []string{descriptors[0].ID, descriptors[1].ID, descriptors[2].ID, descriptors[3].ID}
	// Priority ascending, intelligence descending, id as tie-break.
	assert.Equal(t, []string{"a", "d", "b", "c"}, ids)
}

func TestMockInvoker_CannedAndScriptedErrors(t *testing.T) {
	invoker := NewMockInvoker()
	invoker.AddResponse("hello", "world")
	invoker.FailWith("flaky", ErrTransient, ErrTransient)

	text, err := invoker.Invoke(context.Background(), "stable", "hello", InvokeConfig{})
	require.NoError(t, err)
	assert.Equal(t, "world", text)

	_, err = invoker.Invoke(context.Background(), "flaky", "hello", InvokeConfig{})
	assert.ErrorIs(t, err, ErrTransient)
	_, err = invoker.Invoke(context.Background(), "flaky", "hello", InvokeConfig{})
	assert.ErrorIs(t, err, ErrTransient)

	// Queue drained, calls succeed again.
	_, err = invoker.Invoke(context.Background(), "flaky", "hello", InvokeConfig{})
	assert.NoError(t, err)

	assert.Equal(t, 3, invoker.CallCount("flaky"))
	assert.Equal(t, 1, invoker.CallCount("stable"))
}

func TestError_WrappingAndPredicates(t *testing.T) {
	err := NewError("openai", "gpt-4o", "invoke", ErrQuotaExhausted)

	assert.True(t, IsQuota(err))
	assert.False(t, IsAuth(err))
	assert.Contains(t, err.Error(), "gpt-4o")

	var wrapped *Error
	assert.True(t, errors.As(err, &wrapped))
	assert.Equal(t, "openai", wrapped.Provider)

	assert.True(t, IsTransient(NewError("x", "y", "invoke", ErrEmptyResponse)))
	assert.True(t, IsProtocol(NewError("x", "y", "invoke", ErrProtocol)))
}
