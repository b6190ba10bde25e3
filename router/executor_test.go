package router

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/modelmesh/availability"
	"github.com/hupe1980/modelmesh/model"
)

// recordingSleep captures the requested waits without sleeping.
type recordingSleep struct {
	waits  []time.Duration
	onWait func()
}

func (r *recordingSleep) Sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	if r.onWait != nil {
		r.onWait()
	}
	return nil
}

func quotaErr(id string) error {
	return model.NewError("test", id, "invoke", fmt.Errorf("%w: 429", model.ErrQuotaExhausted))
}

func newTestExecutor(registry *model.Registry, invoker model.Invoker, optFns ...func(o *ExecutorOptions)) (*Executor, *availability.Tracker, *recordingSleep) {
	tracker := availability.NewTracker()
	sleep := &recordingSleep{}
	selector := NewSelector(registry, tracker)
	fns := append([]func(o *ExecutorOptions){func(o *ExecutorOptions) {
		o.Sleep = sleep.Sleep
	}}, optFns...)
	return NewExecutor(selector, tracker, invoker, fns...), tracker, sleep
}

func threeModelRegistry() *model.Registry {
	return model.MustNewRegistry(
		model.Descriptor{ID: "m1", Provider: "test", Priority: 1, IntelligenceScore: 60},
		model.Descriptor{ID: "m2", Provider: "test", Priority: 2, IntelligenceScore: 60},
		model.Descriptor{ID: "m3", Provider: "test", Priority: 3, IntelligenceScore: 60},
	)
}

func TestExecutor_QuotaEscalatesWithoutRetry(t *testing.T) {
	invoker := model.NewMockInvoker()
	invoker.FailWith("m1", quotaErr("m1"))
	invoker.FailWith("m2", quotaErr("m2"))
	invoker.AddResponse("hello", "a perfectly good answer")

	executor, tracker, sleep := newTestExecutor(threeModelRegistry(), invoker)

	result, err := executor.Execute(context.Background(), "hello", "general", false)
	require.NoError(t, err)
	assert.Equal(t, "m3", result.ModelID)
	assert.Equal(t, "a perfectly good answer", result.Text)

	// Quota models receive exactly one invocation attempt each.
	assert.Equal(t, 1, invoker.CallCount("m1"))
	assert.Equal(t, 1, invoker.CallCount("m2"))
	assert.Equal(t, 1, invoker.CallCount("m3"))

	// And both are blacklisted.
	assert.False(t, tracker.IsAvailable("m1"))
	assert.False(t, tracker.IsAvailable("m2"))
	assert.True(t, tracker.IsAvailable("m3"))

	// Quota escalation never sleeps.
	assert.Empty(t, sleep.waits)
}

func TestExecutor_TransientRetriesSameModel(t *testing.T) {
	registry := model.MustNewRegistry(
		model.Descriptor{ID: "only", Provider: "test", Priority: 1, IntelligenceScore: 60},
	)
	invoker := model.NewMockInvoker()
	invoker.FailWith("only", model.ErrTransient, model.ErrTransient)
	invoker.AddResponse("hello", "third time lucky")

	executor, _, sleep := newTestExecutor(registry, invoker)

	result, err := executor.Execute(context.Background(), "hello", "general", false)
	require.NoError(t, err)
	assert.Equal(t, "only", result.ModelID)
	assert.Equal(t, 3, invoker.CallCount("only"), "two retries after the first attempt")

	// Exponential backoff between attempts: 2^1, 2^2 seconds.
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleep.waits)
}

func TestExecutor_BackoffIsCapped(t *testing.T) {
	registry := model.MustNewRegistry(
		model.Descriptor{ID: "only", Provider: "test", Priority: 1, IntelligenceScore: 60},
	)
	invoker := model.NewMockInvoker()
	invoker.FailWith("only", model.ErrTransient, model.ErrTransient, model.ErrTransient, model.ErrTransient)
	invoker.AddResponse("hello", "made it")

	executor, _, sleep := newTestExecutor(registry, invoker, func(o *ExecutorOptions) {
		o.MaxRetriesPerModel = 4
		o.BackoffCap = 4 * time.Second
	})

	_, err := executor.Execute(context.Background(), "hello", "general", false)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 4 * time.Second, 4 * time.Second}, sleep.waits)
}

func TestExecutor_ExhaustionCarriesModelLists(t *testing.T) {
	invoker := model.NewMockInvoker()
	invoker.FailWith("m1", quotaErr("m1"))
	invoker.FailWith("m2", quotaErr("m2"))
	invoker.FailWith("m3", quotaErr("m3"))

	executor, _, _ := newTestExecutor(threeModelRegistry(), invoker)

	_, err := executor.Execute(context.Background(), "hello", "general", false)
	require.Error(t, err)

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, []string{"m1", "m2", "m3"}, exhausted.Attempted)
	assert.Equal(t, []string{"m1", "m2", "m3"}, exhausted.Blacklisted)
	assert.Contains(t, exhausted.Error(), "m2")
}

func TestExecutor_EmptyResponseIsTransient(t *testing.T) {
	registry := model.MustNewRegistry(
		model.Descriptor{ID: "only", Provider: "test", Priority: 1, IntelligenceScore: 60},
	)
	invoker := model.NewMockInvoker()
	invoker.AddResponse("hello", "   \n  ")

	executor, _, sleep := newTestExecutor(registry, invoker)

	_, err := executor.Execute(context.Background(), "hello", "general", false)
	require.Error(t, err)

	// Whitespace output follows the transient path: full retry budget, then
	// exhaustion.
	assert.Equal(t, 3, invoker.CallCount("only"))
	assert.Len(t, sleep.waits, 2)
}

func TestExecutor_ColdStartWaitsOnceThenRetriesSelection(t *testing.T) {
	registry := model.MustNewRegistry(
		model.Descriptor{ID: "only", Provider: "test", Priority: 1, IntelligenceScore: 60},
	)
	invoker := model.NewMockInvoker()
	invoker.AddResponse("hello", "recovered")

	tracker := availability.NewTracker()
	tracker.MarkUnavailable("only", time.Hour)

	// The wait stands in for the blacklist window lapsing.
	sleep := &recordingSleep{onWait: func() { tracker.ForceUnblock("only") }}
	selector := NewSelector(registry, tracker)
	executor := NewExecutor(selector, tracker, invoker, func(o *ExecutorOptions) {
		o.Sleep = sleep.Sleep
	})

	result, err := executor.Execute(context.Background(), "hello", "general", false)
	require.NoError(t, err)
	assert.Equal(t, "only", result.ModelID)
	assert.Equal(t, []time.Duration{DefaultColdStartWait}, sleep.waits)
}

func TestExecutor_ColdStartStillEmptyIsExhausted(t *testing.T) {
	registry := model.MustNewRegistry(
		model.Descriptor{ID: "only", Provider: "test", Priority: 1, IntelligenceScore: 60},
	)
	tracker := availability.NewTracker()
	tracker.MarkUnavailable("only", time.Hour)

	sleep := &recordingSleep{}
	selector := NewSelector(registry, tracker)
	executor := NewExecutor(selector, tracker, model.NewMockInvoker(), func(o *ExecutorOptions) {
		o.Sleep = sleep.Sleep
	})

	_, err := executor.Execute(context.Background(), "hello", "general", false)

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Empty(t, exhausted.Attempted)
	assert.Len(t, sleep.waits, 1, "the cold-start wait happens exactly once")
}

func TestExecutor_InvokeTimeoutFollowsTransientPath(t *testing.T) {
	registry := model.MustNewRegistry(
		model.Descriptor{ID: "only", Provider: "test", Priority: 1, IntelligenceScore: 60},
	)

	// The invoker never answers; only the executor's per-call deadline can
	// end each attempt.
	calls := 0
	invoker := model.InvokerFunc(func(ctx context.Context, _, _ string, _ model.InvokeConfig) (string, error) {
		calls++
		<-ctx.Done()
		return "", ctx.Err()
	})

	executor, tracker, sleep := newTestExecutor(registry, invoker, func(o *ExecutorOptions) {
		o.InvokeTimeout = 20 * time.Millisecond
	})

	_, err := executor.Execute(context.Background(), "hello", "general", false)

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, []string{"only"}, exhausted.Attempted)
	assert.Empty(t, exhausted.Blacklisted, "a timeout is transient, not quota")

	// Each timed-out attempt is retried with backoff until the budget runs out.
	assert.Equal(t, 3, calls)
	assert.Len(t, sleep.waits, 2)
	assert.True(t, tracker.IsAvailable("only"))
}

func TestExecutor_RecordsUsageOnSuccess(t *testing.T) {
	invoker := model.NewMockInvoker()
	invoker.AddResponse("hello", "fine answer")

	executor, tracker, _ := newTestExecutor(threeModelRegistry(), invoker)

	_, err := executor.Execute(context.Background(), "hello", "general", false)
	require.NoError(t, err)

	status := tracker.Status()
	assert.Equal(t, int64(1), status["m1"].UsageCount)
	assert.Greater(t, status["m1"].TokensUsed, int64(0))
}
