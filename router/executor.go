package router

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/modelmesh/availability"
	"github.com/hupe1980/modelmesh/logging"
	"github.com/hupe1980/modelmesh/model"
)

// Executor defaults. All are overridable via ExecutorOptions.
const (
	DefaultMaxModelAttempts   = 3
	DefaultMaxRetriesPerModel = 2
	DefaultBackoffCap         = 8 * time.Second
	DefaultColdStartWait      = 30 * time.Second
	DefaultInvokeTimeout      = 120 * time.Second
)

// Result is the successful outcome of an Execute call.
type Result struct {
	// Text is the model's response, guaranteed non-blank.
	Text string

	// ModelID identifies the model that produced the response.
	ModelID string
}

// SleepFunc suspends for d or until ctx is done. Injected so tests can run
// the retry schedule without real waits.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	// MaxModelAttempts caps the number of distinct models tried per request.
	MaxModelAttempts int

	// MaxRetriesPerModel caps retries after the first attempt on one model,
	// so each model receives at most MaxRetriesPerModel+1 invocations.
	MaxRetriesPerModel int

	// BlacklistDuration is the suppression window applied on quota failures.
	BlacklistDuration time.Duration

	// BackoffCap bounds the exponential retry backoff.
	BackoffCap time.Duration

	// ColdStartWait is the single wait applied when the very first selection
	// yields no candidate at all.
	ColdStartWait time.Duration

	// InvokeTimeout bounds each model invocation.
	InvokeTimeout time.Duration

	// InvokeConfig carries the generation parameters passed to the invoker.
	InvokeConfig model.InvokeConfig

	// Table classifies provider errors. Defaults to the embedded table.
	Table *ClassificationTable

	// Logger receives execution diagnostics. Defaults to NoOp.
	Logger logging.Logger

	// Sleep is the suspension primitive for backoff and cold-start waits.
	Sleep SleepFunc
}

// Executor orchestrates select → invoke → retry → escalate over the model
// pool, updating the availability tracker as it goes. It is safe for
// concurrent use; per-request state lives on the stack.
type Executor struct {
	selector *Selector
	tracker  *availability.Tracker
	invoker  model.Invoker
	opts     ExecutorOptions
}

// NewExecutor constructs an Executor.
func NewExecutor(selector *Selector, tracker *availability.Tracker, invoker model.Invoker, optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{
		MaxModelAttempts:   DefaultMaxModelAttempts,
		MaxRetriesPerModel: DefaultMaxRetriesPerModel,
		BlacklistDuration:  availability.DefaultBlacklistDuration,
		BackoffCap:         DefaultBackoffCap,
		ColdStartWait:      DefaultColdStartWait,
		InvokeTimeout:      DefaultInvokeTimeout,
		InvokeConfig:       model.InvokeConfig{Temperature: 0.7, MaxTokens: 4096},
		Table:              DefaultClassificationTable(),
		Logger:             logging.NoOpLogger{},
		Sleep:              defaultSleep,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Table == nil {
		opts.Table = DefaultClassificationTable()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Sleep == nil {
		opts.Sleep = defaultSleep
	}
	return &Executor{selector: selector, tracker: tracker, invoker: invoker, opts: opts}
}

// Execute runs prompt against the best available model, escalating across
// up to MaxModelAttempts distinct models. The only terminal failure is
// *ExhaustedError.
func (e *Executor) Execute(ctx context.Context, prompt, taskType string, intelligencePriority bool) (*Result, error) {
	execID := uuid.NewString()
	req := SelectionRequest{
		TaskType:             taskType,
		TokenEstimate:        estimateTokens(prompt),
		IntelligencePriority: intelligencePriority,
		ExcludeModels:        make(map[string]struct{}),
	}

	var attempted []string
	var blacklisted []string
	coldStartWaited := false

	for len(attempted) < e.opts.MaxModelAttempts {
		id, ok := e.selector.Select(req)
		if !ok {
			// A cold start may find every model inside a suppression window
			// that is about to lapse. Wait once, then reselect.
			if len(attempted) == 0 && !coldStartWaited {
				coldStartWaited = true
				e.opts.Logger.Info("no model available, waiting before reselection", "execution_id", execID, "wait", e.opts.ColdStartWait)
				if err := e.opts.Sleep(ctx, e.opts.ColdStartWait); err != nil {
					return nil, &ExhaustedError{Attempted: attempted, Blacklisted: blacklisted}
				}
				continue
			}
			break
		}

		attempted = append(attempted, id)
		result, quotaHit, err := e.runModel(ctx, execID, id, prompt)
		if err == nil {
			return result, nil
		}
		if quotaHit {
			blacklisted = append(blacklisted, id)
		}
		// Escalate: exclude this model from further selection passes.
		req.ExcludeModels[id] = struct{}{}
	}

	e.opts.Logger.Warn("request exhausted model pool", "execution_id", execID, "attempted", attempted, "blacklisted", blacklisted)
	return nil, &ExhaustedError{Attempted: attempted, Blacklisted: blacklisted}
}

// runModel drives all attempts against a single model. It returns quotaHit
// when the model was blacklisted for quota exhaustion.
func (e *Executor) runModel(ctx context.Context, execID, id, prompt string) (*Result, bool, error) {
	var lastErr error

	for attempt := 0; attempt <= e.opts.MaxRetriesPerModel; attempt++ {
		text, err := e.invokeOnce(ctx, id, prompt)
		if err == nil {
			e.tracker.RecordUsage(id, estimateTokens(prompt)+estimateTokens(text))
			e.opts.Logger.Debug("model call succeeded", "execution_id", execID, "model", id, "attempt", attempt+1)
			return &Result{Text: text, ModelID: id}, false, nil
		}
		lastErr = err

		switch e.opts.Table.Classify(err) {
		case ErrorKindQuota:
			e.tracker.MarkUnavailable(id, e.opts.BlacklistDuration)
			e.opts.Logger.Warn("model quota exhausted, blacklisting", "execution_id", execID, "model", id, "window", e.opts.BlacklistDuration, "error", err)
			return nil, true, err
		case ErrorKindAuth:
			e.opts.Logger.Error("model authentication failed (misconfiguration, not auto-recoverable)", "execution_id", execID, "model", id, "error", err)
		case ErrorKindProtocol:
			e.opts.Logger.Error("model protocol error (misconfiguration, not auto-recoverable)", "execution_id", execID, "model", id, "error", err)
		default:
			e.opts.Logger.Debug("transient model failure", "execution_id", execID, "model", id, "attempt", attempt+1, "error", err)
		}

		if attempt < e.opts.MaxRetriesPerModel {
			if err := e.opts.Sleep(ctx, e.backoff(attempt+1)); err != nil {
				return nil, false, lastErr
			}
		}
	}

	e.opts.Logger.Info("model attempts exhausted, escalating", "execution_id", execID, "model", id, "error", lastErr)
	return nil, false, lastErr
}

// invokeOnce performs one timed invocation and normalizes blank output into
// model.ErrEmptyResponse so it follows the transient retry path.
func (e *Executor) invokeOnce(ctx context.Context, id, prompt string) (string, error) {
	callCtx := ctx
	if e.opts.InvokeTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.opts.InvokeTimeout)
		defer cancel()
	}

	text, err := e.invoker.Invoke(callCtx, id, prompt, e.opts.InvokeConfig)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", model.ErrEmptyResponse
	}
	return text, nil
}

// backoff returns min(2^attempt seconds, cap) for the given retry attempt
// (1-based).
func (e *Executor) backoff(attempt int) time.Duration {
	d := time.Duration(1<<uint(attempt)) * time.Second
	if d > e.opts.BackoffCap {
		return e.opts.BackoffCap
	}
	return d
}

// estimateTokens is a character-based token estimate (1 token ≈ 4 chars)
// good enough for counters and max-token filtering.
func estimateTokens(text string) int {
	return len(text)/4 + 1
}
