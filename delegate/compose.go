package delegate

import (
	"context"
	"time"

	"github.com/hupe1980/modelmesh/logging"
)

// Op is a unit of work producing user-facing text. Cross-cutting concerns
// (metrics, fallback) wrap an Op at the call site instead of living in
// base types.
type Op func(ctx context.Context) (string, error)

// WithFallback returns an Op that runs fallback when op fails. The
// original error is discarded after the switch; fallback owns the outcome.
func WithFallback(op, fallback Op) Op {
	return func(ctx context.Context) (string, error) {
		text, err := op(ctx)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return fallback(ctx)
	}
}

// WithMetrics returns an Op that logs duration and outcome of op under the
// given operation name.
func WithMetrics(logger logging.Logger, name string, op Op) Op {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return func(ctx context.Context) (string, error) {
		start := time.Now()
		text, err := op(ctx)
		if err != nil {
			logger.Warn("operation failed", "operation", name, "duration", time.Since(start), "error", err)
		} else {
			logger.Info("operation completed", "operation", name, "duration", time.Since(start))
		}
		return text, err
	}
}
