package model

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the closed provider failure taxonomy.
var (
	// ErrQuotaExhausted indicates provider-reported exhaustion of usage or
	// rate limits. Never retried on the same model.
	ErrQuotaExhausted = errors.New("quota exhausted")

	// ErrTransient indicates a transient transport fault (timeout, 5xx,
	// connection reset) worth retrying on the same model.
	ErrTransient = errors.New("transient failure")

	// ErrAuth indicates missing or invalid credentials. Not auto-recoverable.
	ErrAuth = errors.New("authentication failed")

	// ErrProtocol indicates a malformed request or response payload.
	ErrProtocol = errors.New("protocol error")

	// ErrEmptyResponse indicates the provider returned no usable text.
	// Treated like a transient fault by the executor.
	ErrEmptyResponse = errors.New("empty response")
)

// Error wraps provider errors with context for classification and logging.
type Error struct {
	Provider string // Provider name ("openai", "anthropic", etc.)
	ModelID  string // Model the call was addressed to
	Op       string // Operation that failed ("invoke")
	Err      error  // Underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ModelID != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Provider, e.ModelID, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new provider error.
func NewError(provider, modelID, op string, err error) *Error {
	return &Error{Provider: provider, ModelID: modelID, Op: op, Err: err}
}

// IsQuota checks whether an error carries provider-reported quota exhaustion.
func IsQuota(err error) bool {
	return errors.Is(err, ErrQuotaExhausted)
}

// IsTransient checks whether an error is likely transient and worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrEmptyResponse)
}

// IsAuth checks whether an error is authentication-related.
func IsAuth(err error) bool {
	return errors.Is(err, ErrAuth)
}

// IsProtocol checks whether an error indicates a malformed exchange.
func IsProtocol(err error) bool {
	return errors.Is(err, ErrProtocol)
}
