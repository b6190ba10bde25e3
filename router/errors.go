package router

import (
	"fmt"
	"strings"
)

// ExhaustedError is the terminal outcome of an Execute call once every
// eligible model has failed. It carries the attempted and blacklisted model
// lists for operator diagnosis and must be handled, not treated as a crash.
type ExhaustedError struct {
	// Attempted lists every model id that received at least one invocation.
	Attempted []string

	// Blacklisted lists the model ids suppressed during this execution.
	Blacklisted []string
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	var b strings.Builder
	b.WriteString("all models exhausted")
	if len(e.Attempted) > 0 {
		fmt.Fprintf(&b, "; attempted: %s", strings.Join(e.Attempted, ", "))
	}
	if len(e.Blacklisted) > 0 {
		fmt.Fprintf(&b, "; blacklisted: %s", strings.Join(e.Blacklisted, ", "))
	}
	return b.String()
}
