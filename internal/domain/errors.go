package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData marks a trace with fewer than two fixes.
	// Distance computations never return it; TraceMetrics.Err reports it.
	ErrInsufficientData = errors.New("insufficient data: fewer than two gps fixes")

	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError reports malformed input to a pure computation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ProviderError wraps a failed call to an external routing or geocoding provider.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
