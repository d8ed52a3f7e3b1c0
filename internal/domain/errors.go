package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownEntity signals a search against an entity that is not registered.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrInvalidCriteria signals a criteria value that violates its invariants.
	ErrInvalidCriteria = errors.New("invalid criteria")
	// ErrFieldCompilation signals an invalid field path or filter. Raised before any network call.
	ErrFieldCompilation = errors.New("field compilation failed")
	// ErrEngineUnavailable signals a transport, protocol or engine-side failure of the search index.
	ErrEngineUnavailable = errors.New("search engine unavailable")
	// ErrMalformedResponse signals an engine response missing paths the query asked for.
	ErrMalformedResponse = errors.New("malformed search response")
	// ErrFallbackFailed signals a failure of the authoritative fallback searcher.
	ErrFallbackFailed = errors.New("fallback search failed")
)

// FieldError wraps ErrFieldCompilation with the offending entity and field path.
type FieldError struct {
	Entity string
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s.%s: %s", ErrFieldCompilation.Error(), e.Entity, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrFieldCompilation }

// NewFieldError creates a field compilation error.
func NewFieldError(entity, field, reason string) error {
	return &FieldError{Entity: entity, Field: field, Reason: reason}
}
