package entsearch

import "github.com/kailas-cloud/entsearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrUnknownEntity     = domain.ErrUnknownEntity
	ErrInvalidCriteria   = domain.ErrInvalidCriteria
	ErrFieldCompilation  = domain.ErrFieldCompilation
	ErrEngineUnavailable = domain.ErrEngineUnavailable
	ErrMalformedResponse = domain.ErrMalformedResponse
	ErrFallbackFailed    = domain.ErrFallbackFailed
)
