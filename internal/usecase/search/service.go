package search

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/entsearch/internal/domain"
	"github.com/kailas-cloud/entsearch/internal/domain/search/criteria"
	"github.com/kailas-cloud/entsearch/internal/domain/search/result"
	"github.com/kailas-cloud/entsearch/internal/metrics"
)

// Policy decides what happens when the search engine fails.
type Policy string

const (
	// PolicyLog logs the failure and serves the call from the fallback searcher.
	PolicyLog Policy = "log"
	// PolicyEscalate returns the engine failure to the caller.
	PolicyEscalate Policy = "escalate"
)

// IsValid checks if the policy is supported.
func (p Policy) IsValid() bool {
	return p == PolicyLog || p == PolicyEscalate
}

// Service searches entities through the index, falling back to the
// authoritative searcher when the index cannot serve. Safe for concurrent use.
type Service struct {
	guard    Guard
	builder  *Builder
	exec     Executor
	fallback Fallback
	policy   Policy
	logger   *zap.Logger
}

// New creates a search service. An empty policy means PolicyLog.
func New(
	guard Guard, builder *Builder, exec Executor, fallback Fallback,
	policy Policy, logger *zap.Logger,
) *Service {
	if policy == "" {
		policy = PolicyLog
	}
	return &Service{
		guard:    guard,
		builder:  builder,
		exec:     exec,
		fallback: fallback,
		policy:   policy,
		logger:   logger,
	}
}

// Search returns the total and the ordered primary keys matching c.
func (s *Service) Search(
	ctx context.Context, entity string, c criteria.Criteria, scope domain.Scope,
) (result.IDSearchResult, error) {
	log := s.logger.With(
		zap.String("search_id", uuid.NewString()),
		zap.String("entity", entity),
		zap.String("language_id", scope.LanguageID),
	)

	if !s.guard.Allowed(entity, scope) {
		log.Debug("Index not eligible, using fallback", zap.Bool("bypass", scope.BypassIndex))
		metrics.SearchFallbackTotal.WithLabelValues(entity, metrics.ReasonIneligible).Inc()
		return s.searchFallback(ctx, entity, c, scope)
	}

	q, err := s.builder.Build(c, entity, scope)
	if err != nil {
		return result.IDSearchResult{}, fmt.Errorf("build query: %w", err)
	}

	start := time.Now()
	raw, err := s.exec.Execute(ctx, entity, scope.LanguageID, q)
	duration := time.Since(start)
	metrics.EngineRequestDuration.WithLabelValues(entity).Observe(duration.Seconds())

	if err != nil {
		log.Error("Search engine request failed",
			zap.Duration("duration", duration),
			zap.String("policy", string(s.policy)),
			zap.Error(err),
		)
		if s.policy == PolicyEscalate {
			return result.IDSearchResult{}, fmt.Errorf("execute: %w", err)
		}
		metrics.SearchFallbackTotal.WithLabelValues(entity, metrics.ReasonEngineError).Inc()
		return s.searchFallback(ctx, entity, c, scope)
	}

	res, err := hydrate(c, raw)
	if err != nil {
		return result.IDSearchResult{}, fmt.Errorf("hydrate: %w", err)
	}

	metrics.SearchRequestsTotal.WithLabelValues(entity, metrics.BackendIndex).Inc()
	log.Debug("Search served by index",
		zap.Duration("duration", duration),
		zap.Int("total", res.Total()),
		zap.Int("records", res.Len()),
	)
	return res, nil
}

func (s *Service) searchFallback(
	ctx context.Context, entity string, c criteria.Criteria, scope domain.Scope,
) (result.IDSearchResult, error) {
	res, err := s.fallback.Search(ctx, entity, c, scope)
	if err != nil {
		return result.IDSearchResult{}, fmt.Errorf("fallback search: %w", err)
	}
	metrics.SearchRequestsTotal.WithLabelValues(entity, metrics.BackendFallback).Inc()
	return res, nil
}
