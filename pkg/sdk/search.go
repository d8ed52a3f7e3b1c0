package entsearch

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/entsearch/internal/domain"
	"github.com/kailas-cloud/entsearch/internal/domain/search/criteria"
	"github.com/kailas-cloud/entsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/entsearch/internal/domain/search/result"
)

// Filter is a condition on entity fields. Build with Eq, In, Contains,
// Prefix, Between, Not, And and Or. Construction errors surface from Do.
type Filter struct {
	f   filter.Filter
	err error
}

// Eq matches documents whose field equals value.
func Eq(field, value string) Filter {
	f, err := filter.Equals(field, value)
	return Filter{f: f, err: err}
}

// In matches documents whose field equals one of values.
func In(field string, values ...string) Filter {
	f, err := filter.EqualsAny(field, values)
	return Filter{f: f, err: err}
}

// Contains matches documents whose field contains value.
func Contains(field, value string) Filter {
	f, err := filter.Contains(field, value)
	return Filter{f: f, err: err}
}

// Prefix matches documents whose field starts with value.
func Prefix(field, value string) Filter {
	f, err := filter.Prefix(field, value)
	return Filter{f: f, err: err}
}

// Bounds is a numeric or epoch-millisecond range. Nil bounds are open.
type Bounds struct {
	GT, GTE, LT, LTE *float64
}

// Between matches documents whose field lies within b.
func Between(field string, b Bounds) Filter {
	r, err := filter.NewRange(b.GT, b.GTE, b.LT, b.LTE)
	if err != nil {
		return Filter{err: err}
	}
	f, err := filter.InRange(field, r)
	return Filter{f: f, err: err}
}

// Not matches documents matching none of children.
func Not(children ...Filter) Filter {
	inner, err := unwrap(children)
	if err != nil {
		return Filter{err: err}
	}
	f, err := filter.Not(inner...)
	return Filter{f: f, err: err}
}

// And matches documents matching all children.
func And(children ...Filter) Filter {
	return multi(filter.And, children)
}

// Or matches documents matching at least one child.
func Or(children ...Filter) Filter {
	return multi(filter.Or, children)
}

func multi(op filter.Operator, children []Filter) Filter {
	inner, err := unwrap(children)
	if err != nil {
		return Filter{err: err}
	}
	f, err := filter.Multi(op, inner...)
	return Filter{f: f, err: err}
}

func unwrap(filters []Filter) ([]filter.Filter, error) {
	out := make([]filter.Filter, len(filters))
	for i, f := range filters {
		if f.err != nil {
			return nil, f.err
		}
		out[i] = f.f
	}
	return out, nil
}

// Hit is one matched document.
type Hit struct {
	ID    string
	Score float64
}

// Result is the outcome of a search: the total match count and one page of hits.
type Result struct {
	Total int
	Hits  []Hit
}

func resultFromDomain(r result.IDSearchResult) Result {
	records := r.Records()
	hits := make([]Hit, len(records))
	for i, rec := range records {
		hits[i] = Hit{ID: rec.PrimaryKey, Score: rec.Score}
	}
	return Result{Total: r.Total(), Hits: hits}
}

// SearchService builds one search call. Not safe for concurrent use.
type SearchService struct {
	client *Client
	entity string
	scope  domain.Scope
	opts   []criteria.Option
	errs   []error
}

// IDs restricts the search to the given primary keys.
func (s *SearchService) IDs(ids ...string) *SearchService {
	parsed := make([]criteria.ID, 0, len(ids))
	for _, id := range ids {
		cid, err := criteria.NewID(id)
		if err != nil {
			s.errs = append(s.errs, err)
			continue
		}
		parsed = append(parsed, cid)
	}
	s.opts = append(s.opts, criteria.WithIDs(parsed...))
	return s
}

// Where adds filters that restrict both the hits and the total.
func (s *SearchService) Where(filters ...Filter) *SearchService {
	inner, err := unwrap(filters)
	if err != nil {
		s.errs = append(s.errs, err)
		return s
	}
	s.opts = append(s.opts, criteria.WithFilters(inner...))
	return s
}

// PostFilter adds filters applied after grouping.
func (s *SearchService) PostFilter(filters ...Filter) *SearchService {
	inner, err := unwrap(filters)
	if err != nil {
		s.errs = append(s.errs, err)
		return s
	}
	s.opts = append(s.opts, criteria.WithPostFilters(inner...))
	return s
}

// Boost raises the score of documents matching f by score.
func (s *SearchService) Boost(f Filter, score float64) *SearchService {
	if f.err != nil {
		s.errs = append(s.errs, f.err)
		return s
	}
	q, err := criteria.NewScoreQuery(f.f, score)
	if err != nil {
		s.errs = append(s.errs, err)
		return s
	}
	s.opts = append(s.opts, criteria.WithQueries(q))
	return s
}

// SortBy orders results by field.
func (s *SearchService) SortBy(field string, desc bool) *SearchService {
	dir := criteria.Asc
	if desc {
		dir = criteria.Desc
	}
	sorting, err := criteria.NewSorting(field, dir)
	if err != nil {
		s.errs = append(s.errs, err)
		return s
	}
	s.opts = append(s.opts, criteria.WithSortings(sorting))
	return s
}

// Term sets the free-text term matched against boosted fields.
func (s *SearchService) Term(term string) *SearchService {
	s.opts = append(s.opts, criteria.WithTerm(term))
	return s
}

// Offset skips the first n hits.
func (s *SearchService) Offset(n int) *SearchService {
	s.opts = append(s.opts, criteria.WithOffset(n))
	return s
}

// Limit caps the number of hits.
func (s *SearchService) Limit(n int) *SearchService {
	s.opts = append(s.opts, criteria.WithLimit(n))
	return s
}

// GroupBy keeps one hit per distinct combination of fields.
func (s *SearchService) GroupBy(fields ...string) *SearchService {
	s.opts = append(s.opts, criteria.WithGroupFields(fields...))
	return s
}

// KeepIDOrder returns hits in the order given to IDs.
func (s *SearchService) KeepIDOrder() *SearchService {
	s.opts = append(s.opts, criteria.WithIDSorting())
	return s
}

// Language selects the per-language index.
func (s *SearchService) Language(languageID string) *SearchService {
	bypass := s.scope.BypassIndex
	s.scope = domain.NewScope(languageID)
	s.scope.BypassIndex = bypass
	return s
}

// BypassIndex serves the call from the authoritative store.
func (s *SearchService) BypassIndex() *SearchService {
	s.scope.BypassIndex = true
	return s
}

// Do executes the search.
func (s *SearchService) Do(ctx context.Context) (Result, error) {
	if len(s.errs) > 0 {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidCriteria, errors.Join(s.errs...))
	}
	c, err := criteria.New(s.opts...)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidCriteria, err)
	}
	return s.client.search(ctx, s.entity, c, s.scope)
}
