package chi

import (
	"fmt"

	"github.com/kailas-cloud/entsearch/internal/domain/search/criteria"
	"github.com/kailas-cloud/entsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/entsearch/internal/domain/search/result"
)

// errorCode is the machine-readable error kind of an error response.
type errorCode string

const (
	codeBadRequest        errorCode = "bad_request"
	codeValidationFailed  errorCode = "validation_failed"
	codeUnauthorized      errorCode = "unauthorized"
	codeUnknownEntity     errorCode = "unknown_entity"
	codeEngineUnavailable errorCode = "engine_unavailable"
	codeMalformedResponse errorCode = "malformed_response"
	codeFallbackFailed    errorCode = "fallback_failed"
	codeInternalError     errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
	Entity  string    `json:"entity,omitempty"`
	Field   string    `json:"field,omitempty"`
}

type filterRequest struct {
	Type    string          `json:"type" validate:"required,oneof=equals equals_any contains prefix range not and or"`
	Field   string          `json:"field"`
	Value   string          `json:"value"`
	Values  []string        `json:"values"`
	GT      *float64        `json:"gt"`
	GTE     *float64        `json:"gte"`
	LT      *float64        `json:"lt"`
	LTE     *float64        `json:"lte"`
	Filters []filterRequest `json:"filters" validate:"dive"`
}

type queryRequest struct {
	Filter filterRequest `json:"filter"`
	Score  float64       `json:"score" validate:"gt=0"`
}

type sortingRequest struct {
	Field     string `json:"field" validate:"required"`
	Direction string `json:"direction" validate:"omitempty,oneof=asc desc"`
}

type searchRequest struct {
	IDs         [][]string       `json:"ids" validate:"max=1000,dive,min=1,dive,required"`
	Filters     []filterRequest  `json:"filters" validate:"dive"`
	PostFilters []filterRequest  `json:"post_filters" validate:"dive"`
	Queries     []queryRequest   `json:"queries" validate:"dive"`
	Sortings    []sortingRequest `json:"sortings" validate:"max=16,dive"`
	Term        string           `json:"term" validate:"max=4096"`
	Offset      int              `json:"offset" validate:"gte=0"`
	Limit       *int             `json:"limit" validate:"omitempty,gt=0"`
	GroupBy     []string         `json:"group_by" validate:"max=4,dive,required"`
	IDSorting   bool             `json:"id_sorting"`
}

type searchItem struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

type searchResponse struct {
	Total int          `json:"total"`
	Items []searchItem `json:"items"`
}

type flagRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type healthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}

func criteriaFromRequest(req searchRequest) (criteria.Criteria, error) {
	var opts []criteria.Option

	if len(req.IDs) > 0 {
		ids := make([]criteria.ID, len(req.IDs))
		for i, parts := range req.IDs {
			id, err := criteria.NewID(parts...)
			if err != nil {
				return criteria.Criteria{}, fmt.Errorf("ids[%d]: %w", i, err)
			}
			ids[i] = id
		}
		opts = append(opts, criteria.WithIDs(ids...))
	}

	filters, err := filtersFromRequest(req.Filters)
	if err != nil {
		return criteria.Criteria{}, fmt.Errorf("filters: %w", err)
	}
	postFilters, err := filtersFromRequest(req.PostFilters)
	if err != nil {
		return criteria.Criteria{}, fmt.Errorf("post_filters: %w", err)
	}
	opts = append(opts, criteria.WithFilters(filters...), criteria.WithPostFilters(postFilters...))

	for i, q := range req.Queries {
		f, err := filterFromRequest(q.Filter)
		if err != nil {
			return criteria.Criteria{}, fmt.Errorf("queries[%d]: %w", i, err)
		}
		sq, err := criteria.NewScoreQuery(f, q.Score)
		if err != nil {
			return criteria.Criteria{}, fmt.Errorf("queries[%d]: %w", i, err)
		}
		opts = append(opts, criteria.WithQueries(sq))
	}

	for _, s := range req.Sortings {
		sorting, err := criteria.NewSorting(s.Field, criteria.Direction(s.Direction))
		if err != nil {
			return criteria.Criteria{}, err
		}
		opts = append(opts, criteria.WithSortings(sorting))
	}

	opts = append(opts,
		criteria.WithTerm(req.Term),
		criteria.WithOffset(req.Offset),
		criteria.WithGroupFields(req.GroupBy...),
	)
	if req.Limit != nil {
		opts = append(opts, criteria.WithLimit(*req.Limit))
	}
	if req.IDSorting {
		opts = append(opts, criteria.WithIDSorting())
	}

	return criteria.New(opts...)
}

func filtersFromRequest(reqs []filterRequest) ([]filter.Filter, error) {
	out := make([]filter.Filter, 0, len(reqs))
	for i, r := range reqs {
		f, err := filterFromRequest(r)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func filterFromRequest(r filterRequest) (filter.Filter, error) {
	switch filter.Kind(r.Type) {
	case filter.KindEquals:
		return filter.Equals(r.Field, r.Value)
	case filter.KindEqualsAny:
		return filter.EqualsAny(r.Field, r.Values)
	case filter.KindContains:
		return filter.Contains(r.Field, r.Value)
	case filter.KindPrefix:
		return filter.Prefix(r.Field, r.Value)
	case filter.KindRange:
		rng, err := filter.NewRange(r.GT, r.GTE, r.LT, r.LTE)
		if err != nil {
			return filter.Filter{}, fmt.Errorf("%s: %w", r.Field, err)
		}
		return filter.InRange(r.Field, rng)
	}

	children, err := filtersFromRequest(r.Filters)
	if err != nil {
		return filter.Filter{}, err
	}
	switch r.Type {
	case string(filter.KindNot):
		return filter.Not(children...)
	case string(filter.And):
		return filter.Multi(filter.And, children...)
	case string(filter.Or):
		return filter.Multi(filter.Or, children...)
	}
	return filter.Filter{}, fmt.Errorf("unknown filter type %q", r.Type)
}

func searchResultToResponse(r result.IDSearchResult) searchResponse {
	items := make([]searchItem, 0, r.Len())
	for _, rec := range r.Records() {
		items = append(items, searchItem{ID: rec.PrimaryKey, Score: rec.Score})
	}
	return searchResponse{Total: r.Total(), Items: items}
}
