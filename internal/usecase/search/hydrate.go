package search

import (
	"fmt"

	"github.com/kailas-cloud/entsearch/internal/db"
	"github.com/kailas-cloud/entsearch/internal/domain"
	"github.com/kailas-cloud/entsearch/internal/domain/search/criteria"
	"github.com/kailas-cloud/entsearch/internal/domain/search/result"
)

// hydrate turns a raw engine response into the total and the ordered records.
// A response without hit section is an empty result, not an error.
func hydrate(c criteria.Criteria, raw *db.RawResult) (result.IDSearchResult, error) {
	if raw == nil || raw.Hits == nil {
		return result.Empty(), nil
	}

	res := result.New(0)
	if err := flatten(raw.Hits.Hits, 0, maxNesting(c), &res); err != nil {
		return result.IDSearchResult{}, err
	}

	total, err := totalOf(c, raw)
	if err != nil {
		return result.IDSearchResult{}, err
	}
	res = res.WithTotal(total)

	if c.UseIDSorting() {
		res = res.SortByKeys(c.IDKeys())
	}
	return res, nil
}

// maxNesting is the number of inner hit levels a query with c's grouping can produce.
func maxNesting(c criteria.Criteria) int {
	if n := len(c.GroupFields()); n > 1 {
		return n - 1
	}
	return 0
}

// flatten walks hits depth-first, replacing each expanded group by its own
// hits. Later duplicates overwrite earlier ones.
func flatten(hits []db.Hit, depth, maxDepth int, out *result.IDSearchResult) error {
	for _, h := range hits {
		if inner := h.InnerHits[innerHitsName]; inner != nil && inner.Hits != nil {
			if depth >= maxDepth {
				return fmt.Errorf("%w: inner hits nested deeper than %d level(s)", domain.ErrMalformedResponse, maxDepth)
			}
			if err := flatten(inner.Hits.Hits, depth+1, maxDepth, out); err != nil {
				return err
			}
			continue
		}
		var score float64
		if h.Score != nil {
			score = *h.Score
		}
		out.Put(result.Record{PrimaryKey: h.ID, Score: score})
	}
	return nil
}

// totalOf selects the total by query mode: raw hit count without grouping,
// distinct group count otherwise.
func totalOf(c criteria.Criteria, raw *db.RawResult) (int, error) {
	m := c.Mode()
	if !m.IsGrouped() {
		if raw.Hits.Total == nil {
			if len(raw.Hits.Hits) == 0 {
				return 0, nil
			}
			return 0, fmt.Errorf("%w: hits.total missing", domain.ErrMalformedResponse)
		}
		return int(raw.Hits.Total.Value), nil
	}

	path := []string{totalCountAgg}
	if m.IsPostFiltered() {
		path = []string{totalFilteredCountAgg, totalCountAgg}
	}

	v, err := raw.Aggregations.Value(path...)
	if err != nil {
		if len(raw.Hits.Hits) == 0 {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	return int(v), nil
}
