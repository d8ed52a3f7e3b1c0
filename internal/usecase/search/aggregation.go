package search

import (
	"github.com/kailas-cloud/entsearch/internal/db"
	"github.com/kailas-cloud/entsearch/internal/domain/entity/field"
)

// Aggregation and expansion names the hydrator reads back.
const (
	totalCountAgg         = "total-count"
	totalFilteredCountAgg = "total-filtered-count"
	innerHitsName         = "inner"
)

// emptyMarker stands for a grouping field without value. Present values are
// encoded as v<len>:<value>, so no value can produce the marker.
const emptyMarker = "empty;"

const compositeKeyScript = `String key = '';
for (String f : params.fields) {
  if (doc.containsKey(f) == false || doc[f].size() == 0) {
    key += params.empty;
  } else {
    String v = String.valueOf(doc[f].value);
    key += 'v' + v.length() + ':' + v;
  }
}
return key;`

// buildCollapse nests one collapse level per accessor.
func buildCollapse(accessors []string) *db.Collapse {
	if len(accessors) == 0 {
		return nil
	}
	c := &db.Collapse{Field: accessors[0]}
	if len(accessors) > 1 {
		c.InnerHits = &db.InnerHits{Name: innerHitsName, Collapse: buildCollapse(accessors[1:])}
	}
	return c
}

// groupKeyAggregation counts distinct group keys. A single field that every
// document carries is counted natively, anything else through the composite
// key script so that documents without value form their own group.
func groupKeyAggregation(fields []field.Field, accessors []string) db.Aggregation {
	if len(fields) == 1 && fields[0].Required() {
		return db.NewCardinalityByField(accessors[0])
	}
	return db.NewCardinalityByScript(db.Script{
		Source: compositeKeyScript,
		Lang:   "painless",
		Params: map[string]any{
			"fields": accessors,
			"empty":  emptyMarker,
		},
	})
}

// totalAggregation returns the name and aggregation computing the distinct
// group total, scoped to the post-filters when there are any.
func totalAggregation(fields []field.Field, accessors []string, postFilters []db.Clause) (string, db.Aggregation) {
	agg := groupKeyAggregation(fields, accessors)
	if len(postFilters) == 0 {
		return totalCountAgg, agg
	}
	return totalFilteredCountAgg, db.NewFilterScoped(allOf(postFilters), totalCountAgg, agg)
}

func allOf(clauses []db.Clause) db.Clause {
	if len(clauses) == 1 {
		return clauses[0]
	}
	return db.Clause{"bool": map[string]any{"filter": clauses}}
}
