package db

import "encoding/json"

// Clause is one engine-native query fragment, serialized as-is.
type Clause map[string]any

// SortOrder is an engine sort order.
type SortOrder string

// Sort orders.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortClause orders hits by one field.
type SortClause struct {
	Field string
	Order SortOrder
}

// MarshalJSON renders {"<field>":{"order":"<order>"}}.
func (s SortClause) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{s.Field: map[string]any{"order": s.Order}})
}

// Collapse reduces hits to one per distinct field value. A non-nil InnerHits
// expands each group and collapses it again by the next field.
type Collapse struct {
	Field     string     `json:"field"`
	InnerHits *InnerHits `json:"inner_hits,omitempty"`
}

// InnerHits names the expansion of a collapsed group.
type InnerHits struct {
	Name     string    `json:"name"`
	Collapse *Collapse `json:"collapse,omitempty"`
}

// Query is a compiled search request body. Build it with QueryBuilder.
// Filter and Must restrict the match set, Should only adds relevance.
type Query struct {
	Filter         []Clause
	Must           []Clause
	Should         []Clause
	PostFilter     Clause
	Sort           []SortClause
	From           int
	Size           *int
	TrackTotalHits bool
	Aggregations   map[string]Aggregation
	Collapse       *Collapse
}

// Body returns the request body as a generic map.
func (q *Query) Body() map[string]any {
	body := map[string]any{"query": q.boolQuery()}
	if q.PostFilter != nil {
		body["post_filter"] = q.PostFilter
	}
	if len(q.Sort) > 0 {
		body["sort"] = q.Sort
	}
	if q.From > 0 {
		body["from"] = q.From
	}
	if q.Size != nil {
		body["size"] = *q.Size
	}
	if q.TrackTotalHits {
		body["track_total_hits"] = true
	}
	if len(q.Aggregations) > 0 {
		body["aggs"] = q.Aggregations
	}
	if q.Collapse != nil {
		body["collapse"] = q.Collapse
	}
	return body
}

func (q *Query) boolQuery() Clause {
	if len(q.Filter) == 0 && len(q.Must) == 0 && len(q.Should) == 0 {
		return Clause{"match_all": map[string]any{}}
	}
	b := map[string]any{}
	if len(q.Filter) > 0 {
		b["filter"] = q.Filter
	}
	if len(q.Must) > 0 {
		b["must"] = q.Must
	}
	if len(q.Should) > 0 {
		b["should"] = q.Should
		b["minimum_should_match"] = 0
	}
	return Clause{"bool": b}
}

// MarshalJSON renders the request body.
func (q *Query) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Body())
}
