package db

import (
	"encoding/json"
	"fmt"
)

// AggregationKind tags the variant of an Aggregation.
type AggregationKind int

const (
	// CardinalityField counts distinct values of one field.
	CardinalityField AggregationKind = iota + 1
	// CardinalityScript counts distinct values of a script-derived key.
	CardinalityScript
	// FilterScoped restricts a named inner aggregation to a filter.
	FilterScoped
)

// Script is an inline engine script.
type Script struct {
	Source string         `json:"source"`
	Lang   string         `json:"lang,omitempty"`
	Params map[string]any `json:"params,omitempty"`
}

// Aggregation is a closed union of the aggregations used for totals.
type Aggregation struct {
	kind      AggregationKind
	field     string
	script    *Script
	filter    Clause
	innerName string
	inner     *Aggregation
}

// NewCardinalityByField counts distinct values of field.
func NewCardinalityByField(field string) Aggregation {
	return Aggregation{kind: CardinalityField, field: field}
}

// NewCardinalityByScript counts distinct values produced by s.
func NewCardinalityByScript(s Script) Aggregation {
	return Aggregation{kind: CardinalityScript, script: &s}
}

// NewFilterScoped evaluates inner, under name, only over documents matching f.
func NewFilterScoped(f Clause, name string, inner Aggregation) Aggregation {
	return Aggregation{kind: FilterScoped, filter: f, innerName: name, inner: &inner}
}

// MarshalJSON renders the engine representation of the variant.
func (a Aggregation) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case CardinalityField:
		return json.Marshal(map[string]any{
			"cardinality": map[string]any{"field": a.field},
		})
	case CardinalityScript:
		return json.Marshal(map[string]any{
			"cardinality": map[string]any{"script": a.script},
		})
	case FilterScoped:
		return json.Marshal(map[string]any{
			"filter": a.filter,
			"aggs":   map[string]Aggregation{a.innerName: *a.inner},
		})
	default:
		return nil, fmt.Errorf("unknown aggregation kind %d", a.kind)
	}
}
