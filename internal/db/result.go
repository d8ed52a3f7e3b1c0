package db

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// RawResult is a decoded engine search response. A nil Hits means the
// response carried no hit section at all.
type RawResult struct {
	Hits         *Hits        `json:"hits,omitempty"`
	Aggregations Aggregations `json:"aggregations,omitempty"`
}

// Hits is the hit section of a response.
type Hits struct {
	Total *Total `json:"total,omitempty"`
	Hits  []Hit  `json:"hits"`
}

// Total is the engine hit count. Older engines send a bare number.
type Total struct {
	Value    int64  `json:"value"`
	Relation string `json:"relation,omitempty"`
}

// UnmarshalJSON accepts both {"value":n,"relation":"eq"} and n.
func (t *Total) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		t.Value = n
		t.Relation = "eq"
		return nil
	}
	type plain Total
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode hits.total: %w", err)
	}
	*t = Total(p)
	return nil
}

// Hit is a single matched document. InnerHits holds expanded groups by name.
type Hit struct {
	ID        string                `json:"_id"`
	Score     *float64              `json:"_score"`
	InnerHits map[string]*RawResult `json:"inner_hits,omitempty"`
}

// Aggregations is the raw aggregation section keyed by aggregation name.
type Aggregations map[string]any

type valueLeaf struct {
	Value *float64 `mapstructure:"value"`
}

// Value reads the numeric "value" of the aggregation at path.
func (a Aggregations) Value(path ...string) (int64, error) {
	if len(path) == 0 {
		return 0, fmt.Errorf("empty aggregation path")
	}
	var node any = map[string]any(a)
	for _, name := range path {
		m, ok := node.(map[string]any)
		if !ok {
			return 0, fmt.Errorf("aggregation %v: %q is not an object", path, name)
		}
		next, ok := m[name]
		if !ok {
			return 0, fmt.Errorf("aggregation %v: %q missing", path, name)
		}
		node = next
	}
	var leaf valueLeaf
	if err := mapstructure.Decode(node, &leaf); err != nil {
		return 0, fmt.Errorf("aggregation %v: %w", path, err)
	}
	if leaf.Value == nil {
		return 0, fmt.Errorf("aggregation %v: no value", path)
	}
	return int64(*leaf.Value), nil
}
