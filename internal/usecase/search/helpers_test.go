package search

import (
	"encoding/json"
	"testing"

	"github.com/kailas-cloud/entsearch/internal/db"
	"github.com/kailas-cloud/entsearch/internal/domain/entity"
	"github.com/kailas-cloud/entsearch/internal/domain/entity/field"
	"github.com/kailas-cloud/entsearch/internal/domain/search/criteria"
	"github.com/kailas-cloud/entsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/entsearch/internal/dsl"
)

func testRegistry(t *testing.T) *entity.Registry {
	t.Helper()
	reg, err := entity.NewRegistry(
		entity.Reconstruct("product", []field.Field{
			field.Reconstruct("name", field.Text, 10, false),
			field.Reconstruct("number", field.Keyword, 5, true),
			field.Reconstruct("price", field.Numeric, 0, false),
			field.Reconstruct("stock", field.Numeric, 0, false),
			field.Reconstruct("parentId", field.Keyword, 0, false),
			field.Reconstruct("manufacturerId", field.Keyword, 0, true),
			field.Reconstruct("color", field.Keyword, 0, false),
		}, true),
		entity.Reconstruct("tag", []field.Field{
			field.Reconstruct("label", field.Keyword, 0, false),
		}, true),
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	reg := testRegistry(t)
	return NewBuilder(dsl.NewParser(reg), reg)
}

func mustCriteria(t *testing.T, opts ...criteria.Option) criteria.Criteria {
	t.Helper()
	c, err := criteria.New(opts...)
	if err != nil {
		t.Fatalf("criteria.New: %v", err)
	}
	return c
}

// mustFilter fails the test on a filter construction error. Call as mustFilter(t)(filter.Equals(...)).
func mustFilter(t *testing.T) func(filter.Filter, error) filter.Filter {
	return func(f filter.Filter, err error) filter.Filter {
		t.Helper()
		if err != nil {
			t.Fatalf("filter: %v", err)
		}
		return f
	}
}

func mustIDs(t *testing.T, keys ...string) []criteria.ID {
	t.Helper()
	ids := make([]criteria.ID, len(keys))
	for i, k := range keys {
		id, err := criteria.NewID(k)
		if err != nil {
			t.Fatalf("NewID: %v", err)
		}
		ids[i] = id
	}
	return ids
}

// body renders a query the way it is sent to the engine.
func body(t *testing.T, q *db.Query) map[string]any {
	t.Helper()
	data, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

// aggJSON renders an aggregation the way it is sent to the engine.
func aggJSON(t *testing.T, a db.Aggregation) string {
	t.Helper()
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

// scriptParams returns the params of a script cardinality aggregation.
func scriptParams(t *testing.T, a db.Aggregation) map[string]any {
	t.Helper()
	var out struct {
		Cardinality struct {
			Script *struct {
				Params map[string]any `json:"params"`
			} `json:"script"`
		} `json:"cardinality"`
	}
	if err := json.Unmarshal([]byte(aggJSON(t, a)), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Cardinality.Script == nil {
		t.Fatalf("aggregation %s is not a script cardinality", aggJSON(t, a))
	}
	return out.Cardinality.Script.Params
}

func score(v float64) *float64 { return &v }

func hit(id string, s float64) db.Hit {
	return db.Hit{ID: id, Score: score(s)}
}

func group(id string, inner ...db.Hit) db.Hit {
	return db.Hit{
		ID:    id,
		Score: score(1),
		InnerHits: map[string]*db.RawResult{
			innerHitsName: {Hits: &db.Hits{Total: &db.Total{Value: int64(len(inner))}, Hits: inner}},
		},
	}
}
