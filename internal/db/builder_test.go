package db

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestQueryBuilder_Simple(t *testing.T) {
	q := NewQuery().
		Filter(Clause{"term": map[string]any{"active": true}}).
		Sort("price", SortDesc).
		From(20).
		Size(10).
		TrackTotalHits().
		MustBuild()

	if len(q.Filter) != 1 {
		t.Fatalf("filter count = %d, want 1", len(q.Filter))
	}
	if q.From != 20 {
		t.Errorf("from = %d, want 20", q.From)
	}
	if q.Size == nil || *q.Size != 10 {
		t.Errorf("size = %v, want 10", q.Size)
	}
	if !q.TrackTotalHits {
		t.Error("expected TrackTotalHits=true")
	}
	if len(q.Sort) != 1 || q.Sort[0].Field != "price" || q.Sort[0].Order != SortDesc {
		t.Errorf("sort = %+v", q.Sort)
	}
}

func TestQueryBuilder_Aggregate(t *testing.T) {
	q := NewQuery().
		Aggregate("total-count", NewCardinalityByField("parentId")).
		MustBuild()

	agg, ok := q.Aggregations["total-count"]
	if !ok {
		t.Fatal("missing total-count aggregation")
	}
	if agg.kind != CardinalityField || agg.field != "parentId" {
		t.Errorf("aggregation = %+v", agg)
	}
}

func TestQueryBuilder_BuildDoesNotAlias(t *testing.T) {
	b := NewQuery().Filter(Clause{"match_all": map[string]any{}})
	q1 := b.MustBuild()
	b.From(5)
	if q1.From != 0 {
		t.Errorf("built query mutated by builder: from = %d", q1.From)
	}
}

func TestQueryBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder func() (*Query, error)
		wantErr string
	}{
		{
			name:    "negative from",
			builder: func() (*Query, error) { return NewQuery().From(-1).Build() },
			wantErr: "from must be >= 0",
		},
		{
			name:    "zero size",
			builder: func() (*Query, error) { return NewQuery().Size(0).Build() },
			wantErr: "size must be > 0",
		},
		{
			name:    "empty sort field",
			builder: func() (*Query, error) { return NewQuery().Sort("", SortAsc).Build() },
			wantErr: "field is required",
		},
		{
			name:    "bad sort order",
			builder: func() (*Query, error) { return NewQuery().Sort("a", "up").Build() },
			wantErr: "invalid order",
		},
		{
			name:    "empty aggregation",
			builder: func() (*Query, error) { return NewQuery().Aggregate("x", Aggregation{}).Build() },
			wantErr: "is empty",
		},
		{
			name: "unnamed inner hits",
			builder: func() (*Query, error) {
				return NewQuery().Collapse(&Collapse{
					Field:     "a",
					InnerHits: &InnerHits{Collapse: &Collapse{Field: "b"}},
				}).Build()
			},
			wantErr: "inner hits name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestCollapse_MarshalNested(t *testing.T) {
	c := &Collapse{
		Field: "a",
		InnerHits: &InnerHits{Name: "inner", Collapse: &Collapse{
			Field:     "b",
			InnerHits: &InnerHits{Name: "inner", Collapse: &Collapse{Field: "c"}},
		}},
	}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"field":"a","inner_hits":{"name":"inner","collapse":{"field":"b","inner_hits":{"name":"inner","collapse":{"field":"c"}}}}}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}
