package db

import (
	"encoding/json"
	"testing"
)

func roundTrip(t *testing.T, v any) map[string]any {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return out
}

func TestQuery_MatchAllWhenEmpty(t *testing.T) {
	body := roundTrip(t, NewQuery().MustBuild())
	query := body["query"].(map[string]any)
	if _, ok := query["match_all"]; !ok {
		t.Errorf("query = %v, want match_all", query)
	}
	for _, k := range []string{"size", "from", "sort", "aggs", "collapse", "post_filter"} {
		if _, ok := body[k]; ok {
			t.Errorf("unexpected key %q in %v", k, body)
		}
	}
}

func TestQuery_FullBody(t *testing.T) {
	q := NewQuery().
		Filter(Clause{"ids": map[string]any{"values": []string{"1"}}}).
		Should(Clause{"term": map[string]any{"name": map[string]any{"value": "x", "boost": 5}}}).
		PostFilter(Clause{"term": map[string]any{"stock": 1}}).
		Sort("price", SortAsc).
		From(3).
		Size(7).
		TrackTotalHits().
		Collapse(&Collapse{Field: "parentId"}).
		MustBuild()

	body := roundTrip(t, q)

	b := body["query"].(map[string]any)["bool"].(map[string]any)
	if len(b["filter"].([]any)) != 1 || len(b["should"].([]any)) != 1 {
		t.Errorf("bool = %v", b)
	}
	if b["minimum_should_match"] != float64(0) {
		t.Errorf("minimum_should_match = %v, want 0", b["minimum_should_match"])
	}
	if body["size"] != float64(7) || body["from"] != float64(3) {
		t.Errorf("size/from = %v/%v", body["size"], body["from"])
	}
	if body["track_total_hits"] != true {
		t.Error("track_total_hits missing")
	}
	sort := body["sort"].([]any)[0].(map[string]any)
	if sort["price"].(map[string]any)["order"] != "asc" {
		t.Errorf("sort = %v", sort)
	}
	if body["collapse"].(map[string]any)["field"] != "parentId" {
		t.Errorf("collapse = %v", body["collapse"])
	}
	if _, ok := body["post_filter"]; !ok {
		t.Error("post_filter missing")
	}
}

func TestCollapse_NestedJSON(t *testing.T) {
	c := &Collapse{
		Field: "a",
		InnerHits: &InnerHits{
			Name:     "inner",
			Collapse: &Collapse{Field: "b"},
		},
	}
	out := roundTrip(t, c)
	inner := out["inner_hits"].(map[string]any)
	if inner["name"] != "inner" {
		t.Errorf("inner name = %v", inner["name"])
	}
	nested := inner["collapse"].(map[string]any)
	if nested["field"] != "b" {
		t.Errorf("nested collapse = %v", nested)
	}
	if _, ok := nested["inner_hits"]; ok {
		t.Error("leaf collapse must not carry inner_hits")
	}
}

func TestAggregation_JSON(t *testing.T) {
	field := roundTrip(t, NewCardinalityByField("parentId"))
	if field["cardinality"].(map[string]any)["field"] != "parentId" {
		t.Errorf("field cardinality = %v", field)
	}

	script := roundTrip(t, NewCardinalityByScript(Script{
		Source: "return 1;",
		Lang:   "painless",
		Params: map[string]any{"fields": []string{"a", "b"}},
	}))
	s := script["cardinality"].(map[string]any)["script"].(map[string]any)
	if s["source"] != "return 1;" || s["lang"] != "painless" {
		t.Errorf("script = %v", s)
	}
	if len(s["params"].(map[string]any)["fields"].([]any)) != 2 {
		t.Errorf("params = %v", s["params"])
	}

	scoped := roundTrip(t, NewFilterScoped(
		Clause{"term": map[string]any{"stock": 1}},
		"total-count",
		NewCardinalityByField("parentId"),
	))
	if _, ok := scoped["filter"].(map[string]any)["term"]; !ok {
		t.Errorf("filter = %v", scoped["filter"])
	}
	inner := scoped["aggs"].(map[string]any)["total-count"].(map[string]any)
	if inner["cardinality"].(map[string]any)["field"] != "parentId" {
		t.Errorf("inner = %v", inner)
	}
}

func TestAggregation_UnknownKind(t *testing.T) {
	if _, err := json.Marshal(Aggregation{}); err == nil {
		t.Fatal("expected error for zero aggregation")
	}
}
