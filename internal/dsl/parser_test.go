package dsl

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kailas-cloud/entsearch/internal/db"
	"github.com/kailas-cloud/entsearch/internal/domain"
	"github.com/kailas-cloud/entsearch/internal/domain/entity"
	"github.com/kailas-cloud/entsearch/internal/domain/entity/field"
	"github.com/kailas-cloud/entsearch/internal/domain/search/filter"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	reg, err := entity.NewRegistry(entity.Reconstruct("product", []field.Field{
		field.Reconstruct("name", field.Text, 10, false),
		field.Reconstruct("number", field.Keyword, 5, true),
		field.Reconstruct("price", field.Numeric, 0, false),
		field.Reconstruct("active", field.Boolean, 0, false),
		field.Reconstruct("manufacturer.name", field.Keyword, 0, false),
	}, true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return NewParser(reg)
}

func toJSON(t *testing.T, c db.Clause) string {
	t.Helper()
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

// must fails the test on a filter construction error. Call as must(t)(filter.Equals(...)).
func must(t *testing.T) func(filter.Filter, error) filter.Filter {
	return func(f filter.Filter, err error) filter.Filter {
		t.Helper()
		if err != nil {
			t.Fatalf("filter: %v", err)
		}
		return f
	}
}

func TestBuildAccessor(t *testing.T) {
	p := newTestParser(t)
	scope := domain.NewScope("default")

	tests := []struct {
		path string
		want string
	}{
		{"product.name", "name"},
		{"name", "name"},
		{"product.manufacturer.name", "manufacturer.name"},
		{"product.id", "id"},
	}
	for _, tt := range tests {
		got, err := p.BuildAccessor("product", tt.path, scope)
		if err != nil {
			t.Errorf("BuildAccessor(%q) unexpected error: %v", tt.path, err)
			continue
		}
		if got != tt.want {
			t.Errorf("BuildAccessor(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestBuildAccessor_Errors(t *testing.T) {
	p := newTestParser(t)
	scope := domain.NewScope("default")

	_, err := p.BuildAccessor("product", "product.missing", scope)
	if !errors.Is(err, domain.ErrFieldCompilation) {
		t.Errorf("unknown field error = %v, want ErrFieldCompilation", err)
	}
	var fe *domain.FieldError
	if !errors.As(err, &fe) || fe.Field != "product.missing" || fe.Entity != "product" {
		t.Errorf("field error = %+v", fe)
	}

	_, err = p.BuildAccessor("order", "order.id", scope)
	if !errors.Is(err, domain.ErrUnknownEntity) {
		t.Errorf("unknown entity error = %v", err)
	}
}

func TestParseFilter_Leaves(t *testing.T) {
	p := newTestParser(t)
	scope := domain.NewScope("default")
	gte := 10.0

	rng, err := filter.NewRange(nil, &gte, nil, nil)
	if err != nil {
		t.Fatalf("NewRange: %v", err)
	}

	tests := []struct {
		name string
		f    filter.Filter
		want string
	}{
		{"equals keyword", must(t)(filter.Equals("product.number", "SW-1")), `{"term":{"number":{"value":"SW-1"}}}`},
		{"equals numeric", must(t)(filter.Equals("product.price", "9.5")), `{"term":{"price":{"value":9.5}}}`},
		{"equals boolean", must(t)(filter.Equals("product.active", "true")), `{"term":{"active":{"value":true}}}`},
		{"equals text", must(t)(filter.Equals("product.name", "red shirt")), `{"match_phrase":{"name":"red shirt"}}`},
		{"equals any", must(t)(filter.EqualsAny("product.number", []string{"a", "b"})), `{"terms":{"number":["a","b"]}}`},
		{"contains keyword", must(t)(filter.Contains("product.number", "a*b")), `{"wildcard":{"number":{"value":"*a\\*b*"}}}`},
		{"contains text", must(t)(filter.Contains("product.name", "shirt")), `{"match":{"name":{"operator":"and","query":"shirt"}}}`},
		{"prefix keyword", must(t)(filter.Prefix("product.number", "SW")), `{"prefix":{"number":{"value":"SW"}}}`},
		{"range", must(t)(filter.InRange("product.price", rng)), `{"range":{"price":{"gte":10}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := p.ParseFilter(tt.f, "product", "product", scope)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := toJSON(t, c); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseFilter_Nested(t *testing.T) {
	p := newTestParser(t)
	a := must(t)(filter.Equals("product.number", "a"))
	b := must(t)(filter.Equals("product.number", "b"))
	or := must(t)(filter.Multi(filter.Or, a, b))
	not := must(t)(filter.Not(or))

	c, err := p.ParseFilter(not, "product", "product", domain.NewScope("default"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"bool":{"must_not":[{"bool":{"minimum_should_match":1,"should":[{"term":{"number":{"value":"a"}}},{"term":{"number":{"value":"b"}}}]}}]}}`
	if got := toJSON(t, c); got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	and := must(t)(filter.Multi(filter.And, a, b))
	c, err = p.ParseFilter(and, "product", "product", domain.NewScope("default"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := toJSON(t, c); got != `{"bool":{"must":[{"term":{"number":{"value":"a"}}},{"term":{"number":{"value":"b"}}}]}}` {
		t.Errorf("and = %s", got)
	}
}

func TestParseFilter_NotWithSeveralChildren(t *testing.T) {
	p := newTestParser(t)
	a := must(t)(filter.Equals("product.number", "a"))
	price := must(t)(filter.Equals("product.price", "10"))

	c, err := p.ParseFilter(must(t)(filter.Not(a, price)), "product", "product", domain.NewScope("default"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"bool":{"must_not":[{"bool":{"must":[{"term":{"number":{"value":"a"}}},{"term":{"price":{"value":10}}}]}}]}}`
	if got := toJSON(t, c); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

// evalTerms evaluates the term/bool subset of a compiled clause against flat documents.
func evalTerms(t *testing.T, c db.Clause, doc map[string]string) bool {
	t.Helper()
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var node map[string]any
	if err := json.Unmarshal(data, &node); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return evalNode(t, node, doc)
}

func evalNode(t *testing.T, node map[string]any, doc map[string]string) bool {
	t.Helper()
	if term, ok := node["term"].(map[string]any); ok {
		for name, v := range term {
			want := fmt.Sprint(v.(map[string]any)["value"])
			got, ok := doc[name]
			return ok && got == want
		}
	}
	b, ok := node["bool"].(map[string]any)
	if !ok {
		t.Fatalf("unsupported clause %v", node)
	}
	children := func(key string) []map[string]any {
		raw, _ := b[key].([]any)
		out := make([]map[string]any, len(raw))
		for i, r := range raw {
			out[i] = r.(map[string]any)
		}
		return out
	}
	for _, c := range children("must") {
		if !evalNode(t, c, doc) {
			return false
		}
	}
	for _, c := range children("must_not") {
		if evalNode(t, c, doc) {
			return false
		}
	}
	if should := children("should"); len(should) > 0 {
		for _, c := range should {
			if evalNode(t, c, doc) {
				return true
			}
		}
		return false
	}
	return true
}

// The fallback searcher reads not(a, b) as NOT (a AND b) and returns p2..p5
// for these documents; the index clause must select the same set.
func TestParseFilter_NotMatchesFallbackSemantics(t *testing.T) {
	p := newTestParser(t)
	docs := []struct {
		id     string
		fields map[string]string
	}{
		{"p1", map[string]string{"number": "red", "price": "10"}},
		{"p2", map[string]string{"number": "blue", "price": "20"}},
		{"p3", map[string]string{"number": "green", "price": "30"}},
		{"p4", map[string]string{"number": "red", "price": "40"}},
		{"p5", map[string]string{"price": "5"}},
	}
	not := must(t)(filter.Not(
		must(t)(filter.Equals("product.number", "red")),
		must(t)(filter.Equals("product.price", "10")),
	))

	c, err := p.ParseFilter(not, "product", "product", domain.NewScope("default"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []string
	for _, d := range docs {
		if evalTerms(t, c, d.fields) {
			got = append(got, d.id)
		}
	}
	if strings.Join(got, ",") != "p2,p3,p4,p5" {
		t.Errorf("matched %v, want [p2 p3 p4 p5]", got)
	}
}

func TestParseFilter_Errors(t *testing.T) {
	p := newTestParser(t)
	scope := domain.NewScope("default")
	lt := 3.0
	rng, _ := filter.NewRange(nil, nil, &lt, nil)

	tests := []struct {
		name string
		f    filter.Filter
	}{
		{"unknown field", must(t)(filter.Equals("product.color", "red"))},
		{"non numeric value", must(t)(filter.Equals("product.price", "cheap"))},
		{"non boolean value", must(t)(filter.Equals("product.active", "yes please"))},
		{"contains on numeric", must(t)(filter.Contains("product.price", "1"))},
		{"range on keyword", must(t)(filter.InRange("product.number", rng))},
		{"nested unknown field", must(t)(filter.Not(must(t)(filter.Equals("product.color", "red"))))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseFilter(tt.f, "product", "product", scope)
			if !errors.Is(err, domain.ErrFieldCompilation) {
				t.Fatalf("error = %v, want ErrFieldCompilation", err)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	p := newTestParser(t)
	f, err := p.Resolve("product", "product.name")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.FieldType() != field.Text || f.Aggregatable() {
		t.Errorf("Resolve(name) = %+v", f)
	}
}
