package fallback

import (
	"context"
	"testing"

	"github.com/kailas-cloud/entsearch/internal/db"
	"github.com/kailas-cloud/entsearch/internal/db/sqlite"
	"github.com/kailas-cloud/entsearch/internal/domain/entity"
	"github.com/kailas-cloud/entsearch/internal/domain/entity/field"
	"github.com/kailas-cloud/entsearch/internal/domain/search/criteria"
	"github.com/kailas-cloud/entsearch/internal/domain/search/filter"
)

type mockStore struct {
	selectRowsFn func(ctx context.Context, stmt string, args ...any) ([]db.Row, error)
	countFn      func(ctx context.Context, stmt string, args ...any) (int, error)
}

func (m *mockStore) SelectRows(ctx context.Context, stmt string, args ...any) ([]db.Row, error) {
	if m.selectRowsFn != nil {
		return m.selectRowsFn(ctx, stmt, args...)
	}
	return nil, nil
}

func (m *mockStore) Count(ctx context.Context, stmt string, args ...any) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, stmt, args...)
	}
	return 0, nil
}

func testRegistry(t *testing.T) *entity.Registry {
	t.Helper()
	reg, err := entity.NewRegistry(
		entity.Reconstruct("product", []field.Field{
			field.Reconstruct("name", field.Text, 10, false),
			field.Reconstruct("number", field.Keyword, 5, true),
			field.Reconstruct("price", field.Numeric, 0, false),
			field.Reconstruct("stock", field.Numeric, 0, false),
			field.Reconstruct("parentId", field.Keyword, 0, false),
			field.Reconstruct("color", field.Keyword, 0, false),
			field.Reconstruct("active", field.Boolean, 0, false),
			field.Reconstruct("createdAt", field.Date, 0, false),
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

var testDocuments = []db.Document{
	{Entity: "product", ID: "p1", Body: []byte(`{"name":"Red Shirt","number":"A1","price":10,"stock":5,"parentId":"g1","color":"red","active":true,"createdAt":"2024-01-01T00:00:00Z"}`)},
	{Entity: "product", ID: "p2", Body: []byte(`{"name":"Blue Shirt","number":"A2","price":20,"stock":0,"parentId":"g1","color":"blue","active":false,"createdAt":"2023-06-01T00:00:00Z"}`)},
	{Entity: "product", ID: "p3", Body: []byte(`{"name":"Green Pants","number":"B1","price":30,"stock":3,"parentId":"g2","color":"green","active":true}`)},
	{Entity: "product", ID: "p4", Body: []byte(`{"name":"Red Pants","number":"B2","price":40,"stock":1,"color":"red"}`)},
	{Entity: "product", ID: "p5", Body: []byte(`{"name":"Hat","number":"C1","price":5,"stock":2}`)},
	{Entity: "tag", ID: "t1", Body: []byte(`{"label":"red"}`)},
}

// newTestRepo returns a Repo over a seeded in-memory database.
func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	ctx := context.Background()
	s, err := sqlite.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.PutDocuments(ctx, testDocuments); err != nil {
		t.Fatalf("PutDocuments: %v", err)
	}
	return New(s, testRegistry(t))
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

func ptr(v float64) *float64 { return &v }
