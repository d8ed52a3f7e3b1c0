package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/entsearch/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn func(ctx context.Context, req *db.SearchRequest) (*db.RawResult, error)
}

func (m *mockStore) Search(ctx context.Context, req *db.SearchRequest) (*db.RawResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, req)
	}
	return &db.RawResult{}, nil
}

func newTestRepo(t *testing.T, opts Options) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, opts)
	return repo, ms
}
