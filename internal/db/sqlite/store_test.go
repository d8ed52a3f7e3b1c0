package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/entsearch/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutDocuments_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.PutDocuments(ctx, []db.Document{
		{Entity: "product", ID: "1", Body: []byte(`{"name":"a"}`)},
		{Entity: "product", ID: "2", Body: []byte(`{"name":"b"}`)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = s.PutDocuments(ctx, []db.Document{
		{Entity: "product", ID: "1", Body: []byte(`{"name":"c"}`)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, err := s.Count(ctx, `SELECT COUNT(*) FROM documents WHERE entity = ?`, "product")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}

	rows, err := s.SelectRows(ctx,
		`SELECT id, 1.5 FROM documents WHERE json_extract(body, '$.name') = ?`, "c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "1" || rows[0].Score != 1.5 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestPutDocuments_InvalidJSON(t *testing.T) {
	s := newTestStore(t)
	err := s.PutDocuments(context.Background(), []db.Document{
		{Entity: "product", ID: "1", Body: []byte(`{broken`)},
	})
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpInsert {
		t.Fatalf("expected insert db.Error, got %v", err)
	}
}

func TestSelectRows_NullScore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.PutDocuments(ctx, []db.Document{{Entity: "e", ID: "x", Body: []byte(`{}`)}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows, err := s.SelectRows(ctx, `SELECT id, NULL FROM documents`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Score != 0 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestSelectRows_BadSQL(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.SelectRows(context.Background(), `SELECT nope FROM`); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpen_EmptyDSN(t *testing.T) {
	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatal("expected error")
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
