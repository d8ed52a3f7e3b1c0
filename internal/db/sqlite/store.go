package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/kailas-cloud/entsearch/internal/db"
)

//go:embed schema.sql
var schemaSQL string

// Compile-time check: Store implements db.DocumentStore.
var _ db.DocumentStore = (*Store)(nil)

// Store is the authoritative document store on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens the database at dsn and applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every connection to :memory: is a separate database
	if strings.Contains(dsn, ":memory:") {
		conn.SetMaxOpenConns(1)
	}
	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		conn.Close()
		return nil, &db.Error{Op: db.OpMigrate, Err: err}
	}
	return &Store{db: conn}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutDocuments upserts documents in one transaction.
func (s *Store) PutDocuments(ctx context.Context, docs []db.Document) error {
	if len(docs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &db.Error{Op: db.OpInsert, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (entity, id, body) VALUES (?, ?, ?)
		 ON CONFLICT (entity, id) DO UPDATE SET body = excluded.body`)
	if err != nil {
		return &db.Error{Op: db.OpInsert, Err: err}
	}
	defer stmt.Close()

	for _, d := range docs {
		if _, err := stmt.ExecContext(ctx, d.Entity, d.ID, string(d.Body)); err != nil {
			return &db.Error{Op: db.OpInsert, Err: fmt.Errorf("%s/%s: %w", d.Entity, d.ID, err)}
		}
	}
	if err := tx.Commit(); err != nil {
		return &db.Error{Op: db.OpInsert, Err: err}
	}
	return nil
}

// SelectRows runs stmt, which must return (id TEXT, score REAL) rows.
func (s *Store) SelectRows(ctx context.Context, stmt string, args ...any) ([]db.Row, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	defer rows.Close()

	var out []db.Row
	for rows.Next() {
		var r db.Row
		var score sql.NullFloat64
		if err := rows.Scan(&r.ID, &score); err != nil {
			return nil, &db.Error{Op: db.OpSelect, Err: err}
		}
		r.Score = score.Float64
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	return out, nil
}

// Count runs stmt, which must return a single integer.
func (s *Store) Count(ctx context.Context, stmt string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}
	return n, nil
}
