package db

import (
	"context"
	"time"
)

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Engine is the search index client.
type Engine interface {
	Pinger
	Search(ctx context.Context, req *SearchRequest) (*RawResult, error)
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// SearchRequest addresses a compiled query to one index.
// DocumentType is optional; empty means the index default.
type SearchRequest struct {
	Index        string
	DocumentType string
	Query        *Query
}

// HashStore reads and writes flat string hashes.
type HashStore interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
}

// Document is a stored entity row of the authoritative store.
type Document struct {
	Entity string
	ID     string
	Body   []byte
}

// Row is one matched document of a relational search.
type Row struct {
	ID    string
	Score float64
}

// DocumentStore is the authoritative relational document store.
type DocumentStore interface {
	Pinger
	PutDocuments(ctx context.Context, docs []Document) error
	SelectRows(ctx context.Context, stmt string, args ...any) ([]Row, error)
	Count(ctx context.Context, stmt string, args ...any) (int, error)
}
