package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/entsearch/internal/db"
	"github.com/kailas-cloud/entsearch/internal/domain"
)

// store is the consumer interface for index search (ISP).
type store interface {
	Search(ctx context.Context, req *db.SearchRequest) (*db.RawResult, error)
}

// Options configure index addressing.
type Options struct {
	// IndexPrefix is prepended to every derived index name.
	IndexPrefix string
	// DocumentType sends the entity name as document type (pre-7 mappings).
	DocumentType bool
}

// Repo implements usecase/search.Executor.
type Repo struct {
	store store
	opts  Options
}

// New creates an index search repository.
func New(s store, opts Options) *Repo {
	return &Repo{store: s, opts: opts}
}

// Execute runs q against the index of entity for languageID. Every failure
// is reported as domain.ErrEngineUnavailable.
func (r *Repo) Execute(
	ctx context.Context, entity, languageID string, q *db.Query,
) (*db.RawResult, error) {
	index := db.IndexName(r.opts.IndexPrefix, entity, languageID)
	if err := db.ValidateIndexName(index); err != nil {
		return nil, fmt.Errorf("%w: index %q: %w", domain.ErrEngineUnavailable, index, err)
	}

	req := &db.SearchRequest{Index: index, Query: q}
	if r.opts.DocumentType {
		req.DocumentType = entity
	}

	raw, err := r.store.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: search %s: %w", domain.ErrEngineUnavailable, index, err)
	}
	return raw, nil
}
