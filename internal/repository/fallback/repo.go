package fallback

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/entsearch/internal/db"
	"github.com/kailas-cloud/entsearch/internal/domain"
	"github.com/kailas-cloud/entsearch/internal/domain/entity"
	"github.com/kailas-cloud/entsearch/internal/domain/search/criteria"
	"github.com/kailas-cloud/entsearch/internal/domain/search/result"
)

// store is the consumer interface for the authoritative document store (ISP).
type store interface {
	SelectRows(ctx context.Context, stmt string, args ...any) ([]db.Row, error)
	Count(ctx context.Context, stmt string, args ...any) (int, error)
}

type definitions interface {
	Get(name string) (entity.Definition, error)
}

// Repo answers criteria from the relational store. It never consults the
// search index and honours the same result contract.
type Repo struct {
	store store
	defs  definitions
}

// New creates a fallback repository.
func New(s store, defs definitions) *Repo {
	return &Repo{store: s, defs: defs}
}

// Search runs c against entity documents. Unknown entities and invalid
// field paths are returned as is; store failures wrap ErrFallbackFailed.
func (r *Repo) Search(
	ctx context.Context, entityName string, c criteria.Criteria, _ domain.Scope,
) (result.IDSearchResult, error) {
	def, err := r.defs.Get(entityName)
	if err != nil {
		return result.IDSearchResult{}, err
	}
	st, err := compiler{def: def}.compile(c)
	if err != nil {
		return result.IDSearchResult{}, err
	}

	total, err := r.store.Count(ctx, st.countSQL, st.countArgs...)
	if err != nil {
		return result.IDSearchResult{}, wrap(entityName, err)
	}
	rows, err := r.store.SelectRows(ctx, st.selectSQL, st.args...)
	if err != nil {
		return result.IDSearchResult{}, wrap(entityName, err)
	}

	res := result.New(total)
	for _, row := range rows {
		res.Put(result.Record{PrimaryKey: row.ID, Score: row.Score})
	}
	if c.UseIDSorting() {
		res = res.SortByKeys(c.IDKeys())
	}
	return res, nil
}

func wrap(entityName string, err error) error {
	if errors.Is(err, domain.ErrFallbackFailed) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrFallbackFailed, entityName, err)
}
