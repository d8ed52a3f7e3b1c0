package search

import (
	"context"

	"github.com/kailas-cloud/entsearch/internal/db"
	"github.com/kailas-cloud/entsearch/internal/domain"
	"github.com/kailas-cloud/entsearch/internal/domain/entity"
	"github.com/kailas-cloud/entsearch/internal/domain/entity/field"
	"github.com/kailas-cloud/entsearch/internal/domain/search/criteria"
	"github.com/kailas-cloud/entsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/entsearch/internal/domain/search/result"
)

// Guard decides whether the index may serve a search at all.
type Guard interface {
	Allowed(entity string, scope domain.Scope) bool
}

// Compiler translates field paths and filter trees into engine clauses.
type Compiler interface {
	BuildAccessor(entity, path string, scope domain.Scope) (string, error)
	ParseFilter(f filter.Filter, entity, root string, scope domain.Scope) (db.Clause, error)
	Resolve(entity, path string) (field.Field, error)
}

// Definitions resolves entity definitions.
type Definitions interface {
	Get(name string) (entity.Definition, error)
}

// Executor runs a compiled query against the index of an entity and language.
type Executor interface {
	Execute(ctx context.Context, entity, languageID string, q *db.Query) (*db.RawResult, error)
}

// Fallback is the authoritative searcher used when the index cannot serve.
type Fallback interface {
	Search(ctx context.Context, entity string, c criteria.Criteria, scope domain.Scope) (result.IDSearchResult, error)
}
