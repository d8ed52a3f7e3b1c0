package search

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/entsearch/internal/db"
	"github.com/kailas-cloud/entsearch/internal/domain"
	"github.com/kailas-cloud/entsearch/internal/domain/entity/field"
	"github.com/kailas-cloud/entsearch/internal/domain/search/criteria"
	"github.com/kailas-cloud/entsearch/internal/domain/search/filter"
)

// Builder compiles criteria into engine queries. Safe for concurrent use.
type Builder struct {
	compiler Compiler
	defs     Definitions
}

// NewBuilder creates a query builder.
func NewBuilder(compiler Compiler, defs Definitions) *Builder {
	return &Builder{compiler: compiler, defs: defs}
}

// Build compiles c for entity. Field errors are returned before anything is sent.
func (b *Builder) Build(c criteria.Criteria, entity string, scope domain.Scope) (*db.Query, error) {
	def, err := b.defs.Get(entity)
	if err != nil {
		return nil, err
	}

	qb := db.NewQuery().TrackTotalHits()

	if len(c.IDs()) > 0 {
		qb.Filter(db.Clause{"ids": map[string]any{"values": c.IDKeys()}})
	}

	filters, err := b.parseAll(c.Filters(), entity, scope)
	if err != nil {
		return nil, err
	}
	qb.Filter(filters...)

	postFilters, err := b.parseAll(c.PostFilters(), entity, scope)
	if err != nil {
		return nil, err
	}
	if len(postFilters) > 0 {
		qb.PostFilter(allOf(postFilters))
	}

	for _, q := range c.Queries() {
		clause, err := b.compiler.ParseFilter(q.Filter(), entity, entity, scope)
		if err != nil {
			return nil, err
		}
		qb.Should(db.Clause{"bool": map[string]any{
			"must":  []db.Clause{clause},
			"boost": q.Score(),
		}})
	}

	for _, s := range c.Sortings() {
		_, acc, err := b.docValueField(entity, s.Field(), scope, "sorted")
		if err != nil {
			return nil, err
		}
		qb.Sort(acc, db.SortOrder(s.Direction()))
	}

	if term := c.Term(); term != "" {
		fields := def.SearchableFields()
		if len(fields) == 0 {
			return nil, domain.NewFieldError(entity, "*", "entity has no searchable fields")
		}
		qb.Must(termClause(term, fields))
	}

	if limit, ok := c.Limit(); ok {
		qb.Size(limit)
	}
	qb.From(c.Offset())

	if groups := c.GroupFields(); len(groups) > 0 {
		fields := make([]field.Field, len(groups))
		accessors := make([]string, len(groups))
		for i, g := range groups {
			f, acc, err := b.docValueField(entity, g, scope, "grouped")
			if err != nil {
				return nil, err
			}
			fields[i], accessors[i] = f, acc
		}
		qb.Collapse(buildCollapse(accessors))
		qb.Aggregate(totalAggregation(fields, accessors, postFilters))
	}

	q, err := qb.Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCriteria, err)
	}
	return q, nil
}

func (b *Builder) parseAll(filters []filter.Filter, entity string, scope domain.Scope) ([]db.Clause, error) {
	out := make([]db.Clause, 0, len(filters))
	for _, f := range filters {
		clause, err := b.compiler.ParseFilter(f, entity, entity, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, clause)
	}
	return out, nil
}

// docValueField resolves a field used for sorting or grouping. Those need doc values.
func (b *Builder) docValueField(entity, path string, scope domain.Scope, verb string) (field.Field, string, error) {
	f, err := b.compiler.Resolve(entity, path)
	if err != nil {
		return field.Field{}, "", err
	}
	if !f.Aggregatable() {
		return field.Field{}, "", domain.NewFieldError(entity, path, "text fields cannot be "+verb)
	}
	acc, err := b.compiler.BuildAccessor(entity, path, scope)
	if err != nil {
		return field.Field{}, "", err
	}
	return f, acc, nil
}

func termClause(term string, fields []field.Field) db.Clause {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name() + "^" + strconv.FormatFloat(f.Boost(), 'f', -1, 64)
	}
	return db.Clause{"multi_match": map[string]any{
		"query":  term,
		"fields": names,
		"type":   "best_fields",
	}}
}
