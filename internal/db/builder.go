package db

import "fmt"

// QueryBuilder is a fluent builder for compiled search queries.
type QueryBuilder struct {
	q Query
}

// NewQuery starts building a query.
func NewQuery() *QueryBuilder {
	return &QueryBuilder{}
}

// Filter adds non-scoring clauses every hit must match.
func (b *QueryBuilder) Filter(clauses ...Clause) *QueryBuilder {
	b.q.Filter = append(b.q.Filter, clauses...)
	return b
}

// Must adds scoring clauses every hit must match.
func (b *QueryBuilder) Must(clauses ...Clause) *QueryBuilder {
	b.q.Must = append(b.q.Must, clauses...)
	return b
}

// Should adds optional scoring clauses.
func (b *QueryBuilder) Should(clauses ...Clause) *QueryBuilder {
	b.q.Should = append(b.q.Should, clauses...)
	return b
}

// PostFilter sets the clause applied after aggregations.
func (b *QueryBuilder) PostFilter(c Clause) *QueryBuilder {
	b.q.PostFilter = c
	return b
}

// Sort appends a sort clause.
func (b *QueryBuilder) Sort(field string, order SortOrder) *QueryBuilder {
	b.q.Sort = append(b.q.Sort, SortClause{Field: field, Order: order})
	return b
}

// From sets the offset of the first hit.
func (b *QueryBuilder) From(from int) *QueryBuilder {
	b.q.From = from
	return b
}

// Size caps the number of returned hits.
func (b *QueryBuilder) Size(size int) *QueryBuilder {
	b.q.Size = &size
	return b
}

// TrackTotalHits requests an exact hit count.
func (b *QueryBuilder) TrackTotalHits() *QueryBuilder {
	b.q.TrackTotalHits = true
	return b
}

// Aggregate adds a named aggregation.
func (b *QueryBuilder) Aggregate(name string, agg Aggregation) *QueryBuilder {
	if b.q.Aggregations == nil {
		b.q.Aggregations = make(map[string]Aggregation)
	}
	b.q.Aggregations[name] = agg
	return b
}

// Collapse sets the grouping directive.
func (b *QueryBuilder) Collapse(c *Collapse) *QueryBuilder {
	b.q.Collapse = c
	return b
}

// Build validates and returns the query.
func (b *QueryBuilder) Build() (*Query, error) {
	if err := b.q.Validate(); err != nil {
		return nil, err
	}
	q := b.q
	return &q, nil
}

// MustBuild calls Build and panics on error.
func (b *QueryBuilder) MustBuild() *Query {
	q, err := b.Build()
	if err != nil {
		panic(err)
	}
	return q
}

// Validate checks the query for structural errors.
func (q *Query) Validate() error {
	if q.From < 0 {
		return fmt.Errorf("from must be >= 0")
	}
	if q.Size != nil && *q.Size <= 0 {
		return fmt.Errorf("size must be > 0")
	}
	for i, s := range q.Sort {
		if s.Field == "" {
			return fmt.Errorf("sort %d: field is required", i)
		}
		if s.Order != SortAsc && s.Order != SortDesc {
			return fmt.Errorf("sort %q: invalid order %q", s.Field, s.Order)
		}
	}
	for name, agg := range q.Aggregations {
		if name == "" {
			return fmt.Errorf("aggregation name is required")
		}
		if agg.kind == 0 {
			return fmt.Errorf("aggregation %q is empty", name)
		}
	}
	for c := q.Collapse; c != nil; {
		if c.Field == "" {
			return fmt.Errorf("collapse field is required")
		}
		if c.InnerHits == nil {
			break
		}
		if c.InnerHits.Name == "" {
			return fmt.Errorf("inner hits name is required")
		}
		c = c.InnerHits.Collapse
	}
	return nil
}
