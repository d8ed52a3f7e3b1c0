package criteria

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/entsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/entsearch/internal/domain/search/mode"
)

// Criteria limits.
const (
	MaxIDs         = 1000
	MaxGroupFields = 4
	MaxSortings    = 16
	MaxTermLength  = 4096
)

// IDSeparator joins the parts of a composite identifier into one key.
const IDSeparator = "-"

// ID is a primary key, possibly made of several parts.
type ID struct {
	parts []string
}

// NewID validates and creates an identifier.
func NewID(parts ...string) (ID, error) {
	if len(parts) == 0 {
		return ID{}, fmt.Errorf("id requires at least one part")
	}
	for i, p := range parts {
		if p == "" {
			return ID{}, fmt.Errorf("id part %d is empty", i)
		}
	}
	return ID{parts: parts}, nil
}

// Key returns the single-string form used as result key.
func (id ID) Key() string { return strings.Join(id.parts, IDSeparator) }

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sorting orders results by a field.
type Sorting struct {
	field     string
	direction Direction
}

// NewSorting validates and creates a Sorting. Empty direction means ascending.
func NewSorting(field string, dir Direction) (Sorting, error) {
	if field == "" {
		return Sorting{}, fmt.Errorf("sort field is required")
	}
	if dir == "" {
		dir = Asc
	}
	if dir != Asc && dir != Desc {
		return Sorting{}, fmt.Errorf("invalid sort direction %q for %q", dir, field)
	}
	return Sorting{field: field, direction: dir}, nil
}

// Field returns the sort field path.
func (s Sorting) Field() string { return s.field }

// Direction returns the sort direction.
func (s Sorting) Direction() Direction { return s.direction }

// ScoreQuery is a filter that adds weight to the relevance of matching documents.
type ScoreQuery struct {
	filter filter.Filter
	score  float64
}

// NewScoreQuery validates and creates a ScoreQuery.
func NewScoreQuery(f filter.Filter, score float64) (ScoreQuery, error) {
	if score <= 0 {
		return ScoreQuery{}, fmt.Errorf("query score must be positive, got %g", score)
	}
	return ScoreQuery{filter: f, score: score}, nil
}

// Filter returns the scored filter.
func (q ScoreQuery) Filter() filter.Filter { return q.filter }

// Score returns the relevance weight.
func (q ScoreQuery) Score() float64 { return q.score }

// Criteria is an immutable, backend-agnostic query description.
type Criteria struct {
	ids         []ID
	filters     []filter.Filter
	postFilters []filter.Filter
	queries     []ScoreQuery
	sortings    []Sorting
	term        string
	offset      int
	limit       *int
	groupFields []string
	idSorting   bool
}

// Option configures a Criteria under construction.
type Option func(*Criteria)

// WithIDs restricts the search to the given primary keys.
func WithIDs(ids ...ID) Option {
	return func(c *Criteria) { c.ids = append(c.ids, ids...) }
}

// WithFilters adds AND-combined filters.
func WithFilters(filters ...filter.Filter) Option {
	return func(c *Criteria) { c.filters = append(c.filters, filters...) }
}

// WithPostFilters adds filters applied after grouping aggregation.
func WithPostFilters(filters ...filter.Filter) Option {
	return func(c *Criteria) { c.postFilters = append(c.postFilters, filters...) }
}

// WithQueries adds scored queries.
func WithQueries(queries ...ScoreQuery) Option {
	return func(c *Criteria) { c.queries = append(c.queries, queries...) }
}

// WithSortings appends sortings in priority order.
func WithSortings(sortings ...Sorting) Option {
	return func(c *Criteria) { c.sortings = append(c.sortings, sortings...) }
}

// WithTerm sets the free-text search term.
func WithTerm(term string) Option {
	return func(c *Criteria) { c.term = strings.TrimSpace(term) }
}

// WithOffset sets the pagination offset.
func WithOffset(offset int) Option {
	return func(c *Criteria) { c.offset = offset }
}

// WithLimit sets the page size.
func WithLimit(limit int) Option {
	return func(c *Criteria) { c.limit = &limit }
}

// WithGroupFields collapses results by the given fields, in order.
func WithGroupFields(fields ...string) Option {
	return func(c *Criteria) { c.groupFields = append(c.groupFields, fields...) }
}

// WithIDSorting re-orders results to match the order of the criteria ids.
// Without ids the page is empty and the total is kept.
func WithIDSorting() Option {
	return func(c *Criteria) { c.idSorting = true }
}

// New builds and validates a Criteria.
func New(opts ...Option) (Criteria, error) {
	var c Criteria
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.validate(); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

func (c *Criteria) validate() error {
	if c.offset < 0 {
		return fmt.Errorf("offset must be >= 0, got %d", c.offset)
	}
	if c.limit != nil && *c.limit <= 0 {
		return fmt.Errorf("limit must be > 0, got %d", *c.limit)
	}
	if len(c.ids) > MaxIDs {
		return fmt.Errorf("too many ids (max %d)", MaxIDs)
	}
	if len(c.groupFields) > MaxGroupFields {
		return fmt.Errorf("too many group fields (max %d)", MaxGroupFields)
	}
	for i, f := range c.groupFields {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("group field %d is empty", i)
		}
	}
	if len(c.sortings) > MaxSortings {
		return fmt.Errorf("too many sortings (max %d)", MaxSortings)
	}
	if len(c.term) > MaxTermLength {
		return fmt.Errorf("term too long (max %d chars)", MaxTermLength)
	}
	return nil
}

// IDs returns the identifier filter.
func (c Criteria) IDs() []ID { return c.ids }

// Filters returns the AND-combined filters.
func (c Criteria) Filters() []filter.Filter { return c.filters }

// PostFilters returns the post-filters.
func (c Criteria) PostFilters() []filter.Filter { return c.postFilters }

// Queries returns the scored queries.
func (c Criteria) Queries() []ScoreQuery { return c.queries }

// Sortings returns the sortings in priority order.
func (c Criteria) Sortings() []Sorting { return c.sortings }

// Term returns the free-text term ("" when unset).
func (c Criteria) Term() string { return c.term }

// Offset returns the pagination offset.
func (c Criteria) Offset() int { return c.offset }

// Limit returns the page size and whether it is set.
func (c Criteria) Limit() (int, bool) {
	if c.limit == nil {
		return 0, false
	}
	return *c.limit, true
}

// GroupFields returns the grouping fields in order.
func (c Criteria) GroupFields() []string { return c.groupFields }

// UseIDSorting reports whether results follow the order of IDs.
func (c Criteria) UseIDSorting() bool { return c.idSorting }

// Mode returns the query shape used for total-count selection.
func (c Criteria) Mode() mode.Mode {
	return mode.Resolve(len(c.groupFields) > 0, len(c.postFilters) > 0)
}

// IDKeys returns the joined keys of IDs in order.
func (c Criteria) IDKeys() []string {
	keys := make([]string, len(c.ids))
	for i, id := range c.ids {
		keys[i] = id.Key()
	}
	return keys
}
