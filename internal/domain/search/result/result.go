package result

// Record is the minimal hydrated hit: its primary key and relevance score.
type Record struct {
	PrimaryKey string
	Score      float64
}

// IDSearchResult is the output of a search: a total count and an ordered
// mapping primary key -> Record. Iteration order is insertion order.
type IDSearchResult struct {
	total   int
	keys    []string
	records map[string]Record
}

// New creates an empty result with the given total.
func New(total int) IDSearchResult {
	if total < 0 {
		total = 0
	}
	return IDSearchResult{total: total, records: make(map[string]Record)}
}

// Empty returns a zero-total result.
func Empty() IDSearchResult { return New(0) }

// Put stores r. A key that is already present keeps its position and its
// value is overwritten (last write wins).
func (r *IDSearchResult) Put(rec Record) {
	if r.records == nil {
		r.records = make(map[string]Record)
	}
	if _, ok := r.records[rec.PrimaryKey]; !ok {
		r.keys = append(r.keys, rec.PrimaryKey)
	}
	r.records[rec.PrimaryKey] = rec
}

// WithTotal returns a copy carrying a different total.
func (r IDSearchResult) WithTotal(total int) IDSearchResult {
	if total < 0 {
		total = 0
	}
	r.total = total
	return r
}

// SortByKeys returns a copy ordered by keys. Keys without a record are skipped,
// records whose key is not listed are dropped. The total is unchanged.
func (r IDSearchResult) SortByKeys(keys []string) IDSearchResult {
	sorted := New(r.total)
	for _, k := range keys {
		if rec, ok := r.records[k]; ok {
			sorted.Put(rec)
		}
	}
	return sorted
}

// Total returns the total number of matches (or distinct groups).
func (r IDSearchResult) Total() int { return r.total }

// Len returns the number of records.
func (r IDSearchResult) Len() int { return len(r.keys) }

// Keys returns the primary keys in result order.
func (r IDSearchResult) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Get returns the record for key.
func (r IDSearchResult) Get(key string) (Record, bool) {
	rec, ok := r.records[key]
	return rec, ok
}

// Records returns the records in result order.
func (r IDSearchResult) Records() []Record {
	out := make([]Record, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, r.records[k])
	}
	return out
}
