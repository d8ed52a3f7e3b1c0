package mode

// Mode is the query shape that decides how the total count is computed.
type Mode string

// Query mode constants.
const (
	// Plain has neither grouping nor post-filters: total is the raw hit count.
	Plain Mode = "plain"
	// Grouped collapses hits by one or more fields: total is a distinct-group count.
	Grouped Mode = "grouped"
	// PostFiltered applies post-filters without grouping.
	PostFiltered Mode = "post_filtered"
	// GroupedPostFiltered counts distinct groups inside the post-filter scope.
	GroupedPostFiltered Mode = "grouped_post_filtered"
)

// Resolve picks the mode for a query shape.
func Resolve(grouped, postFiltered bool) Mode {
	switch {
	case grouped && postFiltered:
		return GroupedPostFiltered
	case grouped:
		return Grouped
	case postFiltered:
		return PostFiltered
	default:
		return Plain
	}
}

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Plain || m == Grouped || m == PostFiltered || m == GroupedPostFiltered
}

// IsGrouped reports whether totals come from a distinct-group aggregation.
func (m Mode) IsGrouped() bool {
	return m == Grouped || m == GroupedPostFiltered
}

// IsPostFiltered reports whether post-filters are active.
func (m Mode) IsPostFiltered() bool {
	return m == PostFiltered || m == GroupedPostFiltered
}
