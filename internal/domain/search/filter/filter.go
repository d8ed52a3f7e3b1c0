package filter

import (
	"fmt"
	"strings"
)

// MaxConditionsPerGroup is the maximum number of children of a multi filter.
const MaxConditionsPerGroup = 32

// MaxDepth bounds the nesting of not/multi filters.
const MaxDepth = 8

// Kind tags the variant of a Filter.
type Kind string

// Filter kinds.
const (
	KindEquals    Kind = "equals"
	KindEqualsAny Kind = "equals_any"
	KindContains  Kind = "contains"
	KindPrefix    Kind = "prefix"
	KindRange     Kind = "range"
	KindNot       Kind = "not"
	KindMulti     Kind = "multi"
)

// Operator joins the children of a multi filter.
type Operator string

// Multi filter operators.
const (
	And Operator = "and"
	Or  Operator = "or"
)

// Filter is a node of an abstract filter tree. Exactly the fields of its Kind are set.
type Filter struct {
	kind     Kind
	field    string
	value    string
	values   []string
	rangeVal *Range
	operator Operator
	children []Filter
}

// Equals matches documents whose field equals value exactly.
func Equals(field, value string) (Filter, error) {
	if err := validateField(field); err != nil {
		return Filter{}, err
	}
	return Filter{kind: KindEquals, field: field, value: value}, nil
}

// EqualsAny matches documents whose field equals one of values.
func EqualsAny(field string, values []string) (Filter, error) {
	if err := validateField(field); err != nil {
		return Filter{}, err
	}
	if len(values) == 0 {
		return Filter{}, fmt.Errorf("equals_any on %q requires at least one value", field)
	}
	return Filter{kind: KindEqualsAny, field: field, values: values}, nil
}

// Contains matches documents whose field contains value as a substring.
func Contains(field, value string) (Filter, error) {
	if err := validateField(field); err != nil {
		return Filter{}, err
	}
	if value == "" {
		return Filter{}, fmt.Errorf("contains value is required for %q", field)
	}
	return Filter{kind: KindContains, field: field, value: value}, nil
}

// Prefix matches documents whose field starts with value.
func Prefix(field, value string) (Filter, error) {
	if err := validateField(field); err != nil {
		return Filter{}, err
	}
	if value == "" {
		return Filter{}, fmt.Errorf("prefix value is required for %q", field)
	}
	return Filter{kind: KindPrefix, field: field, value: value}, nil
}

// InRange matches documents whose numeric field lies within r.
func InRange(field string, r Range) (Filter, error) {
	if err := validateField(field); err != nil {
		return Filter{}, err
	}
	return Filter{kind: KindRange, field: field, rangeVal: &r}, nil
}

// Not negates the AND combination of children.
func Not(children ...Filter) (Filter, error) {
	if len(children) == 0 {
		return Filter{}, fmt.Errorf("not filter requires at least one child")
	}
	f := Filter{kind: KindNot, operator: And, children: children}
	if err := f.checkDepth(0); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// Multi combines children with op.
func Multi(op Operator, children ...Filter) (Filter, error) {
	if op != And && op != Or {
		return Filter{}, fmt.Errorf("invalid multi operator %q", op)
	}
	if len(children) == 0 {
		return Filter{}, fmt.Errorf("multi filter requires at least one child")
	}
	if len(children) > MaxConditionsPerGroup {
		return Filter{}, fmt.Errorf("too many conditions (max %d)", MaxConditionsPerGroup)
	}
	f := Filter{kind: KindMulti, operator: op, children: children}
	if err := f.checkDepth(0); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// Kind returns the variant tag.
func (f Filter) Kind() Kind { return f.kind }

// Field returns the field path of a leaf filter.
func (f Filter) Field() string { return f.field }

// Value returns the single comparison value.
func (f Filter) Value() string { return f.value }

// Values returns the values of an equals_any filter.
func (f Filter) Values() []string { return f.values }

// Range returns the numeric range of a range filter.
func (f Filter) Range() *Range { return f.rangeVal }

// Operator returns the combination operator of a multi or not filter.
func (f Filter) Operator() Operator { return f.operator }

// Children returns the nested filters of a multi or not filter.
func (f Filter) Children() []Filter { return f.children }

// IsLeaf reports whether the filter compares a single field.
func (f Filter) IsLeaf() bool { return f.kind != KindNot && f.kind != KindMulti }

// Fields returns every field path referenced by the tree, depth-first.
func (f Filter) Fields() []string {
	if f.IsLeaf() {
		return []string{f.field}
	}
	var out []string
	for _, c := range f.children {
		out = append(out, c.Fields()...)
	}
	return out
}

func (f Filter) checkDepth(depth int) error {
	if depth > MaxDepth {
		return fmt.Errorf("filter nesting too deep (max %d)", MaxDepth)
	}
	for _, c := range f.children {
		if err := c.checkDepth(depth + 1); err != nil {
			return err
		}
	}
	return nil
}

func validateField(field string) error {
	if strings.TrimSpace(field) == "" {
		return fmt.Errorf("filter field is required")
	}
	return nil
}

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRange validates and creates a Range.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewRange(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("cannot specify both lt and lte")
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// GT returns the lower exclusive bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }

// Bounds returns the set boundaries keyed gt/gte/lt/lte.
func (r Range) Bounds() map[string]float64 {
	m := make(map[string]float64, 2)
	if r.gt != nil {
		m["gt"] = *r.gt
	}
	if r.gte != nil {
		m["gte"] = *r.gte
	}
	if r.lt != nil {
		m["lt"] = *r.lt
	}
	if r.lte != nil {
		m["lte"] = *r.lte
	}
	return m
}
