package field

import (
	"fmt"
	"regexp"
)

// Type is the index mapping type of a field.
type Type string

// Field type constants.
const (
	// Keyword is an exact-match string field.
	Keyword Type = "keyword"
	// Text is an analyzed full-text field.
	Text    Type = "text"
	Numeric Type = "numeric"
	Date    Type = "date"
	Boolean Type = "boolean"
)

// IsValid checks if the type is one of the supported values.
func (t Type) IsValid() bool {
	switch t {
	case Keyword, Text, Numeric, Date, Boolean:
		return true
	}
	return false
}

// IDName is the implicit primary key field of every entity.
const IDName = "id"

var pathRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*(\.[a-zA-Z][a-zA-Z0-9_]*)*$`)

// Field is an immutable value object describing a mapped entity field.
type Field struct {
	name      string
	fieldType Type
	boost     float64
	required  bool
}

// New validates and creates a Field.
// Name is a dotted path of identifiers, max 128 chars, and not the implicit id.
// A positive boost makes the field searchable by the free-text term.
// Required fields carry a value on every document.
func New(name string, ft Type, boost float64, required bool) (Field, error) {
	if name == "" {
		return Field{}, fmt.Errorf("field name is required")
	}
	if len(name) > 128 {
		return Field{}, fmt.Errorf("field name %q too long (max 128)", name)
	}
	if name == IDName {
		return Field{}, fmt.Errorf("field name %q is reserved", name)
	}
	if !pathRegex.MatchString(name) {
		return Field{}, fmt.Errorf("field name %q must be a dotted path of identifiers", name)
	}
	if !ft.IsValid() {
		return Field{}, fmt.Errorf("invalid field type %q for %q", ft, name)
	}
	if boost < 0 {
		return Field{}, fmt.Errorf("boost of %q must be >= 0", name)
	}
	if boost > 0 && ft != Text && ft != Keyword {
		return Field{}, fmt.Errorf("field %q of type %s cannot be searchable", name, ft)
	}
	return Field{name: name, fieldType: ft, boost: boost, required: required}, nil
}

// Reconstruct creates a Field without validation.
func Reconstruct(name string, ft Type, boost float64, required bool) Field {
	return Field{name: name, fieldType: ft, boost: boost, required: required}
}

// Name returns the field path relative to its entity.
func (f Field) Name() string { return f.name }

// FieldType returns the field's mapping type.
func (f Field) FieldType() Type { return f.fieldType }

// Boost returns the free-text weight (0 when not searchable).
func (f Field) Boost() float64 { return f.boost }

// Required reports whether every document carries a value for the field.
func (f Field) Required() bool { return f.required }

// Aggregatable reports whether the field has doc values usable for
// sorting, collapsing and aggregations.
func (f Field) Aggregatable() bool { return f.fieldType != Text }

// Searchable reports whether the free-text term runs against this field.
func (f Field) Searchable() bool { return f.boost > 0 }
