package entity

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/kailas-cloud/entsearch/internal/domain"
	"github.com/kailas-cloud/entsearch/internal/domain/entity/field"
)

var nameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// MaxFields bounds the number of mapped fields per entity.
const MaxFields = 256

// Definition describes a searchable entity type (immutable value object).
type Definition struct {
	name       string
	fields     []field.Field
	searchable bool
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("entity name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("entity name too long (max 64)")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("entity name %q must be lowercase alphanumeric with underscores", name)
	}
	return nil
}

func validateFields(fields []field.Field) error {
	if len(fields) > MaxFields {
		return fmt.Errorf("too many fields (max %d)", MaxFields)
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name()] {
			return fmt.Errorf("duplicate field name: %s", f.Name())
		}
		seen[f.Name()] = true
	}
	return nil
}

// New validates and creates a Definition.
// Name: ^[a-z][a-z0-9_]*$, 1-64 chars. Fields: unique names, max 256.
// A non-searchable entity is always served by the fallback backend.
func New(name string, fields []field.Field, searchable bool) (Definition, error) {
	if err := validateName(name); err != nil {
		return Definition{}, err
	}
	if err := validateFields(fields); err != nil {
		return Definition{}, err
	}
	return Definition{name: name, fields: fields, searchable: searchable}, nil
}

// Reconstruct creates a Definition without validation.
func Reconstruct(name string, fields []field.Field, searchable bool) Definition {
	return Definition{name: name, fields: fields, searchable: searchable}
}

// Name returns the entity name.
func (d Definition) Name() string { return d.name }

// Fields returns the mapped fields.
func (d Definition) Fields() []field.Field { return d.fields }

// Searchable reports whether the entity is registered for index search.
func (d Definition) Searchable() bool { return d.searchable }

// FieldByName returns the field with the given path. The implicit id is a
// required keyword.
func (d Definition) FieldByName(name string) (field.Field, bool) {
	if name == field.IDName {
		return field.Reconstruct(field.IDName, field.Keyword, 0, true), true
	}
	for _, f := range d.fields {
		if f.Name() == name {
			return f, true
		}
	}
	return field.Field{}, false
}

// SearchableFields returns the fields the free-text term runs against,
// in declaration order.
func (d Definition) SearchableFields() []field.Field {
	var out []field.Field
	for _, f := range d.fields {
		if f.Searchable() {
			out = append(out, f)
		}
	}
	return out
}

// Registry resolves entity names to definitions. Read-only after construction.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry creates a Registry. Duplicate names are rejected.
func NewRegistry(defs ...Definition) (*Registry, error) {
	m := make(map[string]Definition, len(defs))
	for _, d := range defs {
		if _, ok := m[d.Name()]; ok {
			return nil, fmt.Errorf("duplicate entity: %s", d.Name())
		}
		m[d.Name()] = d
	}
	return &Registry{defs: m}, nil
}

// Get returns the definition of name or domain.ErrUnknownEntity.
func (r *Registry) Get(name string) (Definition, error) {
	d, ok := r.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("entity %q: %w", name, domain.ErrUnknownEntity)
	}
	return d, nil
}

// Names returns the registered entity names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
