// Package dsl compiles entity field paths and abstract filter trees into
// engine-native accessors and query clauses.
package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/entsearch/internal/db"
	"github.com/kailas-cloud/entsearch/internal/domain"
	"github.com/kailas-cloud/entsearch/internal/domain/entity"
	"github.com/kailas-cloud/entsearch/internal/domain/entity/field"
	"github.com/kailas-cloud/entsearch/internal/domain/search/filter"
)

type definitions interface {
	Get(name string) (entity.Definition, error)
}

// Parser resolves field paths against the entity registry. Safe for concurrent use.
type Parser struct {
	defs definitions
}

// NewParser creates a Parser.
func NewParser(defs definitions) *Parser {
	return &Parser{defs: defs}
}

// Resolve returns the mapped field of path. A leading "<entity>." is stripped.
func (p *Parser) Resolve(entityName, path string) (field.Field, error) {
	return p.resolve(entityName, entityName, path)
}

// BuildAccessor returns the engine field name of path.
func (p *Parser) BuildAccessor(entityName, path string, _ domain.Scope) (string, error) {
	f, err := p.Resolve(entityName, path)
	if err != nil {
		return "", err
	}
	return f.Name(), nil
}

// ParseFilter compiles a filter tree. Paths may be prefixed by root.
func (p *Parser) ParseFilter(f filter.Filter, entityName, root string, _ domain.Scope) (db.Clause, error) {
	def, err := p.defs.Get(entityName)
	if err != nil {
		return nil, err
	}
	return p.parse(f, def, root)
}

func (p *Parser) resolve(entityName, root, path string) (field.Field, error) {
	def, err := p.defs.Get(entityName)
	if err != nil {
		return field.Field{}, err
	}
	return lookup(def, root, path)
}

func lookup(def entity.Definition, root, path string) (field.Field, error) {
	name := strings.TrimPrefix(path, root+".")
	if name == "" {
		return field.Field{}, domain.NewFieldError(def.Name(), path, "empty field path")
	}
	f, ok := def.FieldByName(name)
	if !ok {
		return field.Field{}, domain.NewFieldError(def.Name(), path, "unknown field")
	}
	return f, nil
}

func (p *Parser) parse(f filter.Filter, def entity.Definition, root string) (db.Clause, error) {
	switch f.Kind() {
	case filter.KindNot:
		children, err := p.parseAll(f.Children(), def, root)
		if err != nil {
			return nil, err
		}
		if len(children) > 1 {
			children = []db.Clause{{"bool": map[string]any{"must": children}}}
		}
		return db.Clause{"bool": map[string]any{"must_not": children}}, nil
	case filter.KindMulti:
		children, err := p.parseAll(f.Children(), def, root)
		if err != nil {
			return nil, err
		}
		if f.Operator() == filter.Or {
			return db.Clause{"bool": map[string]any{"should": children, "minimum_should_match": 1}}, nil
		}
		return db.Clause{"bool": map[string]any{"must": children}}, nil
	}

	fld, err := lookup(def, root, f.Field())
	if err != nil {
		return nil, err
	}
	return leaf(f, fld, def.Name())
}

func (p *Parser) parseAll(filters []filter.Filter, def entity.Definition, root string) ([]db.Clause, error) {
	out := make([]db.Clause, 0, len(filters))
	for _, c := range filters {
		clause, err := p.parse(c, def, root)
		if err != nil {
			return nil, err
		}
		out = append(out, clause)
	}
	return out, nil
}

func leaf(f filter.Filter, fld field.Field, entityName string) (db.Clause, error) {
	acc := fld.Name()
	ft := fld.FieldType()
	fail := func(reason string) (db.Clause, error) {
		return nil, domain.NewFieldError(entityName, fld.Name(), reason)
	}

	switch f.Kind() {
	case filter.KindEquals:
		if ft == field.Text {
			return db.Clause{"match_phrase": map[string]any{acc: f.Value()}}, nil
		}
		v, err := coerce(ft, f.Value())
		if err != nil {
			return fail(err.Error())
		}
		return db.Clause{"term": map[string]any{acc: map[string]any{"value": v}}}, nil

	case filter.KindEqualsAny:
		if ft == field.Text {
			should := make([]db.Clause, len(f.Values()))
			for i, v := range f.Values() {
				should[i] = db.Clause{"match_phrase": map[string]any{acc: v}}
			}
			return db.Clause{"bool": map[string]any{"should": should, "minimum_should_match": 1}}, nil
		}
		values := make([]any, len(f.Values()))
		for i, raw := range f.Values() {
			v, err := coerce(ft, raw)
			if err != nil {
				return fail(err.Error())
			}
			values[i] = v
		}
		return db.Clause{"terms": map[string]any{acc: values}}, nil

	case filter.KindContains:
		switch ft {
		case field.Keyword:
			return db.Clause{"wildcard": map[string]any{acc: map[string]any{"value": "*" + escapeWildcard(f.Value()) + "*"}}}, nil
		case field.Text:
			return db.Clause{"match": map[string]any{acc: map[string]any{"query": f.Value(), "operator": "and"}}}, nil
		}
		return fail(fmt.Sprintf("contains is not supported on %s fields", ft))

	case filter.KindPrefix:
		switch ft {
		case field.Keyword:
			return db.Clause{"prefix": map[string]any{acc: map[string]any{"value": f.Value()}}}, nil
		case field.Text:
			return db.Clause{"match_phrase_prefix": map[string]any{acc: f.Value()}}, nil
		}
		return fail(fmt.Sprintf("prefix is not supported on %s fields", ft))

	case filter.KindRange:
		if ft != field.Numeric && ft != field.Date {
			return fail(fmt.Sprintf("range is not supported on %s fields", ft))
		}
		return db.Clause{"range": map[string]any{acc: f.Range().Bounds()}}, nil
	}
	return fail(fmt.Sprintf("unsupported filter kind %q", f.Kind()))
}

func coerce(ft field.Type, raw string) (any, error) {
	switch ft {
	case field.Numeric:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q is not numeric", raw)
		}
		return v, nil
	case field.Boolean:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("value %q is not boolean", raw)
		}
		return v, nil
	default:
		return raw, nil
	}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}
