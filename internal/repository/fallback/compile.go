package fallback

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/entsearch/internal/domain"
	"github.com/kailas-cloud/entsearch/internal/domain/entity"
	"github.com/kailas-cloud/entsearch/internal/domain/entity/field"
	"github.com/kailas-cloud/entsearch/internal/domain/search/criteria"
	"github.com/kailas-cloud/entsearch/internal/domain/search/filter"
)

// unixEpochJulian converts julianday() values to unix epoch.
const unixEpochJulian = 2440587.5

// expr is a SQL fragment with its positional arguments.
type expr struct {
	sql  string
	args []any
}

func joinExprs(parts []expr, sep string) expr {
	sqls := make([]string, len(parts))
	var args []any
	for i, p := range parts {
		sqls[i] = p.sql
		args = append(args, p.args...)
	}
	return expr{sql: "(" + strings.Join(sqls, sep) + ")", args: args}
}

// statement is the compiled form of one criteria against the documents table.
type statement struct {
	selectSQL string
	countSQL  string
	args      []any
	countArgs []any
}

// compiler turns criteria into SQL over documents(entity, id, body).
// Field paths are validated identifiers, so json paths are inlined.
type compiler struct {
	def entity.Definition
}

func (c compiler) fail(path, reason string) error {
	return domain.NewFieldError(c.def.Name(), path, reason)
}

func (c compiler) field(path string) (field.Field, error) {
	name := strings.TrimPrefix(path, c.def.Name()+".")
	if name == "" {
		return field.Field{}, c.fail(path, "empty field path")
	}
	f, ok := c.def.FieldByName(name)
	if !ok {
		return field.Field{}, c.fail(path, "unknown field")
	}
	return f, nil
}

// accessor returns the typed SQL value of f.
func accessor(f field.Field) string {
	if f.Name() == field.IDName {
		return "id"
	}
	raw := fmt.Sprintf("json_extract(body, '$.%s')", f.Name())
	switch f.FieldType() {
	case field.Numeric:
		return "CAST(" + raw + " AS REAL)"
	case field.Boolean:
		return raw
	default:
		return "CAST(" + raw + " AS TEXT)"
	}
}

// dateMillis reads a date field as epoch milliseconds. Numbers are taken
// as epoch milliseconds already; strings go through julianday.
func dateMillis(f field.Field) string {
	raw := fmt.Sprintf("json_extract(body, '$.%s')", f.Name())
	return fmt.Sprintf(
		"(CASE WHEN json_type(body, '$.%s') IN ('integer', 'real') THEN %s ELSE (julianday(%s) - %.1f) * 86400000.0 END)",
		f.Name(), raw, raw, unixEpochJulian)
}

func (c compiler) compile(cr criteria.Criteria) (statement, error) {
	var where []expr
	where = append(where, expr{sql: "entity = ?", args: []any{c.def.Name()}})

	if ids := cr.IDKeys(); len(ids) > 0 {
		where = append(where, expr{sql: "id IN (" + placeholders(len(ids)) + ")", args: toAny(ids)})
	}
	for _, f := range append(append([]filter.Filter{}, cr.Filters()...), cr.PostFilters()...) {
		e, err := c.filter(f)
		if err != nil {
			return statement{}, err
		}
		where = append(where, e)
	}

	var scores []expr
	for _, q := range cr.Queries() {
		e, err := c.filter(q.Filter())
		if err != nil {
			return statement{}, err
		}
		scores = append(scores, expr{
			sql:  "CASE WHEN " + e.sql + " THEN ? ELSE 0 END",
			args: append(e.args, q.Score()),
		})
	}
	if term := cr.Term(); term != "" {
		match, score, err := c.term(term)
		if err != nil {
			return statement{}, err
		}
		where = append(where, match)
		scores = append(scores, score)
	}

	score := expr{sql: "0.0"}
	if len(scores) > 0 {
		score = joinExprs(scores, " + ")
	}

	order, err := c.order(cr.Sortings())
	if err != nil {
		return statement{}, err
	}
	groups, err := c.groups(cr.GroupFields())
	if err != nil {
		return statement{}, err
	}

	cond := joinExprs(where, " AND ")
	matched := "WITH matched AS (SELECT id, body, " + score.sql + " AS score FROM documents WHERE " + cond.sql + ")"
	matchedArgs := append(append([]any{}, score.args...), cond.args...)

	st := statement{countArgs: matchedArgs}
	page := " LIMIT ? OFFSET ?"
	limit := -1
	if l, ok := cr.Limit(); ok {
		limit = l
	}
	st.args = append(append([]any{}, matchedArgs...), limit, cr.Offset())

	if len(groups) == 0 {
		st.selectSQL = matched + " SELECT id, score FROM matched ORDER BY " + order + page
		st.countSQL = matched + " SELECT COUNT(*) FROM matched"
		return st, nil
	}
	// NULL group values form their own group in both PARTITION BY and GROUP BY.
	part := strings.Join(groups, ", ")
	st.selectSQL = matched +
		", ranked AS (SELECT id, body, score, ROW_NUMBER() OVER (PARTITION BY " + part + " ORDER BY " + order + ") AS rn FROM matched)" +
		" SELECT id, score FROM ranked WHERE rn = 1 ORDER BY " + order + page
	st.countSQL = matched + " SELECT COUNT(*) FROM (SELECT 1 FROM matched GROUP BY " + part + ")"
	return st, nil
}

// order follows declared sortings, otherwise relevance. id breaks ties.
func (c compiler) order(sortings []criteria.Sorting) (string, error) {
	if len(sortings) == 0 {
		return "score DESC, id ASC", nil
	}
	parts := make([]string, 0, len(sortings)+1)
	for _, s := range sortings {
		f, err := c.field(s.Field())
		if err != nil {
			return "", err
		}
		if !f.Aggregatable() {
			return "", c.fail(s.Field(), "text fields cannot be sorted")
		}
		dir := "ASC"
		if s.Direction() == criteria.Desc {
			dir = "DESC"
		}
		key := accessor(f)
		if f.FieldType() == field.Date {
			key = dateMillis(f)
		}
		parts = append(parts, key+" "+dir)
	}
	return strings.Join(append(parts, "id ASC"), ", "), nil
}

func (c compiler) groups(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		f, err := c.field(p)
		if err != nil {
			return nil, err
		}
		if !f.Aggregatable() {
			return nil, c.fail(p, "text fields cannot be grouped")
		}
		out = append(out, accessor(f))
	}
	return out, nil
}

func (c compiler) term(term string) (match, score expr, err error) {
	fields := c.def.SearchableFields()
	if len(fields) == 0 {
		return expr{}, expr{}, c.fail("*", "entity has no searchable fields")
	}
	ors := make([]expr, len(fields))
	scores := make([]expr, len(fields))
	for i, f := range fields {
		hit := "instr(lower(" + accessor(f) + "), lower(?)) > 0"
		ors[i] = expr{sql: hit, args: []any{term}}
		scores[i] = expr{sql: "CASE WHEN " + hit + " THEN ? ELSE 0 END", args: []any{term, f.Boost()}}
	}
	return joinExprs(ors, " OR "), joinExprs(scores, " + "), nil
}

func (c compiler) filter(f filter.Filter) (expr, error) {
	switch f.Kind() {
	case filter.KindNot, filter.KindMulti:
		children := make([]expr, 0, len(f.Children()))
		for _, ch := range f.Children() {
			e, err := c.filter(ch)
			if err != nil {
				return expr{}, err
			}
			children = append(children, e)
		}
		sep := " AND "
		if f.Operator() == filter.Or {
			sep = " OR "
		}
		e := joinExprs(children, sep)
		if f.Kind() == filter.KindNot {
			// NULL comparisons must count as non-matching before negation.
			e.sql = "NOT COALESCE(" + e.sql + ", 0)"
		}
		return e, nil
	}

	fld, err := c.field(f.Field())
	if err != nil {
		return expr{}, err
	}
	return c.leaf(f, fld)
}

func (c compiler) leaf(f filter.Filter, fld field.Field) (expr, error) {
	acc := accessor(fld)
	ft := fld.FieldType()
	fail := func(reason string) (expr, error) { return expr{}, c.fail(fld.Name(), reason) }

	switch f.Kind() {
	case filter.KindEquals:
		if ft == field.Text {
			return expr{sql: "instr(lower(" + acc + "), lower(?)) > 0", args: []any{f.Value()}}, nil
		}
		v, err := coerce(ft, f.Value())
		if err != nil {
			return fail(err.Error())
		}
		return expr{sql: acc + " = ?", args: []any{v}}, nil

	case filter.KindEqualsAny:
		if ft == field.Text {
			ors := make([]expr, len(f.Values()))
			for i, v := range f.Values() {
				ors[i] = expr{sql: "instr(lower(" + acc + "), lower(?)) > 0", args: []any{v}}
			}
			return joinExprs(ors, " OR "), nil
		}
		values := make([]any, len(f.Values()))
		for i, raw := range f.Values() {
			v, err := coerce(ft, raw)
			if err != nil {
				return fail(err.Error())
			}
			values[i] = v
		}
		return expr{sql: acc + " IN (" + placeholders(len(values)) + ")", args: values}, nil

	case filter.KindContains:
		switch ft {
		case field.Keyword:
			return expr{sql: "instr(" + acc + ", ?) > 0", args: []any{f.Value()}}, nil
		case field.Text:
			return expr{sql: "instr(lower(" + acc + "), lower(?)) > 0", args: []any{f.Value()}}, nil
		}
		return fail(fmt.Sprintf("contains is not supported on %s fields", ft))

	case filter.KindPrefix:
		n := utf8.RuneCountInString(f.Value())
		switch ft {
		case field.Keyword:
			return expr{sql: "substr(" + acc + ", 1, ?) = ?", args: []any{n, f.Value()}}, nil
		case field.Text:
			return expr{sql: "lower(substr(" + acc + ", 1, ?)) = lower(?)", args: []any{n, f.Value()}}, nil
		}
		return fail(fmt.Sprintf("prefix is not supported on %s fields", ft))

	case filter.KindRange:
		switch ft {
		case field.Numeric:
		case field.Date:
			acc = dateMillis(fld)
		default:
			return fail(fmt.Sprintf("range is not supported on %s fields", ft))
		}
		r := f.Range()
		var parts []expr
		for _, b := range []struct {
			op string
			v  *float64
		}{{">", r.GT()}, {">=", r.GTE()}, {"<", r.LT()}, {"<=", r.LTE()}} {
			if b.v != nil {
				parts = append(parts, expr{sql: acc + " " + b.op + " ?", args: []any{*b.v}})
			}
		}
		return joinExprs(parts, " AND "), nil
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
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return raw, nil
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
