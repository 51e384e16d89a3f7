package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/artpar/contentgate/core/convention"
	"github.com/artpar/contentgate/core/registry"
)

// builder accumulates bind arguments and table aliases for one statement.
type builder struct {
	d       Dialect
	args    []any
	aliases int
}

func (t *sqlTx) newBuilder() *builder {
	return &builder{d: t.s.dialect}
}

// bind adds an argument and returns its placeholder.
func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.d.Placeholder(len(b.args))
}

// alias returns a fresh table alias.
func (b *builder) alias() string {
	b.aliases++
	return "t" + strconv.Itoa(b.aliases)
}

// whereSQL compiles a filter on the table aliased as alias.
func (t *sqlTx) whereSQL(b *builder, m *tableMeta, alias string, f Filter) (string, error) {
	if f.IsEmpty() {
		return "1=1", nil
	}

	var parts []string
	for _, c := range f.Conditions {
		sql, err := t.conditionSQL(b, m, alias, c)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}

	for _, sub := range f.And {
		sql, err := t.whereSQL(b, m, alias, sub)
		if err != nil {
			return "", err
		}
		parts = append(parts, "("+sql+")")
	}

	if f.Or != nil {
		if len(f.Or) == 0 {
			parts = append(parts, "1=0")
		} else {
			ors := make([]string, len(f.Or))
			for i, sub := range f.Or {
				sql, err := t.whereSQL(b, m, alias, sub)
				if err != nil {
					return "", err
				}
				ors[i] = "(" + sql + ")"
			}
			parts = append(parts, "("+strings.Join(ors, " OR ")+")")
		}
	}

	if f.Not != nil {
		sql, err := t.whereSQL(b, m, alias, *f.Not)
		if err != nil {
			return "", err
		}
		parts = append(parts, "NOT ("+sql+")")
	}

	if len(parts) == 0 {
		return "1=1", nil
	}
	return strings.Join(parts, " AND "), nil
}

func (t *sqlTx) conditionSQL(b *builder, m *tableMeta, alias string, c Condition) (string, error) {
	list := m.derived.Source.Key
	field, ok := m.derived.Field(c.Field)
	if !ok {
		return "", fmt.Errorf("%s: unknown field %q", list, c.Field)
	}
	if !field.Filterable {
		return "", fmt.Errorf("%s: field %q is not filterable", list, c.Field)
	}

	if field.IsRelationship() {
		link, ok := t.s.registry.Link(list, c.Field)
		if !ok {
			return "", fmt.Errorf("%s: relationship %q is not resolved", list, c.Field)
		}
		return t.relationSQL(b, link, alias, c)
	}

	col, ok := m.byName[c.Field]
	if !ok {
		return "", fmt.Errorf("%s: field %q has no column", list, c.Field)
	}
	ref := alias + "." + t.q(col.Name)
	if c.Insensitive {
		ref = "LOWER(" + ref + ")"
	}
	value := func(v any) string {
		p := b.bind(toDB(v, col))
		if c.Insensitive {
			return "LOWER(" + p + ")"
		}
		return p
	}

	switch c.Op {
	case OpEquals:
		if c.Value == nil {
			return alias + "." + t.q(col.Name) + " IS NULL", nil
		}
		return ref + " = " + value(c.Value), nil

	case OpNotEquals:
		if c.Value == nil {
			return alias + "." + t.q(col.Name) + " IS NOT NULL", nil
		}
		return ref + " <> " + value(c.Value), nil

	case OpIn, OpNotIn:
		values := toSlice(c.Value)
		if len(values) == 0 {
			if c.Op == OpIn {
				return "1=0", nil
			}
			return "1=1", nil
		}
		ph := make([]string, len(values))
		for i, v := range values {
			ph[i] = value(v)
		}
		op := " IN "
		if c.Op == OpNotIn {
			op = " NOT IN "
		}
		return ref + op + "(" + strings.Join(ph, ", ") + ")", nil

	case OpContains, OpStartsWith, OpEndsWith:
		s, ok := c.Value.(string)
		if !ok {
			return "", fmt.Errorf("%s.%s: %s expects a string", list, c.Field, c.Op)
		}
		pattern := escapeLike(s)
		switch c.Op {
		case OpContains:
			pattern = "%" + pattern + "%"
		case OpStartsWith:
			pattern += "%"
		case OpEndsWith:
			pattern = "%" + pattern
		}
		return ref + " LIKE " + value(pattern) + " ESCAPE '!'", nil

	case OpLt:
		return ref + " < " + value(c.Value), nil
	case OpLte:
		return ref + " <= " + value(c.Value), nil
	case OpGt:
		return ref + " > " + value(c.Value), nil
	case OpGte:
		return ref + " >= " + value(c.Value), nil

	case OpIsNull:
		if isNull, _ := c.Value.(bool); isNull {
			return alias + "." + t.q(col.Name) + " IS NULL", nil
		}
		return alias + "." + t.q(col.Name) + " IS NOT NULL", nil
	}

	return "", fmt.Errorf("%s.%s: unsupported operator %q", list, c.Field, c.Op)
}

// relationSQL compiles is/some/none/every into EXISTS subqueries over the
// target list.
func (t *sqlTx) relationSQL(b *builder, link registry.Link, alias string, c Condition) (string, error) {
	var sub Filter
	switch v := c.Value.(type) {
	case nil:
	case Filter:
		sub = v
	case *Filter:
		if v != nil {
			sub = *v
		}
	default:
		return "", fmt.Errorf("%s.%s: %s expects a filter", link.List, link.Field, c.Op)
	}

	negate := false
	switch c.Op {
	case OpIs:
		if c.Value == nil {
			negate = true
		}
	case OpSome:
	case OpNone:
		negate = true
	case OpEvery:
		if sub.IsEmpty() {
			return "1=1", nil
		}
		negate = true
		sub = Not(sub)
	default:
		return "", fmt.Errorf("%s.%s: unsupported relationship operator %q", link.List, link.Field, c.Op)
	}

	exists, err := t.linkedExists(b, link, alias, sub)
	if err != nil {
		return "", err
	}
	if negate {
		return "NOT " + exists, nil
	}
	return exists, nil
}

// linkedExists returns an EXISTS subquery matching items linked to the row
// aliased as outer that also satisfy f.
func (t *sqlTx) linkedExists(b *builder, link registry.Link, outer string, f Filter) (string, error) {
	target, err := t.s.meta(link.Target)
	if err != nil {
		return "", err
	}

	inner := b.alias()
	innerID := inner + "." + t.q(convention.FieldID)

	var join string
	switch link.Placement {
	case registry.OwnColumn:
		join = innerID + " = " + outer + "." + t.q(link.Column)
	case registry.TargetColumn:
		join = inner + "." + t.q(link.Column) + " = " + outer + "." + t.q(convention.FieldID)
	default:
		join = fmt.Sprintf("%s IN (SELECT %s FROM %s WHERE %s = %s.%s)",
			innerID, t.q(link.JoinTarget), t.q(link.JoinTable), t.q(link.JoinSelf), outer, t.q(convention.FieldID))
	}

	cond, err := t.whereSQL(b, target, inner, f)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("EXISTS (SELECT 1 FROM %s %s WHERE %s AND %s)", t.q(target.table), inner, join, cond), nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

func toSlice(v any) []any {
	switch vs := v.(type) {
	case []any:
		return vs
	case []string:
		out := make([]any, len(vs))
		for i, s := range vs {
			out[i] = s
		}
		return out
	case nil:
		return nil
	}
	return []any{v}
}
