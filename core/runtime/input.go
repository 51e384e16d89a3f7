package runtime

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/artpar/contentgate/core/convention"
	"github.com/artpar/contentgate/core/document"
	"github.com/artpar/contentgate/core/schema"
	"github.com/artpar/contentgate/core/storage"
	"github.com/artpar/contentgate/core/validation"
)

// FindArgs selects items. Where and OrderBy use the GraphQL input shapes:
//
//	where:   {title: {contains: "go", mode: "insensitive"}, OR: [...], tags: {some: {...}}}
//	orderBy: [{publishDate: "desc"}, {title: "asc"}]
type FindArgs struct {
	Where   map[string]any
	OrderBy []map[string]any

	// Take limits the result when set; a zero Take returns nothing.
	Take *int
	Skip int
}

// UpdateArgs is one item of an UpdateMany call.
type UpdateArgs struct {
	Where map[string]any
	Data  map[string]any
}

var scalarOps = map[string]storage.Op{
	"equals":     storage.OpEquals,
	"in":         storage.OpIn,
	"notIn":      storage.OpNotIn,
	"lt":         storage.OpLt,
	"lte":        storage.OpLte,
	"gt":         storage.OpGt,
	"gte":        storage.OpGte,
	"contains":   storage.OpContains,
	"startsWith": storage.OpStartsWith,
	"endsWith":   storage.OpEndsWith,
}

// filter converts a where input into a storage filter.
func (r *Runtime) filter(d convention.Derived, where map[string]any) (storage.Filter, error) {
	var f storage.Filter
	list := d.Source.Key

	for _, key := range slices.Sorted(maps.Keys(where)) {
		raw := where[key]

		switch key {
		case "AND", "OR", "NOT":
			subs, err := r.filterList(d, key, raw)
			if err != nil {
				return f, err
			}
			switch key {
			case "AND":
				f.And = append(f.And, subs...)
			case "OR":
				if f.Or == nil {
					f.Or = []storage.Filter{}
				}
				f.Or = append(f.Or, subs...)
			case "NOT":
				for _, s := range subs {
					f.And = append(f.And, storage.Not(s))
				}
			}
			continue
		}

		field, ok := d.Field(key)
		if !ok {
			return f, inputErr(list, key, "unknown field")
		}
		if !field.Filterable {
			return f, inputErr(list, key, "field is not filterable")
		}

		if field.IsRelationship() {
			conds, err := r.relationFilter(field, list, raw)
			if err != nil {
				return f, err
			}
			f.Conditions = append(f.Conditions, conds...)
			continue
		}

		sub, err := r.scalarFilter(field, list, raw)
		if err != nil {
			return f, err
		}
		f.And = append(f.And, sub)
	}

	return f, nil
}

func (r *Runtime) filterList(d convention.Derived, key string, raw any) ([]storage.Filter, error) {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []map[string]any:
		for _, m := range v {
			items = append(items, m)
		}
	case map[string]any:
		items = []any{v}
	case nil:
		return nil, nil
	default:
		return nil, inputErr(d.Source.Key, key, "expects a list of filters")
	}

	out := make([]storage.Filter, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, inputErr(d.Source.Key, key, "expects a list of filters")
		}
		sub, err := r.filter(d, m)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

func (r *Runtime) relationFilter(field convention.DerivedField, list string, raw any) ([]storage.Condition, error) {
	target, err := r.list(field.Target)
	if err != nil {
		return nil, err
	}

	if !field.Many {
		if raw == nil {
			return []storage.Condition{{Field: field.Name, Op: storage.OpIs}}, nil
		}
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, inputErr(list, field.Name, "expects a %s filter", target.Names.WhereInput)
		}
		sub, err := r.filter(target, m)
		if err != nil {
			return nil, err
		}
		return []storage.Condition{{Field: field.Name, Op: storage.OpIs, Value: sub}}, nil
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return nil, inputErr(list, field.Name, "expects {some, none, every}")
	}
	var conds []storage.Condition
	for _, key := range slices.Sorted(maps.Keys(m)) {
		var op storage.Op
		switch key {
		case "some":
			op = storage.OpSome
		case "none":
			op = storage.OpNone
		case "every":
			op = storage.OpEvery
		default:
			return nil, inputErr(list, field.Name, "unknown relationship filter %q", key)
		}
		sm, _ := m[key].(map[string]any)
		sub, err := r.filter(target, sm)
		if err != nil {
			return nil, err
		}
		conds = append(conds, storage.Condition{Field: field.Name, Op: op, Value: sub})
	}
	return conds, nil
}

// scalarFilter converts a field filter such as {contains: "x", mode:
// "insensitive"}. A bare value is shorthand for equals.
func (r *Runtime) scalarFilter(field convention.DerivedField, list string, raw any) (storage.Filter, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		v, err := filterValue(field, list, raw)
		if err != nil {
			return storage.Filter{}, err
		}
		return storage.Where(storage.Eq(field.Name, v)), nil
	}

	insensitive := false
	if mode, ok := m["mode"]; ok {
		switch mode {
		case "insensitive":
			insensitive = true
		case "default", nil:
		default:
			return storage.Filter{}, inputErr(list, field.Name, "unknown mode %v", mode)
		}
		if insensitive && field.Kind != schema.KindText {
			return storage.Filter{}, inputErr(list, field.Name, "mode is only supported on text fields")
		}
	}

	var f storage.Filter
	for _, key := range slices.Sorted(maps.Keys(m)) {
		val := m[key]
		switch key {
		case "mode":
			continue
		case "not":
			if nested, ok := val.(map[string]any); ok {
				if _, has := nested["mode"]; !has && insensitive {
					nested = maps.Clone(nested)
					nested["mode"] = "insensitive"
				}
				sub, err := r.scalarFilter(field, list, nested)
				if err != nil {
					return f, err
				}
				f.And = append(f.And, storage.Not(sub))
				continue
			}
			v, err := filterValue(field, list, val)
			if err != nil {
				return f, err
			}
			f.Conditions = append(f.Conditions, storage.Condition{
				Field: field.Name, Op: storage.OpNotEquals, Value: v, Insensitive: insensitive,
			})
			continue
		}

		op, ok := scalarOps[key]
		if !ok {
			return f, inputErr(list, field.Name, "unknown filter operator %q", key)
		}

		switch op {
		case storage.OpContains, storage.OpStartsWith, storage.OpEndsWith:
			if field.Kind != schema.KindText {
				return f, inputErr(list, field.Name, "%s is only supported on text fields", key)
			}
		}

		var v any
		var err error
		if op == storage.OpIn || op == storage.OpNotIn {
			v, err = filterValues(field, list, val)
		} else {
			v, err = filterValue(field, list, val)
		}
		if err != nil {
			return f, err
		}
		f.Conditions = append(f.Conditions, storage.Condition{
			Field: field.Name, Op: op, Value: v, Insensitive: insensitive,
		})
	}
	return f, nil
}

func filterValues(field convention.DerivedField, list string, raw any) ([]any, error) {
	var in []any
	switch v := raw.(type) {
	case []any:
		in = v
	case []string:
		for _, s := range v {
			in = append(in, s)
		}
	case nil:
		return nil, inputErr(list, field.Name, "in/notIn expects a list")
	default:
		return nil, inputErr(list, field.Name, "in/notIn expects a list")
	}
	out := make([]any, len(in))
	for i, v := range in {
		c, err := filterValue(field, list, v)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func filterValue(field convention.DerivedField, list string, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch field.Kind {
	case schema.KindTimestamp:
		t, err := validation.ParseTimestamp(raw)
		if err != nil {
			return nil, inputErr(list, field.Name, "invalid timestamp")
		}
		return t, nil
	case schema.KindCheckbox:
		b, ok := raw.(bool)
		if !ok {
			return nil, inputErr(list, field.Name, "expects a boolean")
		}
		return b, nil
	default:
		s, ok := raw.(string)
		if !ok {
			return nil, inputErr(list, field.Name, "expects a string")
		}
		return s, nil
	}
}

// orderBy converts orderBy inputs. Each entry names exactly one field.
func (r *Runtime) orderBy(d convention.Derived, in []map[string]any) ([]storage.Order, error) {
	list := d.Source.Key
	out := make([]storage.Order, 0, len(in))
	for _, entry := range in {
		if len(entry) != 1 {
			return nil, inputErr(list, "", "each orderBy entry must name exactly one field")
		}
		for name, dir := range entry {
			field, ok := d.Field(name)
			if !ok {
				return nil, inputErr(list, name, "unknown field")
			}
			if !field.Orderable {
				return nil, inputErr(list, name, "field is not orderable")
			}
			s, _ := dir.(string)
			switch strings.ToLower(s) {
			case "asc":
				out = append(out, storage.Order{Field: name})
			case "desc":
				out = append(out, storage.Order{Field: name, Desc: true})
			default:
				return nil, inputErr(list, name, "order direction must be asc or desc")
			}
		}
	}
	return out, nil
}

// query converts FindArgs. ok is false when Take is zero.
func (r *Runtime) query(d convention.Derived, args FindArgs) (q storage.Query, ok bool, err error) {
	if q.Where, err = r.filter(d, args.Where); err != nil {
		return q, false, err
	}
	if q.OrderBy, err = r.orderBy(d, args.OrderBy); err != nil {
		return q, false, err
	}
	if args.Skip < 0 {
		return q, false, inputErr(d.Source.Key, "", "skip must not be negative")
	}
	q.Skip = args.Skip
	if args.Take != nil {
		if *args.Take < 0 {
			return q, false, inputErr(d.Source.Key, "", "take must not be negative")
		}
		if *args.Take == 0 {
			return q, false, nil
		}
		q.Take = *args.Take
	}
	return q, true, nil
}

// findUnique loads the item named by a unique where such as {id: "..."} or
// {email: "..."}.
func (r *Runtime) findUnique(ctx context.Context, tx storage.Tx, d convention.Derived, where map[string]any) (storage.Item, error) {
	list := d.Source.Key
	var field string
	var value any
	for k, v := range where {
		if v == nil {
			continue
		}
		if field != "" {
			return nil, inputErr(list, "", "a unique where must name exactly one field")
		}
		field, value = k, v
	}
	if field == "" {
		return nil, inputErr(list, "", "a unique where must name exactly one field")
	}
	if !d.IsLookup(field) {
		return nil, inputErr(list, field, "field is not unique")
	}
	s, ok := value.(string)
	if !ok {
		return nil, inputErr(list, field, "expects a string")
	}

	item, err := tx.FindOne(ctx, list, field, s)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return item, err
}

// column converts an input value into its stored form.
func (r *Runtime) column(field convention.DerivedField, value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch field.Kind {
	case schema.KindPassword:
		hash, err := r.hasher.Hash(value.(string))
		if err != nil {
			return nil, err
		}
		return string(hash), nil

	case schema.KindTimestamp:
		return validation.ParseTimestamp(value)

	case schema.KindDocument:
		opts, _ := field.Source.Config.(schema.Document)
		return document.Normalize(value, opts)

	case schema.KindText:
		// Empty optional unique values are stored as NULL so they do not
		// collide with each other.
		if s, _ := value.(string); s == "" && field.Unique && !field.Required {
			return nil, nil
		}
	}
	return value, nil
}

// output converts a stored item for callers: password hashes are replaced
// by their set state.
func (r *Runtime) output(d convention.Derived, item storage.Item) Item {
	if item == nil {
		return nil
	}
	out := make(Item, len(item))
	for k, v := range item {
		out[k] = v
	}
	for _, f := range d.Fields {
		if f.WriteOnly {
			s, _ := item[f.Name].(string)
			out[f.Name] = schema.PasswordState{IsSet: s != ""}
		}
	}
	return out
}

func (r *Runtime) outputs(d convention.Derived, items []storage.Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = r.output(d, it)
	}
	return out
}
