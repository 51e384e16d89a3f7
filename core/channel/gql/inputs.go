package gql

import (
	"slices"

	"github.com/graphql-go/graphql"

	"github.com/artpar/contentgate/core/convention"
	"github.com/artpar/contentgate/core/runtime"
	"github.com/artpar/contentgate/core/schema"
)

var (
	rangeOps = []string{"equals", "in", "notIn", "lt", "lte", "gt", "gte"}
	textOps  = []string{"equals", "in", "notIn", "lt", "lte", "gt", "gte", "contains", "startsWith", "endsWith"}
)

// scalarFilter returns a shared filter input such as StringFilter. Its not
// field refers back to the filter itself.
func (b *builder) scalarFilter(name string, t graphql.Input, ops []string, mode bool) *graphql.InputObject {
	if in, ok := b.inputs[name]; ok {
		return in
	}
	var in *graphql.InputObject
	in = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: name,
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			fields := graphql.InputObjectConfigFieldMap{}
			for _, op := range ops {
				var ft graphql.Input = t
				if op == "in" || op == "notIn" {
					ft = graphql.NewList(graphql.NewNonNull(t))
				}
				fields[op] = &graphql.InputObjectFieldConfig{Type: ft}
			}
			if mode {
				fields["mode"] = &graphql.InputObjectFieldConfig{Type: queryMode}
			}
			fields["not"] = &graphql.InputObjectFieldConfig{Type: in}
			return fields
		}),
	})
	b.inputs[name] = in
	return in
}

// fieldFilter returns the where input type of a scalar field.
func (b *builder) fieldFilter(d convention.Derived, f convention.DerivedField) graphql.Input {
	if f.Name == convention.FieldID {
		return b.scalarFilter("IDFilter", graphql.ID, rangeOps, false)
	}
	switch f.Kind {
	case schema.KindText:
		return b.scalarFilter("StringFilter", graphql.String, textOps, true)
	case schema.KindCheckbox:
		return b.scalarFilter("BooleanFilter", graphql.Boolean, []string{"equals"}, false)
	case schema.KindTimestamp:
		return b.scalarFilter("DateTimeNullableFilter", graphql.DateTime, rangeOps, false)
	case schema.KindSelect:
		e := b.enum(d, f)
		return b.scalarFilter(e.Name()+"NullableFilter", e, []string{"equals", "in", "notIn"}, false)
	}
	return nil
}

// whereInput returns e.g. PostWhereInput.
func (b *builder) whereInput(d convention.Derived) *graphql.InputObject {
	name := d.Names.WhereInput
	if in, ok := b.inputs[name]; ok {
		return in
	}
	var in *graphql.InputObject
	in = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: name,
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			many := graphql.NewList(graphql.NewNonNull(in))
			fields := graphql.InputObjectConfigFieldMap{
				"AND": &graphql.InputObjectFieldConfig{Type: many},
				"OR":  &graphql.InputObjectFieldConfig{Type: many},
				"NOT": &graphql.InputObjectFieldConfig{Type: many},
			}
			for _, f := range d.Fields {
				if !f.Filterable {
					continue
				}
				var t graphql.Input
				if f.IsRelationship() {
					target, ok := b.reg.Get(f.Target)
					if !ok {
						continue
					}
					if f.Many {
						t = b.manyFilter(target)
					} else {
						t = b.whereInput(target)
					}
				} else {
					t = b.fieldFilter(d, f)
				}
				if t != nil {
					fields[f.Name] = &graphql.InputObjectFieldConfig{Type: t}
				}
			}
			return fields
		}),
	})
	b.inputs[name] = in
	return in
}

// manyFilter returns e.g. PostManyRelationFilter.
func (b *builder) manyFilter(d convention.Derived) *graphql.InputObject {
	return b.input(d.Names.ManyFilter, func() graphql.InputObjectConfigFieldMap {
		where := b.whereInput(d)
		return graphql.InputObjectConfigFieldMap{
			"every": &graphql.InputObjectFieldConfig{Type: where},
			"some":  &graphql.InputObjectFieldConfig{Type: where},
			"none":  &graphql.InputObjectFieldConfig{Type: where},
		}
	})
}

// whereUnique returns e.g. PostWhereUniqueInput.
func (b *builder) whereUnique(d convention.Derived) *graphql.InputObject {
	return b.input(d.Names.WhereUnique, func() graphql.InputObjectConfigFieldMap {
		fields := graphql.InputObjectConfigFieldMap{}
		for _, name := range d.Lookups {
			var t graphql.Input = graphql.String
			if name == convention.FieldID {
				t = graphql.ID
			}
			fields[name] = &graphql.InputObjectFieldConfig{Type: t}
		}
		return fields
	})
}

// orderByInput returns e.g. PostOrderByInput.
func (b *builder) orderByInput(d convention.Derived) *graphql.InputObject {
	return b.input(d.Names.OrderByInput, func() graphql.InputObjectConfigFieldMap {
		fields := graphql.InputObjectConfigFieldMap{}
		for _, f := range d.Fields {
			if f.Orderable {
				fields[f.Name] = &graphql.InputObjectFieldConfig{Type: orderDirection}
			}
		}
		return fields
	})
}

// createInput returns e.g. PostCreateInput. Every field is optional here;
// required fields are enforced by validation so errors carry the field name.
func (b *builder) createInput(d convention.Derived) *graphql.InputObject {
	return b.input(d.Names.CreateInput, func() graphql.InputObjectConfigFieldMap {
		return b.dataFields(d, nil, true)
	})
}

// updateInput returns e.g. PostUpdateInput.
func (b *builder) updateInput(d convention.Derived) *graphql.InputObject {
	return b.input(d.Names.UpdateInput, func() graphql.InputObjectConfigFieldMap {
		return b.dataFields(d, nil, false)
	})
}

// dataFields lists the writable fields of a list, or only the named ones.
func (b *builder) dataFields(d convention.Derived, only []string, create bool) graphql.InputObjectConfigFieldMap {
	fields := graphql.InputObjectConfigFieldMap{}
	for _, f := range d.Fields {
		if f.Implicit {
			continue
		}
		if only != nil && !slices.Contains(only, f.Name) {
			continue
		}
		var t graphql.Input
		switch f.Kind {
		case schema.KindRelationship:
			target, ok := b.reg.Get(f.Target)
			if !ok {
				continue
			}
			t = b.relateInput(target, f.Many, create)
		case schema.KindTimestamp:
			t = graphql.DateTime
		case schema.KindCheckbox:
			t = graphql.Boolean
		case schema.KindSelect:
			t = b.enum(d, f)
		case schema.KindDocument:
			t = JSON
		default:
			t = graphql.String
		}
		fields[f.Name] = &graphql.InputObjectFieldConfig{Type: t}
	}
	return fields
}

// relateInput returns the nested relationship input of a target list, e.g.
// UserRelateToOneForCreateInput.
func (b *builder) relateInput(target convention.Derived, many, create bool) *graphql.InputObject {
	var name string
	switch {
	case many && create:
		name = target.Names.ToManyCreate
	case many:
		name = target.Names.ToManyUpdate
	case create:
		name = target.Names.ToOneCreate
	default:
		name = target.Names.ToOneUpdate
	}
	return b.input(name, func() graphql.InputObjectConfigFieldMap {
		unique := b.whereUnique(target)
		data := b.createInput(target)
		if !many {
			fields := graphql.InputObjectConfigFieldMap{
				"create":  &graphql.InputObjectFieldConfig{Type: data},
				"connect": &graphql.InputObjectFieldConfig{Type: unique},
			}
			if !create {
				fields["disconnect"] = &graphql.InputObjectFieldConfig{Type: graphql.Boolean}
			}
			return fields
		}
		uniques := graphql.NewList(graphql.NewNonNull(unique))
		fields := graphql.InputObjectConfigFieldMap{
			"create":  &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(data))},
			"connect": &graphql.InputObjectFieldConfig{Type: uniques},
		}
		if !create {
			fields["disconnect"] = &graphql.InputObjectFieldConfig{Type: uniques}
			fields["set"] = &graphql.InputObjectFieldConfig{Type: uniques}
		}
		return fields
	})
}

// updateArgs returns e.g. PostUpdateArgs.
func (b *builder) updateArgs(d convention.Derived) *graphql.InputObject {
	return b.input(d.Names.UpdateArgs, func() graphql.InputObjectConfigFieldMap {
		return graphql.InputObjectConfigFieldMap{
			"where": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(b.whereUnique(d))},
			"data":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(b.updateInput(d))},
		}
	})
}

// input returns the cached input type name, creating it with fields.
func (b *builder) input(name string, fields func() graphql.InputObjectConfigFieldMap) *graphql.InputObject {
	if in, ok := b.inputs[name]; ok {
		return in
	}
	in := graphql.NewInputObject(graphql.InputObjectConfig{
		Name:   name,
		Fields: graphql.InputObjectConfigFieldMapThunk(fields),
	})
	b.inputs[name] = in
	return in
}

// findArgs are the arguments of list queries and to-many fields.
func (b *builder) findArgs(d convention.Derived) graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"where":   &graphql.ArgumentConfig{Type: b.whereInput(d)},
		"orderBy": &graphql.ArgumentConfig{Type: graphql.NewList(graphql.NewNonNull(b.orderByInput(d)))},
		"take":    &graphql.ArgumentConfig{Type: graphql.Int},
		"skip":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
	}
}

// findArgs converts resolved arguments into runtime.FindArgs.
func findArgs(args map[string]any) runtime.FindArgs {
	var out runtime.FindArgs
	out.Where, _ = args["where"].(map[string]any)
	if raw, ok := args["orderBy"].([]any); ok {
		out.OrderBy = mapList(raw)
	}
	if take, ok := args["take"].(int); ok {
		out.Take = &take
	}
	out.Skip, _ = args["skip"].(int)
	return out
}

func mapList(raw any) []map[string]any {
	list, _ := raw.([]any)
	out := make([]map[string]any, 0, len(list))
	for _, v := range list {
		m, _ := v.(map[string]any)
		out = append(out, m)
	}
	return out
}
