package gql

import (
	"strings"
	"unicode"

	"github.com/graphql-go/graphql"

	"github.com/artpar/contentgate/core/convention"
	"github.com/artpar/contentgate/core/runtime"
	"github.com/artpar/contentgate/core/schema"
)

// object returns the output type of a list, creating it on first use.
func (b *builder) object(d convention.Derived) *graphql.Object {
	if obj, ok := b.objects[d.Source.Key]; ok {
		return obj
	}
	obj := graphql.NewObject(graphql.ObjectConfig{
		Name:        d.Names.Type,
		Description: "A " + d.Source.Key + " item.",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return b.objectFields(d)
		}),
	})
	b.objects[d.Source.Key] = obj
	return obj
}

func (b *builder) objectFields(d convention.Derived) graphql.Fields {
	fields := graphql.Fields{}
	for _, f := range d.Fields {
		if f.IsRelationship() {
			b.relationFields(fields, d, f)
			continue
		}
		fields[f.Name] = &graphql.Field{
			Type:    b.outputType(d, f),
			Resolve: value(f.Name),
		}
	}
	return fields
}

// value resolves a stored field of an item.
func value(name string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		item, _ := p.Source.(runtime.Item)
		return item[name], nil
	}
}

func (b *builder) outputType(d convention.Derived, f convention.DerivedField) graphql.Output {
	if f.Name == convention.FieldID {
		return graphql.NewNonNull(graphql.ID)
	}
	switch f.Kind {
	case schema.KindPassword:
		return PasswordState
	case schema.KindTimestamp:
		return graphql.DateTime
	case schema.KindCheckbox:
		return graphql.Boolean
	case schema.KindSelect:
		return b.enum(d, f)
	case schema.KindDocument:
		return JSON
	}
	return graphql.String
}

// relationFields adds a relationship field and, for to-many fields, its
// count field.
func (b *builder) relationFields(fields graphql.Fields, d convention.Derived, f convention.DerivedField) {
	target, ok := b.reg.Get(f.Target)
	if !ok {
		return
	}
	list, name := d.Source.Key, f.Name

	if !f.Many {
		fields[name] = &graphql.Field{
			Type: b.object(target),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				item, _ := p.Source.(runtime.Item)
				one := 1
				items, err := b.rt.Related(p.Context, list, name, item.ID(), runtime.FindArgs{Take: &one})
				if err != nil {
					return nil, b.err(err)
				}
				if len(items) == 0 {
					return nil, nil
				}
				return items[0], nil
			},
		}
		return
	}

	fields[name] = &graphql.Field{
		Type: graphql.NewList(graphql.NewNonNull(b.object(target))),
		Args: b.findArgs(target),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			item, _ := p.Source.(runtime.Item)
			items, err := b.rt.Related(p.Context, list, name, item.ID(), findArgs(p.Args))
			if err != nil {
				return nil, b.err(err)
			}
			return items, nil
		},
	}
	fields[name+"Count"] = &graphql.Field{
		Type: graphql.Int,
		Args: graphql.FieldConfigArgument{
			"where": &graphql.ArgumentConfig{Type: b.whereInput(target)},
		},
		Resolve: func(p graphql.ResolveParams) (any, error) {
			item, _ := p.Source.(runtime.Item)
			where, _ := p.Args["where"].(map[string]any)
			n, err := b.rt.RelatedCount(p.Context, list, name, item.ID(), where)
			if err != nil {
				return nil, b.err(err)
			}
			return n, nil
		},
	}
}

// enum returns the enum type of a select field, e.g. PostStatusType.
func (b *builder) enum(d convention.Derived, f convention.DerivedField) *graphql.Enum {
	name := d.Names.Type + convention.UpperFirst(f.Name) + "Type"
	if e, ok := b.enums[name]; ok {
		return e
	}
	values := graphql.EnumValueConfigMap{}
	for _, v := range f.Values {
		values[enumName(v)] = &graphql.EnumValueConfig{Value: v}
	}
	e := graphql.NewEnum(graphql.EnumConfig{Name: name, Values: values})
	b.enums[name] = e
	return e
}

// enumName turns a select value into a valid GraphQL enum name.
func enumName(v string) string {
	var sb strings.Builder
	for i, r := range v {
		switch {
		case r == '_' || r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) && i > 0):
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
