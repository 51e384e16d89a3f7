// Package gql generates the GraphQL API from the list registry: one object
// type per list, filter and write input types, item queries and mutations,
// and the authentication operations of the identity list.
package gql

import (
	"errors"
	"fmt"

	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"

	"github.com/artpar/contentgate/app"
	"github.com/artpar/contentgate/core/convention"
	"github.com/artpar/contentgate/core/registry"
	"github.com/artpar/contentgate/core/runtime"
)

// Config configures schema generation.
type Config struct {
	Runtime *runtime.Runtime

	// Auth adds the authentication operations when set.
	Auth *app.AuthService

	Logger zerolog.Logger
}

type builder struct {
	rt     *runtime.Runtime
	reg    *registry.Registry
	auth   *app.AuthService
	logger zerolog.Logger

	objects map[string]*graphql.Object
	inputs  map[string]*graphql.InputObject
	enums   map[string]*graphql.Enum
}

// NewSchema builds the GraphQL schema of every registered list.
func NewSchema(cfg Config) (graphql.Schema, error) {
	if cfg.Runtime == nil {
		return graphql.Schema{}, errors.New("gql: runtime is required")
	}
	b := &builder{
		rt:      cfg.Runtime,
		reg:     cfg.Runtime.Registry(),
		auth:    cfg.Auth,
		logger:  cfg.Logger.With().Str("component", "graphql").Logger(),
		objects: make(map[string]*graphql.Object),
		inputs:  make(map[string]*graphql.InputObject),
		enums:   make(map[string]*graphql.Enum),
	}

	query := graphql.Fields{}
	mutation := graphql.Fields{}
	for _, d := range b.reg.List() {
		b.listQueries(query, d)
		b.listMutations(mutation, d)
	}
	if b.auth != nil {
		if err := b.authOperations(query, mutation); err != nil {
			return graphql.Schema{}, err
		}
	}

	s, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    graphql.NewObject(graphql.ObjectConfig{Name: "Query", Fields: query}),
		Mutation: graphql.NewObject(graphql.ObjectConfig{Name: "Mutation", Fields: mutation}),
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("build graphql schema: %w", err)
	}
	return s, nil
}

func (b *builder) err(err error) error {
	return toError(b.logger, err)
}

// listQueries adds e.g. post, posts and postsCount.
func (b *builder) listQueries(query graphql.Fields, d convention.Derived) {
	list := d.Source.Key
	obj := b.object(d)

	query[d.Names.Item] = &graphql.Field{
		Type: obj,
		Args: graphql.FieldConfigArgument{
			"where": &graphql.ArgumentConfig{Type: graphql.NewNonNull(b.whereUnique(d))},
		},
		Resolve: func(p graphql.ResolveParams) (any, error) {
			where, _ := p.Args["where"].(map[string]any)
			item, err := b.rt.FindOne(p.Context, list, where)
			if errors.Is(err, runtime.ErrNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, b.err(err)
			}
			return item, nil
		},
	}

	query[d.Names.Items] = &graphql.Field{
		Type: graphql.NewList(graphql.NewNonNull(obj)),
		Args: b.findArgs(d),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			items, err := b.rt.FindMany(p.Context, list, findArgs(p.Args))
			if err != nil {
				return nil, b.err(err)
			}
			return items, nil
		},
	}

	query[d.Names.Count] = &graphql.Field{
		Type: graphql.Int,
		Args: graphql.FieldConfigArgument{
			"where": &graphql.ArgumentConfig{Type: b.whereInput(d)},
		},
		Resolve: func(p graphql.ResolveParams) (any, error) {
			where, _ := p.Args["where"].(map[string]any)
			n, err := b.rt.Count(p.Context, list, where)
			if err != nil {
				return nil, b.err(err)
			}
			return n, nil
		},
	}
}

// listMutations adds the create, update and delete mutations of a list.
func (b *builder) listMutations(mutation graphql.Fields, d convention.Derived) {
	list := d.Source.Key
	obj := b.object(d)
	unique := graphql.NewNonNull(b.whereUnique(d))

	mutation[d.Names.CreateOne] = &graphql.Field{
		Type: obj,
		Args: graphql.FieldConfigArgument{
			"data": &graphql.ArgumentConfig{Type: graphql.NewNonNull(b.createInput(d))},
		},
		Resolve: func(p graphql.ResolveParams) (any, error) {
			data, _ := p.Args["data"].(map[string]any)
			item, err := b.rt.CreateOne(p.Context, list, data)
			if err != nil {
				return nil, b.err(err)
			}
			return item, nil
		},
	}

	mutation[d.Names.CreateMany] = &graphql.Field{
		Type: graphql.NewList(obj),
		Args: graphql.FieldConfigArgument{
			"data": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(b.createInput(d))))},
		},
		Resolve: func(p graphql.ResolveParams) (any, error) {
			items, err := b.rt.CreateMany(p.Context, list, mapList(p.Args["data"]))
			if err != nil {
				return nil, b.err(err)
			}
			return items, nil
		},
	}

	mutation[d.Names.UpdateOne] = &graphql.Field{
		Type: obj,
		Args: graphql.FieldConfigArgument{
			"where": &graphql.ArgumentConfig{Type: unique},
			"data":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(b.updateInput(d))},
		},
		Resolve: func(p graphql.ResolveParams) (any, error) {
			where, _ := p.Args["where"].(map[string]any)
			data, _ := p.Args["data"].(map[string]any)
			item, err := b.rt.UpdateOne(p.Context, list, where, data)
			if err != nil {
				return nil, b.err(err)
			}
			return item, nil
		},
	}

	mutation[d.Names.UpdateMany] = &graphql.Field{
		Type: graphql.NewList(obj),
		Args: graphql.FieldConfigArgument{
			"data": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(b.updateArgs(d))))},
		},
		Resolve: func(p graphql.ResolveParams) (any, error) {
			in := mapList(p.Args["data"])
			updates := make([]runtime.UpdateArgs, len(in))
			for i, u := range in {
				updates[i].Where, _ = u["where"].(map[string]any)
				updates[i].Data, _ = u["data"].(map[string]any)
			}
			items, err := b.rt.UpdateMany(p.Context, list, updates)
			if err != nil {
				return nil, b.err(err)
			}
			return items, nil
		},
	}

	mutation[d.Names.DeleteOne] = &graphql.Field{
		Type: obj,
		Args: graphql.FieldConfigArgument{
			"where": &graphql.ArgumentConfig{Type: unique},
		},
		Resolve: func(p graphql.ResolveParams) (any, error) {
			where, _ := p.Args["where"].(map[string]any)
			item, err := b.rt.DeleteOne(p.Context, list, where)
			if err != nil {
				return nil, b.err(err)
			}
			return item, nil
		},
	}

	mutation[d.Names.DeleteMany] = &graphql.Field{
		Type: graphql.NewList(obj),
		Args: graphql.FieldConfigArgument{
			"where": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(b.whereUnique(d))))},
		},
		Resolve: func(p graphql.ResolveParams) (any, error) {
			items, err := b.rt.DeleteMany(p.Context, list, mapList(p.Args["where"]))
			if err != nil {
				return nil, b.err(err)
			}
			return items, nil
		},
	}
}
