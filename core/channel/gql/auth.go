package gql

import (
	"context"
	"errors"
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/artpar/contentgate/adapters/session"
	"github.com/artpar/contentgate/app"
	"github.com/artpar/contentgate/core/runtime"
)

// SessionContext gives resolvers access to the session of the current
// request. The HTTP channel implements it on top of cookies and bearer tokens.
type SessionContext interface {
	// Session returns the valid session of the request, if any.
	Session() (session.Data, bool)

	// Start issues a session token and attaches it to the response.
	Start(data session.Data) (string, error)

	// End clears the session of the response.
	End() error
}

type sessionKey struct{}

// WithSession returns a context carrying sc.
func WithSession(ctx context.Context, sc SessionContext) context.Context {
	return context.WithValue(ctx, sessionKey{}, sc)
}

func sessionFrom(ctx context.Context) (SessionContext, bool) {
	sc, ok := ctx.Value(sessionKey{}).(SessionContext)
	return sc, ok
}

var errNoSession = errors.New("sessions are not available for this request")

type authSuccess struct {
	token string
	item  runtime.Item
}

type authFailure struct {
	message string
}

// authOperations adds authenticatedItem, authenticate<List>WithPassword,
// endSession and, when enabled, createInitial<List>.
func (b *builder) authOperations(query, mutation graphql.Fields) error {
	cfg := b.auth.Config()
	d, ok := b.reg.Get(cfg.ListKey)
	if !ok {
		return fmt.Errorf("gql: auth list %q is not registered", cfg.ListKey)
	}
	obj := b.object(d)
	prefix := d.Names.Type + "AuthenticationWithPassword"

	authenticated := graphql.NewUnion(graphql.UnionConfig{
		Name:  "AuthenticatedItem",
		Types: []*graphql.Object{obj},
		ResolveType: func(graphql.ResolveTypeParams) *graphql.Object {
			return obj
		},
	})

	success := graphql.NewObject(graphql.ObjectConfig{
		Name: prefix + "Success",
		Fields: graphql.Fields{
			"sessionToken": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(authSuccess).token, nil
				},
			},
			"item": &graphql.Field{
				Type: graphql.NewNonNull(obj),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(authSuccess).item, nil
				},
			},
		},
	})
	failure := graphql.NewObject(graphql.ObjectConfig{
		Name: prefix + "Failure",
		Fields: graphql.Fields{
			"message": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(authFailure).message, nil
				},
			},
		},
	})
	result := graphql.NewUnion(graphql.UnionConfig{
		Name:  prefix + "Result",
		Types: []*graphql.Object{success, failure},
		ResolveType: func(p graphql.ResolveTypeParams) *graphql.Object {
			if _, ok := p.Value.(authFailure); ok {
				return failure
			}
			return success
		},
	})

	query["authenticatedItem"] = &graphql.Field{
		Type: authenticated,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			sc, ok := sessionFrom(p.Context)
			if !ok {
				return nil, nil
			}
			sess, ok := sc.Session()
			if !ok {
				return nil, nil
			}
			item, err := b.auth.Item(p.Context, sess)
			if errors.Is(err, runtime.ErrNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, b.err(err)
			}
			return item, nil
		},
	}

	mutation["authenticate"+d.Names.Type+"WithPassword"] = &graphql.Field{
		Type: result,
		Args: graphql.FieldConfigArgument{
			cfg.IdentityField: &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			cfg.SecretField:   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
		},
		Resolve: func(p graphql.ResolveParams) (any, error) {
			identity, _ := p.Args[cfg.IdentityField].(string)
			secret, _ := p.Args[cfg.SecretField].(string)
			sess, err := b.auth.Authenticate(p.Context, identity, secret)
			if errors.Is(err, app.ErrInvalidCredentials) {
				return authFailure{message: app.ErrInvalidCredentials.Error()}, nil
			}
			if err != nil {
				return nil, b.err(err)
			}
			return b.start(p.Context, sess)
		},
	}

	mutation["endSession"] = &graphql.Field{
		Type: graphql.NewNonNull(graphql.Boolean),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			sc, ok := sessionFrom(p.Context)
			if !ok {
				return nil, b.err(errNoSession)
			}
			if err := sc.End(); err != nil {
				return nil, b.err(err)
			}
			return true, nil
		},
	}

	if !b.auth.InitEnabled() {
		return nil
	}

	input := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreateInitial" + d.Names.Type + "Input",
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			return b.dataFields(d, b.auth.InitFields(), true)
		}),
	})
	mutation["createInitial"+d.Names.Type] = &graphql.Field{
		Type: graphql.NewNonNull(success),
		Args: graphql.FieldConfigArgument{
			"data": &graphql.ArgumentConfig{Type: graphql.NewNonNull(input)},
		},
		Resolve: func(p graphql.ResolveParams) (any, error) {
			data, _ := p.Args["data"].(map[string]any)
			sess, err := b.auth.InitFirstItem(p.Context, data)
			if err != nil {
				return nil, b.err(err)
			}
			return b.start(p.Context, sess)
		},
	}
	return nil
}

// start issues a session for sess and returns the success payload.
func (b *builder) start(ctx context.Context, sess session.Data) (any, error) {
	sc, ok := sessionFrom(ctx)
	if !ok {
		return nil, b.err(errNoSession)
	}
	token, err := sc.Start(sess)
	if err != nil {
		return nil, b.err(err)
	}
	item, err := b.auth.Item(ctx, sess)
	if err != nil {
		return nil, b.err(err)
	}
	return authSuccess{token: token, item: item}, nil
}
