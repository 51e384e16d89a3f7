package gql

import (
	"encoding/json"
	"strconv"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"

	"github.com/artpar/contentgate/core/schema"
)

// JSON carries arbitrary JSON values, used by document fields.
var JSON = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "JSON",
	Description: "The `JSON` scalar type represents JSON values as specified by ECMA-404",
	Serialize:   serializeJSON,
	ParseValue:  func(v any) any { return v },
	ParseLiteral: func(v ast.Value) any {
		return literal(v)
	},
})

func serializeJSON(v any) any {
	switch val := v.(type) {
	case json.RawMessage:
		var out any
		if err := json.Unmarshal(val, &out); err != nil {
			return nil
		}
		return out
	case []byte:
		var out any
		if err := json.Unmarshal(val, &out); err != nil {
			return nil
		}
		return out
	}
	return v
}

// literal converts an inline GraphQL value into its JSON equivalent.
func literal(v ast.Value) any {
	switch val := v.(type) {
	case *ast.StringValue:
		return val.Value
	case *ast.BooleanValue:
		return val.Value
	case *ast.IntValue:
		n, err := strconv.ParseFloat(val.Value, 64)
		if err != nil {
			return nil
		}
		return n
	case *ast.FloatValue:
		n, err := strconv.ParseFloat(val.Value, 64)
		if err != nil {
			return nil
		}
		return n
	case *ast.EnumValue:
		return val.Value
	case *ast.ListValue:
		out := make([]any, len(val.Values))
		for i, item := range val.Values {
			out[i] = literal(item)
		}
		return out
	case *ast.ObjectValue:
		out := make(map[string]any, len(val.Fields))
		for _, f := range val.Fields {
			out[f.Name.Value] = literal(f.Value)
		}
		return out
	}
	return nil
}

// PasswordState is what reads expose for password fields.
var PasswordState = graphql.NewObject(graphql.ObjectConfig{
	Name: "PasswordState",
	Fields: graphql.Fields{
		"isSet": &graphql.Field{
			Type: graphql.NewNonNull(graphql.Boolean),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				st, _ := p.Source.(schema.PasswordState)
				return st.IsSet, nil
			},
		},
	},
})

var orderDirection = graphql.NewEnum(graphql.EnumConfig{
	Name: "OrderDirection",
	Values: graphql.EnumValueConfigMap{
		"asc":  &graphql.EnumValueConfig{Value: "asc"},
		"desc": &graphql.EnumValueConfig{Value: "desc"},
	},
})

var queryMode = graphql.NewEnum(graphql.EnumConfig{
	Name: "QueryMode",
	Values: graphql.EnumValueConfigMap{
		"default":     &graphql.EnumValueConfig{Value: "default"},
		"insensitive": &graphql.EnumValueConfig{Value: "insensitive"},
	},
})
