// Package convention derives defaults from minimal list definitions.
// It applies naming conventions, implicit fields, and API names.
package convention

import (
	"strings"

	"github.com/artpar/contentgate/core/schema"
)

// Implicit field names present on every list.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Derived contains all derived information from a list definition.
// This is the fully-expanded form used by storage and the API channels.
type Derived struct {
	// Source is the original list definition.
	Source schema.List

	// Plural is the plural form of the list key, e.g. "Posts".
	Plural string

	// Table is the database table name, e.g. "posts".
	Table string

	// Fields contains all fields including implicit ones (id, created_at, updated_at).
	Fields []DerivedField

	// Lookups are field names that identify a single item (id + unique fields).
	Lookups []string

	// Names are the generated GraphQL names.
	Names Names
}

// DerivedField is a fully-derived field with all defaults applied.
type DerivedField struct {
	// Name of the field.
	Name string

	// Source is the original field definition (nil for implicit fields).
	Source *schema.Field

	// Kind is the resolved field kind. Implicit id fields have kind text,
	// implicit timestamps kind timestamp.
	Kind schema.Kind

	Unique     bool
	Indexed    bool
	Required   bool
	Filterable bool
	Orderable  bool

	// WriteOnly fields are never returned by reads.
	WriteOnly bool

	// Values for select fields.
	Values []string

	// Ref is the declared "List.field" of a relationship; Target is its
	// list key.
	Ref    string
	Target string

	// Many is set for to-many relationships.
	Many bool

	// Implicit indicates this is an auto-generated field.
	Implicit bool
}

// IsRelationship reports whether the field is a relationship.
func (f DerivedField) IsRelationship() bool {
	return f.Kind == schema.KindRelationship
}

// Names are the GraphQL type and operation names of a list.
type Names struct {
	Type           string // Post
	Item           string // post
	Items          string // posts
	Count          string // postsCount
	CreateOne      string // createPost
	CreateMany     string // createPosts
	UpdateOne      string // updatePost
	UpdateMany     string // updatePosts
	DeleteOne      string // deletePost
	DeleteMany     string // deletePosts
	WhereInput     string // PostWhereInput
	WhereUnique    string // PostWhereUniqueInput
	OrderByInput   string // PostOrderByInput
	CreateInput    string // PostCreateInput
	UpdateInput    string // PostUpdateInput
	UpdateArgs     string // PostUpdateArgs
	ManyFilter     string // PostManyRelationFilter
	ToOneCreate    string // PostRelateToOneForCreateInput
	ToOneUpdate    string // PostRelateToOneForUpdateInput
	ToManyCreate   string // PostRelateToManyForCreateInput
	ToManyUpdate   string // PostRelateToManyForUpdateInput
	RESTCollection string // posts
}

// Derive expands a list definition into a fully-derived form.
func Derive(list schema.List) Derived {
	plural := Pluralize(list.Key)
	d := Derived{
		Source: list,
		Plural: plural,
		Table:  strings.ToLower(plural),
	}

	d.Fields = deriveFields(list)
	d.Lookups = deriveLookups(d.Fields)
	d.Names = deriveNames(list.Key, plural)

	return d
}

// Field returns the named derived field.
func (d Derived) Field(name string) (DerivedField, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return DerivedField{}, false
}

// IsLookup reports whether name identifies a single item.
func (d Derived) IsLookup(name string) bool {
	for _, l := range d.Lookups {
		if l == name {
			return true
		}
	}
	return false
}

// deriveFields creates the full list of fields including implicit ones.
func deriveFields(list schema.List) []DerivedField {
	fields := make([]DerivedField, 0, len(list.Fields)+3)

	fields = append(fields, DerivedField{
		Name:       FieldID,
		Kind:       schema.KindText,
		Unique:     true,
		Indexed:    true,
		Filterable: true,
		Orderable:  true,
		Implicit:   true,
	})

	for i := range list.Fields {
		f := &list.Fields[i]
		field := DerivedField{
			Name:       f.Name,
			Source:     f,
			Kind:       f.Kind(),
			Unique:     f.IsUnique(),
			Indexed:    f.IsIndexed(),
			Required:   f.IsRequired(),
			Filterable: f.IsFilterable(),
			Orderable:  f.IsOrderable(),
			WriteOnly:  f.IsWriteOnly(),
		}
		switch c := f.Config.(type) {
		case schema.Select:
			field.Values = c.Values()
		case schema.Relationship:
			field.Ref = c.Ref
			field.Target, _ = schema.ParseRef(c.Ref)
			field.Many = c.Many
		}
		fields = append(fields, field)
	}

	for _, name := range []string{FieldCreatedAt, FieldUpdatedAt} {
		fields = append(fields, DerivedField{
			Name:       name,
			Kind:       schema.KindTimestamp,
			Filterable: true,
			Orderable:  true,
			Implicit:   true,
		})
	}

	return fields
}

// deriveLookups extracts all unique field names.
func deriveLookups(fields []DerivedField) []string {
	lookups := make([]string, 0, 2)

	for _, f := range fields {
		if f.Unique {
			lookups = append(lookups, f.Name)
		}
	}

	return lookups
}

func deriveNames(key, plural string) Names {
	item := LowerFirst(key)
	items := LowerFirst(plural)
	return Names{
		Type:           key,
		Item:           item,
		Items:          items,
		Count:          items + "Count",
		CreateOne:      "create" + key,
		CreateMany:     "create" + plural,
		UpdateOne:      "update" + key,
		UpdateMany:     "update" + plural,
		DeleteOne:      "delete" + key,
		DeleteMany:     "delete" + plural,
		WhereInput:     key + "WhereInput",
		WhereUnique:    key + "WhereUniqueInput",
		OrderByInput:   key + "OrderByInput",
		CreateInput:    key + "CreateInput",
		UpdateInput:    key + "UpdateInput",
		UpdateArgs:     key + "UpdateArgs",
		ManyFilter:     key + "ManyRelationFilter",
		ToOneCreate:    key + "RelateToOneForCreateInput",
		ToOneUpdate:    key + "RelateToOneForUpdateInput",
		ToManyCreate:   key + "RelateToManyForCreateInput",
		ToManyUpdate:   key + "RelateToManyForUpdateInput",
		RESTCollection: strings.ToLower(plural),
	}
}

// LowerFirst lower-cases the first letter of s.
func LowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// UpperFirst upper-cases the first letter of s.
func UpperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
