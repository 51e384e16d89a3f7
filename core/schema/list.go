package schema

// List is the definition of a named entity type.
type List struct {
	// Key is the list key, e.g. "Post". Table and API names derive from it.
	Key string

	// Fields in declaration order.
	Fields []Field

	UI ListUI
}

// ListUI holds admin hints for a list.
type ListUI struct {
	ListView   ListView `yaml:"list_view,omitempty" json:"listView"`
	IsHidden   bool     `yaml:"is_hidden,omitempty" json:"isHidden"`
	LabelField string   `yaml:"label_field,omitempty" json:"labelField,omitempty"`
}

// ListView configures the admin list page.
type ListView struct {
	InitialColumns []string `yaml:"initial_columns,omitempty" json:"initialColumns,omitempty"`
}

// Field returns the named field.
func (l List) Field(name string) (Field, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Label returns the field used to label items: the configured label field,
// else "name" or "title" when present, else "id".
func (l List) Label() string {
	if l.UI.LabelField != "" {
		return l.UI.LabelField
	}
	for _, candidate := range []string{"name", "title"} {
		if f, ok := l.Field(candidate); ok && f.Kind() == KindText {
			return candidate
		}
	}
	return "id"
}

// NewList builds a list from fields in order.
func NewList(key string, fields ...Field) List {
	return List{Key: key, Fields: fields}
}

// WithUI returns a copy of the list with admin hints set.
func (l List) WithUI(ui ListUI) List {
	l.UI = ui
	return l
}

// F is shorthand for a named field.
func F(name string, cfg FieldConfig) Field {
	return Field{Name: name, Config: cfg}
}
