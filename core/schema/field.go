package schema

import "time"

// Kind identifies a field kind.
type Kind string

const (
	KindText         Kind = "text"
	KindPassword     Kind = "password"
	KindTimestamp    Kind = "timestamp"
	KindCheckbox     Kind = "checkbox"
	KindSelect       Kind = "select"
	KindDocument     Kind = "document"
	KindRelationship Kind = "relationship"
)

// Index is the indexing mode of a field.
type Index string

const (
	IndexNone   Index = ""
	IndexPlain  Index = "index"
	IndexUnique Index = "unique"
)

// Field is a named field of a list. Config holds the kind-specific options.
type Field struct {
	Name   string
	Config FieldConfig
}

// FieldConfig is implemented by the option structs of each field kind.
// The set of implementations is closed.
type FieldConfig interface {
	Kind() Kind
	sealed()
}

// Kind returns the kind of the field.
func (f Field) Kind() Kind {
	if f.Config == nil {
		return ""
	}
	return f.Config.Kind()
}

// TextValidation configures text validation.
type TextValidation struct {
	IsRequired bool   `yaml:"is_required,omitempty"`
	Length     Length `yaml:"length,omitempty"`
	// Match is a regular expression the value must match.
	Match        string `yaml:"match,omitempty"`
	MatchExplain string `yaml:"match_explanation,omitempty"`
}

// Length bounds a string length. Zero means unbounded.
type Length struct {
	Min int `yaml:"min,omitempty"`
	Max int `yaml:"max,omitempty"`
}

// Text is a text field.
type Text struct {
	Validation   TextValidation `yaml:"validation,omitempty"`
	IsIndexed    Index          `yaml:"is_indexed,omitempty"`
	IsFilterable *bool          `yaml:"is_filterable,omitempty"`
	DefaultValue *string        `yaml:"default_value,omitempty"`
	UI           TextUI         `yaml:"ui,omitempty"`
}

// TextUI holds admin hints for text fields.
type TextUI struct {
	DisplayMode string `yaml:"display_mode,omitempty"` // "input" or "textarea"
}

// PasswordValidation configures password validation.
type PasswordValidation struct {
	IsRequired bool   `yaml:"is_required,omitempty"`
	Length     Length `yaml:"length,omitempty"`
}

// Password is a write-only secret field stored as a one-way hash.
type Password struct {
	Validation PasswordValidation `yaml:"validation,omitempty"`
}

// PasswordState is what read operations expose for a password field.
type PasswordState struct {
	IsSet bool `json:"isSet"`
}

// RequiredValidation is the validation block of kinds that only support is_required.
type RequiredValidation struct {
	IsRequired bool `yaml:"is_required,omitempty"`
}

// Timestamp is a date/time field.
type Timestamp struct {
	Validation RequiredValidation `yaml:"validation,omitempty"`
	// DefaultValue is an RFC 3339 timestamp or "now".
	DefaultValue string `yaml:"default_value,omitempty"`
	IsIndexed    Index  `yaml:"is_indexed,omitempty"`
	IsFilterable *bool  `yaml:"is_filterable,omitempty"`
}

// DefaultNow is the Timestamp default that resolves to the write time.
const DefaultNow = "now"

// Checkbox is a boolean field.
type Checkbox struct {
	DefaultValue bool  `yaml:"default_value,omitempty"`
	IsFilterable *bool `yaml:"is_filterable,omitempty"`
}

// SelectOption is one allowed value of a select field.
type SelectOption struct {
	Label string `yaml:"label" json:"label"`
	Value string `yaml:"value" json:"value"`
}

// Select is an enumerated field.
type Select struct {
	Options      []SelectOption     `yaml:"options"`
	DefaultValue *string            `yaml:"default_value,omitempty"`
	Validation   RequiredValidation `yaml:"validation,omitempty"`
	IsIndexed    Index              `yaml:"is_indexed,omitempty"`
	IsFilterable *bool              `yaml:"is_filterable,omitempty"`
	UI           SelectUI           `yaml:"ui,omitempty"`
}

// SelectUI holds admin hints for select fields.
type SelectUI struct {
	DisplayMode string `yaml:"display_mode,omitempty"` // "select", "segmented-control" or "radio"
}

// Values returns the option values in declaration order.
func (s Select) Values() []string {
	out := make([]string, len(s.Options))
	for i, o := range s.Options {
		out[i] = o.Value
	}
	return out
}

// Document is a rich document field.
type Document struct {
	Formatting bool    `yaml:"formatting,omitempty"`
	Layouts    [][]int `yaml:"layouts,omitempty"`
	Links      bool    `yaml:"links,omitempty"`
	Dividers   bool    `yaml:"dividers,omitempty"`
}

// Relationship is an edge to another list.
type Relationship struct {
	// Ref is "List" or "List.field".
	Ref  string         `yaml:"ref"`
	Many bool           `yaml:"many,omitempty"`
	UI   RelationshipUI `yaml:"ui,omitempty"`
}

// RelationshipUI holds admin hints for relationship fields.
type RelationshipUI struct {
	DisplayMode   string       `yaml:"display_mode,omitempty" json:"displayMode,omitempty"` // "select", "cards" or "count"
	CardFields    []string     `yaml:"card_fields,omitempty" json:"cardFields,omitempty"`
	LinkToItem    bool         `yaml:"link_to_item,omitempty" json:"linkToItem,omitempty"`
	InlineConnect bool         `yaml:"inline_connect,omitempty" json:"inlineConnect,omitempty"`
	InlineEdit    *InlineScope `yaml:"inline_edit,omitempty" json:"inlineEdit,omitempty"`
	InlineCreate  *InlineScope `yaml:"inline_create,omitempty" json:"inlineCreate,omitempty"`
}

// InlineScope lists the fields shown by an inline edit or create form.
type InlineScope struct {
	Fields []string `yaml:"fields" json:"fields"`
}

func (Text) Kind() Kind         { return KindText }
func (Password) Kind() Kind     { return KindPassword }
func (Timestamp) Kind() Kind    { return KindTimestamp }
func (Checkbox) Kind() Kind     { return KindCheckbox }
func (Select) Kind() Kind       { return KindSelect }
func (Document) Kind() Kind     { return KindDocument }
func (Relationship) Kind() Kind { return KindRelationship }

func (Text) sealed()         {}
func (Password) sealed()     {}
func (Timestamp) sealed()    {}
func (Checkbox) sealed()     {}
func (Select) sealed()       {}
func (Document) sealed()     {}
func (Relationship) sealed() {}

// IsRequired returns whether a value must be provided on create.
func (f Field) IsRequired() bool {
	switch c := f.Config.(type) {
	case Text:
		return c.Validation.IsRequired
	case Password:
		return c.Validation.IsRequired
	case Timestamp:
		return c.Validation.IsRequired
	case Select:
		return c.Validation.IsRequired
	}
	return false
}

// IsUnique returns whether values must be unique across the list.
func (f Field) IsUnique() bool {
	return f.index() == IndexUnique
}

// IsIndexed returns whether the field has a database index.
func (f Field) IsIndexed() bool {
	return f.index() != IndexNone
}

func (f Field) index() Index {
	switch c := f.Config.(type) {
	case Text:
		return c.IsIndexed
	case Timestamp:
		return c.IsIndexed
	case Select:
		return c.IsIndexed
	}
	return IndexNone
}

// IsFilterable returns whether the field can appear in where filters.
// Fields are filterable unless disabled; passwords and documents never are.
func (f Field) IsFilterable() bool {
	var flag *bool
	switch c := f.Config.(type) {
	case Password, Document:
		return false
	case Text:
		flag = c.IsFilterable
	case Timestamp:
		flag = c.IsFilterable
	case Checkbox:
		flag = c.IsFilterable
	case Select:
		flag = c.IsFilterable
	case Relationship:
		return true
	}
	return flag == nil || *flag
}

// IsOrderable returns whether items can be ordered by the field.
func (f Field) IsOrderable() bool {
	switch f.Config.(type) {
	case Text, Timestamp, Checkbox, Select:
		return true
	}
	return false
}

// IsWriteOnly returns whether the field value is never returned by reads.
func (f Field) IsWriteOnly() bool {
	return f.Kind() == KindPassword
}

// DefaultValue returns the value applied on create when none is given.
// The bool reports whether the field has a default.
func (f Field) DefaultValue(now time.Time) (any, bool) {
	switch c := f.Config.(type) {
	case Text:
		if c.DefaultValue != nil {
			return *c.DefaultValue, true
		}
	case Checkbox:
		return c.DefaultValue, true
	case Select:
		if c.DefaultValue != nil {
			return *c.DefaultValue, true
		}
	case Timestamp:
		if c.DefaultValue == DefaultNow {
			return now.UTC(), true
		}
		if c.DefaultValue != "" {
			t, err := time.Parse(time.RFC3339, c.DefaultValue)
			if err == nil {
				return t.UTC(), true
			}
		}
	}
	return nil, false
}

// Relationship returns the relationship options and true for relationship fields.
func (f Field) Relationship() (Relationship, bool) {
	r, ok := f.Config.(Relationship)
	return r, ok
}

// Bool returns a pointer to b, for optional flags.
func Bool(b bool) *bool {
	return &b
}

// String returns a pointer to s, for optional defaults.
func String(s string) *string {
	return &s
}
