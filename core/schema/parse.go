package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// listDoc is the YAML shape of a list definition.
type listDoc struct {
	Key    string    `yaml:"list"`
	Fields yaml.Node `yaml:"fields"`
	UI     ListUI    `yaml:"ui,omitempty"`
}

// ParseFile parses a list definition from a YAML file.
func ParseFile(path string) (List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return List{}, fmt.Errorf("read file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses a list definition from YAML bytes.
func Parse(data []byte) (List, error) {
	var doc listDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return List{}, fmt.Errorf("parse yaml: %w", err)
	}

	fields, err := decodeFields(&doc.Fields)
	if err != nil {
		return List{}, fmt.Errorf("list %q: %w", doc.Key, err)
	}

	list := List{Key: doc.Key, Fields: fields, UI: doc.UI}
	if err := Validate(list); err != nil {
		return List{}, fmt.Errorf("validate list %q: %w", list.Key, err)
	}

	return list, nil
}

// decodeFields decodes the fields mapping, keeping declaration order.
func decodeFields(node *yaml.Node) ([]Field, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("fields must be a mapping")
	}

	fields := make([]Field, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		cfg, err := decodeFieldConfig(node.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		fields = append(fields, Field{Name: name, Config: cfg})
	}
	return fields, nil
}

func decodeFieldConfig(node *yaml.Node) (FieldConfig, error) {
	var head struct {
		Type Kind `yaml:"type"`
	}
	if err := node.Decode(&head); err != nil {
		return nil, err
	}

	var (
		cfg FieldConfig
		err error
	)
	switch head.Type {
	case KindText:
		var c Text
		err = node.Decode(&c)
		cfg = c
	case KindPassword:
		var c Password
		err = node.Decode(&c)
		cfg = c
	case KindTimestamp:
		var c Timestamp
		err = node.Decode(&c)
		cfg = c
	case KindCheckbox:
		var c Checkbox
		err = node.Decode(&c)
		cfg = c
	case KindSelect:
		var c Select
		err = node.Decode(&c)
		cfg = c
	case KindDocument:
		var c Document
		err = node.Decode(&c)
		cfg = c
	case KindRelationship:
		var c Relationship
		err = node.Decode(&c)
		cfg = c
	case "":
		return nil, fmt.Errorf("type is required")
	default:
		return nil, fmt.Errorf("unknown type %q", head.Type)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseDir parses all list definitions from a directory, including subdirectories.
func ParseDir(dir string) ([]List, error) {
	var lists []List

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			sub, err := ParseDir(path)
			if err != nil {
				return nil, err
			}
			lists = append(lists, sub...)
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		list, err := ParseFile(path)
		if err != nil {
			return nil, err
		}

		lists = append(lists, list)
	}

	return lists, nil
}

// reservedFields are derived for every list and cannot be declared.
var reservedFields = map[string]bool{"id": true, "created_at": true, "updated_at": true}

// Validate validates a list definition in isolation. Cross-list references
// are checked by the registry.
func Validate(list List) error {
	var errs []string

	if list.Key == "" {
		errs = append(errs, "list key is required")
	} else if !isValidIdentifier(list.Key) {
		errs = append(errs, fmt.Sprintf("list key %q is not a valid identifier", list.Key))
	}

	if len(list.Fields) == 0 {
		errs = append(errs, "list must have at least one field")
	}

	seen := make(map[string]bool, len(list.Fields))
	for _, field := range list.Fields {
		if !isValidIdentifier(field.Name) {
			errs = append(errs, fmt.Sprintf("field name %q is not a valid identifier", field.Name))
		}
		if reservedFields[field.Name] {
			errs = append(errs, fmt.Sprintf("field name %q is reserved", field.Name))
		}
		if seen[field.Name] {
			errs = append(errs, fmt.Sprintf("field %q declared twice", field.Name))
		}
		seen[field.Name] = true

		if err := validateField(field); err != nil {
			errs = append(errs, err.Error())
		}
	}

	for _, col := range list.UI.ListView.InitialColumns {
		if col != "id" && !seen[col] {
			errs = append(errs, fmt.Sprintf("ui.list_view.initial_columns: unknown field %q", col))
		}
	}
	if lf := list.UI.LabelField; lf != "" && !seen[lf] {
		errs = append(errs, fmt.Sprintf("ui.label_field: unknown field %q", lf))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// validateField validates a single field definition.
func validateField(f Field) error {
	switch c := f.Config.(type) {
	case nil:
		return fmt.Errorf("field %q: missing type", f.Name)
	case Text:
		if err := validateIndex(f.Name, c.IsIndexed); err != nil {
			return err
		}
		if err := validateLength(f.Name, c.Validation.Length); err != nil {
			return err
		}
		if c.Validation.Match != "" {
			if _, err := regexp.Compile(c.Validation.Match); err != nil {
				return fmt.Errorf("field %q: invalid match pattern: %w", f.Name, err)
			}
		}
	case Password:
		if err := validateLength(f.Name, c.Validation.Length); err != nil {
			return err
		}
	case Timestamp:
		if err := validateIndex(f.Name, c.IsIndexed); err != nil {
			return err
		}
		if c.DefaultValue != "" && c.DefaultValue != DefaultNow {
			if _, ok := f.DefaultValue(time.Time{}); !ok {
				return fmt.Errorf("field %q: default must be RFC 3339 or %q", f.Name, DefaultNow)
			}
		}
	case Select:
		if err := validateIndex(f.Name, c.IsIndexed); err != nil {
			return err
		}
		if len(c.Options) == 0 {
			return fmt.Errorf("field %q: select requires options", f.Name)
		}
		values := make(map[string]bool, len(c.Options))
		for _, o := range c.Options {
			if o.Value == "" {
				return fmt.Errorf("field %q: option values must not be empty", f.Name)
			}
			if values[o.Value] {
				return fmt.Errorf("field %q: duplicate option %q", f.Name, o.Value)
			}
			values[o.Value] = true
		}
		if c.DefaultValue != nil && !values[*c.DefaultValue] {
			return fmt.Errorf("field %q: default %q is not a valid option", f.Name, *c.DefaultValue)
		}
		switch c.UI.DisplayMode {
		case "", "select", "segmented-control", "radio":
		default:
			return fmt.Errorf("field %q: unknown display mode %q", f.Name, c.UI.DisplayMode)
		}
	case Document:
		for i, layout := range c.Layouts {
			if len(layout) == 0 {
				return fmt.Errorf("field %q: layout %d is empty", f.Name, i)
			}
			for _, ratio := range layout {
				if ratio <= 0 {
					return fmt.Errorf("field %q: layout %d has a non-positive ratio", f.Name, i)
				}
			}
		}
	case Relationship:
		if c.Ref == "" {
			return fmt.Errorf("field %q: relationship requires ref", f.Name)
		}
		list, field, _ := strings.Cut(c.Ref, ".")
		if !isValidIdentifier(list) || (field != "" && !isValidIdentifier(field)) {
			return fmt.Errorf("field %q: invalid ref %q", f.Name, c.Ref)
		}
		switch c.UI.DisplayMode {
		case "", "select", "cards", "count":
		default:
			return fmt.Errorf("field %q: unknown display mode %q", f.Name, c.UI.DisplayMode)
		}
	}
	return nil
}

func validateIndex(name string, idx Index) error {
	switch idx {
	case IndexNone, IndexPlain, IndexUnique:
		return nil
	}
	return fmt.Errorf("field %q: is_indexed must be %q or %q", name, IndexPlain, IndexUnique)
}

func validateLength(name string, l Length) error {
	if l.Min < 0 || l.Max < 0 {
		return fmt.Errorf("field %q: length bounds must not be negative", name)
	}
	if l.Max > 0 && l.Min > l.Max {
		return fmt.Errorf("field %q: length min %d exceeds max %d", name, l.Min, l.Max)
	}
	return nil
}

// ParseRef splits a relationship ref into list key and field name.
// The field is empty for one-sided refs.
func ParseRef(ref string) (list, field string) {
	list, field, _ = strings.Cut(ref, ".")
	return list, field
}

// isValidIdentifier checks if a string is a valid identifier.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, c := range s {
		if i == 0 {
			if !isLetter(c) && c != '_' {
				return false
			}
		} else {
			if !isLetter(c) && !isDigit(c) && c != '_' {
				return false
			}
		}
	}

	return true
}

func isLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}
