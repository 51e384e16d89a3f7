// Package validation provides field validation for item input.
// Validation is enforced by the runtime before storage operations.
package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/artpar/contentgate/core/convention"
	"github.com/artpar/contentgate/core/document"
	"github.com/artpar/contentgate/core/schema"
)

// MaxPasswordBytes is the longest secret bcrypt accepts.
const MaxPasswordBytes = 72

// Validator validates input data against list definitions.
type Validator struct {
	lists map[string]convention.Derived
}

// New creates a new validator for the given lists.
func New(lists ...convention.Derived) *Validator {
	v := &Validator{lists: make(map[string]convention.Derived, len(lists))}
	for _, l := range lists {
		v.lists[l.Source.Key] = l
	}
	return v
}

// ValidateCreate validates input data for a create operation.
// Returns a ValidationResult with all validation errors.
func (v *Validator) ValidateCreate(listKey string, data map[string]any) schema.ValidationResult {
	result := schema.ValidationResult{Valid: true}

	list, ok := v.lists[listKey]
	if !ok {
		result.AddError("_list", schema.RuleUnknownField, listKey, fmt.Sprintf("unknown list: %s", listKey))
		return result
	}

	checkUnknown(&result, list, data)

	for _, field := range list.Fields {
		if field.Implicit {
			continue
		}

		value, hasValue := data[field.Name]

		if field.Required {
			_, hasDefault := field.Source.DefaultValue(time.Time{})
			if (!hasValue && !hasDefault) || (hasValue && isBlank(value)) {
				result.AddError(field.Name, schema.RuleRequired, nil, "field is required")
				continue
			}
		}

		if !hasValue {
			continue
		}

		validateValue(&result, field, value)
	}

	return result
}

// ValidateUpdate validates input data for an update operation.
// Unlike create, update doesn't require all fields, but required fields
// cannot be cleared.
func (v *Validator) ValidateUpdate(listKey string, data map[string]any) schema.ValidationResult {
	result := schema.ValidationResult{Valid: true}

	list, ok := v.lists[listKey]
	if !ok {
		result.AddError("_list", schema.RuleUnknownField, listKey, fmt.Sprintf("unknown list: %s", listKey))
		return result
	}

	checkUnknown(&result, list, data)

	for _, field := range list.Fields {
		if field.Implicit {
			continue
		}
		value, hasValue := data[field.Name]
		if !hasValue {
			continue
		}
		if field.Required && isBlank(value) {
			result.AddError(field.Name, schema.RuleRequired, nil, "field is required")
			continue
		}
		validateValue(&result, field, value)
	}

	return result
}

// checkUnknown rejects fields the list does not declare, and implicit fields.
func checkUnknown(result *schema.ValidationResult, list convention.Derived, data map[string]any) {
	for name := range data {
		f, ok := list.Field(name)
		switch {
		case !ok:
			result.AddError(name, schema.RuleUnknownField, name,
				fmt.Sprintf("unknown field '%s' - not defined on %s", name, list.Source.Key))
		case f.Implicit:
			result.AddError(name, schema.RuleUnknownField, name,
				fmt.Sprintf("field '%s' is read-only", name))
		}
	}
}

func isBlank(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}

// validateValue checks a provided value against its field kind and options.
func validateValue(result *schema.ValidationResult, field convention.DerivedField, value any) {
	if field.Source == nil {
		return
	}

	switch c := field.Source.Config.(type) {
	case schema.Text:
		if value == nil {
			return
		}
		s, ok := value.(string)
		if !ok {
			result.AddError(field.Name, schema.RuleType, value, "must be a string")
			return
		}
		if err := schema.CheckLength(field.Name, s, c.Validation.Length); err != nil {
			result.Errors = append(result.Errors, *err)
			result.Valid = false
		}
		if err := schema.CheckMatch(field.Name, s, c.Validation.Match, c.Validation.MatchExplain); err != nil {
			result.Errors = append(result.Errors, *err)
			result.Valid = false
		}

	case schema.Password:
		if value == nil {
			return
		}
		s, ok := value.(string)
		if !ok {
			result.AddError(field.Name, schema.RuleType, nil, "must be a string")
			return
		}
		if err := schema.CheckLength(field.Name, s, c.Validation.Length); err != nil {
			// Never echo the secret back.
			err.Value = nil
			result.Errors = append(result.Errors, *err)
			result.Valid = false
			return
		}
		if len(s) > MaxPasswordBytes {
			result.AddError(field.Name, schema.RuleLength, nil,
				fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes))
		}

	case schema.Timestamp:
		if value == nil {
			return
		}
		if _, err := ParseTimestamp(value); err != nil {
			result.AddError(field.Name, schema.RuleType, value, "must be an RFC 3339 timestamp")
		}

	case schema.Checkbox:
		if _, ok := value.(bool); !ok {
			result.AddError(field.Name, schema.RuleType, value, "must be a boolean")
		}

	case schema.Select:
		if value == nil {
			return
		}
		s, ok := value.(string)
		if !ok {
			result.AddError(field.Name, schema.RuleType, value, "must be a string")
			return
		}
		if err := schema.CheckOneOf(field.Name, s, c.Values()); err != nil {
			result.Errors = append(result.Errors, *err)
			result.Valid = false
		}

	case schema.Document:
		if _, err := document.Normalize(value, c); err != nil {
			result.AddError(field.Name, schema.RuleDocument, nil, err.Error())
		}

	case schema.Relationship:
		if _, ok := value.(map[string]any); !ok {
			result.AddError(field.Name, schema.RuleType, nil,
				"must be a relationship input such as {\"connect\": ...}")
		}
	}
}

// ParseTimestamp converts a timestamp input into UTC time.
func ParseTimestamp(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v))
		if err != nil {
			return time.Time{}, err
		}
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp value %T", value)
}

// ValidateField validates a single field value against its definition.
func ValidateField(field convention.DerivedField, value any) schema.ValidationResult {
	result := schema.ValidationResult{Valid: true}

	if isBlank(value) && field.Required {
		result.AddError(field.Name, schema.RuleRequired, nil, "field is required")
		return result
	}

	validateValue(&result, field, value)
	return result
}
