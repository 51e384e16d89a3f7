package schema

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Rule names reported in ConstraintError.Constraint.
const (
	RuleRequired     = "required"
	RuleUnique       = "unique"
	RuleLength       = "length"
	RuleMatch        = "match"
	RuleOneOf        = "one_of"
	RuleType         = "type"
	RuleUnknownField = "unknown_field"
	RuleDocument     = "document"
)

// ConstraintError represents a validation failure on one field.
type ConstraintError struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
	Value      any    `json:"value,omitempty"`
	Message    string `json:"message"`
}

func (e ConstraintError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult holds all validation errors for a request.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ConstraintError `json:"errors,omitempty"`
}

// AddError adds a validation error.
func (r *ValidationResult) AddError(field, constraint string, value any, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, ConstraintError{
		Field:      field,
		Constraint: constraint,
		Value:      value,
		Message:    message,
	})
}

// Error returns a combined error message.
func (r ValidationResult) Error() string {
	if r.Valid {
		return ""
	}
	var msgs []string
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Err returns the result as a *ValidationError for list, or nil when valid.
func (r ValidationResult) Err(list string) error {
	if r.Valid || len(r.Errors) == 0 {
		return nil
	}
	return &ValidationError{List: list, Errors: r.Errors}
}

// ValidationError is returned when a write violates a field rule
// (missing required value, uniqueness, option membership, ...).
type ValidationError struct {
	List   string
	Errors []ConstraintError
}

// NewValidationError builds a single-field validation error.
func NewValidationError(list, field, rule, message string) *ValidationError {
	return &ValidationError{
		List:   list,
		Errors: []ConstraintError{{Field: field, Constraint: rule, Message: message}},
	}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ce := range e.Errors {
		msgs[i] = ce.Error()
	}
	return fmt.Sprintf("validation failed for %s: %s", e.List, strings.Join(msgs, "; "))
}

// Field returns the first offending field.
func (e *ValidationError) Field() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].Field
}

// Rule returns the first violated rule.
func (e *ValidationError) Rule() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].Constraint
}

// Extensions exposes the error to GraphQL clients.
func (e *ValidationError) Extensions() map[string]any {
	return map[string]any{
		"code":   "VALIDATION_FAILURE",
		"list":   e.List,
		"field":  e.Field(),
		"rule":   e.Rule(),
		"errors": e.Errors,
	}
}

// CheckLength validates a string against length bounds. This is a PURE function.
func CheckLength(field, value string, l Length) *ConstraintError {
	n := utf8.RuneCountInString(value)
	if l.Min > 0 && n < l.Min {
		return &ConstraintError{Field: field, Constraint: RuleLength, Value: n,
			Message: fmt.Sprintf("must be at least %d characters", l.Min)}
	}
	if l.Max > 0 && n > l.Max {
		return &ConstraintError{Field: field, Constraint: RuleLength, Value: n,
			Message: fmt.Sprintf("must be at most %d characters", l.Max)}
	}
	return nil
}

// CheckMatch validates a string against a regular expression.
func CheckMatch(field, value, pattern, explain string) *ConstraintError {
	if pattern == "" {
		return nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil // rejected when the list is validated
	}
	if re.MatchString(value) {
		return nil
	}
	msg := explain
	if msg == "" {
		msg = "does not match required pattern"
	}
	return &ConstraintError{Field: field, Constraint: RuleMatch, Value: value, Message: msg}
}

// CheckOneOf validates membership in a set of allowed values.
func CheckOneOf(field, value string, allowed []string) *ConstraintError {
	for _, a := range allowed {
		if a == value {
			return nil
		}
	}
	return &ConstraintError{Field: field, Constraint: RuleOneOf, Value: value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", "))}
}
