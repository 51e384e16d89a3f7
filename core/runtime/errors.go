package runtime

import (
	"errors"
	"fmt"

	"github.com/artpar/contentgate/core/schema"
)

// InputError is returned for malformed arguments: unknown fields in a where
// filter, bad operators, ambiguous unique lookups.
type InputError struct {
	List    string
	Field   string
	Message string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.List, e.Message)
	}
	return fmt.Sprintf("%s.%s: %s", e.List, e.Field, e.Message)
}

// Extensions exposes the error to GraphQL clients.
func (e *InputError) Extensions() map[string]any {
	return map[string]any{
		"code":  "BAD_USER_INPUT",
		"list":  e.List,
		"field": e.Field,
	}
}

func inputErr(list, field, format string, args ...any) *InputError {
	return &InputError{List: list, Field: field, Message: fmt.Sprintf(format, args...)}
}

func isValidation(err error) bool {
	var ve *schema.ValidationError
	return errors.As(err, &ve)
}

func isHook(err error) bool {
	var he *HookError
	return errors.As(err, &he)
}
