package jsonapi

import (
	"fmt"
	"net/http"
	"strconv"
)

// ErrorBuilder assembles an Error.
type ErrorBuilder struct {
	err Error
}

// NewError starts an error. The title defaults to the status text.
func NewError(status int, code, title string) *ErrorBuilder {
	if title == "" {
		title = http.StatusText(status)
	}
	return &ErrorBuilder{err: Error{
		Status: strconv.Itoa(status),
		Code:   code,
		Title:  title,
	}}
}

func (b *ErrorBuilder) Detail(detail string) *ErrorBuilder {
	b.err.Detail = detail
	return b
}

// Pointer sets a JSON pointer into the request document.
func (b *ErrorBuilder) Pointer(ptr string) *ErrorBuilder {
	b.source().Pointer = ptr
	return b
}

// Attribute points the error at /data/attributes/<name>.
func (b *ErrorBuilder) Attribute(name string) *ErrorBuilder {
	return b.Pointer("/data/attributes/" + name)
}

// Parameter points the error at a query parameter.
func (b *ErrorBuilder) Parameter(name string) *ErrorBuilder {
	b.source().Parameter = name
	return b
}

func (b *ErrorBuilder) Meta(key string, value any) *ErrorBuilder {
	if b.err.Meta == nil {
		b.err.Meta = Meta{}
	}
	b.err.Meta[key] = value
	return b
}

func (b *ErrorBuilder) source() *ErrorSource {
	if b.err.Source == nil {
		b.err.Source = &ErrorSource{}
	}
	return b.err.Source
}

func (b *ErrorBuilder) Build() Error {
	return b.err
}

// StatusCode parses Status; it is 0 when Status is not a number.
func (e Error) StatusCode() int {
	code, _ := strconv.Atoi(e.Status)
	return code
}

func ErrBadRequest(detail string) Error {
	return NewError(http.StatusBadRequest, "bad_request", "").Detail(detail).Build()
}

func ErrUnauthorized(detail string) Error {
	if detail == "" {
		detail = "authentication required"
	}
	return NewError(http.StatusUnauthorized, "unauthorized", "").Detail(detail).Build()
}

func ErrForbidden(detail string) Error {
	if detail == "" {
		detail = "access denied"
	}
	return NewError(http.StatusForbidden, "forbidden", "").Detail(detail).Build()
}

// ErrNotFound names what was looked up, e.g. "item" or "page".
func ErrNotFound(what string) Error {
	return NewError(http.StatusNotFound, "not_found", "").
		Detail(fmt.Sprintf("%s not found", what)).
		Build()
}

func ErrInternal(detail string) Error {
	if detail == "" {
		detail = "an internal error occurred"
	}
	return NewError(http.StatusInternalServerError, "internal_error", "").Detail(detail).Build()
}

// ErrValidation reports one failed field constraint. rule is the
// constraint name (required, unique, length, ...).
func ErrValidation(field, rule, message string) Error {
	return NewError(http.StatusUnprocessableEntity, "validation_error", "Validation Failed").
		Detail(message).
		Attribute(field).
		Meta("rule", rule).
		Build()
}

// ErrRelationship reports a write that references a missing item or
// breaks relationship cardinality.
func ErrRelationship(field, detail string) Error {
	return NewError(http.StatusUnprocessableEntity, "relationship_error", "Relationship Error").
		Detail(detail).
		Attribute(field).
		Build()
}

// ErrLinkage reports malformed relationship linkage in a request document.
func ErrLinkage(name, detail string) Error {
	return NewError(http.StatusUnprocessableEntity, "validation_error", "Validation Failed").
		Detail(detail).
		Pointer("/data/relationships/" + name).
		Meta("rule", "relationship").
		Build()
}

// ErrHook reports a write rejected by a list hook.
func ErrHook(list, operation, detail string) Error {
	return NewError(http.StatusUnprocessableEntity, "hook_error", "Rejected By Hook").
		Detail(detail).
		Meta("list", list).
		Meta("operation", operation).
		Build()
}

// ErrInvalidParameter reports a malformed query parameter such as where,
// orderBy or page[size].
func ErrInvalidParameter(param, detail string) Error {
	return NewError(http.StatusBadRequest, "invalid_parameter", "Invalid Query Parameter").
		Detail(detail).
		Parameter(param).
		Build()
}
