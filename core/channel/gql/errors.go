package gql

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/artpar/contentgate/app"
	"github.com/artpar/contentgate/core/runtime"
)

// Error is a resolver error with GraphQL extensions.
type Error struct {
	Message string
	Ext     map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

// Extensions exposes the error code and context to clients.
func (e *Error) Extensions() map[string]any {
	return e.Ext
}

type extended interface {
	error
	Extensions() map[string]any
}

// toError converts an error for clients. Errors without a client-facing
// shape are logged and reported as internal.
func toError(logger zerolog.Logger, err error) error {
	var ext extended
	switch {
	case errors.As(err, &ext):
		return &Error{Message: ext.Error(), Ext: ext.Extensions()}
	case errors.Is(err, runtime.ErrNotFound):
		return &Error{Message: "item not found", Ext: map[string]any{"code": "NOT_FOUND"}}
	case errors.Is(err, app.ErrInitFirstItemDisabled):
		return &Error{Message: err.Error(), Ext: map[string]any{"code": "FORBIDDEN"}}
	case errors.Is(err, errNoSession):
		return &Error{Message: err.Error(), Ext: map[string]any{"code": "UNAUTHENTICATED"}}
	}
	logger.Error().Err(err).Msg("resolver failed")
	return &Error{Message: "internal server error", Ext: map[string]any{"code": "INTERNAL_SERVER_ERROR"}}
}
