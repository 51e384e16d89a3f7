package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/artpar/contentgate/app"
	"github.com/artpar/contentgate/core/runtime"
	"github.com/artpar/contentgate/core/schema"
	"github.com/artpar/contentgate/core/storage"
	"github.com/artpar/contentgate/pkg/jsonapi"
)

// writeErr maps runtime and auth errors to JSON:API error responses.
// Unknown errors are logged and reported without detail.
func (c *Channel) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *schema.ValidationError
		relation   *storage.RelationshipError
		input      *runtime.InputError
		hook       *runtime.HookError
	)
	switch {
	case errors.As(err, &validation):
		errs := make([]jsonapi.Error, len(validation.Errors))
		for i, ce := range validation.Errors {
			errs[i] = jsonapi.ErrValidation(ce.Field, ce.Constraint, ce.Message)
		}
		jsonapi.WriteError(w, errs...)
	case errors.As(err, &relation):
		jsonapi.WriteError(w, jsonapi.ErrRelationship(relation.Field, relation.Error()))
	case errors.As(err, &input):
		jsonapi.WriteBadRequest(w, input.Error())
	case errors.As(err, &hook):
		jsonapi.WriteError(w, jsonapi.ErrHook(hook.List, hook.Operation, hook.Err.Error()))
	case errors.Is(err, runtime.ErrNotFound):
		jsonapi.WriteNotFound(w, "item")
	case errors.Is(err, app.ErrInvalidCredentials):
		jsonapi.WriteUnauthorized(w, app.ErrInvalidCredentials.Error())
	case errors.Is(err, app.ErrInitFirstItemDisabled):
		jsonapi.WriteForbidden(w, app.ErrInitFirstItemDisabled.Error())
	default:
		c.logger.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		jsonapi.WriteInternalError(w, "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
