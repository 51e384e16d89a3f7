package gql

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds GraphQL request bodies.
const maxBodyBytes = 1 << 20

// Request is a GraphQL request body.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

// Handler serves GraphQL over GET and POST. GET only runs queries so a
// cross-site link carrying the session cookie cannot mutate anything.
type Handler struct {
	schema graphql.Schema
	logger zerolog.Logger
}

// NewHandler creates a handler for s.
func NewHandler(s graphql.Schema, logger zerolog.Logger) *Handler {
	return &Handler{schema: s, logger: logger.With().Str("component", "graphql").Logger()}
}

// Execute runs a request against the schema.
func (h *Handler) Execute(ctx context.Context, req Request) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if v := q.Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
				writeError(w, http.StatusBadRequest, "variables must be a JSON object")
				return
			}
		}
	case http.MethodPost:
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if r.Method == http.MethodGet && !queryOnly(req.Query, req.OperationName) {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "mutations must be sent with POST")
		return
	}

	result := h.Execute(r.Context(), req)
	if result.HasErrors() {
		h.logger.Debug().Int("errors", len(result.Errors)).Str("operation", req.OperationName).Msg("graphql request had errors")
	}
	writeJSON(w, http.StatusOK, result)
}

// queryOnly reports whether the operation that would run is a query.
// Documents that fail to parse pass through so execution reports the
// syntax error.
func queryOnly(query, operationName string) bool {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return true
	}
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if operationName != "" && (op.Name == nil || op.Name.Value != operationName) {
			continue
		}
		if op.Operation != ast.OperationTypeQuery {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"errors": []map[string]any{{
			"message":    message,
			"extensions": map[string]any{"code": "BAD_REQUEST"},
		}},
	})
}
