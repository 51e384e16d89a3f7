package jsonapi

import (
	"encoding/json"
	"net/http"
)

// Write encodes doc with the JSON:API content type.
func Write(w http.ResponseWriter, status int, doc Document) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(doc)
}

// WriteResource writes a single item.
func WriteResource(w http.ResponseWriter, status int, r Resource) {
	Write(w, status, NewDocument().Resource(r).Build())
}

// WriteCreated writes 201 with a Location header pointing at the item.
func WriteCreated(w http.ResponseWriter, r Resource) {
	if r.Links != nil && r.Links.Self != "" {
		w.Header().Set("Location", r.Links.Self)
	}
	WriteResource(w, http.StatusCreated, r)
}

// WriteCollection writes one page of items.
func WriteCollection(w http.ResponseWriter, rs []Resource, p Page) {
	Write(w, http.StatusOK, NewDocument().Collection(rs).Page(p).Build())
}

// WriteMeta writes a meta-only document.
func WriteMeta(w http.ResponseWriter, status int, meta Meta) {
	Write(w, status, Document{Meta: meta})
}

// WriteNoContent writes 204.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError writes errs with the status of the first one.
func WriteError(w http.ResponseWriter, errs ...Error) {
	if len(errs) == 0 {
		errs = []Error{ErrInternal("")}
	}
	status := errs[0].StatusCode()
	if status == 0 {
		status = http.StatusInternalServerError
	}
	Write(w, status, NewDocument().Errors(errs...).Build())
}

func WriteBadRequest(w http.ResponseWriter, detail string) {
	WriteError(w, ErrBadRequest(detail))
}

func WriteUnauthorized(w http.ResponseWriter, detail string) {
	WriteError(w, ErrUnauthorized(detail))
}

func WriteForbidden(w http.ResponseWriter, detail string) {
	WriteError(w, ErrForbidden(detail))
}

// WriteNotFound reports that the named thing does not exist.
func WriteNotFound(w http.ResponseWriter, what string) {
	WriteError(w, ErrNotFound(what))
}

// WriteInternalError never leaks the cause; log it before calling.
func WriteInternalError(w http.ResponseWriter, detail string) {
	WriteError(w, ErrInternal(detail))
}
