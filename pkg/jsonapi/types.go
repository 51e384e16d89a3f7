// Package jsonapi renders content items as JSON:API documents
// (https://jsonapi.org). Only the parts the content API speaks are
// modelled: single and collection data, relationship linkage with related
// links, page-based pagination and error objects.
package jsonapi

import "encoding/json"

// ContentType is the media type of every document written by this package.
const ContentType = "application/vnd.api+json"

// Meta is free-form metadata.
type Meta map[string]any

// Document is a top-level document. Use NewDocument to build one; the zero
// value omits data entirely, which is only valid for meta or error documents.
type Document struct {
	Data   any
	Errors []Error
	Meta   Meta
	Links  *Links

	// hasData distinguishes "data": null from no data member.
	hasData bool
}

// MarshalJSON writes data whenever it was set, including null for an empty
// to-one relationship.
func (d Document) MarshalJSON() ([]byte, error) {
	out := struct {
		Data   *json.RawMessage `json:"data,omitempty"`
		Errors []Error          `json:"errors,omitempty"`
		Meta   Meta             `json:"meta,omitempty"`
		Links  *Links           `json:"links,omitempty"`
	}{Errors: d.Errors, Meta: d.Meta, Links: d.Links}

	if d.hasData && d.Errors == nil {
		raw, err := json.Marshal(d.Data)
		if err != nil {
			return nil, err
		}
		msg := json.RawMessage(raw)
		out.Data = &msg
	}
	return json.Marshal(out)
}

// Resource is one item.
type Resource struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id"`
	Attributes    map[string]any          `json:"attributes"`
	Relationships map[string]Relationship `json:"relationships,omitempty"`
	Links         *Links                  `json:"links,omitempty"`
}

// Identifier is relationship linkage. It is also the shape clients send
// when connecting items.
type Identifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Relationship always carries a related link. Data is an Identifier for a
// to-one relationship stored on the item and is omitted otherwise.
type Relationship struct {
	Data  *Identifier `json:"data,omitempty"`
	Links *Links      `json:"links,omitempty"`
}

// Links holds resource, relationship and pagination links.
type Links struct {
	Self    string `json:"self,omitempty"`
	Related string `json:"related,omitempty"`
	First   string `json:"first,omitempty"`
	Prev    string `json:"prev,omitempty"`
	Next    string `json:"next,omitempty"`
	Last    string `json:"last,omitempty"`
}

// Error is an error object. Status is the HTTP status as a string.
type Error struct {
	Status string       `json:"status"`
	Code   string       `json:"code"`
	Title  string       `json:"title"`
	Detail string       `json:"detail,omitempty"`
	Source *ErrorSource `json:"source,omitempty"`
	Meta   Meta         `json:"meta,omitempty"`
}

// ErrorSource points at the attribute or query parameter that failed.
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty"`
}
