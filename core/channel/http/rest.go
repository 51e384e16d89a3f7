package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/contentgate/core/convention"
	"github.com/artpar/contentgate/core/registry"
	"github.com/artpar/contentgate/core/runtime"
	"github.com/artpar/contentgate/pkg/jsonapi"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxBodyBytes    = 1 << 20
)

// itemRoutes serves the JSON:API surface of one list, selected by its REST
// collection name.
func (c *Channel) itemRoutes(r chi.Router) {
	r.Get("/", c.handleList)
	r.Post("/", c.handleCreate)
	r.Get("/{id}", c.handleGet)
	r.Patch("/{id}", c.handleUpdate)
	r.Delete("/{id}", c.handleDelete)
	r.Get("/{id}/{field}", c.handleRelated)
}

// listOf resolves the collection URL parameter, writing a 404 when no list
// is registered under it.
func (c *Channel) listOf(w http.ResponseWriter, r *http.Request) (convention.Derived, bool) {
	name := chi.URLParam(r, "collection")
	d, ok := c.lists[name]
	if !ok {
		jsonapi.WriteNotFound(w, "collection")
	}
	return d, ok
}

func (c *Channel) handleList(w http.ResponseWriter, r *http.Request) {
	d, ok := c.listOf(w, r)
	if !ok {
		return
	}

	args, bad := findArgs(r)
	if bad != nil {
		jsonapi.WriteError(w, *bad)
		return
	}
	page, bad := pageOf(r, &args)
	if bad != nil {
		jsonapi.WriteError(w, *bad)
		return
	}

	q := c.rt.Query(d.Source.Key)
	items, err := q.FindMany(r.Context(), args)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}
	total, err := q.Count(r.Context(), args.Where)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}
	page.Total = total

	jsonapi.WriteCollection(w, c.resources(d, items), page)
}

func (c *Channel) handleGet(w http.ResponseWriter, r *http.Request) {
	d, ok := c.listOf(w, r)
	if !ok {
		return
	}
	item, err := c.rt.FindOne(r.Context(), d.Source.Key, byID(r))
	if err != nil {
		c.writeErr(w, r, err)
		return
	}
	jsonapi.WriteResource(w, http.StatusOK, c.resource(d, item))
}

func (c *Channel) handleCreate(w http.ResponseWriter, r *http.Request) {
	d, ok := c.listOf(w, r)
	if !ok {
		return
	}
	data, ok := c.decodeData(w, r, d, true)
	if !ok {
		return
	}
	item, err := c.rt.CreateOne(r.Context(), d.Source.Key, data)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}
	jsonapi.WriteCreated(w, c.resource(d, item))
}

func (c *Channel) handleUpdate(w http.ResponseWriter, r *http.Request) {
	d, ok := c.listOf(w, r)
	if !ok {
		return
	}
	data, ok := c.decodeData(w, r, d, false)
	if !ok {
		return
	}
	item, err := c.rt.UpdateOne(r.Context(), d.Source.Key, byID(r), data)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}
	jsonapi.WriteResource(w, http.StatusOK, c.resource(d, item))
}

func (c *Channel) handleDelete(w http.ResponseWriter, r *http.Request) {
	d, ok := c.listOf(w, r)
	if !ok {
		return
	}
	if _, err := c.rt.DeleteOne(r.Context(), d.Source.Key, byID(r)); err != nil {
		c.writeErr(w, r, err)
		return
	}
	jsonapi.WriteNoContent(w)
}

// handleRelated returns the items behind a relationship field: a single
// resource (or null) for to-one fields, a paginated collection otherwise.
func (c *Channel) handleRelated(w http.ResponseWriter, r *http.Request) {
	d, ok := c.listOf(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "field")
	link, ok := c.rt.Registry().Link(d.Source.Key, name)
	if !ok {
		jsonapi.WriteNotFound(w, "relationship")
		return
	}
	target, _ := c.rt.Registry().Get(link.Target)

	// Resolve the parent first so a missing item is a 404, not an empty result.
	parent, err := c.rt.FindOne(r.Context(), d.Source.Key, byID(r))
	if err != nil {
		c.writeErr(w, r, err)
		return
	}
	q := c.rt.Query(d.Source.Key)

	if !link.Many {
		one := 1
		items, err := q.Related(r.Context(), name, parent.ID(), runtime.FindArgs{Take: &one})
		if err != nil {
			c.writeErr(w, r, err)
			return
		}
		doc := jsonapi.NewDocument().Null()
		if len(items) > 0 {
			doc.Resource(c.resource(target, items[0]))
		}
		jsonapi.Write(w, http.StatusOK, doc.Build())
		return
	}

	args, bad := findArgs(r)
	if bad != nil {
		jsonapi.WriteError(w, *bad)
		return
	}
	page, bad := pageOf(r, &args)
	if bad != nil {
		jsonapi.WriteError(w, *bad)
		return
	}

	items, err := q.Related(r.Context(), name, parent.ID(), args)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}
	total, err := q.RelatedCount(r.Context(), name, parent.ID(), args.Where)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}
	page.Total = total

	jsonapi.WriteCollection(w, c.resources(target, items), page)
}

// pageOf applies page[number] and page[size] to args.
func pageOf(r *http.Request, args *runtime.FindArgs) (jsonapi.Page, *jsonapi.Error) {
	page, bad := jsonapi.ParsePage(r.URL, defaultPageSize, maxPageSize)
	if bad != nil {
		return page, bad
	}
	take := page.Take()
	args.Take, args.Skip = &take, page.Skip()
	return page, nil
}

func byID(r *http.Request) map[string]any {
	return map[string]any{convention.FieldID: chi.URLParam(r, "id")}
}

// findArgs reads where and orderBy (JSON in the query string) and sort
// (JSON:API style, "-publishDate,title").
func findArgs(r *http.Request) (runtime.FindArgs, *jsonapi.Error) {
	var args runtime.FindArgs
	query := r.URL.Query()
	invalid := func(param, detail string) *jsonapi.Error {
		e := jsonapi.ErrInvalidParameter(param, detail)
		return &e
	}

	if v := query.Get("where"); v != "" {
		if err := json.Unmarshal([]byte(v), &args.Where); err != nil {
			return args, invalid("where", "where must be a JSON object")
		}
	}

	if v := query.Get("orderBy"); v != "" {
		var raw any
		if err := json.Unmarshal([]byte(v), &raw); err != nil {
			return args, invalid("orderBy", "orderBy must be a JSON object or array")
		}
		switch o := raw.(type) {
		case map[string]any:
			args.OrderBy = []map[string]any{o}
		case []any:
			for _, e := range o {
				m, ok := e.(map[string]any)
				if !ok {
					return args, invalid("orderBy", "orderBy entries must be objects")
				}
				args.OrderBy = append(args.OrderBy, m)
			}
		default:
			return args, invalid("orderBy", "orderBy must be a JSON object or array")
		}
	} else if v := query.Get("sort"); v != "" {
		for _, key := range strings.Split(v, ",") {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			dir := "asc"
			if name, ok := strings.CutPrefix(key, "-"); ok {
				key, dir = name, "desc"
			}
			args.OrderBy = append(args.OrderBy, map[string]any{key: dir})
		}
	}
	return args, nil
}

// resourceBody is a JSON:API request document. Plain objects are accepted
// as well and treated as attributes.
type resourceBody struct {
	Data *struct {
		Type          string                     `json:"type"`
		Attributes    map[string]any             `json:"attributes"`
		Relationships map[string]json.RawMessage `json:"relationships"`
	} `json:"data"`
}

// decodeData reads a create or update body into runtime input. Relationship
// linkage becomes connect input on create and set/connect input on update.
func (c *Channel) decodeData(w http.ResponseWriter, r *http.Request, d convention.Derived, creating bool) (map[string]any, bool) {
	raw, err := readBody(w, r)
	if err != nil {
		jsonapi.WriteBadRequest(w, "request body must be a JSON object")
		return nil, false
	}

	var body resourceBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Data != nil {
		if body.Data.Type != "" && body.Data.Type != d.Names.RESTCollection {
			jsonapi.WriteError(w, jsonapi.NewError(http.StatusConflict, "type_mismatch", "Conflict").
				Detail(fmt.Sprintf("resource type %q does not match collection %q", body.Data.Type, d.Names.RESTCollection)).
				Pointer("/data/type").
				Build())
			return nil, false
		}
		data := body.Data.Attributes
		if data == nil {
			data = make(map[string]any)
		}
		for name, rel := range body.Data.Relationships {
			in, err := c.linkage(d, name, rel, creating)
			if err != nil {
				jsonapi.WriteError(w, jsonapi.ErrLinkage(name, err.Error()))
				return nil, false
			}
			if in != nil {
				data[name] = in
			}
		}
		return data, true
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil || data == nil {
		jsonapi.WriteBadRequest(w, "request body must be a JSON object")
		return nil, false
	}
	return data, true
}

func readBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// linkage converts {"data": {"type","id"}} or {"data": [...]} into
// relationship input. A null to-one linkage on create yields no input.
func (c *Channel) linkage(d convention.Derived, name string, raw json.RawMessage, creating bool) (map[string]any, error) {
	link, ok := c.rt.Registry().Link(d.Source.Key, name)
	if !ok {
		return nil, fmt.Errorf("%s has no relationship %q", d.Source.Key, name)
	}

	var rel struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &rel); err != nil {
		return nil, errors.New("relationship must be an object with data")
	}

	if !link.Many {
		var id *jsonapi.Identifier
		if err := json.Unmarshal(rel.Data, &id); err != nil {
			return nil, errors.New("to-one relationship data must be an identifier or null")
		}
		if id == nil {
			if creating {
				return nil, nil
			}
			return map[string]any{"disconnect": true}, nil
		}
		return map[string]any{"connect": map[string]any{convention.FieldID: id.ID}}, nil
	}

	var ids []jsonapi.Identifier
	if err := json.Unmarshal(rel.Data, &ids); err != nil {
		return nil, errors.New("to-many relationship data must be an array of identifiers")
	}
	refs := make([]any, len(ids))
	for i, id := range ids {
		refs[i] = map[string]any{convention.FieldID: id.ID}
	}
	if creating {
		return map[string]any{"connect": refs}, nil
	}
	return map[string]any{"set": refs}, nil
}

func (c *Channel) resources(d convention.Derived, items []runtime.Item) []jsonapi.Resource {
	out := make([]jsonapi.Resource, len(items))
	for i, item := range items {
		out[i] = c.resource(d, item)
	}
	return out
}

// resource renders an item. Relationship fields are not attributes: foreign
// keys held by the item become linkage, every relationship gets a related link.
func (c *Channel) resource(d convention.Derived, item runtime.Item) jsonapi.Resource {
	self := "/api/" + d.Names.RESTCollection + "/" + item.ID()
	b := jsonapi.NewResource(d.Names.RESTCollection, item.ID(), self)

	for _, f := range d.Fields {
		if f.Name == convention.FieldID {
			continue
		}
		if !f.IsRelationship() {
			if v, ok := item[f.Name]; ok {
				b.Attr(f.Name, v)
			}
			continue
		}

		link, ok := c.rt.Registry().Link(d.Source.Key, f.Name)
		if !ok {
			continue
		}
		href := self + "/" + f.Name
		if link.Many || link.Placement != registry.OwnColumn {
			b.Related(f.Name, href)
			continue
		}
		id, _ := item[f.Name].(string)
		target, _ := c.rt.Registry().Get(link.Target)
		b.RelatedTo(f.Name, href, target.Names.RESTCollection, id)
	}
	return b.Build()
}
