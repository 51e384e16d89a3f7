package http

import (
	"net/http"

	"github.com/artpar/contentgate/core/convention"
	"github.com/artpar/contentgate/core/schema"
	"github.com/artpar/contentgate/pkg/jsonapi"
)

// defaultColumns is the number of columns shown when a list does not
// configure its initial columns.
const defaultColumns = 3

// ListMeta describes a list to admin clients.
type ListMeta struct {
	Key            string      `json:"key"`
	Plural         string      `json:"plural"`
	Path           string      `json:"path"`
	LabelField     string      `json:"labelField"`
	IsHidden       bool        `json:"isHidden"`
	InitialColumns []string    `json:"initialColumns"`
	Fields         []FieldMeta `json:"fields"`
}

// FieldMeta describes a field to admin clients.
type FieldMeta struct {
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	IsRequired   bool   `json:"isRequired"`
	IsUnique     bool   `json:"isUnique"`
	IsFilterable bool   `json:"isFilterable"`
	IsOrderable  bool   `json:"isOrderable"`
	IsImplicit   bool   `json:"isImplicit,omitempty"`
	DisplayMode  string `json:"displayMode,omitempty"`

	Options      []schema.SelectOption `json:"options,omitempty"`
	Relationship *RelationshipMeta     `json:"relationship,omitempty"`
	Document     *DocumentMeta         `json:"document,omitempty"`
}

// RelationshipMeta describes the target of a relationship field.
type RelationshipMeta struct {
	Ref  string                `json:"ref"`
	Many bool                  `json:"many"`
	UI   schema.RelationshipUI `json:"ui"`
}

// DocumentMeta lists the features a document field allows.
type DocumentMeta struct {
	Formatting bool    `json:"formatting"`
	Layouts    [][]int `json:"layouts,omitempty"`
	Links      bool    `json:"links"`
	Dividers   bool    `json:"dividers"`
}

// handleMeta serves GET /api/admin/meta. A session is required.
func (c *Channel) handleMeta(w http.ResponseWriter, r *http.Request) {
	if _, ok := sessionOf(r).Session(); !ok {
		jsonapi.WriteUnauthorized(w, "")
		return
	}

	lists := c.rt.Registry().List()
	out := make([]ListMeta, 0, len(lists))
	for _, d := range lists {
		out = append(out, listMeta(d))
	}
	jsonapi.WriteMeta(w, http.StatusOK, jsonapi.Meta{
		"lists":       out,
		"authListKey": c.auth.Config().ListKey,
		"initEnabled": c.auth.InitEnabled(),
	})
}

func listMeta(d convention.Derived) ListMeta {
	m := ListMeta{
		Key:            d.Source.Key,
		Plural:         d.Plural,
		Path:           d.Names.RESTCollection,
		LabelField:     d.Source.Label(),
		IsHidden:       d.Source.UI.IsHidden,
		InitialColumns: d.Source.UI.ListView.InitialColumns,
		Fields:         make([]FieldMeta, 0, len(d.Fields)),
	}
	if len(m.InitialColumns) == 0 {
		m.InitialColumns = initialColumns(d)
	}
	for _, f := range d.Fields {
		m.Fields = append(m.Fields, fieldMeta(f))
	}
	return m
}

// initialColumns is the label field followed by the first readable fields.
func initialColumns(d convention.Derived) []string {
	label := d.Source.Label()
	cols := []string{label}
	for _, f := range d.Fields {
		if len(cols) == defaultColumns {
			break
		}
		if f.Implicit || f.WriteOnly || f.Many || f.Name == label || f.Kind == schema.KindDocument {
			continue
		}
		cols = append(cols, f.Name)
	}
	return cols
}

func fieldMeta(f convention.DerivedField) FieldMeta {
	m := FieldMeta{
		Name:         f.Name,
		Kind:         string(f.Kind),
		IsRequired:   f.Required,
		IsUnique:     f.Unique,
		IsFilterable: f.Filterable,
		IsOrderable:  f.Orderable,
		IsImplicit:   f.Implicit,
	}
	if f.Source == nil {
		return m
	}

	switch cfg := f.Source.Config.(type) {
	case schema.Text:
		m.DisplayMode = cfg.UI.DisplayMode
		if m.DisplayMode == "" {
			m.DisplayMode = "input"
		}
	case schema.Select:
		m.Options = cfg.Options
		m.DisplayMode = cfg.UI.DisplayMode
		if m.DisplayMode == "" {
			m.DisplayMode = "select"
		}
	case schema.Relationship:
		ui := cfg.UI
		if ui.DisplayMode == "" {
			ui.DisplayMode = "select"
		}
		m.DisplayMode = ui.DisplayMode
		m.Relationship = &RelationshipMeta{Ref: cfg.Ref, Many: cfg.Many, UI: ui}
	case schema.Document:
		m.Document = &DocumentMeta{
			Formatting: cfg.Formatting,
			Layouts:    cfg.Layouts,
			Links:      cfg.Links,
			Dividers:   cfg.Dividers,
		}
	}
	return m
}
