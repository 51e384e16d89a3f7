package formatter

import (
	"encoding/json"
	"io"

	"github.com/artpar/contentgate/core/convention"
	"github.com/artpar/contentgate/core/runtime"
)

// JSONFormatter formats output as JSON.
type JSONFormatter struct{}

// Name returns the formatter name.
func (JSONFormatter) Name() string {
	return "json"
}

// FormatList writes {"list": ..., "count": ..., "items": [...]}.
func (f JSONFormatter) FormatList(w io.Writer, d convention.Derived, items []runtime.Item, opts Options) error {
	cols := Columns(d, opts.Columns)
	return f.encode(w, map[string]any{
		"list":  d.Source.Key,
		"count": len(items),
		"items": projectAll(items, cols),
	}, opts.Compact)
}

// FormatItem writes {"list": ..., "item": ...}; item is null when missing.
func (f JSONFormatter) FormatItem(w io.Writer, d convention.Derived, item runtime.Item, opts Options) error {
	var out any
	if item != nil {
		out = project(item, Columns(d, opts.Columns))
	}
	return f.encode(w, map[string]any{
		"list": d.Source.Key,
		"item": out,
	}, opts.Compact)
}

func (JSONFormatter) encode(w io.Writer, data any, compact bool) error {
	encoder := json.NewEncoder(w)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}
