package formatter

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/artpar/contentgate/core/convention"
	"github.com/artpar/contentgate/core/runtime"
	"github.com/artpar/contentgate/core/schema"
)

// YAMLFormatter formats output as YAML.
type YAMLFormatter struct{}

// Name returns the formatter name.
func (YAMLFormatter) Name() string {
	return "yaml"
}

// FormatList formats the items as a YAML document with list, count and items.
func (f YAMLFormatter) FormatList(w io.Writer, d convention.Derived, items []runtime.Item, opts Options) error {
	cols := Columns(d, opts.Columns)
	rows := projectAll(items, cols)
	for _, row := range rows {
		plainPasswords(row)
	}
	return f.encode(w, map[string]any{
		"list":  d.Source.Key,
		"count": len(items),
		"items": rows,
	})
}

// FormatItem formats a single item.
func (f YAMLFormatter) FormatItem(w io.Writer, d convention.Derived, item runtime.Item, opts Options) error {
	var out map[string]any
	if item != nil {
		out = project(item, Columns(d, opts.Columns))
		plainPasswords(out)
	}
	return f.encode(w, map[string]any{
		"list": d.Source.Key,
		"item": out,
	})
}

func (YAMLFormatter) encode(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(data)
}

// plainPasswords replaces password states with maps, since yaml.v3 ignores
// json tags.
func plainPasswords(row map[string]any) {
	for k, v := range row {
		if s, ok := v.(schema.PasswordState); ok {
			row[k] = map[string]any{"isSet": s.IsSet}
		}
	}
}
