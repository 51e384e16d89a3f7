// Package formatter renders items for terminal output (table, json, yaml).
package formatter

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"sync"

	"github.com/artpar/contentgate/core/convention"
	"github.com/artpar/contentgate/core/runtime"
)

// Formatter converts items to a specific output format.
type Formatter interface {
	// Name returns the formatter name (e.g., "table", "json", "yaml").
	Name() string

	// FormatList formats the items of one list.
	FormatList(w io.Writer, d convention.Derived, items []runtime.Item, opts Options) error

	// FormatItem formats a single item.
	FormatItem(w io.Writer, d convention.Derived, item runtime.Item, opts Options) error
}

// Options configures formatting behavior.
type Options struct {
	// Columns specifies which fields to include (nil = all readable fields).
	Columns []string

	// NoHeader disables the header row for tables.
	NoHeader bool

	// Compact minimizes whitespace (json only).
	Compact bool

	// MaxWidth truncates long table values (0 = no limit).
	MaxWidth int
}

// Registry manages formatters by name.
type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
	defaultFmt string
}

// NewRegistry creates a registry holding the table, json and yaml formatters.
// Table is the default.
func NewRegistry() *Registry {
	r := &Registry{
		formatters: make(map[string]Formatter),
		defaultFmt: "table",
	}
	for _, f := range []Formatter{TableFormatter{}, JSONFormatter{}, YAMLFormatter{}} {
		r.formatters[f.Name()] = f
	}
	return r
}

// Register adds a formatter.
func (r *Registry) Register(f Formatter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formatters[f.Name()]; exists {
		return fmt.Errorf("formatter %q already registered", f.Name())
	}
	r.formatters[f.Name()] = f
	return nil
}

// Get returns a formatter by name. An empty name returns the default.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultFmt
	}
	f, ok := r.formatters[name]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (available: %v)", name, r.names())
	}
	return f, nil
}

// Names returns the registered formatter names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Columns returns requested, or every field an item carries except
// write-only fields. To-many relationships are not stored on items.
func Columns(d convention.Derived, requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	var cols []string
	for _, f := range d.Fields {
		if !f.WriteOnly && !f.Many {
			cols = append(cols, f.Name)
		}
	}
	return cols
}

// project keeps the given columns of item. Columns missing from the item
// are left out.
func project(item runtime.Item, cols []string) map[string]any {
	out := make(map[string]any, len(cols))
	for k, v := range item {
		if slices.Contains(cols, k) {
			out[k] = v
		}
	}
	return out
}

func projectAll(items []runtime.Item, cols []string) []map[string]any {
	out := make([]map[string]any, len(items))
	for i, item := range items {
		out[i] = project(item, cols)
	}
	return out
}
