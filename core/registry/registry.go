// Package registry manages list registration and the relationship edge table.
// Every relationship field is resolved at load time into an explicit edge that
// storage and the API channels consult instead of re-deriving placement.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/artpar/contentgate/core/convention"
	"github.com/artpar/contentgate/core/schema"
)

// Registry manages registered lists and their edges.
type Registry struct {
	mu sync.RWMutex

	// lists by key
	lists map[string]convention.Derived

	// registration order
	order []string

	// tables to lists
	tables map[string]string

	edges []Edge

	// links by "List.field"
	links map[string]Link

	resolved bool
}

// New creates a new registry.
func New() *Registry {
	return &Registry{
		lists:  make(map[string]convention.Derived),
		tables: make(map[string]string),
		links:  make(map[string]Link),
	}
}

// Build registers the lists and resolves the edge table in one step.
func Build(lists ...schema.List) (*Registry, error) {
	r := New()
	if err := r.Register(lists...); err != nil {
		return nil, err
	}
	if err := r.Resolve(); err != nil {
		return nil, err
	}
	return r, nil
}

// Register registers lists. Resolve must be called once all lists are known.
// Returns an error on duplicate list keys or table names.
func (r *Registry) Register(lists ...schema.List) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, list := range lists {
		if _, exists := r.lists[list.Key]; exists {
			return fmt.Errorf("list %q already registered", list.Key)
		}

		derived := convention.Derive(list)

		if existing, exists := r.tables[derived.Table]; exists {
			return fmt.Errorf("table %q already claimed by list %q", derived.Table, existing)
		}

		r.lists[list.Key] = derived
		r.tables[derived.Table] = list.Key
		r.order = append(r.order, list.Key)
	}
	r.resolved = false

	return nil
}

// Resolve validates every relationship field and builds the edge table.
func (r *Registry) Resolve() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.edges = nil
	r.links = make(map[string]Link)

	var errs []string
	done := make(map[string]bool)

	for _, key := range r.order {
		d := r.lists[key]
		for _, f := range d.Fields {
			if !f.IsRelationship() || done[key+"."+f.Name] {
				continue
			}
			edge, err := r.resolveEdge(key, f)
			if err != nil {
				errs = append(errs, err.Error())
				continue
			}
			done[edge.A.List+"."+edge.A.Field] = true
			if edge.B.Field != "" {
				done[edge.B.List+"."+edge.B.Field] = true
			}
			r.addEdge(edge)
		}
	}

	if len(errs) > 0 {
		return &EdgeError{Problems: errs}
	}

	r.resolved = true
	return nil
}

// resolveEdge builds the edge declared by field f of list key.
func (r *Registry) resolveEdge(key string, f convention.DerivedField) (Edge, error) {
	targetKey, inverse := schema.ParseRef(f.Ref)

	target, ok := r.lists[targetKey]
	if !ok {
		return Edge{}, fmt.Errorf("%s.%s: ref %q names unknown list %q", key, f.Name, f.Ref, targetKey)
	}

	a := End{List: key, Field: f.Name, Many: f.Many}
	b := End{List: targetKey}

	if inverse != "" {
		inv, ok := target.Field(inverse)
		if !ok {
			return Edge{}, fmt.Errorf("%s.%s: ref %q names unknown field %q on %s", key, f.Name, f.Ref, inverse, targetKey)
		}
		if !inv.IsRelationship() {
			return Edge{}, fmt.Errorf("%s.%s: inverse %s.%s is not a relationship", key, f.Name, targetKey, inverse)
		}
		if targetKey == key && inverse == f.Name {
			return Edge{}, fmt.Errorf("%s.%s: relationship cannot be its own inverse", key, f.Name)
		}
		backList, backField := schema.ParseRef(inv.Ref)
		if backList != key || backField != f.Name {
			return Edge{}, fmt.Errorf("%s.%s: inverse %s.%s points to %q, want %q",
				key, f.Name, targetKey, inverse, inv.Ref, key+"."+f.Name)
		}
		b.Field = inverse
		b.Many = inv.Many
	}

	// Canonical orientation: A sorts first for two-sided edges.
	if b.Field != "" && b.less(a) {
		a, b = b, a
	}

	edge := Edge{A: a, B: b}
	switch {
	case a.Many && (b.Many || b.Field == ""):
		edge.Kind = ManyToMany
		edge.JoinTable = "_" + r.lists[a.List].Table + "_" + strings.ToLower(a.Field)
		edge.JoinA, edge.JoinB = joinColumns(a.List, b.List)
	case a.Many && !b.Many:
		// FK on B's table pointing at A.
		edge.Kind = OneToMany
		edge.FKList, edge.FKColumn, edge.FKRef = b.List, b.Field, a.List
	case !a.Many && b.Many:
		edge.Kind = OneToMany
		edge.FKList, edge.FKColumn, edge.FKRef = a.List, a.Field, b.List
	case b.Field == "":
		// One-sided to-one: plain FK on the declaring list.
		edge.Kind = OneToMany
		edge.FKList, edge.FKColumn, edge.FKRef = a.List, a.Field, b.List
	default:
		edge.Kind = OneToOne
		edge.FKList, edge.FKColumn, edge.FKRef = a.List, a.Field, b.List
		edge.Unique = true
	}

	return edge, nil
}

// joinColumns names the join table columns after the lists they reference.
func joinColumns(a, b string) (string, string) {
	ca := strings.ToLower(a) + "_id"
	cb := strings.ToLower(b) + "_id"
	if ca == cb {
		return "a_id", "b_id"
	}
	return ca, cb
}

func (r *Registry) addEdge(e Edge) {
	r.edges = append(r.edges, e)
	r.links[e.A.List+"."+e.A.Field] = e.linkFrom(e.A, e.B)
	if e.B.Field != "" {
		r.links[e.B.List+"."+e.B.Field] = e.linkFrom(e.B, e.A)
	}
}

// Get returns a registered list by key.
func (r *Registry) Get(key string) (convention.Derived, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.lists[key]
	return d, ok
}

// List returns all registered lists in registration order.
func (r *Registry) List() []convention.Derived {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]convention.Derived, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.lists[key])
	}
	return out
}

// Resolved reports whether the edge table is current.
func (r *Registry) Resolved() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolved
}

// Edges returns the edge table.
func (r *Registry) Edges() []Edge {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Edge, len(r.edges))
	copy(out, r.edges)
	return out
}

// Link returns the edge behind a relationship field, seen from that field.
func (r *Registry) Link(list, field string) (Link, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.links[list+"."+field]
	return l, ok
}

// Links returns the relationship links of a list in field order.
func (r *Registry) Links(list string) []Link {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.lists[list]
	if !ok {
		return nil
	}
	var out []Link
	for _, f := range d.Fields {
		if l, ok := r.links[list+"."+f.Name]; ok {
			out = append(out, l)
		}
	}
	return out
}

// MigrationOrder returns list keys ordered so that lists referenced by a
// foreign key come before the lists holding it. Lists in a cycle keep their
// registration order.
func (r *Registry) MigrationOrder() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	deps := make(map[string]map[string]bool, len(r.order))
	for _, e := range r.edges {
		if e.IsJoin() || e.FKList == e.FKRef {
			continue
		}
		if deps[e.FKList] == nil {
			deps[e.FKList] = make(map[string]bool)
		}
		deps[e.FKList][e.FKRef] = true
	}

	var (
		out     []string
		visited = make(map[string]bool)
		active  = make(map[string]bool)
	)
	var visit func(key string)
	visit = func(key string) {
		if visited[key] || active[key] {
			return
		}
		active[key] = true
		refs := make([]string, 0, len(deps[key]))
		for ref := range deps[key] {
			refs = append(refs, ref)
		}
		sort.Strings(refs)
		for _, ref := range refs {
			visit(ref)
		}
		active[key] = false
		visited[key] = true
		out = append(out, key)
	}
	for _, key := range r.order {
		visit(key)
	}
	return out
}

// EdgeError reports invalid relationship declarations.
type EdgeError struct {
	Problems []string
}

// Error returns the edge error message.
func (e *EdgeError) Error() string {
	return fmt.Sprintf("invalid relationships:\n  - %s", strings.Join(e.Problems, "\n  - "))
}
