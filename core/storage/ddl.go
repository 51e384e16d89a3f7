package storage

import (
	"fmt"
	"strings"

	"github.com/artpar/contentgate/core/convention"
	"github.com/artpar/contentgate/core/registry"
	"github.com/artpar/contentgate/core/schema"
)

// column is a physical column of a list table.
type column struct {
	Name  string
	Kind  schema.Kind
	Field convention.DerivedField

	// Link is set for foreign key columns.
	Link *registry.Link
}

func (c column) isFK() bool {
	return c.Link != nil
}

// tableColumns returns the columns of a list table: implicit fields, scalar
// fields and the foreign keys placed on this table, in declaration order.
func tableColumns(reg *registry.Registry, d convention.Derived) []column {
	cols := make([]column, 0, len(d.Fields))
	for _, f := range d.Fields {
		if !f.IsRelationship() {
			cols = append(cols, column{Name: f.Name, Kind: f.Kind, Field: f})
			continue
		}
		link, ok := reg.Link(d.Source.Key, f.Name)
		if !ok || link.Placement != registry.OwnColumn {
			continue
		}
		l := link
		cols = append(cols, column{Name: f.Name, Kind: schema.KindRelationship, Field: f, Link: &l})
	}
	return cols
}

// BuildSchemaSQL generates the DDL for every list and join table, in an
// order the database accepts.
func BuildSchemaSQL(reg *registry.Registry, d Dialect) []string {
	var stmts []string
	created := make(map[string]bool)

	for _, key := range reg.MigrationOrder() {
		derived, _ := reg.Get(key)
		stmts = append(stmts, buildCreateTableSQL(reg, d, derived, created))
		stmts = append(stmts, buildIndexSQL(reg, d, derived)...)
		created[key] = true
	}

	for _, e := range reg.Edges() {
		if e.IsJoin() {
			stmts = append(stmts, buildJoinTableSQL(reg, d, e)...)
		}
	}

	return stmts
}

// buildCreateTableSQL generates CREATE TABLE SQL for a list. Foreign keys to
// lists not yet created are left unconstrained so cyclic schemas migrate.
func buildCreateTableSQL(reg *registry.Registry, d Dialect, derived convention.Derived, created map[string]bool) string {
	var defs []string
	var constraints []string

	for _, c := range tableColumns(reg, derived) {
		defs = append(defs, buildColumnDef(d, c))

		switch {
		case c.isFK():
			target, _ := reg.Get(c.Link.Target)
			if c.Link.Edge.Unique {
				constraints = append(constraints, fmt.Sprintf("UNIQUE (%s)", d.Quote(c.Name)))
			}
			if created[c.Link.Target] || c.Link.Target == derived.Source.Key || d.Name() == ProviderSQLite {
				constraints = append(constraints, fmt.Sprintf(
					"FOREIGN KEY (%s) REFERENCES %s (%s) ON DELETE SET NULL",
					d.Quote(c.Name), d.Quote(target.Table), d.Quote(convention.FieldID),
				))
			}
		case c.Field.Unique && c.Name != convention.FieldID:
			constraints = append(constraints, fmt.Sprintf("UNIQUE (%s)", d.Quote(c.Name)))
		}

		if len(c.Field.Values) > 0 && c.Kind == schema.KindSelect {
			values := make([]string, len(c.Field.Values))
			for i, v := range c.Field.Values {
				values[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
			}
			constraints = append(constraints, fmt.Sprintf(
				"CHECK (%s IN (%s))", d.Quote(c.Name), strings.Join(values, ", "),
			))
		}
	}

	if d.Name() == ProviderMySQL {
		for _, c := range tableColumns(reg, derived) {
			if c.Field.Indexed && !c.Field.Unique {
				constraints = append(constraints, fmt.Sprintf("KEY %s (%s)",
					d.Quote(indexName(derived.Table, c.Name)), d.Quote(c.Name)))
			}
		}
	}

	all := append(defs, constraints...)
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		d.Quote(derived.Table), strings.Join(all, ",\n  "))
}

// buildColumnDef builds a column definition.
func buildColumnDef(d Dialect, c column) string {
	var parts []string

	parts = append(parts, d.Quote(c.Name))

	switch {
	case c.Name == convention.FieldID:
		parts = append(parts, d.IDType(), "PRIMARY KEY")
		return strings.Join(parts, " ")
	case c.isFK():
		parts = append(parts, d.IDType())
	default:
		parts = append(parts, d.ColumnType(c.Kind, c.Field.Indexed))
	}

	if c.Field.Required || c.Field.Implicit || c.Kind == schema.KindCheckbox {
		parts = append(parts, "NOT NULL")
	}

	return strings.Join(parts, " ")
}

// buildIndexSQL generates CREATE INDEX statements for indexed and foreign key
// columns. MySQL indexes are declared inline instead.
func buildIndexSQL(reg *registry.Registry, d Dialect, derived convention.Derived) []string {
	if d.Name() == ProviderMySQL {
		return nil
	}

	var indexes []string
	for _, c := range tableColumns(reg, derived) {
		if c.Field.Unique {
			continue
		}
		if c.Field.Indexed || c.isFK() {
			indexes = append(indexes, fmt.Sprintf(
				"CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
				d.Quote(indexName(derived.Table, c.Name)), d.Quote(derived.Table), d.Quote(c.Name),
			))
		}
	}
	return indexes
}

func buildJoinTableSQL(reg *registry.Registry, d Dialect, e registry.Edge) []string {
	a, _ := reg.Get(e.A.List)
	b, _ := reg.Get(e.B.List)

	defs := []string{
		fmt.Sprintf("%s %s NOT NULL", d.Quote(e.JoinA), d.IDType()),
		fmt.Sprintf("%s %s NOT NULL", d.Quote(e.JoinB), d.IDType()),
		fmt.Sprintf("PRIMARY KEY (%s, %s)", d.Quote(e.JoinA), d.Quote(e.JoinB)),
		fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s) ON DELETE CASCADE",
			d.Quote(e.JoinA), d.Quote(a.Table), d.Quote(convention.FieldID)),
		fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s) ON DELETE CASCADE",
			d.Quote(e.JoinB), d.Quote(b.Table), d.Quote(convention.FieldID)),
	}
	if d.Name() == ProviderMySQL {
		defs = append(defs, fmt.Sprintf("KEY %s (%s)",
			d.Quote(indexName(e.JoinTable, e.JoinB)), d.Quote(e.JoinB)))
	}

	stmts := []string{fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		d.Quote(e.JoinTable), strings.Join(defs, ",\n  "))}

	if d.Name() != ProviderMySQL {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			d.Quote(indexName(e.JoinTable, e.JoinB)), d.Quote(e.JoinTable), d.Quote(e.JoinB)))
	}
	return stmts
}

func indexName(table, col string) string {
	return "idx_" + strings.TrimPrefix(table, "_") + "_" + strings.ToLower(col)
}
