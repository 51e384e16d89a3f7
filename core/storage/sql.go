package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/contentgate/core/convention"
	"github.com/artpar/contentgate/core/registry"
	"github.com/artpar/contentgate/core/schema"
)

// SQLStore implements Store on database/sql.
type SQLStore struct {
	db       *sql.DB
	dialect  Dialect
	registry *registry.Registry
	logger   zerolog.Logger

	tables map[string]*tableMeta
}

// tableMeta is the resolved physical layout of one list.
type tableMeta struct {
	derived convention.Derived
	table   string
	columns []column
	byName  map[string]column
}

// Open connects to the database of the given provider.
func Open(provider, url string, reg *registry.Registry, logger zerolog.Logger) (*SQLStore, error) {
	d, err := DialectFor(provider)
	if err != nil {
		return nil, err
	}

	dsn, err := d.DSN(url)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.Driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if d.Name() == ProviderSQLite && strings.Contains(url, ":memory:") {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to %s: %w", d.Name(), err)
	}

	return New(db, d, reg, logger)
}

// New creates a store from an existing connection.
func New(db *sql.DB, d Dialect, reg *registry.Registry, logger zerolog.Logger) (*SQLStore, error) {
	if !reg.Resolved() {
		return nil, errors.New("storage: registry edges are not resolved")
	}

	s := &SQLStore{
		db:       db,
		dialect:  d,
		registry: reg,
		logger:   logger.With().Str("component", "storage").Str("provider", d.Name()).Logger(),
		tables:   make(map[string]*tableMeta),
	}

	for _, derived := range reg.List() {
		cols := tableColumns(reg, derived)
		m := &tableMeta{
			derived: derived,
			table:   derived.Table,
			columns: cols,
			byName:  make(map[string]column, len(cols)),
		}
		for _, c := range cols {
			m.byName[c.Name] = c
		}
		s.tables[derived.Source.Key] = m
	}

	return s, nil
}

// Migrate creates tables, indexes and join tables if they do not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range BuildSchemaSQL(s.registry, s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w\n%s", err, stmt)
		}
	}
	s.logger.Info().Int("lists", len(s.tables)).Int("edges", len(s.registry.Edges())).Msg("schema migrated")
	return nil
}

// Tx runs fn inside one transaction.
func (s *SQLStore) Tx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, s.dialect.TxOptions())
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&sqlTx{s: s, tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Error().Err(rbErr).Msg("rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Dialect returns the store's SQL dialect.
func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

func (s *SQLStore) meta(list string) (*tableMeta, error) {
	m, ok := s.tables[list]
	if !ok {
		return nil, fmt.Errorf("list %q not registered", list)
	}
	return m, nil
}

// sqlTx implements Tx.
type sqlTx struct {
	s  *SQLStore
	tx *sql.Tx
}

func (t *sqlTx) q(name string) string {
	return t.s.dialect.Quote(name)
}

// Insert writes a new item.
func (t *sqlTx) Insert(ctx context.Context, list string, item Item) error {
	m, err := t.s.meta(list)
	if err != nil {
		return err
	}
	if item.ID() == "" {
		return errors.New("storage: item id is required")
	}

	if err := t.checkWrite(ctx, m, item, ""); err != nil {
		return err
	}

	b := t.newBuilder()
	var cols, placeholders []string
	for _, c := range m.columns {
		val, ok := item[c.Name]
		if !ok {
			continue
		}
		cols = append(cols, t.q(c.Name))
		placeholders = append(placeholders, b.bind(toDB(val, c)))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.q(m.table), strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	if _, err := t.tx.ExecContext(ctx, query, b.args...); err != nil {
		return t.mapError(m, err)
	}
	return nil
}

// Update changes columns of an existing item.
func (t *sqlTx) Update(ctx context.Context, list, id string, changes Item) error {
	m, err := t.s.meta(list)
	if err != nil {
		return err
	}

	if ok, err := t.exists(ctx, m, id); err != nil {
		return err
	} else if !ok {
		return ErrNotFound
	}

	if err := t.checkWrite(ctx, m, changes, id); err != nil {
		return err
	}

	b := t.newBuilder()
	var sets []string
	for _, c := range m.columns {
		val, ok := changes[c.Name]
		if !ok || c.Name == convention.FieldID || c.Name == convention.FieldCreatedAt {
			continue
		}
		sets = append(sets, t.q(c.Name)+" = "+b.bind(toDB(val, c)))
	}
	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		t.q(m.table), strings.Join(sets, ", "), t.q(convention.FieldID), b.bind(id))

	if _, err := t.tx.ExecContext(ctx, query, b.args...); err != nil {
		return t.mapError(m, err)
	}
	return nil
}

// Delete removes an item after detaching it from every edge.
func (t *sqlTx) Delete(ctx context.Context, list, id string) error {
	m, err := t.s.meta(list)
	if err != nil {
		return err
	}

	if ok, err := t.exists(ctx, m, id); err != nil {
		return err
	} else if !ok {
		return ErrNotFound
	}

	for _, e := range t.s.registry.Edges() {
		if e.IsJoin() {
			if e.A.List == list {
				if err := t.deleteWhere(ctx, e.JoinTable, eq{e.JoinA, id}); err != nil {
					return err
				}
			}
			if e.B.List == list {
				if err := t.deleteWhere(ctx, e.JoinTable, eq{e.JoinB, id}); err != nil {
					return err
				}
			}
			continue
		}
		if e.FKRef == list {
			fk, _ := t.s.meta(e.FKList)
			if err := t.setColumn(ctx, fk.table, e.FKColumn, nil, eq{e.FKColumn, id}); err != nil {
				return err
			}
		}
	}

	b := t.newBuilder()
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", t.q(m.table), t.q(convention.FieldID), b.bind(id))
	if _, err := t.tx.ExecContext(ctx, query, b.args...); err != nil {
		return t.mapError(m, err)
	}
	return nil
}

// eq is a column equality used in WHERE clauses.
type eq struct {
	col string
	val any
}

func (t *sqlTx) whereEq(b *builder, conds []eq) string {
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = t.q(c.col) + " = " + b.bind(c.val)
	}
	return strings.Join(parts, " AND ")
}

// setColumn sets one column on the rows matching every condition.
func (t *sqlTx) setColumn(ctx context.Context, table, col string, val any, where ...eq) error {
	b := t.newBuilder()
	query := fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s", t.q(table), t.q(col), b.bind(val), t.whereEq(b, where))
	if _, err := t.tx.ExecContext(ctx, query, b.args...); err != nil {
		return fmt.Errorf("update %s.%s: %w", table, col, err)
	}
	return nil
}

// deleteWhere deletes the rows matching every condition.
func (t *sqlTx) deleteWhere(ctx context.Context, table string, where ...eq) error {
	b := t.newBuilder()
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", t.q(table), t.whereEq(b, where))
	if _, err := t.tx.ExecContext(ctx, query, b.args...); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

// FindOne looks up an item by a unique field.
func (t *sqlTx) FindOne(ctx context.Context, list, field string, value any) (Item, error) {
	m, err := t.s.meta(list)
	if err != nil {
		return nil, err
	}
	if !m.derived.IsLookup(field) {
		return nil, fmt.Errorf("%s.%s is not a unique field", list, field)
	}

	items, err := t.FindMany(ctx, list, Query{Where: Where(Eq(field, value)), Take: 1})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return items[0], nil
}

// FindMany returns the items matching the query.
func (t *sqlTx) FindMany(ctx context.Context, list string, q Query) ([]Item, error) {
	m, err := t.s.meta(list)
	if err != nil {
		return nil, err
	}
	return t.selectItems(ctx, m, q, nil)
}

// Count returns the number of items matching the filter.
func (t *sqlTx) Count(ctx context.Context, list string, where Filter) (int, error) {
	m, err := t.s.meta(list)
	if err != nil {
		return 0, err
	}
	return t.count(ctx, m, where, nil)
}

// Related returns the items connected through a relationship field.
func (t *sqlTx) Related(ctx context.Context, list, field, id string, q Query) ([]Item, error) {
	link, target, err := t.link(list, field)
	if err != nil {
		return nil, err
	}
	return t.selectItems(ctx, target, q, t.relatedPredicate(link, id))
}

// RelatedCount counts the items connected through a relationship field.
func (t *sqlTx) RelatedCount(ctx context.Context, list, field, id string, where Filter) (int, error) {
	link, target, err := t.link(list, field)
	if err != nil {
		return 0, err
	}
	return t.count(ctx, target, where, t.relatedPredicate(link, id))
}

func (t *sqlTx) link(list, field string) (registry.Link, *tableMeta, error) {
	link, ok := t.s.registry.Link(list, field)
	if !ok {
		return registry.Link{}, nil, fmt.Errorf("%s.%s is not a relationship", list, field)
	}
	target, err := t.s.meta(link.Target)
	if err != nil {
		return registry.Link{}, nil, err
	}
	return link, target, nil
}

// relatedPredicate restricts a target list query to the items linked to id.
func (t *sqlTx) relatedPredicate(link registry.Link, id string) predicate {
	return func(b *builder, alias string) string {
		idCol := alias + "." + t.q(convention.FieldID)
		switch link.Placement {
		case registry.OwnColumn:
			own, _ := t.s.meta(link.List)
			return fmt.Sprintf("%s IN (SELECT %s FROM %s WHERE %s = %s)",
				idCol, t.q(link.Column), t.q(own.table), t.q(convention.FieldID), b.bind(id))
		case registry.TargetColumn:
			return fmt.Sprintf("%s.%s = %s", alias, t.q(link.Column), b.bind(id))
		default:
			return fmt.Sprintf("%s IN (SELECT %s FROM %s WHERE %s = %s)",
				idCol, t.q(link.JoinTarget), t.q(link.JoinTable), t.q(link.JoinSelf), b.bind(id))
		}
	}
}

// Relate changes the items connected to id through a relationship field.
// Disconnects are applied before connects.
func (t *sqlTx) Relate(ctx context.Context, list, field, id string, op RelationOp) error {
	link, target, err := t.link(list, field)
	if err != nil {
		return err
	}
	own, err := t.s.meta(list)
	if err != nil {
		return err
	}

	if ok, err := t.exists(ctx, own, id); err != nil {
		return err
	} else if !ok {
		return ErrNotFound
	}

	if !link.Many && len(op.Connect) > 1 {
		return &RelationshipError{List: list, Field: field, Target: link.Target,
			Message: "a to-one relationship accepts a single item"}
	}
	for _, tid := range op.Connect {
		ok, err := t.exists(ctx, target, tid)
		if err != nil {
			return err
		}
		if !ok {
			return &RelationshipError{List: list, Field: field, Target: link.Target, ID: tid}
		}
	}

	reset := op.Set || op.DisconnectAll || (!link.Many && len(op.Connect) > 0)

	switch link.Placement {
	case registry.OwnColumn:
		if reset {
			if err := t.setColumn(ctx, own.table, link.Column, nil, eq{convention.FieldID, id}); err != nil {
				return err
			}
		}
		for _, tid := range op.Disconnect {
			if err := t.setColumn(ctx, own.table, link.Column, nil,
				eq{convention.FieldID, id}, eq{link.Column, tid}); err != nil {
				return err
			}
		}
		for _, tid := range op.Connect {
			if link.Edge.Unique {
				// One-to-one: the target leaves its previous owner.
				if err := t.setColumn(ctx, own.table, link.Column, nil, eq{link.Column, tid}); err != nil {
					return err
				}
			}
			if err := t.setColumn(ctx, own.table, link.Column, tid, eq{convention.FieldID, id}); err != nil {
				return err
			}
		}

	case registry.TargetColumn:
		if reset {
			if err := t.setColumn(ctx, target.table, link.Column, nil, eq{link.Column, id}); err != nil {
				return err
			}
		}
		for _, tid := range op.Disconnect {
			if err := t.setColumn(ctx, target.table, link.Column, nil,
				eq{convention.FieldID, tid}, eq{link.Column, id}); err != nil {
				return err
			}
		}
		for _, tid := range op.Connect {
			if err := t.setColumn(ctx, target.table, link.Column, id, eq{convention.FieldID, tid}); err != nil {
				return err
			}
		}

	case registry.JoinRows:
		if reset {
			if err := t.deleteWhere(ctx, link.JoinTable, eq{link.JoinSelf, id}); err != nil {
				return err
			}
		}
		for _, tid := range op.Disconnect {
			if err := t.deleteWhere(ctx, link.JoinTable, eq{link.JoinSelf, id}, eq{link.JoinTarget, tid}); err != nil {
				return err
			}
		}
		for _, tid := range op.Connect {
			b := t.newBuilder()
			ph := []string{b.bind(id), b.bind(tid)}
			query := t.s.dialect.InsertIgnore(link.JoinTable, []string{link.JoinSelf, link.JoinTarget}, ph)
			if _, err := t.tx.ExecContext(ctx, query, b.args...); err != nil {
				return t.mapError(own, err)
			}
		}
	}

	return nil
}

// checkWrite verifies unique fields and foreign keys before a write so the
// caller gets a typed error naming the field.
func (t *sqlTx) checkWrite(ctx context.Context, m *tableMeta, item Item, selfID string) error {
	for _, c := range m.columns {
		val, ok := item[c.Name]
		if !ok || val == nil {
			continue
		}

		if c.isFK() {
			target, err := t.s.meta(c.Link.Target)
			if err != nil {
				return err
			}
			tid, _ := val.(string)
			found, err := t.exists(ctx, target, tid)
			if err != nil {
				return err
			}
			if !found {
				return &RelationshipError{List: m.derived.Source.Key, Field: c.Name, Target: c.Link.Target, ID: tid}
			}
			continue
		}

		if !c.Field.Unique || c.Name == convention.FieldID {
			continue
		}

		b := t.newBuilder()
		query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
			t.q(convention.FieldID), t.q(m.table), t.q(c.Name), b.bind(toDB(val, c)))
		if selfID != "" {
			query += fmt.Sprintf(" AND %s <> %s", t.q(convention.FieldID), b.bind(selfID))
		}
		query += " LIMIT 1"

		var existing string
		err := t.tx.QueryRowContext(ctx, query, b.args...).Scan(&existing)
		switch {
		case err == nil:
			return schema.NewValidationError(m.derived.Source.Key, c.Name, schema.RuleUnique,
				"value must be unique")
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("check unique %s.%s: %w", m.derived.Source.Key, c.Name, err)
		}
	}
	return nil
}

func (t *sqlTx) exists(ctx context.Context, m *tableMeta, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	b := t.newBuilder()
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = %s",
		t.q(m.table), t.q(convention.FieldID), b.bind(id))
	var one int
	err := t.tx.QueryRowContext(ctx, query, b.args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup %s %q: %w", m.derived.Source.Key, id, err)
	}
	return true, nil
}

// mapError converts driver constraint errors into typed errors.
func (t *sqlTx) mapError(m *tableMeta, err error) error {
	d := t.s.dialect
	switch {
	case d.IsUniqueViolation(err):
		field := ""
		msg := err.Error()
		for _, c := range m.columns {
			if c.Field.Unique && strings.Contains(msg, c.Name) {
				field = c.Name
			}
		}
		return schema.NewValidationError(m.derived.Source.Key, field, schema.RuleUnique, "value must be unique")
	case d.IsForeignKeyViolation(err):
		return &RelationshipError{List: m.derived.Source.Key, Message: "references an item that does not exist"}
	}
	return fmt.Errorf("%s: %w", m.derived.Source.Key, err)
}

// predicate adds a condition on the outer table alias.
type predicate func(b *builder, alias string) string

func (t *sqlTx) selectItems(ctx context.Context, m *tableMeta, q Query, extra predicate) ([]Item, error) {
	b := t.newBuilder()
	alias := b.alias()

	cols := make([]string, len(m.columns))
	for i, c := range m.columns {
		cols[i] = alias + "." + t.q(c.Name)
	}

	where, err := t.whereSQL(b, m, alias, q.Where)
	if err != nil {
		return nil, err
	}
	if extra != nil {
		where = "(" + where + ") AND " + extra(b, alias)
	}

	order, err := t.orderSQL(m, alias, q.OrderBy)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s %s WHERE %s ORDER BY %s",
		strings.Join(cols, ", "), t.q(m.table), alias, where, order)
	if q.Take > 0 {
		query += " LIMIT " + strconv.Itoa(q.Take)
	}
	if q.Skip > 0 {
		if q.Take <= 0 {
			query += " LIMIT 9223372036854775807"
		}
		query += " OFFSET " + strconv.Itoa(q.Skip)
	}

	rows, err := t.tx.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", m.derived.Source.Key, err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		values := make([]any, len(m.columns))
		dest := make([]any, len(m.columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", m.derived.Source.Key, err)
		}
		item := make(Item, len(m.columns))
		for i, c := range m.columns {
			item[c.Name] = fromDB(values[i], c)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", m.derived.Source.Key, err)
	}

	return items, nil
}

func (t *sqlTx) count(ctx context.Context, m *tableMeta, where Filter, extra predicate) (int, error) {
	b := t.newBuilder()
	alias := b.alias()

	cond, err := t.whereSQL(b, m, alias, where)
	if err != nil {
		return 0, err
	}
	if extra != nil {
		cond = "(" + cond + ") AND " + extra(b, alias)
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s %s WHERE %s", t.q(m.table), alias, cond)
	var n int
	if err := t.tx.QueryRowContext(ctx, query, b.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", m.derived.Source.Key, err)
	}
	return n, nil
}

func (t *sqlTx) orderSQL(m *tableMeta, alias string, orders []Order) (string, error) {
	var parts []string
	seenID := false
	for _, o := range orders {
		c, ok := m.byName[o.Field]
		if !ok || !c.Field.Orderable {
			return "", fmt.Errorf("%s: cannot order by %q", m.derived.Source.Key, o.Field)
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts = append(parts, alias+"."+t.q(c.Name)+" "+dir)
		if c.Name == convention.FieldID {
			seenID = true
		}
	}
	if len(parts) == 0 {
		parts = append(parts, alias+"."+t.q(convention.FieldCreatedAt)+" ASC")
	}
	if !seenID {
		// Stable pagination.
		parts = append(parts, alias+"."+t.q(convention.FieldID)+" ASC")
	}
	return strings.Join(parts, ", "), nil
}

// toDB converts a value to its column representation.
func toDB(val any, c column) any {
	if val == nil {
		return nil
	}
	switch c.Kind {
	case schema.KindTimestamp:
		if tm, ok := val.(time.Time); ok {
			return tm.UTC()
		}
	case schema.KindDocument:
		switch v := val.(type) {
		case json.RawMessage:
			return string(v)
		case []byte:
			return string(v)
		}
	}
	return val
}

// fromDB converts a scanned column value into its Go form.
func fromDB(val any, c column) any {
	if val == nil {
		return nil
	}

	switch c.Kind {
	case schema.KindCheckbox:
		switch v := val.(type) {
		case bool:
			return v
		case int64:
			return v != 0
		case []byte:
			s := string(v)
			return s == "1" || strings.EqualFold(s, "true")
		case string:
			return v == "1" || strings.EqualFold(v, "true")
		}
		return false

	case schema.KindTimestamp:
		switch v := val.(type) {
		case time.Time:
			return v.UTC()
		case []byte:
			return parseTime(string(v))
		case string:
			return parseTime(v)
		}
		return val

	case schema.KindDocument:
		switch v := val.(type) {
		case []byte:
			return json.RawMessage(append([]byte(nil), v...))
		case string:
			return json.RawMessage(v)
		}
		return val
	}

	if b, ok := val.([]byte); ok {
		return string(b)
	}
	return val
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTime(s string) any {
	for _, layout := range timeLayouts {
		if tm, err := time.Parse(layout, s); err == nil {
			return tm.UTC()
		}
	}
	return s
}
