// Package storage persists list items in a SQL database. Tables, foreign key
// columns and join tables are derived from the registry's lists and edges.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Item is a stored item keyed by field name. To-one relationship fields whose
// foreign key lives on the item's own table hold the target id or nil.
type Item map[string]any

// ID returns the item id.
func (i Item) ID() string {
	id, _ := i["id"].(string)
	return id
}

// Store is the persistence boundary.
type Store interface {
	// Migrate creates tables, indexes and join tables for the registry.
	Migrate(ctx context.Context) error

	// Tx runs fn in one read-committed transaction. The transaction commits
	// when fn returns nil and rolls back otherwise.
	Tx(ctx context.Context, fn func(Tx) error) error

	// Close closes the storage connection.
	Close() error
}

// Tx provides item operations inside a transaction.
type Tx interface {
	// Insert writes a new item. The item must carry its id.
	Insert(ctx context.Context, list string, item Item) error

	// Update changes the given columns of an item.
	Update(ctx context.Context, list, id string, changes Item) error

	// Delete removes an item and every edge that references it.
	Delete(ctx context.Context, list, id string) error

	// FindOne looks up an item by a unique field.
	FindOne(ctx context.Context, list, field string, value any) (Item, error)

	// FindMany returns the items matching the query.
	FindMany(ctx context.Context, list string, q Query) ([]Item, error)

	// Count returns the number of items matching the filter.
	Count(ctx context.Context, list string, where Filter) (int, error)

	// Related returns the items connected to id through a relationship field.
	Related(ctx context.Context, list, field, id string, q Query) ([]Item, error)

	// RelatedCount counts the items connected to id through a relationship field.
	RelatedCount(ctx context.Context, list, field, id string, where Filter) (int, error)

	// Relate changes the items connected to id through a relationship field.
	Relate(ctx context.Context, list, field, id string, op RelationOp) error
}

// Query selects items.
type Query struct {
	Where   Filter
	OrderBy []Order

	// Take limits the result; zero means no limit.
	Take int
	Skip int
}

// Order sorts by one field.
type Order struct {
	Field string
	Desc  bool
}

// RelationOp describes a change to a relationship.
type RelationOp struct {
	// Set replaces every connection with Connect when true.
	Set bool

	Connect    []string
	Disconnect []string

	// DisconnectAll clears the relationship.
	DisconnectAll bool
}

// ErrNotFound is returned when an item does not exist.
var ErrNotFound = errors.New("item not found")

// RelationshipError is returned when a write references an item that does
// not exist, or violates relationship cardinality.
type RelationshipError struct {
	List    string
	Field   string
	Target  string
	ID      string
	Message string
}

func (e *RelationshipError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s.%s: %s", e.List, e.Field, e.Message)
	}
	return fmt.Sprintf("%s.%s: %s %q does not exist", e.List, e.Field, e.Target, e.ID)
}

// Extensions exposes the error to GraphQL clients.
func (e *RelationshipError) Extensions() map[string]any {
	return map[string]any{
		"code":   "RELATIONSHIP_ERROR",
		"list":   e.List,
		"field":  e.Field,
		"target": e.Target,
	}
}
