package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/contentgate/core/registry"
	"github.com/artpar/contentgate/core/schema"
)

func blogLists() []schema.List {
	return []schema.List{
		schema.NewList("User",
			schema.F("name", schema.Text{Validation: schema.TextValidation{IsRequired: true}}),
			schema.F("email", schema.Text{IsIndexed: schema.IndexUnique}),
			schema.F("password", schema.Password{}),
			schema.F("posts", schema.Relationship{Ref: "Post.author", Many: true}),
		),
		schema.NewList("Post",
			schema.F("title", schema.Text{}),
			schema.F("status", schema.Select{Options: []schema.SelectOption{
				{Label: "Draft", Value: "draft"},
				{Label: "Published", Value: "published"},
			}}),
			schema.F("content", schema.Document{}),
			schema.F("publishDate", schema.Timestamp{}),
			schema.F("author", schema.Relationship{Ref: "User.posts"}),
			schema.F("tags", schema.Relationship{Ref: "Tag.posts", Many: true}),
		),
		schema.NewList("Tag",
			schema.F("name", schema.Text{}),
			schema.F("posts", schema.Relationship{Ref: "Post.tags", Many: true}),
		),
	}
}

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()

	reg, err := registry.Build(blogLists()...)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	store, err := Open(ProviderSQLite, ":memory:", reg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return store
}

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// insert writes an item with timestamps offset from base by n seconds.
func insert(t *testing.T, s *SQLStore, list string, n int, item Item) {
	t.Helper()
	ts := base.Add(time.Duration(n) * time.Second)
	item["created_at"] = ts
	item["updated_at"] = ts
	err := s.Tx(context.Background(), func(tx Tx) error {
		return tx.Insert(context.Background(), list, item)
	})
	if err != nil {
		t.Fatalf("Insert %s failed: %v", list, err)
	}
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID()
	}
	return out
}

func equalIDs(got []Item, want ...string) bool {
	g := ids(got)
	if len(g) != len(want) {
		return false
	}
	for i := range g {
		if g[i] != want[i] {
			return false
		}
	}
	return true
}

func seedBlog(t *testing.T, s *SQLStore) {
	t.Helper()
	insert(t, s, "User", 0, Item{"id": "u1", "name": "Ada", "email": "ada@example.com", "password": "hash"})
	insert(t, s, "User", 1, Item{"id": "u2", "name": "Bob", "email": "bob@example.com"})
	insert(t, s, "Post", 2, Item{"id": "p1", "title": "Hello World", "status": "published", "author": "u1"})
	insert(t, s, "Post", 3, Item{"id": "p2", "title": "Second", "status": "draft", "author": "u1"})
	insert(t, s, "Post", 4, Item{"id": "p3", "title": "Orphan 100%", "status": "draft"})
	insert(t, s, "Tag", 5, Item{"id": "t1", "name": "go"})
	insert(t, s, "Tag", 6, Item{"id": "t2", "name": "sql"})

	ctx := context.Background()
	err := s.Tx(ctx, func(tx Tx) error {
		if err := tx.Relate(ctx, "Post", "tags", "p1", RelationOp{Connect: []string{"t1", "t2"}}); err != nil {
			return err
		}
		return tx.Relate(ctx, "Post", "tags", "p2", RelationOp{Connect: []string{"t1"}})
	})
	if err != nil {
		t.Fatalf("seed relate failed: %v", err)
	}
}

func TestSQLStore_MigrateIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
}

func TestSQLStore_InsertAndFind(t *testing.T) {
	s := newTestStore(t)
	seedBlog(t, s)
	ctx := context.Background()

	err := s.Tx(ctx, func(tx Tx) error {
		u, err := tx.FindOne(ctx, "User", "email", "ada@example.com")
		if err != nil {
			return err
		}
		if u["name"] != "Ada" {
			t.Errorf("name = %v, want Ada", u["name"])
		}
		created, ok := u["created_at"].(time.Time)
		if !ok || !created.Equal(base) {
			t.Errorf("created_at = %v, want %v", u["created_at"], base)
		}

		p, err := tx.FindOne(ctx, "Post", "id", "p1")
		if err != nil {
			return err
		}
		if p["author"] != "u1" {
			t.Errorf("author = %v, want u1", p["author"])
		}

		if _, err := tx.FindOne(ctx, "User", "id", "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("FindOne missing error = %v, want ErrNotFound", err)
		}
		if _, err := tx.FindOne(ctx, "User", "name", "Ada"); err == nil {
			t.Error("FindOne on a non-unique field should fail")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Tx failed: %v", err)
	}
}

func TestSQLStore_DocumentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	doc := `[{"type":"paragraph","children":[{"text":"hi"}]}]`
	insert(t, s, "Post", 0, Item{"id": "p1", "content": doc})

	ctx := context.Background()
	s.Tx(ctx, func(tx Tx) error {
		p, err := tx.FindOne(ctx, "Post", "id", "p1")
		if err != nil {
			t.Fatalf("FindOne failed: %v", err)
		}
		raw, ok := p["content"].(json.RawMessage)
		if !ok || string(raw) != doc {
			t.Errorf("content = %v, want %s", p["content"], doc)
		}
		return nil
	})
}

func TestSQLStore_UniqueViolation(t *testing.T) {
	s := newTestStore(t)
	seedBlog(t, s)
	ctx := context.Background()

	err := s.Tx(ctx, func(tx Tx) error {
		return tx.Insert(ctx, "User", Item{
			"id": "u3", "name": "Eve", "email": "ada@example.com",
			"created_at": base, "updated_at": base,
		})
	})

	var ve *schema.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if ve.Field() != "email" || ve.Rule() != schema.RuleUnique {
		t.Errorf("field/rule = %s/%s, want email/unique", ve.Field(), ve.Rule())
	}

	// Updating an item to its own value is not a conflict.
	err = s.Tx(ctx, func(tx Tx) error {
		return tx.Update(ctx, "User", "u1", Item{"email": "ada@example.com"})
	})
	if err != nil {
		t.Errorf("self update failed: %v", err)
	}

	err = s.Tx(ctx, func(tx Tx) error {
		return tx.Update(ctx, "User", "u2", Item{"email": "ada@example.com"})
	})
	if !errors.As(err, &ve) {
		t.Errorf("update conflict error = %v, want ValidationError", err)
	}
}

func TestSQLStore_UpdateAndDeleteMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Tx(ctx, func(tx Tx) error {
		return tx.Update(ctx, "User", "nope", Item{"name": "x"})
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update error = %v, want ErrNotFound", err)
	}

	err = s.Tx(ctx, func(tx Tx) error {
		return tx.Delete(ctx, "User", "nope")
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete error = %v, want ErrNotFound", err)
	}
}

func TestSQLStore_FindMany(t *testing.T) {
	s := newTestStore(t)
	seedBlog(t, s)
	ctx := context.Background()

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"default order", Query{}, []string{"p1", "p2", "p3"}},
		{"order desc", Query{OrderBy: []Order{{Field: "title", Desc: true}}}, []string{"p2", "p3", "p1"}},
		{"take skip", Query{Take: 1, Skip: 1}, []string{"p2"}},
		{"skip only", Query{Skip: 2}, []string{"p3"}},
		{"equals", Query{Where: Where(Eq("status", "draft"))}, []string{"p2", "p3"}},
		{"equals nil", Query{Where: Where(Eq("publishDate", nil))}, []string{"p1", "p2", "p3"}},
		{"not", Query{Where: Where(Condition{Field: "status", Op: OpNotEquals, Value: "draft"})}, []string{"p1"}},
		{"in", Query{Where: Where(Condition{Field: "id", Op: OpIn, Value: []string{"p3", "p1"}})}, []string{"p1", "p3"}},
		{"in empty", Query{Where: Where(Condition{Field: "id", Op: OpIn, Value: []any{}})}, []string{}},
		{"notIn empty", Query{Where: Where(Condition{Field: "id", Op: OpNotIn, Value: []any{}})}, []string{"p1", "p2", "p3"}},
		{"contains insensitive", Query{Where: Where(Condition{Field: "title", Op: OpContains, Value: "WORLD", Insensitive: true})}, []string{"p1"}},
		{"contains wildcard literal", Query{Where: Where(Condition{Field: "title", Op: OpContains, Value: "100%"})}, []string{"p3"}},
		{"startsWith", Query{Where: Where(Condition{Field: "title", Op: OpStartsWith, Value: "Sec"})}, []string{"p2"}},
		{"endsWith", Query{Where: Where(Condition{Field: "title", Op: OpEndsWith, Value: "World"})}, []string{"p1"}},
		{"gt created_at", Query{Where: Where(Condition{Field: "created_at", Op: OpGt, Value: base.Add(3 * time.Second)})}, []string{"p3"}},
		{"or", Query{Where: Or(Where(Eq("id", "p1")), Where(Eq("id", "p3")))}, []string{"p1", "p3"}},
		{"or empty", Query{Where: Filter{Or: []Filter{}}}, []string{}},
		{"not filter", Query{Where: Not(Where(Eq("status", "draft")))}, []string{"p1"}},
		{"author is", Query{Where: Where(Condition{Field: "author", Op: OpIs, Value: Where(Eq("name", "Ada"))})}, []string{"p1", "p2"}},
		{"author is null", Query{Where: Where(Condition{Field: "author", Op: OpIs, Value: nil})}, []string{"p3"}},
		{"tags some", Query{Where: Where(Condition{Field: "tags", Op: OpSome, Value: Where(Eq("name", "sql"))})}, []string{"p1"}},
		{"tags none", Query{Where: Where(Condition{Field: "tags", Op: OpNone, Value: Where(Eq("name", "go"))})}, []string{"p3"}},
		{"tags every", Query{Where: Where(Condition{Field: "tags", Op: OpEvery, Value: Where(Eq("name", "go"))})}, []string{"p2", "p3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Tx(ctx, func(tx Tx) error {
				got, err := tx.FindMany(ctx, "Post", tt.query)
				if err != nil {
					return err
				}
				if !equalIDs(got, tt.want...) {
					t.Errorf("got %v, want %v", ids(got), tt.want)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("FindMany failed: %v", err)
			}
		})
	}
}

func TestSQLStore_FilterErrors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query Query
	}{
		{"unknown field", Query{Where: Where(Eq("nope", 1))}},
		{"password not filterable", Query{Where: Where(Eq("password", "x"))}},
		{"unknown order field", Query{OrderBy: []Order{{Field: "posts"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Tx(ctx, func(tx Tx) error {
				_, err := tx.FindMany(ctx, "User", tt.query)
				return err
			})
			if err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSQLStore_RelatedAndCount(t *testing.T) {
	s := newTestStore(t)
	seedBlog(t, s)
	ctx := context.Background()

	err := s.Tx(ctx, func(tx Tx) error {
		posts, err := tx.Related(ctx, "User", "posts", "u1", Query{})
		if err != nil {
			return err
		}
		if !equalIDs(posts, "p1", "p2") {
			t.Errorf("User.posts = %v, want [p1 p2]", ids(posts))
		}

		authors, err := tx.Related(ctx, "Post", "author", "p2", Query{})
		if err != nil {
			return err
		}
		if !equalIDs(authors, "u1") {
			t.Errorf("Post.author = %v, want [u1]", ids(authors))
		}

		tagPosts, err := tx.Related(ctx, "Tag", "posts", "t1", Query{Where: Where(Eq("status", "draft"))})
		if err != nil {
			return err
		}
		if !equalIDs(tagPosts, "p2") {
			t.Errorf("Tag.posts = %v, want [p2]", ids(tagPosts))
		}

		n, err := tx.RelatedCount(ctx, "Post", "tags", "p1", Filter{})
		if err != nil {
			return err
		}
		if n != 2 {
			t.Errorf("RelatedCount = %d, want 2", n)
		}

		total, err := tx.Count(ctx, "Post", Where(Eq("status", "draft")))
		if err != nil {
			return err
		}
		if total != 2 {
			t.Errorf("Count = %d, want 2", total)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Tx failed: %v", err)
	}
}

func TestSQLStore_Relate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		list  string
		field string
		id    string
		op    RelationOp
		check string
		want  []string
	}{
		{"set replaces join rows", "Post", "tags", "p1", RelationOp{Set: true, Connect: []string{"t2"}}, "p1", []string{"t2"}},
		{"disconnect join row", "Post", "tags", "p1", RelationOp{Disconnect: []string{"t1"}}, "p1", []string{"t2"}},
		{"connect is idempotent", "Post", "tags", "p2", RelationOp{Connect: []string{"t1"}}, "p2", []string{"t1"}},
		{"disconnect all", "Post", "tags", "p1", RelationOp{DisconnectAll: true}, "p1", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			seedBlog(t, s)
			err := s.Tx(ctx, func(tx Tx) error {
				if err := tx.Relate(ctx, tt.list, tt.field, tt.id, tt.op); err != nil {
					return err
				}
				got, err := tx.Related(ctx, tt.list, tt.field, tt.check, Query{})
				if err != nil {
					return err
				}
				if !equalIDs(got, tt.want...) {
					t.Errorf("got %v, want %v", ids(got), tt.want)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("Relate failed: %v", err)
			}
		})
	}
}

func TestSQLStore_RelateForeignKeySides(t *testing.T) {
	s := newTestStore(t)
	seedBlog(t, s)
	ctx := context.Background()

	err := s.Tx(ctx, func(tx Tx) error {
		// Connect from the side without the column.
		if err := tx.Relate(ctx, "User", "posts", "u2", RelationOp{Connect: []string{"p3", "p2"}}); err != nil {
			return err
		}
		posts, err := tx.Related(ctx, "User", "posts", "u2", Query{})
		if err != nil {
			return err
		}
		if !equalIDs(posts, "p2", "p3") {
			t.Errorf("u2 posts = %v, want [p2 p3]", ids(posts))
		}

		// Reassign a to-one from the owning side.
		if err := tx.Relate(ctx, "Post", "author", "p3", RelationOp{Connect: []string{"u1"}}); err != nil {
			return err
		}
		p3, err := tx.FindOne(ctx, "Post", "id", "p3")
		if err != nil {
			return err
		}
		if p3["author"] != "u1" {
			t.Errorf("p3 author = %v, want u1", p3["author"])
		}

		if err := tx.Relate(ctx, "User", "posts", "u2", RelationOp{Disconnect: []string{"p3"}}); err != nil {
			return err
		}
		// p3 belongs to u1 now, so disconnecting it from u2 is a no-op.
		p3, _ = tx.FindOne(ctx, "Post", "id", "p3")
		if p3["author"] != "u1" {
			t.Errorf("p3 author after foreign disconnect = %v, want u1", p3["author"])
		}

		if err := tx.Relate(ctx, "Post", "author", "p3", RelationOp{DisconnectAll: true}); err != nil {
			return err
		}
		p3, _ = tx.FindOne(ctx, "Post", "id", "p3")
		if p3["author"] != nil {
			t.Errorf("p3 author after disconnect = %v, want nil", p3["author"])
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Tx failed: %v", err)
	}
}

func TestSQLStore_RelateErrors(t *testing.T) {
	s := newTestStore(t)
	seedBlog(t, s)
	ctx := context.Background()

	err := s.Tx(ctx, func(tx Tx) error {
		return tx.Relate(ctx, "Post", "tags", "p1", RelationOp{Connect: []string{"missing"}})
	})
	var re *RelationshipError
	if !errors.As(err, &re) || re.ID != "missing" {
		t.Errorf("missing target error = %v, want RelationshipError", err)
	}

	err = s.Tx(ctx, func(tx Tx) error {
		return tx.Relate(ctx, "Post", "author", "p1", RelationOp{Connect: []string{"u1", "u2"}})
	})
	if !errors.As(err, &re) {
		t.Errorf("to-one with two items error = %v, want RelationshipError", err)
	}

	err = s.Tx(ctx, func(tx Tx) error {
		return tx.Insert(ctx, "Post", Item{"id": "p9", "author": "ghost", "created_at": base, "updated_at": base})
	})
	if !errors.As(err, &re) || re.Field != "author" {
		t.Errorf("insert with dangling author error = %v, want RelationshipError", err)
	}

	err = s.Tx(ctx, func(tx Tx) error {
		return tx.Relate(ctx, "Post", "tags", "nope", RelationOp{Connect: []string{"t1"}})
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("relate on missing item error = %v, want ErrNotFound", err)
	}
}

func TestSQLStore_DeleteDetachesEdges(t *testing.T) {
	s := newTestStore(t)
	seedBlog(t, s)
	ctx := context.Background()

	err := s.Tx(ctx, func(tx Tx) error {
		if err := tx.Delete(ctx, "Tag", "t1"); err != nil {
			return err
		}
		tags, err := tx.Related(ctx, "Post", "tags", "p1", Query{})
		if err != nil {
			return err
		}
		if !equalIDs(tags, "t2") {
			t.Errorf("p1 tags = %v, want [t2]", ids(tags))
		}

		if err := tx.Delete(ctx, "User", "u1"); err != nil {
			return err
		}
		p1, err := tx.FindOne(ctx, "Post", "id", "p1")
		if err != nil {
			return err
		}
		if p1["author"] != nil {
			t.Errorf("p1 author = %v, want nil", p1["author"])
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Tx failed: %v", err)
	}
}

func TestSQLStore_TxRollback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Tx(ctx, func(tx Tx) error {
		if err := tx.Insert(ctx, "Tag", Item{"id": "t1", "name": "go", "created_at": base, "updated_at": base}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Tx error = %v, want boom", err)
	}

	s.Tx(ctx, func(tx Tx) error {
		n, err := tx.Count(ctx, "Tag", Filter{})
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if n != 0 {
			t.Errorf("Count = %d after rollback, want 0", n)
		}
		return nil
	})
}
