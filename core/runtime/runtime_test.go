package runtime

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/contentgate/adapters/clock"
	"github.com/artpar/contentgate/adapters/hasher"
	"github.com/artpar/contentgate/adapters/idgen"
	"github.com/artpar/contentgate/core/events"
	"github.com/artpar/contentgate/core/registry"
	"github.com/artpar/contentgate/core/schema"
	"github.com/artpar/contentgate/core/storage"
)

func testLists() []schema.List {
	return []schema.List{
		schema.NewList("Post",
			schema.F("title", schema.Text{Validation: schema.TextValidation{IsRequired: true}}),
			schema.F("slug", schema.Text{IsIndexed: schema.IndexUnique}),
			schema.F("status", schema.Select{
				Options: []schema.SelectOption{
					{Label: "Published", Value: "published"},
					{Label: "Draft", Value: "draft"},
				},
				DefaultValue: schema.String("draft"),
			}),
			schema.F("content", schema.Document{Formatting: true}),
			schema.F("publishDate", schema.Timestamp{}),
			schema.F("author", schema.Relationship{Ref: "User.posts"}),
			schema.F("tags", schema.Relationship{Ref: "Tag.posts", Many: true}),
		),
		schema.NewList("User",
			schema.F("name", schema.Text{Validation: schema.TextValidation{IsRequired: true}}),
			schema.F("email", schema.Text{IsIndexed: schema.IndexUnique}),
			schema.F("password", schema.Password{}),
			schema.F("isAdmin", schema.Checkbox{}),
			schema.F("posts", schema.Relationship{Ref: "Post.author", Many: true}),
		),
		schema.NewList("Tag",
			schema.F("name", schema.Text{}),
			schema.F("posts", schema.Relationship{Ref: "Post.tags", Many: true}),
		),
	}
}

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()

	reg, err := registry.Build(testLists()...)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	store, err := storage.Open(storage.ProviderSQLite, ":memory:", reg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	rt, err := New(Config{
		Registry: reg,
		Store:    store,
		Hasher:   hasher.Plain{},
		Clock:    clock.NewTicking(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Second),
		IDs:      idgen.NewSequential("id"),
		Logger:   zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return rt
}

func mustCreate(t *testing.T, rt *Runtime, list string, data map[string]any) Item {
	t.Helper()
	item, err := rt.CreateOne(context.Background(), list, data)
	if err != nil {
		t.Fatalf("CreateOne %s failed: %v", list, err)
	}
	return item
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID()
	}
	return out
}

func sameIDs(got []Item, want ...string) bool {
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

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for empty config")
	}
}

func TestAuthorScenario(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()

	user := mustCreate(t, rt, "User", map[string]any{
		"name": "A", "email": "a@x.com", "password": "p", "isAdmin": true,
	})

	_, err := rt.CreateOne(ctx, "User", map[string]any{"name": "B", "email": "a@x.com"})
	var ve *schema.ValidationError
	if !errors.As(err, &ve) || ve.Field() != "email" || ve.Rule() != schema.RuleUnique {
		t.Fatalf("duplicate email error = %v, want unique ValidationError on email", err)
	}

	post := mustCreate(t, rt, "Post", map[string]any{
		"title":  "T",
		"author": map[string]any{"connect": map[string]any{"id": user.ID()}},
	})

	authors, err := rt.Related(ctx, "Post", "author", post.ID(), FindArgs{})
	if err != nil {
		t.Fatalf("Related author failed: %v", err)
	}
	if len(authors) != 1 || authors[0]["name"] != "A" {
		t.Errorf("Post.author = %v, want user A", authors)
	}

	posts, err := rt.Related(ctx, "User", "posts", user.ID(), FindArgs{})
	if err != nil {
		t.Fatalf("Related posts failed: %v", err)
	}
	if !sameIDs(posts, post.ID()) {
		t.Errorf("User.posts = %v, want [%s]", ids(posts), post.ID())
	}
}

func TestPasswordNeverReturned(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()

	created := mustCreate(t, rt, "User", map[string]any{"name": "A", "email": "a@x.com", "password": "secret"})
	noPassword := mustCreate(t, rt, "User", map[string]any{"name": "B", "email": "b@x.com"})

	if got := created["password"]; got != (schema.PasswordState{IsSet: true}) {
		t.Errorf("created password = %#v, want PasswordState{IsSet: true}", got)
	}
	if got := noPassword["password"]; got != (schema.PasswordState{IsSet: false}) {
		t.Errorf("unset password = %#v, want PasswordState{IsSet: false}", got)
	}

	found, err := rt.FindOne(ctx, "User", map[string]any{"email": "a@x.com"})
	if err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}
	if _, ok := found["password"].(schema.PasswordState); !ok {
		t.Errorf("FindOne password = %#v", found["password"])
	}

	all, _ := rt.FindMany(ctx, "User", FindArgs{})
	for _, u := range all {
		if _, ok := u["password"].(string); ok {
			t.Errorf("FindMany leaked a password value for %s", u.ID())
		}
	}

	if _, err := rt.FindMany(ctx, "User", FindArgs{Where: map[string]any{"password": map[string]any{"equals": "secret"}}}); err == nil {
		t.Error("filtering on a password field should fail")
	}
}

func TestCreate_DefaultsAndValidation(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()

	user := mustCreate(t, rt, "User", map[string]any{"name": "A"})
	if user["isAdmin"] != false {
		t.Errorf("isAdmin default = %v, want false", user["isAdmin"])
	}
	post := mustCreate(t, rt, "Post", map[string]any{"title": "T"})
	if post["status"] != "draft" {
		t.Errorf("status default = %v, want draft", post["status"])
	}
	if _, ok := post["created_at"].(time.Time); !ok {
		t.Errorf("created_at = %#v", post["created_at"])
	}

	tests := []struct {
		name  string
		list  string
		data  map[string]any
		field string
		rule  string
	}{
		{"missing required", "User", map[string]any{"email": "x@x.com"}, "name", schema.RuleRequired},
		{"blank required", "Post", map[string]any{"title": ""}, "title", schema.RuleRequired},
		{"bad select", "Post", map[string]any{"title": "T", "status": "archived"}, "status", schema.RuleOneOf},
		{"unknown field", "Tag", map[string]any{"name": "go", "color": "red"}, "color", schema.RuleUnknownField},
		{"implicit field", "Tag", map[string]any{"name": "go", "id": "mine"}, "id", schema.RuleUnknownField},
		{"password over bcrypt limit", "User", map[string]any{"name": "A", "password": strings.Repeat("p", 80)}, "password", schema.RuleLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rt.CreateOne(ctx, tt.list, tt.data)
			var ve *schema.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if ve.Field() != tt.field || ve.Rule() != tt.rule {
				t.Errorf("field/rule = %s/%s, want %s/%s", ve.Field(), ve.Rule(), tt.field, tt.rule)
			}
		})
	}
}

func TestUpdate_PasswordOverBcryptLimit(t *testing.T) {
	rt := newTestRuntime(t)
	user := mustCreate(t, rt, "User", map[string]any{"name": "A", "password": "pw"})

	_, err := rt.UpdateOne(context.Background(), "User", map[string]any{"id": user.ID()},
		map[string]any{"password": strings.Repeat("p", 80)})
	var ve *schema.ValidationError
	if !errors.As(err, &ve) || ve.Field() != "password" || ve.Rule() != schema.RuleLength {
		t.Fatalf("error = %v, want password length ValidationError", err)
	}
}

func TestCreate_EmptyUniqueTextIsNull(t *testing.T) {
	rt := newTestRuntime(t)
	a := mustCreate(t, rt, "Post", map[string]any{"title": "A", "slug": ""})
	mustCreate(t, rt, "Post", map[string]any{"title": "B", "slug": ""})
	if a["slug"] != nil {
		t.Errorf("slug = %#v, want nil", a["slug"])
	}
}

func TestNestedCreateAndConnect(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()

	goTag := mustCreate(t, rt, "Tag", map[string]any{"name": "go"})
	post := mustCreate(t, rt, "Post", map[string]any{
		"title": "Nested",
		"author": map[string]any{"create": map[string]any{
			"name": "Ada", "email": "ada@example.com",
		}},
		"tags": map[string]any{
			"connect": []any{map[string]any{"id": goTag.ID()}},
			"create":  []any{map[string]any{"name": "sql"}},
		},
	})

	if post["author"] == nil {
		t.Fatal("author was not connected")
	}
	author, err := rt.FindOne(ctx, "User", map[string]any{"email": "ada@example.com"})
	if err != nil {
		t.Fatalf("nested author not created: %v", err)
	}
	if post["author"] != author.ID() {
		t.Errorf("author = %v, want %s", post["author"], author.ID())
	}

	n, err := rt.RelatedCount(ctx, "Post", "tags", post.ID(), nil)
	if err != nil || n != 2 {
		t.Errorf("tag count = %d, %v; want 2", n, err)
	}

	_, err = rt.CreateOne(ctx, "Post", map[string]any{
		"title":  "Dangling",
		"author": map[string]any{"connect": map[string]any{"id": "missing"}},
	})
	var re *storage.RelationshipError
	if !errors.As(err, &re) {
		t.Errorf("connect to missing error = %v, want RelationshipError", err)
	}

	_, err = rt.CreateOne(ctx, "Post", map[string]any{
		"title": "Both",
		"author": map[string]any{
			"connect": map[string]any{"id": author.ID()},
			"create":  map[string]any{"name": "X"},
		},
	})
	var ie *InputError
	if !errors.As(err, &ie) {
		t.Errorf("connect and create error = %v, want InputError", err)
	}

	if total, _ := rt.Count(ctx, "Post", nil); total != 1 {
		t.Errorf("failed creates left %d posts, want 1", total)
	}
}

func TestUpdate_Relationships(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()

	a := mustCreate(t, rt, "Tag", map[string]any{"name": "a"})
	b := mustCreate(t, rt, "Tag", map[string]any{"name": "b"})
	c := mustCreate(t, rt, "Tag", map[string]any{"name": "c"})
	user := mustCreate(t, rt, "User", map[string]any{"name": "U"})
	post := mustCreate(t, rt, "Post", map[string]any{
		"title":  "P",
		"author": map[string]any{"connect": map[string]any{"id": user.ID()}},
		"tags":   map[string]any{"connect": []any{map[string]any{"id": a.ID()}, map[string]any{"id": b.ID()}}},
	})
	where := map[string]any{"id": post.ID()}

	tags := func() []Item {
		items, err := rt.Related(ctx, "Post", "tags", post.ID(), FindArgs{})
		if err != nil {
			t.Fatalf("Related failed: %v", err)
		}
		return items
	}

	if _, err := rt.UpdateOne(ctx, "Post", where, map[string]any{
		"tags": map[string]any{"disconnect": []any{map[string]any{"id": a.ID()}}},
	}); err != nil {
		t.Fatalf("disconnect failed: %v", err)
	}
	if got := tags(); !sameIDs(got, b.ID()) {
		t.Errorf("after disconnect tags = %v", ids(got))
	}

	if _, err := rt.UpdateOne(ctx, "Post", where, map[string]any{
		"tags": map[string]any{"set": []any{map[string]any{"id": c.ID()}}},
	}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if got := tags(); !sameIDs(got, c.ID()) {
		t.Errorf("after set tags = %v", ids(got))
	}

	updated, err := rt.UpdateOne(ctx, "Post", where, map[string]any{
		"title":  "P2",
		"author": map[string]any{"disconnect": true},
	})
	if err != nil {
		t.Fatalf("author disconnect failed: %v", err)
	}
	if updated["title"] != "P2" || updated["author"] != nil {
		t.Errorf("updated = %v", updated)
	}
	if !updated["updated_at"].(time.Time).After(post["updated_at"].(time.Time)) {
		t.Error("updated_at did not advance")
	}

	if _, err := rt.UpdateOne(ctx, "Post", where, map[string]any{"title": ""}); err == nil {
		t.Error("clearing a required field should fail")
	}

	if _, err := rt.UpdateOne(ctx, "Post", map[string]any{"id": "nope"}, map[string]any{"title": "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing error = %v, want ErrNotFound", err)
	}

	if _, err := rt.CreateOne(ctx, "Post", map[string]any{
		"title": "x",
		"tags":  map[string]any{"set": []any{}},
	}); err == nil {
		t.Error("set on create should be rejected")
	}
}

func TestDeleteTagRemovesFromPosts(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()

	tag := mustCreate(t, rt, "Tag", map[string]any{"name": "go"})
	p1 := mustCreate(t, rt, "Post", map[string]any{"title": "1", "tags": map[string]any{"connect": []any{map[string]any{"id": tag.ID()}}}})
	p2 := mustCreate(t, rt, "Post", map[string]any{"title": "2", "tags": map[string]any{"connect": []any{map[string]any{"id": tag.ID()}}}})

	deleted, err := rt.DeleteOne(ctx, "Tag", map[string]any{"id": tag.ID()})
	if err != nil {
		t.Fatalf("DeleteOne failed: %v", err)
	}
	if deleted["name"] != "go" {
		t.Errorf("deleted item = %v", deleted)
	}

	for _, p := range []Item{p1, p2} {
		n, err := rt.RelatedCount(ctx, "Post", "tags", p.ID(), nil)
		if err != nil || n != 0 {
			t.Errorf("post %s tag count = %d, %v; want 0", p.ID(), n, err)
		}
	}

	if _, err := rt.DeleteOne(ctx, "Tag", map[string]any{"id": tag.ID()}); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestFindMany_Where(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()

	ada := mustCreate(t, rt, "User", map[string]any{"name": "Ada"})
	goTag := mustCreate(t, rt, "Tag", map[string]any{"name": "go"})
	p1 := mustCreate(t, rt, "Post", map[string]any{
		"title": "Hello Go", "status": "published", "publishDate": "2024-02-01T00:00:00Z",
		"author": map[string]any{"connect": map[string]any{"id": ada.ID()}},
		"tags":   map[string]any{"connect": []any{map[string]any{"id": goTag.ID()}}},
	})
	p2 := mustCreate(t, rt, "Post", map[string]any{"title": "Drafting", "publishDate": "2024-03-01T00:00:00Z"})
	p3 := mustCreate(t, rt, "Post", map[string]any{"title": "hello again"})

	two := 2
	zero := 0
	tests := []struct {
		name string
		args FindArgs
		want []string
	}{
		{"all", FindArgs{}, []string{p1.ID(), p2.ID(), p3.ID()}},
		{"equals shorthand", FindArgs{Where: map[string]any{"status": "published"}}, []string{p1.ID()}},
		{"contains insensitive", FindArgs{Where: map[string]any{"title": map[string]any{"contains": "HELLO", "mode": "insensitive"}}}, []string{p1.ID(), p3.ID()}},
		{"not equals", FindArgs{Where: map[string]any{"status": map[string]any{"not": map[string]any{"equals": "draft"}}}}, []string{p1.ID()}},
		{"in", FindArgs{Where: map[string]any{"status": map[string]any{"in": []any{"draft"}}}}, []string{p2.ID(), p3.ID()}},
		{"timestamp gt", FindArgs{Where: map[string]any{"publishDate": map[string]any{"gt": "2024-02-15T00:00:00Z"}}}, []string{p2.ID()}},
		{"author", FindArgs{Where: map[string]any{"author": map[string]any{"name": map[string]any{"equals": "Ada"}}}}, []string{p1.ID()}},
		{"no author", FindArgs{Where: map[string]any{"author": nil}}, []string{p2.ID(), p3.ID()}},
		{"tags some", FindArgs{Where: map[string]any{"tags": map[string]any{"some": map[string]any{"name": map[string]any{"equals": "go"}}}}}, []string{p1.ID()}},
		{"tags none", FindArgs{Where: map[string]any{"tags": map[string]any{"none": map[string]any{}}}}, []string{p2.ID(), p3.ID()}},
		{"OR", FindArgs{Where: map[string]any{"OR": []any{
			map[string]any{"title": map[string]any{"equals": "Drafting"}},
			map[string]any{"status": map[string]any{"equals": "published"}},
		}}}, []string{p1.ID(), p2.ID()}},
		{"NOT", FindArgs{Where: map[string]any{"NOT": []any{map[string]any{"status": "draft"}}}}, []string{p1.ID()}},
		{"order and take", FindArgs{OrderBy: []map[string]any{{"title": "desc"}}, Take: &two}, []string{p3.ID(), p1.ID()}},
		{"take zero", FindArgs{Take: &zero}, []string{}},
		{"skip", FindArgs{Skip: 2}, []string{p3.ID()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rt.FindMany(ctx, "Post", tt.args)
			if err != nil {
				t.Fatalf("FindMany failed: %v", err)
			}
			if !sameIDs(got, tt.want...) {
				t.Errorf("got %v, want %v", ids(got), tt.want)
			}
		})
	}

	count, err := rt.Count(ctx, "Post", map[string]any{"status": map[string]any{"equals": "draft"}})
	if err != nil || count != 2 {
		t.Errorf("Count = %d, %v; want 2", count, err)
	}
}

func TestInputErrors(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()
	neg := -1

	tests := []struct {
		name string
		call func() error
	}{
		{"unknown list", func() error { _, err := rt.FindMany(ctx, "Comment", FindArgs{}); return err }},
		{"unknown where field", func() error {
			_, err := rt.FindMany(ctx, "Post", FindArgs{Where: map[string]any{"nope": "x"}})
			return err
		}},
		{"unknown operator", func() error {
			_, err := rt.FindMany(ctx, "Post", FindArgs{Where: map[string]any{"title": map[string]any{"like": "x"}}})
			return err
		}},
		{"insensitive on select", func() error {
			_, err := rt.FindMany(ctx, "Post", FindArgs{Where: map[string]any{"status": map[string]any{"equals": "draft", "mode": "insensitive"}}})
			return err
		}},
		{"bad order direction", func() error {
			_, err := rt.FindMany(ctx, "Post", FindArgs{OrderBy: []map[string]any{{"title": "up"}}})
			return err
		}},
		{"negative take", func() error { _, err := rt.FindMany(ctx, "Post", FindArgs{Take: &neg}); return err }},
		{"non-unique where", func() error { _, err := rt.FindOne(ctx, "Post", map[string]any{"title": "x"}); return err }},
		{"two unique keys", func() error {
			_, err := rt.FindOne(ctx, "User", map[string]any{"id": "x", "email": "y"})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ie *InputError
			if err := tt.call(); !errors.As(err, &ie) {
				t.Errorf("error = %v, want InputError", err)
			}
		})
	}
}

func TestCreateFirst(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()

	if _, err := rt.CreateFirst(ctx, "User", map[string]any{"name": "First"}); err != nil {
		t.Fatalf("first CreateFirst failed: %v", err)
	}
	if _, err := rt.CreateFirst(ctx, "User", map[string]any{"name": "Second"}); !errors.Is(err, ErrNotEmpty) {
		t.Errorf("second CreateFirst error = %v, want ErrNotEmpty", err)
	}
	if n, _ := rt.Count(ctx, "User", nil); n != 1 {
		t.Errorf("user count = %d, want 1", n)
	}
}

func TestCreateMany_Atomic(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()

	_, err := rt.CreateMany(ctx, "User", []map[string]any{
		{"name": "A", "email": "same@x.com"},
		{"name": "B", "email": "same@x.com"},
	})
	if err == nil {
		t.Fatal("expected unique violation")
	}
	if n, _ := rt.Count(ctx, "User", nil); n != 0 {
		t.Errorf("user count = %d after failed CreateMany, want 0", n)
	}

	items, err := rt.Query("Tag").CreateMany(ctx, []map[string]any{{"name": "a"}, {"name": "b"}})
	if err != nil || len(items) != 2 {
		t.Fatalf("CreateMany = %v, %v", items, err)
	}

	updated, err := rt.Query("Tag").UpdateMany(ctx, []UpdateArgs{
		{Where: map[string]any{"id": items[0].ID()}, Data: map[string]any{"name": "a2"}},
		{Where: map[string]any{"id": items[1].ID()}, Data: map[string]any{"name": "b2"}},
	})
	if err != nil || updated[0]["name"] != "a2" || updated[1]["name"] != "b2" {
		t.Errorf("UpdateMany = %v, %v", updated, err)
	}

	deleted, err := rt.Query("Tag").DeleteMany(ctx, []map[string]any{{"id": items[0].ID()}, {"id": items[1].ID()}})
	if err != nil || len(deleted) != 2 {
		t.Errorf("DeleteMany = %v, %v", deleted, err)
	}
}

func TestHooksAndEvents(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := WithActor(context.Background(), "admin-1")

	var got []events.Event
	rt.Events().Subscribe("*", func(ctx context.Context, e events.Event) error {
		got = append(got, e)
		return nil
	})

	rt.OnHook("Tag", OpCreate, PhaseBefore, func(ctx context.Context, e HookEvent) error {
		if e.Input["name"] == "forbidden" {
			return errors.New("name not allowed")
		}
		e.Input["name"] = e.Input["name"].(string) + "!"
		return nil
	})
	var after Item
	rt.OnHook("Tag", OpCreate, PhaseAfter, func(ctx context.Context, e HookEvent) error {
		after = e.Item
		return nil
	})

	tag, err := rt.CreateOne(ctx, "Tag", map[string]any{"name": "go"})
	if err != nil {
		t.Fatalf("CreateOne failed: %v", err)
	}
	if tag["name"] != "go!" {
		t.Errorf("before hook change not applied: %v", tag["name"])
	}
	if after.ID() != tag.ID() {
		t.Errorf("after hook item = %v", after)
	}

	if _, err := rt.CreateOne(ctx, "Tag", map[string]any{"name": "forbidden"}); err == nil {
		t.Error("before hook should reject the write")
	}
	if n, _ := rt.Count(ctx, "Tag", nil); n != 1 {
		t.Errorf("tag count = %d, want 1", n)
	}

	mustCreate(t, rt, "User", map[string]any{"name": "U", "password": "pw"})

	if len(got) != 2 {
		t.Fatalf("events = %d, want 2 (rejected writes publish nothing)", len(got))
	}
	if got[0].Name != "tag.created" || got[0].Actor != "admin-1" {
		t.Errorf("first event = %+v", got[0])
	}
	if _, ok := got[1].Item["password"].(schema.PasswordState); !ok {
		t.Errorf("event item leaked password: %#v", got[1].Item["password"])
	}
}
