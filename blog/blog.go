// Package blog declares the blog list set (Post, User, Tag), binds User as
// the identity list and assembles the system configuration value.
package blog

import (
	"fmt"

	"github.com/artpar/contentgate/config"
	"github.com/artpar/contentgate/core/schema"
)

// Post is an article with an author and tags.
func Post() schema.List {
	return schema.NewList("Post",
		schema.F("title", schema.Text{Validation: schema.TextValidation{IsRequired: true}}),
		schema.F("slug", schema.Text{IsIndexed: schema.IndexUnique, IsFilterable: schema.Bool(true)}),
		schema.F("status", schema.Select{
			Options: []schema.SelectOption{
				{Label: "Published", Value: "published"},
				{Label: "Draft", Value: "draft"},
			},
			UI: schema.SelectUI{DisplayMode: "segmented-control"},
		}),
		schema.F("content", schema.Document{
			Formatting: true,
			Layouts: [][]int{
				{1, 1},
				{1, 1, 1},
				{2, 1},
				{1, 2},
				{1, 2, 1},
			},
			Links:    true,
			Dividers: true,
		}),
		schema.F("publishDate", schema.Timestamp{}),
		schema.F("author", schema.Relationship{
			Ref: "User.posts",
			UI: schema.RelationshipUI{
				DisplayMode:   "cards",
				CardFields:    []string{"name"},
				LinkToItem:    true,
				InlineConnect: true,
			},
		}),
		schema.F("tags", schema.Relationship{
			Ref:  "Tag.posts",
			Many: true,
			UI: schema.RelationshipUI{
				DisplayMode:   "cards",
				CardFields:    []string{"name"},
				InlineEdit:    &schema.InlineScope{Fields: []string{"name"}},
				LinkToItem:    true,
				InlineConnect: true,
				InlineCreate:  &schema.InlineScope{Fields: []string{"name"}},
			},
		}),
	)
}

// User is the identity list.
func User() schema.List {
	return schema.NewList("User",
		schema.F("name", schema.Text{Validation: schema.TextValidation{IsRequired: true}}),
		schema.F("email", schema.Text{IsIndexed: schema.IndexUnique, IsFilterable: schema.Bool(true)}),
		schema.F("password", schema.Password{}),
		schema.F("isAdmin", schema.Checkbox{DefaultValue: false}),
		schema.F("posts", schema.Relationship{Ref: "Post.author", Many: true}),
	).WithUI(schema.ListUI{
		ListView: schema.ListView{InitialColumns: []string{"name", "isAdmin"}},
	})
}

// Tag groups posts.
func Tag() schema.List {
	return schema.NewList("Tag",
		schema.F("name", schema.Text{}),
		schema.F("posts", schema.Relationship{Ref: "Post.tags", Many: true}),
	).WithUI(schema.ListUI{IsHidden: false})
}

// Lists returns the blog list set in declaration order.
func Lists() []schema.List {
	return []schema.List{Post(), User(), Tag()}
}

// Auth binds User as the identity source: email identifies, password is the
// secret, and the first user may be created while the list is empty.
func Auth() schema.Auth {
	return schema.Auth{
		ListKey:       "User",
		IdentityField: "email",
		SecretField:   "password",
		SessionData:   []string{"id", "name", "isAdmin"},
		InitFirstItem: &schema.InitFirstItem{
			Fields: []string{"name", "email", "password", "isAdmin"},
		},
	}
}

// System assembles the configuration value from cfg. When cfg.Lists.Dir is
// set the lists are read from YAML there instead of the built-in set.
func System(cfg *config.Config) (schema.System, error) {
	lists := Lists()
	if cfg.Lists.Dir != "" {
		parsed, err := schema.ParseDir(cfg.Lists.Dir)
		if err != nil {
			return schema.System{}, fmt.Errorf("load lists: %w", err)
		}
		if len(parsed) == 0 {
			return schema.System{}, fmt.Errorf("load lists: no list definitions in %s", cfg.Lists.Dir)
		}
		lists = parsed
	}

	sys := schema.System{
		DB: schema.DB{
			Provider: cfg.Database.Provider,
			URL:      cfg.Database.URL,
		},
		Experimental: schema.Experimental{
			GenerateGraphQLAPI: cfg.Experimental.GenerateGraphQLAPI,
			GenerateNodeAPI:    cfg.Experimental.GenerateNodeAPI,
		},
		Lists: lists,
		Session: schema.Session{
			Secret:     cfg.Session.Secret,
			MaxAge:     cfg.Session.MaxAge,
			CookieName: cfg.Session.CookieName,
			Secure:     cfg.Session.Secure,
		},
	}
	if sys.Session.MaxAge == 0 {
		sys.Session.MaxAge = schema.DefaultSessionMaxAge
	}

	return schema.WithAuth(sys, Auth()), nil
}
