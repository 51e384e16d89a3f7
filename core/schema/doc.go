/*
Package schema defines the declarative list configuration.

A list is a named entity type (like a table) with an ordered set of typed
fields. Field kinds form a closed set; each kind carries its own typed options
and is resolved when the schema is built, never inspected dynamically.

# List Definition

A list definition in YAML:

	list: Post

	fields:
	  title:   { type: text, validation: { is_required: true } }
	  slug:    { type: text, is_indexed: unique, is_filterable: true }
	  status:
	    type: select
	    options:
	      - { label: Published, value: published }
	      - { label: Draft, value: draft }
	    ui: { display_mode: segmented-control }
	  content:
	    type: document
	    formatting: true
	    layouts: [[1, 1], [1, 1, 1]]
	    links: true
	    dividers: true
	  publishDate: { type: timestamp }
	  author:  { type: relationship, ref: User.posts }
	  tags:    { type: relationship, ref: Tag.posts, many: true }

	ui:
	  list_view: { initial_columns: [title, status] }

# Field Kinds

  - text:         Text value with optional required/length/match validation
  - password:     Secret, hashed at rest, write-only
  - timestamp:    Date/time value
  - checkbox:     Boolean value, default false
  - select:       One of a fixed set of options
  - document:     Rich document (JSON tree) with feature flags
  - relationship: Edge to another list, to-one or to-many

# Relationships

A relationship names its target as "List" (one-sided) or "List.field"
(two-sided). Two-sided relationships must name each other; the registry
builds and validates the edge table when the configuration is loaded.

# Parsing

	list, err := schema.ParseFile("lists/post.yaml")
	lists, err := schema.ParseDir("lists/")

All lists are validated on parse. Invalid lists return an error.
*/
package schema
