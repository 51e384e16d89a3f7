// Package document implements the rich document field: a JSON tree of element
// nodes and text leaves whose allowed features are set per field.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/artpar/contentgate/core/schema"
)

// Element types.
const (
	TypeParagraph       = "paragraph"
	TypeHeading         = "heading"
	TypeBlockquote      = "blockquote"
	TypeCode            = "code"
	TypeOrderedList     = "ordered-list"
	TypeUnorderedList   = "unordered-list"
	TypeListItem        = "list-item"
	TypeListItemContent = "list-item-content"
	TypeLayout          = "layout"
	TypeLayoutArea      = "layout-area"
	TypeLink            = "link"
	TypeDivider         = "divider"
)

// Node is an element ({type, children, ...}) or a text leaf ({text, marks}).
type Node struct {
	Type     string `json:"type,omitempty"`
	Children []Node `json:"children,omitempty"`

	// Element attributes.
	Level     int    `json:"level,omitempty"`
	TextAlign string `json:"textAlign,omitempty"`
	Href      string `json:"href,omitempty"`
	Layout    []int  `json:"layout,omitempty"`

	// Text leaf.
	Text          *string `json:"text,omitempty"`
	Bold          bool    `json:"bold,omitempty"`
	Italic        bool    `json:"italic,omitempty"`
	Underline     bool    `json:"underline,omitempty"`
	Strikethrough bool    `json:"strikethrough,omitempty"`
	Code          bool    `json:"code,omitempty"`
	Superscript   bool    `json:"superscript,omitempty"`
	Subscript     bool    `json:"subscript,omitempty"`
	Keyboard      bool    `json:"keyboard,omitempty"`
}

// IsText reports whether the node is a text leaf.
func (n Node) IsText() bool {
	return n.Text != nil
}

func (n Node) hasMarks() bool {
	return n.Bold || n.Italic || n.Underline || n.Strikethrough ||
		n.Code || n.Superscript || n.Subscript || n.Keyboard
}

// Empty returns the canonical empty document: one empty paragraph.
func Empty() []Node {
	empty := ""
	return []Node{{Type: TypeParagraph, Children: []Node{{Text: &empty}}}}
}

// Decode reads a document from JSON text, raw bytes or an already decoded
// JSON value. Unknown attributes are rejected.
func Decode(v any) ([]Node, error) {
	var data []byte
	switch val := v.(type) {
	case nil:
		return Empty(), nil
	case string:
		data = []byte(val)
	case []byte:
		data = val
	case json.RawMessage:
		data = val
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("encode document: %w", err)
		}
		data = b
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var nodes []Node
	if err := dec.Decode(&nodes); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if len(nodes) == 0 {
		return Empty(), nil
	}
	return nodes, nil
}

// Normalize decodes, validates and re-encodes a document into the JSON
// stored in the column.
func Normalize(v any, opts schema.Document) (json.RawMessage, error) {
	nodes, err := Decode(v)
	if err != nil {
		return nil, err
	}
	if err := Validate(nodes, opts); err != nil {
		return nil, err
	}
	out, err := json.Marshal(nodes)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return out, nil
}

// Error locates a validation failure inside a document.
type Error struct {
	Path    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("document %s: %s", e.Path, e.Message)
}

// Validate checks the tree against the features enabled for the field.
func Validate(nodes []Node, opts schema.Document) error {
	v := validator{opts: opts}
	for i, n := range nodes {
		if err := v.block(n, fmt.Sprintf("[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

type validator struct {
	opts schema.Document
}

func fail(path, format string, args ...any) error {
	return &Error{Path: path, Message: fmt.Sprintf(format, args...)}
}

// block validates a block-level element.
func (v validator) block(n Node, path string) error {
	if n.IsText() {
		return fail(path, "text must be inside a block element")
	}

	switch n.Type {
	case TypeParagraph:
		if n.TextAlign != "" {
			if err := v.alignment(n, path); err != nil {
				return err
			}
		}
		return v.inlines(n.Children, path)

	case TypeHeading:
		if err := v.requireFormatting(n, path); err != nil {
			return err
		}
		if n.Level < 1 || n.Level > 6 {
			return fail(path, "heading level must be between 1 and 6")
		}
		if n.TextAlign != "" {
			if err := v.alignment(n, path); err != nil {
				return err
			}
		}
		return v.inlines(n.Children, path)

	case TypeBlockquote:
		if err := v.requireFormatting(n, path); err != nil {
			return err
		}
		return v.blocks(n.Children, path)

	case TypeCode:
		if err := v.requireFormatting(n, path); err != nil {
			return err
		}
		for i, c := range n.Children {
			if !c.IsText() || c.hasMarks() {
				return fail(fmt.Sprintf("%s.children[%d]", path, i), "code blocks contain plain text only")
			}
		}
		return v.nonEmpty(n, path)

	case TypeOrderedList, TypeUnorderedList:
		if err := v.requireFormatting(n, path); err != nil {
			return err
		}
		if err := v.nonEmpty(n, path); err != nil {
			return err
		}
		for i, c := range n.Children {
			if err := v.listItem(c, fmt.Sprintf("%s.children[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil

	case TypeLayout:
		return v.layout(n, path)

	case TypeDivider:
		if !v.opts.Dividers {
			return fail(path, "dividers are not enabled")
		}
		for _, c := range n.Children {
			if !c.IsText() || *c.Text != "" {
				return fail(path, "divider must not have content")
			}
		}
		return nil

	case "":
		return fail(path, "element type is required")
	}

	return fail(path, "%q is not allowed here", n.Type)
}

func (v validator) blocks(children []Node, path string) error {
	if len(children) == 0 {
		return fail(path, "element must have children")
	}
	for i, c := range children {
		if err := v.block(c, fmt.Sprintf("%s.children[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (v validator) listItem(n Node, path string) error {
	if n.Type != TypeListItem {
		return fail(path, "lists contain list-item elements only")
	}
	if err := v.nonEmpty(n, path); err != nil {
		return err
	}
	for i, c := range n.Children {
		p := fmt.Sprintf("%s.children[%d]", path, i)
		switch c.Type {
		case TypeListItemContent:
			if err := v.inlines(c.Children, p); err != nil {
				return err
			}
		case TypeOrderedList, TypeUnorderedList:
			if err := v.block(c, p); err != nil {
				return err
			}
		default:
			return fail(p, "list items contain content and nested lists only")
		}
	}
	return nil
}

func (v validator) layout(n Node, path string) error {
	if len(v.opts.Layouts) == 0 {
		return fail(path, "layouts are not enabled")
	}
	if !v.allowedLayout(n.Layout) {
		return fail(path, "layout %v is not one of the configured layouts", n.Layout)
	}
	if len(n.Children) != len(n.Layout) {
		return fail(path, "layout %v needs %d areas, got %d", n.Layout, len(n.Layout), len(n.Children))
	}
	for i, area := range n.Children {
		p := fmt.Sprintf("%s.children[%d]", path, i)
		if area.Type != TypeLayoutArea {
			return fail(p, "layouts contain layout-area elements only")
		}
		for j, c := range area.Children {
			if c.Type == TypeLayout {
				return fail(fmt.Sprintf("%s.children[%d]", p, j), "layouts cannot be nested")
			}
		}
		if err := v.blocks(area.Children, p); err != nil {
			return err
		}
	}
	return nil
}

func (v validator) allowedLayout(layout []int) bool {
	for _, l := range v.opts.Layouts {
		if len(l) != len(layout) {
			continue
		}
		match := true
		for i := range l {
			if l[i] != layout[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// inlines validates the children of a paragraph-like element.
func (v validator) inlines(children []Node, path string) error {
	if len(children) == 0 {
		return fail(path, "element must have children")
	}
	for i, c := range children {
		p := fmt.Sprintf("%s.children[%d]", path, i)
		if c.IsText() {
			if c.Type != "" || len(c.Children) > 0 {
				return fail(p, "text leaves cannot have a type or children")
			}
			if c.hasMarks() && !v.opts.Formatting {
				return fail(p, "text marks are not enabled")
			}
			continue
		}
		if c.Type != TypeLink {
			return fail(p, "%q is not allowed inline", c.Type)
		}
		if !v.opts.Links {
			return fail(p, "links are not enabled")
		}
		if c.Href == "" {
			return fail(p, "link href is required")
		}
		for j, t := range c.Children {
			if !t.IsText() {
				return fail(fmt.Sprintf("%s.children[%d]", p, j), "links contain text only")
			}
			if t.hasMarks() && !v.opts.Formatting {
				return fail(fmt.Sprintf("%s.children[%d]", p, j), "text marks are not enabled")
			}
		}
		if len(c.Children) == 0 {
			return fail(p, "link must have text")
		}
	}
	return nil
}

func (v validator) requireFormatting(n Node, path string) error {
	if !v.opts.Formatting {
		return fail(path, "%s requires formatting", n.Type)
	}
	return nil
}

func (v validator) alignment(n Node, path string) error {
	if !v.opts.Formatting {
		return fail(path, "alignment requires formatting")
	}
	switch n.TextAlign {
	case "center", "end":
		return nil
	}
	return fail(path, "textAlign must be center or end")
}

func (v validator) nonEmpty(n Node, path string) error {
	if len(n.Children) == 0 {
		return fail(path, "%s must have children", n.Type)
	}
	return nil
}

// PlainText concatenates the text leaves of a document, one line per block.
func PlainText(nodes []Node) string {
	var buf bytes.Buffer
	var walk func(n Node)
	walk = func(n Node) {
		if n.IsText() {
			buf.WriteString(*n.Text)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for i, n := range nodes {
		if i > 0 {
			buf.WriteByte('\n')
		}
		walk(n)
	}
	return buf.String()
}
