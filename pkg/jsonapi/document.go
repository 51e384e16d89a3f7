package jsonapi

// DocumentBuilder assembles a Document.
type DocumentBuilder struct {
	doc Document
}

// NewDocument starts an empty document.
func NewDocument() *DocumentBuilder {
	return &DocumentBuilder{}
}

// Resource sets a single resource as primary data.
func (b *DocumentBuilder) Resource(r Resource) *DocumentBuilder {
	b.doc.Data, b.doc.hasData = r, true
	return b
}

// Collection sets primary data to a list. A nil slice is written as [].
func (b *DocumentBuilder) Collection(rs []Resource) *DocumentBuilder {
	if rs == nil {
		rs = []Resource{}
	}
	b.doc.Data, b.doc.hasData = rs, true
	return b
}

// Null sets primary data to null, the answer for an empty to-one
// relationship.
func (b *DocumentBuilder) Null() *DocumentBuilder {
	b.doc.Data, b.doc.hasData = nil, true
	return b
}

// Meta sets one meta member.
func (b *DocumentBuilder) Meta(key string, value any) *DocumentBuilder {
	if b.doc.Meta == nil {
		b.doc.Meta = Meta{}
	}
	b.doc.Meta[key] = value
	return b
}

// Page adds the page meta members and pagination links.
func (b *DocumentBuilder) Page(p Page) *DocumentBuilder {
	for k, v := range p.Meta() {
		b.Meta(k, v)
	}
	b.doc.Links = p.Links()
	return b
}

// Errors replaces primary data with errors.
func (b *DocumentBuilder) Errors(errs ...Error) *DocumentBuilder {
	b.doc.Errors = errs
	b.doc.Data, b.doc.hasData = nil, false
	return b
}

// Build returns the document.
func (b *DocumentBuilder) Build() Document {
	return b.doc
}
