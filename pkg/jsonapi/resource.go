package jsonapi

// ResourceBuilder assembles a Resource.
type ResourceBuilder struct {
	res Resource
}

// NewResource starts a resource with a self link. Attributes is never nil
// so items without readable fields still render "attributes": {}.
func NewResource(typ, id, self string) *ResourceBuilder {
	b := &ResourceBuilder{res: Resource{
		Type:       typ,
		ID:         id,
		Attributes: map[string]any{},
	}}
	if self != "" {
		b.res.Links = &Links{Self: self}
	}
	return b
}

// Attr sets an attribute. id and type are reserved and ignored.
func (b *ResourceBuilder) Attr(name string, value any) *ResourceBuilder {
	if name == "id" || name == "type" {
		return b
	}
	b.res.Attributes[name] = value
	return b
}

// Related adds a relationship with only a related link.
func (b *ResourceBuilder) Related(name, href string) *ResourceBuilder {
	return b.relationship(name, Relationship{Links: &Links{Related: href}})
}

// RelatedTo adds a to-one relationship with linkage. An empty id falls
// back to Related.
func (b *ResourceBuilder) RelatedTo(name, href, typ, id string) *ResourceBuilder {
	if id == "" {
		return b.Related(name, href)
	}
	return b.relationship(name, Relationship{
		Data:  &Identifier{Type: typ, ID: id},
		Links: &Links{Related: href},
	})
}

func (b *ResourceBuilder) relationship(name string, rel Relationship) *ResourceBuilder {
	if b.res.Relationships == nil {
		b.res.Relationships = map[string]Relationship{}
	}
	b.res.Relationships[name] = rel
	return b
}

// Build returns the resource.
func (b *ResourceBuilder) Build() Resource {
	return b.res
}
