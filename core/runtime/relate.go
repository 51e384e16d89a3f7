package runtime

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/artpar/contentgate/core/convention"
	"github.com/artpar/contentgate/core/registry"
	"github.com/artpar/contentgate/core/storage"
)

// relateAll applies the relationship inputs in data to item id. Fields are
// processed in declaration order.
func (w *writer) relateAll(ctx context.Context, d convention.Derived, id string, data map[string]any, creating bool) error {
	for _, f := range d.Fields {
		if !f.IsRelationship() {
			continue
		}
		raw, ok := data[f.Name]
		if !ok {
			continue
		}
		if err := w.relate(ctx, d, f, id, raw, creating); err != nil {
			return err
		}
	}
	return nil
}

// relate applies one relationship input:
//
//	to-one:  {connect: {id}} | {create: {...}} | {disconnect: true}
//	to-many: {connect: [...], create: [...], disconnect: [...], set: [...]}
//
// disconnect and set are only accepted on update.
func (w *writer) relate(ctx context.Context, d convention.Derived, f convention.DerivedField, id string, raw any, creating bool) error {
	r := w.r
	list := d.Source.Key

	link, ok := r.registry.Link(list, f.Name)
	if !ok {
		return inputErr(list, f.Name, "relationship is not resolved")
	}
	target, err := r.list(link.Target)
	if err != nil {
		return err
	}

	if raw == nil {
		if creating || link.Many {
			return nil
		}
		return w.tx.Relate(ctx, list, f.Name, id, storage.RelationOp{DisconnectAll: true})
	}
	in, ok := raw.(map[string]any)
	if !ok {
		return inputErr(list, f.Name, "expects a relationship input")
	}

	allowed := []string{"connect", "create"}
	if !creating {
		allowed = append(allowed, "disconnect")
		if link.Many {
			allowed = append(allowed, "set")
		}
	}
	for _, key := range slices.Sorted(maps.Keys(in)) {
		if !slices.Contains(allowed, key) {
			return inputErr(list, f.Name, "%q is not supported here", key)
		}
	}

	if link.Many {
		return w.relateMany(ctx, link, target, id, in)
	}
	return w.relateOne(ctx, link, target, id, in)
}

func (w *writer) relateOne(ctx context.Context, link registry.Link, target convention.Derived, id string, in map[string]any) error {
	var op storage.RelationOp

	connect, hasConnect := in["connect"]
	create, hasCreate := in["create"]
	if hasConnect && connect != nil && hasCreate && create != nil {
		return inputErr(link.List, link.Field, "only one of connect and create may be given")
	}

	if d, ok := in["disconnect"]; ok {
		if b, _ := d.(bool); b {
			op.DisconnectAll = true
		}
	}

	switch {
	case hasConnect && connect != nil:
		where, ok := connect.(map[string]any)
		if !ok {
			return inputErr(link.List, link.Field, "connect expects a %s", target.Names.WhereUnique)
		}
		tid, err := w.connectID(ctx, link, target, where)
		if err != nil {
			return err
		}
		op.Connect = []string{tid}
		op.DisconnectAll = false

	case hasCreate && create != nil:
		data, ok := create.(map[string]any)
		if !ok {
			return inputErr(link.List, link.Field, "create expects a %s", target.Names.CreateInput)
		}
		item, err := w.create(ctx, target, data)
		if err != nil {
			return err
		}
		op.Connect = []string{item.ID()}
		op.DisconnectAll = false
	}

	if !op.DisconnectAll && len(op.Connect) == 0 {
		return nil
	}
	return w.tx.Relate(ctx, link.List, link.Field, id, op)
}

func (w *writer) relateMany(ctx context.Context, link registry.Link, target convention.Derived, id string, in map[string]any) error {
	var op storage.RelationOp

	uniqueList := func(key string) ([]map[string]any, error) {
		raw, ok := in[key]
		if !ok || raw == nil {
			return nil, nil
		}
		return mapList(raw, func() error {
			return inputErr(link.List, link.Field, "%s expects a list of %s", key, target.Names.WhereUnique)
		})
	}

	if set, err := uniqueList("set"); err != nil {
		return err
	} else if _, ok := in["set"]; ok {
		op.Set = true
		for _, where := range set {
			tid, err := w.connectID(ctx, link, target, where)
			if err != nil {
				return err
			}
			op.Connect = append(op.Connect, tid)
		}
	}

	disconnect, err := uniqueList("disconnect")
	if err != nil {
		return err
	}
	for _, where := range disconnect {
		item, err := w.r.findUnique(ctx, w.tx, target, where)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		op.Disconnect = append(op.Disconnect, item.ID())
	}

	connect, err := uniqueList("connect")
	if err != nil {
		return err
	}
	for _, where := range connect {
		tid, err := w.connectID(ctx, link, target, where)
		if err != nil {
			return err
		}
		op.Connect = append(op.Connect, tid)
	}

	if raw, ok := in["create"]; ok && raw != nil {
		creates, err := mapList(raw, func() error {
			return inputErr(link.List, link.Field, "create expects a list of %s", target.Names.CreateInput)
		})
		if err != nil {
			return err
		}
		for _, data := range creates {
			item, err := w.create(ctx, target, data)
			if err != nil {
				return err
			}
			op.Connect = append(op.Connect, item.ID())
		}
	}

	if !op.Set && len(op.Connect) == 0 && len(op.Disconnect) == 0 {
		return nil
	}
	return w.tx.Relate(ctx, link.List, link.Field, id, op)
}

// connectID resolves a unique where on the target list. A missing target is
// a relationship error.
func (w *writer) connectID(ctx context.Context, link registry.Link, target convention.Derived, where map[string]any) (string, error) {
	item, err := w.r.findUnique(ctx, w.tx, target, where)
	if errors.Is(err, ErrNotFound) {
		return "", &storage.RelationshipError{
			List:    link.List,
			Field:   link.Field,
			Target:  link.Target,
			Message: fmt.Sprintf("unable to connect: no %s matches %v", link.Target, where),
		}
	}
	if err != nil {
		return "", err
	}
	return item.ID(), nil
}

func mapList(raw any, bad func() error) ([]map[string]any, error) {
	switch v := raw.(type) {
	case []map[string]any:
		return v, nil
	case []any:
		out := make([]map[string]any, len(v))
		for i, it := range v {
			m, ok := it.(map[string]any)
			if !ok {
				return nil, bad()
			}
			out[i] = m
		}
		return out, nil
	}
	return nil, bad()
}
