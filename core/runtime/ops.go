package runtime

import (
	"context"
	"fmt"

	"github.com/artpar/contentgate/core/convention"
	"github.com/artpar/contentgate/core/storage"
)

// CreateOne creates an item. Relationship fields accept {connect} and
// {create} inputs; nested creates run in the same transaction.
func (r *Runtime) CreateOne(ctx context.Context, list string, data map[string]any) (Item, error) {
	d, err := r.list(list)
	if err != nil {
		return nil, err
	}
	var item storage.Item
	err = r.write(ctx, func(w *writer) error {
		item, err = w.create(ctx, d, data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.output(d, item), nil
}

// CreateMany creates items atomically.
func (r *Runtime) CreateMany(ctx context.Context, list string, data []map[string]any) ([]Item, error) {
	d, err := r.list(list)
	if err != nil {
		return nil, err
	}
	items := make([]storage.Item, 0, len(data))
	err = r.write(ctx, func(w *writer) error {
		for _, in := range data {
			item, err := w.create(ctx, d, in)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.outputs(d, items), nil
}

// CreateFirst creates an item only while the list is empty. The emptiness
// check and the insert share one transaction.
func (r *Runtime) CreateFirst(ctx context.Context, list string, data map[string]any) (Item, error) {
	d, err := r.list(list)
	if err != nil {
		return nil, err
	}
	var item storage.Item
	err = r.write(ctx, func(w *writer) error {
		n, err := w.tx.Count(ctx, list, storage.Filter{})
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrNotEmpty
		}
		item, err = w.create(ctx, d, data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.output(d, item), nil
}

// FindOne returns the item named by a unique where.
func (r *Runtime) FindOne(ctx context.Context, list string, where map[string]any) (Item, error) {
	d, err := r.list(list)
	if err != nil {
		return nil, err
	}
	var item storage.Item
	err = r.read(ctx, func(tx storage.Tx) error {
		item, err = r.findUnique(ctx, tx, d, where)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.output(d, item), nil
}

// FindMany returns the items matching args.
func (r *Runtime) FindMany(ctx context.Context, list string, args FindArgs) ([]Item, error) {
	d, err := r.list(list)
	if err != nil {
		return nil, err
	}
	q, ok, err := r.query(d, args)
	if err != nil || !ok {
		return []Item{}, err
	}
	var items []storage.Item
	err = r.read(ctx, func(tx storage.Tx) error {
		items, err = tx.FindMany(ctx, list, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.outputs(d, items), nil
}

// Count returns the number of items matching where.
func (r *Runtime) Count(ctx context.Context, list string, where map[string]any) (int, error) {
	d, err := r.list(list)
	if err != nil {
		return 0, err
	}
	f, err := r.filter(d, where)
	if err != nil {
		return 0, err
	}
	var n int
	err = r.read(ctx, func(tx storage.Tx) error {
		n, err = tx.Count(ctx, list, f)
		return err
	})
	return n, err
}

// Related returns the items connected to item id through a relationship field.
func (r *Runtime) Related(ctx context.Context, list, field, id string, args FindArgs) ([]Item, error) {
	target, err := r.relationTarget(list, field)
	if err != nil {
		return nil, err
	}
	q, ok, err := r.query(target, args)
	if err != nil || !ok {
		return []Item{}, err
	}
	var items []storage.Item
	err = r.read(ctx, func(tx storage.Tx) error {
		items, err = tx.Related(ctx, list, field, id, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.outputs(target, items), nil
}

// RelatedCount counts the items connected to item id through a relationship field.
func (r *Runtime) RelatedCount(ctx context.Context, list, field, id string, where map[string]any) (int, error) {
	target, err := r.relationTarget(list, field)
	if err != nil {
		return 0, err
	}
	f, err := r.filter(target, where)
	if err != nil {
		return 0, err
	}
	var n int
	err = r.read(ctx, func(tx storage.Tx) error {
		n, err = tx.RelatedCount(ctx, list, field, id, f)
		return err
	})
	return n, err
}

func (r *Runtime) relationTarget(list, field string) (convention.Derived, error) {
	link, ok := r.registry.Link(list, field)
	if !ok {
		return convention.Derived{}, inputErr(list, field, "not a relationship")
	}
	return r.list(link.Target)
}

// UpdateOne updates the item named by a unique where.
func (r *Runtime) UpdateOne(ctx context.Context, list string, where, data map[string]any) (Item, error) {
	d, err := r.list(list)
	if err != nil {
		return nil, err
	}
	var item storage.Item
	err = r.write(ctx, func(w *writer) error {
		item, err = w.update(ctx, d, where, data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.output(d, item), nil
}

// UpdateMany updates items atomically.
func (r *Runtime) UpdateMany(ctx context.Context, list string, updates []UpdateArgs) ([]Item, error) {
	d, err := r.list(list)
	if err != nil {
		return nil, err
	}
	items := make([]storage.Item, 0, len(updates))
	err = r.write(ctx, func(w *writer) error {
		for _, u := range updates {
			item, err := w.update(ctx, d, u.Where, u.Data)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.outputs(d, items), nil
}

// DeleteOne deletes the item named by a unique where and returns it as it
// was before deletion.
func (r *Runtime) DeleteOne(ctx context.Context, list string, where map[string]any) (Item, error) {
	d, err := r.list(list)
	if err != nil {
		return nil, err
	}
	var item storage.Item
	err = r.write(ctx, func(w *writer) error {
		item, err = w.delete(ctx, d, where)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.output(d, item), nil
}

// DeleteMany deletes items atomically.
func (r *Runtime) DeleteMany(ctx context.Context, list string, wheres []map[string]any) ([]Item, error) {
	d, err := r.list(list)
	if err != nil {
		return nil, err
	}
	items := make([]storage.Item, 0, len(wheres))
	err = r.write(ctx, func(w *writer) error {
		for _, where := range wheres {
			item, err := w.delete(ctx, d, where)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.outputs(d, items), nil
}

// create inserts an item and applies its relationship inputs.
func (w *writer) create(ctx context.Context, d convention.Derived, data map[string]any) (storage.Item, error) {
	r := w.r
	list := d.Source.Key
	if data == nil {
		data = map[string]any{}
	}

	if err := r.hooks.Dispatch(ctx, HookEvent{List: list, Operation: OpCreate, Phase: PhaseBefore, Input: data}); err != nil {
		return nil, err
	}

	if err := r.validator.ValidateCreate(list, data).Err(list); err != nil {
		return nil, err
	}

	id := r.ids.New()
	row := storage.Item{
		convention.FieldID:        id,
		convention.FieldCreatedAt: w.now,
		convention.FieldUpdatedAt: w.now,
	}

	for _, f := range d.Fields {
		if f.Implicit || f.IsRelationship() {
			continue
		}
		value, ok := data[f.Name]
		if !ok {
			def, hasDefault := f.Source.DefaultValue(w.now)
			if !hasDefault {
				continue
			}
			value = def
		}
		col, err := r.column(f, value)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", list, f.Name, err)
		}
		row[f.Name] = col
	}

	if err := w.tx.Insert(ctx, list, row); err != nil {
		return nil, err
	}

	if err := w.relateAll(ctx, d, id, data, true); err != nil {
		return nil, err
	}

	item, err := w.tx.FindOne(ctx, list, convention.FieldID, id)
	if err != nil {
		return nil, err
	}

	if err := r.hooks.Dispatch(ctx, HookEvent{List: list, Operation: OpCreate, Phase: PhaseAfter, Input: data, Item: r.output(d, item)}); err != nil {
		return nil, err
	}

	w.record(list, OpCreate, item)
	return item, nil
}

func (w *writer) update(ctx context.Context, d convention.Derived, where, data map[string]any) (storage.Item, error) {
	r := w.r
	list := d.Source.Key
	if data == nil {
		data = map[string]any{}
	}

	existing, err := r.findUnique(ctx, w.tx, d, where)
	if err != nil {
		return nil, err
	}
	id := existing.ID()

	if err := r.hooks.Dispatch(ctx, HookEvent{List: list, Operation: OpUpdate, Phase: PhaseBefore, Input: data, Item: r.output(d, existing)}); err != nil {
		return nil, err
	}

	if err := r.validator.ValidateUpdate(list, data).Err(list); err != nil {
		return nil, err
	}

	changes := storage.Item{convention.FieldUpdatedAt: w.now}
	for _, f := range d.Fields {
		if f.Implicit || f.IsRelationship() {
			continue
		}
		value, ok := data[f.Name]
		if !ok {
			continue
		}
		col, err := r.column(f, value)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", list, f.Name, err)
		}
		changes[f.Name] = col
	}

	if err := w.tx.Update(ctx, list, id, changes); err != nil {
		return nil, err
	}

	if err := w.relateAll(ctx, d, id, data, false); err != nil {
		return nil, err
	}

	item, err := w.tx.FindOne(ctx, list, convention.FieldID, id)
	if err != nil {
		return nil, err
	}

	if err := r.hooks.Dispatch(ctx, HookEvent{List: list, Operation: OpUpdate, Phase: PhaseAfter, Input: data, Item: r.output(d, item)}); err != nil {
		return nil, err
	}

	w.record(list, OpUpdate, item)
	return item, nil
}

func (w *writer) delete(ctx context.Context, d convention.Derived, where map[string]any) (storage.Item, error) {
	r := w.r
	list := d.Source.Key

	existing, err := r.findUnique(ctx, w.tx, d, where)
	if err != nil {
		return nil, err
	}

	if err := r.hooks.Dispatch(ctx, HookEvent{List: list, Operation: OpDelete, Phase: PhaseBefore, Item: r.output(d, existing)}); err != nil {
		return nil, err
	}

	if err := w.tx.Delete(ctx, list, existing.ID()); err != nil {
		return nil, err
	}

	if err := r.hooks.Dispatch(ctx, HookEvent{List: list, Operation: OpDelete, Phase: PhaseAfter, Item: r.output(d, existing)}); err != nil {
		return nil, err
	}

	w.record(list, OpDelete, existing)
	return existing, nil
}
