package runtime

import "context"

// ListQuery is the item API bound to one list.
type ListQuery struct {
	r    *Runtime
	list string
}

// Query returns the item API of a list.
func (r *Runtime) Query(list string) ListQuery {
	return ListQuery{r: r, list: list}
}

// List returns the bound list key.
func (q ListQuery) List() string { return q.list }

func (q ListQuery) CreateOne(ctx context.Context, data map[string]any) (Item, error) {
	return q.r.CreateOne(ctx, q.list, data)
}

func (q ListQuery) CreateMany(ctx context.Context, data []map[string]any) ([]Item, error) {
	return q.r.CreateMany(ctx, q.list, data)
}

func (q ListQuery) FindOne(ctx context.Context, where map[string]any) (Item, error) {
	return q.r.FindOne(ctx, q.list, where)
}

func (q ListQuery) FindMany(ctx context.Context, args FindArgs) ([]Item, error) {
	return q.r.FindMany(ctx, q.list, args)
}

func (q ListQuery) Count(ctx context.Context, where map[string]any) (int, error) {
	return q.r.Count(ctx, q.list, where)
}

func (q ListQuery) UpdateOne(ctx context.Context, where, data map[string]any) (Item, error) {
	return q.r.UpdateOne(ctx, q.list, where, data)
}

func (q ListQuery) UpdateMany(ctx context.Context, updates []UpdateArgs) ([]Item, error) {
	return q.r.UpdateMany(ctx, q.list, updates)
}

func (q ListQuery) DeleteOne(ctx context.Context, where map[string]any) (Item, error) {
	return q.r.DeleteOne(ctx, q.list, where)
}

func (q ListQuery) DeleteMany(ctx context.Context, wheres []map[string]any) ([]Item, error) {
	return q.r.DeleteMany(ctx, q.list, wheres)
}

func (q ListQuery) Related(ctx context.Context, field, id string, args FindArgs) ([]Item, error) {
	return q.r.Related(ctx, q.list, field, id, args)
}

func (q ListQuery) RelatedCount(ctx context.Context, field, id string, where map[string]any) (int, error) {
	return q.r.RelatedCount(ctx, q.list, field, id, where)
}

func (q ListQuery) CreateFirst(ctx context.Context, data map[string]any) (Item, error) {
	return q.r.CreateFirst(ctx, q.list, data)
}
