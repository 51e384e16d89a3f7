package runtime

import (
	"context"

	"github.com/artpar/contentgate/core/schema"
	"github.com/artpar/contentgate/core/storage"
)

// Credential loads the item whose unique field equals value together with
// the stored hash of its password field secretField. The hash is empty when
// no password is set. It never leaves the process.
func (r *Runtime) Credential(ctx context.Context, list, field, value, secretField string) (Item, []byte, error) {
	d, err := r.list(list)
	if err != nil {
		return nil, nil, err
	}
	secret, ok := d.Field(secretField)
	if !ok || secret.Kind != schema.KindPassword {
		return nil, nil, inputErr(list, secretField, "not a password field")
	}

	var item storage.Item
	err = r.read(ctx, func(tx storage.Tx) error {
		item, err = r.findUnique(ctx, tx, d, map[string]any{field: value})
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	hash, _ := item[secretField].(string)
	return r.output(d, item), []byte(hash), nil
}
