package db

import (
	"context"
	"time"

	"github.com/thibovi/rebilt-backend/internal/models"
)

// CreateOption inserts an option
func (db *Database) CreateOption(ctx context.Context, o *models.Option) error {
	o.ID = newID()
	o.Touch(time.Now().UTC())
	return db.Store.Insert(ctx, CollOptions, o.ID, o)
}

// GetOption fetches an option by id
func (db *Database) GetOption(ctx context.Context, id string) (*models.Option, error) {
	return get[models.Option](ctx, db.Store, CollOptions, id)
}

// GetOptions lists options, optionally of one type
func (db *Database) GetOptions(ctx context.Context, optionType string) ([]models.Option, error) {
	f := Filter{}
	if optionType != "" {
		f["type"] = optionType
	}
	return list[models.Option](ctx, db.Store, CollOptions, f, byCreated)
}

// GetOptionsByID loads the given options keyed by id. Unknown ids are absent from the map.
func (db *Database) GetOptionsByID(ctx context.Context, ids []string) (map[string]models.Option, error) {
	out := make(map[string]models.Option, len(ids))
	for _, id := range ids {
		if _, seen := out[id]; seen {
			continue
		}
		o, err := db.GetOption(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		out[id] = *o
	}
	return out, nil
}

// UpdateOption overwrites an option
func (db *Database) UpdateOption(ctx context.Context, o *models.Option) error {
	o.Touch(time.Now().UTC())
	return db.Store.Replace(ctx, CollOptions, o.ID, o)
}

// DeleteOption removes an option; configurations and bindings keep the dangling id
func (db *Database) DeleteOption(ctx context.Context, id string) error {
	return db.Store.Delete(ctx, CollOptions, id)
}
