package db

import (
	"context"
	"time"

	"github.com/thibovi/rebilt-backend/internal/models"
)

// CreateAsset inserts a hosted model record
func (db *Database) CreateAsset(ctx context.Context, a *models.Asset) error {
	a.ID = newID()
	a.Touch(time.Now().UTC())
	return db.Store.Insert(ctx, CollAssets, a.ID, a)
}

// GetAsset fetches an asset by id
func (db *Database) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	return get[models.Asset](ctx, db.Store, CollAssets, id)
}

// GetAssets lists assets for an optional partner, optionally matching a name substring
func (db *Database) GetAssets(ctx context.Context, partnerID, nameQuery string) ([]models.Asset, error) {
	f := Filter{}
	if partnerID != "" {
		f["partnerId"] = partnerID
	}
	opts := &FindOptions{Sort: "createdAt"}
	if nameQuery != "" {
		opts.Match = map[string]string{"name": nameQuery}
	}
	return list[models.Asset](ctx, db.Store, CollAssets, f, opts)
}

// UpdateAsset overwrites an asset
func (db *Database) UpdateAsset(ctx context.Context, a *models.Asset) error {
	a.Touch(time.Now().UTC())
	return db.Store.Replace(ctx, CollAssets, a.ID, a)
}

// DeleteAsset removes an asset record. The stored file is kept.
func (db *Database) DeleteAsset(ctx context.Context, id string) error {
	return db.Store.Delete(ctx, CollAssets, id)
}
