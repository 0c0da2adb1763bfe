package db

import (
	"context"
	"time"

	"github.com/thibovi/rebilt-backend/internal/models"
)

// CreateFilter inserts a filter; (name, partnerId) must be unique
func (db *Database) CreateFilter(ctx context.Context, f *models.Filter) error {
	normalizeFilter(f)
	f.ID = newID()
	f.Touch(time.Now().UTC())
	return db.Store.Insert(ctx, CollFilters, f.ID, f)
}

// GetFilter fetches a filter by id
func (db *Database) GetFilter(ctx context.Context, id string) (*models.Filter, error) {
	return get[models.Filter](ctx, db.Store, CollFilters, id)
}

// GetFilters lists filters by optional partner and category
func (db *Database) GetFilters(ctx context.Context, partnerID, categoryID string) ([]models.Filter, error) {
	f := Filter{}
	if partnerID != "" {
		f["partnerId"] = partnerID
	}
	if categoryID != "" {
		f["categoryIds"] = categoryID
	}
	return list[models.Filter](ctx, db.Store, CollFilters, f, byCreated)
}

// UpdateFilter overwrites a filter
func (db *Database) UpdateFilter(ctx context.Context, f *models.Filter) error {
	normalizeFilter(f)
	f.Touch(time.Now().UTC())
	return db.Store.Replace(ctx, CollFilters, f.ID, f)
}

// DeleteFilter removes a filter
func (db *Database) DeleteFilter(ctx context.Context, id string) error {
	return db.Store.Delete(ctx, CollFilters, id)
}

func normalizeFilter(f *models.Filter) {
	if f.CategoryIDs == nil {
		f.CategoryIDs = []string{}
	}
	if f.Options == nil {
		f.Options = []models.FilterOption{}
	}
}
