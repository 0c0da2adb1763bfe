package db

import (
	"context"
	"time"

	"github.com/thibovi/rebilt-backend/internal/models"
)

// CreateHouseStyle inserts a house style
func (db *Database) CreateHouseStyle(ctx context.Context, h *models.HouseStyle) error {
	h.ID = newID()
	h.Touch(time.Now().UTC())
	return db.Store.Insert(ctx, CollHouseStyles, h.ID, h)
}

// GetHouseStyle fetches a house style by id
func (db *Database) GetHouseStyle(ctx context.Context, id string) (*models.HouseStyle, error) {
	return get[models.HouseStyle](ctx, db.Store, CollHouseStyles, id)
}

// GetHouseStyles lists house styles, optionally for one partner
func (db *Database) GetHouseStyles(ctx context.Context, partnerID string) ([]models.HouseStyle, error) {
	f := Filter{}
	if partnerID != "" {
		f["partnerId"] = partnerID
	}
	return list[models.HouseStyle](ctx, db.Store, CollHouseStyles, f, byCreated)
}

// UpdateHouseStyle overwrites a house style
func (db *Database) UpdateHouseStyle(ctx context.Context, h *models.HouseStyle) error {
	h.Touch(time.Now().UTC())
	return db.Store.Replace(ctx, CollHouseStyles, h.ID, h)
}

// DeleteHouseStyle removes a house style
func (db *Database) DeleteHouseStyle(ctx context.Context, id string) error {
	return db.Store.Delete(ctx, CollHouseStyles, id)
}
