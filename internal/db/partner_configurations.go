package db

import (
	"context"
	"time"

	"github.com/thibovi/rebilt-backend/internal/models"
)

// CreatePartnerConfiguration inserts a binding; (partnerId, configurationId) must be unique
func (db *Database) CreatePartnerConfiguration(ctx context.Context, pc *models.PartnerConfiguration) error {
	normalizeBinding(pc)
	pc.ID = newID()
	pc.Touch(time.Now().UTC())
	return db.Store.Insert(ctx, CollPartnerConfigurations, pc.ID, pc)
}

// FindPartnerConfiguration returns the binding of configurationID for partnerID
func (db *Database) FindPartnerConfiguration(ctx context.Context, partnerID, configurationID string) (*models.PartnerConfiguration, error) {
	return findOne[models.PartnerConfiguration](ctx, db.Store, CollPartnerConfigurations,
		Filter{"partnerId": partnerID, "configurationId": configurationID})
}

// GetPartnerConfiguration fetches a binding by id
func (db *Database) GetPartnerConfiguration(ctx context.Context, id string) (*models.PartnerConfiguration, error) {
	return get[models.PartnerConfiguration](ctx, db.Store, CollPartnerConfigurations, id)
}

// GetPartnerConfigurations lists bindings, optionally for one partner
func (db *Database) GetPartnerConfigurations(ctx context.Context, partnerID string) ([]models.PartnerConfiguration, error) {
	f := Filter{}
	if partnerID != "" {
		f["partnerId"] = partnerID
	}
	return list[models.PartnerConfiguration](ctx, db.Store, CollPartnerConfigurations, f, byCreated)
}

// UpdatePartnerConfiguration overwrites a binding
func (db *Database) UpdatePartnerConfiguration(ctx context.Context, pc *models.PartnerConfiguration) error {
	normalizeBinding(pc)
	pc.Touch(time.Now().UTC())
	return db.Store.Replace(ctx, CollPartnerConfigurations, pc.ID, pc)
}

// DeletePartnerConfiguration removes a binding
func (db *Database) DeletePartnerConfiguration(ctx context.Context, id string) error {
	return db.Store.Delete(ctx, CollPartnerConfigurations, id)
}

func normalizeBinding(pc *models.PartnerConfiguration) {
	if pc.Options == nil {
		pc.Options = []string{}
	}
	if pc.CategoryIDs == nil {
		pc.CategoryIDs = []string{}
	}
}
