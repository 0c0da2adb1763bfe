package db

import (
	"context"
	"time"

	"github.com/thibovi/rebilt-backend/internal/models"
)

// CreatePartner inserts a partner after checking the name is free
func (db *Database) CreatePartner(ctx context.Context, p *models.Partner) error {
	n, err := db.Store.Count(ctx, CollPartners, Filter{"name": p.Name})
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	p.ID = newID()
	p.Touch(time.Now().UTC())
	return db.Store.Insert(ctx, CollPartners, p.ID, p)
}

// GetPartner fetches a partner by id
func (db *Database) GetPartner(ctx context.Context, id string) (*models.Partner, error) {
	return get[models.Partner](ctx, db.Store, CollPartners, id)
}

// GetPartnerByName resolves an exact partner name
func (db *Database) GetPartnerByName(ctx context.Context, name string) (*models.Partner, error) {
	return findOne[models.Partner](ctx, db.Store, CollPartners, Filter{"name": name})
}

// GetPartnerByDomain resolves a storefront domain
func (db *Database) GetPartnerByDomain(ctx context.Context, domain string) (*models.Partner, error) {
	return findOne[models.Partner](ctx, db.Store, CollPartners, Filter{"domain": domain})
}

// GetPartners lists partners, optionally only active ones
func (db *Database) GetPartners(ctx context.Context, activeOnly bool) ([]models.Partner, error) {
	f := Filter{}
	if activeOnly {
		f["active"] = true
	}
	return list[models.Partner](ctx, db.Store, CollPartners, f, byCreated)
}

// UpdatePartner overwrites a partner, rejecting a rename onto another partner's name
func (db *Database) UpdatePartner(ctx context.Context, p *models.Partner) error {
	other, err := db.GetPartnerByName(ctx, p.Name)
	if err == nil && other.ID != p.ID {
		return ErrConflict
	}
	p.Touch(time.Now().UTC())
	return db.Store.Replace(ctx, CollPartners, p.ID, p)
}

// DeletePartner removes a partner. Products, filters and bindings that point at it are left as they are.
func (db *Database) DeletePartner(ctx context.Context, id string) error {
	return db.Store.Delete(ctx, CollPartners, id)
}
