package db

import (
	"context"
	"time"

	"github.com/thibovi/rebilt-backend/internal/models"
)

// ProductQuery filters GetProducts
type ProductQuery struct {
	PartnerID  string
	CategoryID string
	Search     string
}

// CreateProduct inserts a product; productCode must be unique
func (db *Database) CreateProduct(ctx context.Context, p *models.Product) error {
	normalizeProduct(p)
	p.ID = newID()
	p.Touch(time.Now().UTC())
	return db.Store.Insert(ctx, CollProducts, p.ID, p)
}

// GetProduct fetches a product by id
func (db *Database) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return get[models.Product](ctx, db.Store, CollProducts, id)
}

// GetProducts lists products matching q
func (db *Database) GetProducts(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	f := Filter{}
	if q.PartnerID != "" {
		f["partnerId"] = q.PartnerID
	}
	if q.CategoryID != "" {
		f["categoryIds"] = q.CategoryID
	}
	opts := &FindOptions{Sort: "createdAt"}
	if q.Search != "" {
		opts.Match = map[string]string{"productName": q.Search}
	}
	return list[models.Product](ctx, db.Store, CollProducts, f, opts)
}

// UpdateProduct overwrites a product
func (db *Database) UpdateProduct(ctx context.Context, p *models.Product) error {
	normalizeProduct(p)
	p.Touch(time.Now().UTC())
	return db.Store.Replace(ctx, CollProducts, p.ID, p)
}

// DeleteProduct removes a product
func (db *Database) DeleteProduct(ctx context.Context, id string) error {
	return db.Store.Delete(ctx, CollProducts, id)
}

func normalizeProduct(p *models.Product) {
	if p.CategoryIDs == nil {
		p.CategoryIDs = []string{}
	}
	if p.Configurations == nil {
		p.Configurations = []models.ProductConfiguration{}
	}
	for i := range p.Configurations {
		if p.Configurations[i].SelectedOptions == nil {
			p.Configurations[i].SelectedOptions = []models.SelectedOption{}
		}
		for j := range p.Configurations[i].SelectedOptions {
			if p.Configurations[i].SelectedOptions[j].Images == nil {
				p.Configurations[i].SelectedOptions[j].Images = []string{}
			}
		}
	}
}
