package db

import (
	"context"
	"fmt"
	"time"

	"github.com/thibovi/rebilt-backend/internal/models"
)

// CreateCategory inserts a category; (name, partnerId) must be unique
func (db *Database) CreateCategory(ctx context.Context, c *models.Category) error {
	if c.SubTypes == nil {
		c.SubTypes = []models.SubType{}
	}
	c.ID = newID()
	c.Touch(time.Now().UTC())
	return db.Store.Insert(ctx, CollCategories, c.ID, c)
}

// CategoryExists reports whether a category with name already exists for partnerID.
// An empty partnerID only matches categories without a partner.
func (db *Database) CategoryExists(ctx context.Context, name, partnerID string) (bool, error) {
	f := Filter{"name": name}
	if partnerID != "" {
		f["partnerId"] = partnerID
	}
	same, err := list[models.Category](ctx, db.Store, CollCategories, f, nil)
	if err != nil {
		return false, err
	}
	for _, c := range same {
		if c.PartnerID == partnerID {
			return true, nil
		}
	}
	return false, nil
}

// GetCategory fetches a category by id
func (db *Database) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	return get[models.Category](ctx, db.Store, CollCategories, id)
}

// GetCategories lists categories; an empty partnerID lists every partner's categories
func (db *Database) GetCategories(ctx context.Context, partnerID string) ([]models.Category, error) {
	f := Filter{}
	if partnerID != "" {
		f["partnerId"] = partnerID
	}
	return list[models.Category](ctx, db.Store, CollCategories, f, byCreated)
}

// UpdateCategory overwrites a category
func (db *Database) UpdateCategory(ctx context.Context, c *models.Category) error {
	if c.SubTypes == nil {
		c.SubTypes = []models.SubType{}
	}
	c.Touch(time.Now().UTC())
	return db.Store.Replace(ctx, CollCategories, c.ID, c)
}

// AddCategorySubType appends a subtype; names are unique within a category
func (db *Database) AddCategorySubType(ctx context.Context, id, name string) (*models.Category, error) {
	c, err := db.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, st := range c.SubTypes {
		if st.Name == name {
			return nil, fmt.Errorf("subtype %q of category %s: %w", name, id, ErrConflict)
		}
	}
	c.SubTypes = append(c.SubTypes, models.SubType{Name: name})
	return c, db.setSubTypes(ctx, c)
}

// RemoveCategorySubType drops the subtype called name
func (db *Database) RemoveCategorySubType(ctx context.Context, id, name string) (*models.Category, error) {
	c, err := db.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	kept := make([]models.SubType, 0, len(c.SubTypes))
	for _, st := range c.SubTypes {
		if st.Name != name {
			kept = append(kept, st)
		}
	}
	if len(kept) == len(c.SubTypes) {
		return nil, fmt.Errorf("subtype %q of category %s: %w", name, id, ErrNotFound)
	}
	c.SubTypes = kept
	return c, db.setSubTypes(ctx, c)
}

func (db *Database) setSubTypes(ctx context.Context, c *models.Category) error {
	c.Touch(time.Now().UTC())
	return db.Store.Update(ctx, CollCategories, c.ID, map[string]any{
		"subTypes":  c.SubTypes,
		"updatedAt": c.UpdatedAt,
	})
}

// DeleteCategory removes a category without touching products or filters that reference it
func (db *Database) DeleteCategory(ctx context.Context, id string) error {
	return db.Store.Delete(ctx, CollCategories, id)
}
