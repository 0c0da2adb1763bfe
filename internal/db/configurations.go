package db

import (
	"context"
	"time"

	"github.com/thibovi/rebilt-backend/internal/models"
)

// CreateConfiguration inserts a configuration template
func (db *Database) CreateConfiguration(ctx context.Context, c *models.Configuration) error {
	if c.Options == nil {
		c.Options = []string{}
	}
	c.ID = newID()
	c.Touch(time.Now().UTC())
	return db.Store.Insert(ctx, CollConfigurations, c.ID, c)
}

// GetConfiguration fetches a configuration by id
func (db *Database) GetConfiguration(ctx context.Context, id string) (*models.Configuration, error) {
	return get[models.Configuration](ctx, db.Store, CollConfigurations, id)
}

// GetConfigurations lists every configuration
func (db *Database) GetConfigurations(ctx context.Context) ([]models.Configuration, error) {
	return list[models.Configuration](ctx, db.Store, CollConfigurations, Filter{}, byCreated)
}

// UpdateConfiguration overwrites a configuration
func (db *Database) UpdateConfiguration(ctx context.Context, c *models.Configuration) error {
	if c.Options == nil {
		c.Options = []string{}
	}
	c.Touch(time.Now().UTC())
	return db.Store.Replace(ctx, CollConfigurations, c.ID, c)
}

// DeleteConfiguration removes a configuration; existing bindings are not cleaned up
func (db *Database) DeleteConfiguration(ctx context.Context, id string) error {
	return db.Store.Delete(ctx, CollConfigurations, id)
}
