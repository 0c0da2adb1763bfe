package db

import (
	"context"
	"time"

	"github.com/thibovi/rebilt-backend/internal/models"
)

// CreateModelJob inserts a job in the submitted state
func (db *Database) CreateModelJob(ctx context.Context, j *models.ModelJob) error {
	j.ID = newID()
	j.Status = models.ModelJobSubmitted
	j.Touch(time.Now().UTC())
	return db.Store.Insert(ctx, CollModelJobs, j.ID, j)
}

// GetModelJob fetches a job by id
func (db *Database) GetModelJob(ctx context.Context, id string) (*models.ModelJob, error) {
	return get[models.ModelJob](ctx, db.Store, CollModelJobs, id)
}

// GetModelJobs lists jobs, newest first
func (db *Database) GetModelJobs(ctx context.Context, partnerID string) ([]models.ModelJob, error) {
	f := Filter{}
	if partnerID != "" {
		f["partnerId"] = partnerID
	}
	return list[models.ModelJob](ctx, db.Store, CollModelJobs, f, &FindOptions{Sort: "createdAt", Desc: true})
}

// UpdateModelJob applies a partial update to a job
func (db *Database) UpdateModelJob(ctx context.Context, id string, fields map[string]any) error {
	fields["updatedAt"] = time.Now().UTC()
	return db.Store.Update(ctx, CollModelJobs, id, fields)
}
