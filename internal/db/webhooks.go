package db

import (
	"context"
	"time"

	"github.com/thibovi/rebilt-backend/internal/models"
)

// AppendWebhook records a received payment event
func (db *Database) AppendWebhook(ctx context.Context, w *models.Webhook) error {
	w.ID = newID()
	now := time.Now().UTC()
	if w.ReceivedAt.IsZero() {
		w.ReceivedAt = now
	}
	w.Touch(now)
	return db.Store.Insert(ctx, CollWebhooks, w.ID, w)
}

// GetWebhooks lists received events, newest first
func (db *Database) GetWebhooks(ctx context.Context, eventType string, limit int64) ([]models.Webhook, error) {
	f := Filter{}
	if eventType != "" {
		f["eventType"] = eventType
	}
	return list[models.Webhook](ctx, db.Store, CollWebhooks, f, &FindOptions{Sort: "receivedAt", Desc: true, Limit: limit})
}
