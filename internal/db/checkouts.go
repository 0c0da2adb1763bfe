package db

import (
	"context"
	"time"

	"github.com/thibovi/rebilt-backend/internal/models"
)

// CreateCheckout inserts a checkout
func (db *Database) CreateCheckout(ctx context.Context, c *models.Checkout) error {
	c.ID = newID()
	c.Touch(time.Now().UTC())
	return db.Store.Insert(ctx, CollCheckouts, c.ID, c)
}

// GetCheckout fetches a checkout by id
func (db *Database) GetCheckout(ctx context.Context, id string) (*models.Checkout, error) {
	return get[models.Checkout](ctx, db.Store, CollCheckouts, id)
}

// GetCheckouts lists checkouts, newest first
func (db *Database) GetCheckouts(ctx context.Context, paymentStatus models.PaymentStatus) ([]models.Checkout, error) {
	f := Filter{}
	if paymentStatus != "" {
		f["paymentStatus"] = string(paymentStatus)
	}
	return list[models.Checkout](ctx, db.Store, CollCheckouts, f, &FindOptions{Sort: "createdAt", Desc: true})
}

// AttachCheckoutSession stores the payment session created for a checkout
func (db *Database) AttachCheckoutSession(ctx context.Context, id, sessionID, url string) error {
	return db.Store.Update(ctx, CollCheckouts, id, map[string]any{
		"stripeSessionId": sessionID,
		"checkoutUrl":     url,
		"updatedAt":       time.Now().UTC(),
	})
}

// UpdateCheckoutPaymentStatus records a payment outcome on a checkout
func (db *Database) UpdateCheckoutPaymentStatus(ctx context.Context, id string, status models.PaymentStatus, paymentIntentID string) error {
	fields := map[string]any{
		"paymentStatus": string(status),
		"updatedAt":     time.Now().UTC(),
	}
	if paymentIntentID != "" {
		fields["paymentIntentId"] = paymentIntentID
	}
	return db.Store.Update(ctx, CollCheckouts, id, fields)
}

// UpdateCheckout overwrites a checkout
func (db *Database) UpdateCheckout(ctx context.Context, c *models.Checkout) error {
	c.Touch(time.Now().UTC())
	return db.Store.Replace(ctx, CollCheckouts, c.ID, c)
}

// DeleteCheckout removes a checkout
func (db *Database) DeleteCheckout(ctx context.Context, id string) error {
	return db.Store.Delete(ctx, CollCheckouts, id)
}
