package db

import (
	"context"
	"time"

	"github.com/thibovi/rebilt-backend/internal/models"
)

// CreateOrder inserts an order
func (db *Database) CreateOrder(ctx context.Context, o *models.Order) error {
	o.ID = newID()
	o.Touch(time.Now().UTC())
	return db.Store.Insert(ctx, CollOrders, o.ID, o)
}

// GetOrder fetches an order by id
func (db *Database) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return get[models.Order](ctx, db.Store, CollOrders, id)
}

// GetOrders lists orders, newest first
func (db *Database) GetOrders(ctx context.Context, productID string, paymentStatus models.PaymentStatus) ([]models.Order, error) {
	f := Filter{}
	if productID != "" {
		f["productId"] = productID
	}
	if paymentStatus != "" {
		f["paymentStatus"] = string(paymentStatus)
	}
	return list[models.Order](ctx, db.Store, CollOrders, f, &FindOptions{Sort: "createdAt", Desc: true})
}

// UpdateOrder overwrites an order
func (db *Database) UpdateOrder(ctx context.Context, o *models.Order) error {
	o.Touch(time.Now().UTC())
	return db.Store.Replace(ctx, CollOrders, o.ID, o)
}

// UpdatePaymentStatus records the outcome reported by the payment processor.
// Replays write the same fields again.
func (db *Database) UpdatePaymentStatus(ctx context.Context, orderID string, status models.PaymentStatus, sessionID, paymentIntentID string) error {
	fields := map[string]any{
		"paymentStatus": string(status),
		"updatedAt":     time.Now().UTC(),
	}
	if sessionID != "" {
		fields["stripeSessionId"] = sessionID
	}
	if paymentIntentID != "" {
		fields["paymentIntentId"] = paymentIntentID
	}
	return db.Store.Update(ctx, CollOrders, orderID, fields)
}

// DeleteOrder removes an order
func (db *Database) DeleteOrder(ctx context.Context, id string) error {
	return db.Store.Delete(ctx, CollOrders, id)
}
