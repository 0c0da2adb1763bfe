package db

import (
	"context"
	"time"

	"github.com/thibovi/rebilt-backend/internal/models"
)

// CreateUser inserts a user; a duplicate email yields ErrConflict
func (db *Database) CreateUser(ctx context.Context, u *models.User) error {
	u.ID = newID()
	u.Touch(time.Now().UTC())
	return db.Store.Insert(ctx, CollUsers, u.ID, u)
}

// GetUser fetches a user by id
func (db *Database) GetUser(ctx context.Context, id string) (*models.User, error) {
	return get[models.User](ctx, db.Store, CollUsers, id)
}

// GetUserByEmail fetches a user by email
func (db *Database) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, db.Store, CollUsers, Filter{"email": email})
}

// GetUsers lists users, optionally for one company name
func (db *Database) GetUsers(ctx context.Context, company string) ([]models.User, error) {
	f := Filter{}
	if company != "" {
		f["company"] = company
	}
	return list[models.User](ctx, db.Store, CollUsers, f, byCreated)
}

// UpdateUserFields applies a partial update to a user
func (db *Database) UpdateUserFields(ctx context.Context, id string, fields map[string]any) error {
	fields["updatedAt"] = time.Now().UTC()
	return db.Store.Update(ctx, CollUsers, id, fields)
}

// SetResetCode stores a password reset code and its expiry (unix ms) on the user
func (db *Database) SetResetCode(ctx context.Context, id, code string, expiresAt time.Time) error {
	return db.UpdateUserFields(ctx, id, map[string]any{
		"resetCode":           code,
		"resetCodeExpiration": expiresAt.UnixMilli(),
	})
}

// ResetPassword stores a new hash and clears any reset code
func (db *Database) ResetPassword(ctx context.Context, id, passwordHash string) error {
	return db.UpdateUserFields(ctx, id, map[string]any{
		"password":            passwordHash,
		"resetCode":           "",
		"resetCodeExpiration": int64(0),
	})
}

// ClearExpiredResetCodes wipes reset codes whose expiry is before now and returns how many users changed
func (db *Database) ClearExpiredResetCodes(ctx context.Context, now time.Time) (int64, error) {
	return db.Store.UpdateMany(ctx, CollUsers,
		Filter{"resetCodeExpiration": Between{Min: 0, Max: now.UnixMilli()}},
		map[string]any{"resetCode": "", "resetCodeExpiration": int64(0)},
	)
}

// DeleteUser removes a user
func (db *Database) DeleteUser(ctx context.Context, id string) error {
	return db.Store.Delete(ctx, CollUsers, id)
}
