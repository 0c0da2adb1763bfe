package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thibovi/rebilt-backend/internal/models"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	database, err := NewDatabase(context.Background(), Options{Type: "memory"})
	require.NoError(t, err)
	return database
}

func TestNewDatabase_UnknownType(t *testing.T) {
	_, err := NewDatabase(context.Background(), Options{Type: "cassandra"})
	assert.Error(t, err)
}

func TestCategoryUniquePerPartner(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.CreateCategory(ctx, &models.Category{Name: "Footwear", PartnerID: "X"}))
	err := database.CreateCategory(ctx, &models.Category{Name: "Footwear", PartnerID: "X"})
	assert.True(t, IsConflict(err))

	require.NoError(t, database.CreateCategory(ctx, &models.Category{Name: "Footwear", PartnerID: "Y"}))

	exists, err := database.CategoryExists(ctx, "Footwear", "X")
	require.NoError(t, err)
	assert.True(t, exists)

	// partner categories do not block a global one of the same name
	exists, err = database.CategoryExists(ctx, "Footwear", "")
	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, database.CreateCategory(ctx, &models.Category{Name: "Footwear"}))
	exists, err = database.CategoryExists(ctx, "Footwear", "")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCategorySubTypes(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	cat := &models.Category{Name: "Chairs"}
	require.NoError(t, database.CreateCategory(ctx, cat))

	_, err := database.AddCategorySubType(ctx, cat.ID, "Stool")
	require.NoError(t, err)
	_, err = database.AddCategorySubType(ctx, cat.ID, "Stool")
	assert.True(t, IsConflict(err))

	got, err := database.RemoveCategorySubType(ctx, cat.ID, "Stool")
	require.NoError(t, err)
	assert.Empty(t, got.SubTypes)
	_, err = database.RemoveCategorySubType(ctx, cat.ID, "Stool")
	assert.True(t, IsNotFound(err))

	stored, err := database.GetCategory(ctx, cat.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.SubTypes)
}

func TestPartnerNameIsUnique(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	a := &models.Partner{Name: "Acme", Package: "basic"}
	require.NoError(t, database.CreatePartner(ctx, a))
	assert.True(t, IsConflict(database.CreatePartner(ctx, &models.Partner{Name: "Acme", Package: "pro"})))

	b := &models.Partner{Name: "Other", Package: "basic"}
	require.NoError(t, database.CreatePartner(ctx, b))
	b.Name = "Acme"
	assert.True(t, IsConflict(database.UpdatePartner(ctx, b)))

	got, err := database.GetPartnerByName(ctx, "Acme")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
}

func TestClearExpiredResetCodes(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	expired := &models.User{Email: "old@example.com", Role: models.RoleCustomer}
	fresh := &models.User{Email: "new@example.com", Role: models.RoleCustomer}
	none := &models.User{Email: "none@example.com", Role: models.RoleCustomer}
	for _, u := range []*models.User{expired, fresh, none} {
		require.NoError(t, database.CreateUser(ctx, u))
	}
	require.NoError(t, database.SetResetCode(ctx, expired.ID, "123456", now.Add(-time.Minute)))
	require.NoError(t, database.SetResetCode(ctx, fresh.ID, "654321", now.Add(time.Hour)))

	n, err := database.ClearExpiredResetCodes(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := database.GetUser(ctx, expired.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ResetCode)

	got, err = database.GetUser(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, "654321", got.ResetCode)
}

func TestUpdatePaymentStatusIsRepeatable(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	o := &models.Order{ProductID: "p1", Quantity: 1, OrderStatus: models.OrderStatusPending, PaymentStatus: models.PaymentStatusPending}
	require.NoError(t, database.CreateOrder(ctx, o))

	for i := 0; i < 2; i++ {
		require.NoError(t, database.UpdatePaymentStatus(ctx, o.ID, models.PaymentStatusCompleted, "cs_1", "pi_1"))
	}
	got, err := database.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, got.PaymentStatus)
	assert.Equal(t, "cs_1", got.StripeSessionID)
	assert.Equal(t, "pi_1", got.PaymentIntentID)

	assert.True(t, IsNotFound(database.UpdatePaymentStatus(ctx, "missing", models.PaymentStatusFailed, "", "")))
}

func TestProductsFilterByCategoryAndName(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, database.CreateProduct(ctx, &models.Product{ProductCode: "A1", ProductName: "Running Shoe", PartnerID: "p", CategoryIDs: []string{"c1"}}))
	require.NoError(t, database.CreateProduct(ctx, &models.Product{ProductCode: "A2", ProductName: "Sandal", PartnerID: "p", CategoryIDs: []string{"c2"}}))
	assert.True(t, IsConflict(database.CreateProduct(ctx, &models.Product{ProductCode: "A1", ProductName: "Dup"})))

	got, err := database.GetProducts(ctx, ProductQuery{CategoryID: "c1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A1", got[0].ProductCode)

	got, err = database.GetProducts(ctx, ProductQuery{PartnerID: "p", Search: "sand"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A2", got[0].ProductCode)
}
