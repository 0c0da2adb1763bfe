package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/thibovi/rebilt-backend/internal/db"
	"github.com/thibovi/rebilt-backend/internal/models"
)

type fakePayments struct {
	sessions []SessionRequest
	err      error
	event    *PaymentEvent
}

func (f *fakePayments) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sessions = append(f.sessions, req)
	return &Session{ID: "cs_test_1", URL: "https://pay.example.com/cs_test_1"}, nil
}

func (f *fakePayments) ParseWebhook(payload []byte, signature string) (*PaymentEvent, error) {
	if signature != "ok" {
		return nil, ErrInvalidSignature
	}
	return f.event, nil
}

func validCheckout() CheckoutInput {
	return CheckoutInput{
		Customer:      models.CheckoutCustomer{Name: "Ada", Email: "ada@example.com", Phone: "+3212345"},
		Items:         []models.CheckoutItem{{ProductID: "p1", Quantity: 2, Price: 10.5}, {ProductID: "p2", Quantity: 1, Price: 4}},
		PaymentMethod: models.PaymentMethodCreditCard,
	}
}

func TestCreateCheckoutComputesTotal(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	payments := &fakePayments{}
	svc := NewCommerceService(database, payments)

	checkout, url, err := svc.CreateCheckout(ctx, validCheckout())
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/cs_test_1", url)
	assert.Equal(t, 25.0, checkout.TotalAmount)
	assert.Equal(t, models.PaymentStatusPending, checkout.PaymentStatus)

	stored, err := database.GetCheckout(ctx, checkout.ID)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", stored.StripeSessionID)
	require.Len(t, payments.sessions, 1)
	assert.Equal(t, checkout.ID, payments.sessions[0].Metadata["checkoutId"])
	assert.Equal(t, "Product p1", payments.sessions[0].Items[0].Name)
}

func TestCreateCheckoutValidation(t *testing.T) {
	svc := NewCommerceService(newTestDB(t), &fakePayments{})
	cases := map[string]func(*CheckoutInput){
		"paymentMethod": func(in *CheckoutInput) { in.PaymentMethod = "bitcoin" },
		"items":         func(in *CheckoutInput) { in.Items = nil },
		"quantity":      func(in *CheckoutInput) { in.Items[0].Quantity = 0 },
		"price":         func(in *CheckoutInput) { in.Items[0].Price = -1 },
		"phone":         func(in *CheckoutInput) { in.Customer.Phone = "" },
		"email":         func(in *CheckoutInput) { in.Customer.Email = "not-an-email" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validCheckout()
			mutate(&in)
			_, _, err := svc.CreateCheckout(context.Background(), in)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestCreateCheckoutKeepsOrphanOnPaymentFailure(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	svc := NewCommerceService(database, &fakePayments{err: upstream("stripe", errors.New("card declined"))})

	checkout, _, err := svc.CreateCheckout(ctx, validCheckout())
	var uerr *UpstreamError
	require.ErrorAs(t, err, &uerr)
	require.NotNil(t, checkout)

	stored, err := database.GetCheckout(ctx, checkout.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.StripeSessionID)
}

func TestCreateOrderAndPay(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	product := &models.Product{ProductCode: "CH-1", ProductName: "Chair", Price: 40, PartnerID: "p"}
	require.NoError(t, database.CreateProduct(ctx, product))
	payments := &fakePayments{}
	svc := NewCommerceService(database, payments)

	order, err := svc.CreateOrder(ctx, product.ID, OrderInput{
		Quantity: 3,
		Customer: models.OrderCustomer{Name: "Ada", Email: "ada@example.com", Address: "Main St 1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 120.0, order.TotalAmount)
	assert.Equal(t, models.OrderStatusPending, order.OrderStatus)

	_, err = svc.CreateOrder(ctx, "missing", OrderInput{Customer: order.Customer})
	assert.True(t, db.IsNotFound(err))

	_, url, err := svc.PayOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, url)
	assert.Equal(t, "Chair", payments.sessions[0].Items[0].Name)
	assert.Equal(t, 40.0, payments.sessions[0].Items[0].Price)

	stored, err := database.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", stored.StripeSessionID)
}

func TestHandleWebhookUpdatesOrder(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	order := &models.Order{ProductID: "p", Quantity: 1, PaymentStatus: models.PaymentStatusPending}
	require.NoError(t, database.CreateOrder(ctx, order))

	payments := &fakePayments{event: &PaymentEvent{ID: "evt_1", Type: "payment_intent.succeeded", OrderID: order.ID, PaymentIntentID: "pi_1"}}
	svc := NewCommerceService(database, payments)

	_, err := svc.HandleWebhook(ctx, []byte(`{}`), "bad")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	// replays write the same outcome again
	for i := 0; i < 2; i++ {
		_, err = svc.HandleWebhook(ctx, []byte(`{}`), "ok")
		require.NoError(t, err)
	}
	stored, err := database.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, stored.PaymentStatus)
	assert.Equal(t, "pi_1", stored.PaymentIntentID)

	payments.event = &PaymentEvent{ID: "evt_2", Type: "payment_intent.payment_failed", OrderID: order.ID}
	_, err = svc.HandleWebhook(ctx, []byte(`{}`), "ok")
	require.NoError(t, err)
	stored, err = database.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, stored.PaymentStatus)

	hooks, err := database.GetWebhooks(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, hooks, 3)
}

func TestStripeParseWebhook(t *testing.T) {
	const secret = "whsec_test"
	p := NewStripeProvider(StripeOptions{SecretKey: "sk_test", WebhookSecret: secret})

	payload, err := json.Marshal(map[string]any{
		"id":          "evt_123",
		"object":      "event",
		"type":        "checkout.session.completed",
		"api_version": "2023-10-16",
		"created":     time.Now().Unix(),
		"data": map[string]any{
			"object": map[string]any{
				"id":             "cs_test_9",
				"object":         "checkout.session",
				"payment_intent": "pi_9",
				"metadata":       map[string]string{"checkoutId": "chk_1"},
			},
		},
	})
	require.NoError(t, err)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: secret})

	event, err := p.ParseWebhook(signed.Payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, "evt_123", event.ID)
	assert.Equal(t, "checkout.session.completed", event.Type)
	assert.Equal(t, "cs_test_9", event.SessionID)
	assert.Equal(t, "pi_9", event.PaymentIntentID)
	assert.Equal(t, "chk_1", event.CheckoutID)

	_, err = p.ParseWebhook(payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestToCents(t *testing.T) {
	assert.Equal(t, int64(1999), toCents(19.99))
	assert.Equal(t, int64(10), toCents(0.1))
}

func TestStripeParseWebhookWithoutObject(t *testing.T) {
	const secret = "whsec_test"
	p := NewStripeProvider(StripeOptions{SecretKey: "sk_test", WebhookSecret: secret})

	for _, typ := range []string{"payment_intent.succeeded", "checkout.session.completed"} {
		payload, err := json.Marshal(map[string]any{"id": "evt_x", "object": "event", "type": typ})
		require.NoError(t, err)
		signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: secret})

		require.NotPanics(t, func() {
			_, err = p.ParseWebhook(signed.Payload, signed.Header)
		})
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr), typ)
	}
}

func TestValidateOrderCustomer(t *testing.T) {
	ok := models.OrderCustomer{Name: "Ada", Email: "ada@example.com", Address: "Main 1"}
	require.NoError(t, ValidateOrderCustomer(ok))

	cases := map[string]func(c *models.OrderCustomer){
		"customer.name":    func(c *models.OrderCustomer) { c.Name = "" },
		"customer.email":   func(c *models.OrderCustomer) { c.Email = "not-an-email" },
		"customer.address": func(c *models.OrderCustomer) { c.Address = "" },
	}
	for field, mutate := range cases {
		c := ok
		mutate(&c)
		var verr *ValidationError
		require.True(t, errors.As(ValidateOrderCustomer(c), &verr), field)
		assert.Equal(t, field, verr.Field)
	}
}
