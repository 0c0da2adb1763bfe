package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"

	"github.com/thibovi/rebilt-backend/internal/db"
	"github.com/thibovi/rebilt-backend/internal/models"
)

// CommerceService creates orders and checkouts and applies payment outcomes to them
type CommerceService struct {
	db       *db.Database
	payments PaymentProvider
}

// NewCommerceService wires the commerce flows. payments may be nil when no processor is configured.
func NewCommerceService(database *db.Database, payments PaymentProvider) *CommerceService {
	return &CommerceService{db: database, payments: payments}
}

// OrderInput is the body of POST /orders/:productId
type OrderInput struct {
	Quantity int                  `json:"quantity"`
	Customer models.OrderCustomer `json:"customer"`
}

// ValidateOrderCustomer checks the contact fields an order must always carry
func ValidateOrderCustomer(c models.OrderCustomer) error {
	if c.Name == "" {
		return Invalid("customer.name", "is required")
	}
	if err := checkEmail("customer.email", c.Email); err != nil {
		return err
	}
	if c.Address == "" {
		return Invalid("customer.address", "is required")
	}
	return nil
}

// CreateOrder records a pending order for an existing product
func (s *CommerceService) CreateOrder(ctx context.Context, productID string, in OrderInput) (*models.Order, error) {
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 1 {
		return nil, Invalid("quantity", "must be at least 1")
	}
	if err := ValidateOrderCustomer(in.Customer); err != nil {
		return nil, err
	}
	product, err := s.db.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	order := &models.Order{
		ProductID:     product.ID,
		Quantity:      in.Quantity,
		TotalAmount:   product.Price * float64(in.Quantity),
		OrderStatus:   models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		Customer:      in.Customer,
	}
	if err := s.db.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	log.Printf("[ORDER] Created order %s for product %s (qty %d)", order.ID, product.ID, order.Quantity)
	return order, nil
}

// PayOrder opens a payment session for an order and stores its id
func (s *CommerceService) PayOrder(ctx context.Context, orderID string) (*models.Order, string, error) {
	if s.payments == nil {
		return nil, "", ErrUnavailable
	}
	order, err := s.db.GetOrder(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	if order.PaymentStatus == models.PaymentStatusCompleted {
		return nil, "", Invalid("paymentStatus", "order %s is already paid", order.ID)
	}
	name := order.ProductID
	price := 0.0
	if order.Quantity > 0 {
		price = order.TotalAmount / float64(order.Quantity)
	}
	if product, err := s.db.GetProduct(ctx, order.ProductID); err == nil {
		name = product.ProductName
	} else if !db.IsNotFound(err) {
		return nil, "", err
	}
	session, err := s.payments.CreateSession(ctx, SessionRequest{
		CustomerEmail: order.Customer.Email,
		Items:         []LineItem{{Name: name, Price: price, Quantity: order.Quantity}},
		Metadata:      map[string]string{"orderId": order.ID},
	})
	if err != nil {
		return nil, "", err
	}
	if err := s.db.UpdatePaymentStatus(ctx, order.ID, order.PaymentStatus, session.ID, ""); err != nil {
		return nil, "", err
	}
	order.StripeSessionID = session.ID
	return order, session.URL, nil
}

// CheckoutInput is the body of POST /checkouts. A client supplied total is ignored.
type CheckoutInput struct {
	Customer      models.CheckoutCustomer `json:"customer"`
	Items         []models.CheckoutItem   `json:"items"`
	PaymentMethod models.PaymentMethod    `json:"paymentMethod"`
}

func (in CheckoutInput) validate() error {
	if in.Customer.Name == "" {
		return Invalid("customer.name", "is required")
	}
	if err := checkEmail("customer.email", in.Customer.Email); err != nil {
		return err
	}
	if in.Customer.Phone == "" {
		return Invalid("customer.phone", "is required")
	}
	if len(in.Items) == 0 {
		return Invalid("items", "must contain at least one item")
	}
	for i, it := range in.Items {
		if it.ProductID == "" {
			return Invalid(fmt.Sprintf("items[%d].productId", i), "is required")
		}
		if it.Quantity < 1 {
			return Invalid(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
		if it.Price < 0 {
			return Invalid(fmt.Sprintf("items[%d].price", i), "must not be negative")
		}
	}
	if !in.PaymentMethod.IsValid() {
		return Invalid("paymentMethod", "must be one of credit_card, paypal, bank_transfer, cash")
	}
	return nil
}

// CreateCheckout persists a pending checkout and then opens a payment session for it.
// When the session cannot be created the checkout stays stored without one.
func (s *CommerceService) CreateCheckout(ctx context.Context, in CheckoutInput) (*models.Checkout, string, error) {
	if err := in.validate(); err != nil {
		return nil, "", err
	}
	checkout := &models.Checkout{
		Customer:      in.Customer,
		Items:         in.Items,
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: in.PaymentMethod,
	}
	checkout.TotalAmount = checkout.Total()
	if err := s.db.CreateCheckout(ctx, checkout); err != nil {
		return nil, "", err
	}
	log.Printf("[CHECKOUT] Created checkout %s with %d items, total %.2f", checkout.ID, len(checkout.Items), checkout.TotalAmount)

	if s.payments == nil {
		return checkout, "", ErrUnavailable
	}
	items := make([]LineItem, 0, len(checkout.Items))
	for _, it := range checkout.Items {
		items = append(items, LineItem{Name: s.productName(ctx, it.ProductID), Price: it.Price, Quantity: it.Quantity})
	}
	session, err := s.payments.CreateSession(ctx, SessionRequest{
		CustomerEmail: checkout.Customer.Email,
		Items:         items,
		Metadata:      map[string]string{"checkoutId": checkout.ID},
	})
	if err != nil {
		log.Printf("[CHECKOUT] Payment session for checkout %s failed: %v", checkout.ID, err)
		return checkout, "", err
	}
	if err := s.db.AttachCheckoutSession(ctx, checkout.ID, session.ID, session.URL); err != nil {
		return checkout, "", err
	}
	checkout.StripeSessionID = session.ID
	checkout.CheckoutURL = session.URL
	return checkout, session.URL, nil
}

func (s *CommerceService) productName(ctx context.Context, productID string) string {
	p, err := s.db.GetProduct(ctx, productID)
	if err != nil {
		return "Product " + productID
	}
	return p.ProductName
}

// HandleWebhook verifies and records a payment event, then updates the order or checkout it references
func (s *CommerceService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*PaymentEvent, error) {
	if s.payments == nil {
		return nil, ErrUnavailable
	}
	event, err := s.payments.ParseWebhook(payload, signature)
	if err != nil {
		return nil, err
	}
	if err := s.db.AppendWebhook(ctx, &models.Webhook{
		EventID:   event.ID,
		EventType: event.Type,
		EventData: event.Raw,
	}); err != nil {
		return nil, err
	}

	var status models.PaymentStatus
	switch event.Type {
	case "payment_intent.succeeded", "checkout.session.completed":
		status = models.PaymentStatusCompleted
	case "payment_intent.payment_failed", "payment_intent.failed":
		status = models.PaymentStatusFailed
	default:
		log.Printf("[WEBHOOK] Ignoring event %s (%s)", event.ID, event.Type)
		return event, nil
	}
	if err := s.applyPayment(ctx, event, status); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *CommerceService) applyPayment(ctx context.Context, event *PaymentEvent, status models.PaymentStatus) error {
	if event.OrderID == "" && event.CheckoutID == "" {
		log.Printf("[WEBHOOK] Event %s (%s) carries no order or checkout reference", event.ID, event.Type)
		return nil
	}
	if event.OrderID != "" {
		err := s.db.UpdatePaymentStatus(ctx, event.OrderID, status, event.SessionID, event.PaymentIntentID)
		if err != nil && !db.IsNotFound(err) {
			return err
		}
		if errors.Is(err, db.ErrNotFound) {
			log.Printf("[WEBHOOK] Order %s from event %s does not exist", event.OrderID, event.ID)
		} else {
			log.Printf("[WEBHOOK] Order %s payment %s", event.OrderID, status)
		}
	}
	if event.CheckoutID != "" {
		err := s.db.UpdateCheckoutPaymentStatus(ctx, event.CheckoutID, status, event.PaymentIntentID)
		if err != nil && !db.IsNotFound(err) {
			return err
		}
		if errors.Is(err, db.ErrNotFound) {
			log.Printf("[WEBHOOK] Checkout %s from event %s does not exist", event.CheckoutID, event.ID)
		} else {
			log.Printf("[WEBHOOK] Checkout %s payment %s", event.CheckoutID, status)
		}
	}
	return nil
}

func checkEmail(field, email string) error {
	if email == "" {
		return Invalid(field, "is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return Invalid(field, "is not a valid email address")
	}
	return nil
}
