package models

import "time"

// OrderStatus is conventional only; any string is accepted
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderCustomer holds the contact details on an order
type OrderCustomer struct {
	Name    string `json:"name" bson:"name"`
	Email   string `json:"email" bson:"email"`
	Phone   string `json:"phone,omitempty" bson:"phone,omitempty"`
	Address string `json:"address" bson:"address"`
}

// Order is a fulfillment-tracked purchase of a single product
type Order struct {
	Base            `bson:",inline"`
	ProductID       string        `json:"productId" bson:"productId"`
	Quantity        int           `json:"quantity" bson:"quantity"`
	TotalAmount     float64       `json:"totalAmount" bson:"totalAmount"`
	OrderStatus     OrderStatus   `json:"orderStatus" bson:"orderStatus"`
	PaymentStatus   PaymentStatus `json:"paymentStatus" bson:"paymentStatus"`
	Customer        OrderCustomer `json:"customer" bson:"customer"`
	StripeSessionID string        `json:"stripeSessionId,omitempty" bson:"stripeSessionId,omitempty"`
	PaymentIntentID string        `json:"paymentIntentId,omitempty" bson:"paymentIntentId,omitempty"`
}

// CheckoutCustomer holds the contact details on a checkout
type CheckoutCustomer struct {
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
	Phone string `json:"phone" bson:"phone"`
}

// CheckoutItem is one line of a checkout
type CheckoutItem struct {
	ProductID string  `json:"productId" bson:"productId"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	Price     float64 `json:"price" bson:"price"`
}

// Checkout is a purchase intent paired with an external payment session
type Checkout struct {
	Base            `bson:",inline"`
	Customer        CheckoutCustomer `json:"customer" bson:"customer"`
	Items           []CheckoutItem   `json:"items" bson:"items"`
	TotalAmount     float64          `json:"totalAmount" bson:"totalAmount"`
	PaymentStatus   PaymentStatus    `json:"paymentStatus" bson:"paymentStatus"`
	PaymentMethod   PaymentMethod    `json:"paymentMethod" bson:"paymentMethod"`
	StripeSessionID string           `json:"stripeSessionId,omitempty" bson:"stripeSessionId,omitempty"`
	CheckoutURL     string           `json:"checkoutUrl,omitempty" bson:"checkoutUrl,omitempty"`
	PaymentIntentID string           `json:"paymentIntentId,omitempty" bson:"paymentIntentId,omitempty"`
}

// Total sums price × quantity over all items
func (c *Checkout) Total() float64 {
	var total float64
	for _, it := range c.Items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// Webhook is one received payment event, kept as an append-only log
type Webhook struct {
	Base       `bson:",inline"`
	EventID    string         `json:"eventId,omitempty" bson:"eventId,omitempty"`
	EventType  string         `json:"eventType" bson:"eventType"`
	EventData  map[string]any `json:"eventData" bson:"eventData"`
	ReceivedAt time.Time      `json:"receivedAt" bson:"receivedAt"`
}
