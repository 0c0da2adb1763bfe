package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// LineItem is one priced line of a payment session
type LineItem struct {
	Name     string
	Price    float64
	Quantity int
}

// SessionRequest describes a hosted payment page to create
type SessionRequest struct {
	CustomerEmail string
	Items         []LineItem
	// Metadata is attached to the session and to its payment intent
	Metadata map[string]string
}

// Session is a created hosted payment page
type Session struct {
	ID  string
	URL string
}

// PaymentEvent is a verified webhook event reduced to what the stores need
type PaymentEvent struct {
	ID              string
	Type            string
	OrderID         string
	CheckoutID      string
	SessionID       string
	PaymentIntentID string
	Raw             map[string]any
}

// PaymentProvider creates payment sessions and verifies their webhooks
type PaymentProvider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	ParseWebhook(payload []byte, signature string) (*PaymentEvent, error)
}

// ErrInvalidSignature is returned when a webhook signature does not verify
var ErrInvalidSignature = errors.New("invalid webhook signature")

// StripeProvider is a PaymentProvider backed by Stripe Checkout
type StripeProvider struct {
	api           *client.API
	webhookSecret string
	currency      string
	successURL    string
	cancelURL     string
}

// StripeOptions configures NewStripeProvider
type StripeOptions struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	SuccessURL    string
	CancelURL     string
	Backends      *stripe.Backends
}

// NewStripeProvider creates a Stripe client. Backends may be nil.
func NewStripeProvider(opts StripeOptions) *StripeProvider {
	api := &client.API{}
	api.Init(opts.SecretKey, opts.Backends)
	currency := strings.ToLower(opts.Currency)
	if currency == "" {
		currency = "eur"
	}
	return &StripeProvider{
		api:           api,
		webhookSecret: opts.WebhookSecret,
		currency:      currency,
		successURL:    opts.SuccessURL,
		cancelURL:     opts.CancelURL,
	}
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreateSession opens a Stripe Checkout session in payment mode
func (p *StripeProvider) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.successURL),
		CancelURL:  stripe.String(p.cancelURL),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: req.Metadata,
		},
	}
	params.Context = ctx
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	for _, it := range req.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(p.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(it.Name),
				},
				UnitAmount: stripe.Int64(toCents(it.Price)),
			},
			Quantity: stripe.Int64(int64(it.Quantity)),
		})
	}
	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, upstream("stripe", stripeMessage(err))
	}
	return &Session{ID: s.ID, URL: s.URL}, nil
}

func stripeMessage(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Msg != "" {
		return errors.New(se.Msg)
	}
	return err
}

// ParseWebhook verifies the Stripe-Signature header and extracts the references we store
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	out := &PaymentEvent{ID: event.ID, Type: string(event.Type)}
	var raw []byte
	if event.Data != nil {
		raw = event.Data.Raw
		if err := json.Unmarshal(raw, &out.Raw); err != nil {
			return nil, Invalid("data", "unreadable event object: %v", err)
		}
	}
	tracked := strings.HasPrefix(out.Type, "payment_intent.") || strings.HasPrefix(out.Type, "checkout.session.")
	if tracked && len(raw) == 0 {
		return nil, Invalid("data", "event %s (%s) has no object", out.ID, out.Type)
	}

	switch {
	case strings.HasPrefix(out.Type, "payment_intent."):
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(raw, &pi); err != nil {
			return nil, Invalid("data", "unreadable payment intent: %v", err)
		}
		out.PaymentIntentID = pi.ID
		out.OrderID = pi.Metadata["orderId"]
		out.CheckoutID = pi.Metadata["checkoutId"]
	case strings.HasPrefix(out.Type, "checkout.session."):
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(raw, &cs); err != nil {
			return nil, Invalid("data", "unreadable checkout session: %v", err)
		}
		out.SessionID = cs.ID
		if cs.PaymentIntent != nil {
			out.PaymentIntentID = cs.PaymentIntent.ID
		}
		out.OrderID = cs.Metadata["orderId"]
		out.CheckoutID = cs.Metadata["checkoutId"]
	}
	return out, nil
}
