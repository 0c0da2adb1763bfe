package models

import "time"

// ErrorResponse is the JSON body returned for every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Base carries the identity and timestamps shared by every stored document.
// The id is stored as `_id` in MongoDB and as `id` everywhere else.
type Base struct {
	ID        string    `json:"id" bson:"_id"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Touch sets CreatedAt on first write and refreshes UpdatedAt
func (b *Base) Touch(now time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// Role is a user's access level
type Role string

const (
	RoleCustomer      Role = "customer"
	RolePartnerAdmin  Role = "partner_admin"
	RolePartnerOwner  Role = "partner_owner"
	RolePlatformAdmin Role = "platform_admin"
)

// IsValid checks if the role is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RolePartnerAdmin, RolePartnerOwner, RolePlatformAdmin:
		return true
	default:
		return false
	}
}

// PaymentStatus tracks the external payment state of an order or checkout
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	default:
		return false
	}
}

// PaymentMethod is the customer's chosen way of paying a checkout
type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodPaypal       PaymentMethod = "paypal"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCash         PaymentMethod = "cash"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodPaypal, PaymentMethodBankTransfer, PaymentMethodCash:
		return true
	default:
		return false
	}
}
