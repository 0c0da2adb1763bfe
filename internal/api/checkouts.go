package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thibovi/rebilt-backend/internal/models"
	"github.com/thibovi/rebilt-backend/internal/services"
)

type checkoutUpdate struct {
	Customer      *models.CheckoutCustomer `json:"customer"`
	PaymentStatus *models.PaymentStatus    `json:"paymentStatus"`
	PaymentMethod *models.PaymentMethod    `json:"paymentMethod"`
}

func (u checkoutUpdate) validate() string {
	if u.PaymentStatus != nil && !u.PaymentStatus.IsValid() {
		return "unknown paymentStatus " + string(*u.PaymentStatus)
	}
	if u.PaymentMethod != nil && !u.PaymentMethod.IsValid() {
		return "unknown paymentMethod " + string(*u.PaymentMethod)
	}
	return ""
}

// CreateCheckout handles POST /checkouts
func (h *Handler) CreateCheckout(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var in services.CheckoutInput
	if !bindJSON(c, &in) {
		return
	}
	checkout, url, err := h.commerce.CreateCheckout(ctx, in)
	if err != nil {
		respondError(c, err, "create checkout")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"checkout": checkout, "url": url})
}

// GetCheckouts handles GET /checkouts?paymentStatus=
func (h *Handler) GetCheckouts(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	status := models.PaymentStatus(c.Query("paymentStatus"))
	if status != "" && !status.IsValid() {
		badRequest(c, "unknown paymentStatus "+string(status))
		return
	}
	list, err := h.db.GetCheckouts(ctx, status)
	if err != nil {
		respondError(c, err, "fetch checkouts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkouts": list})
}

// GetCheckout handles GET /checkouts/:id
func (h *Handler) GetCheckout(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	checkout, err := h.db.GetCheckout(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "fetch checkout")
		return
	}
	c.JSON(http.StatusOK, checkout)
}

// UpdateCheckout handles PUT /checkouts/:id. Items and totals are fixed once created.
func (h *Handler) UpdateCheckout(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var req checkoutUpdate
	if !bindJSON(c, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		badRequest(c, msg)
		return
	}
	checkout, err := h.db.GetCheckout(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "update checkout")
		return
	}
	if req.Customer != nil {
		checkout.Customer = *req.Customer
	}
	if req.PaymentStatus != nil {
		checkout.PaymentStatus = *req.PaymentStatus
	}
	if req.PaymentMethod != nil {
		checkout.PaymentMethod = *req.PaymentMethod
	}
	if err := h.db.UpdateCheckout(ctx, checkout); err != nil {
		respondError(c, err, "update checkout")
		return
	}
	c.JSON(http.StatusOK, checkout)
}

// DeleteCheckout handles DELETE /checkouts/:id
func (h *Handler) DeleteCheckout(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.db.DeleteCheckout(ctx, c.Param("id")); err != nil {
		respondError(c, err, "delete checkout")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Checkout deleted"})
}
