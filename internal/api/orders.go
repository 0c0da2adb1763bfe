package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thibovi/rebilt-backend/internal/models"
	"github.com/thibovi/rebilt-backend/internal/services"
)

type orderUpdate struct {
	OrderStatus *models.OrderStatus `json:"orderStatus"`
	Name        *string             `json:"name"`
	Email       *string             `json:"email"`
	Phone       *string             `json:"phone"`
	Address     *string             `json:"address"`
}

func (u orderUpdate) apply(o *models.Order) {
	if u.OrderStatus != nil {
		o.OrderStatus = *u.OrderStatus
	}
	if u.Name != nil {
		o.Customer.Name = *u.Name
	}
	if u.Email != nil {
		o.Customer.Email = *u.Email
	}
	if u.Phone != nil {
		o.Customer.Phone = *u.Phone
	}
	if u.Address != nil {
		o.Customer.Address = *u.Address
	}
}

// CreateOrder handles POST /orders/:productId
func (h *Handler) CreateOrder(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var in services.OrderInput
	if !bindJSON(c, &in) {
		return
	}
	order, err := h.commerce.CreateOrder(ctx, c.Param("productId"), in)
	if err != nil {
		respondError(c, err, "create order")
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrders handles GET /orders?productId=&paymentStatus=
func (h *Handler) GetOrders(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	status := models.PaymentStatus(c.Query("paymentStatus"))
	if status != "" && !status.IsValid() {
		badRequest(c, "unknown paymentStatus "+string(status))
		return
	}
	orders, err := h.db.GetOrders(ctx, c.Query("productId"), status)
	if err != nil {
		respondError(c, err, "fetch orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrder handles GET /orders/:orderId
func (h *Handler) GetOrder(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	order, err := h.db.GetOrder(ctx, c.Param("orderId"))
	if err != nil {
		respondError(c, err, "fetch order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrder handles PUT /orders/:orderId. Only orderStatus and customer fields change.
func (h *Handler) UpdateOrder(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var req orderUpdate
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.db.GetOrder(ctx, c.Param("orderId"))
	if err != nil {
		respondError(c, err, "update order")
		return
	}
	req.apply(order)
	if err := services.ValidateOrderCustomer(order.Customer); err != nil {
		respondError(c, err, "update order")
		return
	}
	if err := h.db.UpdateOrder(ctx, order); err != nil {
		respondError(c, err, "update order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// DeleteOrder handles DELETE /orders/:orderId
func (h *Handler) DeleteOrder(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.db.DeleteOrder(ctx, c.Param("orderId")); err != nil {
		respondError(c, err, "delete order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
}

// PayOrder handles POST /orders/:orderId/pay
func (h *Handler) PayOrder(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	order, url, err := h.commerce.PayOrder(ctx, c.Param("productId"))
	if err != nil {
		respondError(c, err, "create payment session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "url": url})
}
