package api

import (
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/thibovi/rebilt-backend/internal/models"
)

const maxWebhookBody = 65536

// StripeWebhook handles POST /webhooks/stripe. The raw body is needed for signature verification.
func (h *Handler) StripeWebhook(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}
	event, err := h.commerce.HandleWebhook(ctx, payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if h.metrics != nil {
			h.metrics.Webhooks.WithLabelValues("rejected").Inc()
		}
		respondError(c, err, "process webhook")
		return
	}
	if h.metrics != nil {
		h.metrics.Webhooks.WithLabelValues(event.Type).Inc()
	}
	log.Printf("[WEBHOOK] Processed %s (%s)", event.ID, event.Type)
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// GetWebhooks handles GET /webhooks?eventType=&limit=
func (h *Handler) GetWebhooks(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var limit int64 = 100
	if v := c.Query("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}
	list, err := h.db.GetWebhooks(ctx, c.Query("eventType"), limit)
	if err != nil {
		respondError(c, err, "fetch webhooks")
		return
	}
	c.JSON(http.StatusOK, gin.H{"webhooks": list})
}
