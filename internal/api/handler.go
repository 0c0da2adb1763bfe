package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thibovi/rebilt-backend/internal/db"
	"github.com/thibovi/rebilt-backend/internal/metrics"
	"github.com/thibovi/rebilt-backend/internal/models"
	"github.com/thibovi/rebilt-backend/internal/services"
	"github.com/thibovi/rebilt-backend/internal/storage"
)

const (
	requestTimeout = 10 * time.Second
	// mediaTimeout covers handlers that copy files into object storage
	mediaTimeout = 2 * time.Minute
)

// Handler holds the database and services and provides HTTP handlers
type Handler struct {
	db         *db.Database
	resolver   *services.Resolver
	accounts   *services.AccountService
	commerce   *services.CommerceService
	media      *services.MediaService
	jobs       *services.ModelJobService
	classifier services.ImageClassifier
	metrics    *metrics.Metrics
}

// Deps lists what NewHandler needs. Classifier and Metrics may be nil.
type Deps struct {
	DB         *db.Database
	Resolver   *services.Resolver
	Accounts   *services.AccountService
	Commerce   *services.CommerceService
	Media      *services.MediaService
	Jobs       *services.ModelJobService
	Classifier services.ImageClassifier
	Metrics    *metrics.Metrics
}

// NewHandler creates a new handler instance
func NewHandler(d Deps) *Handler {
	return &Handler{
		db:         d.DB,
		resolver:   d.Resolver,
		accounts:   d.Accounts,
		commerce:   d.Commerce,
		media:      d.Media,
		jobs:       d.Jobs,
		classifier: d.Classifier,
		metrics:    d.Metrics,
	}
}

// Health handles GET /health and /ready
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "Database connection failed",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "rebilt-backend",
	})
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Validation failed", Message: msg})
}

func conflict(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Conflict", Message: msg})
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return false
	}
	return true
}

// respondError maps a service or store error to its HTTP status. action names
// the operation for the generic 500 message.
func respondError(c *gin.Context, err error, action string) {
	var verr *services.ValidationError
	var uerr *services.UpstreamError
	switch {
	case errors.As(err, &verr):
		badRequest(c, verr.Error())
	case db.IsNotFound(err):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Not found", Message: err.Error()})
	case db.IsConflict(err):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Conflict", Message: err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid credentials", Message: err.Error()})
	case errors.Is(err, services.ErrInvalidResetCode), errors.Is(err, services.ErrResetCodeExpired):
		badRequest(c, err.Error())
	case errors.Is(err, services.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid signature", Message: err.Error()})
	case errors.Is(err, services.ErrUnavailable), errors.Is(err, storage.ErrDisabled):
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "Service unavailable", Message: err.Error()})
	case errors.As(err, &uerr):
		log.Printf("[API] %s: upstream %s failed: %v", action, uerr.Service, uerr.Err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to " + action, Message: uerr.Err.Error()})
		c.Error(err)
	default:
		log.Printf("[API] %s: %v", action, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to " + action})
		c.Error(err)
	}
}
