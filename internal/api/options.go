package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thibovi/rebilt-backend/internal/models"
)

type optionRequest struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Price      float64 `json:"price"`
	TextureURL string  `json:"textureUrl"`
}

func (r optionRequest) validate() string {
	switch {
	case r.Name == "" || r.Type == "":
		return "name and type are required"
	case r.Price < 0:
		return "price must not be negative"
	}
	return ""
}

// GetOptions handles GET /options?type=
func (h *Handler) GetOptions(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	opts, err := h.db.GetOptions(ctx, c.Query("type"))
	if err != nil {
		respondError(c, err, "fetch options")
		return
	}
	c.JSON(http.StatusOK, gin.H{"options": opts})
}

// GetOption handles GET /options/:id
func (h *Handler) GetOption(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	o, err := h.db.GetOption(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "fetch option")
		return
	}
	c.JSON(http.StatusOK, o)
}

// CreateOption handles POST /options
func (h *Handler) CreateOption(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var req optionRequest
	if !bindJSON(c, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		badRequest(c, msg)
		return
	}
	o := &models.Option{Name: req.Name, Type: req.Type, Price: req.Price, TextureURL: req.TextureURL}
	if err := h.db.CreateOption(ctx, o); err != nil {
		respondError(c, err, "create option")
		return
	}
	c.JSON(http.StatusCreated, o)
}

// UpdateOption handles PUT /options/:id
func (h *Handler) UpdateOption(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var req optionRequest
	if !bindJSON(c, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		badRequest(c, msg)
		return
	}
	o, err := h.db.GetOption(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "update option")
		return
	}
	o.Name, o.Type, o.Price, o.TextureURL = req.Name, req.Type, req.Price, req.TextureURL
	if err := h.db.UpdateOption(ctx, o); err != nil {
		respondError(c, err, "update option")
		return
	}
	c.JSON(http.StatusOK, o)
}

// DeleteOption handles DELETE /options/:id. Bindings and products keep the dangling id.
func (h *Handler) DeleteOption(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.db.DeleteOption(ctx, c.Param("id")); err != nil {
		respondError(c, err, "delete option")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Option deleted"})
}
