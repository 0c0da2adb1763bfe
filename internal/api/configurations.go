package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thibovi/rebilt-backend/internal/models"
)

type configurationRequest struct {
	FieldName string   `json:"fieldName"`
	FieldType string   `json:"fieldType"`
	Options   []string `json:"options"`
	IsColor   bool     `json:"isColor"`
}

// GetConfigurations handles GET /configurations
func (h *Handler) GetConfigurations(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	cfgs, err := h.db.GetConfigurations(ctx)
	if err != nil {
		respondError(c, err, "fetch configurations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"configurations": cfgs})
}

// GetConfiguration handles GET /configurations/:id. Options are expanded unless ?resolve=false.
func (h *Handler) GetConfiguration(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	if c.Query("resolve") != "false" {
		res, err := h.resolver.ResolveConfiguration(ctx, c.Param("id"))
		if err != nil {
			respondError(c, err, "fetch configuration")
			return
		}
		c.JSON(http.StatusOK, res)
		return
	}
	cfg, err := h.db.GetConfiguration(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "fetch configuration")
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// CreateConfiguration handles POST /configurations
func (h *Handler) CreateConfiguration(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var req configurationRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.FieldName == "" || req.FieldType == "" {
		badRequest(c, "fieldName and fieldType are required")
		return
	}
	cfg := &models.Configuration{FieldName: req.FieldName, FieldType: req.FieldType, Options: req.Options, IsColor: req.IsColor}
	if err := h.db.CreateConfiguration(ctx, cfg); err != nil {
		respondError(c, err, "create configuration")
		return
	}
	c.JSON(http.StatusCreated, cfg)
}

// UpdateConfiguration handles PUT /configurations/:id
func (h *Handler) UpdateConfiguration(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var req configurationRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.FieldName == "" || req.FieldType == "" {
		badRequest(c, "fieldName and fieldType are required")
		return
	}
	cfg, err := h.db.GetConfiguration(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "update configuration")
		return
	}
	cfg.FieldName, cfg.FieldType, cfg.Options, cfg.IsColor = req.FieldName, req.FieldType, req.Options, req.IsColor
	if err := h.db.UpdateConfiguration(ctx, cfg); err != nil {
		respondError(c, err, "update configuration")
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// DeleteConfiguration handles DELETE /configurations/:id
func (h *Handler) DeleteConfiguration(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.db.DeleteConfiguration(ctx, c.Param("id")); err != nil {
		respondError(c, err, "delete configuration")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Configuration deleted"})
}
