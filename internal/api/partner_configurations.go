package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thibovi/rebilt-backend/internal/db"
	"github.com/thibovi/rebilt-backend/internal/services"
)

func duplicateBinding(c *gin.Context) {
	conflict(c, "This configuration is already bound to this partner.")
}

// GetPartnerConfigurations handles GET /partner-configurations?partnerId=
func (h *Handler) GetPartnerConfigurations(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.resolver.List(ctx, c.Query("partnerId"))
	if err != nil {
		respondError(c, err, "fetch partner configurations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"partnerConfigurations": list})
}

// GetPartnerConfigurationsForCategory handles GET /partner-configurations/partner/:partnerId/category/:categoryId
func (h *Handler) GetPartnerConfigurationsForCategory(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.resolver.ForCategory(ctx, c.Param("partnerId"), c.Param("categoryId"))
	if err != nil {
		respondError(c, err, "fetch partner configurations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"partnerConfigurations": list})
}

// GetPartnerConfiguration handles GET /partner-configurations/:id
func (h *Handler) GetPartnerConfiguration(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	res, err := h.resolver.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "fetch partner configuration")
		return
	}
	c.JSON(http.StatusOK, res)
}

// CreatePartnerConfiguration handles POST /partner-configurations
func (h *Handler) CreatePartnerConfiguration(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var in services.BindingInput
	if !bindJSON(c, &in) {
		return
	}
	pc, err := h.resolver.Bind(ctx, in)
	if err != nil {
		if db.IsConflict(err) {
			duplicateBinding(c)
			return
		}
		respondError(c, err, "create partner configuration")
		return
	}
	c.JSON(http.StatusCreated, pc)
}

// UpdatePartnerConfiguration handles PUT /partner-configurations/:id
func (h *Handler) UpdatePartnerConfiguration(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var in services.BindingInput
	if !bindJSON(c, &in) {
		return
	}
	pc, err := h.resolver.Replace(ctx, c.Param("id"), in)
	if err != nil {
		if db.IsConflict(err) {
			duplicateBinding(c)
			return
		}
		respondError(c, err, "update partner configuration")
		return
	}
	c.JSON(http.StatusOK, pc)
}

// DeletePartnerConfiguration handles DELETE /partner-configurations/:id
func (h *Handler) DeletePartnerConfiguration(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.resolver.Remove(ctx, c.Param("id")); err != nil {
		respondError(c, err, "delete partner configuration")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Partner configuration deleted"})
}
