package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/thibovi/rebilt-backend/internal/db"
	"github.com/thibovi/rebilt-backend/internal/models"
)

// GetPartners handles GET /partners?active=true
func (h *Handler) GetPartners(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	activeOnly, _ := strconv.ParseBool(c.Query("active"))
	partners, err := h.db.GetPartners(ctx, activeOnly)
	if err != nil {
		respondError(c, err, "fetch partners")
		return
	}
	c.JSON(http.StatusOK, gin.H{"partners": partners})
}

// GetPartner handles GET /partners/:id
func (h *Handler) GetPartner(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	p, err := h.db.GetPartner(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "fetch partner")
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetPartnerByName handles GET /partners/by-name/:name
func (h *Handler) GetPartnerByName(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	p, err := h.db.GetPartnerByName(ctx, c.Param("name"))
	if err != nil {
		respondError(c, err, "fetch partner")
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetPartnerByDomain handles GET /partners/by-domain/:domain
func (h *Handler) GetPartnerByDomain(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	p, err := h.db.GetPartnerByDomain(ctx, c.Param("domain"))
	if err != nil {
		respondError(c, err, "fetch partner")
		return
	}
	c.JSON(http.StatusOK, p)
}

// CreatePartner handles POST /partners
func (h *Handler) CreatePartner(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var req models.PartnerRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Name == nil || *req.Name == "" || req.Package == nil || *req.Package == "" {
		badRequest(c, "name and package are required")
		return
	}
	p := &models.Partner{Active: true}
	req.Apply(p)
	if err := h.db.CreatePartner(ctx, p); err != nil {
		if db.IsConflict(err) {
			conflict(c, "Partner '"+p.Name+"' already exists.")
			return
		}
		respondError(c, err, "create partner")
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdatePartner handles PUT /partners/:id. Only provided fields change.
func (h *Handler) UpdatePartner(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var req models.PartnerRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.db.GetPartner(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "update partner")
		return
	}
	req.Apply(p)
	if p.Name == "" || p.Package == "" {
		badRequest(c, "name and package must not be empty")
		return
	}
	if err := h.db.UpdatePartner(ctx, p); err != nil {
		if db.IsConflict(err) {
			conflict(c, "Partner '"+p.Name+"' already exists.")
			return
		}
		respondError(c, err, "update partner")
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeletePartner handles DELETE /partners/:id
func (h *Handler) DeletePartner(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.db.DeletePartner(ctx, c.Param("id")); err != nil {
		respondError(c, err, "delete partner")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Partner deleted"})
}
