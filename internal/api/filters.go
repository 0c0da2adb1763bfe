package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thibovi/rebilt-backend/internal/db"
	"github.com/thibovi/rebilt-backend/internal/models"
)

type filterRequest struct {
	Name        string                `json:"name"`
	PartnerID   string                `json:"partnerId"`
	CategoryIDs []string              `json:"categoryIds"`
	Options     []models.FilterOption `json:"options"`
}

func (r filterRequest) apply(f *models.Filter) {
	f.Name, f.PartnerID, f.CategoryIDs, f.Options = r.Name, r.PartnerID, r.CategoryIDs, r.Options
}

func duplicateFilter(c *gin.Context, name string) {
	conflict(c, "Filter '"+name+"' already exists for this partner.")
}

// GetFilters handles GET /filters?partnerId=&categoryId=
func (h *Handler) GetFilters(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	filters, err := h.db.GetFilters(ctx, c.Query("partnerId"), c.Query("categoryId"))
	if err != nil {
		respondError(c, err, "fetch filters")
		return
	}
	c.JSON(http.StatusOK, gin.H{"filters": filters})
}

// GetFilter handles GET /filters/:id
func (h *Handler) GetFilter(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	f, err := h.db.GetFilter(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "fetch filter")
		return
	}
	c.JSON(http.StatusOK, f)
}

// CreateFilter handles POST /filters
func (h *Handler) CreateFilter(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var req filterRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Name == "" || req.PartnerID == "" {
		badRequest(c, "name and partnerId are required")
		return
	}
	f := &models.Filter{}
	req.apply(f)
	if err := h.db.CreateFilter(ctx, f); err != nil {
		if db.IsConflict(err) {
			duplicateFilter(c, req.Name)
			return
		}
		respondError(c, err, "create filter")
		return
	}
	c.JSON(http.StatusCreated, f)
}

// UpdateFilter handles PUT /filters/:id
func (h *Handler) UpdateFilter(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var req filterRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Name == "" || req.PartnerID == "" {
		badRequest(c, "name and partnerId are required")
		return
	}
	f, err := h.db.GetFilter(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "update filter")
		return
	}
	req.apply(f)
	if err := h.db.UpdateFilter(ctx, f); err != nil {
		if db.IsConflict(err) {
			duplicateFilter(c, req.Name)
			return
		}
		respondError(c, err, "update filter")
		return
	}
	c.JSON(http.StatusOK, f)
}

// DeleteFilter handles DELETE /filters/:id
func (h *Handler) DeleteFilter(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.db.DeleteFilter(ctx, c.Param("id")); err != nil {
		respondError(c, err, "delete filter")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Filter deleted"})
}
