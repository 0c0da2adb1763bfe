package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/thibovi/rebilt-backend/internal/models"
)

func validHouseStyle(c *gin.Context, hs *models.HouseStyle) bool {
	if bad := hs.InvalidColors(); len(bad) > 0 {
		badRequest(c, "invalid hex color: "+strings.Join(bad, ", "))
		return false
	}
	return true
}

// GetHouseStyles handles GET /house-styles?partnerId=
func (h *Handler) GetHouseStyles(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.db.GetHouseStyles(ctx, c.Query("partnerId"))
	if err != nil {
		respondError(c, err, "fetch house styles")
		return
	}
	c.JSON(http.StatusOK, gin.H{"houseStyles": list})
}

// GetHouseStyle handles GET /house-styles/:id
func (h *Handler) GetHouseStyle(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	hs, err := h.db.GetHouseStyle(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "fetch house style")
		return
	}
	c.JSON(http.StatusOK, hs)
}

// CreateHouseStyle handles POST /house-styles
func (h *Handler) CreateHouseStyle(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var hs models.HouseStyle
	if !bindJSON(c, &hs) || !validHouseStyle(c, &hs) {
		return
	}
	hs.Base = models.Base{}
	if err := h.db.CreateHouseStyle(ctx, &hs); err != nil {
		respondError(c, err, "create house style")
		return
	}
	c.JSON(http.StatusCreated, hs)
}

// UpdateHouseStyle handles PUT /house-styles/:id
func (h *Handler) UpdateHouseStyle(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var req models.HouseStyle
	if !bindJSON(c, &req) || !validHouseStyle(c, &req) {
		return
	}
	cur, err := h.db.GetHouseStyle(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "update house style")
		return
	}
	req.Base = cur.Base
	if err := h.db.UpdateHouseStyle(ctx, &req); err != nil {
		respondError(c, err, "update house style")
		return
	}
	c.JSON(http.StatusOK, req)
}

// DeleteHouseStyle handles DELETE /house-styles/:id
func (h *Handler) DeleteHouseStyle(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.db.DeleteHouseStyle(ctx, c.Param("id")); err != nil {
		respondError(c, err, "delete house style")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "House style deleted"})
}
