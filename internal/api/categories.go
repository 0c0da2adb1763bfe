package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thibovi/rebilt-backend/internal/db"
	"github.com/thibovi/rebilt-backend/internal/models"
)

type categoryRequest struct {
	Name      string           `json:"name"`
	PartnerID string           `json:"partnerId"`
	SubTypes  []models.SubType `json:"subTypes"`
}

func duplicateCategory(c *gin.Context, name string) {
	conflict(c, "Category '"+name+"' already exists for this partner.")
}

// GetCategories handles GET /categories?partnerId=
func (h *Handler) GetCategories(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	cats, err := h.db.GetCategories(ctx, c.Query("partnerId"))
	if err != nil {
		respondError(c, err, "fetch categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

// GetCategory handles GET /categories/:id
func (h *Handler) GetCategory(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	cat, err := h.db.GetCategory(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "fetch category")
		return
	}
	c.JSON(http.StatusOK, cat)
}

// CreateCategory handles POST /categories
func (h *Handler) CreateCategory(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Name == "" {
		badRequest(c, "name is required")
		return
	}
	exists, err := h.db.CategoryExists(ctx, req.Name, req.PartnerID)
	if err != nil {
		respondError(c, err, "create category")
		return
	}
	if exists {
		duplicateCategory(c, req.Name)
		return
	}
	cat := &models.Category{Name: req.Name, PartnerID: req.PartnerID, SubTypes: req.SubTypes}
	if err := h.db.CreateCategory(ctx, cat); err != nil {
		if db.IsConflict(err) {
			duplicateCategory(c, req.Name)
			return
		}
		respondError(c, err, "create category")
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// UpdateCategory handles PUT /categories/:id
func (h *Handler) UpdateCategory(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Name == "" {
		badRequest(c, "name is required")
		return
	}
	cat, err := h.db.GetCategory(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "update category")
		return
	}
	cat.Name, cat.PartnerID, cat.SubTypes = req.Name, req.PartnerID, req.SubTypes
	if err := h.db.UpdateCategory(ctx, cat); err != nil {
		if db.IsConflict(err) {
			duplicateCategory(c, req.Name)
			return
		}
		respondError(c, err, "update category")
		return
	}
	c.JSON(http.StatusOK, cat)
}

// DeleteCategory handles DELETE /categories/:id
func (h *Handler) DeleteCategory(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.db.DeleteCategory(ctx, c.Param("id")); err != nil {
		respondError(c, err, "delete category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

type subTypeRequest struct {
	Name string `json:"name"`
}

// AddSubType handles POST /categories/:id/subtypes
func (h *Handler) AddSubType(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var req subTypeRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Name == "" {
		badRequest(c, "name is required")
		return
	}
	cat, err := h.db.AddCategorySubType(ctx, c.Param("id"), req.Name)
	if err != nil {
		if db.IsConflict(err) {
			conflict(c, "Subtype '"+req.Name+"' already exists in this category.")
			return
		}
		respondError(c, err, "add subtype")
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// RemoveSubType handles DELETE /categories/:id/subtypes/:name
func (h *Handler) RemoveSubType(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	cat, err := h.db.RemoveCategorySubType(ctx, c.Param("id"), c.Param("name"))
	if err != nil {
		respondError(c, err, "remove subtype")
		return
	}
	c.JSON(http.StatusOK, cat)
}
