package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thibovi/rebilt-backend/internal/db"
	"github.com/thibovi/rebilt-backend/internal/models"
)

type productRequest struct {
	ProductCode    string                        `json:"productCode"`
	ProductName    string                        `json:"productName"`
	Description    string                        `json:"description"`
	Price          *float64                      `json:"price"`
	PartnerID      string                        `json:"partnerId"`
	CategoryIDs    []string                      `json:"categoryIds"`
	Configurations []models.ProductConfiguration `json:"configurations"`
	ModelFile      string                        `json:"modelFile"`
	Thumbnail      string                        `json:"thumbnail"`
}

func (r productRequest) validate() string {
	switch {
	case r.ProductCode == "" || r.ProductName == "" || r.PartnerID == "":
		return "productCode, productName and partnerId are required"
	case r.Price == nil:
		return "price is required"
	case *r.Price < 0:
		return "price must not be negative"
	}
	return ""
}

func (r productRequest) apply(p *models.Product) {
	p.ProductCode = r.ProductCode
	p.ProductName = r.ProductName
	p.Description = r.Description
	p.Price = *r.Price
	p.PartnerID = r.PartnerID
	p.CategoryIDs = r.CategoryIDs
	p.Configurations = r.Configurations
	p.ModelFile = r.ModelFile
	p.Thumbnail = r.Thumbnail
}

func duplicateProduct(c *gin.Context, code string) {
	conflict(c, "Product code '"+code+"' already exists.")
}

// prepareProduct runs the strict reference check and hosts remote media
func (h *Handler) prepareProduct(ctx context.Context, p *models.Product) error {
	if err := h.resolver.ValidateProduct(ctx, p); err != nil {
		return err
	}
	return h.media.HostProduct(ctx, p)
}

// GetProducts handles GET /products?partnerId=&categoryId=&q=
func (h *Handler) GetProducts(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	products, err := h.db.GetProducts(ctx, db.ProductQuery{
		PartnerID:  c.Query("partnerId"),
		CategoryID: c.Query("categoryId"),
		Search:     c.Query("q"),
	})
	if err != nil {
		respondError(c, err, "fetch products")
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetProduct handles GET /products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	p, err := h.db.GetProduct(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "fetch product")
		return
	}
	c.JSON(http.StatusOK, p)
}

// CreateProduct handles POST /products
func (h *Handler) CreateProduct(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), mediaTimeout)
	defer cancel()
	var req productRequest
	if !bindJSON(c, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		badRequest(c, msg)
		return
	}
	p := &models.Product{}
	req.apply(p)
	if err := h.prepareProduct(ctx, p); err != nil {
		respondError(c, err, "create product")
		return
	}
	if err := h.db.CreateProduct(ctx, p); err != nil {
		if db.IsConflict(err) {
			duplicateProduct(c, p.ProductCode)
			return
		}
		respondError(c, err, "create product")
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdateProduct handles PUT /products/:id
func (h *Handler) UpdateProduct(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), mediaTimeout)
	defer cancel()
	var req productRequest
	if !bindJSON(c, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		badRequest(c, msg)
		return
	}
	p, err := h.db.GetProduct(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "update product")
		return
	}
	req.apply(p)
	if err := h.prepareProduct(ctx, p); err != nil {
		respondError(c, err, "update product")
		return
	}
	if err := h.db.UpdateProduct(ctx, p); err != nil {
		if db.IsConflict(err) {
			duplicateProduct(c, p.ProductCode)
			return
		}
		respondError(c, err, "update product")
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeleteProduct handles DELETE /products/:id
func (h *Handler) DeleteProduct(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.db.DeleteProduct(ctx, c.Param("id")); err != nil {
		respondError(c, err, "delete product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}
