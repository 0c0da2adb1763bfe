package api

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thibovi/rebilt-backend/internal/models"
	"github.com/thibovi/rebilt-backend/internal/storage"
)

// maxUploadSize caps multipart uploads for meshes, fonts and images
const maxUploadSize = 100 << 20

type assetRequest struct {
	PartnerID string `json:"partnerId"`
	Name      string `json:"name"`
	ModelFile string `json:"modelFile"`
}

func (r assetRequest) validate() string {
	if r.PartnerID == "" || r.Name == "" || r.ModelFile == "" {
		return "partnerId, name and modelFile are required"
	}
	return ""
}

// GetAssets handles GET /cloudinary?partnerId=
func (h *Handler) GetAssets(c *gin.Context) {
	h.listAssets(c, "")
}

// SearchAssets handles GET /cloudinary/search?q=&partnerId=
func (h *Handler) SearchAssets(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		badRequest(c, "q is required")
		return
	}
	h.listAssets(c, q)
}

func (h *Handler) listAssets(c *gin.Context, q string) {
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.db.GetAssets(ctx, c.Query("partnerId"), q)
	if err != nil {
		respondError(c, err, "fetch assets")
		return
	}
	c.JSON(http.StatusOK, gin.H{"assets": list})
}

// GetAsset handles GET /cloudinary/:id
func (h *Handler) GetAsset(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	a, err := h.db.GetAsset(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "fetch asset")
		return
	}
	c.JSON(http.StatusOK, a)
}

// CreateAsset handles POST /cloudinary
func (h *Handler) CreateAsset(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var req assetRequest
	if !bindJSON(c, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		badRequest(c, msg)
		return
	}
	a := &models.Asset{PartnerID: req.PartnerID, Name: req.Name, ModelFile: req.ModelFile}
	if err := h.db.CreateAsset(ctx, a); err != nil {
		respondError(c, err, "create asset")
		return
	}
	c.JSON(http.StatusCreated, a)
}

// UpdateAsset handles PUT /cloudinary/:id
func (h *Handler) UpdateAsset(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var req assetRequest
	if !bindJSON(c, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		badRequest(c, msg)
		return
	}
	a, err := h.db.GetAsset(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "update asset")
		return
	}
	a.PartnerID, a.Name, a.ModelFile = req.PartnerID, req.Name, req.ModelFile
	if err := h.db.UpdateAsset(ctx, a); err != nil {
		respondError(c, err, "update asset")
		return
	}
	c.JSON(http.StatusOK, a)
}

// DeleteAsset handles DELETE /cloudinary/:id
func (h *Handler) DeleteAsset(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.db.DeleteAsset(ctx, c.Param("id")); err != nil {
		respondError(c, err, "delete asset")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Asset deleted"})
}

// formFile opens the multipart "file" field. It writes the 400 response itself.
func formFile(c *gin.Context) (multipart.File, *multipart.FileHeader, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "multipart field 'file' is required")
		return nil, nil, false
	}
	f, err := header.Open()
	if err != nil {
		badRequest(c, "cannot read uploaded file: "+err.Error())
		return nil, nil, false
	}
	return f, header, true
}

// UploadMesh handles POST /cloudinary/upload-mesh
func (h *Handler) UploadMesh(c *gin.Context) {
	if !h.media.Enabled() {
		respondError(c, storage.ErrDisabled, "upload mesh")
		return
	}
	f, header, ok := formFile(c)
	if !ok {
		return
	}
	defer f.Close()
	ctx, cancel := context.WithTimeout(c.Request.Context(), mediaTimeout)
	defer cancel()
	url, asset, err := h.media.UploadMesh(ctx, header.Filename, f, header.Size,
		header.Header.Get("Content-Type"), c.PostForm("partnerId"), c.PostForm("name"))
	if err != nil {
		respondError(c, err, "upload mesh")
		return
	}
	resp := gin.H{"url": url}
	if asset != nil {
		resp["asset"] = asset
	}
	c.JSON(http.StatusCreated, resp)
}

// UploadFont handles POST /cloudinary/upload-font
func (h *Handler) UploadFont(c *gin.Context) {
	if !h.media.Enabled() {
		respondError(c, storage.ErrDisabled, "upload font")
		return
	}
	f, header, ok := formFile(c)
	if !ok {
		return
	}
	defer f.Close()
	ctx, cancel := context.WithTimeout(c.Request.Context(), mediaTimeout)
	defer cancel()
	url, err := h.media.UploadFont(ctx, header.Filename, f, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, err, "upload font")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
