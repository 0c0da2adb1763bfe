package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/thibovi/rebilt-backend/internal/services"
)

type classifyRequest struct {
	ImageURL string `json:"imageUrl"`
}

// ClassifyImage handles POST /images/classify with either a JSON imageUrl or a multipart file
func (h *Handler) ClassifyImage(c *gin.Context) {
	if h.classifier == nil {
		respondError(c, services.ErrUnavailable, "classify image")
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), mediaTimeout)
	defer cancel()

	var labels []string
	var err error
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		f, header, ok := formFile(c)
		if !ok {
			return
		}
		defer f.Close()
		labels, err = h.classifier.ClassifyFile(ctx, header.Filename, f)
	} else {
		var req classifyRequest
		if !bindJSON(c, &req) {
			return
		}
		if req.ImageURL == "" {
			badRequest(c, "imageUrl is required")
			return
		}
		labels, err = h.classifier.ClassifyURL(ctx, req.ImageURL)
	}
	if err != nil {
		respondError(c, err, "classify image")
		return
	}
	if labels == nil {
		labels = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"labels": labels})
}
