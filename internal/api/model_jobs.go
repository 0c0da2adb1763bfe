package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thibovi/rebilt-backend/internal/services"
)

// CreateModelJob handles POST /model-jobs. The job runs asynchronously.
func (h *Handler) CreateModelJob(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	var in services.ModelJobInput
	if !bindJSON(c, &in) {
		return
	}
	job, err := h.jobs.Submit(ctx, in)
	if err != nil {
		respondError(c, err, "submit model job")
		return
	}
	c.JSON(http.StatusAccepted, job)
}

// GetModelJob handles GET /model-jobs/:id
func (h *Handler) GetModelJob(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	job, err := h.jobs.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "fetch model job")
		return
	}
	c.JSON(http.StatusOK, job)
}

// GetModelJobs handles GET /model-jobs?partnerId=
func (h *Handler) GetModelJobs(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	jobs, err := h.jobs.List(ctx, c.Query("partnerId"))
	if err != nil {
		respondError(c, err, "fetch model jobs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"modelJobs": jobs})
}
