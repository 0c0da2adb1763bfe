package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareExposesRouteCounters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New("rebilt")
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/metrics", m.Handler())
	r.GET("/api/v1/products/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products/42", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	m.ModelJobs.WithLabelValues("ready").Inc()

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `rebilt_http_requests_total{method="GET",route="/api/v1/products/:id",status_code="204"} 1`)
	assert.Contains(t, body, `rebilt_model_jobs_total{outcome="ready"} 1`)
	assert.NotContains(t, body, `route="/metrics"`)
}
