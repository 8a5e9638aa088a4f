package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/ytdlp-api-go/internal/app"
)

// HealthHandler answers liveness probes. The CLI polls it to decide whether
// the daemon is up.
type HealthHandler struct {
	registry *app.JobRegistry
	version  string
}

func NewHealthHandler(registry *app.JobRegistry, version string) *HealthHandler {
	return &HealthHandler{registry: registry, version: version}
}

// Check handles GET /health.
func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"version":     h.version,
		"active_jobs": h.registry.ActiveCount(),
	})
}
