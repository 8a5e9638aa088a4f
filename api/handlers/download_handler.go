package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/ytdlp-api-go/internal/app"
	"github.com/yourusername/ytdlp-api-go/internal/domain"
)

// DownloadHandler exposes download submission and status polling.
type DownloadHandler struct {
	orchestrator *app.Orchestrator
}

func NewDownloadHandler(orchestrator *app.Orchestrator) *DownloadHandler {
	return &DownloadHandler{orchestrator: orchestrator}
}

// Submit handles POST /download. The download runs in the background; the
// response carries the key to poll status with.
func (h *DownloadHandler) Submit(c *gin.Context) {
	var req domain.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}

	key, err := h.orchestrator.Submit(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":      "download started",
		"download_key": key,
	})
}

// Status handles GET /status: a snapshot of every job of this session,
// keyed by source URL.
func (h *DownloadHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.orchestrator.Registry().SnapshotAll())
}
