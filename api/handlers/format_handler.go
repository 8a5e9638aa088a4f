package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/ytdlp-api-go/internal/app"
)

// FormatHandler exposes format discovery.
type FormatHandler struct {
	orchestrator *app.Orchestrator
}

func NewFormatHandler(orchestrator *app.Orchestrator) *FormatHandler {
	return &FormatHandler{orchestrator: orchestrator}
}

// List handles GET /formats?url=... by probing the URL's metadata without
// downloading anything.
func (h *FormatHandler) List(c *gin.Context) {
	info, err := h.orchestrator.Probe(c.Request.Context(), c.Query("url"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
