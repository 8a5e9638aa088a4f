package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/ytdlp-api-go/internal/domain"
)

// HistoryHandler serves the durable download record.
type HistoryHandler struct {
	history domain.HistoryRepository
}

func NewHistoryHandler(history domain.HistoryRepository) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// List handles GET /history?limit=N: finished downloads, newest first,
// with aggregate counts.
func (h *HistoryHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	records, err := h.history.Recent(limit)
	if err != nil {
		respondError(c, err)
		return
	}
	stats, err := h.history.Stats()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"stats":   stats,
	})
}
