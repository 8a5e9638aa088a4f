package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/ytdlp-api-go/internal/app"
	"github.com/yourusername/ytdlp-api-go/internal/domain"
)

// ConfigHandler reads and updates the persisted configuration.
type ConfigHandler struct {
	store *app.ConfigStore
}

func NewConfigHandler(store *app.ConfigStore) *ConfigHandler {
	return &ConfigHandler{store: store}
}

// Get handles GET /config.
func (h *ConfigHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Get())
}

// Update handles POST /config. The full configuration is replaced: the new
// value is persisted before it becomes visible to readers. Bind address
// changes apply on the next server start.
func (h *ConfigHandler) Update(c *gin.Context) {
	var next domain.Config
	if err := c.ShouldBindJSON(&next); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}

	if err := h.store.Update(next); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.store.Get())
}
