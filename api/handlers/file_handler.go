package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/ytdlp-api-go/internal/app"
	"github.com/yourusername/ytdlp-api-go/internal/domain"
	"github.com/yourusername/ytdlp-api-go/internal/infrastructure"
)

// FileHandler lists and serves completed downloads.
type FileHandler struct {
	catalog *infrastructure.FileCatalog
	store   *app.ConfigStore
}

func NewFileHandler(catalog *infrastructure.FileCatalog, store *app.ConfigStore) *FileHandler {
	return &FileHandler{catalog: catalog, store: store}
}

// List handles GET /files: relative paths of everything under the download
// directory.
func (h *FileHandler) List(c *gin.Context) {
	files, err := h.catalog.List(h.store.DownloadDir())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// Serve handles GET /files/*filepath: the file as an attachment, after the
// catalog has confirmed the resolved path stays inside the download
// directory.
func (h *FileHandler) Serve(c *gin.Context) {
	raw := strings.TrimPrefix(c.Param("filepath"), "/")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		respondError(c, fmt.Errorf("%w: malformed file path", domain.ErrValidation))
		return
	}

	resolved, err := h.catalog.Resolve(h.store.DownloadDir(), decoded)
	if err != nil {
		respondError(c, err)
		return
	}

	c.FileAttachment(resolved, filepath.Base(resolved))
}
