package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/ytdlp-api-go/api/handlers"
	"github.com/yourusername/ytdlp-api-go/api/middleware"
	"github.com/yourusername/ytdlp-api-go/internal/app"
	"github.com/yourusername/ytdlp-api-go/internal/domain"
	"github.com/yourusername/ytdlp-api-go/internal/infrastructure"
)

// Dependencies carries everything the HTTP surface needs.
type Dependencies struct {
	Orchestrator *app.Orchestrator
	ConfigStore  *app.ConfigStore
	Catalog      *infrastructure.FileCatalog
	History      domain.HistoryRepository
	Logger       *zap.Logger
	Version      string
}

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(deps Dependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(middleware.Logger(deps.Logger))
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.CORS())

	downloadHandler := handlers.NewDownloadHandler(deps.Orchestrator)
	formatHandler := handlers.NewFormatHandler(deps.Orchestrator)
	fileHandler := handlers.NewFileHandler(deps.Catalog, deps.ConfigStore)
	configHandler := handlers.NewConfigHandler(deps.ConfigStore)
	healthHandler := handlers.NewHealthHandler(deps.Orchestrator.Registry(), deps.Version)
	statusWS := handlers.NewStatusWebSocketHandler(deps.Orchestrator.Registry(), deps.Logger)

	router.GET("/health", healthHandler.Check)
	router.GET("/formats", formatHandler.List)
	router.POST("/download", downloadHandler.Submit)
	router.GET("/status", downloadHandler.Status)
	router.GET("/status/ws", statusWS.Stream)
	router.GET("/files", fileHandler.List)
	router.GET("/files/*filepath", fileHandler.Serve)
	router.GET("/config", configHandler.Get)
	router.POST("/config", configHandler.Update)

	if deps.History != nil {
		historyHandler := handlers.NewHistoryHandler(deps.History)
		router.GET("/history", historyHandler.List)
	}

	return router
}
