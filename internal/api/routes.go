// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"
	"strings"

	"github.com/docsorter/backend/internal/session"
	"github.com/docsorter/backend/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Runs     *session.Manager
	Archives storage.Store
	Projects ProjectListerFactory
	Version  string
	Logger   logrus.FieldLogger
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Run     RunHandler
	File    FileHandler
	Archive ArchiveHandler
	Upload  UploadHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "api")

	return &Handlers{
		Health:  NewHealthHandler(deps.Version, deps.Runs.Taxonomy()),
		Run:     NewRunHandler(deps.Runs),
		File:    NewFileHandler(deps.Runs),
		Archive: NewArchiveHandler(deps.Runs, deps.Archives, log),
		Upload:  NewUploadHandler(deps.Runs, deps.Projects, log),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	api := e.Group("/api")

	// Health check and reference data
	api.GET("/health", handlers.Health.HandleHealth)
	api.GET("/taxonomy", handlers.Health.HandleTaxonomy)
	api.GET("/projects", handlers.Upload.HandleListProjects)

	// Run routes
	runGroup := api.Group("/runs")
	runGroup.POST("", handlers.Run.HandleCreateRun)
	runGroup.GET("", handlers.Run.HandleListRuns)
	runGroup.GET("/:runId", handlers.Run.HandleGetRun)
	runGroup.DELETE("/:runId", handlers.Run.HandleDeleteRun)
	runGroup.POST("/:runId/reset", handlers.Run.HandleResetRun)
	runGroup.GET("/:runId/codes", handlers.Run.HandleGetCodes)
	runGroup.POST("/:runId/codes/:kind", handlers.Run.HandleAddCode)

	// File routes
	runGroup.POST("/:runId/files", handlers.File.HandleAddFiles)
	runGroup.GET("/:runId/files", handlers.File.HandleListFiles)
	runGroup.DELETE("/:runId/files", handlers.File.HandleClearFiles)
	runGroup.GET("/:runId/files/:fileId", handlers.File.HandleGetFile)
	runGroup.PATCH("/:runId/files/:fileId", handlers.File.HandlePatchFile)
	runGroup.DELETE("/:runId/files/:fileId", handlers.File.HandleDeleteFile)
	runGroup.GET("/:runId/files/:fileId/preview", handlers.File.HandlePreviewFile)

	// Delivery routes
	runGroup.POST("/:runId/archive", handlers.Archive.HandleBuildArchive)
	runGroup.POST("/:runId/upload", handlers.Upload.HandleUpload)
	runGroup.GET("/:runId/upload/stream", handlers.Upload.HandleUploadStream)

	// Stored archive routes
	archiveGroup := api.Group("/archives")
	archiveGroup.GET("", handlers.Archive.HandleListArchives)
	archiveGroup.GET("/:id", handlers.Archive.HandleGetArchive)
	archiveGroup.DELETE("/:id", handlers.Archive.HandleDeleteArchive)
}

// MiddlewareConfig tunes SetupMiddleware
type MiddlewareConfig struct {
	Logger         *logrus.Logger
	RequestLogging bool
	BodyLimit      string
	EnableCORS     bool
	AllowOrigins   []string
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg MiddlewareConfig) {
	e.HTTPErrorHandler = ErrorHandler

	if cfg.RequestLogging && cfg.Logger != nil {
		log := cfg.Logger.WithField("component", "http")
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			LogMethod: true,
			LogURI:    true,
			LogStatus: true,
			LogError:  true,
			Skipper: func(c echo.Context) bool {
				// Skip polling and streaming endpoints
				path := c.Request().URL.Path
				return path == "/api/health" || strings.HasSuffix(path, "/upload/stream")
			},
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				entry := log.WithFields(logrus.Fields{"method": v.Method, "uri": v.URI, "status": v.Status})
				if v.Error != nil {
					entry.WithError(v.Error).Warn("request failed")
				} else {
					entry.Info("request")
				}
				return nil
			},
		}))
	}
	e.Use(middleware.Recover())

	limit := cfg.BodyLimit
	if limit == "" {
		limit = "500M"
	}
	e.Use(middleware.BodyLimit(limit))

	if cfg.EnableCORS {
		origins := cfg.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, APIKeyHeader},
		}))
	}
}
