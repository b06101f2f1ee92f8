// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/docsorter/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// HealthHandler handles health check and reference data operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
	HandleTaxonomy(c echo.Context) error
}

// RunHandler handles batch run lifecycle and code table operations
type RunHandler interface {
	HandleCreateRun(c echo.Context) error
	HandleListRuns(c echo.Context) error
	HandleGetRun(c echo.Context) error
	HandleDeleteRun(c echo.Context) error
	HandleResetRun(c echo.Context) error
	HandleGetCodes(c echo.Context) error
	HandleAddCode(c echo.Context) error
}

// FileHandler handles file ingestion and metadata editing
type FileHandler interface {
	HandleAddFiles(c echo.Context) error
	HandleListFiles(c echo.Context) error
	HandleClearFiles(c echo.Context) error
	HandleGetFile(c echo.Context) error
	HandlePatchFile(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
	HandlePreviewFile(c echo.Context) error
}

// ArchiveHandler handles archive building and stored archives
type ArchiveHandler interface {
	HandleBuildArchive(c echo.Context) error
	HandleListArchives(c echo.Context) error
	HandleGetArchive(c echo.Context) error
	HandleDeleteArchive(c echo.Context) error
}

// UploadHandler handles document service operations
type UploadHandler interface {
	HandleListProjects(c echo.Context) error
	HandleUpload(c echo.Context) error
	HandleUploadStream(c echo.Context) error
}

// ProjectLister lists the projects visible to one API key.
// This allows mocking in tests
type ProjectLister interface {
	ListProjects(ctx context.Context) ([]models.ProjectSummary, error)
}

// ProjectListerFactory builds a ProjectLister for an API key. An empty key
// means the configured default.
type ProjectListerFactory func(apiKey string) ProjectLister
