// handlers_health.go - Health check and taxonomy handlers
package api

import (
	"net/http"

	"github.com/docsorter/backend/internal/taxonomy"
	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version  string
	taxonomy *taxonomy.Taxonomy
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, tx *taxonomy.Taxonomy) HealthHandler {
	return &HealthHandlerImpl{
		version:  version,
		taxonomy: tx,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	})
}

// HandleTaxonomy returns the folder taxonomy and every legal target path
func (h *HealthHandlerImpl) HandleTaxonomy(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"categories": h.taxonomy.Categories(),
		"paths":      h.taxonomy.LegalPaths(),
	})
}
