// handlers_archive.go - Archive build and stored archive handlers
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/docsorter/backend/internal/archive"
	"github.com/docsorter/backend/internal/models"
	"github.com/docsorter/backend/internal/session"
	"github.com/docsorter/backend/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const mimeZip = "application/zip"

// ArchiveHandlerImpl implements the ArchiveHandler interface
type ArchiveHandlerImpl struct {
	runs  *session.Manager
	store storage.Store
	log   logrus.FieldLogger
}

// NewArchiveHandler creates a new archive handler instance. store may be
// nil, in which case archives can only be downloaded directly.
func NewArchiveHandler(runs *session.Manager, store storage.Store, log logrus.FieldLogger) ArchiveHandler {
	return &ArchiveHandlerImpl{runs: runs, store: store, log: log}
}

// HandleBuildArchive zips the run's complete files. With ?store=true the
// archive is kept in the archive store and its metadata returned;
// otherwise the zip is the response body.
func (h *ArchiveHandlerImpl) HandleBuildArchive(c echo.Context) error {
	run, err := lookupRun(h.runs, c)
	if err != nil {
		return err
	}

	keep := false
	if v := c.QueryParam("store"); v != "" {
		if keep, err = strconv.ParseBool(v); err != nil {
			return NewBadRequestError("invalid store parameter", err)
		}
	}
	if keep && h.store == nil {
		return NewServiceUnavailableError("archive store is not configured")
	}

	data, count, err := run.BuildArchive()
	if err != nil {
		return err
	}
	name := archive.FileName(run.ProjectCode(), time.Now())

	if !keep {
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
		c.Response().Header().Set("X-File-Count", strconv.Itoa(count))
		return c.Blob(http.StatusOK, mimeZip, data)
	}

	info, err := h.store.Save(c.Request().Context(), models.ArchiveInfo{
		Name:        name,
		ProjectCode: run.ProjectCode(),
		FileCount:   count,
	}, data)
	if err != nil {
		return NewInternalError("failed to store archive", err)
	}
	h.log.WithFields(logrus.Fields{"archive": info.ID, "files": count}).Info("archive stored")
	return c.JSON(http.StatusCreated, info)
}

// HandleListArchives returns stored archives, newest first
func (h *ArchiveHandlerImpl) HandleListArchives(c echo.Context) error {
	if h.store == nil {
		return c.JSON(http.StatusOK, []*models.ArchiveInfo{})
	}

	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return NewValidationError("limit")
		}
		limit = n
	}

	list, err := h.store.List(c.Request().Context(), limit)
	if err != nil {
		return NewInternalError("failed to list archives", err)
	}
	if list == nil {
		list = []*models.ArchiveInfo{}
	}
	return c.JSON(http.StatusOK, list)
}

// HandleGetArchive downloads a stored archive
func (h *ArchiveHandlerImpl) HandleGetArchive(c echo.Context) error {
	if h.store == nil {
		return NewNotFoundError("archive", c.Param("id"))
	}
	ctx := c.Request().Context()
	id := c.Param("id")

	info, err := h.store.Get(ctx, id)
	if err != nil {
		return err
	}
	rc, err := h.store.Open(ctx, id)
	if err != nil {
		return err
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", info.Name))
	return c.Stream(http.StatusOK, mimeZip, rc)
}

// HandleDeleteArchive removes a stored archive
func (h *ArchiveHandlerImpl) HandleDeleteArchive(c echo.Context) error {
	if h.store == nil {
		return NewNotFoundError("archive", c.Param("id"))
	}
	if err := h.store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
