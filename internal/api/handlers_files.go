// handlers_files.go - File ingestion and metadata handlers
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/docsorter/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// FileHandlerImpl implements the FileHandler interface
type FileHandlerImpl struct {
	runs *session.Manager
}

// NewFileHandler creates a new file handler instance
func NewFileHandler(runs *session.Manager) FileHandler {
	return &FileHandlerImpl{runs: runs}
}

// rejectedFile is an uploaded file that was not added
type rejectedFile struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type addFilesResponse struct {
	Added    []session.FileView `json:"added"`
	Rejected []rejectedFile     `json:"rejected,omitempty"`
	Progress session.Progress   `json:"progress"`
}

type fileListResponse struct {
	Files    []session.FileView `json:"files"`
	Progress session.Progress   `json:"progress"`
}

// HandleAddFiles accepts a multipart form with one or more "files" parts.
// Files whose name is already in the run are reported and skipped.
func (h *FileHandlerImpl) HandleAddFiles(c echo.Context) error {
	run, err := lookupRun(h.runs, c)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return NewBadRequestError("expected multipart form", err)
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return NewValidationError("files")
	}

	resp := addFilesResponse{Added: []session.FileView{}}
	for _, fh := range headers {
		src, err := fh.Open()
		if err != nil {
			return NewBadRequestError("failed to open uploaded file", err)
		}
		content, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return NewBadRequestError("failed to read uploaded file", err)
		}

		view, err := run.AddFile(fh.Filename, content)
		if errors.Is(err, session.ErrDuplicateFile) || errors.Is(err, session.ErrEmptyName) {
			resp.Rejected = append(resp.Rejected, rejectedFile{Name: fh.Filename, Error: err.Error()})
			continue
		}
		if err != nil {
			return err
		}
		resp.Added = append(resp.Added, *view)
	}
	resp.Progress = run.Progress()

	status := http.StatusCreated
	if len(resp.Added) == 0 {
		status = http.StatusConflict
	}
	return c.JSON(status, resp)
}

// HandleListFiles returns every file of the run in ingestion order
func (h *FileHandlerImpl) HandleListFiles(c echo.Context) error {
	run, err := lookupRun(h.runs, c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, fileListResponse{Files: run.Files(), Progress: run.Progress()})
}

// HandleClearFiles removes every file of the run
func (h *FileHandlerImpl) HandleClearFiles(c echo.Context) error {
	run, err := lookupRun(h.runs, c)
	if err != nil {
		return err
	}
	run.Clear()
	return c.NoContent(http.StatusNoContent)
}

// HandleGetFile returns one file with its derived name and path
func (h *FileHandlerImpl) HandleGetFile(c echo.Context) error {
	run, err := lookupRun(h.runs, c)
	if err != nil {
		return err
	}
	view, err := run.File(c.Param("fileId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// HandlePatchFile changes metadata fields. Rejected values are a 422 and
// leave the file unchanged.
func (h *FileHandlerImpl) HandlePatchFile(c echo.Context) error {
	run, err := lookupRun(h.runs, c)
	if err != nil {
		return err
	}

	var patch session.FieldPatch
	if err := c.Bind(&patch); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	res, err := run.Patch(c.Param("fileId"), patch)
	if err != nil {
		return err
	}
	if !res.OK {
		return c.JSON(http.StatusUnprocessableEntity, res)
	}
	return c.JSON(http.StatusOK, res)
}

// HandleDeleteFile removes one file from the run
func (h *FileHandlerImpl) HandleDeleteFile(c echo.Context) error {
	run, err := lookupRun(h.runs, c)
	if err != nil {
		return err
	}
	if err := run.Remove(c.Param("fileId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// HandlePreviewFile serves the original content inline
func (h *FileHandlerImpl) HandlePreviewFile(c echo.Context) error {
	run, err := lookupRun(h.runs, c)
	if err != nil {
		return err
	}
	view, err := run.File(c.Param("fileId"))
	if err != nil {
		return err
	}

	mime := view.MIMEType
	if mime == "" {
		mime = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", view.OriginalName))
	return c.Blob(http.StatusOK, mime, view.Content)
}
