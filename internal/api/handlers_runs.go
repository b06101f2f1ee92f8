// handlers_runs.go - Run lifecycle and code table handlers
package api

import (
	"net/http"
	"strings"

	"github.com/docsorter/backend/internal/naming"
	"github.com/docsorter/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// RunHandlerImpl implements the RunHandler interface
type RunHandlerImpl struct {
	runs *session.Manager
}

// NewRunHandler creates a new run handler instance
func NewRunHandler(runs *session.Manager) RunHandler {
	return &RunHandlerImpl{runs: runs}
}

type createRunRequest struct {
	ProjectCode string `json:"projectCode"`
	APIKey      string `json:"apiKey"`
}

func (r *createRunRequest) validate() error {
	if strings.TrimSpace(r.ProjectCode) == "" {
		return NewValidationError("projectCode")
	}
	return nil
}

type addCodeRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// HandleCreateRun starts a run for one project code
func (h *RunHandlerImpl) HandleCreateRun(c echo.Context) error {
	var req createRunRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = c.Request().Header.Get(APIKeyHeader)
	}

	run, err := h.runs.Create(req.ProjectCode, apiKey)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, run.Info())
}

// HandleListRuns lists active runs, newest first
func (h *RunHandlerImpl) HandleListRuns(c echo.Context) error {
	return c.JSON(http.StatusOK, h.runs.List())
}

// HandleGetRun returns a run summary
func (h *RunHandlerImpl) HandleGetRun(c echo.Context) error {
	run, err := lookupRun(h.runs, c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, run.Info())
}

// HandleDeleteRun drops a run and everything in it
func (h *RunHandlerImpl) HandleDeleteRun(c echo.Context) error {
	id := c.Param("runId")
	if !h.runs.Delete(id) {
		return NewNotFoundError("run", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleResetRun clears files, added codes and the project binding
func (h *RunHandlerImpl) HandleResetRun(c echo.Context) error {
	run, err := lookupRun(h.runs, c)
	if err != nil {
		return err
	}
	run.Reset()
	return c.JSON(http.StatusOK, run.Info())
}

// HandleGetCodes returns the run's three code tables
func (h *RunHandlerImpl) HandleGetCodes(c echo.Context) error {
	run, err := lookupRun(h.runs, c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, run.Codes())
}

// HandleAddCode adds a code to one table. A rejected code is a 422 with
// the rejection in the body.
func (h *RunHandlerImpl) HandleAddCode(c echo.Context) error {
	run, err := lookupRun(h.runs, c)
	if err != nil {
		return err
	}

	kind, ok := naming.ParseCodeKind(c.Param("kind"))
	if !ok {
		return NewBadRequestError("unknown code kind: "+c.Param("kind"), nil)
	}

	var req addCodeRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	res, err := run.AddCode(kind, req.Code, req.Description)
	if err != nil {
		return err
	}
	if !res.OK {
		return c.JSON(http.StatusUnprocessableEntity, res)
	}
	return c.JSON(http.StatusCreated, res)
}
