// handlers_upload.go - Document service handlers
package api

import (
	"net/http"

	"github.com/docsorter/backend/internal/models"
	"github.com/docsorter/backend/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// SSE event names sent by HandleUploadStream
const (
	EventOutcome = "outcome"
	EventDone    = "done"
	EventError   = "error"
)

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	runs     *session.Manager
	projects ProjectListerFactory
	log      logrus.FieldLogger
}

// NewUploadHandler creates a new upload handler instance
func NewUploadHandler(runs *session.Manager, projects ProjectListerFactory, log logrus.FieldLogger) UploadHandler {
	return &UploadHandlerImpl{runs: runs, projects: projects, log: log}
}

type projectView struct {
	models.ProjectSummary
	Label string `json:"label"`
}

// HandleListProjects lists the projects visible to the request's API key
func (h *UploadHandlerImpl) HandleListProjects(c echo.Context) error {
	if h.projects == nil {
		return NewServiceUnavailableError("document service is not configured")
	}

	list, err := h.projects(c.Request().Header.Get(APIKeyHeader)).ListProjects(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]projectView, 0, len(list))
	for _, p := range list {
		out = append(out, projectView{ProjectSummary: p, Label: p.Label()})
	}
	return c.JSON(http.StatusOK, out)
}

// HandleUpload sends every complete file of the run and returns the batch
// result. Per-file failures are part of the result, not an error status.
func (h *UploadHandlerImpl) HandleUpload(c echo.Context) error {
	run, err := lookupRun(h.runs, c)
	if err != nil {
		return err
	}

	result, err := run.Upload(c.Request().Context(), nil)
	if err != nil {
		return err
	}
	h.logResult(run, result)
	return respond(c, http.StatusOK, result)
}

// HandleUploadStream runs the same batch as HandleUpload and streams each
// file's outcome as a Server-Sent Event, followed by the batch result.
// The stream is exempt from the server's write timeout.
func (h *UploadHandlerImpl) HandleUploadStream(c echo.Context) error {
	run, err := lookupRun(h.runs, c)
	if err != nil {
		return err
	}

	if err := clearWriteDeadline(c); err != nil {
		h.log.WithError(err).Warn("failed to clear write deadline")
	}
	startEventStream(c)

	result, err := run.Upload(c.Request().Context(), func(o models.PerFileOutcome) {
		if werr := writeEvent(c, EventOutcome, o); werr != nil {
			h.log.WithError(werr).Debug("outcome event not delivered")
		}
	})
	if err != nil {
		return writeEvent(c, EventError, FromError(err))
	}
	h.logResult(run, result)
	return writeEvent(c, EventDone, result)
}

func (h *UploadHandlerImpl) logResult(run *session.Run, result models.BatchResult) {
	h.log.WithFields(logrus.Fields{
		"run":     run.ID(),
		"project": run.ProjectCode(),
		"success": result.SuccessCount,
		"failed":  result.FailedCount,
	}).Info("upload finished")
}
