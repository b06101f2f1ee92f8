package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/docsorter/backend/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// APIKeyHeader selects the document service credential for a request.
const APIKeyHeader = "X-Api-Key"

const mimeMsgpack = "application/msgpack"

// lookupRun resolves the :runId path parameter.
func lookupRun(runs *session.Manager, c echo.Context) (*session.Run, error) {
	id := c.Param("runId")
	run, ok := runs.Get(id)
	if !ok {
		return nil, NewNotFoundError("run", id)
	}
	return run, nil
}

// respond writes v as msgpack when the client asks for it, JSON otherwise.
func respond(c echo.Context, status int, v any) error {
	if !strings.Contains(c.Request().Header.Get(echo.HeaderAccept), mimeMsgpack) {
		return c.JSON(status, v)
	}

	data, err := msgpack.Marshal(v)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(status, mimeMsgpack, data)
}

// startEventStream sets the Server-Sent Events headers and commits the
// response.
func startEventStream(c echo.Context) {
	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no") // Disable nginx buffering
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Flush()
}

// clearWriteDeadline lifts the server's write timeout for a long-lived
// response. Writers without deadline support are left as they are.
func clearWriteDeadline(c echo.Context) error {
	err := http.NewResponseController(c.Response().Writer).SetWriteDeadline(time.Time{})
	if errors.Is(err, http.ErrNotSupported) {
		return nil
	}
	return err
}

// writeEvent sends one named event with a JSON payload.
func writeEvent(c echo.Context, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Response(), "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}
