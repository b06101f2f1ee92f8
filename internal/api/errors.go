// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/docsorter/backend/internal/archive"
	"github.com/docsorter/backend/internal/remote"
	"github.com/docsorter/backend/internal/session"
	"github.com/docsorter/backend/internal/storage"
	"github.com/docsorter/backend/internal/upload"
	"github.com/labstack/echo/v4"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
	}
}

// FromError maps errors of the domain packages to API errors. Unknown
// errors become a 500.
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var callErr *remote.CallError
	var setupErr *upload.ProjectSetupError
	switch {
	case errors.As(err, &setupErr):
		status := http.StatusUnprocessableEntity
		if setupErr.Err != nil {
			status = http.StatusBadGateway
		}
		return &APIError{Status: status, Code: upload.CodeProjectSetupFailed, Message: err.Error()}
	case errors.As(err, &callErr):
		return &APIError{Status: http.StatusBadGateway, Code: remote.CodeRemoteCallFailed, Message: err.Error()}
	case errors.Is(err, upload.ErrFolderNotFound):
		return &APIError{Status: http.StatusNotFound, Code: upload.CodeFolderNotFound, Message: err.Error()}
	case errors.Is(err, archive.ErrDuplicateTargetPath):
		return &APIError{Status: http.StatusConflict, Code: archive.CodeDuplicateTargetPath, Message: err.Error()}
	case errors.Is(err, archive.ErrIllegalTargetPath):
		return &APIError{Status: http.StatusUnprocessableEntity, Code: archive.CodeIllegalTargetPath, Message: err.Error()}
	case errors.Is(err, session.ErrFileNotFound), errors.Is(err, storage.ErrNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, session.ErrDuplicateFile):
		return NewConflictError(err.Error())
	case errors.Is(err, session.ErrNoRemote):
		return NewServiceUnavailableError(err.Error())
	case errors.Is(err, session.ErrEmptyName),
		errors.Is(err, session.ErrEmptyProject),
		errors.Is(err, session.ErrUnknownCodeKind):
		return NewBadRequestError(err.Error(), nil)
	}
	return NewInternalError("an unexpected error occurred", err)
}

// ErrorHandler middleware for Echo
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		apiErr = &APIError{
			Status:  httpErr.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", httpErr.Message),
		}
	} else {
		apiErr = FromError(err)
	}

	if apiErr.Status >= http.StatusInternalServerError {
		c.Logger().Error(err)
	}
	c.JSON(apiErr.Status, apiErr)
}

// RespondWithError is a helper to respond with an APIError
func RespondWithError(c echo.Context, err *APIError) error {
	return c.JSON(err.Status, err)
}
