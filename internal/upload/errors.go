package upload

import (
	"errors"
	"fmt"
)

// Error codes surfaced to callers.
const (
	CodeProjectSetupFailed = "PROJECT_SETUP_FAILED"
	CodeFolderNotFound     = "FOLDER_NOT_FOUND"
)

var (
	// ErrProjectSetupFailed matches any ProjectSetupError.
	ErrProjectSetupFailed = errors.New("project setup failed")

	// ErrFolderNotFound matches any FolderNotFoundError.
	ErrFolderNotFound = errors.New("folder not found")

	// ErrUnbound is returned by ResolveFolder before EnsureBound succeeded.
	ErrUnbound = errors.New("project is not bound")
)

// ProjectSetupError means a project code could not be bound: the project is
// unknown, has no file areas, or a lookup call failed (Err).
type ProjectSetupError struct {
	Code   string
	Reason string
	Err    error
}

func (e *ProjectSetupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s for %q: %s: %v", ErrProjectSetupFailed, e.Code, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s for %q: %s", ErrProjectSetupFailed, e.Code, e.Reason)
}

func (e *ProjectSetupError) Unwrap() error { return e.Err }

func (e *ProjectSetupError) Is(target error) bool { return target == ErrProjectSetupFailed }

// FolderNotFoundError means no remote folder matches the taxonomy path.
// Folders are provisioned by the operator and never created here.
type FolderNotFoundError struct {
	Path string
	Err  error
}

func (e *FolderNotFoundError) Error() string {
	return fmt.Sprintf("%s: %q", ErrFolderNotFound, e.Path)
}

func (e *FolderNotFoundError) Unwrap() error { return e.Err }

func (e *FolderNotFoundError) Is(target error) bool { return target == ErrFolderNotFound }
