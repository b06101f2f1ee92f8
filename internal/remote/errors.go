package remote

import (
	"errors"
	"fmt"
)

// CodeRemoteCallFailed is the error code for any failed remote operation.
const CodeRemoteCallFailed = "REMOTE_CALL_FAILED"

// Operation names carried by CallError.
const (
	OpListProjects      = "listProjects"
	OpListFileAreas     = "listFileAreas"
	OpListFolders       = "listFolders"
	OpRequestUploadSlot = "requestUploadSlot"
	OpStreamContent     = "streamContent"
	OpFinalize          = "finalize"
)

var (
	// ErrNotFound is returned by the Find* lookups when nothing matches.
	ErrNotFound = errors.New("not found")

	// ErrEmptyContent is returned for zero-byte uploads, which cannot be
	// expressed as a byte range.
	ErrEmptyContent = errors.New("empty content")
)

// CallError is a failed remote operation: transport error, timeout,
// non-2xx status or an unreadable response.
type CallError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *CallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote %s failed (HTTP %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }
