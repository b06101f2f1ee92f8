package archive

import (
	"errors"
	"fmt"
)

// Error codes surfaced to callers.
const (
	CodeDuplicateTargetPath = "DUPLICATE_TARGET_PATH"
	CodeIllegalTargetPath   = "ILLEGAL_TARGET_PATH"
)

var (
	// ErrDuplicateTargetPath matches any DuplicateTargetPathError.
	ErrDuplicateTargetPath = errors.New("duplicate target path")

	// ErrIllegalTargetPath matches any IllegalTargetPathError.
	ErrIllegalTargetPath = errors.New("illegal target path")
)

// DuplicateTargetPathError reports two records that derive the same entry
// path. Zip writers keep both entries and readers pick one, so the build is
// refused instead.
type DuplicateTargetPathError struct {
	Path   string
	First  string
	Second string
}

func (e *DuplicateTargetPathError) Error() string {
	return fmt.Sprintf("%s: %s (from %q and %q)", ErrDuplicateTargetPath, e.Path, e.First, e.Second)
}

func (e *DuplicateTargetPathError) Is(target error) bool { return target == ErrDuplicateTargetPath }

// IllegalTargetPathError reports a complete record whose target path is not
// part of the taxonomy, or whose filename holds a path separator.
type IllegalTargetPathError struct {
	Path   string
	Record string
}

func (e *IllegalTargetPathError) Error() string {
	return fmt.Sprintf("%s: %q for %q", ErrIllegalTargetPath, e.Path, e.Record)
}

func (e *IllegalTargetPathError) Is(target error) bool { return target == ErrIllegalTargetPath }
