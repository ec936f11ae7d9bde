package scaffold

import (
	"fmt"

	"github.com/glorpus-work/repoharness/pkg/errors"
)

// ResourceNotFoundError is returned when a packaged input file or directory
// is missing from the resource set.
type ResourceNotFoundError struct {
	Path string
	Dir  bool
	Err  error
}

// Error implements the error interface for ResourceNotFoundError.
func (e *ResourceNotFoundError) Error() string {
	kind := "file"
	if e.Dir {
		kind = "directory"
	}
	if e.Err != nil {
		return fmt.Sprintf("resource %s %s not found: %v", kind, e.Path, e.Err)
	}
	return fmt.Sprintf("resource %s %s not found", kind, e.Path)
}

// Unwrap returns the underlying error for ResourceNotFoundError.
func (e *ResourceNotFoundError) Unwrap() error {
	return e.Err
}

// Is makes ResourceNotFoundError match errors.ErrResourceNotFound.
func (e *ResourceNotFoundError) Is(target error) bool {
	return target == errors.ErrResourceNotFound
}

// NewResourceNotFoundError creates a new ResourceNotFoundError.
func NewResourceNotFoundError(path string, dir bool, err error) error {
	return &ResourceNotFoundError{Path: path, Dir: dir, Err: err}
}
