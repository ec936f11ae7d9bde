package tempdir

import (
	"fmt"

	"github.com/glorpus-work/repoharness/pkg/errors"
)

// AllocationError is returned when a unique directory cannot be created.
type AllocationError struct {
	BaseName string
	Path     string
	Attempts int
	Err      error
}

// Error implements the error interface for AllocationError.
func (e *AllocationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to allocate directory for %q after %d attempts: %v", e.BaseName, e.Attempts, e.Err)
	}
	return fmt.Sprintf("failed to allocate directory %s for %q: %v", e.Path, e.BaseName, e.Err)
}

// Unwrap returns the underlying error for AllocationError.
func (e *AllocationError) Unwrap() error {
	return e.Err
}

// Is makes AllocationError match errors.ErrAllocation.
func (e *AllocationError) Is(target error) bool {
	return target == errors.ErrAllocation
}

// NewAllocationError creates a new AllocationError.
func NewAllocationError(baseName, path string, attempts int, err error) error {
	return &AllocationError{
		BaseName: baseName,
		Path:     path,
		Attempts: attempts,
		Err:      err,
	}
}
