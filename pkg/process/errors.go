package process

import (
	"fmt"
	"strings"

	"github.com/glorpus-work/repoharness/pkg/errors"
)

// ExecutionError is returned when a command exits with a non-zero status,
// cannot be started, or is killed because its timeout elapsed.
type ExecutionError struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Err      error
}

// Error implements the error interface for ExecutionError. Captured output
// is included so that test failures are diagnosable from the message alone.
func (e *ExecutionError) Error() string {
	var b strings.Builder
	switch {
	case e.TimedOut:
		fmt.Fprintf(&b, "%s timed out", e.Command)
	case e.ExitCode >= 0:
		fmt.Fprintf(&b, "%s exited with code %d", e.Command, e.ExitCode)
	default:
		fmt.Fprintf(&b, "%s failed: %v", e.Command, e.Err)
	}
	if e.Stdout != "" {
		b.WriteString("\nstdout:\n")
		b.WriteString(e.Stdout)
	}
	if e.Stderr != "" {
		b.WriteString("\nstderr:\n")
		b.WriteString(e.Stderr)
	}
	return b.String()
}

// Unwrap returns the underlying error for ExecutionError.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Is makes ExecutionError match errors.ErrProcessExecution.
func (e *ExecutionError) Is(target error) bool {
	return target == errors.ErrProcessExecution
}

// Output returns stdout and stderr joined, the way callers usually search them.
func (e *ExecutionError) Output() string {
	if e.Stderr == "" {
		return e.Stdout
	}
	return e.Stdout + "\n" + e.Stderr
}
