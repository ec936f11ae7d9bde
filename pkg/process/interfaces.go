//go:generate mockgen -destination=mocks/process.go . Runner,Killer
package process

import "context"

// Runner launches an external executable and captures its output.
type Runner interface {
	// Run blocks until the command exits. A non-zero exit is reported as an
	// *ExecutionError; the returned Result is populated in both cases.
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// Killer terminates running processes by their resolved executable path.
type Killer interface {
	// KillByExecutablePath kills every process, including its children,
	// whose executable is exactly path. It returns the number of processes
	// that matched.
	KillByExecutablePath(ctx context.Context, path string) (int, error)
}
