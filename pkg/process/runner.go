// Package process runs build entry points and cleans up the toolchain
// processes they leave behind.
package process

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/glorpus-work/repoharness/pkg/errors"
	"github.com/glorpus-work/repoharness/pkg/logger"
)

// waitDelay bounds how long Wait blocks on output pipes after the process
// has been killed, since grandchildren may keep them open.
const waitDelay = 10 * time.Second

// Command describes one process invocation.
type Command struct {
	Path string
	Args []string
	Dir  string
	// Env overrides or adds variables on top of the current environment.
	Env map[string]string
	// Unset removes variables from the inherited environment.
	Unset []string
	// Timeout kills the process when it elapses. Zero means no timeout.
	Timeout time.Duration
}

// String renders the command line for logs and errors.
func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Environ merges base with the command's overrides. Unset is applied first so
// that a variable named in both Unset and Env ends up set.
func (c Command) Environ(base []string) []string {
	drop := make(map[string]struct{}, len(c.Unset)+len(c.Env))
	for _, k := range c.Unset {
		drop[envKey(k)] = struct{}{}
	}
	for k := range c.Env {
		drop[envKey(k)] = struct{}{}
	}

	env := make([]string, 0, len(base)+len(c.Env))
	for _, kv := range base {
		k, _, _ := strings.Cut(kv, "=")
		if _, ok := drop[envKey(k)]; ok {
			continue
		}
		env = append(env, kv)
	}

	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+c.Env[k])
	}
	return env
}

// Result holds the captured output of a finished process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// ExecRunner is the Runner backed by os/exec.
type ExecRunner struct{}

// NewRunner returns an ExecRunner.
func NewRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes cmd and waits for it to exit, capturing both output streams in full.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	runCtx := ctx
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(runCtx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = cmd.Environ(os.Environ())
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	c.WaitDelay = waitDelay
	configure(c)

	logger.Debug("Starting process", logger.Fields{"command": cmd.String(), "dir": cmd.Dir})
	start := time.Now()
	err := c.Run()
	res := &Result{
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if c.ProcessState != nil {
		res.ExitCode = c.ProcessState.ExitCode()
	}

	fields := logger.Fields{"command": cmd.String(), "exit_code": res.ExitCode, "duration": res.Duration}
	if err == nil {
		logger.Debug("Process finished", fields)
		return res, nil
	}
	logger.Debug("Process failed", fields)

	execErr := &ExecutionError{
		Command:  cmd.String(),
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Err:      err,
	}
	var exitErr *exec.ExitError
	switch {
	case cmd.Timeout > 0 && stderrors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		execErr.TimedOut = true
		execErr.ExitCode = -1
		execErr.Err = errors.Wrapf(context.DeadlineExceeded, "killed after %s", cmd.Timeout)
	case ctx.Err() != nil:
		execErr.ExitCode = -1
		execErr.Err = ctx.Err()
	case stderrors.As(err, &exitErr):
		execErr.Err = errors.Wrapf(errors.ErrProcessExecution, "exit status %d", res.ExitCode)
	}
	res.ExitCode = execErr.ExitCode
	return res, execErr
}
