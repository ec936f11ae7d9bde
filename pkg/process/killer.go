package process

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/glorpus-work/repoharness/pkg/errors"
	"github.com/glorpus-work/repoharness/pkg/logger"
)

// commLimit is the length Linux truncates process names to.
const commLimit = 15

// ProcessKiller is the Killer backed by gopsutil process enumeration.
type ProcessKiller struct{}

// NewKiller returns a ProcessKiller.
func NewKiller() *ProcessKiller {
	return &ProcessKiller{}
}

// KillByExecutablePath finds processes by base name first and then kills
// only those whose resolved executable equals path. Processes that exit
// while being inspected or killed are skipped.
func (k *ProcessKiller) KillByExecutablePath(ctx context.Context, path string) (int, error) {
	target, err := resolve(path)
	if err != nil {
		return 0, err
	}
	base := filepath.Base(target)

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to list processes")
	}

	self := int32(os.Getpid())
	matched := 0
	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		if err := ctx.Err(); err != nil {
			return matched, err
		}
		name, err := p.NameWithContext(ctx)
		if err != nil || !nameMatches(name, base) {
			continue
		}
		exe, err := p.ExeWithContext(ctx)
		if err != nil || !samePath(filepath.Clean(exe), target) {
			continue
		}
		matched++
		logger.Debug("Killing process", logger.Fields{"pid": p.Pid, "exe": exe})
		killTree(ctx, p, nil)
	}
	return matched, nil
}

// killTree kills p after its descendants. Errors are ignored because the
// processes are frequently already gone.
func killTree(ctx context.Context, p *process.Process, seen map[int32]struct{}) {
	if seen == nil {
		seen = make(map[int32]struct{})
	}
	if _, ok := seen[p.Pid]; ok {
		return
	}
	seen[p.Pid] = struct{}{}

	if children, err := p.ChildrenWithContext(ctx); err == nil {
		for _, child := range children {
			killTree(ctx, child, seen)
		}
	}
	if err := p.KillWithContext(ctx); err != nil {
		logger.Debug("Kill failed", logger.Fields{"pid": p.Pid, "error": err})
	}
}

func resolve(path string) (string, error) {
	if path == "" {
		return "", errors.Wrap(errors.ErrInvalidPath, "executable path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(errors.ErrInvalidPath, "%s: %v", path, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return filepath.Clean(abs), nil
}

// nameMatches compares a reported process name against an executable base
// name, allowing for kernel truncation and the Windows extension.
func nameMatches(name, base string) bool {
	if runtime.GOOS == "windows" {
		name, base = strings.ToLower(name), strings.ToLower(base)
	}
	if name == base {
		return true
	}
	if strings.TrimSuffix(name, ".exe") == strings.TrimSuffix(base, ".exe") {
		return true
	}
	return len(name) >= commLimit && strings.HasPrefix(base, name)
}

func samePath(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}
