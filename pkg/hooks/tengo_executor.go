package hooks

import (
	"context"
	"fmt"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/glorpus-work/repoharness/pkg/errors"
	"github.com/glorpus-work/repoharness/pkg/logger"
)

// ErrVar is the script global a hook assigns to fail the scenario.
const ErrVar = "err"

// TengoExecutor handles the execution of Tengo scripts.
type TengoExecutor struct {
	scripts map[HookType]string
	mutex   sync.RWMutex
}

// NewTengoExecutor creates a new Tengo script executor.
func NewTengoExecutor() *TengoExecutor {
	return &TengoExecutor{
		scripts: make(map[HookType]string),
	}
}

// Execute runs the script registered for hookType. Scripts see the context
// as globals and fail the hook by assigning a non-empty string or an error
// value to err.
func (e *TengoExecutor) Execute(ctx context.Context, hookType HookType, hctx HookContext) error {
	e.mutex.RLock()
	script, exists := e.scripts[hookType]
	e.mutex.RUnlock()
	if !exists {
		return nil
	}

	scriptInstance := tengo.NewScript([]byte(script))
	scriptInstance.SetImports(stdlib.GetModuleMap("fmt", "os", "text", "times", "json"))

	certs := make([]interface{}, len(hctx.Certificates))
	for i, c := range hctx.Certificates {
		certs[i] = c
	}
	vars := map[string]interface{}{
		"repoRoot":     hctx.RepoRoot,
		"fixtureName":  hctx.FixtureName,
		"exitCode":     hctx.ExitCode,
		"stdout":       hctx.Stdout,
		"stderr":       hctx.Stderr,
		"certificates": certs,
		ErrVar:         "",
	}
	for k, v := range hctx.Vars {
		vars[k] = v
	}
	for k, v := range vars {
		if err := scriptInstance.Add(k, v); err != nil {
			return fmt.Errorf("failed to add variable '%s' to script: %w", k, err)
		}
	}

	logger.Debug("Running hook", logger.Fields{"hook": string(hookType), "fixture": hctx.FixtureName})
	compiled, err := scriptInstance.RunContext(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", hookType, errors.ErrHookExecution, err)
	}

	switch v := compiled.Get(ErrVar).Object().(type) {
	case *tengo.Error:
		msg := v.String()
		if v.Value != nil {
			msg = v.Value.String()
		}
		return fmt.Errorf("%s: %w: %s", hookType, errors.ErrHookScript, msg)
	case *tengo.String:
		if v.Value != "" {
			return fmt.Errorf("%s: %w: %s", hookType, errors.ErrHookScript, v.Value)
		}
	}
	return nil
}

// AddHook adds or replaces the script for hook.Type.
func (e *TengoExecutor) AddHook(hook Hook) error {
	if hook.Type == "" {
		return errors.ErrHookTypeEmpty
	}
	if !hook.Type.Valid() {
		return ErrUnsupportedHookType(hook.Type)
	}
	e.AddScript(hook.Type, hook.Content)
	return nil
}

// HasHook checks if a script exists for hookType.
func (e *TengoExecutor) HasHook(hookType HookType) bool {
	return e.HasScript(hookType)
}

// AddScript adds or updates a script for the specified hook type.
func (e *TengoExecutor) AddScript(hookType HookType, script string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.scripts[hookType] = script
}

// HasScript checks if a script exists for the specified hook type.
func (e *TengoExecutor) HasScript(hookType HookType) bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	_, exists := e.scripts[hookType]
	return exists
}
