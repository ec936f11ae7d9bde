package hooks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/glorpus-work/repoharness/pkg/errors"
	"github.com/glorpus-work/repoharness/pkg/hooks"
)

func TestTengoExecutor(t *testing.T) {
	executor := hooks.NewTengoExecutor()
	ctx := context.Background()
	hctx := hooks.HookContext{
		RepoRoot:     "/tmp/repo",
		FixtureName:  "dotnet-certificate-true",
		ExitCode:     0,
		Stdout:       "Build succeeded.",
		Certificates: []string{"MicrosoftDotNet500"},
		Vars: map[string]interface{}{
			"customVar": "customValue",
		},
	}

	t.Run("Execute empty script", func(t *testing.T) {
		executor.AddScript(hooks.PreBuild, `// does nothing`)
		assert.NoError(t, executor.Execute(ctx, hooks.PreBuild, hctx))
	})

	t.Run("Execute script with runtime error", func(t *testing.T) {
		executor.AddScript(hooks.PostBuild, `non_existent_function()`)
		err := executor.Execute(ctx, hooks.PostBuild, hctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, pkgerrors.ErrHookExecution))
	})

	t.Run("Execute non-existent script", func(t *testing.T) {
		assert.NoError(t, executor.Execute(ctx, "non-existent-hook", hctx))
	})

	t.Run("Context variables are accessible", func(t *testing.T) {
		executor.AddScript(hooks.PostBuild, `
text := import("text")
if exitCode != 0 || !text.contains(stdout, "succeeded") {
	err = "unexpected build result"
}
if len(certificates) != 1 || certificates[0] != "MicrosoftDotNet500" {
	err = "unexpected certificates"
}
if fixtureName == "" || repoRoot == "" || customVar != "customValue" {
	err = "missing context"
}
`)
		assert.NoError(t, executor.Execute(ctx, hooks.PostBuild, hctx))
	})

	t.Run("String err fails the hook", func(t *testing.T) {
		executor.AddScript(hooks.PostBuild, `
if certificates[0] != "Microsoft400" {
	err = "expected Microsoft400, got " + certificates[0]
}
`)
		err := executor.Execute(ctx, hooks.PostBuild, hctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, pkgerrors.ErrHookScript))
		assert.Contains(t, err.Error(), "expected Microsoft400, got MicrosoftDotNet500")
	})

	t.Run("Error value fails the hook", func(t *testing.T) {
		executor.AddScript(hooks.PreBuild, `err = error("not ready")`)
		err := executor.Execute(ctx, hooks.PreBuild, hctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, pkgerrors.ErrHookScript))
		assert.Contains(t, err.Error(), "not ready")
	})

	t.Run("Canceled context stops the script", func(t *testing.T) {
		executor.AddScript(hooks.PreBuild, `for { }`)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.Error(t, executor.Execute(cctx, hooks.PreBuild, hctx))
	})
}

func TestTengoExecutor_HookManager(t *testing.T) {
	var manager hooks.HookManager = hooks.NewTengoExecutor()

	assert.False(t, manager.HasHook(hooks.PreBuild))
	require.NoError(t, manager.AddHook(hooks.Hook{Type: hooks.PreBuild, Content: "x := 1"}))
	assert.True(t, manager.HasHook(hooks.PreBuild))
	assert.False(t, manager.HasHook(hooks.PostBuild))

	assert.True(t, errors.Is(manager.AddHook(hooks.Hook{}), pkgerrors.ErrHookTypeEmpty))
	assert.True(t, errors.Is(manager.AddHook(hooks.Hook{Type: "pre-install"}), pkgerrors.ErrHookLoad))
}
