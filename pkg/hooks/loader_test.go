package hooks_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/glorpus-work/repoharness/pkg/hooks"
	hkmocks "github.com/glorpus-work/repoharness/pkg/hooks/mocks"
)

func TestLoadHooksFromDir(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir := t.TempDir()
	files := map[string]string{
		"pre-build.tengo":   `x := 1`,
		"post-build.tengo":  `y := 2`,
		"pre-install.tengo": `ignored := true`,
		"README.md":         "not a hook",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.tengo"), 0o755))

	manager := hkmocks.NewMockHookManager(ctrl)
	manager.EXPECT().AddHook(hooks.Hook{Type: hooks.PreBuild, Content: `x := 1`}).Return(nil)
	manager.EXPECT().AddHook(hooks.Hook{Type: hooks.PostBuild, Content: `y := 2`}).Return(nil)

	require.NoError(t, hooks.LoadHooksFromDir(manager, dir))
}

func TestLoadHooksFromDir_Missing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	manager := hkmocks.NewMockHookManager(ctrl)
	assert.NoError(t, hooks.LoadHooksFromDir(manager, filepath.Join(t.TempDir(), "missing")))
}

func TestLoadHooksFromDir_RealExecutor(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "post-build.tengo"), []byte(`err = ""`), 0o644))

	executor := hooks.NewTengoExecutor()
	require.NoError(t, hooks.LoadHooksFromDir(executor, dir))
	assert.True(t, executor.HasHook(hooks.PostBuild))
	assert.False(t, executor.HasHook(hooks.PreBuild))
}
