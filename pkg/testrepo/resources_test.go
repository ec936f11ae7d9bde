package testrepo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	pkgerrors "github.com/glorpus-work/repoharness/pkg/errors"
	"github.com/glorpus-work/repoharness/pkg/process"
	procmocks "github.com/glorpus-work/repoharness/pkg/process/mocks"
	"github.com/glorpus-work/repoharness/pkg/scaffold"
	"github.com/glorpus-work/repoharness/test/testutil"
)

func TestCreateResources_NoSharing(t *testing.T) {
	ctrl := gomock.NewController(t)
	inputs := scaffold.NewResourceSet(testutil.NewInputs(t))

	// Any build would fail the test through the mock.
	res := ResourcesForTest(t, ResourcesOptions{
		Options: Options{Runner: procmocks.NewMockRunner(ctrl), Killer: procmocks.NewMockKiller(ctrl)},
		Inputs:  inputs,
	})

	assert.Equal(t, testutil.ToolchainVersion, res.ToolchainVersion)
	assert.Equal(t, testutil.SDKVersion, res.SDKVersion)
	assert.Empty(t, res.SharedToolchainRoot)
	assert.Empty(t, res.SharedPackageCacheRoot)
	assert.Empty(t, res.Root())
	res.Close()
	res.Close()
}

func TestCreateResources_MissingManifest(t *testing.T) {
	inputs := scaffold.NewResourceSet(t.TempDir())
	_, err := CreateResources(context.Background(), ResourcesOptions{Inputs: inputs})
	assert.True(t, errors.Is(err, pkgerrors.ErrResourceNotFound))
}

func TestCreateResources_InvalidManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "global.json"), []byte(`{"tools": {}}`), 0o644))
	_, err := CreateResources(context.Background(), ResourcesOptions{Inputs: scaffold.NewResourceSet(dir)})
	assert.True(t, errors.Is(err, pkgerrors.ErrManifestMissing))
}

func TestCreateResources_SharedRoots(t *testing.T) {
	tests := []struct {
		name          string
		create        []string
		wantToolchain bool
		wantPackages  bool
	}{
		{name: "both roots", create: []string{ToolchainDirName, PackageCacheDirName}, wantToolchain: true, wantPackages: true},
		{name: "packages only", create: []string{PackageCacheDirName}, wantPackages: true},
		{name: "machine defaults", create: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			runner := procmocks.NewMockRunner(ctrl)
			killer := procmocks.NewMockKiller(ctrl)
			tempRoot := t.TempDir()

			runner.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, cmd process.Command) (*process.Result, error) {
					csproj := filepath.Join(cmd.Dir, "src", "FooPackage", "FooPackage.csproj")
					assert.Equal(t, []string{"./eng/common/build.sh", "--restore", "--ci", "--projects", csproj}, cmd.Args)
					assert.FileExists(t, csproj)
					assert.FileExists(t, filepath.Join(cmd.Dir, "src", "FooPackage", "Program.cs"))
					assert.FileExists(t, filepath.Join(cmd.Dir, "global.json"))
					for _, d := range tt.create {
						require.NoError(t, os.MkdirAll(filepath.Join(cmd.Dir, d), 0o755))
					}
					return &process.Result{}, nil
				})

			res, err := CreateResources(context.Background(), ResourcesOptions{
				Options:    Options{TempRoot: tempRoot, Runner: runner, Killer: killer, Platform: linux},
				Inputs:     scaffold.NewResourceSet(testutil.NewInputs(t)),
				ShareRoots: true,
			})
			require.NoError(t, err)

			root := res.Root()
			require.DirExists(t, root)
			assert.Equal(t, tempRoot, filepath.Dir(root))
			if tt.wantToolchain {
				assert.Equal(t, filepath.Join(root, ToolchainDirName), res.SharedToolchainRoot)
			} else {
				assert.Empty(t, res.SharedToolchainRoot)
			}
			if tt.wantPackages {
				assert.Equal(t, filepath.Join(root, PackageCacheDirName), res.SharedPackageCacheRoot)
			} else {
				assert.Empty(t, res.SharedPackageCacheRoot)
			}

			res.Close()
			assert.NoDirExists(t, root)
			assert.DirExists(t, tempRoot)
			res.Close()
		})
	}
}

func TestCreateResources_FixturesUseSharedRoots(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := procmocks.NewMockRunner(ctrl)
	killer := procmocks.NewMockKiller(ctrl)
	base := Options{TempRoot: t.TempDir(), Runner: runner, Killer: killer, Platform: linux}

	gomock.InOrder(
		runner.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, cmd process.Command) (*process.Result, error) {
				require.NoError(t, os.MkdirAll(filepath.Join(cmd.Dir, ToolchainDirName), 0o755))
				require.NoError(t, os.MkdirAll(filepath.Join(cmd.Dir, PackageCacheDirName), 0o755))
				require.NoError(t, os.WriteFile(filepath.Join(cmd.Dir, ToolchainDirName, "dotnet"), nil, 0o755))
				return &process.Result{}, nil
			}),
		runner.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, cmd process.Command) (*process.Result, error) {
				assert.Contains(t, cmd.Env[EnvDotNetInstallDir], ToolchainDirName)
				assert.Contains(t, cmd.Env[EnvNuGetPackages], PackageCacheDirName)
				assert.Empty(t, cmd.Unset)
				return &process.Result{}, nil
			}),
	)
	// Once when the bootstrap fixture closes, once when the resources close.
	killer.EXPECT().KillByExecutablePath(gomock.Any(), gomock.Any()).Return(0, nil).Times(2)

	res := ResourcesForTest(t, ResourcesOptions{
		Options:    base,
		Inputs:     scaffold.NewResourceSet(testutil.NewInputs(t)),
		ShareRoots: true,
	})

	f := NewForTest(t, "Consumer", res, base)
	_, err := f.Build(context.Background(), f.Arg("build"))
	require.NoError(t, err)

	f.Close()
	assert.DirExists(t, res.SharedToolchainRoot, "fixture must not delete shared roots")
}

func TestCreateResources_BootstrapFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := procmocks.NewMockRunner(ctrl)
	tempRoot := t.TempDir()

	runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(
		&process.Result{ExitCode: 1},
		&process.ExecutionError{Command: "bash", ExitCode: 1, Err: pkgerrors.ErrProcessExecution},
	)

	_, err := CreateResources(context.Background(), ResourcesOptions{
		Options:    Options{TempRoot: tempRoot, Runner: runner, Killer: procmocks.NewMockKiller(ctrl), Platform: linux},
		Inputs:     scaffold.NewResourceSet(testutil.NewInputs(t)),
		ShareRoots: true,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.ErrProcessExecution))

	entries, err := os.ReadDir(tempRoot)
	require.NoError(t, err)
	assert.Empty(t, entries, "bootstrap repository must be removed")
}

func TestCreateResources_FakeScript(t *testing.T) {
	testutil.RequireBash(t)

	res := ResourcesForTest(t, ResourcesOptions{
		Options: Options{
			TempRoot: t.TempDir(),
			Platform: linux,
			Env:      map[string]string{testutil.MakeRootsEnv: "1"},
		},
		Inputs:     scaffold.NewResourceSet(testutil.NewInputs(t)),
		ShareRoots: true,
	})

	require.NotEmpty(t, res.SharedToolchainRoot)
	require.NotEmpty(t, res.SharedPackageCacheRoot)
	invocation := testutil.ReadFile(t, res.Root(), testutil.InvocationLog)
	assert.Contains(t, invocation, "--projects\n"+filepath.Join(res.Root(), "src", "FooPackage", "FooPackage.csproj"))
}
