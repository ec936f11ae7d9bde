package testrepo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/glorpus-work/repoharness/pkg/archive"
	pkgerrors "github.com/glorpus-work/repoharness/pkg/errors"
	"github.com/glorpus-work/repoharness/pkg/platform"
	"github.com/glorpus-work/repoharness/pkg/process"
	procmocks "github.com/glorpus-work/repoharness/pkg/process/mocks"
	"github.com/glorpus-work/repoharness/pkg/scaffold"
	"github.com/glorpus-work/repoharness/test/testutil"
)

var linux = platform.Platform{OS: platform.OSLinux}

func testResources(t *testing.T) *Resources {
	t.Helper()
	inputs := scaffold.NewResourceSet(testutil.NewInputs(t))
	return NewResources(inputs, testutil.ToolchainVersion, testutil.SDKVersion)
}

func TestNew_AllocatesUniqueRoots(t *testing.T) {
	res := testResources(t)
	tempRoot := t.TempDir()

	const n = 16
	fixtures := make([]*Fixture, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fixtures[i], errs[i] = New("ConcurrentFixture", res, Options{TempRoot: tempRoot})
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for i, f := range fixtures {
		require.NoError(t, errs[i])
		t.Cleanup(f.Close)
		r := f.Root()
		require.DirExists(t, r)
		assert.False(t, seen[r], "duplicate root %s", r)
		seen[r] = true
		assert.Equal(t, tempRoot, filepath.Dir(r))
		assert.Contains(t, filepath.Base(r), "Concurre")
	}
}

func TestNew_RequiresResources(t *testing.T) {
	_, err := New("x", nil, Options{})
	require.Error(t, err)
}

func TestAddDefaultRepoSetup(t *testing.T) {
	f := NewForTest(t, "Layout", testResources(t), Options{TempRoot: t.TempDir()})

	require.NoError(t, f.AddDefaultRepoSetup())
	first := testutil.ReadFile(t, f.Root(), "global.json")
	assert.Contains(t, first, testutil.ToolchainVersion)
	assert.Contains(t, first, testutil.SDKVersion)
	assert.FileExists(t, filepath.Join(f.Root(), "eng", "common", "build.sh"))
	assert.FileExists(t, filepath.Join(f.Root(), "NuGet.config"))

	require.NoError(t, f.AddDefaultRepoSetup())
	assert.Equal(t, first, testutil.ReadFile(t, f.Root(), "global.json"))
}

func TestBuild_Command(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := procmocks.NewMockRunner(ctrl)

	res := testResources(t)
	res.SharedPackageCacheRoot = "/shared/.packages"
	f := NewForTest(t, "Command", res, Options{
		TempRoot:     t.TempDir(),
		Runner:       runner,
		Killer:       procmocks.NewMockKiller(ctrl),
		Platform:     linux,
		BuildTimeout: time.Minute,
		Env:          map[string]string{"EXTRA": "1", EnvTelemetryOptOut: "0"},
	})

	runner.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, cmd process.Command) (*process.Result, error) {
			assert.Equal(t, "bash", cmd.Path)
			assert.Equal(t, []string{"./eng/common/build.sh", "--restore", "--sign", "/p:A=B"}, cmd.Args)
			assert.Equal(t, f.Root(), cmd.Dir)
			assert.Equal(t, time.Minute, cmd.Timeout)
			assert.Equal(t, "https://localhost", cmd.Env[EnvRepositoryURI])
			assert.Equal(t, "whatsabranch", cmd.Env[EnvSourceBranch])
			assert.Equal(t, "20200101.1", cmd.Env[EnvBuildNumber])
			assert.Equal(t, "aaaabbbbccccddddeeeeffffeeeeddddccccbbcc", cmd.Env[EnvSourceVersion])
			assert.Equal(t, "0", cmd.Env[EnvTelemetryOptOut])
			assert.Equal(t, "1", cmd.Env["EXTRA"])
			assert.Equal(t, "/shared/.packages", cmd.Env[EnvNuGetPackages])
			assert.Equal(t, []string{EnvDotNetInstallDir}, cmd.Unset)
			return &process.Result{}, nil
		})

	_, err := f.Build(context.Background(), f.Arg("restore"), f.Arg("sign"), "/p:A=B")
	require.NoError(t, err)
}

func TestBuild_WindowsEntryPoint(t *testing.T) {
	f := &Fixture{
		Scaffolder: scaffold.New(t.TempDir(), nil),
		res:        NewResources(nil, "", ""),
		opts:       Options{Platform: platform.Platform{OS: platform.OSWindows}}.withDefaults(),
	}
	cmd := f.Command(f.Arg("restore"))
	assert.Equal(t, "powershell", cmd.Path)
	assert.Equal(t, []string{"./eng/common/build.ps1", "-restore"}, cmd.Args)
	assert.ElementsMatch(t, []string{EnvDotNetInstallDir, EnvNuGetPackages}, cmd.Unset)
}

func TestBuild_PropagatesExecutionError(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := procmocks.NewMockRunner(ctrl)
	f := NewForTest(t, "Failing", testResources(t), Options{
		TempRoot: t.TempDir(), Runner: runner, Killer: procmocks.NewMockKiller(ctrl), Platform: linux,
	})

	execErr := &process.ExecutionError{Command: "bash", ExitCode: 1, Stdout: "List of files to sign is empty", Err: pkgerrors.ErrProcessExecution}
	runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(&process.Result{ExitCode: 1}, execErr)

	res, err := f.Build(context.Background(), f.Arg("sign"))
	require.Error(t, err)
	assert.Equal(t, 1, res.ExitCode)

	var got *process.ExecutionError
	require.True(t, errors.As(err, &got))
	assert.Contains(t, got.Stdout, "List of files to sign is empty")
	assert.True(t, errors.Is(err, pkgerrors.ErrProcessExecution))
}

func TestClose(t *testing.T) {
	t.Run("removes root and is idempotent", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		f, err := New("Close", testResources(t), Options{TempRoot: t.TempDir(), Killer: procmocks.NewMockKiller(ctrl)})
		require.NoError(t, err)
		require.NoError(t, f.WriteFile("a/b.txt", "x"))

		f.Close()
		assert.NoDirExists(t, f.Root())
		f.Close()
	})

	t.Run("keep root", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		f, err := New("Keep", testResources(t), Options{TempRoot: t.TempDir(), KeepRoot: true, Killer: procmocks.NewMockKiller(ctrl)})
		require.NoError(t, err)
		f.Close()
		assert.DirExists(t, f.Root())
	})

	t.Run("keep after failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		f, err := New("Kept", testResources(t), Options{TempRoot: t.TempDir(), Killer: procmocks.NewMockKiller(ctrl)})
		require.NoError(t, err)
		f.Keep()
		f.Close()
		assert.DirExists(t, f.Root())
	})

	t.Run("root already gone", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		f, err := New("Gone", testResources(t), Options{TempRoot: t.TempDir(), Killer: procmocks.NewMockKiller(ctrl)})
		require.NoError(t, err)
		require.NoError(t, os.RemoveAll(f.Root()))
		assert.NotPanics(t, f.Close)
	})

	t.Run("kills toolchain host by exact path once", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		killer := procmocks.NewMockKiller(ctrl)
		f, err := New("Kill", testResources(t), Options{TempRoot: t.TempDir(), Killer: killer, Platform: linux})
		require.NoError(t, err)
		require.NoError(t, f.WriteFile(".dotnet/dotnet", "#!/bin/sh\n"))

		host := filepath.Join(f.Root(), ".dotnet", "dotnet")
		killer.EXPECT().KillByExecutablePath(gomock.Any(), host).Return(1, nil).Times(1)

		f.Close()
		f.Close()
		assert.NoDirExists(t, f.Root())
	})

	t.Run("kill failure is suppressed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		killer := procmocks.NewMockKiller(ctrl)
		f, err := New("KillErr", testResources(t), Options{TempRoot: t.TempDir(), Killer: killer, Platform: linux})
		require.NoError(t, err)
		require.NoError(t, f.WriteFile(".dotnet/dotnet", ""))

		killer.EXPECT().KillByExecutablePath(gomock.Any(), gomock.Any()).Return(0, errors.New("access denied"))
		assert.NotPanics(t, f.Close)
		assert.NoDirExists(t, f.Root())
	})
}

func TestBuild_AfterClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	f, err := New("Closed", testResources(t), Options{
		TempRoot: t.TempDir(), Runner: procmocks.NewMockRunner(ctrl), Killer: procmocks.NewMockKiller(ctrl),
	})
	require.NoError(t, err)
	f.Close()

	_, err = f.Build(context.Background(), "--restore")
	assert.True(t, errors.Is(err, pkgerrors.ErrFixtureClosed))
}

func TestBuild_FakeScript(t *testing.T) {
	testutil.RequireBash(t)

	f := NewForTest(t, "FakeBuild", testResources(t), Options{TempRoot: t.TempDir(), Platform: linux})
	require.NoError(t, f.AddDefaultRepoSetup())

	_, err := f.Build(context.Background(), f.Arg("restore"), f.Arg("ci"))
	require.NoError(t, err)
	assert.Equal(t, "--restore\n--ci\n", testutil.ReadFile(t, f.Root(), testutil.InvocationLog))

	env := testutil.ReadFile(t, f.Root(), testutil.EnvLog)
	assert.Contains(t, env, "BUILD_SOURCEBRANCH=whatsabranch")
	assert.NotContains(t, env, EnvDotNetInstallDir+"=")

	// Builds are re-enterable on the same tree.
	require.NoError(t, f.WriteFile(testutil.FailMarker, "broken on purpose\n"))
	_, err = f.Build(context.Background(), f.Arg("build"))
	var execErr *process.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, 1, execErr.ExitCode)
	assert.Contains(t, execErr.Stdout, "broken on purpose")
	assert.Contains(t, execErr.Stderr, "build failed")
	assert.Equal(t, "build\nbuild\n", testutil.ReadFile(t, f.Root(), testutil.BuildCountLog))
}

func TestBuild_Timeout(t *testing.T) {
	testutil.RequireBash(t)

	f := NewForTest(t, "Timeout", testResources(t), Options{
		TempRoot: t.TempDir(), Platform: linux, BuildTimeout: 200 * time.Millisecond,
	})
	require.NoError(t, f.AddDefaultRepoSetup())
	require.NoError(t, f.WriteFile(testutil.SleepMarker, "30"))

	start := time.Now()
	_, err := f.Build(context.Background(), f.Arg("build"))
	var execErr *process.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.True(t, execErr.TimedOut)
	assert.Equal(t, -1, execErr.ExitCode)
	assert.Less(t, time.Since(start), 20*time.Second)
}

func TestSnapshot(t *testing.T) {
	f := NewForTest(t, "Snapshot", testResources(t), Options{TempRoot: t.TempDir()})
	require.NoError(t, f.WriteFile("src/Program.cs", "class P {}"))
	require.NoError(t, f.WriteFile(".dotnet/dotnet", "host"))
	require.NoError(t, f.WriteFile(".packages/pkg/x.nupkg", "pkg"))

	dest := filepath.Join(t.TempDir(), "snap", "Snapshot.tar.gz")
	require.NoError(t, f.Snapshot(context.Background(), dest))

	out := t.TempDir()
	require.NoError(t, archive.NewManager().ExtractAll(context.Background(), dest, out))
	assert.Equal(t, "class P {}", testutil.ReadFile(t, out, "src/Program.cs"))
	assert.NoDirExists(t, filepath.Join(out, ".dotnet"))
	assert.NoDirExists(t, filepath.Join(out, ".packages"))
}
