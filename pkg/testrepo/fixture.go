// Package testrepo manages throwaway repositories for build tests: the
// per-test Fixture and the session-wide Resources it borrows.
package testrepo

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/glorpus-work/repoharness/pkg/archive"
	"github.com/glorpus-work/repoharness/pkg/errors"
	"github.com/glorpus-work/repoharness/pkg/fsutil"
	"github.com/glorpus-work/repoharness/pkg/logger"
	"github.com/glorpus-work/repoharness/pkg/platform"
	"github.com/glorpus-work/repoharness/pkg/process"
	"github.com/glorpus-work/repoharness/pkg/scaffold"
	"github.com/glorpus-work/repoharness/pkg/tempdir"
)

// Environment variables set on every build.
const (
	EnvDotNetInstallDir = "DOTNET_INSTALL_DIR"
	EnvNuGetPackages    = "NUGET_PACKAGES"
	EnvRepositoryURI    = "BUILD_REPOSITORY_URI"
	EnvSourceBranch     = "BUILD_SOURCEBRANCH"
	EnvBuildNumber      = "BUILD_BUILDNUMBER"
	EnvSourceVersion    = "BUILD_SOURCEVERSION"
	EnvTelemetryOptOut  = "DOTNET_CLI_TELEMETRY_OPTOUT"
)

// Directories a build may create at the repository root.
const (
	ToolchainDirName    = ".dotnet"
	PackageCacheDirName = ".packages"
)

// buildEnv is the synthetic source control metadata builds see.
var buildEnv = map[string]string{
	EnvRepositoryURI:   "https://localhost",
	EnvSourceBranch:    "whatsabranch",
	EnvBuildNumber:     "20200101.1",
	EnvSourceVersion:   scaffold.RepositoryCommit,
	EnvTelemetryOptOut: "1",
}

// Options control how a Fixture is created and built.
type Options struct {
	// KeepRoot leaves the repository on disk after Close.
	KeepRoot bool
	// TempRoot is where repositories are allocated. Defaults to
	// fsutil.GetTempRoot().
	TempRoot string
	// BuildTimeout kills a build that runs longer. Zero disables it.
	BuildTimeout time.Duration
	// Env is added to every build's environment and wins over the
	// harness defaults.
	Env map[string]string
	// ToolingDir is the forward-slash path of the build scripts. Defaults
	// to eng/common.
	ToolingDir string
	// Platform selects the build entry point. The zero value means the
	// current host.
	Platform platform.Platform

	Runner process.Runner
	Killer process.Killer
}

func (o Options) withDefaults() Options {
	if o.TempRoot == "" {
		o.TempRoot = fsutil.GetTempRoot()
	}
	if o.ToolingDir == "" {
		o.ToolingDir = platform.DefaultToolingDir
	}
	if o.Platform.OS == "" {
		o.Platform = platform.Current()
	}
	if o.Runner == nil {
		o.Runner = process.NewRunner()
	}
	if o.Killer == nil {
		o.Killer = process.NewKiller()
	}
	return o
}

// Fixture is one scaffolded repository under test. The embedded Scaffolder
// writes into its root. A Fixture is not safe for concurrent builds.
type Fixture struct {
	*scaffold.Scaffolder

	name string
	res  *Resources
	opts Options

	keep      atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
}

// New allocates a fresh repository directory for name. res is borrowed and
// must outlive the fixture.
func New(name string, res *Resources, opts Options) (*Fixture, error) {
	if res == nil {
		return nil, errors.Wrap(errors.ErrInvalidPath, "fixture requires resources")
	}
	opts = opts.withDefaults()

	root, err := tempdir.New(opts.TempRoot).Allocate(name)
	if err != nil {
		return nil, err
	}
	logger.Debug("Allocated test repository", logger.Fields{"name": name, "root": root})

	f := &Fixture{
		Scaffolder: scaffold.New(root, res.Inputs),
		name:       name,
		res:        res,
		opts:       opts,
	}
	f.keep.Store(opts.KeepRoot)
	return f, nil
}

// Keep makes Close leave the repository on disk, e.g. after a failure.
func (f *Fixture) Keep() {
	f.keep.Store(true)
}

// Name returns the name the fixture was created with.
func (f *Fixture) Name() string {
	return f.name
}

// Resources returns the shared resources the fixture borrows.
func (f *Fixture) Resources() *Resources {
	return f.res
}

// Platform returns the platform builds are invoked for.
func (f *Fixture) Platform() platform.Platform {
	return f.opts.Platform
}

// Arg renders a build flag for the fixture's platform.
func (f *Fixture) Arg(name string) string {
	return f.opts.Platform.BuildArg(name)
}

// AddDefaultRepoSetup writes the baseline layout using the shared versions.
func (f *Fixture) AddDefaultRepoSetup() error {
	return f.DefaultLayout(scaffold.Layout{
		ToolchainVersion: f.res.ToolchainVersion,
		SDKVersion:       f.res.SDKVersion,
		ToolingDir:       f.opts.ToolingDir,
	})
}

// Command returns the process invocation Build would run for args.
func (f *Fixture) Command(args ...string) process.Command {
	exe, lead := f.opts.Platform.BuildEntryPoint(f.opts.ToolingDir)

	env := make(map[string]string, len(buildEnv)+len(f.opts.Env)+2)
	for k, v := range buildEnv {
		env[k] = v
	}
	var unset []string
	if f.res.SharedToolchainRoot != "" {
		env[EnvDotNetInstallDir] = f.res.SharedToolchainRoot
	} else {
		unset = append(unset, EnvDotNetInstallDir)
	}
	if f.res.SharedPackageCacheRoot != "" {
		env[EnvNuGetPackages] = f.res.SharedPackageCacheRoot
	} else {
		unset = append(unset, EnvNuGetPackages)
	}
	for k, v := range f.opts.Env {
		env[k] = v
	}

	return process.Command{
		Path:    exe,
		Args:    append(append([]string{}, lead...), args...),
		Dir:     f.Root(),
		Env:     env,
		Unset:   unset,
		Timeout: f.opts.BuildTimeout,
	}
}

// Build runs the build entry point with args in the repository root. A
// non-zero exit returns a *process.ExecutionError alongside the result.
func (f *Fixture) Build(ctx context.Context, args ...string) (*process.Result, error) {
	if f.closed.Load() {
		return nil, errors.Wrapf(errors.ErrFixtureClosed, "cannot build %s", f.name)
	}
	cmd := f.Command(args...)
	logger.Debug("Building test repository", logger.Fields{"name": f.name, "command": cmd.String()})

	res, err := f.opts.Runner.Run(ctx, cmd)
	fields := logger.Fields{"name": f.name}
	if res != nil {
		fields["exit_code"] = res.ExitCode
		fields["duration"] = res.Duration
	}
	if err != nil {
		logger.Debug("Build failed", fields)
		return res, err
	}
	logger.Debug("Build finished", fields)
	return res, nil
}

// Snapshot archives the repository to a .tar.gz at dest, leaving out the
// toolchain and package cache.
func (f *Fixture) Snapshot(ctx context.Context, dest string) error {
	if !fsutil.DirExists(f.Root()) {
		return errors.Wrapf(errors.ErrResourceNotFound, "repository %s is gone", f.Root())
	}
	return archive.NewManager().Create(ctx, f.Root(), dest, ToolchainDirName, PackageCacheDirName)
}

// Close kills a toolchain host still running from the repository and then
// removes the repository unless it is kept. Failures are logged, never
// returned. Close may be called more than once.
func (f *Fixture) Close() {
	f.closeOnce.Do(func() {
		f.closed.Store(true)
		killToolchain(context.Background(), f.opts.Killer, f.Root(), f.opts.Platform)
		if f.keep.Load() {
			logger.Debug("Keeping test repository", logger.Fields{"name": f.name, "root": f.Root()})
			return
		}
		removeRoot(f.Root())
	})
}

// killToolchain kills <root>/.dotnet/dotnet if it exists.
func killToolchain(ctx context.Context, killer process.Killer, root string, p platform.Platform) {
	host := filepath.Join(root, ToolchainDirName, p.DotNetHostExecutableName())
	if !fsutil.FileExists(host) {
		return
	}
	n, err := killer.KillByExecutablePath(ctx, host)
	if err != nil {
		logger.Warn("Failed to kill toolchain host", logger.Fields{
			"path":  host,
			"error": errors.Wrap(errors.ErrCleanup, err.Error()),
		})
		return
	}
	logger.Debug("Killed toolchain host", logger.Fields{"path": host, "count": n})
}

func removeRoot(root string) {
	if err := os.RemoveAll(root); err != nil {
		logger.Warn("Failed to remove repository", logger.Fields{
			"root":  root,
			"error": errors.Wrap(errors.ErrCleanup, err.Error()),
		})
		return
	}
	logger.Debug("Removed repository", logger.Fields{"root": root})
}
