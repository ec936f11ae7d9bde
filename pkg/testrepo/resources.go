package testrepo

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/glorpus-work/repoharness/pkg/errors"
	"github.com/glorpus-work/repoharness/pkg/fsutil"
	"github.com/glorpus-work/repoharness/pkg/logger"
	"github.com/glorpus-work/repoharness/pkg/manifest"
	"github.com/glorpus-work/repoharness/pkg/msbuild"
	"github.com/glorpus-work/repoharness/pkg/platform"
	"github.com/glorpus-work/repoharness/pkg/process"
	"github.com/glorpus-work/repoharness/pkg/scaffold"
)

// Bootstrap repository contents.
const (
	BootstrapName    = "common"
	BootstrapProject = "src/FooPackage/FooPackage.csproj"
	BootstrapProgram = "src/FooPackage/Program.cs"
)

// ResourcesOptions control CreateResources. The embedded Options configure
// the bootstrap build; KeepRoot is ignored.
type ResourcesOptions struct {
	Options

	// Inputs holds the version manifest and the tooling tree.
	Inputs *scaffold.ResourceSet
	// ManifestPath is the manifest's forward-slash path inside Inputs.
	// Defaults to global.json.
	ManifestPath string
	// ShareRoots restores a bootstrap repository once so that every fixture
	// reuses its toolchain and package cache.
	ShareRoots bool
}

// Resources is the state shared by every fixture of a session. It is
// written once by CreateResources and read-only afterwards.
type Resources struct {
	ToolchainVersion string
	SDKVersion       string
	// SharedToolchainRoot is empty when builds use the machine toolchain.
	SharedToolchainRoot string
	// SharedPackageCacheRoot is empty when builds use the machine cache.
	SharedPackageCacheRoot string

	Inputs *scaffold.ResourceSet

	ownedRoot string
	killer    process.Killer
	platform  platform.Platform
	closeOnce sync.Once
}

// NewResources returns Resources with versions only and nothing owned.
func NewResources(inputs *scaffold.ResourceSet, toolchainVersion, sdkVersion string) *Resources {
	return &Resources{
		ToolchainVersion: toolchainVersion,
		SDKVersion:       sdkVersion,
		Inputs:           inputs,
	}
}

// CreateResources reads the version manifest and, when ShareRoots is set,
// builds the bootstrap repository whose toolchain and package cache later
// fixtures reuse. Roots the build did not create stay empty.
func CreateResources(ctx context.Context, opts ResourcesOptions) (*Resources, error) {
	if opts.Inputs == nil {
		return nil, errors.Wrap(errors.ErrInvalidPath, "resources require an inputs set")
	}
	manifestPath := opts.ManifestPath
	if manifestPath == "" {
		manifestPath = manifest.FileName
	}
	path, err := opts.Inputs.File(manifestPath)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	toolchain, err := m.ToolchainVersion()
	if err != nil {
		return nil, err
	}
	sdk, err := m.SDKVersion()
	if err != nil {
		return nil, err
	}

	res := NewResources(opts.Inputs, toolchain, sdk)
	logger.Debug("Read version manifest", logger.Fields{"toolchain": toolchain, "sdk": sdk})
	if !opts.ShareRoots {
		return res, nil
	}

	fopts := opts.Options.withDefaults()
	fopts.KeepRoot = true
	res.killer = fopts.Killer
	res.platform = fopts.Platform

	if err := bootstrap(ctx, res, fopts); err != nil {
		return nil, err
	}
	return res, nil
}

func bootstrap(ctx context.Context, res *Resources, opts Options) error {
	f, err := New(BootstrapName, res, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	fail := func(err error) error {
		f.Close()
		removeRoot(f.Root())
		return errors.Wrap(err, "failed to bootstrap shared resources")
	}

	if err := f.AddDefaultRepoSetup(); err != nil {
		return fail(err)
	}
	project := msbuild.SdkProject(manifest.TargetFramework(res.ToolchainVersion), "Exe")
	if err := f.AddProject(project, BootstrapProject); err != nil {
		return fail(err)
	}
	if err := f.AddSimpleSourceFile(BootstrapProgram); err != nil {
		return fail(err)
	}
	csproj, err := f.Path(BootstrapProject)
	if err != nil {
		return fail(err)
	}
	if _, err := f.Build(ctx, f.Arg("restore"), f.Arg("ci"), f.Arg("projects"), csproj); err != nil {
		return fail(err)
	}

	res.ownedRoot = f.Root()
	if dir := filepath.Join(f.Root(), ToolchainDirName); fsutil.DirExists(dir) {
		res.SharedToolchainRoot = dir
	}
	if dir := filepath.Join(f.Root(), PackageCacheDirName); fsutil.DirExists(dir) {
		res.SharedPackageCacheRoot = dir
	}
	logger.Info("Created shared resources", logger.Fields{
		"root":          res.ownedRoot,
		"toolchain":     res.SharedToolchainRoot,
		"package_cache": res.SharedPackageCacheRoot,
	})
	return nil
}

// Root returns the bootstrap repository the shared roots live in, or "" when
// nothing is owned.
func (r *Resources) Root() string {
	return r.ownedRoot
}

// Close kills a toolchain host still running from the owned root and deletes
// it. It is a no-op when nothing is owned and may be called more than once.
func (r *Resources) Close() {
	r.closeOnce.Do(func() {
		if r.ownedRoot == "" {
			return
		}
		if r.killer != nil {
			killToolchain(context.Background(), r.killer, r.ownedRoot, r.platform)
		}
		removeRoot(r.ownedRoot)
	})
}
