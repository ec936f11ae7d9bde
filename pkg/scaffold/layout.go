package scaffold

import (
	"github.com/beevik/etree"

	"github.com/glorpus-work/repoharness/pkg/errors"
	"github.com/glorpus-work/repoharness/pkg/manifest"
	"github.com/glorpus-work/repoharness/pkg/msbuild"
	"github.com/glorpus-work/repoharness/pkg/platform"
)

// Fixed source control metadata stamped into every scaffolded repository.
const (
	RepositoryURL    = "https://localhost/"
	RepositoryCommit = "aaaabbbbccccddddeeeeffffeeeeddddccccbbcc"
)

// Files written by DefaultLayout.
const (
	VersionsPropsPath          = "eng/Versions.props"
	NuGetConfigPath            = "NuGet.config"
	DirectoryBuildPropsPath    = "Directory.Build.props"
	DirectoryBuildTargetsPath  = "Directory.Build.targets"
	LicensePath                = "LICENSE.TXT"
	SigningPropsPath           = "eng/Signing.props"
	defaultPackageFeedTemplate = "https://pkgs.dev.azure.com/dnceng/public/_packaging/%s/nuget/v3/index.json"
)

// PackageFeeds are the package sources written to NuGet.config, in order.
var PackageFeeds = []string{"dotnet-eng", "dotnet8", "dotnet-tools", "dotnet-public"}

// Layout parameterizes DefaultLayout.
type Layout struct {
	ToolchainVersion string
	SDKVersion       string
	// ToolingDir is copied from the resource set. Defaults to eng/common.
	ToolingDir string
}

// DefaultLayout writes the minimal set of files every repository needs
// before a build can run. Calling it again with the same Layout rewrites
// identical content.
func (s *Scaffolder) DefaultLayout(l Layout) error {
	steps := []struct {
		what string
		fn   func() error
	}{
		{manifest.FileName, func() error { return s.addVersionManifest(l) }},
		{VersionsPropsPath, s.addVersionsProps},
		{NuGetConfigPath, s.addNuGetConfig},
		{DirectoryBuildPropsPath, s.addDirectoryBuildProps},
		{DirectoryBuildTargetsPath, s.addDirectoryBuildTargets},
		{LicensePath, func() error { return s.WriteFile(LicensePath, mitLicense) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return errors.Wrapf(err, "failed to write %s", step.what)
		}
	}

	toolingDir := l.ToolingDir
	if toolingDir == "" {
		toolingDir = platform.DefaultToolingDir
	}
	return s.CopyResourceTree(toolingDir)
}

func (s *Scaffolder) addVersionManifest(l Layout) error {
	b, err := manifest.New(l.ToolchainVersion, l.SDKVersion).Marshal()
	if err != nil {
		return err
	}
	return s.WriteBytes(manifest.FileName, b)
}

func (s *Scaffolder) addVersionsProps() error {
	p := msbuild.New("")
	p.PropertyGroup().
		Set("VersionPrefix", "1.0.0").
		Set("PreReleaseVersionLabel", "prerelease")
	return s.AddProject(p, VersionsPropsPath)
}

func (s *Scaffolder) addDirectoryBuildProps() error {
	p := msbuild.New("")
	p.Import("Sdk.props", manifest.ArcadeSdk)
	p.PropertyGroup().
		Set("PackageProjectUrl", RepositoryURL).
		Set("PackageLicenseExpression", "MIT").
		Set("RepositoryUrl", RepositoryURL).
		Set("RepositoryCommit", RepositoryCommit).
		Set("EnableSourceControlManagerQueries", "false")
	return s.AddProject(p, DirectoryBuildPropsPath)
}

func (s *Scaffolder) addDirectoryBuildTargets() error {
	p := msbuild.New("")
	p.Import("Sdk.targets", manifest.ArcadeSdk)
	return s.AddProject(p, DirectoryBuildTargetsPath)
}

func (s *Scaffolder) addNuGetConfig() error {
	b, err := NuGetConfig(PackageFeeds...)
	if err != nil {
		return err
	}
	return s.WriteBytes(NuGetConfigPath, b)
}

// NuGetConfig renders a NuGet.config that clears inherited sources and adds
// the given dnceng public feeds.
func NuGetConfig(feeds ...string) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	sources := doc.CreateElement("configuration").CreateElement("packageSources")
	sources.CreateElement("clear")
	for _, feed := range feeds {
		add := sources.CreateElement("add")
		add.CreateAttr("key", feed)
		add.CreateAttr("value", feedURL(feed))
	}
	doc.Indent(2)
	return doc.WriteToBytes()
}
