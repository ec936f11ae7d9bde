package scaffold

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/repoharness/pkg/archive"
	pkgerrors "github.com/glorpus-work/repoharness/pkg/errors"
	"github.com/glorpus-work/repoharness/pkg/manifest"
	"github.com/glorpus-work/repoharness/pkg/msbuild"
	"github.com/glorpus-work/repoharness/test/testutil"
)

func newScaffolder(t *testing.T) *Scaffolder {
	t.Helper()
	return New(t.TempDir(), NewResourceSet(testutil.NewInputs(t)))
}

func TestWriteFile(t *testing.T) {
	s := newScaffolder(t)

	require.NoError(t, s.WriteFile("src/FooPackage/notes.txt", "first"))
	require.NoError(t, s.WriteFile("src/FooPackage/notes.txt", "second"))
	assert.Equal(t, "second", testutil.ReadFile(t, s.Root(), "src/FooPackage/notes.txt"))

	err := s.WriteFile("../escape.txt", "x")
	assert.True(t, errors.Is(err, pkgerrors.ErrInvalidPath))
}

func TestCopyResource(t *testing.T) {
	s := newScaffolder(t)

	require.NoError(t, s.CopyResource("global.json"))
	want := testutil.ReadFile(t, s.resources.Root(), "global.json")
	assert.Equal(t, want, testutil.ReadFile(t, s.Root(), "global.json"))
}

func TestCopyResource_NotFound(t *testing.T) {
	s := newScaffolder(t)

	tests := []struct {
		name string
		fn   func() error
	}{
		{"missing file", func() error { return s.CopyResource("missing.json") }},
		{"directory is not a file", func() error { return s.CopyResource("eng/common") }},
		{"missing tree", func() error { return s.CopyResourceTree("eng/missing") }},
		{"file is not a tree", func() error { return s.CopyResourceTree("global.json") }},
		{"no resource set", func() error { return New(t.TempDir(), nil).CopyResource("global.json") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			require.Error(t, err)
			var nf *ResourceNotFoundError
			assert.True(t, errors.As(err, &nf))
			assert.True(t, errors.Is(err, pkgerrors.ErrResourceNotFound))
		})
	}
}

func TestCopyResourceTree(t *testing.T) {
	s := newScaffolder(t)

	require.NoError(t, s.CopyResourceTree("eng/common"))
	for _, rel := range []string{"eng/common/build.sh", "eng/common/build.ps1", "eng/common/tools/README"} {
		assert.Equal(t,
			testutil.ReadFile(t, s.resources.Root(), rel),
			testutil.ReadFile(t, s.Root(), rel), rel)
	}
	assert.NoFileExists(t, filepath.Join(s.Root(), "global.json"))
}

func TestAddProjectAndSourceFile(t *testing.T) {
	s := newScaffolder(t)

	require.NoError(t, s.AddProject(msbuild.SdkProject("net8.0", "Exe"), "src/FooPackage/FooPackage.csproj"))
	require.NoError(t, s.AddSimpleSourceFile("src/FooPackage/Program.cs"))

	csproj := testutil.ReadFile(t, s.Root(), "src/FooPackage/FooPackage.csproj")
	assert.Contains(t, csproj, `<Project Sdk="Microsoft.NET.Sdk">`)
	assert.Contains(t, csproj, "<TargetFramework>net8.0</TargetFramework>")
	assert.Contains(t, testutil.ReadFile(t, s.Root(), "src/FooPackage/Program.cs"), `Console.WriteLine("Hello World!");`)
}

func TestDefaultLayout(t *testing.T) {
	s := newScaffolder(t)
	layout := Layout{ToolchainVersion: testutil.ToolchainVersion, SDKVersion: testutil.SDKVersion}
	require.NoError(t, s.DefaultLayout(layout))

	m, err := manifest.Load(filepath.Join(s.Root(), manifest.FileName))
	require.NoError(t, err)
	tv, err := m.ToolchainVersion()
	require.NoError(t, err)
	assert.Equal(t, testutil.ToolchainVersion, tv)
	assert.Equal(t, testutil.SDKVersion, m.MSBuildSDKs[manifest.HelixSdk])

	nuget := testutil.ReadFile(t, s.Root(), NuGetConfigPath)
	assert.Contains(t, nuget, "<clear/>")
	for _, feed := range PackageFeeds {
		assert.Contains(t, nuget, `key="`+feed+`"`)
		assert.Contains(t, nuget, feedURL(feed))
	}

	props := testutil.ReadFile(t, s.Root(), DirectoryBuildPropsPath)
	assert.Contains(t, props, "<RepositoryCommit>"+RepositoryCommit+"</RepositoryCommit>")
	assert.Contains(t, props, "<EnableSourceControlManagerQueries>false</EnableSourceControlManagerQueries>")

	assert.Contains(t, testutil.ReadFile(t, s.Root(), DirectoryBuildTargetsPath), `Project="Sdk.targets"`)
	assert.Contains(t, testutil.ReadFile(t, s.Root(), VersionsPropsPath), "<VersionPrefix>1.0.0</VersionPrefix>")
	assert.Contains(t, testutil.ReadFile(t, s.Root(), LicensePath), "The MIT License (MIT)")
	assert.FileExists(t, filepath.Join(s.Root(), "eng", "common", "build.sh"))
}

func TestDefaultLayout_Idempotent(t *testing.T) {
	s := newScaffolder(t)
	layout := Layout{ToolchainVersion: testutil.ToolchainVersion, SDKVersion: testutil.SDKVersion}

	require.NoError(t, s.DefaultLayout(layout))
	first := snapshot(t, s.Root())
	require.NoError(t, s.DefaultLayout(layout))
	assert.Equal(t, first, snapshot(t, s.Root()))
}

func TestDefaultLayout_MissingTooling(t *testing.T) {
	s := New(t.TempDir(), NewResourceSet(t.TempDir()))
	err := s.DefaultLayout(Layout{ToolchainVersion: "8.0.100", SDKVersion: "8.0.0"})
	assert.True(t, errors.Is(err, pkgerrors.ErrResourceNotFound))
}

func TestOpenResources(t *testing.T) {
	ctx := context.Background()
	inputs := testutil.NewInputs(t)

	t.Run("directory", func(t *testing.T) {
		rs, err := OpenResources(ctx, inputs, "")
		require.NoError(t, err)
		assert.Equal(t, inputs, rs.Root())
		require.NoError(t, rs.Close())
		assert.DirExists(t, inputs, "directories are never removed")
	})

	t.Run("archive", func(t *testing.T) {
		archivePath := filepath.Join(t.TempDir(), "inputs.tar.gz")
		require.NoError(t, archive.NewManager().Create(ctx, inputs, archivePath))

		tempRoot := filepath.Join(t.TempDir(), "repos")
		rs, err := OpenResources(ctx, archivePath, tempRoot)
		require.NoError(t, err)
		assert.Equal(t, tempRoot, filepath.Dir(rs.Root()), "extraction honours the temp root")
		assert.True(t, strings.HasPrefix(filepath.Base(rs.Root()), "inputs"), rs.Root())
		p, err := rs.File("eng/common/build.sh")
		require.NoError(t, err)
		assert.FileExists(t, p)

		require.NoError(t, rs.Close())
		assert.NoDirExists(t, rs.Root())
		require.NoError(t, rs.Close())
	})

	t.Run("missing", func(t *testing.T) {
		_, err := OpenResources(ctx, filepath.Join(t.TempDir(), "nope"), t.TempDir())
		assert.True(t, errors.Is(err, pkgerrors.ErrResourceNotFound))
	})
}

func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		out[rel] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}
