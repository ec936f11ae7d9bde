package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/glorpus-work/repoharness/pkg/errors"
	"github.com/glorpus-work/repoharness/pkg/hooks"
	"github.com/glorpus-work/repoharness/test/testutil"
)

func TestCatalog(t *testing.T) {
	list := Catalog()
	names := make(map[string]bool)
	for _, sc := range list {
		require.NoError(t, sc.Validate(), sc.Name)
		assert.False(t, names[sc.Name], "duplicate %s", sc.Name)
		names[sc.Name] = true
	}
	for _, want := range []string{
		"basic-repo-build",
		"empty-sign-list-explicit", "empty-sign-list-default",
		"dotnet-certificate-true", "dotnet-certificate-false", "dotnet-certificate-unset",
		"certificate-override-default", "certificate-override-dotnet",
	} {
		assert.True(t, names[want], want)
	}

	sc, err := Find(list, "dotnet-certificate-true")
	require.NoError(t, err)
	assert.Equal(t, []string{DotNetCertificate}, sc.Expect.Certificates)
	assert.Contains(t, sc.Signing.Properties, Property{"UseDotNetCertificate", "True"})

	// Fresh values on every call.
	sc.Name = "changed"
	_, err = Find(Catalog(), "dotnet-certificate-true")
	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Scenario {
		return &Scenario{Name: "s", Build: Build{Flags: []string{"restore"}}}
	}
	tests := []struct {
		name   string
		mutate func(*Scenario)
		errMsg string
	}{
		{name: "valid", mutate: func(*Scenario) {}},
		{name: "empty name", mutate: func(s *Scenario) { s.Name = " " }, errMsg: "name"},
		{name: "no flags", mutate: func(s *Scenario) { s.Build.Flags = nil }, errMsg: "at least one flag"},
		{name: "prefixed flag", mutate: func(s *Scenario) { s.Build.Flags = []string{"--sign"} }, errMsg: "bare name"},
		{name: "unknown os", mutate: func(s *Scenario) { s.OS = []string{"plan9"} }, errMsg: "unknown os"},
		{name: "os alias", mutate: func(s *Scenario) { s.OS = []string{"macos", "any"} }},
		{name: "escaping project", mutate: func(s *Scenario) { s.Project.Path = "../x.csproj" }, errMsg: "project path"},
		{name: "error without fail", mutate: func(s *Scenario) { s.Expect.ErrorContains = "x" }, errMsg: "requires fail"},
		{name: "fail with certs", mutate: func(s *Scenario) {
			s.Expect.Fail = true
			s.Expect.Certificates = []string{"Microsoft400"}
		}, errMsg: "cannot be combined"},
		{name: "item without action", mutate: func(s *Scenario) {
			s.Signing = &Signing{Items: []Item{{Type: "FileSignInfo"}}}
		}, errMsg: "exactly one"},
		{name: "bad hook type", mutate: func(s *Scenario) {
			s.Hooks = map[hooks.HookType]string{"mid-build": ""}
		}, errMsg: "unsupported hook type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := base()
			tt.mutate(sc)
			err := sc.Validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, pkgerrors.ErrScenarioInvalid))
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParse(t *testing.T) {
	data := `scenarios:
  - name: signs-exe
    os: [linux, darwin]
    signing:
      properties:
        - {name: AllowEmptySignList, value: "true"}
      items:
        - type: StrongNameSignInfo
          update: MsSharedLib72
          metadata:
            - {name: CertificateName, value: Microsoft401}
    project:
      properties:
        - {name: IsPackable, value: "true"}
    build:
      flags: [restore, pack, sign]
      properties:
        - {name: AutoGenerateSymbolPackages, value: "false"}
    expect:
      certificates: [Microsoft401]
      asset_manifests: 1
    hooks:
      post-build: |
        if len(certificates) != 1 { err = "no certs" }
`
	list, err := Parse([]byte(data))
	require.NoError(t, err)
	require.Len(t, list, 1)

	sc := list[0]
	assert.Equal(t, "signs-exe", sc.Name)
	assert.Equal(t, []string{"linux", "darwin"}, sc.OS)
	assert.Equal(t, "MsSharedLib72", sc.Signing.Items[0].Update)
	assert.Equal(t, []string{"restore", "pack", "sign"}, sc.Build.Flags)
	require.NotNil(t, sc.Expect.AssetManifests)
	assert.Equal(t, 1, *sc.Expect.AssetManifests)
	assert.Contains(t, sc.Hooks[hooks.PostBuild], "no certs")
	assert.Equal(t, DefaultProjectPath, sc.ProjectPath())
	assert.Equal(t, "src/FooPackage/Program.cs", sc.SourcePath())
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("scenarios: {"))
	assert.True(t, errors.Is(err, pkgerrors.ErrScenarioInvalid))

	dup := "scenarios:\n  - {name: a, build: {flags: [restore]}}\n  - {name: a, build: {flags: [restore]}}\n"
	_, err = Parse([]byte(dup))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestLoadFile_ResolvesHooksDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "scenarios.yaml")
	require.NoError(t, os.WriteFile(file, []byte("scenarios:\n  - name: a\n    hooks_dir: hooks\n    build: {flags: [restore]}\n"), 0o644))

	list, err := LoadFile(file)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "hooks"), list[0].HooksDir)
}

func TestLoadFile_ShippedScenarios(t *testing.T) {
	list, err := LoadFile(testutil.ScenarioFile())
	require.NoError(t, err)
	assert.NotEmpty(t, list)
}

func TestSelect(t *testing.T) {
	list := Catalog()

	all, err := Select(list)
	require.NoError(t, err)
	assert.Len(t, all, len(list))

	picked, err := Select(list, "certificate-override-dotnet", "basic-repo-build")
	require.NoError(t, err)
	require.Len(t, picked, 2)
	assert.Equal(t, "certificate-override-dotnet", picked[0].Name)

	_, err = Select(list, "nope")
	assert.True(t, errors.Is(err, pkgerrors.ErrScenarioNotFound))
}
