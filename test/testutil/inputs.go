// Package testutil provides throwaway build inputs for tests. The fake
// build script imitates just enough of the real signing pipeline for the
// harness to be exercised without a toolchain.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
)

// Versions pinned in the fake version manifest.
const (
	ToolchainVersion = "8.0.100"
	SDKVersion       = "8.0.0-beta.24165.4"
)

// Marker files the fake build script looks for in the repository root.
const (
	// FailMarker makes the build print the file's contents and exit 1.
	FailMarker = "fail.txt"
	// MakeRootsMarker makes the build create .dotnet and .packages.
	MakeRootsMarker = "make-roots"
	// SleepMarker makes the build sleep for the number of seconds it contains.
	SleepMarker = "sleep.txt"
)

// MakeRootsEnv has the same effect as MakeRootsMarker when set to any
// non-empty value. Bootstrap repositories are scaffolded by the harness, so
// tests cannot drop a marker into them.
const MakeRootsEnv = "REPOHARNESS_FAKE_MAKE_ROOTS"

// Files the fake build script writes under artifacts/.
const (
	InvocationLog = "artifacts/invocation.log"
	EnvLog        = "artifacts/env.log"
	BuildCountLog = "artifacts/builds.log"
)

const globalJSON = `{
  "tools": {
    "dotnet": "` + ToolchainVersion + `"
  },
  "msbuild-sdks": {
    "Microsoft.DotNet.Arcade.Sdk": "` + SDKVersion + `",
    "Microsoft.DotNet.Helix.Sdk": "` + SDKVersion + `"
  }
}
`

// buildScript stands in for eng/common/build.sh. Signing is simulated by
// grepping eng/Signing.props the way the real targets read it.
const buildScript = `#!/usr/bin/env bash
mkdir -p artifacts
printf '%s\n' "$@" > artifacts/invocation.log
env | sort > artifacts/env.log || true
echo build >> artifacts/builds.log

if [ -f make-roots ] || [ -n "${REPOHARNESS_FAKE_MAKE_ROOTS:-}" ]; then
  mkdir -p .dotnet .packages
fi
if [ -f sleep.txt ]; then
  sleep "$(cat sleep.txt)"
fi
if [ -f fail.txt ]; then
  cat fail.txt
  echo "build failed" >&2
  exit 1
fi

sign=false
pack=false
for arg in "$@"; do
  case "$arg" in
    --sign) sign=true ;;
    --pack) pack=true ;;
  esac
done
[ "$sign" = true ] || exit 0

props=eng/Signing.props
allow_empty=false
if [ -f "$props" ] && grep -qi '<AllowEmptySignList>true</AllowEmptySignList>' "$props"; then
  allow_empty=true
fi

if [ "$pack" != true ]; then
  if [ "$allow_empty" = true ]; then
    exit 0
  fi
  echo "Sign.proj : error : List of files to sign is empty. Make sure that ItemsToSign is configured correctly."
  exit 1
fi

cert=Microsoft400
if [ -f "$props" ] && grep -q '<CertificateName>' "$props"; then
  cert=$(sed -n 's:.*<CertificateName>\(.*\)</CertificateName>.*:\1:p' "$props" | head -n 1)
elif [ -f "$props" ] && grep -qi '<UseDotNetCertificate>true</UseDotNetCertificate>' "$props"; then
  cert=MicrosoftDotNet500
fi

mkdir -p artifacts/tmp/Release/Signing artifacts/log/Release/AssetManifest
cat > artifacts/tmp/Release/Signing/Round0-Sign.proj <<PROJ
<Project>
  <ItemGroup>
    <FilesToSign Include="FooPackage.dll">
      <Authenticode>$cert</Authenticode>
    </FilesToSign>
  </ItemGroup>
</Project>
PROJ
cat > artifacts/log/Release/AssetManifest/Manifest.xml <<MANIFEST
<Build Name="test" BuildId="20200101.1" Branch="whatsabranch" Commit="aaaabbbbccccddddeeeeffffeeeeddddccccbbcc">
  <Package Id="FooPackage" Version="1.0.0-prerelease" />
</Build>
MANIFEST
exit 0
`

const buildPS1 = `Write-Error "the fake build entry point only supports bash"
exit 1
`

// WriteInputs writes a fake inputs tree into dir.
func WriteInputs(dir string) error {
	files := map[string]struct {
		content string
		mode    os.FileMode
	}{
		"global.json":             {globalJSON, 0o644},
		"eng/common/build.sh":     {buildScript, 0o755},
		"eng/common/build.ps1":    {buildPS1, 0o644},
		"eng/common/tools/README": {"tools placeholder\n", 0o644},
	}
	for rel, f := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(f.content), f.mode); err != nil {
			return err
		}
	}
	return nil
}

// NewInputs creates a fake inputs tree in a test temp directory.
func NewInputs(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	if err := WriteInputs(dir); err != nil {
		t.Fatalf("Failed to write test inputs: %v", err)
	}
	return dir
}

// RequireBash skips the test when the fake build script cannot run.
func RequireBash(t testing.TB) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake build script requires bash")
	}
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not found in PATH")
	}
}

// ReadFile reads a forward-slash path under root, failing the test on error.
func ReadFile(t testing.TB, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("Failed to read %s: %v", rel, err)
	}
	return string(data)
}

// getProjectRoot returns the absolute path to the project root directory
func getProjectRoot() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		panic("Failed to get current file path")
	}
	// Navigate up to the project root (2 levels up from test/testutil)
	return filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
}

// ScenarioFile returns the path to the sample scenario file shipped with the repository.
func ScenarioFile() string {
	return filepath.Join(getProjectRoot(), "test", "scenarios.yaml")
}
