// Package manifest reads and writes the repository version manifest
// (global.json) that pins the toolchain and build SDK versions.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hashicorp/go-version"

	"github.com/glorpus-work/repoharness/pkg/errors"
)

const (
	// FileName is the manifest's conventional name at a repository root.
	FileName = "global.json"

	// ToolDotNet is the tools entry holding the toolchain version.
	ToolDotNet = "dotnet"
	// ArcadeSdk is the msbuild-sdks entry holding the build SDK version.
	ArcadeSdk = "Microsoft.DotNet.Arcade.Sdk"
	// HelixSdk is pinned to the same version as ArcadeSdk.
	HelixSdk = "Microsoft.DotNet.Helix.Sdk"

	// DefaultTargetFramework is used when no framework can be derived from
	// the toolchain version.
	DefaultTargetFramework = "net8.0"
)

// VersionManifest is the subset of global.json the harness understands.
// Tools values are usually strings but may be nested objects.
type VersionManifest struct {
	Tools       map[string]interface{} `json:"tools,omitempty"`
	MSBuildSDKs map[string]string      `json:"msbuild-sdks,omitempty"`
}

// New returns a manifest pinning the toolchain and both build SDKs.
func New(toolchainVersion, sdkVersion string) *VersionManifest {
	return &VersionManifest{
		Tools: map[string]interface{}{
			ToolDotNet: toolchainVersion,
		},
		MSBuildSDKs: map[string]string{
			ArcadeSdk: sdkVersion,
			HelixSdk:  sdkVersion,
		},
	}
}

// Load reads the manifest at path.
func Load(path string) (*VersionManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrManifestParse, "failed to read %s: %v", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return m, nil
}

// Parse decodes manifest JSON.
func Parse(data []byte) (*VersionManifest, error) {
	var m VersionManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.ErrManifestParse, err.Error())
	}
	return &m, nil
}

// Marshal encodes the manifest with two-space indentation and a trailing
// newline. Map keys come out sorted, so output is stable.
func (m *VersionManifest) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, errors.Wrap(err, "failed to encode version manifest")
	}
	return buf.Bytes(), nil
}

// ToolchainVersion returns tools.dotnet.
func (m *VersionManifest) ToolchainVersion() (string, error) {
	raw, ok := m.Tools[ToolDotNet]
	if !ok {
		return "", errors.Wrapf(errors.ErrManifestMissing, "tools.%s", ToolDotNet)
	}
	s, ok := raw.(string)
	if !ok {
		return "", errors.Wrapf(errors.ErrManifestParse, "tools.%s is not a string", ToolDotNet)
	}
	return validate(s)
}

// SDKVersion returns msbuild-sdks[Microsoft.DotNet.Arcade.Sdk].
func (m *VersionManifest) SDKVersion() (string, error) {
	s, ok := m.MSBuildSDKs[ArcadeSdk]
	if !ok {
		return "", errors.Wrapf(errors.ErrManifestMissing, "msbuild-sdks.%s", ArcadeSdk)
	}
	return validate(s)
}

func validate(s string) (string, error) {
	if _, err := version.NewVersion(s); err != nil {
		return "", errors.Wrapf(errors.ErrInvalidVersion, "%q", s)
	}
	return s, nil
}

// TargetFramework derives the framework moniker matching a toolchain
// version, e.g. 9.0.100 -> net9.0. Versions before 5 or unparsable ones
// fall back to DefaultTargetFramework.
func TargetFramework(toolchainVersion string) string {
	v, err := version.NewVersion(toolchainVersion)
	if err != nil {
		return DefaultTargetFramework
	}
	major := v.Segments()[0]
	if major < 5 {
		return DefaultTargetFramework
	}
	return fmt.Sprintf("net%d.0", major)
}
