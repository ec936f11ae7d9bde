package platform

import (
	"path"
	"runtime"
	"strings"
)

// Platform identifies the host a build runs on. Only the operating system
// affects how a build is invoked.
type Platform struct {
	OS string `yaml:"os" json:"os"`
}

// Current returns the platform of the running process.
func Current() Platform {
	return Platform{OS: NormalizeOS(runtime.GOOS)}
}

// IsWindows reports whether p is a Windows host.
func (p Platform) IsWindows() bool {
	return p.OS == OSWindows
}

// Matches reports whether p satisfies an OS restriction. An empty list or a
// list containing "any" matches every platform.
func (p Platform) Matches(allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		a = NormalizeOS(a)
		if a == AnyOS || a == p.OS {
			return true
		}
	}
	return false
}

// BuildArg renders a build flag. The PowerShell entry point takes
// single-dash flags and the bash one takes double-dash flags.
func (p Platform) BuildArg(name string) string {
	if p.IsWindows() {
		return "-" + name
	}
	return "--" + name
}

// BuildEntryPoint returns the interpreter and its leading arguments for the
// build script inside toolingDir. toolingDir is a forward-slash path
// relative to the repository root.
func (p Platform) BuildEntryPoint(toolingDir string) (string, []string) {
	if toolingDir == "" {
		toolingDir = DefaultToolingDir
	}
	dir := "./" + strings.TrimPrefix(path.Clean(strings.ReplaceAll(toolingDir, "\\", "/")), "./")
	if p.IsWindows() {
		return "powershell", []string{dir + "/build.ps1"}
	}
	return "bash", []string{dir + "/build.sh"}
}

// DotNetHostExecutableName returns the toolchain host's file name on p.
func (p Platform) DotNetHostExecutableName() string {
	if p.IsWindows() {
		return DotNetHostName + ".exe"
	}
	return DotNetHostName
}

// BuildArg renders a build flag for the current host.
func BuildArg(name string) string {
	return Current().BuildArg(name)
}

// BuildEntryPoint returns the build entry point for the current host.
func BuildEntryPoint(toolingDir string) (string, []string) {
	return Current().BuildEntryPoint(toolingDir)
}

// DotNetHostExecutableName returns the toolchain host's file name on the current host.
func DotNetHostExecutableName() string {
	return Current().DotNetHostExecutableName()
}

// IsWindows reports whether the current host is Windows.
func IsWindows() bool {
	return Current().IsWindows()
}

// NormalizeOS normalizes OS names to a common format
func NormalizeOS(os string) string {
	os = strings.ToLower(strings.TrimSpace(os))
	switch os {
	case "win", "windows":
		return OSWindows
	case "macos", "osx", "darwin":
		return OSDarwin
	default:
		return os
	}
}
