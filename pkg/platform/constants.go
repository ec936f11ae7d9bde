// Package platform selects the host-specific pieces of a build invocation:
// the entry point script, the flag prefix and the toolchain host executable.
package platform

const (
	// OSWindows represents the Windows operating system.
	OSWindows = "windows"
	// OSLinux represents the Linux operating system.
	OSLinux = "linux"
	// OSDarwin represents the macOS operating system.
	OSDarwin = "darwin"
	// AnyOS matches every operating system.
	AnyOS = "any"

	// DotNetHostName is the toolchain host executable's base name without extension.
	DotNetHostName = "dotnet"

	// DefaultToolingDir is where the common build tooling lives inside a repository.
	DefaultToolingDir = "eng/common"
)

// ValidOS returns the operating systems scenarios may be restricted to.
func ValidOS() []string {
	return []string{
		OSWindows,
		OSLinux,
		OSDarwin,
	}
}
