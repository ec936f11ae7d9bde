//go:generate mockgen -destination=mocks/hooks.go . HookManager
package hooks

import "context"

// HookType represents the point in a scenario a hook runs at.
type HookType string

// Supported hook types.
const (
	PreBuild  HookType = "pre-build"
	PostBuild HookType = "post-build"
)

// HookTypes lists every supported hook type.
func HookTypes() []HookType {
	return []HookType{PreBuild, PostBuild}
}

// Valid reports whether t is a supported hook type.
func (t HookType) Valid() bool {
	for _, known := range HookTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Hook represents a hook script with its type and content.
type Hook struct {
	Type    HookType
	Content string
}

// HookContext contains information passed to hooks. Build results are zero
// for pre-build hooks.
type HookContext struct {
	RepoRoot     string
	FixtureName  string
	ExitCode     int
	Stdout       string
	Stderr       string
	Certificates []string
	Vars         map[string]interface{}
}

// HookManager defines the interface for managing hooks.
type HookManager interface {
	// Execute runs the hook of the given type, if any, with the given context
	Execute(ctx context.Context, hookType HookType, hctx HookContext) error

	// AddHook adds or replaces the hook of hook.Type
	AddHook(hook Hook) error

	// HasHook checks if a hook of the specified type exists
	HasHook(hookType HookType) bool
}
