package hooks

import (
	"github.com/glorpus-work/repoharness/pkg/errors"
)

// ErrUnsupportedHookType is returned when a hook of an unknown type is added.
func ErrUnsupportedHookType(hookType HookType) error {
	return errors.Wrapf(errors.ErrHookLoad, "unsupported hook type: %s", hookType)
}
