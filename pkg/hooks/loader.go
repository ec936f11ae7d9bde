package hooks

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/repoharness/pkg/errors"
)

// HookFileExtension is the extension of hook scripts on disk.
const HookFileExtension = ".tengo"

// LoadHooksFromDir registers every <hook-type>.tengo file in dir with
// manager. Files for unknown hook types are ignored; a missing dir is not
// an error.
func LoadHooksFromDir(manager HookManager, dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(errors.ErrHookLoad, "failed to read hooks directory %s: %v", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != HookFileExtension {
			continue
		}

		hookType := HookType(strings.TrimSuffix(entry.Name(), HookFileExtension))
		if !hookType.Valid() {
			continue
		}

		hookPath := filepath.Join(dir, entry.Name())
		content, err := os.ReadFile(hookPath)
		if err != nil {
			return errors.Wrapf(errors.ErrHookLoad, "error reading hook file %s: %v", hookPath, err)
		}

		if err := manager.AddHook(Hook{Type: hookType, Content: string(content)}); err != nil {
			return errors.Wrapf(err, "error adding hook %s", hookType)
		}
	}
	return nil
}
