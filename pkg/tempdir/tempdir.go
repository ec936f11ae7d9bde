// Package tempdir allocates collision-free directories for test repositories.
package tempdir

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/glorpus-work/repoharness/pkg/fsutil"
	"github.com/glorpus-work/repoharness/pkg/logger"
)

const (
	// PrefixLength is the number of characters kept from a base name.
	PrefixLength = 8
	// SuffixLength is the number of hex characters taken from a random UUID (32 bits).
	SuffixLength = 8
	// MaxAttempts bounds the retries when a candidate directory already exists.
	MaxAttempts = 16

	defaultBaseName = "repo"
)

// Allocator creates unique directories under Root. The zero value allocates
// under the system temp directory. It is safe for concurrent use.
type Allocator struct {
	Root string

	newSuffix func() string
}

// New returns an Allocator rooted at root.
func New(root string) *Allocator {
	return &Allocator{Root: root}
}

// Allocate creates and returns a fresh directory whose name starts with a
// short form of baseName. Directory creation is atomic so two callers can
// never receive the same path.
func (a *Allocator) Allocate(baseName string) (string, error) {
	root := a.Root
	if root == "" {
		root = os.TempDir()
	}
	if err := fsutil.EnsureDir(root); err != nil {
		return "", NewAllocationError(baseName, root, 0, err)
	}

	prefix := Prefix(baseName)
	suffix := a.newSuffix
	if suffix == nil {
		suffix = randomSuffix
	}

	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		candidate := filepath.Join(root, prefix+suffix())
		err := os.Mkdir(candidate, fsutil.DirModeDefault)
		if err == nil {
			logger.Debug("Allocated directory", logger.Fields{"path": candidate, "attempt": attempt})
			return candidate, nil
		}
		if !stderrors.Is(err, fs.ErrExist) {
			return "", NewAllocationError(baseName, candidate, attempt, err)
		}
		lastErr = err
	}
	return "", NewAllocationError(baseName, "", MaxAttempts, lastErr)
}

// Prefix truncates baseName to PrefixLength runes and replaces characters
// that are awkward in file names.
func Prefix(baseName string) string {
	var b strings.Builder
	n := 0
	for _, r := range baseName {
		if n == PrefixLength {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
		n++
	}
	if b.Len() == 0 {
		return defaultBaseName
	}
	return b.String()
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:SuffixLength]
}
