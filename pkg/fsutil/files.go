package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/otiai10/copy"

	"github.com/glorpus-work/repoharness/pkg/errors"
)

// NormalizePath converts a forward-slash relative path into the host's native
// form. Absolute paths and paths that climb out of their root are rejected.
func NormalizePath(rel string) (string, error) {
	if rel == "" {
		return "", errors.Wrap(errors.ErrInvalidPath, "path cannot be empty")
	}
	slashed := strings.ReplaceAll(rel, "\\", "/")
	if strings.HasPrefix(slashed, "/") || filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", errors.Wrapf(errors.ErrInvalidPath, "%q must be relative", rel)
	}
	native := filepath.Clean(filepath.FromSlash(slashed))
	if native == ".." || strings.HasPrefix(native, ".."+string(filepath.Separator)) {
		return "", errors.Wrapf(errors.ErrInvalidPath, "%q escapes its root", rel)
	}
	return native, nil
}

// Join resolves a forward-slash relative path under root.
func Join(root, rel string) (string, error) {
	native, err := NormalizePath(rel)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, native), nil
}

// WriteFile writes contents to path, creating parent directories and
// overwriting any existing file.
func WriteFile(path string, contents []byte) error {
	if err := EnsureFileDir(path); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, contents, FileModeDefault); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Copy copies the contents of srcFile to dstFile, creating the destination's
// parent directory and carrying over the source permissions.
func Copy(srcFile, dstFile string) error {
	src, err := os.Open(srcFile)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", srcFile, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source file %s: %w", srcFile, err)
	}

	if err := EnsureFileDir(dstFile); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", dstFile, err)
	}

	dst, err := CreateFilePerm(dstFile, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dstFile, err)
	}
	if err := copyAndClose(dst, src); err != nil {
		return fmt.Errorf("failed to copy from %s to %s: %w", srcFile, dstFile, err)
	}
	return nil
}

// copyAndClose copies src into dst and closes dst. A failed Close is
// reported, since buffered data may only fail to reach disk at that point.
func copyAndClose(dst io.WriteCloser, src io.Reader) error {
	_, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	return err
}

// CopyTree recursively copies srcDir into dstDir. Existing directories are
// merged and existing files overwritten. Symlinks are followed so that the
// destination never points back into the source tree.
func CopyTree(srcDir, dstDir string) error {
	opts := copy.Options{
		OnSymlink: func(string) copy.SymlinkAction {
			return copy.Deep
		},
		OnDirExists: func(string, string) copy.DirExistsAction {
			return copy.Merge
		},
	}
	if err := copy.Copy(srcDir, dstDir, opts); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", srcDir, dstDir, err)
	}
	return nil
}

// CreateFilePerm creates a new file with the specified permissions.
func CreateFilePerm(name string, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, perm)
}
