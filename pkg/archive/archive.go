// Package archive extracts packaged test inputs and snapshots repository
// trees into .tar.gz files.
package archive

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"

	"github.com/glorpus-work/repoharness/pkg/errors"
	"github.com/glorpus-work/repoharness/pkg/fsutil"
)

// Manager handles archive extraction and creation operations.
type Manager struct{}

// NewManager creates a new Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// IsArchive reports whether the file at path is in any format the archives
// library recognizes. Directories are never archives.
func (am *Manager) IsArchive(ctx context.Context, archivePath string) (bool, error) {
	info, err := os.Stat(archivePath)
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	format, _, err := archives.Identify(ctx, filepath.Base(archivePath), f)
	if stderrors.Is(err, archives.NoMatch) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to identify %s: %w", archivePath, err)
	}
	_, ok := format.(archives.Extractor)
	return ok, nil
}

// ExtractAll extracts all files from an archive to the specified destination
// directory. Entries that would land outside destDir are rejected.
func (am *Manager) ExtractAll(ctx context.Context, archivePath, destDir string) error {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return fmt.Errorf("failed to open archive file: %w", err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	if err := fsutil.EnsureDir(destDir); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	return fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return am.extractEntry(fsys, name, destDir, d)
	})
}

// Create writes sourceDir as a gzipped tarball to archivePath. Top-level
// entries named in exclude are left out, which keeps toolchain installs and
// package caches out of snapshots.
func (am *Manager) Create(ctx context.Context, sourceDir, archivePath string, exclude ...string) error {
	absolutePath, err := filepath.Abs(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for source directory: %w", err)
	}

	archiveFiles, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		absolutePath + string(os.PathSeparator): "",
	})
	if err != nil {
		return fmt.Errorf("failed to read files from disk: %w", err)
	}
	archiveFiles = filterTopLevel(archiveFiles, exclude)

	if err := fsutil.EnsureFileDir(archivePath); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}
	file, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", archivePath, err)
	}
	defer func() {
		_ = file.Sync()
		_ = file.Close()
	}()

	format := archives.CompressedArchive{
		Compression: archives.Gz{},
		Archival:    archives.Tar{},
	}
	if err := format.Archive(ctx, file, archiveFiles); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	return nil
}

func filterTopLevel(files []archives.FileInfo, exclude []string) []archives.FileInfo {
	if len(exclude) == 0 {
		return files
	}
	skip := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		skip[strings.Trim(filepath.ToSlash(e), "/")] = struct{}{}
	}
	kept := files[:0]
	for _, f := range files {
		top, _, _ := strings.Cut(strings.TrimPrefix(f.NameInArchive, "/"), "/")
		if _, ok := skip[top]; ok {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// extractEntry processes a single archive entry and writes it to destDir.
func (am *Manager) extractEntry(fsys fs.FS, name, destDir string, d fs.DirEntry) error {
	if name == "." {
		return nil
	}

	targetPath, err := fsutil.Join(destDir, name)
	if err != nil {
		return errors.Wrapf(err, "archive entry %q", name)
	}

	if d.IsDir() {
		return fsutil.EnsureDir(targetPath)
	}

	info, err := d.Info()
	if err != nil {
		return fmt.Errorf("failed to get file info for %s: %w", name, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return am.writeSymlink(fsys, name, targetPath, destDir)
	}
	return am.writeRegularFile(fsys, name, targetPath, info)
}

// writeSymlink creates a symlink at targetPath with contents from the archive
// entry. Links must stay inside destDir.
func (am *Manager) writeSymlink(fsys fs.FS, name, targetPath, destDir string) error {
	linkTarget, err := fsys.Open(name)
	if err != nil {
		return fmt.Errorf("failed to read symlink %s: %w", name, err)
	}
	defer func() { _ = linkTarget.Close() }()

	targetBytes, err := io.ReadAll(linkTarget)
	if err != nil {
		return fmt.Errorf("failed to read symlink target %s: %w", name, err)
	}
	link := string(targetBytes)

	resolved := filepath.Join(filepath.Dir(targetPath), filepath.FromSlash(link))
	if filepath.IsAbs(link) || !strings.HasPrefix(resolved, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return errors.Wrapf(errors.ErrInvalidPath, "symlink %s points outside the destination", name)
	}

	if err := fsutil.EnsureFileDir(targetPath); err != nil {
		return fmt.Errorf("failed to create parent directory for symlink %s: %w", name, err)
	}
	_ = os.Remove(targetPath)
	return os.Symlink(link, targetPath)
}

// writeRegularFile writes a regular file from the archive entry to targetPath and preserves metadata.
func (am *Manager) writeRegularFile(fsys fs.FS, name, targetPath string, info fs.FileInfo) error {
	srcFile, err := fsys.Open(name)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", name, err)
	}
	defer func() { _ = srcFile.Close() }()

	if err := fsutil.EnsureFileDir(targetPath); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", name, err)
	}

	dstFile, err := fsutil.CreateFilePerm(targetPath, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", targetPath, err)
	}
	defer func() { _ = dstFile.Close() }()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file %s: %w", name, err)
	}

	if err := os.Chmod(targetPath, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set permissions for %s: %w", targetPath, err)
	}
	if err := os.Chtimes(targetPath, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set modification time for %s: %w", targetPath, err)
	}
	return nil
}
