package scaffold

import (
	"context"
	"os"

	"github.com/glorpus-work/repoharness/pkg/archive"
	"github.com/glorpus-work/repoharness/pkg/errors"
	"github.com/glorpus-work/repoharness/pkg/fsutil"
	"github.com/glorpus-work/repoharness/pkg/logger"
	"github.com/glorpus-work/repoharness/pkg/tempdir"
)

const inputsDirName = "inputs"

// ResourceSet is the read-only tree of packaged inputs (eng/common, the
// version manifest, anything tests copy verbatim).
type ResourceSet struct {
	root    string
	cleanup string
}

// NewResourceSet wraps an existing directory.
func NewResourceSet(dir string) *ResourceSet {
	return &ResourceSet{root: dir}
}

// OpenResources opens path as a resource set. A directory is used in place;
// an archive is extracted into a directory allocated under tempRoot (the
// system temp directory when empty) that Close removes.
func OpenResources(ctx context.Context, path, tempRoot string) (*ResourceSet, error) {
	if path == "" {
		return nil, errors.Wrap(errors.ErrInvalidPath, "inputs path cannot be empty")
	}
	am := archive.NewManager()
	isArchive, err := am.IsArchive(ctx, path)
	if err != nil {
		return nil, NewResourceNotFoundError(path, true, err)
	}
	if !isArchive {
		if !fsutil.DirExists(path) {
			return nil, NewResourceNotFoundError(path, true, nil)
		}
		return NewResourceSet(path), nil
	}

	dir, err := tempdir.New(tempRoot).Allocate(inputsDirName)
	if err != nil {
		return nil, err
	}
	if err := am.ExtractAll(ctx, path, dir); err != nil {
		_ = os.RemoveAll(dir)
		return nil, errors.Wrapf(err, "failed to extract %s", path)
	}
	logger.Debug("Extracted inputs archive", logger.Fields{"archive": path, "dir": dir})
	return &ResourceSet{root: dir, cleanup: dir}, nil
}

// Root returns the directory holding the resources.
func (r *ResourceSet) Root() string {
	return r.root
}

// File resolves a forward-slash relative path to an existing regular file.
func (r *ResourceSet) File(rel string) (string, error) {
	p, err := fsutil.Join(r.root, rel)
	if err != nil {
		return "", err
	}
	if !fsutil.FileExists(p) {
		return "", NewResourceNotFoundError(rel, false, nil)
	}
	return p, nil
}

// Dir resolves a forward-slash relative path to an existing directory.
func (r *ResourceSet) Dir(rel string) (string, error) {
	p, err := fsutil.Join(r.root, rel)
	if err != nil {
		return "", err
	}
	if !fsutil.DirExists(p) {
		return "", NewResourceNotFoundError(rel, true, nil)
	}
	return p, nil
}

// Close removes the extraction directory when the set came from an archive.
func (r *ResourceSet) Close() error {
	if r == nil || r.cleanup == "" {
		return nil
	}
	dir := r.cleanup
	r.cleanup = ""
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrap(errors.ErrCleanup, err.Error())
	}
	return nil
}
