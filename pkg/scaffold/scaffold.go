// Package scaffold writes generated and packaged files into a test
// repository tree.
package scaffold

import (
	"github.com/glorpus-work/repoharness/pkg/errors"
	"github.com/glorpus-work/repoharness/pkg/fsutil"
	"github.com/glorpus-work/repoharness/pkg/logger"
	"github.com/glorpus-work/repoharness/pkg/msbuild"
)

// Scaffolder writes into one repository root. All relative paths use
// forward slashes regardless of host.
type Scaffolder struct {
	root      string
	resources *ResourceSet
}

// New returns a Scaffolder for root. resources may be nil when nothing is
// copied from packaged inputs.
func New(root string, resources *ResourceSet) *Scaffolder {
	return &Scaffolder{root: root, resources: resources}
}

// Root returns the repository root.
func (s *Scaffolder) Root() string {
	return s.root
}

// Path resolves a forward-slash relative path under the root.
func (s *Scaffolder) Path(rel string) (string, error) {
	return fsutil.Join(s.root, rel)
}

// WriteFile writes contents to rel, creating parent directories and
// overwriting existing files.
func (s *Scaffolder) WriteFile(rel, contents string) error {
	return s.WriteBytes(rel, []byte(contents))
}

// WriteBytes is WriteFile for raw bytes.
func (s *Scaffolder) WriteBytes(rel string, contents []byte) error {
	dst, err := s.Path(rel)
	if err != nil {
		return err
	}
	logger.Debug("Writing file", logger.Fields{"path": rel, "root": s.root})
	return fsutil.WriteFile(dst, contents)
}

// CopyResource copies one packaged file to the same relative path.
func (s *Scaffolder) CopyResource(rel string) error {
	if s.resources == nil {
		return NewResourceNotFoundError(rel, false, errors.Wrap(errors.ErrResourceNotFound, "no resource set"))
	}
	src, err := s.resources.File(rel)
	if err != nil {
		return err
	}
	dst, err := s.Path(rel)
	if err != nil {
		return err
	}
	logger.Debug("Copying resource", logger.Fields{"path": rel, "root": s.root})
	return fsutil.Copy(src, dst)
}

// CopyResourceTree copies every file under a packaged directory to the same
// relative location, keeping the directory structure.
func (s *Scaffolder) CopyResourceTree(rel string) error {
	if s.resources == nil {
		return NewResourceNotFoundError(rel, true, errors.Wrap(errors.ErrResourceNotFound, "no resource set"))
	}
	src, err := s.resources.Dir(rel)
	if err != nil {
		return err
	}
	dst, err := s.Path(rel)
	if err != nil {
		return err
	}
	logger.Debug("Copying resource tree", logger.Fields{"path": rel, "root": s.root})
	return fsutil.CopyTree(src, dst)
}

// AddProject serializes p to rel.
func (s *Scaffolder) AddProject(p *msbuild.Project, rel string) error {
	dst, err := s.Path(rel)
	if err != nil {
		return err
	}
	logger.Debug("Writing project", logger.Fields{"path": rel, "root": s.root})
	return p.Save(dst)
}

// AddSimpleSourceFile writes a hello-world C# program to rel.
func (s *Scaffolder) AddSimpleSourceFile(rel string) error {
	return s.WriteFile(rel, helloWorld)
}
