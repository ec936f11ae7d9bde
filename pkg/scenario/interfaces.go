//go:generate mockgen -destination=mocks/scenario.go . Repo
package scenario

import (
	"context"

	"github.com/glorpus-work/repoharness/pkg/msbuild"
	"github.com/glorpus-work/repoharness/pkg/platform"
	"github.com/glorpus-work/repoharness/pkg/process"
)

// Repo is the part of a test repository a scenario drives.
// *testrepo.Fixture implements it.
type Repo interface {
	Root() string
	Name() string
	Platform() platform.Platform
	Arg(name string) string
	Path(rel string) (string, error)
	WriteFile(rel, contents string) error
	AddDefaultRepoSetup() error
	AddProject(p *msbuild.Project, rel string) error
	AddSimpleSourceFile(rel string) error
	Build(ctx context.Context, args ...string) (*process.Result, error)
}
