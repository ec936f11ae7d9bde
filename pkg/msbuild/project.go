// Package msbuild builds MSBuild project files from typed values and
// serializes them with etree, so no project XML is ever assembled by hand.
package msbuild

import (
	"github.com/beevik/etree"

	"github.com/glorpus-work/repoharness/pkg/errors"
	"github.com/glorpus-work/repoharness/pkg/fsutil"
)

// DefaultSdk is the SDK used by executable and library projects.
const DefaultSdk = "Microsoft.NET.Sdk"

// Project is an in-memory MSBuild project. Children keep the order in which
// they were added.
type Project struct {
	Sdk      string
	children []node
}

type node interface {
	build(parent *etree.Element)
}

// New returns an empty project. sdk may be empty for plain .props files.
func New(sdk string) *Project {
	return &Project{Sdk: sdk}
}

// SdkProject returns an SDK-style project with OutputType and
// TargetFramework set, mirroring `dotnet new` output.
func SdkProject(targetFramework, outputType string) *Project {
	p := New(DefaultSdk)
	p.PropertyGroup().
		Set("OutputType", outputType).
		Set("TargetFramework", targetFramework)
	return p
}

// Import adds an <Import Project=... Sdk=...> element. sdk may be empty.
func (p *Project) Import(project, sdk string) *Project {
	p.children = append(p.children, &importNode{Project: project, Sdk: sdk})
	return p
}

// PropertyGroup appends a new property group and returns it.
func (p *Project) PropertyGroup() *PropertyGroup {
	g := &PropertyGroup{}
	p.children = append(p.children, g)
	return g
}

// ItemGroup appends a new item group and returns it.
func (p *Project) ItemGroup() *ItemGroup {
	g := &ItemGroup{}
	p.children = append(p.children, g)
	return g
}

// Document renders the project into a new etree document.
func (p *Project) Document() *etree.Document {
	doc := etree.NewDocument()
	root := doc.CreateElement("Project")
	if p.Sdk != "" {
		root.CreateAttr("Sdk", p.Sdk)
	}
	for _, c := range p.children {
		c.build(root)
	}
	doc.Indent(2)
	return doc
}

// Bytes serializes the project.
func (p *Project) Bytes() ([]byte, error) {
	b, err := p.Document().WriteToBytes()
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize project")
	}
	return b, nil
}

// Save writes the project to path, creating parent directories.
func (p *Project) Save(path string) error {
	b, err := p.Bytes()
	if err != nil {
		return err
	}
	return fsutil.WriteFile(path, b)
}

type importNode struct {
	Project string
	Sdk     string
}

func (n *importNode) build(parent *etree.Element) {
	el := parent.CreateElement("Import")
	el.CreateAttr("Project", n.Project)
	if n.Sdk != "" {
		el.CreateAttr("Sdk", n.Sdk)
	}
}
