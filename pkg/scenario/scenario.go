// Package scenario describes build-and-sign test cases declaratively and
// runs them against a test repository.
package scenario

import (
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/repoharness/pkg/errors"
	"github.com/glorpus-work/repoharness/pkg/fsutil"
	"github.com/glorpus-work/repoharness/pkg/hooks"
	"github.com/glorpus-work/repoharness/pkg/platform"
)

// DefaultProjectPath is where the scenario project is written when none is given.
const DefaultProjectPath = "src/FooPackage/FooPackage.csproj"

// Property is one MSBuild property or metadata entry. Lists of them keep
// the order they are written in.
type Property struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// Item is an item group entry. Exactly one of Include, Update and Remove is set.
type Item struct {
	Type     string     `yaml:"type"`
	Include  string     `yaml:"include,omitempty"`
	Update   string     `yaml:"update,omitempty"`
	Remove   string     `yaml:"remove,omitempty"`
	Metadata []Property `yaml:"metadata,omitempty"`
}

// Signing is written to eng/Signing.props when present.
type Signing struct {
	Properties []Property `yaml:"properties,omitempty"`
	Items      []Item     `yaml:"items,omitempty"`
}

// Project is the SDK project the build targets.
type Project struct {
	Path            string     `yaml:"path,omitempty"`
	OutputType      string     `yaml:"output_type,omitempty"`
	TargetFramework string     `yaml:"target_framework,omitempty"` // derived from the toolchain when empty
	Properties      []Property `yaml:"properties,omitempty"`
}

// Build lists the flags passed to the build entry point. Flags are bare
// names; the platform's prefix is added when the scenario runs.
type Build struct {
	Flags      []string   `yaml:"flags"`
	Properties []Property `yaml:"properties,omitempty"` // trailing /p:Name=Value arguments
}

// Expect is what a scenario asserts after the build.
type Expect struct {
	Fail          bool   `yaml:"fail,omitempty"`
	ErrorContains string `yaml:"error_contains,omitempty"`
	// Certificates are the Authenticode names expected in the first signing
	// round, in order.
	Certificates []string `yaml:"certificates,omitempty"`
	// AssetManifests is the expected number of asset manifests under artifacts/log.
	AssetManifests *int `yaml:"asset_manifests,omitempty"`
}

// Scenario is one declarative test case.
type Scenario struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	OS          []string `yaml:"os,omitempty"`

	Signing *Signing `yaml:"signing,omitempty"`
	Project Project  `yaml:"project"`
	Build   Build    `yaml:"build"`
	Expect  Expect   `yaml:"expect"`

	// Hooks maps a hook type to an inline tengo script.
	Hooks map[hooks.HookType]string `yaml:"hooks,omitempty"`
	// HooksDir holds <hook-type>.tengo files. Relative paths are resolved
	// against the scenario file.
	HooksDir string `yaml:"hooks_dir,omitempty"`
}

// File is the on-disk scenario list.
type File struct {
	Scenarios []*Scenario `yaml:"scenarios"`
}

// ProjectPath returns the project path with the default applied.
func (s *Scenario) ProjectPath() string {
	if s.Project.Path == "" {
		return DefaultProjectPath
	}
	return s.Project.Path
}

// SourcePath is the Program.cs written next to the project.
func (s *Scenario) SourcePath() string {
	return path.Join(path.Dir(s.ProjectPath()), "Program.cs")
}

// Validate checks a scenario for mistakes that would only show up at build time.
func (s *Scenario) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.Wrap(errors.ErrScenarioInvalid, "name cannot be empty")
	}
	invalid := func(format string, args ...interface{}) error {
		return errors.Wrapf(errors.ErrScenarioInvalid, "%s: "+format, append([]interface{}{s.Name}, args...)...)
	}

	for _, o := range s.OS {
		o = platform.NormalizeOS(o)
		if o != platform.AnyOS && !slices.Contains(platform.ValidOS(), o) {
			return invalid("unknown os %q", o)
		}
	}
	if _, err := fsutil.NormalizePath(s.ProjectPath()); err != nil {
		return invalid("project path: %v", err)
	}
	if len(s.Build.Flags) == 0 {
		return invalid("build needs at least one flag")
	}
	for _, f := range s.Build.Flags {
		if f == "" || strings.HasPrefix(f, "-") {
			return invalid("build flag %q must be a bare name", f)
		}
	}
	if s.Signing != nil {
		for _, it := range s.Signing.Items {
			if err := it.validate(); err != nil {
				return invalid("%v", err)
			}
		}
	}
	if s.Expect.ErrorContains != "" && !s.Expect.Fail {
		return invalid("error_contains requires fail: true")
	}
	if s.Expect.Fail && (len(s.Expect.Certificates) > 0 || s.Expect.AssetManifests != nil) {
		return invalid("artifact expectations cannot be combined with fail: true")
	}
	for t := range s.Hooks {
		if !t.Valid() {
			return invalid("unsupported hook type %q", t)
		}
	}
	return nil
}

func (it Item) validate() error {
	set := 0
	for _, v := range []string{it.Include, it.Update, it.Remove} {
		if v != "" {
			set++
		}
	}
	if it.Type == "" || set != 1 {
		return errors.Wrapf(errors.ErrScenarioInvalid, "item %q needs a type and exactly one of include, update or remove", it.Type)
	}
	return nil
}

// Parse decodes and validates a scenario file.
func Parse(data []byte) ([]*Scenario, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.ErrScenarioInvalid, err.Error())
	}
	seen := make(map[string]bool, len(f.Scenarios))
	for _, s := range f.Scenarios {
		if s == nil {
			return nil, errors.Wrap(errors.ErrScenarioInvalid, "empty scenario entry")
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if seen[s.Name] {
			return nil, errors.Wrapf(errors.ErrScenarioInvalid, "duplicate scenario %q", s.Name)
		}
		seen[s.Name] = true
	}
	return f.Scenarios, nil
}

// LoadFile reads a scenario file. Relative hook directories are anchored at
// the file's directory.
func LoadFile(file string) ([]*Scenario, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read scenario file %s", file)
	}
	list, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "in %s", file)
	}
	base := filepath.Dir(file)
	for _, s := range list {
		if s.HooksDir != "" && !filepath.IsAbs(s.HooksDir) {
			s.HooksDir = filepath.Join(base, filepath.FromSlash(s.HooksDir))
		}
	}
	return list, nil
}

// Find returns the scenario called name.
func Find(list []*Scenario, name string) (*Scenario, error) {
	for _, s := range list {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, errors.Wrapf(errors.ErrScenarioNotFound, "%q", name)
}

// Select returns the named scenarios in the order given. No names selects all.
func Select(list []*Scenario, names ...string) ([]*Scenario, error) {
	if len(names) == 0 {
		return list, nil
	}
	out := make([]*Scenario, 0, len(names))
	for _, n := range names {
		s, err := Find(list, n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
