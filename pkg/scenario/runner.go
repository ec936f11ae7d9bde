package scenario

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/glorpus-work/repoharness/pkg/artifacts"
	"github.com/glorpus-work/repoharness/pkg/errors"
	"github.com/glorpus-work/repoharness/pkg/hooks"
	"github.com/glorpus-work/repoharness/pkg/logger"
	"github.com/glorpus-work/repoharness/pkg/manifest"
	"github.com/glorpus-work/repoharness/pkg/msbuild"
	"github.com/glorpus-work/repoharness/pkg/process"
	"github.com/glorpus-work/repoharness/pkg/scaffold"
)

// DefaultConfiguration is the build configuration used when none is set.
const DefaultConfiguration = "Release"

// Event represents a simple progress notification.
type Event struct {
	Phase    string // scaffolding|pre-build|building|verifying|post-build|done|skipped|error
	Scenario string
	Msg      string
}

// Result is the outcome of one scenario that met its expectations.
type Result struct {
	Scenario string
	Skipped  bool
	Build    *process.Result
	// BuildErr is the expected build failure of a failing scenario.
	BuildErr       error
	Certificates   []string
	AssetManifests []string
	// AssetManifest is the parsed manifest when exactly one was expected.
	AssetManifest *artifacts.AssetManifest
	Duration      time.Duration
}

// Runner runs scenarios. The zero value is ready to use.
type Runner struct {
	// Configuration is passed as the configuration flag. Defaults to Release.
	Configuration string
	// TargetFramework is used for projects that do not set one. When empty
	// it is derived from ToolchainVersion.
	TargetFramework  string
	ToolchainVersion string
	// Hooks run before the scenario's own hooks. Optional.
	Hooks hooks.HookManager
	// OnEvent receives progress notifications. Optional.
	OnEvent func(Event)
}

// Run scaffolds sc into repo, builds it and checks the expectations. A
// scenario whose expectations are not met returns an error matching
// ErrExpectation. Scenarios restricted to other platforms are skipped.
func (r *Runner) Run(ctx context.Context, repo Repo, sc *Scenario) (*Result, error) {
	start := time.Now()
	res := &Result{Scenario: sc.Name}
	if !repo.Platform().Matches(sc.OS) {
		r.emit("skipped", sc, "not supported on "+repo.Platform().OS)
		res.Skipped = true
		return res, nil
	}

	err := r.run(ctx, repo, sc, res)
	res.Duration = time.Since(start)
	if err != nil {
		r.emit("error", sc, err.Error())
		return res, err
	}
	r.emit("done", sc, "")
	logger.Success("Scenario passed", logger.Fields{"scenario": sc.Name, "duration": res.Duration})
	return res, nil
}

func (r *Runner) run(ctx context.Context, repo Repo, sc *Scenario, res *Result) error {
	if err := sc.Validate(); err != nil {
		return err
	}
	scriptHooks, err := scenarioHooks(sc)
	if err != nil {
		return err
	}
	managers := []hooks.HookManager{scriptHooks}
	if r.Hooks != nil {
		managers = []hooks.HookManager{r.Hooks, scriptHooks}
	}

	r.emit("scaffolding", sc, repo.Root())
	if err := r.Scaffold(repo, sc); err != nil {
		return errors.Wrapf(err, "failed to scaffold %s", sc.Name)
	}

	hctx := hooks.HookContext{RepoRoot: repo.Root(), FixtureName: repo.Name()}
	r.emit("pre-build", sc, "")
	if err := runHooks(ctx, managers, hooks.PreBuild, hctx); err != nil {
		return err
	}

	args, err := r.buildArgs(repo, sc)
	if err != nil {
		return err
	}
	r.emit("building", sc, fmt.Sprint(args))
	build, buildErr := repo.Build(ctx, args...)
	res.Build = build

	r.emit("verifying", sc, "")
	if err := r.verifyBuild(sc, buildErr, res); err != nil {
		return err
	}
	if !sc.Expect.Fail {
		if err := r.verifyArtifacts(repo, sc, res); err != nil {
			return err
		}
	}

	if build != nil {
		hctx.ExitCode = build.ExitCode
		hctx.Stdout = build.Stdout
		hctx.Stderr = build.Stderr
	}
	hctx.Certificates = res.Certificates
	r.emit("post-build", sc, "")
	return runHooks(ctx, managers, hooks.PostBuild, hctx)
}

// Scaffold writes the default layout and the scenario's files into repo
// without building.
func (r *Runner) Scaffold(repo Repo, sc *Scenario) error {
	if err := repo.AddDefaultRepoSetup(); err != nil {
		return err
	}
	if sc.Signing != nil {
		if err := repo.AddProject(signingProject(sc.Signing), scaffold.SigningPropsPath); err != nil {
			return err
		}
	}
	if err := repo.AddProject(r.project(sc), sc.ProjectPath()); err != nil {
		return err
	}
	return repo.AddSimpleSourceFile(sc.SourcePath())
}

func (r *Runner) project(sc *Scenario) *msbuild.Project {
	tf := sc.Project.TargetFramework
	if tf == "" {
		tf = r.TargetFramework
	}
	if tf == "" {
		tf = manifest.TargetFramework(r.ToolchainVersion)
	}
	outputType := sc.Project.OutputType
	if outputType == "" {
		outputType = "Exe"
	}
	p := msbuild.SdkProject(tf, outputType)
	if len(sc.Project.Properties) > 0 {
		g := p.PropertyGroup()
		for _, prop := range sc.Project.Properties {
			g.Set(prop.Name, prop.Value)
		}
	}
	return p
}

func signingProject(s *Signing) *msbuild.Project {
	p := msbuild.New("")
	if len(s.Properties) > 0 {
		g := p.PropertyGroup()
		for _, prop := range s.Properties {
			g.Set(prop.Name, prop.Value)
		}
	}
	if len(s.Items) > 0 {
		g := p.ItemGroup()
		for _, it := range s.Items {
			md := make([]msbuild.Metadata, 0, len(it.Metadata))
			for _, m := range it.Metadata {
				md = append(md, msbuild.M(m.Name, m.Value))
			}
			switch {
			case it.Include != "":
				g.Include(it.Type, it.Include, md...)
			case it.Update != "":
				g.Update(it.Type, it.Update, md...)
			default:
				g.Remove(it.Type, it.Remove)
			}
		}
	}
	return p
}

func (r *Runner) configuration() string {
	if r.Configuration == "" {
		return DefaultConfiguration
	}
	return r.Configuration
}

func (r *Runner) buildArgs(repo Repo, sc *Scenario) ([]string, error) {
	csproj, err := repo.Path(sc.ProjectPath())
	if err != nil {
		return nil, err
	}
	args := []string{repo.Arg("configuration"), r.configuration()}
	for _, f := range sc.Build.Flags {
		args = append(args, repo.Arg(f))
	}
	args = append(args, repo.Arg("projects"), csproj)
	for _, p := range sc.Build.Properties {
		args = append(args, "/p:"+p.Name+"="+p.Value)
	}
	return args, nil
}

func (r *Runner) verifyBuild(sc *Scenario, buildErr error, res *Result) error {
	var execErr *process.ExecutionError
	if buildErr != nil && !stderrors.As(buildErr, &execErr) {
		return buildErr
	}
	// Only a non-zero exit is a build outcome. Timeouts, cancellation and
	// an entry point that could not be started are returned as they are.
	if execErr != nil && !stderrors.Is(execErr.Err, errors.ErrProcessExecution) {
		return buildErr
	}

	if !sc.Expect.Fail {
		if buildErr != nil {
			return errors.Wrapf(errors.ErrExpectation, "%s: build failed: %v", sc.Name, buildErr)
		}
		return nil
	}

	if buildErr == nil {
		return errors.Wrapf(errors.ErrExpectation, "%s: build succeeded but was expected to fail", sc.Name)
	}
	res.BuildErr = buildErr
	if sc.Expect.ErrorContains != "" && !containsOutput(execErr, sc.Expect.ErrorContains) {
		return errors.Wrapf(errors.ErrExpectation, "%s: build output does not contain %q:\n%s", sc.Name, sc.Expect.ErrorContains, execErr.Output())
	}
	return nil
}

func (r *Runner) verifyArtifacts(repo Repo, sc *Scenario, res *Result) error {
	if len(sc.Expect.Certificates) > 0 {
		round := artifacts.SigningRoundPath(repo.Root(), r.configuration(), 0)
		certs, err := artifacts.AuthenticodeCertificates(round)
		if err != nil {
			return errors.Wrapf(errors.ErrExpectation, "%s: %v", sc.Name, err)
		}
		res.Certificates = certs
		if !slices.Equal(certs, sc.Expect.Certificates) {
			return errors.Wrapf(errors.ErrExpectation, "%s: certificates %v, want %v", sc.Name, certs, sc.Expect.Certificates)
		}
	}
	if sc.Expect.AssetManifests != nil && *sc.Expect.AssetManifests == 1 {
		m, err := artifacts.SingleAssetManifest(repo.Root())
		if err != nil {
			return errors.Wrap(err, sc.Name)
		}
		res.AssetManifests = []string{m.Path}
		res.AssetManifest = m
		return nil
	}
	if sc.Expect.AssetManifests != nil {
		found, err := artifacts.FindAssetManifests(repo.Root())
		if err != nil {
			return err
		}
		res.AssetManifests = found
		if len(found) != *sc.Expect.AssetManifests {
			return errors.Wrapf(errors.ErrExpectation, "%s: found %d asset manifests, want %d", sc.Name, len(found), *sc.Expect.AssetManifests)
		}
	}
	return nil
}

func containsOutput(e *process.ExecutionError, s string) bool {
	return e != nil && (strings.Contains(e.Stdout, s) || strings.Contains(e.Stderr, s))
}

func scenarioHooks(sc *Scenario) (*hooks.TengoExecutor, error) {
	executor := hooks.NewTengoExecutor()
	if sc.HooksDir != "" {
		if err := hooks.LoadHooksFromDir(executor, sc.HooksDir); err != nil {
			return nil, err
		}
	}
	// Inline scripts win over files.
	for t, script := range sc.Hooks {
		if err := executor.AddHook(hooks.Hook{Type: t, Content: script}); err != nil {
			return nil, err
		}
	}
	return executor, nil
}

func runHooks(ctx context.Context, managers []hooks.HookManager, t hooks.HookType, hctx hooks.HookContext) error {
	for _, m := range managers {
		if !m.HasHook(t) {
			continue
		}
		if err := m.Execute(ctx, t, hctx); err != nil {
			return errors.Wrapf(err, "%s hook failed for %s", t, hctx.FixtureName)
		}
	}
	return nil
}

func (r *Runner) emit(phase string, sc *Scenario, msg string) {
	logger.Debug("Scenario "+phase, logger.Fields{"scenario": sc.Name, "msg": msg})
	if r.OnEvent != nil {
		r.OnEvent(Event{Phase: phase, Scenario: sc.Name, Msg: msg})
	}
}
