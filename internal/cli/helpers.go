package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/glorpus-work/repoharness/pkg/config"
	"github.com/glorpus-work/repoharness/pkg/download"
	"github.com/glorpus-work/repoharness/pkg/errors"
	"github.com/glorpus-work/repoharness/pkg/fsutil"
	"github.com/glorpus-work/repoharness/pkg/logger"
	"github.com/glorpus-work/repoharness/pkg/scaffold"
	"github.com/glorpus-work/repoharness/pkg/scenario"
	"github.com/glorpus-work/repoharness/pkg/testrepo"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	Verbose    *bool
	NoColor    *bool
)

// loadConfig loads the configuration, applies CLI flag overrides and
// initializes logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if NoColor != nil && *NoColor {
		cfg.Settings.NoColor = true
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	logger.InitLogger(cfg.Settings.LogLevel, cfg.Settings.NoColor)
	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		// If we can't get the default path, use an empty string which will cause a more descriptive error later
		// when the config file is actually being read/written
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

// session holds the inputs and shared resources of one command.
type session struct {
	cfg    *config.Config
	inputs *scaffold.ResourceSet
	res    *testrepo.Resources
	keep   bool
}

// openSession opens the configured inputs and creates the shared resources.
func openSession(ctx context.Context, cfg *config.Config, share bool) (*session, error) {
	if cfg.Settings.InputsDir == "" {
		return nil, errors.Wrap(errors.ErrConfigValidation, "inputs_dir is not set (use --inputs or config set inputs_dir)")
	}
	location, err := resolveInputs(ctx, cfg, newFetcher())
	if err != nil {
		return nil, err
	}
	inputs, err := scaffold.OpenResources(ctx, location, cfg.Settings.TempRoot)
	if err != nil {
		return nil, err
	}

	res, err := testrepo.CreateResources(ctx, testrepo.ResourcesOptions{
		Options:      fixtureOptions(cfg),
		Inputs:       inputs,
		ManifestPath: cfg.Settings.Manifest,
		ShareRoots:   share,
	})
	if err != nil {
		_ = inputs.Close()
		return nil, err
	}
	return &session{cfg: cfg, inputs: inputs, res: res}, nil
}

// newFetcher is replaced in tests.
var newFetcher = func() download.Fetcher {
	return download.NewHTTPFetcher(DownloadTimeout, "")
}

// resolveInputs returns a local path for inputs_dir, downloading it into
// the cache directory first when it is a URL.
func resolveInputs(ctx context.Context, cfg *config.Config, fetcher download.Fetcher) (string, error) {
	location := cfg.Settings.InputsDir
	if !download.IsRemote(location) {
		return location, nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return "", errors.Wrapf(errors.ErrInvalidPath, "inputs_dir %q: %v", location, err)
	}
	cacheDir, err := fsutil.GetCacheDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get cache directory")
	}
	logger.Info("Downloading inputs", logger.Fields{"url": location})
	path, err := fetcher.Fetch(ctx, download.Item{URL: u, Checksum: cfg.Settings.InputsSHA256}, filepath.Join(cacheDir, "inputs"))
	if err != nil {
		return "", errors.Wrap(err, "failed to download inputs")
	}
	return path, nil
}

// Close releases the shared resources unless they are kept, then the inputs.
func (s *session) Close() {
	if !s.keep {
		s.res.Close()
	}
	if err := s.inputs.Close(); err != nil {
		logger.Warn("Failed to remove extracted inputs", logger.Fields{"error": err})
	}
}

func fixtureOptions(cfg *config.Config) testrepo.Options {
	return testrepo.Options{
		TempRoot:     cfg.Settings.TempRoot,
		BuildTimeout: cfg.Settings.BuildTimeout,
		Env:          cfg.Env,
		ToolingDir:   cfg.Settings.ToolingDir,
	}
}

// loadScenarios returns scenarios from file, the configured scenario file
// or the built-in catalog, in that order of preference.
func loadScenarios(cfg *config.Config, file string) ([]*scenario.Scenario, error) {
	if file == "" {
		file = cfg.Settings.ScenarioFile
	}
	if file == "" {
		return scenario.Catalog(), nil
	}
	return scenario.LoadFile(file)
}

// applyInputsFlag overrides inputs_dir when --inputs was given.
func applyInputsFlag(cfg *config.Config, inputs string) {
	if inputs != "" {
		cfg.Settings.InputsDir = inputs
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
