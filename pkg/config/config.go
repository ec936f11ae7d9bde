// Package config provides configuration management for repoharness. It
// handles loading, validating and saving the harness settings that control
// where test inputs come from, where repositories are created and how builds
// are run.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/repoharness/pkg/download"
	"github.com/glorpus-work/repoharness/pkg/errors"
	"github.com/glorpus-work/repoharness/pkg/fsutil"
	"github.com/glorpus-work/repoharness/pkg/manifest"
	"github.com/glorpus-work/repoharness/pkg/platform"
)

// Config represents the application configuration.
type Config struct {
	// General settings
	Settings Settings `yaml:"settings"`

	// Env is added to the environment of every build.
	Env map[string]string `yaml:"env,omitempty"`
}

// Settings represents general application settings.
type Settings struct {
	// Input settings
	InputsDir    string `yaml:"inputs_dir,omitempty"`    // directory, archive or archive URL holding eng/common and global.json
	InputsSHA256 string `yaml:"inputs_sha256,omitempty"` // expected checksum of a downloaded inputs archive
	Manifest     string `yaml:"manifest,omitempty"`      // version manifest path relative to InputsDir
	ScenarioFile string `yaml:"scenario_file,omitempty"`

	// Repository settings
	TempRoot    string `yaml:"temp_root,omitempty"`
	ShareRoots  *bool  `yaml:"share_roots,omitempty"`
	ToolingDir  string `yaml:"tooling_dir,omitempty"`
	SnapshotDir string `yaml:"snapshot_dir,omitempty"`
	KeepFailed  bool   `yaml:"keep_failed,omitempty"`

	// Build settings
	BuildTimeout  time.Duration `yaml:"build_timeout"`
	Configuration string        `yaml:"configuration"`
	Parallel      int           `yaml:"parallel"`

	// Output settings
	LogLevel string `yaml:"log_level"` // debug, info, warn, error
	NoColor  bool   `yaml:"no_color,omitempty"`
}

// Default configuration values.
const (
	// DefaultBuildTimeout is the default limit for a single build invocation.
	DefaultBuildTimeout = 30 * time.Minute

	// DefaultConfiguration is the build configuration scenarios run with.
	DefaultConfiguration = "Release"

	// DefaultParallel is the default number of scenarios run at once.
	DefaultParallel = 1

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	share := true
	snapshotDir, err := fsutil.GetSnapshotDir()
	if err != nil {
		snapshotDir = filepath.Join(fsutil.GetTempRoot(), "snapshots")
	}
	return &Config{
		Settings: Settings{
			Manifest:      manifest.FileName,
			TempRoot:      fsutil.GetTempRoot(),
			ShareRoots:    &share,
			ToolingDir:    platform.DefaultToolingDir,
			SnapshotDir:   snapshotDir,
			BuildTimeout:  DefaultBuildTimeout,
			Configuration: DefaultConfiguration,
			Parallel:      DefaultParallel,
			LogLevel:      "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	cfg, err := LoadConfigFromReader(file)
	if err != nil {
		return nil, err
	}
	cfg.resolveRelative(filepath.Dir(absPath))
	return cfg, nil
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveConfig saves configuration to a file, replacing it atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeSecure); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	tempPath := absPath + ".tmp"
	file, err := fsutil.CreateFilePerm(tempPath, fsutil.FileModeSecure)
	if err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)
	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	_ = encoder.Close()
	_ = file.Close()

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigFileRename, err.Error())
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	s := c.Settings
	if s.BuildTimeout < 0 {
		return errors.Wrap(errors.ErrConfigValidation, "build_timeout cannot be negative")
	}
	if s.Parallel < 1 {
		return errors.Wrapf(errors.ErrConfigValidation, "parallel must be at least 1, got %d", s.Parallel)
	}
	if strings.TrimSpace(s.ToolingDir) == "" {
		return errors.Wrap(errors.ErrConfigValidation, "tooling_dir cannot be empty")
	}
	if _, err := fsutil.NormalizePath(s.ToolingDir); err != nil {
		return errors.Wrapf(errors.ErrConfigValidation, "tooling_dir: %v", err)
	}
	if _, err := fsutil.NormalizePath(s.Manifest); err != nil {
		return errors.Wrapf(errors.ErrConfigValidation, "manifest: %v", err)
	}
	if s.InputsSHA256 != "" {
		if _, err := hex.DecodeString(s.InputsSHA256); err != nil || len(s.InputsSHA256) != sha256.Size*2 {
			return errors.Wrapf(errors.ErrConfigValidation, "inputs_sha256 %q is not a hex SHA-256 digest", s.InputsSHA256)
		}
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid log level %q (valid: debug, info, warn, error)", s.LogLevel)
	}
	for k := range c.Env {
		if k == "" || strings.ContainsAny(k, "=\x00") {
			return errors.Wrapf(errors.ErrConfigValidation, "invalid env variable name %q", k)
		}
	}
	return nil
}

// ShouldShareRoots reports whether a bootstrap build should populate a
// shared toolchain and package cache.
func (c *Config) ShouldShareRoots() bool {
	return c.Settings.ShareRoots == nil || *c.Settings.ShareRoots
}

// ManifestPath returns the absolute path of the version manifest.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.Settings.InputsDir, filepath.FromSlash(c.Settings.Manifest))
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user config directory")
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Settings.Manifest == "" {
		c.Settings.Manifest = defaults.Settings.Manifest
	}
	if c.Settings.TempRoot == "" {
		c.Settings.TempRoot = defaults.Settings.TempRoot
	}
	if c.Settings.ShareRoots == nil {
		c.Settings.ShareRoots = defaults.Settings.ShareRoots
	}
	if c.Settings.ToolingDir == "" {
		c.Settings.ToolingDir = defaults.Settings.ToolingDir
	}
	if c.Settings.SnapshotDir == "" {
		c.Settings.SnapshotDir = defaults.Settings.SnapshotDir
	}
	if c.Settings.BuildTimeout == 0 {
		c.Settings.BuildTimeout = defaults.Settings.BuildTimeout
	}
	if c.Settings.Configuration == "" {
		c.Settings.Configuration = defaults.Settings.Configuration
	}
	if c.Settings.Parallel == 0 {
		c.Settings.Parallel = defaults.Settings.Parallel
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
}

// resolveRelative anchors relative paths in the file at the file's directory.
func (c *Config) resolveRelative(base string) {
	for _, p := range []*string{&c.Settings.InputsDir, &c.Settings.ScenarioFile, &c.Settings.TempRoot, &c.Settings.SnapshotDir} {
		if *p != "" && !filepath.IsAbs(*p) && !download.IsRemote(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}
