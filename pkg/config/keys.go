package config

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/glorpus-work/repoharness/pkg/errors"
)

// EnvKeyPrefix addresses entries of the env map, e.g. env.DOTNET_NOLOGO.
const EnvKeyPrefix = "env."

type setting struct {
	get func(*Settings) string
	set func(*Settings, string) error
}

func stringSetting(field func(*Settings) *string) setting {
	return setting{
		get: func(s *Settings) string { return *field(s) },
		set: func(s *Settings, v string) error { *field(s) = v; return nil },
	}
}

func boolSetting(field func(*Settings) *bool) setting {
	return setting{
		get: func(s *Settings) string { return strconv.FormatBool(*field(s)) },
		set: func(s *Settings, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return errors.Wrapf(errors.ErrConfigValidation, "invalid boolean %q", v)
			}
			*field(s) = b
			return nil
		},
	}
}

var settings = map[string]setting{
	"inputs_dir":    stringSetting(func(s *Settings) *string { return &s.InputsDir }),
	"inputs_sha256": stringSetting(func(s *Settings) *string { return &s.InputsSHA256 }),
	"manifest":      stringSetting(func(s *Settings) *string { return &s.Manifest }),
	"scenario_file": stringSetting(func(s *Settings) *string { return &s.ScenarioFile }),
	"temp_root":     stringSetting(func(s *Settings) *string { return &s.TempRoot }),
	"tooling_dir":   stringSetting(func(s *Settings) *string { return &s.ToolingDir }),
	"snapshot_dir":  stringSetting(func(s *Settings) *string { return &s.SnapshotDir }),
	"configuration": stringSetting(func(s *Settings) *string { return &s.Configuration }),
	"log_level":     stringSetting(func(s *Settings) *string { return &s.LogLevel }),
	"keep_failed":   boolSetting(func(s *Settings) *bool { return &s.KeepFailed }),
	"no_color":      boolSetting(func(s *Settings) *bool { return &s.NoColor }),
	"share_roots": {
		get: func(s *Settings) string { return strconv.FormatBool(s.ShareRoots == nil || *s.ShareRoots) },
		set: func(s *Settings, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return errors.Wrapf(errors.ErrConfigValidation, "invalid boolean %q", v)
			}
			s.ShareRoots = &b
			return nil
		},
	},
	"build_timeout": {
		get: func(s *Settings) string { return s.BuildTimeout.String() },
		set: func(s *Settings, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return errors.Wrapf(errors.ErrConfigValidation, "invalid duration %q", v)
			}
			s.BuildTimeout = d
			return nil
		},
	},
	"parallel": {
		get: func(s *Settings) string { return strconv.Itoa(s.Parallel) },
		set: func(s *Settings, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return errors.Wrapf(errors.ErrConfigValidation, "invalid integer %q", v)
			}
			s.Parallel = n
			return nil
		},
	},
}

// Keys returns every settable key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetValue returns the string form of key. Keys starting with env. read the
// env map.
func (c *Config) GetValue(key string) (string, error) {
	if name, ok := strings.CutPrefix(key, EnvKeyPrefix); ok {
		v, exists := c.Env[name]
		if !exists {
			return "", errors.Wrapf(errors.ErrUnknownConfigKey, "%s", key)
		}
		return v, nil
	}
	s, ok := settings[key]
	if !ok {
		return "", errors.Wrapf(errors.ErrUnknownConfigKey, "%s", key)
	}
	return s.get(&c.Settings), nil
}

// SetValue parses value into key and validates the result. The config is
// left unchanged when validation fails.
func (c *Config) SetValue(key, value string) error {
	next := *c
	next.Env = make(map[string]string, len(c.Env)+1)
	for k, v := range c.Env {
		next.Env[k] = v
	}

	if name, ok := strings.CutPrefix(key, EnvKeyPrefix); ok {
		next.Env[name] = value
	} else {
		s, ok := settings[key]
		if !ok {
			return errors.Wrapf(errors.ErrUnknownConfigKey, "%s", key)
		}
		if err := s.set(&next.Settings, value); err != nil {
			return err
		}
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// ToMap returns every setting as strings, keyed like GetValue.
func (c *Config) ToMap() map[string]string {
	m := make(map[string]string, len(settings)+len(c.Env))
	for k, s := range settings {
		m[k] = s.get(&c.Settings)
	}
	for k, v := range c.Env {
		m[EnvKeyPrefix+k] = v
	}
	return m
}
