package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/repoharness/pkg/config"
	"github.com/glorpus-work/repoharness/pkg/errors"
	"github.com/glorpus-work/repoharness/pkg/logger"
)

// NewConfigCmd creates the config command with subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  "Inspect and edit the harness settings and the environment passed to builds",
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigSetCmd(),
		newConfigGetCmd(),
		newConfigInitCmd(),
	)

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Print every setting followed by the build environment. --yaml prints the file form instead.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if asYAML {
				data, err := cfg.ToYAML()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return printSettings(cmd.OutOrStdout(), cfg)
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the configuration as YAML")

	return cmd
}

// printSettings writes the settings table, then the env entries when any are set.
func printSettings(out io.Writer, cfg *config.Config) error {
	tw := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
	values := cfg.ToMap()
	_, _ = fmt.Fprintln(tw, "SETTING\tVALUE")
	for _, key := range config.Keys() {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", key, values[key])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(cfg.Env) == 0 {
		return nil
	}
	_, _ = fmt.Fprintf(out, "\nEnvironment (%d):\n", len(cfg.Env))
	tw = tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
	names := make([]string, 0, len(cfg.Env))
	for name := range cfg.Env {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(tw, "  %s\t%s\n", name, values[config.EnvKeyPrefix+name])
	}
	return tw.Flush()
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: "Set a configuration key and save the file. Keys of the form " + config.EnvKeyPrefix +
			"NAME set build environment variables. Settable keys: " + strings.Join(config.Keys(), ", "),
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			return updateConfig(func(cfg *config.Config) error {
				if err := cfg.SetValue(key, value); err != nil {
					return errors.Wrapf(err, "cannot set %s", key)
				}
				logger.Success("Configuration updated", logger.Fields{"key": key, "value": value})
				return nil
			})
		},
	}
}

// updateConfig loads the config file, applies edit and writes the result back.
func updateConfig(edit func(*config.Config) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := edit(cfg); err != nil {
		return err
	}
	path := getConfigPath()
	if err := cfg.SaveConfig(path); err != nil {
		return errors.Wrapf(err, "failed to save configuration to %s", path)
	}
	return nil
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY...",
		Short: "Get configuration values",
		Long:  "Print the value of one key, or KEY=VALUE lines when several keys are given",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, key := range args {
				value, err := cfg.GetValue(key)
				if err != nil {
					return err
				}
				if len(args) == 1 {
					_, _ = fmt.Fprintln(out, value)
				} else {
					_, _ = fmt.Fprintf(out, "%s=%s\n", key, value)
				}
			}
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var (
		force     bool
		inputs    string
		scenarios string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file",
		Long:  "Write a configuration file holding the defaults, optionally pointing at an inputs location and a scenario file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path := getConfigPath()
			if fileExists(path) && !force {
				return errors.Wrapf(errors.ErrConfigFileExists, "%s (use --force to overwrite)", path)
			}

			cfg := config.DefaultConfig()
			for key, value := range map[string]string{"inputs_dir": inputs, "scenario_file": scenarios} {
				if value == "" {
					continue
				}
				if err := cfg.SetValue(key, value); err != nil {
					return err
				}
			}
			if err := cfg.SaveConfig(path); err != nil {
				return errors.Wrap(err, "failed to save default configuration")
			}

			logger.Success("Configuration file created", logger.Fields{"path": path})
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")
	cmd.Flags().StringVar(&inputs, "inputs", "", "Inputs directory, archive or URL")
	cmd.Flags().StringVar(&scenarios, "scenarios", "", "Scenario file replacing the built-in catalog")

	return cmd
}
