package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/repoharness/pkg/logger"
	"github.com/glorpus-work/repoharness/pkg/scenario"
	"github.com/glorpus-work/repoharness/pkg/testrepo"
)

// NewScaffoldCmd creates the scaffold command.
func NewScaffoldCmd() *cobra.Command {
	var (
		inputs       string
		file         string
		scenarioName string
	)

	cmd := &cobra.Command{
		Use:   "scaffold NAME",
		Short: "Create a repository without building it",
		Long: `Create a repository with the default layout and print its path.

With --scenario the scenario's projects and signing properties are written as
well, so the build can be run by hand. The repository is never deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScaffold(cmd, args[0], inputs, file, scenarioName)
		},
	}

	cmd.Flags().StringVar(&inputs, "inputs", "", "Inputs directory or archive (overrides inputs_dir)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Scenario file")
	cmd.Flags().StringVarP(&scenarioName, "scenario", "s", "", "Scenario to scaffold")

	return cmd
}

func runScaffold(cmd *cobra.Command, name, inputs, file, scenarioName string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyInputsFlag(cfg, inputs)

	var sc *scenario.Scenario
	if scenarioName != "" {
		list, err := loadScenarios(cfg, file)
		if err != nil {
			return err
		}
		if sc, err = scenario.Find(list, scenarioName); err != nil {
			return err
		}
	}

	sess, err := openSession(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}
	defer sess.Close()

	opts := fixtureOptions(cfg)
	opts.KeepRoot = true
	f, err := testrepo.New(name, sess.res, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if sc != nil {
		runner := &scenario.Runner{Configuration: cfg.Settings.Configuration, ToolchainVersion: sess.res.ToolchainVersion}
		err = runner.Scaffold(f, sc)
	} else {
		err = f.AddDefaultRepoSetup()
	}
	if err != nil {
		return fmt.Errorf("failed to scaffold %s: %w", name, err)
	}

	logger.Success("Repository created", logger.Fields{"root": f.Root()})
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), f.Root())
	return nil
}
