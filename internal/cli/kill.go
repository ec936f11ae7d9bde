package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/repoharness/pkg/process"
)

// NewKillCmd creates the kill command.
func NewKillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kill EXECUTABLE",
		Short: "Kill processes running a specific executable",
		Long: `Kill every process, and its children, whose executable is exactly the given
path. Processes with the same name from other locations are left alone. Use
it to clear a toolchain host left behind by an aborted run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			n, err := process.NewKiller().KillByExecutablePath(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("failed to kill %s: %w", path, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Killed %d process(es) running %s\n", n, path)
			return nil
		},
	}

	return cmd
}
