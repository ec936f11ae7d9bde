package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewResourcesCmd creates the resources command.
func NewResourcesCmd() *cobra.Command {
	var (
		inputs string
		keep   bool
	)

	cmd := &cobra.Command{
		Use:   "resources",
		Short: "Restore the shared toolchain and package roots",
		Long: `Build the bootstrap repository and print the versions and shared roots it
produced. The roots are deleted afterwards unless --keep is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResources(cmd, inputs, keep)
		},
	}

	cmd.Flags().StringVar(&inputs, "inputs", "", "Inputs directory or archive (overrides inputs_dir)")
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep the bootstrap repository")

	return cmd
}

func runResources(cmd *cobra.Command, inputs string, keep bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyInputsFlag(cfg, inputs)

	sess, err := openSession(cmd.Context(), cfg, cfg.ShouldShareRoots())
	if err != nil {
		return err
	}
	sess.keep = keep
	defer sess.Close()

	res := sess.res
	tabWriter := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintf(tabWriter, "toolchain_version\t%s\n", res.ToolchainVersion)
	_, _ = fmt.Fprintf(tabWriter, "sdk_version\t%s\n", res.SDKVersion)
	_, _ = fmt.Fprintf(tabWriter, "root\t%s\n", orNone(res.Root()))
	_, _ = fmt.Fprintf(tabWriter, "toolchain_root\t%s\n", orNone(res.SharedToolchainRoot))
	_, _ = fmt.Fprintf(tabWriter, "package_cache_root\t%s\n", orNone(res.SharedPackageCacheRoot))
	return tabWriter.Flush()
}

func orNone(s string) string {
	if s == "" {
		return "(machine default)"
	}
	return s
}
