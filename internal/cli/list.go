package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available scenarios",
		Long: `List the scenarios run would choose from.

Without --file the configured scenario_file is listed, or the built-in
catalog when none is configured.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, file)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Scenario file to list")

	return cmd
}

func runList(cmd *cobra.Command, file string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	list, err := loadScenarios(cfg, file)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No scenarios defined")
		return nil
	}

	tabWriter := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tabWriter, "NAME\tOS\tEXPECT\tDESCRIPTION")
	_, _ = fmt.Fprintln(tabWriter, "----\t--\t------\t-----------")
	for _, sc := range list {
		osList := "any"
		if len(sc.OS) > 0 {
			osList = strings.Join(sc.OS, ",")
		}
		expect := "success"
		if sc.Expect.Fail {
			expect = "failure"
		}
		_, _ = fmt.Fprintf(tabWriter, "%s\t%s\t%s\t%s\n", sc.Name, osList, expect, truncate(sc.Description, MaxDescriptionLength))
	}
	return tabWriter.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
