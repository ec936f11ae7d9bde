package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/glorpus-work/repoharness/pkg/errors"
	"github.com/glorpus-work/repoharness/pkg/logger"
	"github.com/glorpus-work/repoharness/pkg/scenario"
	"github.com/glorpus-work/repoharness/pkg/testrepo"
)

type runOptions struct {
	file       string
	inputs     string
	all        bool
	parallel   int
	keepFailed bool
	noShare    bool
}

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [SCENARIO...]",
		Short: "Run build scenarios",
		Long: `Run scenarios against freshly scaffolded repositories.

Scenarios come from --file, the configured scenario_file, or the built-in
catalog. Shared toolchain and package roots are restored once and reused by
every scenario unless --no-share is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Scenario file (default: configured scenario_file or built-in catalog)")
	cmd.Flags().StringVar(&opts.inputs, "inputs", "", "Inputs directory or archive (overrides inputs_dir)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "Run every scenario")
	cmd.Flags().IntVarP(&opts.parallel, "parallel", "p", 0, "Number of scenarios to run at once (default: configured parallel)")
	cmd.Flags().BoolVar(&opts.keepFailed, "keep-failed", false, "Keep repositories of failed scenarios")
	cmd.Flags().BoolVar(&opts.noShare, "no-share", false, "Do not share toolchain and package roots")

	return cmd
}

type outcome struct {
	name     string
	root     string
	result   *scenario.Result
	err      error
	snapshot string
}

func runScenarios(cmd *cobra.Command, names []string, opts runOptions) error {
	if len(names) == 0 && !opts.all {
		return fmt.Errorf("specify scenario names or --all")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyInputsFlag(cfg, opts.inputs)
	if opts.parallel > 0 {
		cfg.Settings.Parallel = opts.parallel
	}
	if opts.keepFailed {
		cfg.Settings.KeepFailed = true
	}

	list, err := loadScenarios(cfg, opts.file)
	if err != nil {
		return err
	}
	selected, err := scenario.Select(list, names...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sess, err := openSession(ctx, cfg, cfg.ShouldShareRoots() && !opts.noShare)
	if err != nil {
		return err
	}
	defer sess.Close()

	outcomes := make([]outcome, len(selected))
	var g errgroup.Group
	g.SetLimit(cfg.Settings.Parallel)
	for i, sc := range selected {
		g.Go(func() error {
			outcomes[i] = runOne(ctx, sess, sc)
			return nil
		})
	}
	_ = g.Wait()

	return report(cmd, outcomes)
}

func runOne(ctx context.Context, sess *session, sc *scenario.Scenario) outcome {
	out := outcome{name: sc.Name}
	f, err := testrepo.New(sc.Name, sess.res, fixtureOptions(sess.cfg))
	if err != nil {
		out.err = err
		return out
	}
	defer f.Close()
	out.root = f.Root()

	runner := &scenario.Runner{
		Configuration:    sess.cfg.Settings.Configuration,
		ToolchainVersion: sess.res.ToolchainVersion,
		OnEvent: func(e scenario.Event) {
			logger.Info(e.Phase, logger.Fields{"scenario": e.Scenario})
		},
	}
	out.result, out.err = runner.Run(ctx, f, sc)
	if out.err == nil {
		return out
	}

	if sess.cfg.Settings.KeepFailed {
		f.Keep()
	}
	if dir := sess.cfg.Settings.SnapshotDir; dir != "" {
		dest := filepath.Join(dir, fmt.Sprintf("%s-%s.tar.gz", sc.Name, time.Now().Format(SnapshotTimeFormat)))
		if err := f.Snapshot(ctx, dest); err != nil {
			logger.Warn("Failed to snapshot repository", logger.Fields{"scenario": sc.Name, "error": err})
		} else {
			out.snapshot = dest
		}
	}
	return out
}

func report(cmd *cobra.Command, outcomes []outcome) error {
	tabWriter := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tabWriter, "SCENARIO\tSTATUS\tDURATION\tDETAIL")
	_, _ = fmt.Fprintln(tabWriter, "--------\t------\t--------\t------")

	failed := 0
	for _, o := range outcomes {
		status, detail := "passed", ""
		var duration time.Duration
		if o.result != nil {
			duration = o.result.Duration.Round(time.Millisecond)
			if o.result.Skipped {
				status = "skipped"
			}
		}
		if o.err != nil {
			failed++
			status = "failed"
			detail = firstLine(o.err.Error())
			if o.snapshot != "" {
				detail += " (snapshot: " + o.snapshot + ")"
			}
		}
		_, _ = fmt.Fprintf(tabWriter, "%s\t%s\t%s\t%s\n", o.name, status, duration, detail)
	}
	_ = tabWriter.Flush()

	for _, o := range outcomes {
		if o.err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "\n=== %s (%s)\n%v\n", o.name, o.root, o.err)
		}
	}
	if failed > 0 {
		return errors.Wrapf(errors.ErrExpectation, "%d of %d scenarios failed", failed, len(outcomes))
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
