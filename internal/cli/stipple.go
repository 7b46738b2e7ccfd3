package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tspstudio/pkg/pipeline"
	"github.com/matzehuels/tspstudio/pkg/store"
	"github.com/matzehuels/tspstudio/pkg/studio"
)

// stippleCommand creates the stipple command.
func (c *CLI) stippleCommand() *cobra.Command {
	var (
		channelsStr string
		noCache     bool
		points      int
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "stipple [study]",
		Short: "Sample density-matched points for each channel",
		Long: `Sample density-matched points for each channel.

Points are placed by rejection sampling and then relaxed with weighted
Lloyd iterations so that their density follows the ink of the channel.
Points on white are dropped afterwards. Stippling a channel discards its
tour and cancels any remote job still running for it.

Results are cached locally; use --refresh to resample.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chans, err := parseChannels(channelsStr)
			if err != nil {
				return err
			}
			opts.Channels = chans
			return c.runStipple(cmd.Context(), args[0], opts, points, noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVarP(&channelsStr, "channels", "c", "", "comma-separated channel indices (default: all)")
	cmd.Flags().IntVarP(&points, "points", "n", 0, "points per channel (default: study setting)")
	addStippleFlags(cmd, &opts)

	return cmd
}

// addStippleFlags registers the sampling options shared by stipple and run.
func addStippleFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().IntVar(&opts.Iterations, "iterations", pipeline.DefaultIterations, "Lloyd relaxation iterations")
	cmd.Flags().IntVar(&opts.PixelsPerPoint, "pixels-per-point", 0, "working resolution in pixels per point")
	cmd.Flags().Int64Var(&opts.Seed, "seed", pipeline.DefaultSeed, "random seed")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached samples")
}

func (c *CLI) runStipple(ctx context.Context, ref string, opts pipeline.Options, points int, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	return c.withStudy(ctx, ref, func(st store.Store, s *studio.Study) error {
		settings := s.Settings
		if points > 0 {
			settings.Points = points
		}
		if err := settings.Validate(); err != nil {
			return err
		}
		reset := opts.Channels
		if s.Resets(settings) {
			reset = nil
		}
		if err := c.cancelJobs(ctx, st, ref, s, reset); err != nil {
			return err
		}
		if err := s.Configure(settings); err != nil {
			return err
		}

		spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Stippling %d points per channel...", s.Settings.Points))
		spinner.Start()
		result, err := runner.Stipple(ctx, s, opts)
		if err != nil {
			spinner.StopWithError("Stippling failed")
			return err
		}
		spinner.Stop()

		printSuccess("Stippled %s", ref)
		printChannelStats(s, result)
		for _, w := range result.Warnings {
			printWarning("%v", w)
		}
		printNewline()
		printNextStep("Solve locally", "tspstudio solve local "+ref)
		printNextStep("Solve on NEOS", "tspstudio solve online "+ref+" --email you@example.com")
		return nil
	})
}

// cancelJobs cancels the remote jobs of the given channels (nil: all) before
// their points are replaced. Failures other than interruption are warnings.
func (c *CLI) cancelJobs(ctx context.Context, st store.Store, ref string, s *studio.Study, channels []int) error {
	n := 0
	for _, ch := range s.Channels {
		if ch.State.Status == studio.Submitted && (channels == nil || slices.Contains(channels, ch.Index)) {
			n++
		}
	}
	if n == 0 {
		return nil
	}
	r, err := c.newRemote(st, ref, remoteFlags{})
	if err != nil {
		return err
	}
	defer r.Close()
	if err := r.CancelChannels(ctx, s, channels); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		printWarning("Could not cancel remote jobs: %v", err)
		return nil
	}
	printInfo("Cancelled %d remote jobs", n)
	return nil
}
