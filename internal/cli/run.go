package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tspstudio/pkg/channel"
	"github.com/matzehuels/tspstudio/pkg/pipeline"
	"github.com/matzehuels/tspstudio/pkg/studio"
)

// runCommand creates the run command: new, stipple, solve local and render
// in one go, without saving a study.
func (c *CLI) runCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		modeStr    string
		open       bool
		noCache    bool
	)
	settings := studio.DefaultSettings()
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "run [image]",
		Short: "Stipple, solve locally and render an image in one step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := channel.ParseMode(modeStr)
			if err != nil {
				return err
			}
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			opts.Closed = !open
			return c.runRun(cmd.Context(), args[0], output, mode, settings, opts, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): png (default), svg (comma-separated)")
	cmd.Flags().StringVarP(&modeStr, "mode", "m", channel.Grayscale.String(), "color mode: gray, rgb, cmyk")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().DurationVarP(&opts.TimeLimit, "time-limit", "t", pipeline.DefaultTimeLimit, "search time per channel")
	cmd.Flags().BoolVar(&open, "open", false, "solve open paths between the two farthest-apart points")
	addSettingsFlags(cmd, &settings)
	addStippleFlags(cmd, &opts)
	cmd.Flags().Float64Var(&opts.Scale, "scale", 1, "output size relative to the source image")
	cmd.Flags().Float64Var(&opts.MinWidth, "min-width", 0, "thinnest stroke as a fraction of the line width (default 1/255)")

	return cmd
}

func (c *CLI) runRun(ctx context.Context, input, output string, mode channel.Mode, settings studio.Settings, opts pipeline.Options, noCache bool) error {
	img, err := openImage(input)
	if err != nil {
		return err
	}
	s, err := studio.New(img, mode, settings)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Drawing %s...", filepath.Base(input)))
	spinner.Start()
	result, err := runner.Execute(ctx, s, opts)
	if err != nil {
		spinner.StopWithError("Run failed")
		return err
	}
	spinner.Stop()

	printChannelStats(s, result)
	for _, w := range result.Warnings {
		printWarning("%v", w)
	}
	printDetail("stipple %s · solve %s · render %s",
		result.Stats.StippleTime.Round(time.Millisecond), result.Stats.SolveTime.Round(time.Millisecond), result.Stats.RenderTime.Round(time.Millisecond))
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + "_tsp"
		if len(opts.Formats) == 1 {
			output += "." + opts.Formats[0]
		}
	}
	if err := writeArtifacts(result.Artifacts, opts.Formats, input, output, result.CacheInfo.RenderHit); err != nil {
		return err
	}
	prog.done("Finished " + input)
	return nil
}
