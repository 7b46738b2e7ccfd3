package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tspstudio/pkg/pipeline"
)

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [study]",
		Short: "Draw the resolved tours as an image",
		Long: `Draw the resolved tours as an image.

Each channel becomes one variable-width line whose stroke follows the ink
at each point. Grayscale studies draw the foreground color over the
background; RGB channels add on black and CMYK channels multiply on white.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], output, opts, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): png (default), svg (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	addRenderFlags(cmd, &opts)

	return cmd
}

// addRenderFlags registers the drawing options shared by render and run.
func addRenderFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().Float64Var(&opts.Scale, "scale", 1, "output size relative to the source image")
	cmd.Flags().BoolVar(&opts.Closed, "closed", false, "join the last point back to the first")
	cmd.Flags().Float64Var(&opts.MinWidth, "min-width", 0, "thinnest stroke as a fraction of the line width (default 1/255)")
}

func (c *CLI) runRender(ctx context.Context, ref, output string, opts pipeline.Options, noCache bool) error {
	s, err := c.loadStudy(ctx, ref)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()
	artifacts, cacheHit, err := runner.Render(ctx, s, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	return writeArtifacts(artifacts, opts.Formats, ref, output, cacheHit)
}

// writeArtifacts writes one file per format. A single format goes to
// output as given; several share output as base path.
func writeArtifacts(artifacts map[string][]byte, formats []string, ref, output string, cacheHit bool) error {
	status := iconFresh
	if cacheHit {
		status = iconCached
	}
	printSuccess("Rendered %s %s", ref, StyleDim.Render("("+status+")"))

	formats = append([]string(nil), formats...)
	sort.Strings(formats)
	base := basePath(output, ref)
	for _, format := range formats {
		path := base + "." + format
		if len(formats) == 1 && output != "" {
			path = output
		}
		out, err := openOutput(path)
		if err != nil {
			return err
		}
		_, err = out.Write(artifacts[format])
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}
