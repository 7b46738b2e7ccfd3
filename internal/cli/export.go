package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	tspio "github.com/matzehuels/tspstudio/pkg/io"
	"github.com/matzehuels/tspstudio/pkg/store"
	"github.com/matzehuels/tspstudio/pkg/studio"
)

// Export formats.
const (
	exportJSON = "json"
	exportTSP  = "tsp"
	exportTour = "tour"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		index  int
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export [study]",
		Short: "Write one channel's points or tour to a file",
		Long: `Write one channel's points or tour to a file.

Formats:
  json  points, ink factors and image size
  tsp   TSPLIB EUC_2D problem, for external solvers
  tour  point indices in tour order, one per line`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), args[0], index, format, output)
		},
	}

	cmd.Flags().IntVarP(&index, "channel", "c", 0, "channel index")
	cmd.Flags().StringVarP(&format, "format", "f", exportJSON, "export format: json, tsp, tour")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

func (c *CLI) runExport(ctx context.Context, ref string, index int, format, output string) error {
	s, err := c.loadStudy(ctx, ref)
	if err != nil {
		return err
	}
	ch, err := s.Channel(index)
	if err != nil {
		return err
	}
	if len(ch.Points) == 0 {
		return fmt.Errorf("%s has no points; run 'tspstudio stipple' first", ch)
	}

	out, err := openOutput(output)
	if err != nil {
		return err
	}
	defer out.Close()

	switch format {
	case exportJSON:
		w, h := s.Size()
		err = tspio.WriteJSON(tspio.PointSet{Points: ch.Points, Factors: ch.Factors, Width: w, Height: h}, out)
	case exportTSP:
		err = tspio.WriteTSPLIB(ch.Points, out)
	case exportTour:
		if ch.Tour == nil {
			return fmt.Errorf("%s has no tour", ch)
		}
		err = tspio.WriteTour(ch.Tour, out)
	default:
		return fmt.Errorf("invalid export format %q (want json, tsp or tour)", format)
	}
	if err != nil {
		return err
	}
	if output != "" {
		printSuccess("Exported %s as %s", ch, format)
		printFile(output)
	}
	return nil
}

// importTourCommand creates the import-tour command.
func (c *CLI) importTourCommand() *cobra.Command {
	var index int

	cmd := &cobra.Command{
		Use:   "import-tour [study] [tour file]",
		Short: "Resolve a channel with an externally computed tour",
		Long: `Resolve a channel with an externally computed tour.

The tour file lists point indices in visiting order, one per line, as
written by 'export -f tour' or produced by a solver run on 'export -f tsp'.
It must visit every point of the channel exactly once.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImportTour(cmd.Context(), args[0], args[1], index)
		},
	}

	cmd.Flags().IntVarP(&index, "channel", "c", 0, "channel index")

	return cmd
}

func (c *CLI) runImportTour(ctx context.Context, ref, path string, index int) error {
	tour, err := tspio.ImportTour(path)
	if err != nil {
		return err
	}
	return c.withStudy(ctx, ref, func(_ store.Store, s *studio.Study) error {
		ch, err := s.Channel(index)
		if err != nil {
			return err
		}
		if err := ch.ApplyTour(tour); err != nil {
			return fmt.Errorf("%s: %w", ch, err)
		}
		s.Touch()
		printSuccess("Applied %d-point tour to %s", len(tour), ch)
		return nil
	})
}
