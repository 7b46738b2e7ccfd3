package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tspstudio/pkg/studio"
)

// statusCommand creates the status command.
func (c *CLI) statusCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status [study]",
		Short: "Show the state of each channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStatus(cmd.Context(), args[0], asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the status as JSON")
	return cmd
}

func (c *CLI) runStatus(ctx context.Context, ref string, asJSON bool) error {
	s, err := c.loadStudy(ctx, ref)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(s.Snapshot(studyPhase(s)))
	}

	w, h := s.Size()
	fmt.Println(StyleTitle.Render(ref))
	printKeyValue("Study", s.ID)
	printKeyValue("Mode", s.Mode.String())
	printKeyValue("Image", fmt.Sprintf("%dx%d", w, h))
	printKeyValue("Points", fmt.Sprintf("%d per channel", s.Settings.Points))
	printKeyValue("Updated", s.UpdatedAt.Local().Format(time.DateTime))
	printStatus(s)
	return nil
}

// printStatus prints the channel table of s.
func printStatus(s *studio.Study) {
	snap := s.Snapshot(studyPhase(s))
	fmt.Println(channelTable(snap))
	switch {
	case snap.Resolved() == len(snap.Channels):
		printSuccess("All channels resolved")
	case !s.Stippled():
		printInfo("Some channels have no points yet")
	default:
		printInfo("%d of %d channels resolved", snap.Resolved(), len(snap.Channels))
	}
}

// studyPhase infers the phase of a study at rest.
func studyPhase(s *studio.Study) studio.Phase {
	if s.Resolved() {
		return studio.PhaseDone
	}
	if submittedCount(s) > 0 {
		return studio.PhasePolling
	}
	return studio.PhaseIdle
}
