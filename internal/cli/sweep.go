package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tspstudio/pkg/store"
	"github.com/matzehuels/tspstudio/pkg/studio"
)

// submitCommand creates the submit command, a single submission sweep.
func (c *CLI) submitCommand() *cobra.Command {
	var f remoteFlags
	cmd := &cobra.Command{
		Use:   "submit [study]",
		Short: "Submit channels without a job to NEOS once",
		Long: `Submit every unscheduled or failed channel to NEOS once and save the
job numbers. Use 'poll' later to collect the results.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSweep(cmd.Context(), args[0], f, func(ctx context.Context, r *remote, s *studio.Study) error {
				n, err := r.SubmitSweep(ctx, s)
				if err != nil {
					return err
				}
				printSuccess("Submitted %d of %d channels", submittedCount(s), len(s.Channels))
				if n == 0 {
					printDetail("Nothing to submit")
				}
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

// pollCommand creates the poll command, a single poll sweep.
func (c *CLI) pollCommand() *cobra.Command {
	var f remoteFlags
	cmd := &cobra.Command{
		Use:   "poll [study]",
		Short: "Check submitted channels for results once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSweep(cmd.Context(), args[0], f, func(ctx context.Context, r *remote, s *studio.Study) error {
				n, err := r.PollSweep(ctx, s)
				if err != nil {
					return err
				}
				printSuccess("%d newly resolved", n)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

// cancelCommand creates the cancel command.
func (c *CLI) cancelCommand() *cobra.Command {
	var f remoteFlags
	cmd := &cobra.Command{
		Use:   "cancel [study]",
		Short: "Kill running NEOS jobs and unschedule their channels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSweep(cmd.Context(), args[0], f, func(ctx context.Context, r *remote, s *studio.Study) error {
				n := submittedCount(s)
				if err := r.Cancel(ctx, s); err != nil {
					return err
				}
				printSuccess("Cancelled %d jobs", n)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func (c *CLI) runSweep(ctx context.Context, ref string, f remoteFlags, fn func(context.Context, *remote, *studio.Study) error) error {
	return c.withStudy(ctx, ref, func(st store.Store, s *studio.Study) error {
		r, err := c.newRemote(st, ref, f)
		if err != nil {
			return err
		}
		defer r.Close()
		if err := fn(ctx, r, s); err != nil {
			return err
		}
		printStatus(s)
		return nil
	})
}

func submittedCount(s *studio.Study) int {
	n := 0
	for _, st := range s.States() {
		if st.Status == studio.Submitted {
			n++
		}
	}
	return n
}
