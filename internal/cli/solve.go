package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tspstudio/pkg/neos"
	"github.com/matzehuels/tspstudio/pkg/pipeline"
	"github.com/matzehuels/tspstudio/pkg/statusapi"
	"github.com/matzehuels/tspstudio/pkg/store"
	"github.com/matzehuels/tspstudio/pkg/studio"
)

// remoteFlags are the NEOS overrides shared by the online commands. Zero
// values leave the configured value in place.
type remoteFlags struct {
	url         string
	email       string
	delay       time.Duration
	requeue     time.Duration
	maxAttempts int
}

func (f *remoteFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.url, "neos-url", "", "NEOS XML-RPC endpoint (default from config)")
	cmd.Flags().StringVar(&f.email, "email", "", "contact email NEOS requires for submissions")
	cmd.Flags().DurationVar(&f.delay, "delay", 0, "pause between polls (default 15s)")
	cmd.Flags().DurationVar(&f.requeue, "requeue", 0, "resubmit failed channels after this long (default 10m)")
	cmd.Flags().IntVar(&f.maxAttempts, "max-attempts", 0, "give up after this many submissions per channel (0: unlimited)")
}

// remote bundles an orchestrator with the client it dials lazily.
type remote struct {
	*studio.Orchestrator
	client *neos.Client
}

func (r *remote) Close() {
	if r.client != nil {
		_ = r.client.Close()
	}
}

// newRemote builds an orchestrator that persists to st under ref.
func (c *CLI) newRemote(st store.Store, ref string, f remoteFlags, opts ...studio.Option) (*remote, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	oc := cfg.Orchestrator()
	url := cfg.NEOS.URL
	if f.url != "" {
		url = f.url
	}
	if f.email != "" {
		oc.Email = f.email
	}
	if f.delay > 0 {
		oc.Delay = f.delay
	}
	if f.requeue > 0 {
		oc.RequeueInterval = f.requeue
	}
	if f.maxAttempts > 0 {
		oc.MaxAttempts = f.maxAttempts
	}

	r := &remote{}
	connect := func(ctx context.Context) (neos.Service, error) {
		c.Logger.Debug("connecting", "url", url)
		client, err := neos.Dial(ctx, url, neos.WithLogger(c.Logger))
		if err != nil {
			return nil, err
		}
		r.client = client
		return client, nil
	}
	opts = append([]studio.Option{studio.WithLogger(c.Logger), studio.WithStore(st, ref)}, opts...)
	r.Orchestrator, err = studio.NewOrchestrator(oc, connect, opts...)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// solveCommand creates the solve command with local and online subcommands.
func (c *CLI) solveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Compute a tour through each channel's points",
	}
	cmd.AddCommand(c.solveLocalCommand())
	cmd.AddCommand(c.solveOnlineCommand())
	return cmd
}

// solveLocalCommand creates the "solve local" subcommand.
func (c *CLI) solveLocalCommand() *cobra.Command {
	var (
		timeLimit time.Duration
		open      bool
		f         remoteFlags
	)

	cmd := &cobra.Command{
		Use:   "local [study]",
		Short: "Solve every channel on this machine",
		Long: `Solve every channel on this machine.

Remote jobs still running are cancelled first. Each channel is solved with
guided local search within the time limit; tours are stored only if every
channel succeeds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSolveLocal(cmd.Context(), args[0], timeLimit, !open, f)
		},
	}

	cmd.Flags().DurationVarP(&timeLimit, "time-limit", "t", pipeline.DefaultTimeLimit, "search time per channel")
	cmd.Flags().BoolVar(&open, "open", false, "solve open paths between the two farthest-apart points")
	f.register(cmd)

	return cmd
}

func (c *CLI) runSolveLocal(ctx context.Context, ref string, timeLimit time.Duration, closed bool, f remoteFlags) error {
	return c.withStudy(ctx, ref, func(st store.Store, s *studio.Study) error {
		r, err := c.newRemote(st, ref, f)
		if err != nil {
			return err
		}
		defer r.Close()

		prog := newProgress(c.Logger)
		spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Solving %d channels (up to %s each)...", len(s.Channels), timeLimit))
		spinner.Start()
		if err := r.SolveOffline(ctx, s, timeLimit, closed); err != nil {
			spinner.StopWithError("Local solve failed")
			return err
		}
		spinner.Stop()

		printSuccess("Solved %d channels in %s", len(s.Channels), prog.elapsed())
		printNewline()
		printNextStep("Render", "tspstudio render "+ref)
		return nil
	})
}

// solveOnlineCommand creates the "solve online" subcommand.
func (c *CLI) solveOnlineCommand() *cobra.Command {
	var (
		f          remoteFlags
		statusAddr string
	)

	cmd := &cobra.Command{
		Use:   "online [study]",
		Short: "Solve every channel on the NEOS server",
		Long: `Solve every channel on the NEOS server (concorde).

Channels without a job are submitted, then polled until a result arrives,
nothing is running or the requeue interval has elapsed; failed channels are
resubmitted on the next pass. Progress is saved after every sweep, so an
interrupted run resumes where it stopped.

With --status-addr the current progress is served as JSON over HTTP.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSolveOnline(cmd.Context(), args[0], f, statusAddr)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&statusAddr, "status-addr", "", "serve progress on this address (e.g. :8080)")

	return cmd
}

func (c *CLI) runSolveOnline(ctx context.Context, ref string, f remoteFlags, statusAddr string) error {
	return c.withStudy(ctx, ref, func(st store.Store, s *studio.Study) error {
		spinner := newSpinnerWithContext(ctx, "Connecting to NEOS...")
		observers := []func(studio.Snapshot){func(snap studio.Snapshot) {
			spinner.Update(fmt.Sprintf("%s: %d of %d channels resolved", snap.Phase, snap.Resolved(), len(snap.Channels)))
		}}

		if statusAddr != "" {
			srv := statusapi.New(c.Logger)
			srv.Update(s.Snapshot(studio.PhaseIdle))
			observers = append(observers, srv.Update)

			srvCtx, stop := context.WithCancel(ctx)
			defer stop()
			go func() {
				if err := srv.ListenAndServe(srvCtx, statusAddr); err != nil {
					c.Logger.Error("status server", "err", err)
				}
			}()
		}

		observe := studio.WithObserver(func(snap studio.Snapshot) {
			for _, fn := range observers {
				fn(snap)
			}
		})
		r, err := c.newRemote(st, ref, f, observe)
		if err != nil {
			return err
		}
		defer r.Close()

		prog := newProgress(c.Logger)
		spinner.Start()
		err = r.SolveOnline(ctx, s)
		spinner.Stop()
		if err != nil {
			printError("Online solve stopped: %v", err)
			printStatus(s)
			return err
		}
		printSuccess("Resolved %d channels in %s", len(s.Channels), prog.elapsed())
		printNewline()
		printNextStep("Render", "tspstudio render "+ref)
		return nil
	})
}
