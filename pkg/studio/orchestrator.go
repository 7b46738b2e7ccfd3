package studio

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/tspstudio/pkg/errors"
	"github.com/matzehuels/tspstudio/pkg/geom"
	"github.com/matzehuels/tspstudio/pkg/neos"
	"github.com/matzehuels/tspstudio/pkg/observability"
	"github.com/matzehuels/tspstudio/pkg/store"
	"github.com/matzehuels/tspstudio/pkg/tour"
)

// Orchestration defaults.
const (
	DefaultDelay           = 15 * time.Second
	DefaultRequeueInterval = 10 * time.Minute
)

// Config controls online solving.
type Config struct {
	// Email is sent with every remote job. Required for submissions.
	Email string `validate:"omitempty,email"`
	// Delay is the pause after a submission sweep and between polling
	// sweeps. Zero selects DefaultDelay.
	Delay time.Duration `validate:"gte=0"`
	// RequeueInterval bounds how long polling continues before failed
	// channels are submitted again. Zero selects DefaultRequeueInterval.
	RequeueInterval time.Duration `validate:"gte=0"`
	// MaxAttempts caps remote submissions per channel. Zero is unlimited.
	MaxAttempts int `validate:"gte=0"`
}

var validate = validator.New()

// ValidateAndSetDefaults fills zero durations with defaults and checks
// the remaining fields.
func (c *Config) ValidateAndSetDefaults() error {
	if c.Delay == 0 {
		c.Delay = DefaultDelay
	}
	if c.RequeueInterval == 0 {
		c.RequeueInterval = DefaultRequeueInterval
	}
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "orchestrator config")
	}
	return nil
}

// Connector opens the remote tour service. It is called at most once per
// Orchestrator, by EnsureConnected.
type Connector func(ctx context.Context) (neos.Service, error)

// LocalSolver computes a tour without the remote service.
type LocalSolver func(ctx context.Context, pts []geom.Point, closed bool, timeLimit time.Duration) ([]int, error)

// Orchestrator drives the channels of a study to Resolved. It is used from
// one goroutine; the observer callback is how progress leaves it.
type Orchestrator struct {
	cfg     Config
	connect Connector
	svc     neos.Service

	store    store.Store
	ref      string
	logger   *log.Logger
	now      func() time.Time
	sleep    func(context.Context, time.Duration) error
	observe  func(Snapshot)
	solveLoc LocalSolver
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStore persists the study under ref after every sweep.
func WithStore(st store.Store, ref string) Option {
	return func(o *Orchestrator) { o.store, o.ref = st, ref }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces time.Now and the context-aware sleep.
func WithClock(now func() time.Time, sleep func(context.Context, time.Duration) error) Option {
	return func(o *Orchestrator) { o.now, o.sleep = now, sleep }
}

// WithObserver receives a snapshot whenever channel states change.
func WithObserver(fn func(Snapshot)) Option {
	return func(o *Orchestrator) { o.observe = fn }
}

// WithLocalSolver replaces the built-in local solver.
func WithLocalSolver(fn LocalSolver) Option {
	return func(o *Orchestrator) { o.solveLoc = fn }
}

// NewOrchestrator validates cfg and returns an orchestrator that will
// connect through connect when a remote operation first needs it.
func NewOrchestrator(cfg Config, connect Connector, opts ...Option) (*Orchestrator, error) {
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	o := &Orchestrator{
		cfg:     cfg,
		connect: connect,
		logger:  log.New(io.Discard),
		now:     time.Now,
		sleep:   sleepCtx,
		observe: func(Snapshot) {},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.solveLoc == nil {
		l := o.logger
		o.solveLoc = func(ctx context.Context, pts []geom.Point, closed bool, limit time.Duration) ([]int, error) {
			return tour.ResolveLocal(ctx, pts, closed, limit, tour.WithLogger(l))
		}
	}
	return o, nil
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config { return o.cfg }

// EnsureConnected opens the remote connection if there is none yet.
// The connection is kept for the lifetime of the orchestrator.
func (o *Orchestrator) EnsureConnected(ctx context.Context) (neos.Service, error) {
	if o.svc != nil {
		return o.svc, nil
	}
	if o.connect == nil {
		return nil, errors.New(errors.ErrCodeConnectivity, "no remote service configured")
	}
	svc, err := o.connect(ctx)
	if err != nil {
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeConnectivity, err, "connect")
		}
		return nil, err
	}
	o.svc = svc
	return svc, nil
}

// SolveOnline resolves every channel through the remote service. Each pass
// submits the channels that have no job, then polls until a result arrives,
// nothing is running or the requeue interval has elapsed.
//
// Submission and solve failures are recorded on the channel and retried on
// the next pass. Connectivity failures and cancellation end the run with
// the progress made so far persisted.
func (o *Orchestrator) SolveOnline(ctx context.Context, s *Study) error {
	if !s.Stippled() {
		return errors.New(errors.ErrCodeInvalidState, "every channel needs points before solving")
	}
	if _, err := o.EnsureConnected(ctx); err != nil {
		return err
	}

	for {
		if s.Resolved() {
			o.publish(s, PhaseDone)
			o.logger.Info("all channels resolved", "channels", len(s.Channels))
			return nil
		}
		if err := o.exhausted(s); err != nil {
			o.publish(s, PhaseFailed)
			return err
		}

		started := o.now()
		submitted, err := o.SubmitSweep(ctx, s)
		if err != nil {
			return err
		}
		if submitted > 0 {
			if err := o.wait(ctx, s); err != nil {
				return err
			}
		}

		for {
			newly, err := o.PollSweep(ctx, s)
			if err != nil {
				return err
			}
			requeue, reason := Requeue(o.now().Sub(started), o.cfg.RequeueInterval, s.States(), newly > 0)
			if requeue {
				o.logger.Debug("leaving poll loop", "reason", reason)
				break
			}
			if err := o.wait(ctx, s); err != nil {
				return err
			}
		}
	}
}

// SubmitSweep submits every Unscheduled or Failed channel once, in index
// order, and returns how many submissions were attempted. Channels already
// Submitted or Resolved are left alone.
func (o *Orchestrator) SubmitSweep(ctx context.Context, s *Study) (int, error) {
	if err := errors.ValidateEmail(o.cfg.Email); err != nil {
		return 0, err
	}
	svc, err := o.EnsureConnected(ctx)
	if err != nil {
		return 0, err
	}
	o.publish(s, PhaseSubmitting)

	attempted := 0
	for _, c := range s.Channels {
		if !o.eligible(c) {
			continue
		}
		if len(c.Points) == 0 {
			return attempted, errors.New(errors.ErrCodeInvalidState, "%s has no points", c)
		}
		if err := ctx.Err(); err != nil {
			return attempted, o.abort(ctx, s, err)
		}

		attempted++
		c.Attempts++
		info := observability.SolveInfo{Method: "remote", Channel: c.Index, Points: len(c.Points)}
		observability.Solve().OnSolveStart(ctx, info)

		h, err := svc.Submit(ctx, c.Points, o.cfg.Email)
		if err != nil {
			if fatal(err) {
				c.Attempts--
				observability.Solve().OnSolveComplete(ctx, info, err)
				return attempted, o.abort(ctx, s, err)
			}
			o.logFailure(c, "submit failed", err)
			o.apply(ctx, c, Event{Kind: EventSubmitFailed})
			observability.Solve().OnSolveComplete(ctx, info, err)
			continue
		}
		o.logger.Info("submitted", "channel", c.Index, "job", h.Job, "points", len(c.Points))
		c.LastError = ""
		o.apply(ctx, c, Event{Kind: EventSubmitted, Handle: h})
	}

	if err := o.persist(ctx, s); err != nil {
		return attempted, err
	}
	o.publish(s, PhasePolling)
	return attempted, nil
}

// PollSweep polls every Submitted channel once, in index order, and
// returns how many resolved.
func (o *Orchestrator) PollSweep(ctx context.Context, s *Study) (int, error) {
	svc, err := o.EnsureConnected(ctx)
	if err != nil {
		return 0, err
	}
	o.publish(s, PhasePolling)

	resolved := 0
	for _, c := range s.Channels {
		if c.State.Status != Submitted {
			continue
		}
		if err := ctx.Err(); err != nil {
			return resolved, o.abort(ctx, s, err)
		}

		h := c.State.Handle
		info := observability.SolveInfo{Method: "remote", Channel: c.Index, Points: len(c.Points)}
		order, done, err := svc.Poll(ctx, h)
		switch {
		case err != nil && fatal(err):
			return resolved, o.abort(ctx, s, err)
		case err != nil:
			o.logFailure(c, "solve failed", err)
			o.apply(ctx, c, Event{Kind: EventSolveFailed})
			observability.Solve().OnSolveComplete(ctx, info, err)
		case !done:
			o.logger.Debug("still running", "channel", c.Index, "job", h.Job)
			o.apply(ctx, c, Event{Kind: EventStillRunning})
		default:
			if err := c.resolve(order); err != nil {
				o.logFailure(c, "unusable tour", err)
				o.apply(ctx, c, Event{Kind: EventSolveFailed})
				observability.Solve().OnSolveComplete(ctx, info, err)
				continue
			}
			o.logger.Info("resolved", "channel", c.Index, "job", h.Job)
			c.LastError = ""
			o.apply(ctx, c, Event{Kind: EventSolved})
			observability.Solve().OnSolveComplete(ctx, info, nil)
			resolved++
		}
	}

	if err := o.persist(ctx, s); err != nil {
		return resolved, err
	}
	o.publish(s, PhasePolling)
	return resolved, nil
}

// Cancel kills the remote job of every Submitted channel and returns those
// channels to Unscheduled. Each job is cancelled exactly once. Channels in
// other states are untouched.
func (o *Orchestrator) Cancel(ctx context.Context, s *Study) error {
	return o.CancelChannels(ctx, s, nil)
}

// CancelChannels is Cancel restricted to the given channel indices; nil
// selects every channel. Every pending job is tried: a channel whose cancel
// fails stays Submitted and the failures are joined into the returned
// error. A connectivity failure or context cancellation stops at once.
func (o *Orchestrator) CancelChannels(ctx context.Context, s *Study, indices []int) error {
	var pending []*Channel
	for _, c := range s.Channels {
		if c.State.Status == Submitted && (indices == nil || slices.Contains(indices, c.Index)) {
			pending = append(pending, c)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	svc, err := o.EnsureConnected(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, c := range pending {
		h := c.State.Handle
		if err := svc.Cancel(ctx, h); err != nil {
			if fatal(err) {
				return o.abort(ctx, s, err)
			}
			o.logger.Warn("cancel failed", "channel", c.Index, "job", h.Job, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", c, err))
			continue
		}
		o.logger.Info("cancelled", "channel", c.Index, "job", h.Job)
		o.apply(ctx, c, Event{Kind: EventCancelled})
	}
	if err := o.persist(ctx, s); err != nil {
		errs = append(errs, err)
	}
	return stderrors.Join(errs...)
}

// SolveOffline cancels remote jobs and solves every channel locally. Tours
// are installed only if all channels succeed; on any failure the study's
// points and tours are unchanged.
func (o *Orchestrator) SolveOffline(ctx context.Context, s *Study, timeLimit time.Duration, closed bool) error {
	if !s.Stippled() {
		return errors.New(errors.ErrCodeInvalidState, "every channel needs points before solving")
	}
	if err := o.Cancel(ctx, s); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		o.logger.Warn("could not cancel remote jobs", "err", err)
	}
	o.publish(s, PhaseLocal)

	tours := make([][]int, len(s.Channels))
	for i, c := range s.Channels {
		o.logger.Info("solving locally", "channel", c.Index, "points", len(c.Points), "limit", timeLimit)
		order, err := o.solveLoc(ctx, c.Points, closed, timeLimit)
		if err != nil {
			o.publish(s, PhaseFailed)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(errors.ErrCodeLocalSolveFailed, err, "%s", c)
		}
		if !geom.IsPermutation(order, len(c.Points)) {
			o.publish(s, PhaseFailed)
			return errors.New(errors.ErrCodeLocalSolveFailed, "%s: solver returned a partial tour", c)
		}
		tours[i] = order
	}

	for i, c := range s.Channels {
		if err := c.ApplyTour(tours[i]); err != nil {
			return err
		}
		c.LastError = ""
		observability.Solve().OnTransition(ctx, c.Index, "", Resolved.String())
	}
	s.Touch()
	if err := o.persist(ctx, s); err != nil {
		return err
	}
	o.publish(s, PhaseDone)
	return nil
}

func (o *Orchestrator) eligible(c *Channel) bool {
	switch c.State.Status {
	case Unscheduled:
		return true
	case Failed:
		return o.cfg.MaxAttempts == 0 || c.Attempts < o.cfg.MaxAttempts
	default:
		return false
	}
}

// exhausted returns RETRIES_EXHAUSTED when nothing can make progress.
func (o *Orchestrator) exhausted(s *Study) error {
	var names []string
	for _, c := range s.Channels {
		switch {
		case c.State.Status == Submitted, o.eligible(c):
			return nil
		case c.State.Status == Failed:
			names = append(names, fmt.Sprintf("%d (%s)", c.Index, c.Name))
		}
	}
	if len(names) == 0 {
		return nil
	}
	return errors.New(errors.ErrCodeRetriesExhausted,
		"channels %s failed %d times", strings.Join(names, ", "), o.cfg.MaxAttempts)
}

func (o *Orchestrator) apply(ctx context.Context, c *Channel, ev Event) {
	from := c.State
	next, err := Transition(from, ev)
	if err != nil {
		o.logger.Error("transition", "channel", c.Index, "err", err)
		return
	}
	c.State = next
	if from.Status != next.Status {
		observability.Solve().OnTransition(ctx, c.Index, from.Status.String(), next.Status.String())
	}
}

func (o *Orchestrator) logFailure(c *Channel, msg string, err error) {
	c.LastError = errors.UserMessage(err)
	kv := []any{"channel", c.Index, "attempt", c.Attempts, "err", err}
	if diag := strings.TrimSpace(errors.Diagnostic(err)); diag != "" {
		kv = append(kv, "diagnostic", diag)
	}
	o.logger.Warn(msg, kv...)
}

// abort persists what has been done and returns err.
func (o *Orchestrator) abort(ctx context.Context, s *Study, err error) error {
	o.publish(s, PhaseFailed)
	if perr := o.persist(context.WithoutCancel(ctx), s); perr != nil {
		o.logger.Error("persist study", "err", perr)
	}
	return err
}

func (o *Orchestrator) persist(ctx context.Context, s *Study) error {
	s.Touch()
	if o.store == nil {
		return nil
	}
	if err := Save(ctx, o.store, o.ref, s); err != nil {
		return fmt.Errorf("persist study: %w", err)
	}
	return nil
}

func (o *Orchestrator) publish(s *Study, phase Phase) {
	o.observe(s.Snapshot(phase))
}

func (o *Orchestrator) wait(ctx context.Context, s *Study) error {
	o.publish(s, PhaseWaiting)
	if err := o.sleep(ctx, o.cfg.Delay); err != nil {
		return o.abort(ctx, s, err)
	}
	return nil
}

// fatal reports errors that end an online run instead of failing a channel.
func fatal(err error) bool {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return errors.Is(err, errors.ErrCodeConnectivity)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
