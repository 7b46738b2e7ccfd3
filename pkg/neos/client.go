// Package neos is a client for the NEOS optimization server's XML-RPC
// interface, restricted to submitting Concorde TSP jobs and collecting
// their tours.
//
// A [Client] is created with [Dial], which verifies the server is alive.
// The connection is owned by the caller and reused for every job; nothing
// in this package closes it implicitly.
//
// Failures are classified with [errors.Code] values from pkg/errors:
//
//   - CONNECTIVITY: the server could not be reached or did not answer a ping
//   - SUBMIT_REJECTED: the server refused a job
//   - SOLVE_FAILED: a job finished with a completion code other than Normal
//   - NO_DATA: a job finished normally but its report held no tour
//
// The raw server text for the last three is available through
// [errors.Diagnostic].
package neos

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/rpc"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/kolo/xmlrpc"

	"github.com/matzehuels/tspstudio/pkg/buildinfo"
	"github.com/matzehuels/tspstudio/pkg/errors"
	"github.com/matzehuels/tspstudio/pkg/geom"
	"github.com/matzehuels/tspstudio/pkg/httputil"
	"github.com/matzehuels/tspstudio/pkg/observability"
)

// DefaultURL is the public NEOS XML-RPC endpoint.
const DefaultURL = "https://neos-server.org:3333"

const aliveReply = "NeosServer is alive\n"

// Handle identifies a submitted job.
type Handle struct {
	Job      int    `json:"job"`
	Password string `json:"password"`
}

// IsZero reports whether h refers to no job.
func (h Handle) IsZero() bool { return h.Job == 0 }

func (h Handle) String() string { return fmt.Sprintf("job %d", h.Job) }

// Service is the remote tour solver as seen by the orchestrator.
type Service interface {
	// Submit sends pts for solving and returns the job handle.
	Submit(ctx context.Context, pts []geom.Point, email string) (Handle, error)
	// Poll reports done=false while the job is running. Once done it returns
	// the tour or the reason there is none.
	Poll(ctx context.Context, h Handle) (tour []int, done bool, err error)
	// Cancel asks the server to stop the job. Zero handles are ignored.
	Cancel(ctx context.Context, h Handle) error
}

// caller is the subset of *xmlrpc.Client the client needs.
type caller interface {
	Call(serviceMethod string, args any, reply any) error
}

// Client talks to one NEOS server.
type Client struct {
	url    string
	rpc    caller
	close  func() error
	logger *log.Logger
}

var _ Service = (*Client)(nil)

// Option configures Dial.
type Option func(*dialConfig)

type dialConfig struct {
	transport    http.RoundTripper
	logger       *log.Logger
	pingAttempts int
	pingDelay    time.Duration
}

// WithLogger sets the logger for call tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *dialConfig) { c.logger = l }
}

// WithTransport replaces the HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *dialConfig) { c.transport = rt }
}

// WithPingRetry sets how often the initial ping is attempted and the delay
// before the first retry.
func WithPingRetry(attempts int, delay time.Duration) Option {
	return func(c *dialConfig) {
		c.pingAttempts = attempts
		c.pingDelay = delay
	}
}

// Dial connects to the server at url and pings it.
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	cfg := dialConfig{
		logger:       log.Default(),
		pingAttempts: 3,
		pingDelay:    2 * time.Second,
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.transport == nil {
		cfg.transport = httputil.NewTransport(0)
	}
	if err := errors.ValidateURL(url); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConnectivity, err, "bad server URL")
	}

	rpc, err := xmlrpc.NewClient(url, httputil.WithUserAgent(cfg.transport, buildinfo.UserAgent()))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConnectivity, err, "connect %s", url)
	}
	c := &Client{url: url, rpc: rpc, close: rpc.Close, logger: cfg.logger}

	err = httputil.RetryNotify(ctx, cfg.pingAttempts, cfg.pingDelay, func() error {
		return httputil.Retryable(c.Ping(ctx))
	}, func(attempt int, err error, wait time.Duration) {
		c.logger.Warn("ping failed, retrying", "url", url, "attempt", attempt, "wait", wait, "err", err)
	})
	if err != nil {
		_ = rpc.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return c, nil
}

// URL returns the server endpoint.
func (c *Client) URL() string { return c.url }

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// Ping checks that the server answers.
func (c *Client) Ping(ctx context.Context) error {
	var reply string
	if err := c.call(ctx, "ping", &reply); err != nil {
		return errors.Wrap(errors.ErrCodeConnectivity, err, "ping %s", c.url)
	}
	if reply != aliveReply {
		return errors.New(errors.ErrCodeConnectivity, "unexpected ping reply %q", reply)
	}
	return nil
}

// Submit implements Service.
func (c *Client) Submit(ctx context.Context, pts []geom.Point, email string) (Handle, error) {
	if len(pts) == 0 {
		return Handle{}, errors.New(errors.ErrCodeInvalidInput, "no points to submit")
	}

	var reply []any
	if err := c.call(ctx, "submitJob", &reply, JobXML(email, pts)); err != nil {
		if isFault(err) {
			return Handle{}, rejected(0, err.Error())
		}
		return Handle{}, err
	}
	if len(reply) != 2 {
		return Handle{}, rejected(0, fmt.Sprintf("malformed reply %v", reply))
	}
	job, ok := asInt(reply[0])
	password, _ := reply[1].(string)
	if !ok {
		return Handle{}, rejected(0, fmt.Sprintf("malformed job number %v", reply[0]))
	}
	if job == 0 {
		return Handle{}, rejected(0, password)
	}

	h := Handle{Job: job, Password: password}
	c.logger.Debug("job submitted", "job", h.Job, "points", len(pts))
	return h, nil
}

// Poll implements Service.
func (c *Client) Poll(ctx context.Context, h Handle) ([]int, bool, error) {
	if h.IsZero() {
		return nil, false, errors.New(errors.ErrCodeInvalidState, "poll without a job")
	}

	var status string
	if err := c.call(ctx, "getJobStatus", &status, h.Job, h.Password); err != nil {
		return nil, false, c.pollErr(h, err)
	}
	if status != "Done" {
		return nil, false, nil
	}

	var code string
	if err := c.call(ctx, "getCompletionCode", &code, h.Job, h.Password); err != nil {
		return nil, false, c.pollErr(h, err)
	}
	var results []byte
	if err := c.call(ctx, "getFinalResults", &results, h.Job, h.Password); err != nil {
		return nil, false, c.pollErr(h, err)
	}
	report := string(results)

	if code != "Normal" {
		return nil, true, errors.Wrap(errors.ErrCodeSolveFailed,
			&errors.ServiceError{Code: errors.ErrCodeSolveFailed, JobID: h.Job, Response: report},
			"job %d completed with code %q", h.Job, code)
	}
	tour, err := DecodeTour(report)
	if err != nil {
		return nil, true, err
	}
	return tour, true, nil
}

// Cancel implements Service.
func (c *Client) Cancel(ctx context.Context, h Handle) error {
	if h.IsZero() {
		return nil
	}
	var reply string
	if err := c.call(ctx, "killJob", &reply, h.Job, h.Password); err != nil {
		if isFault(err) {
			c.logger.Debug("kill rejected", "job", h.Job, "err", err)
			return nil
		}
		return err
	}
	c.logger.Debug("job cancelled", "job", h.Job, "reply", reply)
	return nil
}

// call performs one XML-RPC call. Transport failures become CONNECTIVITY
// errors; server faults are returned as the codec reports them.
func (c *Client) call(ctx context.Context, method string, reply any, args ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	hooks := observability.RPC()
	hooks.OnCall(ctx, method)
	start := time.Now()

	params := args
	if params == nil {
		params = []any{}
	}
	if err := c.rpc.Call(method, params, reply); err != nil {
		hooks.OnError(ctx, method, err)
		if isFault(err) {
			return err
		}
		return errors.Wrap(errors.ErrCodeConnectivity, err, "%s", method)
	}
	hooks.OnResult(ctx, method, time.Since(start))
	return nil
}

func (c *Client) pollErr(h Handle, err error) error {
	if isFault(err) {
		return errors.Wrap(errors.ErrCodeSolveFailed,
			&errors.ServiceError{Code: errors.ErrCodeSolveFailed, JobID: h.Job, Response: err.Error()},
			"job %d", h.Job)
	}
	return err
}

func rejected(job int, reason string) error {
	return errors.Wrap(errors.ErrCodeSubmitRejected,
		&errors.ServiceError{Code: errors.ErrCodeSubmitRejected, JobID: job, Response: reason},
		"job rejected: %s", reason)
}

// isFault reports whether the server answered with an XML-RPC fault. The
// xmlrpc codec surfaces faults as rpc.ServerError; HTTP status failures use
// the same type but count as transport problems.
func isFault(err error) bool {
	var se rpc.ServerError
	if stderrors.As(err, &se) {
		return !strings.HasPrefix(string(se), "request error:")
	}
	return false
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case int:
		return n, true
	case int32:
		return int(n), true
	default:
		return 0, false
	}
}
