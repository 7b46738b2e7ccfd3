// Package tour orders a point set into a short path.
//
// [ResolveLocal] is the local resolution policy: it fixes the endpoints of
// open paths from the geometry, builds the integer cost matrix and hands it
// to an [Optimizer]. The default optimizer is [GuidedLocalSearch].
package tour

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tspstudio/pkg/errors"
	"github.com/matzehuels/tspstudio/pkg/geom"
	"github.com/matzehuels/tspstudio/pkg/observability"
)

// Option configures ResolveLocal.
type Option func(*config)

type config struct {
	optimizer Optimizer
	logger    *log.Logger
}

// WithOptimizer replaces the default optimizer.
func WithOptimizer(o Optimizer) Option {
	return func(c *config) { c.optimizer = o }
}

// WithLogger sets the logger for progress output.
func WithLogger(l *log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// ResolveLocal orders pts within timeLimit. A closed tour starts at point 0
// and implicitly returns to it. An open path runs from the point nearest the
// top middle of the bounding box to the point nearest the bottom middle.
//
// Any failure to produce a complete permutation is reported as
// LOCAL_SOLVE_FAILED; a partial order is never returned.
func ResolveLocal(ctx context.Context, pts []geom.Point, closed bool, timeLimit time.Duration, opts ...Option) ([]int, error) {
	cfg := config{logger: log.Default()}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.optimizer == nil {
		cfg.optimizer = GuidedLocalSearch{Logger: cfg.logger}
	}
	if len(pts) == 0 {
		return nil, errors.New(errors.ErrCodeLocalSolveFailed, "no points to order")
	}

	start, end := NoEndpoint, NoEndpoint
	if !closed {
		start, end = Endpoints(pts)
	}

	began := time.Now()
	info := observability.SolveInfo{Method: "local", Channel: -1, Points: len(pts)}
	observability.Solve().OnSolveStart(ctx, info)
	m := NewMatrix(pts)
	order, err := cfg.optimizer.Optimize(ctx, m, start, end, timeLimit)
	if err == nil {
		err = check(order, len(pts), start, end)
	}
	observability.Solve().OnSolveComplete(ctx, info, err)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeLocalSolveFailed, err, "local solve of %d points", len(pts))
	}

	cfg.logger.Debug("local solve finished", "points", len(pts), "closed", closed,
		"cost", m.Cost(order, closed), "elapsed", time.Since(began).Round(time.Millisecond))
	return order, nil
}

func check(order []int, n, start, end int) error {
	if !geom.IsPermutation(order, n) {
		return errors.New(errors.ErrCodeLocalSolveFailed, "optimizer returned an incomplete order")
	}
	if start != NoEndpoint && (order[0] != start || order[n-1] != end) {
		return errors.New(errors.ErrCodeLocalSolveFailed, "optimizer moved the fixed endpoints")
	}
	return nil
}
