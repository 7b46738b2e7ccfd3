package tour

import (
	"context"
	"time"
)

// NoEndpoint marks an Optimize call without fixed ends, i.e. a closed tour.
const NoEndpoint = -1

// Optimizer finds a low-cost visiting order over the nodes of a matrix.
//
// With start and end both NoEndpoint the result is a closed tour that
// begins at node 0. Otherwise the result is an open path whose first node
// is start and last node is end. Implementations return their best order
// once budget has elapsed, and an error only when no order at all could be
// produced.
type Optimizer interface {
	Optimize(ctx context.Context, m *Matrix, start, end int, budget time.Duration) ([]int, error)
}

// OptimizerFunc adapts a function to the Optimizer interface.
type OptimizerFunc func(ctx context.Context, m *Matrix, start, end int, budget time.Duration) ([]int, error)

// Optimize calls f.
func (f OptimizerFunc) Optimize(ctx context.Context, m *Matrix, start, end int, budget time.Duration) ([]int, error) {
	return f(ctx, m, start, end, budget)
}
