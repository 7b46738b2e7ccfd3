// Package stipple places points so that their spatial density follows a
// darkness field.
//
// Placement happens in two steps. Points are first drawn by rejection
// sampling against the normalized field, then moved by weighted Lloyd
// relaxation: every cell of the field is assigned to its nearest point and
// each point moves to the density-weighted centroid of its cells.
//
// Centroids are accumulated row by row. Within a row, consecutive cells
// owned by the same point form a run, and the mass and x-moment of a run
// come from two prefix sums of the row (P, the cumulative density, and Q,
// the cumulative P) in constant time.
package stipple

import (
	"context"
	"math/rand"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tspstudio/pkg/density"
	"github.com/matzehuels/tspstudio/pkg/errors"
	"github.com/matzehuels/tspstudio/pkg/geom"
)

// Sample returns exactly n points distributed over f according to its
// density, relaxed for the given number of passes. Points lie within
// [0, Width] × [0, Height].
//
// An all-zero field (including any field that normalizes to zero) is
// treated as uniform.
func Sample(ctx context.Context, f *density.Field, n, iterations int, rng *rand.Rand) ([]geom.Point, error) {
	return sample(ctx, f, n, iterations, rng, nil)
}

func sample(ctx context.Context, f *density.Field, n, iterations int, rng *rand.Rand, logger *log.Logger) ([]geom.Point, error) {
	if n < 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "point count must be positive, got %d", n)
	}
	if iterations < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "iterations must not be negative, got %d", iterations)
	}
	if f == nil || f.Width < 1 || f.Height < 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "density field is empty")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	field := f.Clone()
	field.Normalize()
	if field.IsZero() {
		field = density.Uniform(f.Width, f.Height)
	}

	pts, err := initialize(ctx, field, n, rng)
	if err != nil {
		return nil, err
	}

	r := newRelaxer(field)
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		moved := r.step(pts)
		if logger != nil {
			logger.Debug("relaxation pass", "iteration", i+1, "of", iterations, "displacement", moved)
		}
	}
	return pts, nil
}

// initialize draws candidates uniformly over the field and keeps each one
// with probability equal to the field value at its cell.
func initialize(ctx context.Context, f *density.Field, n int, rng *rand.Rand) ([]geom.Point, error) {
	w, h := float64(f.Width), float64(f.Height)
	pts := make([]geom.Point, 0, n)
	for draws := 0; len(pts) < n; draws++ {
		if draws%(1<<16) == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		x, y, p := rng.Float64()*w, rng.Float64()*h, rng.Float64()
		cx, cy := int(x), int(y)
		if p < f.Data[cy*f.Width+cx] {
			pts = append(pts, geom.Point{X: x, Y: y})
		}
	}
	return pts, nil
}

// Relax runs the given number of relaxation passes over pts in place.
func Relax(ctx context.Context, f *density.Field, pts []geom.Point, iterations int) error {
	if len(pts) == 0 || iterations <= 0 {
		return nil
	}
	r := newRelaxer(f)
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.step(pts)
	}
	return nil
}

// relaxer holds the per-row prefix sums of a field. They are offset by one
// so that index 0 is the empty prefix: p[y][k] is the density of cells
// 0..k-1 and q[y][k] is the sum of p[y][1..k].
type relaxer struct {
	f    *density.Field
	p, q [][]float64
}

func newRelaxer(f *density.Field) *relaxer {
	r := &relaxer{f: f, p: make([][]float64, f.Height), q: make([][]float64, f.Height)}
	for y := 0; y < f.Height; y++ {
		row := f.Row(y)
		p := make([]float64, f.Width+1)
		q := make([]float64, f.Width+1)
		for x, v := range row {
			p[x+1] = p[x] + v
			q[x+1] = q[x] + p[x+1]
		}
		r.p[y], r.q[y] = p, q
	}
	return r
}

// runMass returns the density of cells a..b of row y.
func (r *relaxer) runMass(y, a, b int) float64 {
	return r.p[y][b+1] - r.p[y][a]
}

// runMoment returns Σ i·d[i] over cells a..b of row y.
func (r *relaxer) runMoment(y, a, b int) float64 {
	p, q := r.p[y], r.q[y]
	return float64(b)*p[b+1] - float64(a)*p[a] - (q[b] - q[a])
}

// step moves every point to the weighted centroid of the cells nearest to
// it and returns the largest displacement.
func (r *relaxer) step(pts []geom.Point) float64 {
	n := len(pts)
	mass := make([]float64, n)
	mx := make([]float64, n)
	my := make([]float64, n)

	g := newGrid(pts, r.f.Width, r.f.Height)
	for y := 0; y < r.f.Height; y++ {
		cy := float64(y) + 0.5
		start, owner := 0, g.nearest(0.5, cy)
		for x := 1; x <= r.f.Width; x++ {
			next := -1
			if x < r.f.Width {
				next = g.nearest(float64(x)+0.5, cy)
				if next == owner {
					continue
				}
			}
			m := r.runMass(y, start, x-1)
			if m > 0 {
				mass[owner] += m
				// Cell centres sit half a unit right of their index.
				mx[owner] += r.runMoment(y, start, x-1) + 0.5*m
				my[owner] += cy * m
			}
			start, owner = x, next
		}
	}

	var moved float64
	for i := range pts {
		if mass[i] == 0 {
			continue
		}
		c := geom.Point{X: mx[i] / mass[i], Y: my[i] / mass[i]}
		if d := c.Dist(pts[i]); d > moved {
			moved = d
		}
		pts[i] = c
	}
	return moved
}
