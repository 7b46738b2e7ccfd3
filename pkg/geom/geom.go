// Package geom provides the planar point type shared by every stage of the
// pipeline, plus bounding boxes and tour length helpers.
package geom

import "math"

// Point is a location in image space. X grows to the right, Y grows down.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Scale returns p multiplied by s.
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned bounding box. Min is the top-left corner.
type Rect struct {
	Min, Max Point
}

// Dx returns the width of r.
func (r Rect) Dx() float64 { return r.Max.X - r.Min.X }

// Dy returns the height of r.
func (r Rect) Dy() float64 { return r.Max.Y - r.Min.Y }

// Contains reports whether p lies inside r, borders included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Bounds returns the smallest Rect holding every point. The zero Rect is
// returned for an empty slice.
func Bounds(pts []Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	r := Rect{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		r.Min.X = math.Min(r.Min.X, p.X)
		r.Min.Y = math.Min(r.Min.Y, p.Y)
		r.Max.X = math.Max(r.Max.X, p.X)
		r.Max.Y = math.Max(r.Max.Y, p.Y)
	}
	return r
}

// Reorder returns pts arranged in tour order.
func Reorder(pts []Point, tour []int) []Point {
	out := make([]Point, len(tour))
	for i, idx := range tour {
		out[i] = pts[idx]
	}
	return out
}

// Length returns the Euclidean length of the path visiting pts in tour
// order. When closed is set the edge back to the first point is included.
func Length(pts []Point, tour []int, closed bool) float64 {
	if len(tour) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(tour); i++ {
		total += pts[tour[i-1]].Dist(pts[tour[i]])
	}
	if closed {
		total += pts[tour[len(tour)-1]].Dist(pts[tour[0]])
	}
	return total
}

// IsPermutation reports whether tour visits each index in [0, n) once.
func IsPermutation(tour []int, n int) bool {
	if len(tour) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range tour {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
