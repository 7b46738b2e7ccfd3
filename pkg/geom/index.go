package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// Index answers nearest-point queries over a fixed point set. Results are
// indices into the slice the Index was built from.
type Index struct {
	tree *kdtree.Tree
}

// NewIndex builds a k-d tree over pts. The slice is not modified.
func NewIndex(pts []Point) *Index {
	if len(pts) == 0 {
		return &Index{}
	}
	nodes := make(indexedPoints, len(pts))
	for i, p := range pts {
		nodes[i] = indexedPoint{Point: p, idx: i}
	}
	return &Index{tree: kdtree.New(nodes, false)}
}

// Nearest returns the index of the point closest to q, or -1 if the index
// is empty. Ties are broken by the lower index.
func (ix *Index) Nearest(q Point) int {
	idx, _ := ix.nearestExcept(q, -1)
	return idx
}

// NearestExcept returns the index of the point closest to q, ignoring skip.
func (ix *Index) NearestExcept(q Point, skip int) int {
	idx, _ := ix.nearestExcept(q, skip)
	return idx
}

// NearestDist returns the distance from q to its closest neighbour other
// than skip.
func (ix *Index) NearestDist(q Point, skip int) float64 {
	_, d := ix.nearestExcept(q, skip)
	return d
}

func (ix *Index) nearestExcept(q Point, skip int) (int, float64) {
	if ix.tree == nil || ix.tree.Root == nil {
		return -1, math.Inf(1)
	}
	// Collect a few candidates so equidistant points resolve to the lowest
	// index independent of tree layout.
	keep := kdtree.NewNKeeper(4)
	ix.tree.NearestSet(keep, indexedPoint{Point: q, idx: -1})

	best, bestDist, worst, full := -1, math.Inf(1), 0.0, true
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			full = false
			continue
		}
		worst = math.Max(worst, c.Dist)
		p := c.Comparable.(indexedPoint)
		if p.idx == skip {
			continue
		}
		if c.Dist < bestDist || (c.Dist == bestDist && p.idx < best) {
			best, bestDist = p.idx, c.Dist
		}
	}
	if best < 0 || (full && len(keep.Heap) == 4 && worst == bestDist) {
		// Too many equidistant candidates to trust the keeper.
		return ix.scanExcept(q, skip)
	}
	return best, math.Sqrt(bestDist)
}

func (ix *Index) scanExcept(q Point, skip int) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	ix.tree.Do(func(c kdtree.Comparable, _ *kdtree.Bounding, _ int) bool {
		p := c.(indexedPoint)
		if p.idx == skip {
			return false
		}
		d := p.Distance(indexedPoint{Point: q})
		if d < bestDist || (d == bestDist && p.idx < best) {
			best, bestDist = p.idx, d
		}
		return false
	})
	return best, math.Sqrt(bestDist)
}

// indexedPoint is a kdtree.Comparable that remembers its position in the
// caller's slice.
type indexedPoint struct {
	Point
	idx int
}

func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	if d == 0 {
		return p.X - q.X
	}
	return p.Y - q.Y
}

func (p indexedPoint) Dims() int { return 2 }

// Distance returns the squared Euclidean distance, as kdtree expects.
func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint)
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

type indexedPoints []indexedPoint

func (p indexedPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p indexedPoints) Len() int                              { return len(p) }
func (p indexedPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }
func (p indexedPoints) Pivot(d kdtree.Dim) int {
	return plane{dim: d, points: p}.pivot()
}

// plane sorts indexedPoints along one dimension for median partitioning.
type plane struct {
	dim    kdtree.Dim
	points indexedPoints
}

func (p plane) Len() int { return len(p.points) }
func (p plane) Less(i, j int) bool {
	if p.dim == 0 {
		return p.points[i].X < p.points[j].X
	}
	return p.points[i].Y < p.points[j].Y
}
func (p plane) Swap(i, j int) { p.points[i], p.points[j] = p.points[j], p.points[i] }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{dim: p.dim, points: p.points[start:end]}
}
func (p plane) pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
