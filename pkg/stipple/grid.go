package stipple

import (
	"math"

	"github.com/matzehuels/tspstudio/pkg/geom"
)

// grid buckets points into square cells so nearest-point queries only look
// at a few neighbouring cells.
type grid struct {
	pts        []geom.Point
	cell       float64
	cols, rows int
	buckets    [][]int32
}

// newGrid sizes cells so each holds about one point on average.
func newGrid(pts []geom.Point, width, height int) *grid {
	area := float64(width) * float64(height)
	cell := math.Sqrt(area / float64(max(len(pts), 1)))
	if cell < 1 {
		cell = 1
	}
	g := &grid{
		pts:  pts,
		cell: cell,
		cols: int(math.Ceil(float64(width)/cell)) + 1,
		rows: int(math.Ceil(float64(height)/cell)) + 1,
	}
	g.buckets = make([][]int32, g.cols*g.rows)
	for i, p := range pts {
		cx, cy := g.cellOf(p)
		b := cy*g.cols + cx
		g.buckets[b] = append(g.buckets[b], int32(i))
	}
	return g
}

func (g *grid) cellOf(p geom.Point) (int, int) {
	cx := int(p.X / g.cell)
	cy := int(p.Y / g.cell)
	return clamp(cx, 0, g.cols-1), clamp(cy, 0, g.rows-1)
}

// nearest returns the index of the point closest to (x, y). Ties go to the
// lower index within the cells visited.
func (g *grid) nearest(x, y float64) int {
	cx, cy := g.cellOf(geom.Point{X: x, Y: y})
	best, bestD := -1, math.Inf(1)
	maxR := max(g.cols, g.rows)
	for r := 0; r <= maxR; r++ {
		for gy := cy - r; gy <= cy+r; gy++ {
			if gy < 0 || gy >= g.rows {
				continue
			}
			edgeRow := gy == cy-r || gy == cy+r
			for gx := cx - r; gx <= cx+r; gx++ {
				if gx < 0 || gx >= g.cols {
					continue
				}
				if !edgeRow && gx != cx-r && gx != cx+r {
					continue
				}
				for _, i := range g.buckets[gy*g.cols+gx] {
					p := g.pts[i]
					dx, dy := p.X-x, p.Y-y
					d := dx*dx + dy*dy
					if d < bestD || (d == bestD && int(i) < best) {
						best, bestD = int(i), d
					}
				}
			}
		}
		// Anything in ring r+1 is at least r cells away.
		if best >= 0 {
			reach := float64(r) * g.cell
			if bestD <= reach*reach {
				break
			}
		}
	}
	return best
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
