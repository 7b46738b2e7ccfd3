package tour

import (
	"math"

	"github.com/matzehuels/tspstudio/pkg/geom"
)

// Matrix is a dense symmetric cost matrix with integer edge weights.
type Matrix struct {
	N    int
	cost []int32
}

// NewMatrix returns the pairwise Euclidean distances of pts rounded to the
// nearest integer.
func NewMatrix(pts []geom.Point) *Matrix {
	n := len(pts)
	m := &Matrix{N: n, cost: make([]int32, n*n)}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := int32(math.Round(pts[i].Dist(pts[j])))
			m.cost[i*n+j] = d
			m.cost[j*n+i] = d
		}
	}
	return m
}

// MatrixFrom builds a Matrix from explicit rows. Rows must be square.
func MatrixFrom(rows [][]int) *Matrix {
	n := len(rows)
	m := &Matrix{N: n, cost: make([]int32, n*n)}
	for i, row := range rows {
		for j, v := range row {
			m.cost[i*n+j] = int32(v)
		}
	}
	return m
}

// At returns the cost of the edge i→j.
func (m *Matrix) At(i, j int) int {
	return int(m.cost[i*m.N+j])
}

// Cost returns the total cost of visiting nodes in order. When closed is set
// the edge back to the first node is included.
func (m *Matrix) Cost(order []int, closed bool) int {
	if len(order) < 2 {
		return 0
	}
	total := 0
	for i := 1; i < len(order); i++ {
		total += m.At(order[i-1], order[i])
	}
	if closed {
		total += m.At(order[len(order)-1], order[0])
	}
	return total
}
