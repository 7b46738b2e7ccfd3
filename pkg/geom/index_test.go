package geom

import (
	"math"
	"math/rand"
	"testing"
)

func TestIndexNearest(t *testing.T) {
	pts := []Point{{0, 0}, {10, 0}, {0, 10}, {10, 10}, {5, 5}}
	ix := NewIndex(pts)

	tests := []struct {
		q    Point
		want int
	}{
		{Point{1, 1}, 0},
		{Point{9, 1}, 1},
		{Point{5, 4}, 4},
		{Point{11, 11}, 3},
	}
	for _, tt := range tests {
		if got := ix.Nearest(tt.q); got != tt.want {
			t.Errorf("Nearest(%v) = %d, want %d", tt.q, got, tt.want)
		}
	}

	// The input slice is left untouched.
	if pts[0] != (Point{0, 0}) || pts[4] != (Point{5, 5}) {
		t.Errorf("NewIndex reordered its input: %v", pts)
	}
}

func TestIndexNearestExcept(t *testing.T) {
	pts := []Point{{0, 0}, {1, 0}, {5, 0}}
	ix := NewIndex(pts)
	if got := ix.NearestExcept(Point{0, 0}, 0); got != 1 {
		t.Errorf("NearestExcept = %d, want 1", got)
	}
	if got := ix.NearestDist(Point{5, 0}, 2); math.Abs(got-4) > 1e-12 {
		t.Errorf("NearestDist = %v, want 4", got)
	}
}

func TestIndexDuplicates(t *testing.T) {
	pts := []Point{{3, 3}, {3, 3}, {3, 3}, {3, 3}, {3, 3}, {9, 9}}
	ix := NewIndex(pts)
	if got := ix.Nearest(Point{3, 3}); got != 0 {
		t.Errorf("Nearest = %d, want lowest index 0", got)
	}
	if got := ix.NearestExcept(Point{3, 3}, 0); got == 0 || got == 5 {
		t.Errorf("NearestExcept = %d, want a duplicate of 0", got)
	}
}

func TestIndexMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pts := make([]Point, 300)
	for i := range pts {
		pts[i] = Point{rng.Float64() * 100, rng.Float64() * 100}
	}
	ix := NewIndex(pts)
	for k := 0; k < 100; k++ {
		q := Point{rng.Float64() * 100, rng.Float64() * 100}
		want, wantD := -1, math.Inf(1)
		for i, p := range pts {
			if d := p.Dist(q); d < wantD {
				want, wantD = i, d
			}
		}
		if got := ix.Nearest(q); got != want {
			t.Fatalf("Nearest(%v) = %d, want %d", q, got, want)
		}
	}
}

func TestIndexEmpty(t *testing.T) {
	if got := NewIndex(nil).Nearest(Point{}); got != -1 {
		t.Errorf("Nearest on empty index = %d, want -1", got)
	}
}
