package geom

import (
	"math"
	"testing"
)

func TestBounds(t *testing.T) {
	pts := []Point{{3, 4}, {-1, 10}, {5, 0}}
	got := Bounds(pts)
	want := Rect{Min: Point{-1, 0}, Max: Point{5, 10}}
	if got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
	if got.Dx() != 6 || got.Dy() != 10 {
		t.Errorf("Dx, Dy = %v, %v, want 6, 10", got.Dx(), got.Dy())
	}
	if (Bounds(nil) != Rect{}) {
		t.Errorf("Bounds(nil) = %v, want zero", Bounds(nil))
	}
}

func TestLength(t *testing.T) {
	square := []Point{{0, 0}, {0, 10}, {10, 10}, {10, 0}}
	tests := []struct {
		name   string
		tour   []int
		closed bool
		want   float64
	}{
		{"perimeter", []int{0, 1, 2, 3}, true, 40},
		{"open", []int{0, 1, 2, 3}, false, 30},
		{"crossing", []int{0, 2, 1, 3}, true, 20 + 20*math.Sqrt2},
		{"single", []int{2}, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Length(square, tt.tour, tt.closed); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Length() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsPermutation(t *testing.T) {
	tests := []struct {
		tour []int
		n    int
		want bool
	}{
		{[]int{2, 0, 1}, 3, true},
		{[]int{0, 0, 1}, 3, false},
		{[]int{0, 1}, 3, false},
		{[]int{0, 1, 3}, 3, false},
		{nil, 0, true},
	}
	for _, tt := range tests {
		if got := IsPermutation(tt.tour, tt.n); got != tt.want {
			t.Errorf("IsPermutation(%v, %d) = %v, want %v", tt.tour, tt.n, got, tt.want)
		}
	}
}

func TestReorder(t *testing.T) {
	pts := []Point{{0, 0}, {1, 1}, {2, 2}}
	got := Reorder(pts, []int{2, 0, 1})
	want := []Point{{2, 2}, {0, 0}, {1, 1}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Reorder()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
