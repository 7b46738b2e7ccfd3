package tour

import "github.com/matzehuels/tspstudio/pkg/geom"

// Endpoints picks the fixed ends of an open path: start is the point
// nearest the middle of the bounding box's top edge and end the point
// nearest the middle of its bottom edge. When both are the same point, end
// becomes that point's nearest neighbour.
//
// For a single point both ends are 0. Endpoints panics on an empty slice.
func Endpoints(pts []geom.Point) (start, end int) {
	box := geom.Bounds(pts)
	midX := (box.Min.X + box.Max.X) / 2

	ix := geom.NewIndex(pts)
	start = ix.Nearest(geom.Point{X: midX, Y: box.Min.Y})
	end = ix.Nearest(geom.Point{X: midX, Y: box.Max.Y})
	if start == end && len(pts) > 1 {
		end = ix.NearestExcept(pts[start], start)
	}
	return start, end
}
