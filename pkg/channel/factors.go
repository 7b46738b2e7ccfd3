package channel

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/tspstudio/pkg/geom"
)

// BlurSigma is the Gaussian radius applied before sampling channel values
// at point locations.
const BlurSigma = 1.0

// DefaultWhiteThreshold drops only points on (nearly) pure white.
const DefaultWhiteThreshold = 254

// Blur returns a blurred copy of g.
func Blur(g *image.Gray, sigma float64) *image.Gray {
	if sigma <= 0 {
		c := image.NewGray(g.Bounds())
		copy(c.Pix, g.Pix)
		return c
	}
	blurred := imaging.Blur(g, sigma)
	b := blurred.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			// imaging keeps gray input gray, so R carries the value.
			out.Pix[y*out.Stride+x] = blurred.Pix[y*blurred.Stride+x*4]
		}
	}
	return out
}

// ValueAt returns the channel value at the cell containing p.
func ValueAt(g *image.Gray, p geom.Point) uint8 {
	b := g.Bounds()
	x := clampInt(int(math.Floor(p.X)), 0, b.Dx()-1)
	y := clampInt(int(math.Floor(p.Y)), 0, b.Dy()-1)
	return g.Pix[y*g.Stride+x]
}

// Factors returns one ink factor in [0, 1] per point: 1 on black, 0 on white.
// blurred should come from Blur.
func Factors(blurred *image.Gray, pts []geom.Point) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = 1 - float64(ValueAt(blurred, p))/255
	}
	return out
}

// FilterWhite keeps the points whose blurred channel value is at most
// threshold. A threshold of 255 keeps everything.
func FilterWhite(blurred *image.Gray, pts []geom.Point, threshold int) []geom.Point {
	if threshold >= 255 {
		return pts
	}
	out := pts[:0:0]
	for _, p := range pts {
		if int(ValueAt(blurred, p)) <= threshold {
			out = append(out, p)
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
