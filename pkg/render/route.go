package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/vector"

	"github.com/matzehuels/tspstudio/pkg/geom"
)

// Defaults for Options.
const (
	DefaultLineWidth = 2.0
	DefaultMinWidth  = 1.0 / 255
)

// Options controls stroke geometry and output size.
type Options struct {
	Width, Height int     // source image size
	Scale         float64 // output pixels per source pixel
	LineWidth     float64 // full stroke width in source pixels
	MinWidth      float64 // thinnest stroke as a fraction of LineWidth
	Closed        bool    // join the last point back to the first

	Foreground color.Color // grayscale only
	Background color.Color // grayscale only
}

// ValidateAndSetDefaults applies defaults and checks ranges.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Scale == 0 {
		o.Scale = 1
	}
	if o.LineWidth == 0 {
		o.LineWidth = DefaultLineWidth
	}
	if o.MinWidth == 0 {
		o.MinWidth = DefaultMinWidth
	}
	if o.Foreground == nil {
		o.Foreground = color.Black
	}
	if o.Background == nil {
		o.Background = color.White
	}
	switch {
	case o.Width <= 0 || o.Height <= 0:
		return fmt.Errorf("invalid size %dx%d", o.Width, o.Height)
	case o.Scale < 0:
		return fmt.Errorf("invalid scale %v", o.Scale)
	case o.LineWidth < 0:
		return fmt.Errorf("invalid line width %v", o.LineWidth)
	case o.MinWidth < 0 || o.MinWidth > 1:
		return fmt.Errorf("minimum width fraction %v outside [0,1]", o.MinWidth)
	}
	return nil
}

// OutputSize returns the mask dimensions.
func (o *Options) OutputSize() (int, int) {
	return int(math.Round(float64(o.Width) * o.Scale)), int(math.Round(float64(o.Height) * o.Scale))
}

// StrokeWidth returns the width drawn for a point with the given factor,
// in source pixels.
func (o *Options) StrokeWidth(factor float64) float64 {
	f := math.Max(0, math.Min(1, factor))
	return o.LineWidth * (o.MinWidth + (1-o.MinWidth)*f)
}

// Route rasterizes pts, in order, as one stroke. factors must be parallel
// to pts; a nil factors slice draws every point at full width.
func Route(pts []geom.Point, factors []float64, opts Options) (*image.Alpha, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if factors != nil && len(factors) != len(pts) {
		return nil, fmt.Errorf("factors: have %d, want %d", len(factors), len(pts))
	}
	w, h := opts.OutputSize()
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	if len(pts) == 0 || w == 0 || h == 0 {
		return mask, nil
	}

	r := vector.NewRasterizer(w, h)
	for _, s := range strokes(pts, factors, &opts) {
		if s.segment {
			addQuad(r, s.quad)
		} else {
			addCircle(r, s.center, s.radius)
		}
	}
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask, nil
}

// stroke is either a round cap or a segment trapezoid, in output pixels.
type stroke struct {
	segment bool
	center  geom.Point
	radius  float64
	quad    [4]geom.Point
}

func strokes(pts []geom.Point, factors []float64, opts *Options) []stroke {
	n := len(pts)
	half := make([]float64, n)
	at := make([]geom.Point, n)
	for i, p := range pts {
		f := 1.0
		if factors != nil {
			f = factors[i]
		}
		half[i] = opts.StrokeWidth(f) * opts.Scale / 2
		at[i] = p.Scale(opts.Scale)
	}

	out := make([]stroke, 0, 2*n)
	for i := 0; i < n; i++ {
		if half[i] > 0 {
			out = append(out, stroke{center: at[i], radius: half[i]})
		}
	}
	segments := n - 1
	if opts.Closed && n > 2 {
		segments = n
	}
	for i := 0; i < segments; i++ {
		j := (i + 1) % n
		if q, ok := trapezoid(at[i], at[j], half[i], half[j]); ok {
			out = append(out, stroke{segment: true, quad: q})
		}
	}
	return out
}

// trapezoid returns the outline between two round caps of radius ra and rb,
// wound with positive area. It reports false for degenerate segments.
func trapezoid(a, b geom.Point, ra, rb float64) ([4]geom.Point, bool) {
	d := b.Sub(a)
	l := math.Hypot(d.X, d.Y)
	if l == 0 || (ra == 0 && rb == 0) {
		return [4]geom.Point{}, false
	}
	n := geom.Pt(-d.Y/l, d.X/l)
	q := [4]geom.Point{
		a.Add(n.Scale(ra)),
		b.Add(n.Scale(rb)),
		b.Sub(n.Scale(rb)),
		a.Sub(n.Scale(ra)),
	}
	if signedArea(q[:]) < 0 {
		q[1], q[3] = q[3], q[1]
	}
	return q, true
}

func signedArea(p []geom.Point) float64 {
	s := 0.0
	for i := range p {
		j := (i + 1) % len(p)
		s += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return s / 2
}

// All shapes are wound the same way so overlaps accumulate instead of
// cancelling; the rasterizer clamps coverage at one.
func addQuad(r *vector.Rasterizer, q [4]geom.Point) {
	r.MoveTo(float32(q[0].X), float32(q[0].Y))
	for _, p := range q[1:] {
		r.LineTo(float32(p.X), float32(p.Y))
	}
	r.ClosePath()
}

// addCircle approximates a circle with four cubic Bézier arcs.
func addCircle(r *vector.Rasterizer, c geom.Point, radius float64) {
	const k = 0.5522847498
	cx, cy, rad := float32(c.X), float32(c.Y), float32(radius)
	kr := float32(k) * rad

	r.MoveTo(cx, cy-rad)
	r.CubeTo(cx+kr, cy-rad, cx+rad, cy-kr, cx+rad, cy)
	r.CubeTo(cx+rad, cy+kr, cx+kr, cy+rad, cx, cy+rad)
	r.CubeTo(cx-kr, cy+rad, cx-rad, cy+kr, cx-rad, cy)
	r.CubeTo(cx-rad, cy-kr, cx-kr, cy-rad, cx, cy-rad)
	r.ClosePath()
}
