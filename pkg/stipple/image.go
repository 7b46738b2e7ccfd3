package stipple

import (
	"context"
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/matzehuels/tspstudio/pkg/density"
	"github.com/matzehuels/tspstudio/pkg/errors"
	"github.com/matzehuels/tspstudio/pkg/geom"
)

// DefaultPixelsPerPoint keeps relaxation cost roughly independent of the
// requested point count.
const DefaultPixelsPerPoint = 500

// Options configures Image.
type Options struct {
	Points         int // number of points to place
	Iterations     int // relaxation passes
	PixelsPerPoint int // target working-resolution pixels per point

	Rand   *rand.Rand  // defaults to a fixed seed
	Logger *log.Logger // per-pass debug output; nil is silent
}

// ValidateAndSetDefaults checks the options and fills in zero values.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Points < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "points must be positive, got %d", o.Points)
	}
	if o.Iterations < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "iterations must not be negative, got %d", o.Iterations)
	}
	if o.PixelsPerPoint <= 0 {
		o.PixelsPerPoint = DefaultPixelsPerPoint
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(1))
	}
	return nil
}

// Image stipples an 8-bit channel where dark pixels attract points. The
// channel is resampled (nearest neighbour) to about PixelsPerPoint pixels per
// point, stippled there, and the points are mapped back to the channel's
// own resolution.
func Image(ctx context.Context, gray *image.Gray, opts Options) ([]geom.Point, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	b := gray.Bounds()
	if b.Empty() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "image is empty")
	}

	w, h := workingSize(b.Dx(), b.Dy(), opts.Points, opts.PixelsPerPoint)
	small := gray
	if w != b.Dx() || h != b.Dy() {
		small = toGray(imaging.Resize(gray, w, h, imaging.NearestNeighbor))
	}
	if opts.Logger != nil {
		opts.Logger.Debug("stippling", "points", opts.Points, "iterations", opts.Iterations,
			"source", [2]int{b.Dx(), b.Dy()}, "working", [2]int{w, h})
	}

	pts, err := sample(ctx, density.FromGray(small), opts.Points, opts.Iterations, opts.Rand, opts.Logger)
	if err != nil {
		return nil, err
	}

	sx := float64(b.Dx()) / float64(w)
	sy := float64(b.Dy()) / float64(h)
	for i, p := range pts {
		pts[i] = geom.Point{X: p.X * sx, Y: p.Y * sy}
	}
	return pts, nil
}

// workingSize scales (w, h) uniformly so that w*h is close to n*ppp.
func workingSize(w, h, n, ppp int) (int, int) {
	zoom := math.Sqrt(float64(n) * float64(ppp) / (float64(w) * float64(h)))
	sw := int(math.Round(float64(w) * zoom))
	sh := int(math.Round(float64(h) * zoom))
	return max(sw, 1), max(sh, 1)
}

// toGray converts an image that already holds gray values.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.SetGray(x, y, color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray))
		}
	}
	return out
}
