// Package density holds the darkness grid that drives point placement.
//
// A Field is a row-major width×height grid of float64 values. Values are
// usually in [0, 1] where 0 means no ink and 1 means full ink, but nothing
// enforces that until Normalize is called.
package density

import (
	"image"
	"image/color"
)

// normEpsilon is the smallest value range Normalize treats as non-uniform.
const normEpsilon = 1e-5

// Field is a 2D grid of darkness values.
type Field struct {
	Width, Height int
	Data          []float64 // row-major, len Width*Height
}

// New returns a zero field of the given size.
func New(width, height int) *Field {
	return &Field{Width: width, Height: height, Data: make([]float64, width*height)}
}

// Uniform returns a field where every cell is 1.
func Uniform(width, height int) *Field {
	f := New(width, height)
	for i := range f.Data {
		f.Data[i] = 1
	}
	return f
}

// FromGray builds a field from an 8-bit image where dark pixels carry ink:
// the field value is 1 - normalize(gray).
func FromGray(img *image.Gray) *Field {
	b := img.Bounds()
	f := New(b.Dx(), b.Dy())
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			f.Data[y*f.Width+x] = float64(img.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
		}
	}
	f.Normalize()
	for i, v := range f.Data {
		f.Data[i] = 1 - v
	}
	return f
}

// At returns the value at cell (x, y). Out-of-range cells read as zero.
func (f *Field) At(x, y int) float64 {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return 0
	}
	return f.Data[y*f.Width+x]
}

// Set stores v at cell (x, y).
func (f *Field) Set(x, y int, v float64) {
	f.Data[y*f.Width+x] = v
}

// Row returns the backing slice for row y.
func (f *Field) Row(y int) []float64 {
	return f.Data[y*f.Width : (y+1)*f.Width]
}

// Clone returns a deep copy of f.
func (f *Field) Clone() *Field {
	c := &Field{Width: f.Width, Height: f.Height, Data: make([]float64, len(f.Data))}
	copy(c.Data, f.Data)
	return c
}

// Range returns the minimum and maximum cell values.
func (f *Field) Range() (lo, hi float64) {
	if len(f.Data) == 0 {
		return 0, 0
	}
	lo, hi = f.Data[0], f.Data[0]
	for _, v := range f.Data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Normalize linearly maps the field's range onto [0, 1] in place. A field
// whose range is narrower than 1e-5 becomes all zero.
func (f *Field) Normalize() {
	lo, hi := f.Range()
	if hi-lo < normEpsilon {
		for i := range f.Data {
			f.Data[i] = 0
		}
		return
	}
	scale := 1 / (hi - lo)
	for i, v := range f.Data {
		f.Data[i] = (v - lo) * scale
	}
}

// IsZero reports whether every cell is zero.
func (f *Field) IsZero() bool {
	for _, v := range f.Data {
		if v != 0 {
			return false
		}
	}
	return true
}

// Mass returns the sum of all cells.
func (f *Field) Mass() float64 {
	var s float64
	for _, v := range f.Data {
		s += v
	}
	return s
}

// Image renders the field as an 8-bit image, ink dark, for previews.
func (f *Field) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			v := f.Data[y*f.Width+x]
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			img.SetGray(x, y, color.Gray{Y: uint8((1 - v) * 255)})
		}
	}
	return img
}
