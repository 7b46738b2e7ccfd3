package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/tspstudio/pkg/channel"
)

// ParseColor parses a "#rrggbb" or "#rgb" hex color.
func ParseColor(s string) (color.Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return c.Clamped(), nil
}

// Compose combines one mask per channel into an image using the blend
// rule of mode. fg and bg are used only by the Over rule.
func Compose(masks []*image.Alpha, mode channel.Mode, fg, bg color.Color) (*image.NRGBA, error) {
	if len(masks) != mode.Channels() {
		return nil, fmt.Errorf("%s needs %d masks, got %d", mode, mode.Channels(), len(masks))
	}
	b := masks[0].Bounds()
	for _, m := range masks[1:] {
		if m.Bounds() != b {
			return nil, fmt.Errorf("mask bounds differ: %v and %v", b, m.Bounds())
		}
	}

	out := image.NewNRGBA(b)
	switch mode.Blend() {
	case channel.Additive:
		additive(out, masks, mode.Inks())
	case channel.Subtractive:
		subtractive(out, masks, mode.Inks())
	default:
		over(out, masks[0], fg, bg)
	}
	return out, nil
}

// over blends fg onto bg through a 256-entry table of colorful blends.
func over(out *image.NRGBA, mask *image.Alpha, fg, bg color.Color) {
	f, _ := colorful.MakeColor(fg)
	g, _ := colorful.MakeColor(bg)
	var lut [256][3]uint8
	for i := range lut {
		lut[i][0], lut[i][1], lut[i][2] = g.BlendRgb(f, float64(i)/255).Clamped().RGB255()
	}
	forEach(out, []*image.Alpha{mask}, func(a []uint8) [3]uint8 { return lut[a[0]] })
}

// additive sums each channel's ink as light on black.
func additive(out *image.NRGBA, masks []*image.Alpha, inks []color.NRGBA) {
	forEach(out, masks, func(a []uint8) [3]uint8 {
		var sum [3]int
		for c, v := range a {
			sum[0] += int(inks[c].R) * int(v) / 255
			sum[1] += int(inks[c].G) * int(v) / 255
			sum[2] += int(inks[c].B) * int(v) / 255
		}
		return [3]uint8{sat(sum[0]), sat(sum[1]), sat(sum[2])}
	})
}

// subtractive multiplies each channel's ink onto white paper.
func subtractive(out *image.NRGBA, masks []*image.Alpha, inks []color.NRGBA) {
	forEach(out, masks, func(a []uint8) [3]uint8 {
		rgb := [3]float64{1, 1, 1}
		for c, v := range a {
			cov := float64(v) / 255
			ink := [3]uint8{inks[c].R, inks[c].G, inks[c].B}
			for k := range rgb {
				rgb[k] *= 1 - cov*(1-float64(ink[k])/255)
			}
		}
		return [3]uint8{sat(int(rgb[0]*255 + 0.5)), sat(int(rgb[1]*255 + 0.5)), sat(int(rgb[2]*255 + 0.5))}
	})
}

func forEach(out *image.NRGBA, masks []*image.Alpha, fn func(a []uint8) [3]uint8) {
	b := out.Bounds()
	a := make([]uint8, len(masks))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			for c, m := range masks {
				a[c] = m.Pix[m.PixOffset(x, y)]
			}
			rgb := fn(a)
			i := out.PixOffset(x, y)
			out.Pix[i+0], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = rgb[0], rgb[1], rgb[2], 255
		}
	}
}

func sat(v int) uint8 {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return uint8(v)
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}
