package channel

import (
	"image"
	"image/color"
	"math"
)

// cmykFloor keeps the CMYK division defined for pure black pixels.
const cmykFloor = 1.0 / 255

// Split separates img into mode.Channels() gray images. In every returned
// image dark pixels mean ink for that channel, so each can be stippled
// directly.
//
// RGB channels hold light rather than ink and are inverted unless invert is
// set; for the other modes invert flips the result.
func Split(img image.Image, mode Mode, invert bool) []*image.Gray {
	var out []*image.Gray
	switch mode {
	case RGB:
		out = splitRGB(img)
		invert = !invert
	case CMYK:
		out = splitCMYK(img)
	default:
		out = []*image.Gray{Luminance(img)}
	}
	if invert {
		for _, g := range out {
			Invert(g)
		}
	}
	return out
}

// Luminance converts img to gray with the Rec. 601 weights.
func Luminance(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl := rgb8(img.At(b.Min.X+x, b.Min.Y+y))
			l := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)
			out.Pix[y*out.Stride+x] = uint8(math.Round(l))
		}
	}
	return out
}

// Invert replaces every value v with 255-v in place.
func Invert(g *image.Gray) {
	for i, v := range g.Pix {
		g.Pix[i] = 255 - v
	}
}

func splitRGB(img image.Image) []*image.Gray {
	b := img.Bounds()
	r, g, bl := newGray(b), newGray(b), newGray(b)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := y*r.Stride + x
			r.Pix[i], g.Pix[i], bl.Pix[i] = rgb8(img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return []*image.Gray{r, g, bl}
}

func splitCMYK(img image.Image) []*image.Gray {
	b := img.Bounds()
	out := []*image.Gray{newGray(b), newGray(b), newGray(b), newGray(b)}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r8, g8, b8 := rgb8(img.At(b.Min.X+x, b.Min.Y+y))
			r, g, bl := float64(r8)/255, float64(g8)/255, float64(b8)/255

			hi := math.Max(r, math.Max(g, bl))
			if hi < cmykFloor {
				hi = cmykFloor
			}
			k := 1 - hi
			inks := [4]float64{(1 - r - k) / hi, (1 - g - k) / hi, (1 - bl - k) / hi, k}

			i := y*out[0].Stride + x
			for c, ink := range inks {
				out[c].Pix[i] = clamp8(math.Round((1 - ink) * 255))
			}
		}
	}
	return out
}

func newGray(b image.Rectangle) *image.Gray {
	return image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
}

func rgb8(c color.Color) (uint8, uint8, uint8) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return n.R, n.G, n.B
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
