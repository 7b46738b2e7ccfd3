package channel

import (
	"image"
	"image/color"
	"testing"

	"github.com/matzehuels/tspstudio/pkg/geom"
)

func TestModeProperties(t *testing.T) {
	tests := []struct {
		mode     Mode
		channels int
		blend    Blend
		name     string
	}{
		{Grayscale, 1, Over, "grayscale"},
		{RGB, 3, Additive, "rgb"},
		{CMYK, 4, Subtractive, "cmyk"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mode.Channels(); got != tt.channels {
				t.Errorf("Channels() = %d, want %d", got, tt.channels)
			}
			if got := tt.mode.Blend(); got != tt.blend {
				t.Errorf("Blend() = %v, want %v", got, tt.blend)
			}
			if got := len(tt.mode.Names()); got != tt.channels {
				t.Errorf("len(Names()) = %d, want %d", got, tt.channels)
			}
			parsed, err := ParseMode(tt.name)
			if err != nil || parsed != tt.mode {
				t.Errorf("ParseMode(%q) = %v, %v", tt.name, parsed, err)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("GRAY"); err != nil || m != Grayscale {
		t.Errorf("ParseMode(GRAY) = %v, %v", m, err)
	}
	if _, err := ParseMode("hsv"); err == nil {
		t.Error("ParseMode(hsv) succeeded, want error")
	}
}

func TestModeText(t *testing.T) {
	b, err := CMYK.MarshalText()
	if err != nil || string(b) != "cmyk" {
		t.Fatalf("MarshalText = %q, %v", b, err)
	}
	var m Mode
	if err := m.UnmarshalText([]byte("rgb")); err != nil || m != RGB {
		t.Errorf("UnmarshalText = %v, %v", m, err)
	}
}

func solid(c color.NRGBA) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestSplitCMYK(t *testing.T) {
	tests := []struct {
		name string
		in   color.NRGBA
		want [4]uint8
	}{
		{"white", color.NRGBA{255, 255, 255, 255}, [4]uint8{255, 255, 255, 255}},
		{"black", color.NRGBA{0, 0, 0, 255}, [4]uint8{0, 0, 0, 1}},
		{"red", color.NRGBA{255, 0, 0, 255}, [4]uint8{255, 0, 0, 255}},
		{"cyan", color.NRGBA{0, 255, 255, 255}, [4]uint8{0, 255, 255, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(solid(tt.in), CMYK, false)
			if len(got) != 4 {
				t.Fatalf("len = %d, want 4", len(got))
			}
			for c := range got {
				if v := got[c].GrayAt(1, 1).Y; v != tt.want[c] {
					t.Errorf("channel %d = %d, want %d", c, v, tt.want[c])
				}
			}
		})
	}
}

func TestSplitRGBInverts(t *testing.T) {
	img := solid(color.NRGBA{255, 0, 128, 255})
	got := Split(img, RGB, false)
	want := []uint8{0, 255, 127}
	for c := range want {
		if v := got[c].GrayAt(0, 0).Y; v != want[c] {
			t.Errorf("channel %d = %d, want %d", c, v, want[c])
		}
	}

	raw := Split(img, RGB, true)
	if v := raw[0].GrayAt(0, 0).Y; v != 255 {
		t.Errorf("inverted red = %d, want raw 255", v)
	}
}

func TestSplitGrayscale(t *testing.T) {
	img := solid(color.NRGBA{100, 150, 200, 255})
	got := Split(img, Grayscale, false)
	// 0.299*100 + 0.587*150 + 0.114*200 = 140.75
	if len(got) != 1 || got[0].GrayAt(0, 0).Y != 141 {
		t.Errorf("luminance = %d, want 141", got[0].GrayAt(0, 0).Y)
	}
	inv := Split(img, Grayscale, true)
	if v := inv[0].GrayAt(0, 0).Y; v != 114 {
		t.Errorf("inverted luminance = %d, want 114", v)
	}
}

func halfImage() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			if x >= 10 {
				g.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return g
}

func TestFactors(t *testing.T) {
	g := Blur(halfImage(), BlurSigma)
	pts := []geom.Point{{2.5, 5}, {17.9, 5}, {20, 10}}
	f := Factors(g, pts)
	if f[0] < 0.99 {
		t.Errorf("factor on black = %v, want ~1", f[0])
	}
	if f[1] > 0.01 {
		t.Errorf("factor on white = %v, want ~0", f[1])
	}
	if f[2] > 0.01 {
		t.Errorf("factor at far corner = %v, want ~0", f[2])
	}
}

func TestFilterWhite(t *testing.T) {
	g := Blur(halfImage(), BlurSigma)
	pts := []geom.Point{{1, 1}, {18, 5}, {5, 9}}

	kept := FilterWhite(g, pts, DefaultWhiteThreshold)
	if len(kept) != 2 || kept[0] != pts[0] || kept[1] != pts[2] {
		t.Errorf("FilterWhite = %v, want the two dark points", kept)
	}
	if got := FilterWhite(g, pts, 255); len(got) != 3 {
		t.Errorf("threshold 255 kept %d points, want 3", len(got))
	}
	if got := FilterWhite(g, pts, 0); len(got) != 2 {
		t.Errorf("threshold 0 kept %d points, want 2", len(got))
	}
}

func TestValueAtClamps(t *testing.T) {
	g := halfImage()
	if v := ValueAt(g, geom.Point{X: -3, Y: -3}); v != 0 {
		t.Errorf("ValueAt(-3,-3) = %d, want 0", v)
	}
	if v := ValueAt(g, geom.Point{X: 25, Y: 4}); v != 255 {
		t.Errorf("ValueAt(25,4) = %d, want 255", v)
	}
}
