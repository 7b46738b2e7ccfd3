// Package channel separates a color image into the gray channels that are
// stippled and routed independently, and derives the per-point values that
// depend on those channels.
package channel

import (
	"fmt"
	"image/color"
	"strings"
)

// Mode is the color separation a study uses.
type Mode int

const (
	Grayscale Mode = iota
	RGB
	CMYK
)

// Modes lists every supported mode.
var Modes = []Mode{Grayscale, RGB, CMYK}

// Blend is how rendered channels are combined into one picture.
type Blend int

const (
	// Over paints the single channel's foreground over the background.
	Over Blend = iota
	// Additive sums light from black, one primary per channel.
	Additive
	// Subtractive multiplies inks onto white.
	Subtractive
)

// ParseMode parses a mode name. Matching is case-insensitive and accepts
// "gray" for Grayscale.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "grayscale", "gray", "grey", "l":
		return Grayscale, nil
	case "rgb":
		return RGB, nil
	case "cmyk":
		return CMYK, nil
	default:
		return 0, fmt.Errorf("unknown color mode %q (want grayscale, rgb or cmyk)", s)
	}
}

func (m Mode) String() string {
	switch m {
	case Grayscale:
		return "grayscale"
	case RGB:
		return "rgb"
	case CMYK:
		return "cmyk"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Channels returns how many channels the mode separates into.
func (m Mode) Channels() int {
	switch m {
	case RGB:
		return 3
	case CMYK:
		return 4
	default:
		return 1
	}
}

// Blend returns the compositing rule for the mode.
func (m Mode) Blend() Blend {
	switch m {
	case RGB:
		return Additive
	case CMYK:
		return Subtractive
	default:
		return Over
	}
}

// Names returns a short label per channel.
func (m Mode) Names() []string {
	switch m {
	case RGB:
		return []string{"red", "green", "blue"}
	case CMYK:
		return []string{"cyan", "magenta", "yellow", "black"}
	default:
		return []string{"gray"}
	}
}

// Inks returns the stroke color of each channel. Grayscale has no fixed ink;
// the caller's foreground color is used.
func (m Mode) Inks() []color.NRGBA {
	switch m {
	case RGB:
		return []color.NRGBA{{255, 0, 0, 255}, {0, 255, 0, 255}, {0, 0, 255, 255}}
	case CMYK:
		return []color.NRGBA{{0, 255, 255, 255}, {255, 0, 255, 255}, {255, 255, 0, 255}, {0, 0, 0, 255}}
	default:
		return nil
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m < Grayscale || m > CMYK {
		return nil, fmt.Errorf("invalid mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
