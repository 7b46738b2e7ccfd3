package render

import (
	"bufio"
	"fmt"
	"image/color"
	"io"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/tspstudio/pkg/channel"
)

// SVG writes the layers as vector paths. Each layer is one group of filled
// shapes; multi-channel groups use CSS mix-blend-mode for compositing.
func SVG(w io.Writer, layers []Layer, mode channel.Mode, opts Options) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if len(layers) != mode.Channels() {
		return fmt.Errorf("%s needs %d layers, got %d", mode, mode.Channels(), len(layers))
	}
	width, height := opts.OutputSize()

	inks := make([]color.Color, len(layers))
	bg, blend := hexOf(opts.Background), ""
	switch mode.Blend() {
	case channel.Additive:
		bg, blend = "#000000", "screen"
	case channel.Subtractive:
		bg, blend = "#ffffff", "multiply"
	}
	for i := range inks {
		if ink := mode.Inks(); ink != nil {
			inks[i] = ink[i]
		} else {
			inks[i] = opts.Foreground
		}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`+"\n",
		width, height, width, height)
	fmt.Fprintf(bw, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", bg)
	for i, l := range layers {
		if l.Factors != nil && len(l.Factors) != len(l.Points) {
			return fmt.Errorf("channel %d: factors: have %d, want %d", i, len(l.Factors), len(l.Points))
		}
		style := ""
		if blend != "" {
			style = fmt.Sprintf(` style="mix-blend-mode:%s"`, blend)
		}
		fmt.Fprintf(bw, `  <g id="channel-%d" fill="%s"%s>`+"\n", i, hexOf(inks[i]), style)
		for _, s := range strokes(l.Points, l.Factors, &opts) {
			if s.segment {
				q := s.quad
				fmt.Fprintf(bw, `    <path d="M%.2f %.2fL%.2f %.2fL%.2f %.2fL%.2f %.2fZ"/>`+"\n",
					q[0].X, q[0].Y, q[1].X, q[1].Y, q[2].X, q[2].Y, q[3].X, q[3].Y)
			} else {
				fmt.Fprintf(bw, `    <circle cx="%.2f" cy="%.2f" r="%.2f"/>`+"\n", s.center.X, s.center.Y, s.radius)
			}
		}
		bw.WriteString("  </g>\n")
	}
	bw.WriteString("</svg>\n")
	return bw.Flush()
}

func hexOf(c color.Color) string {
	cf, _ := colorful.MakeColor(c)
	return cf.Clamped().Hex()
}
