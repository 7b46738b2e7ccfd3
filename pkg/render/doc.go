// Package render draws resolved channels as variable-width lines.
//
// # Strokes
//
// [Route] rasterizes one channel into a coverage mask. Consecutive points
// are joined by a trapezoid whose half-widths follow each endpoint's ink
// factor, and every point gets a round cap, so the stroke thins and
// thickens smoothly along the tour:
//
//	width = LineWidth * (MinWidth + (1-MinWidth) * factor)
//
// # Composition
//
// [Compose] turns the masks of a study into a picture according to the
// color mode's blend rule:
//
//   - Over: foreground over background (grayscale)
//   - Additive: red, green and blue light on black (RGB)
//   - Subtractive: cyan, magenta, yellow and black ink on white (CMYK)
//
// [SVG] writes the same strokes as vector paths.
package render
