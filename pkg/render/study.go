package render

import (
	"fmt"
	"image"

	"github.com/matzehuels/tspstudio/pkg/channel"
	"github.com/matzehuels/tspstudio/pkg/geom"
)

// Layer is one resolved channel.
type Layer struct {
	Points  []geom.Point
	Factors []float64
}

// Study renders every layer with opts and composes them for mode.
func Study(layers []Layer, mode channel.Mode, opts Options) (*image.NRGBA, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	masks := make([]*image.Alpha, len(layers))
	for i, l := range layers {
		m, err := Route(l.Points, l.Factors, opts)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
		masks[i] = m
	}
	return Compose(masks, mode, opts.Foreground, opts.Background)
}
