// Package pipeline runs the local stages of a study: stippling every
// channel into points and rendering resolved channels into images.
//
// # Architecture
//
// The stages mirror the life of a study:
//
//  1. Stipple: sample density-matched points per channel (cached)
//  2. Solve: order each channel's points (see pkg/studio)
//  3. Render: draw the tours as variable-width lines (cached)
//
// Each stage can be run on its own through a [Runner], or all of them in
// sequence with [Runner.Execute].
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Stipple(ctx, study, pipeline.Options{Iterations: 50})
//	...
//	png, hit, err := runner.Render(ctx, study, pipeline.Options{Formats: []string{"png"}})
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/tspstudio/pkg/render"
	"github.com/matzehuels/tspstudio/pkg/stipple"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and config
// =============================================================================

const (
	// DefaultIterations is the number of relaxation passes per channel.
	DefaultIterations = 50

	// DefaultSeed seeds the initial rejection sampling.
	DefaultSeed = int64(42)

	// DefaultTimeLimit bounds the local solve of one channel.
	DefaultTimeLimit = time.Minute
)

// Format constants for output formats.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG: true,
	FormatSVG: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the local pipeline. Point count,
// line width, colors and the white threshold are study settings and are
// not repeated here.
type Options struct {
	// Stipple options
	Iterations     int   `json:"iterations,omitempty" validate:"gte=0"`
	PixelsPerPoint int   `json:"pixels_per_point,omitempty" validate:"gte=0"`
	Seed           int64 `json:"seed,omitempty"`
	Channels       []int `json:"channels,omitempty" validate:"dive,gte=0"` // empty means all
	Refresh        bool  `json:"refresh,omitempty"`

	// Solve options
	TimeLimit time.Duration `json:"time_limit,omitempty" validate:"gte=0"`

	// Render options
	Formats  []string `json:"formats,omitempty" validate:"dive,oneof=png svg"`
	Scale    float64  `json:"scale,omitempty" validate:"gte=0"`
	MinWidth float64  `json:"min_width,omitempty" validate:"gte=0,lte=1"`
	Closed   bool     `json:"closed,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" validate:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Warnings are non-fatal SAMPLING_WARNING errors, one per sparse channel.
	Warnings []error

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Points      []int // per channel, after white filtering
	StippleTime time.Duration
	SolveTime   time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	StippleHits []bool // per stippled channel
	RenderHit   bool   // whether all artifacts came from cache
}

var validate = validator.New()

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: png, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults for the full
// pipeline. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForStipple(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	if o.TimeLimit == 0 {
		o.TimeLimit = DefaultTimeLimit
	}
	o.validated = true
	return nil
}

// ValidateForStipple validates and sets defaults for stippling.
func (o *Options) ValidateForStipple() error {
	if o.Iterations == 0 {
		o.Iterations = DefaultIterations
	}
	if o.PixelsPerPoint == 0 {
		o.PixelsPerPoint = stipple.DefaultPixelsPerPoint
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	o.setLogger()
	return o.check()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatPNG}
	}
	if o.Scale == 0 {
		o.Scale = 1
	}
	if o.MinWidth == 0 {
		o.MinWidth = render.DefaultMinWidth
	}
	o.setLogger()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return o.check()
}

func (o *Options) check() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// selected reports whether channel i is part of this run.
func (o *Options) selected(i int) bool {
	if len(o.Channels) == 0 {
		return true
	}
	for _, c := range o.Channels {
		if c == i {
			return true
		}
	}
	return false
}
