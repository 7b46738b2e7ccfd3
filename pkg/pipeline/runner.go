package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tspstudio/pkg/cache"
	"github.com/matzehuels/tspstudio/pkg/errors"
	"github.com/matzehuels/tspstudio/pkg/geom"
	"github.com/matzehuels/tspstudio/pkg/observability"
	"github.com/matzehuels/tspstudio/pkg/render"
	"github.com/matzehuels/tspstudio/pkg/stipple"
	"github.com/matzehuels/tspstudio/pkg/studio"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different studies.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute stipples every channel, solves them locally and renders the
// result.
func (r *Runner) Execute(ctx context.Context, s *studio.Study, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result, err := r.Stipple(ctx, s, opts)
	if err != nil {
		return nil, fmt.Errorf("stipple: %w", err)
	}

	solveStart := time.Now()
	orch, err := studio.NewOrchestrator(studio.Config{}, nil, studio.WithLogger(opts.Logger))
	if err != nil {
		return nil, err
	}
	if err := orch.SolveOffline(ctx, s, opts.TimeLimit, opts.Closed); err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	result.Stats.SolveTime = time.Since(solveStart)
	r.Logger.Info("solved tours", "channels", len(s.Channels), "duration", result.Stats.SolveTime)

	renderStart := time.Now()
	artifacts, hit, err := r.Render(ctx, s, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = hit
	result.Stats.RenderTime = time.Since(renderStart)
	r.Logger.Info("rendered outputs", "formats", opts.Formats, "duration", result.Stats.RenderTime)
	return result, nil
}

// Stipple samples points for the selected channels and installs them,
// resetting those channels' tours. Sampling runs concurrently, one
// goroutine per channel. Points are filtered for every channel before any
// is installed, so a failure leaves the study untouched.
func (r *Runner) Stipple(ctx context.Context, s *studio.Study, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForStipple(); err != nil {
		return nil, err
	}
	for _, i := range opts.Channels {
		if err := errors.ValidateChannel(i, len(s.Channels)); err != nil {
			return nil, err
		}
	}

	type outcome struct {
		pts []geom.Point
		hit bool
		err error
	}
	start := time.Now()
	outcomes := make([]outcome, len(s.Channels))
	var wg sync.WaitGroup
	for i, c := range s.Channels {
		if !opts.selected(i) {
			continue
		}
		wg.Add(1)
		go func(i int, c *studio.Channel) {
			defer wg.Done()
			pts, hit, err := r.stippleChannel(ctx, s, c, opts)
			outcomes[i] = outcome{pts, hit, err}
		}(i, c)
	}
	wg.Wait()

	result := &Result{Stats: Stats{Points: make([]int, len(s.Channels))}}
	for i, o := range outcomes {
		if o.err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, o.err)
		}
	}
	kept := make([][]geom.Point, len(s.Channels))
	for i, c := range s.Channels {
		if !opts.selected(i) {
			continue
		}
		pts, warn, err := c.FilterPoints(outcomes[i].pts, s.Settings.WhiteThreshold)
		if err != nil {
			return nil, err
		}
		if warn != nil {
			r.Logger.Warn("sparse channel", "channel", i, "points", len(pts))
			result.Warnings = append(result.Warnings, warn)
		}
		kept[i] = pts
	}
	for i, c := range s.Channels {
		if !opts.selected(i) {
			result.Stats.Points[i] = len(c.Points)
			continue
		}
		c.InstallPoints(kept[i])
		result.Stats.Points[i] = len(c.Points)
		result.CacheInfo.StippleHits = append(result.CacheInfo.StippleHits, outcomes[i].hit)
		r.Logger.Info("stippled channel", "channel", i, "name", c.Name,
			"sampled", len(outcomes[i].pts), "kept", len(c.Points), "cached", outcomes[i].hit)
	}
	s.Touch()
	result.Stats.StippleTime = time.Since(start)
	return result, nil
}

func (r *Runner) stippleChannel(ctx context.Context, s *studio.Study, c *studio.Channel, opts Options) ([]geom.Point, bool, error) {
	key := r.Keyer.StippleKey(cache.HashGray(c.Gray), cache.StippleKeyOpts{
		Mode:           s.Mode.String(),
		Channel:        c.Index,
		Points:         s.Settings.Points,
		Iterations:     opts.Iterations,
		PixelsPerPoint: opts.PixelsPerPoint,
		Seed:           opts.Seed,
	})

	if !opts.Refresh {
		var raw [][2]float64
		if err := cache.GetJSON(ctx, r.Cache, key, &raw); err == nil {
			observability.Cache().OnCacheHit(ctx, key)
			return fromPairs(raw), true, nil
		}
		observability.Cache().OnCacheMiss(ctx, key)
	}

	hooks := observability.Pipeline()
	hooks.OnStippleStart(ctx, c.Index, s.Settings.Points)
	began := time.Now()
	pts, err := stipple.Image(ctx, c.Gray, stipple.Options{
		Points:         s.Settings.Points,
		Iterations:     opts.Iterations,
		PixelsPerPoint: opts.PixelsPerPoint,
		Rand:           rand.New(rand.NewSource(opts.Seed + int64(c.Index))),
		Logger:         opts.Logger.With("channel", c.Index),
	})
	hooks.OnStippleComplete(ctx, c.Index, len(pts), time.Since(began), err)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(toPairs(pts)); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLStipple); err == nil {
			observability.Cache().OnCacheSet(ctx, key, len(data))
		}
	}
	return pts, false, nil
}

// Render draws every channel of a resolved study in each requested format.
func (r *Runner) Render(ctx context.Context, s *studio.Study, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	if !s.Resolved() {
		return nil, false, errors.New(errors.ErrCodeInvalidState, "every channel needs a tour before rendering")
	}

	ropts, err := renderOptions(s, opts)
	if err != nil {
		return nil, false, err
	}
	layers := make([]render.Layer, len(s.Channels))
	for i, c := range s.Channels {
		layers[i] = render.Layer{Points: c.Points, Factors: c.Factors}
	}
	layerData, err := json.Marshal(layers)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layers for cache key: %w", err)
	}
	keyOpts := cache.RenderKeyOpts{
		Scale:      ropts.Scale,
		LineWidth:  ropts.LineWidth,
		MinWidth:   ropts.MinWidth,
		Closed:     ropts.Closed,
		Foreground: s.Settings.Foreground,
		Background: s.Settings.Background,
	}
	studyHash := cache.Hash(append([]byte(s.Mode.String()), layerData...))

	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		key := r.Keyer.RenderKey(studyHash+":"+format, keyOpts)
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, len(layers))
	began := time.Now()
	artifacts, err = renderFormats(layers, s, ropts, opts.Formats)
	hooks.OnRenderComplete(ctx, len(layers), time.Since(began), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range artifacts {
		key := r.Keyer.RenderKey(studyHash+":"+format, keyOpts)
		if err := r.Cache.Set(ctx, key, data, cache.TTLRender); err == nil {
			observability.Cache().OnCacheSet(ctx, key, len(data))
		}
	}
	return artifacts, false, nil
}

func renderOptions(s *studio.Study, opts Options) (render.Options, error) {
	fg, err := render.ParseColor(s.Settings.Foreground)
	if err != nil {
		return render.Options{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "foreground")
	}
	bg, err := render.ParseColor(s.Settings.Background)
	if err != nil {
		return render.Options{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "background")
	}
	w, h := s.Size()
	ropts := render.Options{
		Width:      w,
		Height:     h,
		Scale:      opts.Scale,
		LineWidth:  s.Settings.LineWidth,
		MinWidth:   opts.MinWidth,
		Closed:     opts.Closed,
		Foreground: fg,
		Background: bg,
	}
	if err := ropts.ValidateAndSetDefaults(); err != nil {
		return render.Options{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "render options")
	}
	return ropts, nil
}

func renderFormats(layers []render.Layer, s *studio.Study, ropts render.Options, formats []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(formats))
	for _, format := range formats {
		var buf bytes.Buffer
		switch format {
		case FormatPNG:
			img, err := render.Study(layers, s.Mode, ropts)
			if err != nil {
				return nil, err
			}
			if err := render.WritePNG(&buf, img); err != nil {
				return nil, err
			}
		case FormatSVG:
			if err := render.SVG(&buf, layers, s.Mode, ropts); err != nil {
				return nil, err
			}
		default:
			return nil, ValidateFormat(format)
		}
		out[format] = buf.Bytes()
	}
	return out, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func toPairs(pts []geom.Point) [][2]float64 {
	out := make([][2]float64, len(pts))
	for i, p := range pts {
		out[i] = [2]float64{p.X, p.Y}
	}
	return out
}

func fromPairs(raw [][2]float64) []geom.Point {
	out := make([]geom.Point, len(raw))
	for i, p := range raw {
		out[i] = geom.Pt(p[0], p[1])
	}
	return out
}
