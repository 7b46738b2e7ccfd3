package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tspstudio/pkg/cache"
	"github.com/matzehuels/tspstudio/pkg/channel"
	"github.com/matzehuels/tspstudio/pkg/errors"
	"github.com/matzehuels/tspstudio/pkg/studio"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"png", false},
		{"svg", false},
		{"pdf", true},
		{"PNG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if o.Iterations != DefaultIterations || o.Seed != DefaultSeed || o.TimeLimit != DefaultTimeLimit {
		t.Errorf("defaults not applied: %+v", o)
	}
	if len(o.Formats) != 1 || o.Formats[0] != FormatPNG || o.Scale != 1 {
		t.Errorf("render defaults not applied: %+v", o)
	}
	if o.Logger == nil {
		t.Error("logger not set")
	}
}

func TestOptionsInvalid(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"negative iterations", Options{Iterations: -1}},
		{"bad format", Options{Formats: []string{"gif"}}},
		{"min width above one", Options{MinWidth: 1.5}},
		{"negative channel", Options{Channels: []int{-1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateAndSetDefaults(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// gradient is dark on the left and light on the right.
func gradient(w, h int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 200 / w)})
		}
	}
	return img
}

func testStudy(t *testing.T, mode channel.Mode, points int) *studio.Study {
	t.Helper()
	settings := studio.DefaultSettings()
	settings.Points = points
	s, err := studio.New(gradient(60, 40), mode, settings)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.New(io.Discard))
}

func TestStippleCaches(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := quietRunner(fc)
	opts := Options{Iterations: 3}

	s := testStudy(t, channel.Grayscale, 150)
	res, err := r.Stipple(ctx, s, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.CacheInfo.StippleHits) != 1 || res.CacheInfo.StippleHits[0] {
		t.Errorf("first run hits = %v", res.CacheInfo.StippleHits)
	}
	first := append(s.Channels[0].Points[:0:0], s.Channels[0].Points...)
	if len(first) == 0 || res.Stats.Points[0] != len(first) {
		t.Fatalf("points = %d, stats %v", len(first), res.Stats.Points)
	}

	s2 := testStudy(t, channel.Grayscale, 150)
	res, err = r.Stipple(ctx, s2, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !res.CacheInfo.StippleHits[0] {
		t.Error("second run missed the cache")
	}
	if len(s2.Channels[0].Points) != len(first) || s2.Channels[0].Points[0] != first[0] {
		t.Error("cached points differ")
	}

	opts.Refresh = true
	res, err = r.Stipple(ctx, s2, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.StippleHits[0] {
		t.Error("refresh used the cache")
	}
}

func TestStippleSelectedChannels(t *testing.T) {
	s := testStudy(t, channel.CMYK, 120)
	r := quietRunner(nil)
	if _, err := r.Stipple(context.Background(), s, Options{Iterations: 1, Channels: []int{3}}); err != nil {
		t.Fatal(err)
	}
	for i, c := range s.Channels[:3] {
		if c.Points != nil {
			t.Errorf("channel %d stippled", i)
		}
	}
	if len(s.Channels[3].Points) == 0 {
		t.Error("channel 3 not stippled")
	}

	_, err := r.Stipple(context.Background(), s, Options{Channels: []int{4}})
	if !errors.Is(err, errors.ErrCodeInvalidChannel) {
		t.Errorf("channel 4: %v", err)
	}
}

func TestStippleFailureLeavesStudy(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 60, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 60; x++ {
			img.SetNRGBA(x, y, color.NRGBA{0, 255, 255, 255})
		}
	}
	settings := studio.DefaultSettings()
	settings.Points = 150
	s, err := studio.New(img, channel.CMYK, settings)
	if err != nil {
		t.Fatal(err)
	}
	tour := []int{0}
	s.Channels[0].Tour = tour
	s.Channels[0].State = studio.JobState{Status: studio.Resolved}

	_, err = quietRunner(nil).Stipple(context.Background(), s, Options{Iterations: 2})
	if !errors.Is(err, errors.ErrCodeInadequateSampling) {
		t.Fatalf("err = %v, want INADEQUATE_SAMPLING", err)
	}
	c := s.Channels[0]
	if len(c.Points) != 0 || c.State.Status != studio.Resolved || len(c.Tour) != 1 {
		t.Errorf("cyan channel modified: %d points, state %v, tour %v", len(c.Points), c.State, c.Tour)
	}
	for _, c := range s.Channels[1:] {
		if len(c.Points) != 0 {
			t.Errorf("channel %d got %d points", c.Index, len(c.Points))
		}
	}
}

func TestRenderNeedsTours(t *testing.T) {
	s := testStudy(t, channel.Grayscale, 120)
	_, _, err := quietRunner(nil).Render(context.Background(), s, Options{})
	if !errors.Is(err, errors.ErrCodeInvalidState) {
		t.Errorf("err = %v, want INVALID_STATE", err)
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	fc, _ := cache.NewFileCache(t.TempDir())
	r := quietRunner(fc)
	s := testStudy(t, channel.Grayscale, 150)

	opts := Options{
		Iterations: 2,
		TimeLimit:  100 * time.Millisecond,
		Formats:    []string{FormatPNG, FormatSVG},
		Scale:      2,
		Closed:     true,
	}
	res, err := r.Execute(ctx, s, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Resolved() {
		t.Fatal("study not resolved")
	}
	img, err := png.Decode(bytes.NewReader(res.Artifacts[FormatPNG]))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 80 {
		t.Errorf("png size = %v", b)
	}
	if !bytes.HasPrefix(res.Artifacts[FormatSVG], []byte("<svg")) {
		t.Error("svg output missing")
	}
	if res.CacheInfo.RenderHit {
		t.Error("first render reported a cache hit")
	}

	_, hit, err := r.Render(ctx, s, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("second render missed the cache")
	}
}
