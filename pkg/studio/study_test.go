package studio

import (
	"context"
	"image"
	"image/color"
	"reflect"
	"testing"

	"github.com/matzehuels/tspstudio/pkg/channel"
	"github.com/matzehuels/tspstudio/pkg/errors"
	"github.com/matzehuels/tspstudio/pkg/geom"
	"github.com/matzehuels/tspstudio/pkg/neos"
	"github.com/matzehuels/tspstudio/pkg/store"
)

func solidImage(c color.NRGBA) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// gridPoints returns n points on pixel centres, row by row.
func gridPoints(n int) []geom.Point {
	pts := make([]geom.Point, n)
	for i := range pts {
		pts[i] = geom.Pt(float64(i%30)+0.5, float64(i/30)+0.5)
	}
	return pts
}

// newTestStudy returns a study whose channel i holds counts[i] points. The
// source image is all ink for every channel of the mode.
func newTestStudy(t *testing.T, mode channel.Mode, counts ...int) *Study {
	t.Helper()
	c := color.NRGBA{0, 0, 0, 255}
	if mode == channel.RGB {
		c = color.NRGBA{255, 255, 255, 255}
	}
	s, err := New(solidImage(c), mode, DefaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != len(s.Channels) {
		t.Fatalf("need %d counts, got %d", len(s.Channels), len(counts))
	}
	for i, ch := range s.Channels {
		warn, err := ch.ReplacePoints(gridPoints(counts[i]), channel.DefaultWhiteThreshold)
		if err != nil || warn != nil {
			t.Fatalf("ReplacePoints(%d): %v, %v", i, warn, err)
		}
	}
	return s
}

func TestNewStudyChannels(t *testing.T) {
	for _, mode := range channel.Modes {
		s, err := New(solidImage(color.NRGBA{128, 128, 128, 255}), mode, DefaultSettings())
		if err != nil {
			t.Fatal(err)
		}
		if len(s.Channels) != mode.Channels() {
			t.Errorf("%s: %d channels, want %d", mode, len(s.Channels), mode.Channels())
		}
		if s.ID == "" {
			t.Error("missing ID")
		}
		for i, c := range s.Channels {
			if c.Index != i || c.State.Status != Unscheduled {
				t.Errorf("%s channel %d: index %d state %v", mode, i, c.Index, c.State)
			}
		}
	}
}

func TestNewStudyValidation(t *testing.T) {
	bad := DefaultSettings()
	bad.Points = 0
	if _, err := New(solidImage(color.NRGBA{A: 255}), channel.Grayscale, bad); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("zero points: %v", err)
	}
	bad = DefaultSettings()
	bad.WhiteThreshold = 300
	if _, err := New(solidImage(color.NRGBA{A: 255}), channel.Grayscale, bad); err == nil {
		t.Error("threshold 300 accepted")
	}
	if _, err := New(image.NewGray(image.Rect(0, 0, 0, 0)), channel.Grayscale, DefaultSettings()); err == nil {
		t.Error("empty image accepted")
	}
}

func TestReplacePoints(t *testing.T) {
	s := newTestStudy(t, channel.Grayscale, 200)
	c := s.Channels[0]
	c.State = JobState{Status: Resolved}
	c.Tour = []int{0}
	c.Attempts = 3

	warn, err := c.ReplacePoints(gridPoints(50), channel.DefaultWhiteThreshold)
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(warn, errors.ErrCodeSamplingWarning) {
		t.Errorf("warn = %v, want SAMPLING_WARNING", warn)
	}
	if len(c.Points) != 50 || len(c.Factors) != 50 {
		t.Errorf("points %d factors %d", len(c.Points), len(c.Factors))
	}
	if c.State.Status != Unscheduled || c.Tour != nil || c.Attempts != 0 {
		t.Errorf("channel not reset: %v %v %d", c.State, c.Tour, c.Attempts)
	}
	for i, f := range c.Factors {
		if f < 0.99 {
			t.Fatalf("factor %d = %v on black image", i, f)
		}
	}
}

func TestReplacePointsAllWhite(t *testing.T) {
	s, err := New(solidImage(color.NRGBA{255, 255, 255, 255}), channel.Grayscale, DefaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	c := s.Channels[0]
	_, err = c.ReplacePoints(gridPoints(200), channel.DefaultWhiteThreshold)
	if !errors.Is(err, errors.ErrCodeInadequateSampling) {
		t.Fatalf("err = %v, want INADEQUATE_SAMPLING", err)
	}
	if c.Points != nil {
		t.Error("points installed despite error")
	}

	// 255 disables the filter.
	if _, err := c.ReplacePoints(gridPoints(200), 255); err != nil {
		t.Fatalf("threshold 255: %v", err)
	}
	if len(c.Points) != 200 {
		t.Errorf("kept %d points, want 200", len(c.Points))
	}
}

func TestFilterPointsKeepsChannel(t *testing.T) {
	s := newTestStudy(t, channel.Grayscale, 120)
	c := s.Channels[0]
	c.State = JobState{Status: Resolved}
	c.Tour = identity(120)

	kept, warn, err := c.FilterPoints(gridPoints(200), channel.DefaultWhiteThreshold)
	if err != nil || warn != nil {
		t.Fatalf("FilterPoints: %v, %v", warn, err)
	}
	if len(kept) != 200 {
		t.Errorf("kept %d points, want 200", len(kept))
	}
	if len(c.Points) != 120 || c.State.Status != Resolved || len(c.Tour) != 120 {
		t.Errorf("channel modified: %d points, state %v", len(c.Points), c.State)
	}

	c.InstallPoints(kept)
	if len(c.Points) != 200 || len(c.Factors) != 200 || c.Tour != nil || c.State.Status != Unscheduled {
		t.Errorf("install: %d points, %d factors, state %v", len(c.Points), len(c.Factors), c.State)
	}
}

func TestResets(t *testing.T) {
	s := newTestStudy(t, channel.Grayscale, 120)
	tests := []struct {
		name   string
		change func(*Settings)
		want   bool
	}{
		{"same", func(*Settings) {}, false},
		{"points", func(st *Settings) { st.Points++ }, true},
		{"invert", func(st *Settings) { st.Invert = !st.Invert }, true},
		{"line width", func(st *Settings) { st.LineWidth *= 2 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := s.Settings
			tt.change(&settings)
			if got := s.Resets(settings); got != tt.want {
				t.Errorf("Resets = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyTour(t *testing.T) {
	s := newTestStudy(t, channel.Grayscale, 120)
	c := s.Channels[0]
	before := append([]geom.Point(nil), c.Points...)

	order := make([]int, len(c.Points))
	for i := range order {
		order[i] = len(order) - 1 - i
	}
	if err := c.ApplyTour(order); err != nil {
		t.Fatal(err)
	}
	if c.State.Status != Resolved {
		t.Errorf("state = %v", c.State)
	}
	if c.Points[0] != before[len(before)-1] {
		t.Errorf("points not reordered")
	}
	if err := c.ApplyTour([]int{0, 0}); err == nil {
		t.Error("non-permutation accepted")
	}
}

func TestConfigureResets(t *testing.T) {
	s := newTestStudy(t, channel.Grayscale, 120)
	settings := s.Settings
	settings.LineWidth = 4
	if err := s.Configure(settings); err != nil {
		t.Fatal(err)
	}
	if len(s.Channels[0].Points) != 120 {
		t.Error("line width change dropped points")
	}

	settings.Points = 9000
	if err := s.Configure(settings); err != nil {
		t.Fatal(err)
	}
	if s.Channels[0].Points != nil {
		t.Error("point count change kept points")
	}
}

func TestStudyEncodeDecode(t *testing.T) {
	s := newTestStudy(t, channel.CMYK, 120, 121, 122, 123)
	s.Channels[1].State = SubmittedState(neos.Handle{Job: 99, Password: "pw"})
	s.Channels[1].Attempts = 2
	s.Channels[2].State = JobState{Status: Failed}
	s.Channels[2].LastError = "rejected"

	data, err := Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}

	if got.ID != s.ID || got.Mode != s.Mode || got.Settings != s.Settings {
		t.Errorf("header mismatch: %+v", got)
	}
	if !reflect.DeepEqual(got.States(), s.States()) {
		t.Errorf("states = %v, want %v", got.States(), s.States())
	}
	for i := range s.Channels {
		a, b := s.Channels[i], got.Channels[i]
		if !reflect.DeepEqual(a.Points, b.Points) || !reflect.DeepEqual(a.Factors, b.Factors) {
			t.Errorf("channel %d points differ", i)
		}
		if a.Attempts != b.Attempts || a.LastError != b.LastError {
			t.Errorf("channel %d bookkeeping differs", i)
		}
		if !reflect.DeepEqual(a.Gray.Pix, b.Gray.Pix) {
			t.Errorf("channel %d gray differs", i)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("{")); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v", err)
	}
	if _, err := Decode([]byte(`{"version": 9}`)); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("err = %v", err)
	}
}

func TestLoadSave(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Load(ctx, st, "nope"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Load missing: %v", err)
	}
	s := newTestStudy(t, channel.Grayscale, 150)
	if err := Save(ctx, st, s.ID, s); err != nil {
		t.Fatal(err)
	}
	got, err := Load(ctx, st, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Channels[0].Points) != 150 {
		t.Errorf("loaded %d points", len(got.Channels[0].Points))
	}
}
