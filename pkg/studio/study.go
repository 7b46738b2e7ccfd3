// Package studio holds a TSP-art study, the set of color channels derived
// from one source image, and drives each channel from points to tour.
//
// Channel resolution is modelled as a pure state machine ([Transition],
// [Requeue]) driven by an [Orchestrator] that owns the connection to the
// remote solver. Online solving keeps per-channel progress when individual
// channels fail; offline solving is all-or-nothing.
package studio

import (
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/tspstudio/pkg/channel"
	"github.com/matzehuels/tspstudio/pkg/errors"
	"github.com/matzehuels/tspstudio/pkg/geom"
)

// MinPoints is the point count below which sampling is reported as
// suspicious.
const MinPoints = 100

// Settings are shared by every channel of a study.
type Settings struct {
	Points         int     `json:"num_points"`
	LineWidth      float64 `json:"line_width"`
	WhiteThreshold int     `json:"white_threshold"`
	Invert         bool    `json:"invert"`
	Foreground     string  `json:"foreground"`
	Background     string  `json:"background"`
}

// DefaultSettings returns the settings new studies start with.
func DefaultSettings() Settings {
	return Settings{
		Points:         5000,
		LineWidth:      2,
		WhiteThreshold: channel.DefaultWhiteThreshold,
		Foreground:     "#000000",
		Background:     "#ffffff",
	}
}

// Validate checks value ranges.
func (s Settings) Validate() error {
	if s.Points < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "num_points must be positive, got %d", s.Points)
	}
	if s.LineWidth <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "line_width must be positive, got %v", s.LineWidth)
	}
	if s.WhiteThreshold < 0 || s.WhiteThreshold > 255 {
		return errors.New(errors.ErrCodeInvalidInput, "white_threshold must be within 0-255, got %d", s.WhiteThreshold)
	}
	return nil
}

// Study is one image turned into 1, 3 or 4 channels.
type Study struct {
	ID        string
	Mode      channel.Mode
	Settings  Settings
	Source    image.Image
	Channels  []*Channel
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a study for img. Channels start without points.
func New(img image.Image, mode channel.Mode, settings Settings) (*Study, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "image is empty")
	}
	now := time.Now().UTC()
	s := &Study{
		ID:        uuid.NewString(),
		Mode:      mode,
		Settings:  settings,
		Source:    img,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.split()
	return s, nil
}

func (s *Study) split() {
	grays := channel.Split(s.Source, s.Mode, s.Settings.Invert)
	names := s.Mode.Names()
	s.Channels = make([]*Channel, len(grays))
	for i, g := range grays {
		s.Channels[i] = &Channel{Index: i, Name: names[i], Gray: g}
	}
}

// Configure applies new settings. Changing the point count or the invert
// flag discards every channel's points and tour. Remote jobs of reset
// channels are forgotten, not cancelled; see Resets and
// Orchestrator.CancelChannels.
func (s *Study) Configure(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	reset := s.Resets(settings)
	invert := settings.Invert != s.Settings.Invert
	s.Settings = settings
	if invert {
		s.split()
	} else if reset {
		for _, c := range s.Channels {
			c.clearPoints()
		}
	}
	s.Touch()
	return nil
}

// Resets reports whether Configure(settings) would discard every channel's
// points.
func (s *Study) Resets(settings Settings) bool {
	return settings.Points != s.Settings.Points || settings.Invert != s.Settings.Invert
}

// Touch records a modification.
func (s *Study) Touch() { s.UpdatedAt = time.Now().UTC() }

// Size returns the source image dimensions.
func (s *Study) Size() (int, int) {
	b := s.Source.Bounds()
	return b.Dx(), b.Dy()
}

// Channel returns channel i.
func (s *Study) Channel(i int) (*Channel, error) {
	if err := errors.ValidateChannel(i, len(s.Channels)); err != nil {
		return nil, err
	}
	return s.Channels[i], nil
}

// States returns each channel's job state in index order.
func (s *Study) States() []JobState {
	out := make([]JobState, len(s.Channels))
	for i, c := range s.Channels {
		out[i] = c.State
	}
	return out
}

// Stippled reports whether every channel has points.
func (s *Study) Stippled() bool {
	for _, c := range s.Channels {
		if len(c.Points) == 0 {
			return false
		}
	}
	return len(s.Channels) > 0
}

// Resolved reports whether every channel has a tour.
func (s *Study) Resolved() bool {
	for _, c := range s.Channels {
		if c.State.Status != Resolved {
			return false
		}
	}
	return len(s.Channels) > 0
}

// Channel is one color separation with its points and job state.
type Channel struct {
	Index   int
	Name    string
	Gray    *image.Gray // dark means ink
	Points  []geom.Point
	Factors []float64
	// Tour is the order the remote or local solver returned, relative to
	// the points as they were before resolution. Points are stored in tour
	// order once resolved.
	Tour     []int
	State    JobState
	Attempts int // remote submissions since the last point change
	// LastError is the most recent per-channel failure, cleared on success.
	LastError string

	blurred *image.Gray
}

func (c *Channel) blur() *image.Gray {
	if c.blurred == nil {
		c.blurred = channel.Blur(c.Gray, channel.BlurSigma)
	}
	return c.blurred
}

func (c *Channel) clearPoints() {
	c.Points, c.Factors, c.Tour = nil, nil, nil
	c.State = JobState{Status: Unscheduled}
	c.Attempts = 0
	c.LastError = ""
}

// ReplacePoints installs a freshly sampled point set. Points on white (by
// threshold) are dropped first, then ink factors are computed. Any tour is
// discarded and the job state resets to Unscheduled.
//
// An empty result is an INADEQUATE_SAMPLING error and leaves the channel
// unchanged; fewer than MinPoints points is reported through warn as
// SAMPLING_WARNING while the points are still installed.
func (c *Channel) ReplacePoints(pts []geom.Point, threshold int) (warn, err error) {
	kept, warn, err := c.FilterPoints(pts, threshold)
	if err != nil {
		return nil, err
	}
	c.InstallPoints(kept)
	return warn, nil
}

// FilterPoints returns the points of pts that ReplacePoints would keep,
// without modifying the channel. The errors match ReplacePoints.
func (c *Channel) FilterPoints(pts []geom.Point, threshold int) (kept []geom.Point, warn, err error) {
	kept = channel.FilterWhite(c.blur(), pts, threshold)
	if len(kept) == 0 {
		return nil, nil, errors.New(errors.ErrCodeInadequateSampling,
			"channel %d (%s): no points left after white filtering (%d sampled)", c.Index, c.Name, len(pts))
	}
	if len(kept) < MinPoints {
		warn = errors.New(errors.ErrCodeSamplingWarning,
			"channel %d (%s): only %d points", c.Index, c.Name, len(kept))
	}
	return kept, warn, nil
}

// InstallPoints replaces the channel's points with an already filtered set
// from FilterPoints, computing factors and resetting the job state.
func (c *Channel) InstallPoints(kept []geom.Point) {
	// New points reset any state.
	next, _ := Transition(c.State, Event{Kind: EventPointsReplaced})
	c.Points = kept
	c.Factors = channel.Factors(c.blur(), kept)
	c.Tour = nil
	c.State = next
	c.Attempts = 0
	c.LastError = ""
}

// resolve reorders the points along tour and recomputes factors.
func (c *Channel) resolve(tour []int) error {
	if !geom.IsPermutation(tour, len(c.Points)) {
		return errors.New(errors.ErrCodeNoData,
			"tour of length %d does not cover %d points", len(tour), len(c.Points))
	}
	c.Points = geom.Reorder(c.Points, tour)
	c.Factors = channel.Factors(c.blur(), c.Points)
	c.Tour = append([]int(nil), tour...)
	return nil
}

// ApplyTour resolves the channel with an externally computed tour.
func (c *Channel) ApplyTour(tour []int) error {
	if len(c.Points) == 0 {
		return errors.New(errors.ErrCodeInvalidState, "channel %d has no points", c.Index)
	}
	next, err := Transition(c.State, Event{Kind: EventSolvedLocally})
	if err != nil {
		return err
	}
	if err := c.resolve(tour); err != nil {
		return err
	}
	c.State = next
	return nil
}

func (c *Channel) String() string {
	return fmt.Sprintf("channel %d (%s)", c.Index, c.Name)
}
