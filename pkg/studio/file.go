package studio

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"image/png"
	"time"

	"github.com/matzehuels/tspstudio/pkg/channel"
	"github.com/matzehuels/tspstudio/pkg/errors"
	"github.com/matzehuels/tspstudio/pkg/geom"
	"github.com/matzehuels/tspstudio/pkg/store"
)

// FormatVersion is written into every study document.
const FormatVersion = 1

type studyFile struct {
	Version   int           `json:"version"`
	ID        string        `json:"id"`
	Mode      channel.Mode  `json:"mode"`
	Settings  Settings      `json:"settings"`
	Image     []byte        `json:"image"` // PNG, base64 in JSON
	Channels  []channelFile `json:"channels"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type channelFile struct {
	Name     string       `json:"name"`
	Points   [][2]float64 `json:"points"`
	Factors  []float64    `json:"factors,omitempty"`
	Tour     []int        `json:"tour,omitempty"`
	State    JobState     `json:"state"`
	Attempts int          `json:"attempts,omitempty"`
	Error    string       `json:"last_error,omitempty"`
}

// Encode serializes s, including its source image as PNG.
func Encode(s *Study) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.Source); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	out := studyFile{
		Version:   FormatVersion,
		ID:        s.ID,
		Mode:      s.Mode,
		Settings:  s.Settings,
		Image:     buf.Bytes(),
		Channels:  make([]channelFile, len(s.Channels)),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	for i, c := range s.Channels {
		cf := channelFile{
			Name:     c.Name,
			Points:   make([][2]float64, len(c.Points)),
			Factors:  c.Factors,
			Tour:     c.Tour,
			State:    c.State,
			Attempts: c.Attempts,
			Error:    c.LastError,
		}
		for j, p := range c.Points {
			cf.Points[j] = [2]float64{p.X, p.Y}
		}
		out.Channels[i] = cf
	}
	return json.MarshalIndent(out, "", "  ")
}

// Decode restores a study written by Encode. Channel images are derived
// again from the embedded source.
func Decode(data []byte) (*Study, error) {
	var in studyFile
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode study")
	}
	if in.Version != FormatVersion {
		return nil, errors.New(errors.ErrCodeUnsupported, "study format version %d", in.Version)
	}
	img, err := png.Decode(bytes.NewReader(in.Image))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode study image")
	}

	s := &Study{
		ID:        in.ID,
		Mode:      in.Mode,
		Settings:  in.Settings,
		Source:    img,
		CreatedAt: in.CreatedAt,
		UpdatedAt: in.UpdatedAt,
	}
	s.split()
	if len(in.Channels) != len(s.Channels) {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"study has %d channels, mode %s needs %d", len(in.Channels), s.Mode, len(s.Channels))
	}
	for i, cf := range in.Channels {
		c := s.Channels[i]
		if len(cf.Factors) != 0 && len(cf.Factors) != len(cf.Points) {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"channel %d: %d factors for %d points", i, len(cf.Factors), len(cf.Points))
		}
		c.Points = make([]geom.Point, len(cf.Points))
		for j, p := range cf.Points {
			c.Points[j] = geom.Pt(p[0], p[1])
		}
		if len(c.Points) == 0 {
			c.Points = nil
		}
		c.Factors = cf.Factors
		c.Tour = cf.Tour
		c.State = cf.State
		c.Attempts = cf.Attempts
		c.LastError = cf.Error
		if len(c.Points) > 0 && len(c.Factors) == 0 {
			c.Factors = channel.Factors(c.blur(), c.Points)
		}
	}
	return s, nil
}

// Load reads the study stored under ref.
func Load(ctx context.Context, st store.Store, ref string) (*Study, error) {
	data, err := st.Load(ctx, ref)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "study %s", ref)
		}
		return nil, err
	}
	return Decode(data)
}

// Save writes s under ref.
func Save(ctx context.Context, st store.Store, ref string, s *Study) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	return st.Save(ctx, ref, data)
}
