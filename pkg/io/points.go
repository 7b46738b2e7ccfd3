package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/tspstudio/pkg/geom"
)

// PointSet is a sampled channel as stored on disk.
type PointSet struct {
	Points  []geom.Point
	Factors []float64
	Width   int
	Height  int
}

type pointsFile struct {
	Points  [][2]float64 `json:"points"`
	Factors []float64    `json:"factors,omitempty"`
	Size    [2]int       `json:"size"`
}

// WriteJSON encodes ps as JSON and writes it to w.
func WriteJSON(ps PointSet, w io.Writer) error {
	if ps.Factors != nil && len(ps.Factors) != len(ps.Points) {
		return fmt.Errorf("factors: have %d, want %d", len(ps.Factors), len(ps.Points))
	}
	out := pointsFile{
		Points:  make([][2]float64, len(ps.Points)),
		Factors: ps.Factors,
		Size:    [2]int{ps.Width, ps.Height},
	}
	for i, p := range ps.Points {
		out.Points[i] = [2]float64{p.X, p.Y}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a point set written by [WriteJSON]. ReadJSON does not
// close r.
func ReadJSON(r io.Reader) (PointSet, error) {
	var data pointsFile
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return PointSet{}, fmt.Errorf("decode: %w", err)
	}
	if data.Factors != nil && len(data.Factors) != len(data.Points) {
		return PointSet{}, fmt.Errorf("factors: have %d, want %d", len(data.Factors), len(data.Points))
	}

	ps := PointSet{
		Points:  make([]geom.Point, len(data.Points)),
		Factors: data.Factors,
		Width:   data.Size[0],
		Height:  data.Size[1],
	}
	for i, p := range data.Points {
		ps.Points[i] = geom.Point{X: p[0], Y: p[1]}
	}
	return ps, nil
}

// ExportJSON writes ps to a JSON file at path.
func ExportJSON(ps PointSet, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(ps, f)
}

// ImportJSON reads a point set from a JSON file at path.
func ImportJSON(path string) (PointSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return PointSet{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
