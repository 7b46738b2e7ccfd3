package io

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matzehuels/tspstudio/pkg/geom"
)

// TSPLIBName is the NAME header written by [WriteTSPLIB].
const TSPLIBName = "tspart"

// WriteTSPLIB writes pts as a TSPLIB EUC_2D problem with 1-based node
// indices.
func WriteTSPLIB(pts []geom.Point, w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "NAME: %s\n", TSPLIBName)
	fmt.Fprintln(bw, "TYPE: TSP")
	fmt.Fprintf(bw, "DIMENSION: %d\n", len(pts))
	fmt.Fprintln(bw, "EDGE_WEIGHT_TYPE: EUC_2D")
	fmt.Fprintln(bw, "NODE_COORD_SECTION")
	for i, p := range pts {
		fmt.Fprintf(bw, "%d %.6f %.6f\n", i+1, p.X, p.Y)
	}
	fmt.Fprintln(bw, "EOF")
	return bw.Flush()
}

// TSPLIB returns pts in TSPLIB format as a string.
func TSPLIB(pts []geom.Point) string {
	var buf bytes.Buffer
	_ = WriteTSPLIB(pts, &buf)
	return buf.String()
}

// ReadTSPLIB parses the node coordinates of a TSPLIB EUC_2D problem.
func ReadTSPLIB(r io.Reader) ([]geom.Point, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	dim := -1
	inCoords := false
	var pts []geom.Point
	var seen []bool
	line := 0

	for sc.Scan() {
		line++
		s := strings.TrimSpace(strings.TrimSuffix(sc.Text(), "\r"))
		if s == "" {
			continue
		}
		if s == "EOF" {
			break
		}
		if !inCoords {
			key, val, _ := strings.Cut(s, ":")
			key = strings.TrimSpace(key)
			val = strings.TrimSpace(val)
			switch key {
			case "DIMENSION":
				n, err := strconv.Atoi(val)
				if err != nil || n < 0 {
					return nil, fmt.Errorf("line %d: bad dimension %q", line, val)
				}
				dim = n
			case "EDGE_WEIGHT_TYPE":
				if val != "EUC_2D" {
					return nil, fmt.Errorf("line %d: unsupported edge weight type %q", line, val)
				}
			case "NODE_COORD_SECTION":
				if dim < 0 {
					return nil, fmt.Errorf("line %d: coordinates before DIMENSION", line)
				}
				inCoords = true
				pts = make([]geom.Point, dim)
				seen = make([]bool, dim)
			}
			continue
		}

		fields := strings.Fields(s)
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: want 3 fields, got %d", line, len(fields))
		}
		idx, err := strconv.Atoi(fields[0])
		if err != nil || idx < 1 || idx > dim {
			return nil, fmt.Errorf("line %d: bad node index %q", line, fields[0])
		}
		x, errX := strconv.ParseFloat(fields[1], 64)
		y, errY := strconv.ParseFloat(fields[2], 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("line %d: bad coordinates", line)
		}
		if seen[idx-1] {
			return nil, fmt.Errorf("line %d: duplicate node %d", line, idx)
		}
		pts[idx-1] = geom.Point{X: x, Y: y}
		seen[idx-1] = true
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !inCoords {
		return nil, fmt.Errorf("missing NODE_COORD_SECTION")
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("node %d missing", i+1)
		}
	}
	return pts, nil
}
