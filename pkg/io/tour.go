package io

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// WriteTour writes one index per line.
func WriteTour(tour []int, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, idx := range tour {
		if _, err := fmt.Fprintln(bw, idx); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadTour reads a tour file. It does not check that the result is a
// permutation; callers know the point count.
func ReadTour(r io.Reader) ([]int, error) {
	var tour []int
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		tour = append(tour, v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return tour, nil
}

// ExportTour writes a tour file at path.
func ExportTour(tour []int, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteTour(tour, f)
}

// ImportTour reads a tour file at path.
func ImportTour(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadTour(f)
}
