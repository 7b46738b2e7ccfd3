package neos

import (
	"strconv"
	"strings"

	"github.com/matzehuels/tspstudio/pkg/errors"
)

// DecodeTour extracts the tour from a solver report.
//
// The tour is the trailing block of lines made only of numeric tokens. Its
// first line is a header and is dropped. If the first remaining line has
// exactly three tokens, each line is "node next cost" and the tour is the
// first token of every line; otherwise the lines are packed index lists and
// all tokens are concatenated.
func DecodeTour(report string) ([]int, error) {
	var lines []string
	for _, l := range strings.Split(report, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	start := len(lines)
	for start > 0 && numericLine(lines[start-1]) {
		start--
	}
	block := lines[start:]
	if len(block) == 0 {
		return nil, noData(report)
	}
	block = block[1:]
	if len(block) == 0 {
		return nil, noData(report)
	}

	short := len(strings.Fields(block[0])) == 3
	var tour []int
	for _, l := range block {
		fields := strings.Fields(l)
		if short {
			fields = fields[:1]
		}
		for _, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, noData(report)
			}
			tour = append(tour, v)
		}
	}
	return tour, nil
}

func numericLine(l string) bool {
	fields := strings.Fields(l)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		for _, r := range f {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

func noData(report string) error {
	return errors.Wrap(errors.ErrCodeNoData,
		&errors.ServiceError{Code: errors.ErrCodeNoData, Response: report},
		"solver returned no tour")
}
