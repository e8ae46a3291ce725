package pdfparser

import (
	"math"
	"sort"
	"strings"
)

// DefaultLineTolerance is the vertical distance, in points, within which runs
// belong to the same line.
const DefaultLineTolerance = 2.0

// GroupLines orders runs top to bottom and left to right and joins runs that
// share a baseline into one line of text, separated by single spaces.
func GroupLines(runs []Run, tolerance float64) []string {
	if len(runs) == 0 {
		return nil
	}
	if tolerance <= 0 {
		tolerance = DefaultLineTolerance
	}

	sorted := make([]Run, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y > sorted[j].Y
	})

	var lines []string
	var current []Run
	lineY := sorted[0].Y

	flush := func() {
		if len(current) == 0 {
			return
		}
		sort.SliceStable(current, func(i, j int) bool {
			return current[i].X < current[j].X
		})
		parts := make([]string, 0, len(current))
		for _, r := range current {
			if t := strings.TrimSpace(r.Text); t != "" {
				parts = append(parts, t)
			}
		}
		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, " "))
		}
		current = current[:0]
	}

	for _, r := range sorted {
		if math.Abs(r.Y-lineY) > tolerance {
			flush()
			lineY = r.Y
		}
		current = append(current, r)
	}
	flush()

	return lines
}
