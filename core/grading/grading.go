// Package grading holds the pure marking policy: letter grade scales and
// the Pass/Fail cutoff rule. It has no dependencies on the rest of the app
// so report builders and the mark service can share it.
package grading

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Status is a mark's derived Pass/Fail state.
type Status string

const (
	StatusPass Status = "Pass"
	StatusFail Status = "Fail"
)

// Band maps a minimum percentage to a letter grade.
type Band struct {
	MinPercent float64
	Letter     string
}

// Scale is an ordered grade threshold table; evaluated highest-to-lowest,
// first band the percentage meets or exceeds wins.
type Scale struct {
	bands    []Band
	fallback string
}

// NewScale builds a Scale from the given bands; ordering of the input does
// not matter. fallback is the letter awarded below the lowest band.
func NewScale(bands []Band, fallback string) Scale {
	sorted := make([]Band, len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinPercent > sorted[j].MinPercent })
	return Scale{bands: sorted, fallback: fallback}
}

// DefaultScale is the standard school scale.
func DefaultScale() Scale {
	return NewScale([]Band{
		{90, "A+"},
		{80, "A"},
		{70, "B+"},
		{60, "B"},
		{50, "C+"},
		{40, "C"},
		{35, "D"},
	}, "F")
}

// ParseScale parses a configured scale of the form "90:A+,80:A,...,35:D;F"
// where the part after ";" is the fallback letter (defaults to "F").
func ParseScale(spec string) (Scale, error) {
	fallback := "F"
	if i := strings.LastIndex(spec, ";"); i >= 0 {
		if fb := strings.TrimSpace(spec[i+1:]); fb != "" {
			fallback = fb
		}
		spec = spec[:i]
	}

	var bands []Band
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			return Scale{}, errors.Errorf("grading: malformed band %q", part)
		}
		min, err := strconv.ParseFloat(strings.TrimSpace(kv[0]), 64)
		if err != nil {
			return Scale{}, errors.Wrapf(err, "grading: malformed band %q", part)
		}
		letter := strings.TrimSpace(kv[1])
		if letter == "" {
			return Scale{}, errors.Errorf("grading: malformed band %q", part)
		}
		bands = append(bands, Band{MinPercent: min, Letter: letter})
	}
	if len(bands) == 0 {
		return Scale{}, errors.New("grading: scale has no bands")
	}
	return NewScale(bands, fallback), nil
}

// GradeFor returns the letter for a percentage. Total: every percentage maps
// to a letter; values above the top band clamp into it.
func (s Scale) GradeFor(percent float64) string {
	for _, b := range s.bands {
		if percent >= b.MinPercent {
			return b.Letter
		}
	}
	return s.fallback
}

// StatusFor derives Pass/Fail from an obtained score and the subject's pass
// mark. Exact integer comparison; obtained == passMarks is a Pass.
func StatusFor(obtained, passMarks int) Status {
	if obtained >= passMarks {
		return StatusPass
	}
	return StatusFail
}

// Percent computes 100*obtained/max, guarding the zero denominator.
func Percent(obtained, max int) float64 {
	if max == 0 {
		return 0
	}
	// multiply before dividing: the product stays an exact integer so
	// round ratios like 55/100 come out exact
	return float64(obtained) * 100 / float64(max)
}

// Round2 rounds half-up to 2 decimal places; all reported percentages and
// averages go through this.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
