package dataprocessing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"finsight/pkg/contracts/domain"
)

// dateLayouts is the ordered layout chain used for inference and coercion
var dateLayouts = []string{
	"2006/01/02",
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/1/2",
	"2006-1-2",
	"2006.01.02",
	"2006年1月2日",
	"2006年1月",
	"2006-01",
	"2006/01",
	"01/02/2006",
	"01-02-06",
	"20060102",
}

// yearLayout is only used when coercing, so year columns load as numeric
const yearLayout = "2006"

var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"none": true,
	"#n/a": true,
	"--":   true,
}

// IsMissing reports whether a cell denotes a missing value
func IsMissing(cell string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(cell))]
}

// thousandsPattern matches numbers grouped in threes, such as 1,234,567.89
var thousandsPattern = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// ParseNumber parses a numeric cell, tolerating surrounding spaces and
// thousands separators. Non-finite values are rejected.
func ParseNumber(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ",") {
		if !thousandsPattern.MatchString(s) {
			return 0, false
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseTime parses a cell with the first matching layout of the chain,
// accepting a bare four-digit year as January 1st of that year.
func ParseTime(cell string) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if len(s) == 4 {
		if t, err := time.Parse(yearLayout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// InferColumn types raw cells as numeric, temporal or text.
// Missing markers are normalized to empty cells.
func InferColumn(name string, raw []string) *domain.Column {
	cells := make([]string, len(raw))
	present := 0
	for i, c := range raw {
		if IsMissing(c) {
			continue
		}
		cells[i] = c
		present++
	}
	if present == 0 {
		return domain.NewTextColumn(name, cells)
	}

	if numbers, ok := inferNumbers(cells); ok {
		return domain.NewNumericColumn(name, cells, numbers)
	}
	if times, ok := inferTimes(cells); ok {
		return domain.NewTemporalColumn(name, cells, times)
	}
	return domain.NewTextColumn(name, cells)
}

func inferNumbers(cells []string) ([]float64, bool) {
	numbers := make([]float64, len(cells))
	for i, c := range cells {
		if c == "" {
			numbers[i] = math.NaN()
			continue
		}
		v, ok := ParseNumber(c)
		if !ok {
			return nil, false
		}
		numbers[i] = v
	}
	return numbers, true
}

// inferTimes tries each layout across the whole column before falling back
// to mixed per-cell parsing.
func inferTimes(cells []string) ([]time.Time, bool) {
	for _, layout := range dateLayouts {
		if times, ok := parseAll(cells, func(s string) (time.Time, bool) {
			t, err := time.Parse(layout, strings.TrimSpace(s))
			return t, err == nil
		}); ok {
			return times, true
		}
	}
	return parseAll(cells, func(s string) (time.Time, bool) {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	})
}

func parseAll(cells []string, parse func(string) (time.Time, bool)) ([]time.Time, bool) {
	times := make([]time.Time, len(cells))
	for i, c := range cells {
		if c == "" {
			continue
		}
		t, ok := parse(c)
		if !ok {
			return nil, false
		}
		times[i] = t
	}
	return times, true
}

// CoerceTemporal returns col as a temporal column. Cells that do not parse
// become missing. Temporal columns are returned unchanged.
func CoerceTemporal(col *domain.Column) *domain.Column {
	if col.Kind == domain.KindTemporal {
		return col
	}
	times := make([]time.Time, col.Len())
	for i, c := range col.Raw {
		if t, ok := ParseTime(c); ok {
			times[i] = t
		}
	}
	return domain.NewTemporalColumn(col.Name, col.Raw, times)
}

// CoerceNumeric returns col as a numeric column; unparseable cells become NaN.
func CoerceNumeric(col *domain.Column) *domain.Column {
	if col.Kind == domain.KindNumeric {
		return col
	}
	numbers := make([]float64, col.Len())
	for i, c := range col.Raw {
		if v, ok := ParseNumber(c); ok {
			numbers[i] = v
		} else {
			numbers[i] = math.NaN()
		}
	}
	return domain.NewNumericColumn(col.Name, col.Raw, numbers)
}
