package analysis

import (
	"fmt"
	"sort"
	"time"

	"finsight/internal/dataprocessing"
	apperrors "finsight/internal/errors"
	"finsight/internal/stats"
	"finsight/pkg/contracts/domain"
)

// Seasonality periods
const (
	PeriodYear    = "year"
	PeriodQuarter = "quarter"
	PeriodMonth   = "month"
)

var periodKeys = map[string]func(time.Time) int{
	PeriodYear:    func(t time.Time) int { return t.Year() },
	PeriodQuarter: func(t time.Time) int { return (int(t.Month())-1)/3 + 1 },
	PeriodMonth:   func(t time.Time) int { return int(t.Month()) },
}

// PeriodStats describes one period bucket
type PeriodStats struct {
	Period int     `json:"period"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// SeasonalityReport summarizes how much per-bucket dispersion varies across buckets
type SeasonalityReport struct {
	PeriodType          string        `json:"period_type"`
	TimeColumn          string        `json:"time_column"`
	ValueColumn         string        `json:"value_column"`
	Periods             []PeriodStats `json:"period_stats"`
	SeasonalityStrength float64       `json:"seasonality_strength"`
	SeasonalityLevel    string        `json:"seasonality_level"`
}

// Seasonality buckets valid points by calendar period. Strength is the
// coefficient of variation of the per-bucket coefficients of variation.
// Buckets with fewer than two points or a zero mean contribute no
// coefficient; fewer than two contributing buckets give strength 0.
func Seasonality(table *domain.Table, timeColumn, valueColumn, period string) (*SeasonalityReport, error) {
	if period == "" {
		period = PeriodYear
	}
	key, ok := periodKeys[period]
	if !ok {
		return nil, apperrors.NewInvalidParameterError(fmt.Sprintf("unsupported period %q", period)).
			WithContext("supported", []string{PeriodYear, PeriodQuarter, PeriodMonth})
	}

	valueCol, err := numericColumn(table, valueColumn)
	if err != nil {
		return nil, err
	}
	timeCol, err := dataprocessing.ResolveTimeColumn(table, timeColumn)
	if err != nil {
		return nil, err
	}

	pts := series(timeCol, valueCol)
	if len(pts) == 0 {
		return nil, apperrors.NewInsufficientDataError("no rows with both a valid time and value").
			WithContext("column", valueColumn)
	}

	buckets := make(map[int][]float64)
	for _, p := range pts {
		k := key(p.At)
		buckets[k] = append(buckets[k], p.Value)
	}
	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	report := &SeasonalityReport{
		PeriodType:  period,
		TimeColumn:  timeCol.Name,
		ValueColumn: valueColumn,
		Periods:     make([]PeriodStats, 0, len(keys)),
	}
	var cvs []float64
	for _, k := range keys {
		vals := buckets[k]
		ps := PeriodStats{
			Period: k,
			Count:  len(vals),
			Mean:   stats.Mean(vals),
			Std:    stats.StdDev(vals),
			Min:    stats.Min(vals),
			Max:    stats.Max(vals),
		}
		report.Periods = append(report.Periods, ps)
		if ps.Count >= 2 && ps.Mean != 0 {
			cvs = append(cvs, ps.Std/ps.Mean)
		}
	}

	if len(cvs) >= 2 {
		if m := stats.Mean(cvs); m != 0 {
			report.SeasonalityStrength = stats.Finite(stats.StdDev(cvs)/m, 0)
		}
	}
	report.SeasonalityLevel = level(report.SeasonalityStrength, 0.5, 0.2)
	return report, nil
}
