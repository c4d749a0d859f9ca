package analysis

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"finsight/internal/dataprocessing"
	apperrors "finsight/internal/errors"
	"finsight/internal/stats"
	"finsight/pkg/contracts/domain"
)

const significanceLevel = 0.05

// Period is an inclusive time range
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies inside the period
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// SampleStats describes one period's values
type SampleStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// PeriodSample is one side of a comparison
type PeriodSample struct {
	Range Period      `json:"range"`
	Stats SampleStats `json:"stats"`
}

// TTest is a pooled-variance two-sample Student t-test
type TTest struct {
	TStatistic            float64 `json:"t_statistic"`
	PValue                float64 `json:"p_value"`
	DegreesOfFreedom      float64 `json:"degrees_of_freedom"`
	SignificantDifference bool    `json:"significant_difference"`
}

// ComparisonReport compares two periods of one value column
type ComparisonReport struct {
	ValueColumn    string       `json:"value_column"`
	Period1        PeriodSample `json:"period1"`
	Period2        PeriodSample `json:"period2"`
	MeanChangeRate float64      `json:"mean_change_rate"`
	TTest          *TTest       `json:"t_test"`
}

// ComparePeriods extracts the valid values of each period and compares them.
// The t-test runs only when both periods have more than two values and their
// pooled variance is non-zero.
func ComparePeriods(table *domain.Table, timeColumn, valueColumn string, p1, p2 Period) (*ComparisonReport, error) {
	valueCol, err := numericColumn(table, valueColumn)
	if err != nil {
		return nil, err
	}
	timeCol, err := dataprocessing.ResolveTimeColumn(table, timeColumn)
	if err != nil {
		return nil, err
	}

	pts := series(timeCol, valueCol)
	data1, data2 := inPeriod(pts, p1), inPeriod(pts, p2)
	if len(data1) == 0 || len(data2) == 0 {
		return nil, apperrors.NewInsufficientDataError("no data in range").
			WithContext("period1_count", len(data1)).
			WithContext("period2_count", len(data2))
	}

	s1, s2 := describeSample(data1), describeSample(data2)
	report := &ComparisonReport{
		ValueColumn: valueColumn,
		Period1:     PeriodSample{Range: p1, Stats: s1},
		Period2:     PeriodSample{Range: p2, Stats: s2},
	}
	if s1.Mean != 0 {
		report.MeanChangeRate = (s2.Mean - s1.Mean) / s1.Mean
	}
	if len(data1) > 2 && len(data2) > 2 {
		report.TTest = studentTTest(s1, s2)
	}
	return report, nil
}

func inPeriod(pts []point, p Period) []float64 {
	var out []float64
	for _, pt := range pts {
		if p.Contains(pt.At) {
			out = append(out, pt.Value)
		}
	}
	return out
}

func describeSample(vals []float64) SampleStats {
	return SampleStats{
		Count:  len(vals),
		Mean:   stats.Mean(vals),
		Median: stats.Median(vals),
		Std:    stats.StdDev(vals),
		Min:    stats.Min(vals),
		Max:    stats.Max(vals),
	}
}

// studentTTest returns nil when the pooled variance is zero
func studentTTest(s1, s2 SampleStats) *TTest {
	n1, n2 := float64(s1.Count), float64(s2.Count)
	df := n1 + n2 - 2
	pooled := ((n1-1)*s1.Std*s1.Std + (n2-1)*s2.Std*s2.Std) / df
	if pooled == 0 {
		return nil
	}

	t := (s1.Mean - s2.Mean) / math.Sqrt(pooled*(1/n1+1/n2))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.Survival(math.Abs(t))

	return &TTest{
		TStatistic:            t,
		PValue:                p,
		DegreesOfFreedom:      df,
		SignificantDifference: p < significanceLevel,
	}
}
