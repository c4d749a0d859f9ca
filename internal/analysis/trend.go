package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"finsight/internal/dataprocessing"
	apperrors "finsight/internal/errors"
	"finsight/pkg/contracts/domain"
)

// Trend methods
const (
	TrendLinear        = "linear"
	TrendMovingAverage = "moving_average"
)

const maxMovingAverageWindow = 12

// ColumnTrend is the trend of one value column. Error is set instead of the
// statistics when the column has too few valid points.
type ColumnTrend struct {
	TrendType  string   `json:"trend_type"`
	Points     int      `json:"points"`
	Slope      *float64 `json:"slope,omitempty"`
	Intercept  *float64 `json:"intercept,omitempty"`
	RSquared   *float64 `json:"r_squared,omitempty"`
	Direction  string   `json:"direction,omitempty"`
	Strength   string   `json:"trend_strength,omitempty"`
	WindowSize int      `json:"window_size,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// TrendReport holds one ColumnTrend per analyzed column
type TrendReport struct {
	Method         string                 `json:"method"`
	TimeColumn     string                 `json:"time_column"`
	Columns        map[string]ColumnTrend `json:"columns"`
	MissingColumns []string               `json:"missing_columns,omitempty"`
}

// Trend fits each value column against the index positions of its valid,
// time-ordered points. Missing value columns are listed and skipped; it fails
// only when none of them exist.
func Trend(table *domain.Table, timeColumn string, valueColumns []string, method string) (*TrendReport, error) {
	if method == "" {
		method = TrendLinear
	}
	if method != TrendLinear && method != TrendMovingAverage {
		return nil, apperrors.NewInvalidParameterError(fmt.Sprintf("unsupported trend method %q", method))
	}

	present, missing := splitColumns(table, valueColumns)
	if len(present) == 0 {
		return nil, missingColumnsError(missing)
	}

	timeCol, err := dataprocessing.ResolveTimeColumn(table, timeColumn)
	if err != nil {
		return nil, err
	}

	report := &TrendReport{
		Method:         method,
		TimeColumn:     timeCol.Name,
		Columns:        make(map[string]ColumnTrend, len(present)),
		MissingColumns: missing,
	}
	for _, name := range present {
		col, err := numericColumn(table, name)
		if err != nil {
			return nil, err
		}
		pts := series(timeCol, col)
		ys := make([]float64, len(pts))
		for i, p := range pts {
			ys[i] = p.Value
		}

		if method == TrendLinear {
			report.Columns[name] = linearTrend(ys)
		} else {
			report.Columns[name] = movingAverageTrend(ys)
		}
	}
	return report, nil
}

func linearTrend(ys []float64) ColumnTrend {
	result := ColumnTrend{TrendType: TrendLinear, Points: len(ys)}
	if len(ys) < 2 {
		result.Error = fmt.Sprintf("insufficient data: %d valid points, need at least 2", len(ys))
		return result
	}

	intercept, slope, r2 := fitLine(ys)
	result.Slope = ptr(slope)
	result.Intercept = ptr(intercept)
	result.RSquared = ptr(r2)
	result.Direction = direction(slope)
	result.Strength = level(math.Abs(r2), 0.7, 0.3)
	return result
}

func movingAverageTrend(ys []float64) ColumnTrend {
	result := ColumnTrend{TrendType: TrendMovingAverage, Points: len(ys)}
	window := min(maxMovingAverageWindow, len(ys)/3)
	if len(ys) < 2 || window < 1 {
		result.Error = fmt.Sprintf("insufficient data: %d valid points, need at least 3", len(ys))
		return result
	}

	_, slope, _ := fitLine(movingAverage(ys, window))
	result.WindowSize = window
	result.Slope = ptr(slope)
	result.Direction = direction(slope)
	return result
}

// fitLine regresses ys on 0..n-1. R² is 0 when ys has no variance.
func fitLine(ys []float64) (intercept, slope, r2 float64) {
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}
	intercept, slope = stat.LinearRegression(xs, ys, nil, false)

	mean := stat.Mean(ys, nil)
	var ssTot, ssRes float64
	for i, y := range ys {
		fit := intercept + slope*xs[i]
		ssTot += (y - mean) * (y - mean)
		ssRes += (y - fit) * (y - fit)
	}
	if ssTot != 0 {
		r2 = 1 - ssRes/ssTot
	}
	return intercept, slope, r2
}

// movingAverage returns the trailing means of every full window
func movingAverage(ys []float64, window int) []float64 {
	out := make([]float64, 0, len(ys)-window+1)
	var sum float64
	for i, y := range ys {
		sum += y
		if i >= window {
			sum -= ys[i-window]
		}
		if i >= window-1 {
			out = append(out, sum/float64(window))
		}
	}
	return out
}
