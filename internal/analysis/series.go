package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"finsight/internal/dataprocessing"
	apperrors "finsight/internal/errors"
	"finsight/pkg/contracts/domain"
)

// point is one row with a valid time and value
type point struct {
	At    time.Time
	Value float64
}

// numericColumn looks up name and coerces it to numeric
func numericColumn(table *domain.Table, name string) (*domain.Column, error) {
	col, ok := table.Column(name)
	if !ok {
		return nil, apperrors.NewInvalidParameterError(fmt.Sprintf("column not found: %s", name)).
			WithContext("column", name).
			WithContext("columns", table.ColumnNames())
	}
	return dataprocessing.CoerceNumeric(col), nil
}

// values returns the non-missing values of a numeric column, or
// INSUFFICIENT_DATA when there are none
func values(table *domain.Table, name string) ([]float64, error) {
	col, err := numericColumn(table, name)
	if err != nil {
		return nil, err
	}
	vals := col.Floats()
	if len(vals) == 0 {
		return nil, apperrors.NewInsufficientDataError(fmt.Sprintf("column %s has no valid values", name)).
			WithContext("column", name)
	}
	return vals, nil
}

// series pairs a time column with a value column, dropping rows where either
// is missing, ordered by time. Ties keep their row order.
func series(timeCol, valueCol *domain.Column) []point {
	points := make([]point, 0, timeCol.Len())
	for i := 0; i < timeCol.Len(); i++ {
		if timeCol.Times[i].IsZero() || math.IsNaN(valueCol.Numbers[i]) {
			continue
		}
		points = append(points, point{At: timeCol.Times[i], Value: valueCol.Numbers[i]})
	}
	sort.SliceStable(points, func(a, b int) bool {
		return points[a].At.Before(points[b].At)
	})
	return points
}

// splitColumns partitions names into those present in table and those missing
func splitColumns(table *domain.Table, names []string) (present, missing []string) {
	for _, name := range names {
		if table.HasColumn(name) {
			present = append(present, name)
		} else {
			missing = append(missing, name)
		}
	}
	return present, missing
}

func missingColumnsError(missing []string) *apperrors.AppError {
	return apperrors.NewInvalidParameterError(
		fmt.Sprintf("columns not found: %s", strings.Join(missing, ", "))).
		WithContext("missing", missing)
}

// nullable returns nil for NaN or infinite values
func nullable(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func ptr(f float64) *float64 {
	return &f
}

// direction classifies the sign of a slope
func direction(slope float64) string {
	switch {
	case slope > 0:
		return "rising"
	case slope < 0:
		return "falling"
	}
	return "flat"
}

// level classifies a score against strong/medium thresholds
func level(score, strong, medium float64) string {
	switch {
	case score > strong:
		return "strong"
	case score > medium:
		return "medium"
	}
	return "weak"
}
