package analysis

import (
	"fmt"
	"math"

	apperrors "finsight/internal/errors"
	"finsight/internal/stats"
	"finsight/pkg/contracts/domain"
)

// Outlier methods
const (
	OutlierIQR    = "iqr"
	OutlierZScore = "zscore"
)

const (
	iqrFactor       = 1.5
	zScoreThreshold = 3.0
)

// OutlierReport lists the values flagged by one detection method, in row order
type OutlierReport struct {
	Method            string    `json:"method"`
	Column            string    `json:"column"`
	LowerBound        *float64  `json:"lower_bound,omitempty"`
	UpperBound        *float64  `json:"upper_bound,omitempty"`
	Threshold         *float64  `json:"threshold,omitempty"`
	Outliers          []float64 `json:"outliers"`
	OutlierCount      int       `json:"outlier_count"`
	OutlierPercentage float64   `json:"outlier_percentage"`
}

// Outliers flags values outside Q1/Q3 ± 1.5×IQR (iqr) or with |z| > 3 (zscore).
// A constant column has no z-score outliers.
func Outliers(table *domain.Table, column, method string) (*OutlierReport, error) {
	if method == "" {
		method = OutlierIQR
	}
	if method != OutlierIQR && method != OutlierZScore {
		return nil, apperrors.NewInvalidParameterError(fmt.Sprintf("unsupported outlier method %q", method)).
			WithContext("supported", []string{OutlierIQR, OutlierZScore})
	}

	vals, err := values(table, column)
	if err != nil {
		return nil, err
	}

	report := &OutlierReport{Method: method, Column: column, Outliers: []float64{}}
	var flagged func(float64) bool

	switch method {
	case OutlierIQR:
		sorted := stats.Sorted(vals)
		q1, q3 := stats.Percentile(sorted, 0.25), stats.Percentile(sorted, 0.75)
		lower := q1 - iqrFactor*(q3-q1)
		upper := q3 + iqrFactor*(q3-q1)
		report.LowerBound, report.UpperBound = ptr(lower), ptr(upper)
		flagged = func(v float64) bool { return v < lower || v > upper }
	default:
		mean, std := stats.Mean(vals), stats.StdDev(vals)
		report.Threshold = ptr(zScoreThreshold)
		flagged = func(v float64) bool {
			return std > 0 && math.Abs((v-mean)/std) > zScoreThreshold
		}
	}

	for _, v := range vals {
		if flagged(v) {
			report.Outliers = append(report.Outliers, v)
		}
	}
	report.OutlierCount = len(report.Outliers)
	report.OutlierPercentage = float64(report.OutlierCount) / float64(len(vals)) * 100
	return report, nil
}
