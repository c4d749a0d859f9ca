package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	apperrors "finsight/internal/errors"
	"finsight/pkg/contracts/domain"
)

const strongCorrelation = 0.7

// CorrelationPair is a pair of columns whose |r| exceeds 0.7
type CorrelationPair struct {
	Var1        string  `json:"var1"`
	Var2        string  `json:"var2"`
	Correlation float64 `json:"correlation"`
	Strength    string  `json:"strength"`
}

// CorrelationReport is a Pearson correlation matrix. Undefined entries
// (fewer than two shared points, or a constant column) are null.
type CorrelationReport struct {
	Columns            []string                       `json:"columns"`
	Matrix             map[string]map[string]*float64 `json:"correlation_matrix"`
	StrongCorrelations []CorrelationPair              `json:"strong_correlations"`
}

// Correlation computes pairwise-complete correlations between numeric
// columns, every numeric column when columns is empty.
func Correlation(table *domain.Table, columns []string) (*CorrelationReport, error) {
	if len(columns) == 0 {
		for _, col := range table.Columns() {
			if col.Kind == domain.KindNumeric {
				columns = append(columns, col.Name)
			}
		}
		if len(columns) == 0 {
			return nil, apperrors.NewInvalidParameterError("table has no numeric columns")
		}
	}

	if _, missing := splitColumns(table, columns); len(missing) > 0 {
		return nil, missingColumnsError(missing)
	}

	cols := make([]*domain.Column, len(columns))
	for i, name := range columns {
		col, _ := table.Column(name)
		if col.Kind != domain.KindNumeric {
			return nil, apperrors.NewInvalidParameterError(fmt.Sprintf("column %s is not numeric", name)).
				WithContext("kind", col.Kind)
		}
		cols[i] = col
	}

	report := &CorrelationReport{
		Columns:            columns,
		Matrix:             make(map[string]map[string]*float64, len(columns)),
		StrongCorrelations: []CorrelationPair{},
	}
	for _, name := range columns {
		report.Matrix[name] = make(map[string]*float64, len(columns))
	}

	for i := range cols {
		for j := i; j < len(cols); j++ {
			r := pairwise(cols[i], cols[j])
			report.Matrix[columns[i]][columns[j]] = r
			report.Matrix[columns[j]][columns[i]] = r
			if i == j || r == nil || math.Abs(*r) <= strongCorrelation {
				continue
			}
			strength := "strong_positive"
			if *r < 0 {
				strength = "strong_negative"
			}
			report.StrongCorrelations = append(report.StrongCorrelations, CorrelationPair{
				Var1:        columns[i],
				Var2:        columns[j],
				Correlation: *r,
				Strength:    strength,
			})
		}
	}
	return report, nil
}

// pairwise correlates the rows where both columns have a value
func pairwise(a, b *domain.Column) *float64 {
	xs := make([]float64, 0, a.Len())
	ys := make([]float64, 0, a.Len())
	for i := 0; i < a.Len(); i++ {
		if math.IsNaN(a.Numbers[i]) || math.IsNaN(b.Numbers[i]) {
			continue
		}
		xs = append(xs, a.Numbers[i])
		ys = append(ys, b.Numbers[i])
	}
	if len(xs) < 2 {
		return nil
	}
	return nullable(stat.Correlation(xs, ys, nil))
}
