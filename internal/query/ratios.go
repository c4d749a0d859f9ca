package query

import (
	"fmt"
	"math"
	"strconv"

	"finsight/internal/dataprocessing"
	apperrors "finsight/internal/errors"
	"finsight/pkg/contracts/domain"
)

// RatioSpec defines one derived column as numerator / denominator
type RatioSpec struct {
	Name        string `json:"name"`
	Numerator   string `json:"numerator"`
	Denominator string `json:"denominator"`
}

// DeriveRatios appends one column per spec. A zero or missing denominator,
// or a missing numerator, yields a missing cell.
func DeriveRatios(table *domain.Table, specs []RatioSpec) (*domain.Table, error) {
	if len(specs) == 0 {
		return nil, apperrors.NewInvalidParameterError("no ratios requested")
	}

	result := table
	for _, spec := range specs {
		num, okNum := table.Column(spec.Numerator)
		den, okDen := table.Column(spec.Denominator)
		if !okNum || !okDen {
			return nil, apperrors.NewInvalidParameterError(
				fmt.Sprintf("ratio %q references missing columns", ratioName(spec))).
				WithContext("numerator", spec.Numerator).
				WithContext("denominator", spec.Denominator)
		}
		num = dataprocessing.CoerceNumeric(num)
		den = dataprocessing.CoerceNumeric(den)

		raw := make([]string, table.Rows())
		values := make([]float64, table.Rows())
		for i := range values {
			n, d := num.Numbers[i], den.Numbers[i]
			if math.IsNaN(n) || math.IsNaN(d) || d == 0 {
				values[i] = math.NaN()
				continue
			}
			values[i] = n / d
			raw[i] = strconv.FormatFloat(values[i], 'f', -1, 64)
		}

		var err error
		result, err = result.WithColumn(domain.NewNumericColumn(ratioName(spec), raw, values))
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func ratioName(spec RatioSpec) string {
	if spec.Name != "" {
		return spec.Name
	}
	return spec.Numerator + "/" + spec.Denominator
}
