package analysis

import (
	"fmt"

	"finsight/internal/dataprocessing"
	apperrors "finsight/internal/errors"
	api "finsight/pkg/contracts/api/v1"
	"finsight/pkg/contracts/domain"
)

// Run dispatches req to the analysis selected by its kind
func Run(table *domain.Table, req api.AnalysisRequest) (interface{}, error) {
	params, err := req.Params()
	if err != nil {
		return nil, apperrors.NewInvalidParameterError(err.Error()).WithContext("kind", req.Kind)
	}

	switch p := params.(type) {
	case *api.TrendParams:
		return Trend(table, p.TimeColumn, p.ValueColumns, p.Method)
	case *api.SeasonalityParams:
		return Seasonality(table, p.TimeColumn, p.ValueColumn, p.Period)
	case *api.ComparePeriodsParams:
		p1, err := ParsePeriod(p.Period1)
		if err != nil {
			return nil, err
		}
		p2, err := ParsePeriod(p.Period2)
		if err != nil {
			return nil, err
		}
		return ComparePeriods(table, p.TimeColumn, p.ValueColumn, p1, p2)
	case *api.DistributionParams:
		return Distribution(table, p.Column)
	case *api.CorrelationParams:
		return Correlation(table, p.Columns)
	case *api.OutlierParams:
		return Outliers(table, p.Column, p.Method)
	case *api.SummaryParams:
		return Summarize(table, p.PreviewRows), nil
	}
	return nil, apperrors.NewInvalidParameterError(fmt.Sprintf("unsupported analysis kind %q", req.Kind))
}

// ParsePeriod parses an inclusive date range with the loader's date layouts
func ParsePeriod(r api.PeriodRange) (Period, error) {
	start, ok := dataprocessing.ParseTime(r.Start)
	if !ok {
		return Period{}, apperrors.NewInvalidParameterError(fmt.Sprintf("invalid start date %q", r.Start))
	}
	end, ok := dataprocessing.ParseTime(r.End)
	if !ok {
		return Period{}, apperrors.NewInvalidParameterError(fmt.Sprintf("invalid end date %q", r.End))
	}
	if end.Before(start) {
		return Period{}, apperrors.NewInvalidParameterError(
			fmt.Sprintf("period ends before it starts: %s > %s", r.Start, r.End))
	}
	return Period{Start: start, End: end}, nil
}
