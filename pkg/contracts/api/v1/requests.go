// Package api contains the request contracts of the finsight analysis service.
// Version v1 represents the current stable API version.
package api

import "fmt"

// Common request parameters

// DatasetRef names the dataset a request operates on
type DatasetRef struct {
	Dataset string `json:"dataset" validate:"required,dataset"`
	Sheet   string `json:"sheet,omitempty"`
}

// DateRange is an optional, inclusive time window
type DateRange struct {
	From string `json:"from,omitempty" validate:"omitempty,datestr"`
	To   string `json:"to,omitempty" validate:"omitempty,datestr"`
}

// PeriodRange is a required, inclusive time window
type PeriodRange struct {
	Start string `json:"start" validate:"required,datestr"`
	End   string `json:"end" validate:"required,datestr"`
}

// Data API Requests

// SummaryRequest asks for the shape, statistics and a text preview of a dataset
type SummaryRequest struct {
	DatasetRef
	PreviewRows int `json:"preview_rows,omitempty" validate:"omitempty,min=1,max=100"`
}

// InfoRequest asks for a dataset's shape, column kinds and null counts
type InfoRequest struct {
	DatasetRef
}

// QueryRequest filters, projects and limits a dataset
type QueryRequest struct {
	DatasetRef
	Filters map[string]interface{} `json:"filters,omitempty"`
	Columns []string               `json:"columns,omitempty" validate:"omitempty,dive,required"`
	Limit   int                    `json:"limit,omitempty" validate:"min=0"`
}

// TimeSeriesRequest slices a dataset by time
type TimeSeriesRequest struct {
	DatasetRef
	TimeColumn   string    `json:"time_column"`
	ValueColumns []string  `json:"value_columns,omitempty" validate:"omitempty,dive,required"`
	Range        DateRange `json:"range"`
}

// AggregateRequest groups a dataset and aggregates value columns
type AggregateRequest struct {
	DatasetRef
	GroupBy      []string `json:"group_by" validate:"required,min=1,dive,required"`
	ValueColumns []string `json:"value_columns" validate:"required,min=1,dive,required"`
	Funcs        []string `json:"funcs" validate:"required,min=1,dive,oneof=sum mean count min max median std"`
}

// RatioDef defines one derived ratio column
type RatioDef struct {
	Name        string `json:"name,omitempty"`
	Numerator   string `json:"numerator" validate:"required"`
	Denominator string `json:"denominator" validate:"required"`
}

// RatiosRequest derives ratio columns from a dataset
type RatiosRequest struct {
	DatasetRef
	Ratios []RatioDef `json:"ratios" validate:"required,min=1,dive"`
	Limit  int        `json:"limit,omitempty" validate:"min=0"`
}

// Analysis API Requests

// AnalysisKind is the closed set of statistics engine operations
type AnalysisKind string

const (
	KindTrend          AnalysisKind = "trend"
	KindSeasonality    AnalysisKind = "seasonality"
	KindComparePeriods AnalysisKind = "compare_periods"
	KindDistribution   AnalysisKind = "distribution"
	KindCorrelation    AnalysisKind = "correlation"
	KindOutliers       AnalysisKind = "outliers"
	KindSummary        AnalysisKind = "summary"
)

// AnalysisKinds lists every supported kind
func AnalysisKinds() []AnalysisKind {
	return []AnalysisKind{
		KindTrend, KindSeasonality, KindComparePeriods, KindDistribution,
		KindCorrelation, KindOutliers, KindSummary,
	}
}

// TrendParams configures a trend analysis
type TrendParams struct {
	TimeColumn   string   `json:"time_column"`
	ValueColumns []string `json:"value_columns" validate:"required,min=1,dive,required"`
	Method       string   `json:"method,omitempty" validate:"omitempty,oneof=linear moving_average"`
}

// SeasonalityParams configures a seasonality analysis
type SeasonalityParams struct {
	TimeColumn  string `json:"time_column"`
	ValueColumn string `json:"value_column" validate:"required"`
	Period      string `json:"period,omitempty" validate:"omitempty,oneof=year quarter month"`
}

// ComparePeriodsParams configures a two-period comparison
type ComparePeriodsParams struct {
	TimeColumn  string      `json:"time_column"`
	ValueColumn string      `json:"value_column" validate:"required"`
	Period1     PeriodRange `json:"period1"`
	Period2     PeriodRange `json:"period2"`
}

// DistributionParams configures a distribution analysis
type DistributionParams struct {
	Column string `json:"column" validate:"required"`
}

// CorrelationParams configures a correlation matrix. Empty Columns means every numeric column.
type CorrelationParams struct {
	Columns []string `json:"columns,omitempty" validate:"omitempty,dive,required"`
}

// OutlierParams configures outlier detection
type OutlierParams struct {
	Column string `json:"column" validate:"required"`
	Method string `json:"method,omitempty" validate:"omitempty,oneof=iqr zscore"`
}

// SummaryParams configures a summary report
type SummaryParams struct {
	PreviewRows int `json:"preview_rows,omitempty" validate:"omitempty,min=1,max=100"`
}

// AnalysisRequest is a tagged variant: Kind selects which params field is read.
type AnalysisRequest struct {
	DatasetRef
	Kind AnalysisKind `json:"kind" validate:"required,oneof=trend seasonality compare_periods distribution correlation outliers summary"`

	Trend          *TrendParams          `json:"trend,omitempty"`
	Seasonality    *SeasonalityParams    `json:"seasonality,omitempty"`
	ComparePeriods *ComparePeriodsParams `json:"compare_periods,omitempty"`
	Distribution   *DistributionParams   `json:"distribution,omitempty"`
	Correlation    *CorrelationParams    `json:"correlation,omitempty"`
	Outliers       *OutlierParams        `json:"outliers,omitempty"`
	Summary        *SummaryParams        `json:"summary,omitempty"`
}

// Params returns the params selected by Kind. Correlation and summary
// params are optional and default to their zero value.
func (r AnalysisRequest) Params() (interface{}, error) {
	var (
		params interface{}
		ok     bool
	)
	switch r.Kind {
	case KindTrend:
		params, ok = r.Trend, r.Trend != nil
	case KindSeasonality:
		params, ok = r.Seasonality, r.Seasonality != nil
	case KindComparePeriods:
		params, ok = r.ComparePeriods, r.ComparePeriods != nil
	case KindDistribution:
		params, ok = r.Distribution, r.Distribution != nil
	case KindOutliers:
		params, ok = r.Outliers, r.Outliers != nil
	case KindCorrelation:
		if r.Correlation == nil {
			return &CorrelationParams{}, nil
		}
		return r.Correlation, nil
	case KindSummary:
		if r.Summary == nil {
			return &SummaryParams{}, nil
		}
		return r.Summary, nil
	default:
		return nil, fmt.Errorf("unsupported analysis kind %q", r.Kind)
	}
	if !ok {
		return nil, fmt.Errorf("analysis kind %q requires %q params", r.Kind, r.Kind)
	}
	return params, nil
}

// BatchRequest runs independent analyses; results keep request order.
// Each request is validated on its own so one bad request fails alone.
type BatchRequest struct {
	Requests []AnalysisRequest `json:"requests" validate:"required,min=1"`
}
