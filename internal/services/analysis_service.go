package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"finsight/internal/analysis"
	"finsight/internal/dataprocessing"
	apperrors "finsight/internal/errors"
	"finsight/internal/infrastructure"
	"finsight/internal/loader"
	"finsight/internal/query"
	api "finsight/pkg/contracts/api/v1"
	"finsight/pkg/contracts/domain"
)

const defaultBatchConcurrency = 4

// operationNames maps analysis kinds to the operation label used in spans and metrics
var operationNames = map[api.AnalysisKind]string{
	api.KindTrend:          "analyze_trend",
	api.KindSeasonality:    "analyze_seasonality",
	api.KindComparePeriods: "compare_periods",
	api.KindDistribution:   "analyze_distribution",
	api.KindCorrelation:    "correlation_matrix",
	api.KindOutliers:       "detect_outliers",
	api.KindSummary:        "get_summary",
}

// Options configures an AnalysisService
type Options struct {
	PreviewRows      int
	BatchConcurrency int
	Telemetry        *infrastructure.Telemetry
}

// AnalysisService is the request surface over the loader, the query layer and
// the statistics engine. Every method returns a domain.Result; failures never
// escape as errors or panics.
type AnalysisService struct {
	loader    *loader.Loader
	querier   *query.Querier
	validator *RequestValidator
	tracer    trace.Tracer
	metrics   *infrastructure.ServiceMetrics
	logger    *slog.Logger

	previewRows      int
	batchConcurrency int
}

// NewAnalysisService creates the service over l
func NewAnalysisService(l *loader.Loader, opts Options, logger *slog.Logger) (*AnalysisService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tel := opts.Telemetry
	if tel == nil {
		tel = infrastructure.NoopTelemetry()
	}

	meter := tel.Meter()
	metrics, err := infrastructure.CreateServiceMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create service metrics: %w", err)
	}
	if err := registerCacheMetrics(meter, l); err != nil {
		return nil, fmt.Errorf("failed to register cache metrics: %w", err)
	}

	s := &AnalysisService{
		loader:           l,
		querier:          query.New(logger),
		validator:        NewRequestValidator(),
		tracer:           tel.Tracer(),
		metrics:          metrics,
		logger:           logger.With(slog.String("component", "analysis_service")),
		previewRows:      opts.PreviewRows,
		batchConcurrency: opts.BatchConcurrency,
	}
	if s.previewRows <= 0 {
		s.previewRows = analysis.DefaultPreviewRows
	}
	if s.batchConcurrency <= 0 {
		s.batchConcurrency = defaultBatchConcurrency
	}
	return s, nil
}

// TableResult is the payload of operations that return rows
type TableResult struct {
	Dataset string           `json:"dataset"`
	Rows    int              `json:"rows"`
	Columns []string         `json:"columns"`
	Records []map[string]any `json:"records"`
	Notes   query.Notes      `json:"notes"`

	// Table is the result table itself, for callers that export it
	Table *domain.Table `json:"-"`
}

func newTableResult(dataset string, table *domain.Table, notes query.Notes) *TableResult {
	return &TableResult{
		Dataset: dataset,
		Rows:    table.Rows(),
		Columns: table.ColumnNames(),
		Records: table.RowMaps(),
		Notes:   notes,
		Table:   table,
	}
}

// GetSummary returns shape, column statistics and a text preview of a dataset
func (s *AnalysisService) GetSummary(ctx context.Context, req api.SummaryRequest) domain.Result {
	return s.observe(ctx, "get_summary", req, func(ctx context.Context) (interface{}, error) {
		table, err := s.load(ctx, req.DatasetRef)
		if err != nil {
			return nil, err
		}
		rows := req.PreviewRows
		if rows <= 0 {
			rows = s.previewRows
		}
		return analysis.Summarize(table, rows), nil
	})
}

// GetInfo returns shape, column kinds and null counts of a dataset
func (s *AnalysisService) GetInfo(ctx context.Context, req api.InfoRequest) domain.Result {
	return s.observe(ctx, "get_info", req, func(ctx context.Context) (interface{}, error) {
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("finsight.dataset", req.Dataset))
		return s.loader.Info(ctx, req.Dataset)
	})
}

// Query filters, projects and limits a dataset
func (s *AnalysisService) Query(ctx context.Context, req api.QueryRequest) domain.Result {
	return s.observe(ctx, "query", req, func(ctx context.Context) (interface{}, error) {
		table, err := s.load(ctx, req.DatasetRef)
		if err != nil {
			return nil, err
		}
		result, notes := s.querier.Query(ctx, table, query.Filters(req.Filters), req.Columns, req.Limit)
		return newTableResult(req.Dataset, result, notes), nil
	})
}

// TimeSeries returns the rows of a dataset inside a time window, ordered by time
func (s *AnalysisService) TimeSeries(ctx context.Context, req api.TimeSeriesRequest) domain.Result {
	return s.observe(ctx, "time_series", req, func(ctx context.Context) (interface{}, error) {
		table, err := s.load(ctx, req.DatasetRef)
		if err != nil {
			return nil, err
		}
		window := query.Window{
			Start: parseBound(req.Range.From),
			End:   parseBound(req.Range.To),
		}
		result, notes, err := s.querier.TimeSlice(ctx, table, req.TimeColumn, req.ValueColumns, window)
		if err != nil {
			return nil, err
		}
		return newTableResult(req.Dataset, result, notes), nil
	})
}

// AnalyzeTrend fits a trend to each value column
func (s *AnalysisService) AnalyzeTrend(ctx context.Context, ref api.DatasetRef, params api.TrendParams) domain.Result {
	return s.Run(ctx, api.AnalysisRequest{DatasetRef: ref, Kind: api.KindTrend, Trend: &params})
}

// AnalyzeSeasonality measures seasonality by calendar period
func (s *AnalysisService) AnalyzeSeasonality(ctx context.Context, ref api.DatasetRef, params api.SeasonalityParams) domain.Result {
	return s.Run(ctx, api.AnalysisRequest{DatasetRef: ref, Kind: api.KindSeasonality, Seasonality: &params})
}

// ComparePeriods compares a value column across two date ranges
func (s *AnalysisService) ComparePeriods(ctx context.Context, ref api.DatasetRef, params api.ComparePeriodsParams) domain.Result {
	return s.Run(ctx, api.AnalysisRequest{DatasetRef: ref, Kind: api.KindComparePeriods, ComparePeriods: &params})
}

// AnalyzeDistribution characterizes one numeric column
func (s *AnalysisService) AnalyzeDistribution(ctx context.Context, ref api.DatasetRef, params api.DistributionParams) domain.Result {
	return s.Run(ctx, api.AnalysisRequest{DatasetRef: ref, Kind: api.KindDistribution, Distribution: &params})
}

// CorrelationMatrix correlates numeric columns
func (s *AnalysisService) CorrelationMatrix(ctx context.Context, ref api.DatasetRef, params api.CorrelationParams) domain.Result {
	return s.Run(ctx, api.AnalysisRequest{DatasetRef: ref, Kind: api.KindCorrelation, Correlation: &params})
}

// DetectOutliers flags outliers in one numeric column
func (s *AnalysisService) DetectOutliers(ctx context.Context, ref api.DatasetRef, params api.OutlierParams) domain.Result {
	return s.Run(ctx, api.AnalysisRequest{DatasetRef: ref, Kind: api.KindOutliers, Outliers: &params})
}

// Run executes one tagged analysis request
func (s *AnalysisService) Run(ctx context.Context, req api.AnalysisRequest) domain.Result {
	operation, ok := operationNames[req.Kind]
	if !ok {
		operation = "run"
	}
	return s.observe(ctx, operation, req, func(ctx context.Context) (interface{}, error) {
		table, err := s.load(ctx, req.DatasetRef)
		if err != nil {
			return nil, err
		}
		if req.Kind == api.KindSummary && (req.Summary == nil || req.Summary.PreviewRows <= 0) {
			req.Summary = &api.SummaryParams{PreviewRows: s.previewRows}
		}
		return analysis.Run(table, req)
	})
}

// Aggregate groups a dataset and aggregates value columns
func (s *AnalysisService) Aggregate(ctx context.Context, req api.AggregateRequest) domain.Result {
	return s.observe(ctx, "aggregate", req, func(ctx context.Context) (interface{}, error) {
		table, err := s.load(ctx, req.DatasetRef)
		if err != nil {
			return nil, err
		}
		funcs := make([]query.AggFunc, len(req.Funcs))
		for i, f := range req.Funcs {
			funcs[i] = query.AggFunc(f)
		}
		result, err := query.Aggregate(table, req.GroupBy, req.ValueColumns, funcs)
		if err != nil {
			return nil, err
		}
		return newTableResult(req.Dataset, result, query.Notes{}), nil
	})
}

// FinancialRatios appends ratio columns to a dataset
func (s *AnalysisService) FinancialRatios(ctx context.Context, req api.RatiosRequest) domain.Result {
	return s.observe(ctx, "financial_ratios", req, func(ctx context.Context) (interface{}, error) {
		table, err := s.load(ctx, req.DatasetRef)
		if err != nil {
			return nil, err
		}
		specs := make([]query.RatioSpec, len(req.Ratios))
		for i, r := range req.Ratios {
			specs[i] = query.RatioSpec{Name: r.Name, Numerator: r.Numerator, Denominator: r.Denominator}
		}
		result, err := query.DeriveRatios(table, specs)
		if err != nil {
			return nil, err
		}
		return newTableResult(req.Dataset, result.Head(req.Limit), query.Notes{}), nil
	})
}

// ListDatasets lists the data files in the root and every configured alias
func (s *AnalysisService) ListDatasets(ctx context.Context) domain.Result {
	return s.observe(ctx, "list_datasets", nil, func(ctx context.Context) (interface{}, error) {
		return s.loader.Catalog()
	})
}

// CacheStats returns the loader's cache counters
func (s *AnalysisService) CacheStats() loader.Stats {
	return s.loader.Stats()
}

func (s *AnalysisService) load(ctx context.Context, ref api.DatasetRef) (*domain.Table, error) {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("finsight.dataset", ref.Dataset),
		attribute.String("finsight.sheet", ref.Sheet),
	)
	return s.loader.Load(ctx, ref.Dataset, loader.Options{Sheet: ref.Sheet})
}

// observe validates req, runs fn inside a span and records request metrics
func (s *AnalysisService) observe(ctx context.Context, operation string, req interface{}, fn func(context.Context) (interface{}, error)) (result domain.Result) {
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := s.tracer.Start(ctx, "finsight."+operation,
		trace.WithAttributes(attribute.String("trace_id", infrastructure.TraceIDFromContext(ctx))))
	defer span.End()

	start := time.Now()
	infrastructure.RecordActiveRequestChange(ctx, s.metrics, 1, operation)
	defer func() {
		infrastructure.RecordActiveRequestChange(ctx, s.metrics, -1, operation)
		infrastructure.RecordRequest(ctx, s.metrics, operation, string(result.Status), time.Since(start))
	}()

	data, err := s.call(ctx, req, fn)
	if err != nil {
		return s.fail(ctx, operation, err)
	}

	s.logger.DebugContext(ctx, "request completed",
		slog.String("operation", operation),
		slog.Duration("duration", time.Since(start)))
	return domain.Succeed(data)
}

// call runs fn after validation, turning a panic into an INTERNAL error
func (s *AnalysisService) call(ctx context.Context, req interface{}, fn func(context.Context) (interface{}, error)) (data interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.NewAppError(apperrors.ErrTypeInternal, fmt.Sprintf("unexpected failure: %v", r), nil)
		}
	}()

	if req != nil {
		if err := s.validator.ValidateStruct(req); err != nil {
			return nil, err
		}
	}
	return fn(ctx)
}

func (s *AnalysisService) fail(ctx context.Context, operation string, err error) domain.Result {
	kind := apperrors.TypeOf(err)
	infrastructure.RecordError(ctx, err)

	attrs := []any{
		slog.String("operation", operation),
		slog.String("kind", string(kind)),
		slog.String("error", err.Error()),
	}
	switch kind {
	case apperrors.ErrTypeInternal, apperrors.ErrTypeIO:
		s.logger.ErrorContext(ctx, "request failed", attrs...)
	default:
		s.logger.WarnContext(ctx, "request failed", attrs...)
	}
	return domain.Fail(string(kind), apperrors.MessageOf(err))
}

// parseBound parses an optional, already validated date bound
func parseBound(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, ok := dataprocessing.ParseTime(s)
	if !ok {
		return nil
	}
	return &t
}
