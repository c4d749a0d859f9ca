package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ServiceMetrics are the request metrics of the analysis service
type ServiceMetrics struct {
	RequestsTotal   metric.Int64Counter
	RequestDuration metric.Float64Histogram
	ActiveRequests  metric.Int64UpDownCounter
}

// CreateServiceMetrics registers the request instruments on meter
func CreateServiceMetrics(meter metric.Meter) (*ServiceMetrics, error) {
	requestsTotal, err := meter.Int64Counter(
		"finsight_requests_total",
		metric.WithDescription("Total number of analysis service requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"finsight_request_duration_seconds",
		metric.WithDescription("Analysis service request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"finsight_active_requests",
		metric.WithDescription("Number of in-flight analysis service requests"),
	)
	if err != nil {
		return nil, err
	}

	return &ServiceMetrics{
		RequestsTotal:   requestsTotal,
		RequestDuration: requestDuration,
		ActiveRequests:  activeRequests,
	}, nil
}

// RecordRequest records the outcome and duration of one request
func RecordRequest(ctx context.Context, metrics *ServiceMetrics, operation, status string, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	metrics.RequestsTotal.Add(ctx, 1, attrs)
	metrics.RequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordActiveRequestChange adjusts the in-flight request gauge
func RecordActiveRequestChange(ctx context.Context, metrics *ServiceMetrics, delta int64, operation string) {
	if metrics == nil {
		return
	}
	metrics.ActiveRequests.Add(ctx, delta, metric.WithAttributes(attribute.String("operation", operation)))
}

// RecordError records err on the span in ctx and marks it failed
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}
