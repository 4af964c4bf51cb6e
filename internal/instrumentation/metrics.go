package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrResult    = "result"
	attrVariant   = "variant"
	attrMode      = "mode"
)

// Metrics provides methods for recording observability metrics.
// The zero value is a no-op recorder.
type Metrics struct {
	// Google API metrics
	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	// OAuth metrics
	oauthAuthTotal metric.Int64Counter

	// Report metrics
	reportRunsTotal   metric.Int64Counter
	reportDuration    metric.Float64Histogram
	freeSlotsComputed metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.googleAPIOperationsTotal, err = meter.Int64Counter(
		"google_api_operations_total",
		metric.WithDescription("Total number of Google API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operations_total counter: %w", err)
	}

	m.googleAPIOperationDuration, err = meter.Float64Histogram(
		"google_api_operation_duration_seconds",
		metric.WithDescription("Google API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operation_duration_seconds histogram: %w", err)
	}

	m.oauthAuthTotal, err = meter.Int64Counter(
		"oauth_auth_total",
		metric.WithDescription("Total number of OAuth session acquisitions by variant and result"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth_auth_total counter: %w", err)
	}

	m.reportRunsTotal, err = meter.Int64Counter(
		"report_runs_total",
		metric.WithDescription("Total number of rendered reports by mode and status"),
		metric.WithUnit("{report}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create report_runs_total counter: %w", err)
	}

	m.reportDuration, err = meter.Float64Histogram(
		"report_duration_seconds",
		metric.WithDescription("Report duration in seconds, provider calls included"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create report_duration_seconds histogram: %w", err)
	}

	m.freeSlotsComputed, err = meter.Int64Counter(
		"free_slots_computed_total",
		metric.WithDescription("Total number of free intervals produced by the free-slot engine"),
		metric.WithUnit("{interval}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create free_slots_computed_total counter: %w", err)
	}

	return m, nil
}

// RecordGoogleAPIOperation records a Google API operation with service, operation,
// status, and duration.
//
// Parameters:
//   - service: Google service name (calendar)
//   - operation: Operation name (freebusy.query, events.list)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the operation
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m.googleAPIOperationsTotal == nil || m.googleAPIOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.googleAPIOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordOAuthAuth records how a session was obtained.
// Variant is one of "cached-valid", "refreshed", "interactive"; result is "success" or "failure".
func (m *Metrics) RecordOAuthAuth(ctx context.Context, variant, result string) {
	if m.oauthAuthTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrVariant, variant),
		attribute.String(attrResult, result),
	}

	m.oauthAuthTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordReport records one rendered report (today, week, next, free).
func (m *Metrics) RecordReport(ctx context.Context, mode, status string, duration time.Duration) {
	if m.reportRunsTotal == nil || m.reportDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMode, mode),
		attribute.String(attrStatus, status),
	}

	m.reportRunsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.reportDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordFreeSlots adds the number of free intervals computed for a report.
func (m *Metrics) RecordFreeSlots(ctx context.Context, n int) {
	if m.freeSlotsComputed == nil {
		return // Instrumentation not initialized
	}

	m.freeSlotsComputed.Add(ctx, int64(n))
}
