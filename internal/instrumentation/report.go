package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Report modes
const (
	ModeToday = "today"
	ModeWeek  = "week"
	ModeNext  = "next"
	ModeFree  = "free"
)

// ReportRun captures one rendered report for the run log and metrics.
type ReportRun struct {
	Mode       string
	CalendarID string

	// Queried window; WindowEnd is zero for count-bounded reports
	WindowStart time.Time
	WindowEnd   time.Time

	// Items is the number of events or free intervals rendered
	Items int

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewReportRun creates a ReportRun with timing started.
// Call Complete() when the report has been written.
func NewReportRun(mode, calendarID string) *ReportRun {
	return &ReportRun{
		Mode:       mode,
		CalendarID: calendarID,
		StartTime:  time.Now(),
	}
}

// WithWindow sets the queried window.
func (r *ReportRun) WithWindow(start, end time.Time) *ReportRun {
	r.WindowStart = start
	r.WindowEnd = end
	return r
}

// WithSpanContext extracts trace context from the current span.
func (r *ReportRun) WithSpanContext(ctx context.Context) *ReportRun {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.TraceID = span.SpanContext().TraceID().String()
		r.SpanID = span.SpanContext().SpanID().String()
	}
	return r
}

// Complete marks the run as finished and calculates duration.
// A nil err means success.
func (r *ReportRun) Complete(items int, err error) *ReportRun {
	r.Duration = time.Since(r.StartTime)
	r.Items = items
	r.Success = err == nil
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Status returns "success" or "error" based on the Success field.
func (r *ReportRun) Status() string {
	if r.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for structured logging.
func (r *ReportRun) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("mode", r.Mode),
		slog.Int("items", r.Items),
		slog.Duration("duration", r.Duration),
		slog.Bool("success", r.Success),
	}

	if r.CalendarID != "" {
		attrs = append(attrs, slog.String("calendar", r.CalendarID))
	}
	if !r.WindowStart.IsZero() {
		attrs = append(attrs, slog.Time("window_start", r.WindowStart))
	}
	if !r.WindowEnd.IsZero() {
		attrs = append(attrs, slog.Time("window_end", r.WindowEnd))
	}
	if r.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", r.TraceID))
	}
	if r.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", r.SpanID))
	}
	if r.Error != "" {
		attrs = append(attrs, slog.String("error", r.Error))
	}

	return attrs
}

// RunLogger writes finished report runs to the log and the report metrics.
type RunLogger struct {
	logger  *slog.Logger
	metrics *Metrics
}

// NewRunLogger creates a RunLogger. Nil arguments fall back to slog.Default()
// and a no-op metrics recorder.
func NewRunLogger(logger *slog.Logger, metrics *Metrics) *RunLogger {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = &Metrics{}
	}
	return &RunLogger{
		logger:  logger,
		metrics: metrics,
	}
}

// Log records a completed run.
func (l *RunLogger) Log(ctx context.Context, r *ReportRun) {
	l.metrics.RecordReport(ctx, r.Mode, r.Status(), r.Duration)

	attrs := r.LogAttrs()
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if r.Success {
		l.logger.InfoContext(ctx, "report_rendered", args...)
	} else {
		l.logger.WarnContext(ctx, "report_failed", args...)
	}
}
