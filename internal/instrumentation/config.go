package instrumentation

import (
	"fmt"
	"slices"
	"time"
)

// Exporter names accepted by Config.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// Label values shared by metrics, spans and run records.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	OAuthResultSuccess = "success"
	OAuthResultFailure = "failure"

	ServiceCalendar = "calendar"
)

// DefaultServiceName is reported when no service name is configured.
const DefaultServiceName = "schedule"

// flushInterval only matters for runs that outlive it; short runs flush on Shutdown.
const flushInterval = 10 * time.Second

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

// Config selects what a run exports and where. It is filled from the
// telemetry section of the schedule config.
type Config struct {
	ServiceName    string
	ServiceVersion string

	Enabled bool

	// MetricsExporter is prometheus, otlp or stdout. Empty means stdout.
	MetricsExporter string
	// TracingExporter is otlp, stdout or none. Empty means none.
	TracingExporter string

	// OTLPEndpoint is host:port without a scheme
	OTLPEndpoint string
	OTLPInsecure bool

	// SampleRate is the fraction of traces kept, between 0 and 1
	SampleRate float64

	// PrometheusTextfile receives the registry on Shutdown, in the
	// node-exporter textfile format
	PrometheusTextfile string
}

func (c Config) withDefaults() Config {
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.MetricsExporter == "" {
		c.MetricsExporter = ExporterStdout
	}
	if c.TracingExporter == "" {
		c.TracingExporter = ExporterNone
	}
	return c
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	c = c.withDefaults()

	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("sample rate must be between 0 and 1, got %g", c.SampleRate)
	}
	if !slices.Contains(metricsExporters, c.MetricsExporter) {
		return fmt.Errorf("invalid metrics exporter %q, want one of %v", c.MetricsExporter, metricsExporters)
	}
	if !slices.Contains(tracingExporters, c.TracingExporter) {
		return fmt.Errorf("invalid tracing exporter %q, want one of %v", c.TracingExporter, tracingExporters)
	}
	if c.OTLPEndpoint == "" && (c.MetricsExporter == ExporterOTLP || c.TracingExporter == ExporterOTLP) {
		return fmt.Errorf("OTLP endpoint is required by the otlp exporter; set telemetry.otlp_endpoint or OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if c.PrometheusTextfile != "" && c.MetricsExporter != ExporterPrometheus {
		return fmt.Errorf("prometheus textfile requires the prometheus metrics exporter, got %q", c.MetricsExporter)
	}
	return nil
}
