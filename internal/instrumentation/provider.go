package instrumentation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Provider owns the meter and tracer providers of one run.
// A disabled Provider hands out no-op metrics and has nothing to flush.
type Provider struct {
	cfg      Config
	meters   *sdkmetric.MeterProvider
	tracers  *sdktrace.TracerProvider
	metrics  *Metrics
	registry *promclient.Registry
	out      io.Writer
}

// NewProvider builds the exporters selected by cfg and installs them as the
// otel globals. The stdout exporters write to w, or to os.Stderr when w is nil.
func NewProvider(ctx context.Context, cfg Config, w io.Writer) (*Provider, error) {
	cfg = cfg.withDefaults()
	if !cfg.Enabled {
		return &Provider{cfg: cfg, metrics: &Metrics{}}, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	p := &Provider{cfg: cfg, out: w}

	reader, err := p.metricReader(ctx)
	if err != nil {
		return nil, err
	}
	p.meters = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)

	exporter, err := p.spanExporter(ctx)
	if err != nil {
		return nil, errors.Join(err, p.meters.Shutdown(ctx))
	}
	if exporter != nil {
		p.tracers = sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithBatcher(exporter),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
		)
		otel.SetTracerProvider(p.tracers)
	}
	otel.SetMeterProvider(p.meters)

	p.metrics, err = NewMetrics(p.meters.Meter(cfg.ServiceName))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create metrics: %w", err), p.Shutdown(ctx))
	}

	if cfg.OTLPInsecure && (cfg.MetricsExporter == ExporterOTLP || cfg.TracingExporter == ExporterOTLP) {
		slog.Warn("OTLP export over plain HTTP, use only with a local collector",
			"component", "instrumentation",
			"endpoint", cfg.OTLPEndpoint,
		)
	}

	return p, nil
}

func (p *Provider) metricReader(ctx context.Context) (sdkmetric.Reader, error) {
	switch p.cfg.MetricsExporter {
	case ExporterPrometheus:
		// private registry: the textfile carries only this run's series
		p.registry = promclient.NewRegistry()
		exporter, err := prometheus.New(prometheus.WithRegisterer(p.registry))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		return exporter, nil

	case ExporterOTLP:
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(p.cfg.OTLPEndpoint)}
		if p.cfg.OTLPInsecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(flushInterval)), nil

	default:
		exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(p.out))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(flushInterval)), nil
	}
}

// spanExporter returns nil for the none exporter.
func (p *Provider) spanExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	switch p.cfg.TracingExporter {
	case ExporterOTLP:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(p.cfg.OTLPEndpoint)}
		if p.cfg.OTLPInsecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
		return exporter, nil

	case ExporterStdout:
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(p.out))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
		return exporter, nil

	default:
		return nil, nil
	}
}

// Metrics returns the recorder shared by the run.
func (p *Provider) Metrics() *Metrics {
	return p.metrics
}

func (p *Provider) writeTextfile() error {
	if p.registry == nil || p.cfg.PrometheusTextfile == "" {
		return nil
	}
	if err := promclient.WriteToTextfile(p.cfg.PrometheusTextfile, p.registry); err != nil {
		return fmt.Errorf("failed to write prometheus textfile %s: %w", p.cfg.PrometheusTextfile, err)
	}
	return nil
}

// Shutdown writes the prometheus textfile when one is configured, then
// flushes and stops both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.meters == nil {
		return nil
	}

	var errs []error
	if err := p.writeTextfile(); err != nil {
		errs = append(errs, err)
	}
	if err := p.meters.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
	}
	if p.tracers != nil {
		if err := p.tracers.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
		}
	}
	return errors.Join(errs...)
}
