package instrumentation

import (
	"strings"
	"testing"
)

func TestConfig_WithDefaults(t *testing.T) {
	config := Config{Enabled: true}.withDefaults()

	if config.ServiceName != DefaultServiceName {
		t.Errorf("expected ServiceName %q, got %q", DefaultServiceName, config.ServiceName)
	}
	if config.MetricsExporter != ExporterStdout {
		t.Errorf("expected MetricsExporter 'stdout', got %q", config.MetricsExporter)
	}
	if config.TracingExporter != ExporterNone {
		t.Errorf("expected TracingExporter 'none', got %q", config.TracingExporter)
	}

	kept := Config{ServiceName: "cron", MetricsExporter: ExporterOTLP, TracingExporter: ExporterStdout}.withDefaults()
	if kept.ServiceName != "cron" || kept.MetricsExporter != ExporterOTLP || kept.TracingExporter != ExporterStdout {
		t.Errorf("expected explicit values to be kept, got %+v", kept)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errContains string
	}{
		{
			name:   "zero value",
			config: Config{},
		},
		{
			name: "valid config with stdout",
			config: Config{
				Enabled:         true,
				MetricsExporter: ExporterStdout,
				TracingExporter: ExporterNone,
				SampleRate:      1,
			},
		},
		{
			name: "valid config with prometheus textfile",
			config: Config{
				Enabled:            true,
				MetricsExporter:    ExporterPrometheus,
				PrometheusTextfile: "/var/lib/node_exporter/schedule.prom",
			},
		},
		{
			name: "valid config with otlp",
			config: Config{
				Enabled:         true,
				MetricsExporter: ExporterOTLP,
				TracingExporter: ExporterOTLP,
				OTLPEndpoint:    "localhost:4318",
				SampleRate:      0.25,
			},
		},
		{
			name:        "negative sample rate",
			config:      Config{SampleRate: -0.5},
			expectError: true,
			errContains: "sample rate",
		},
		{
			name:        "sample rate above 1",
			config:      Config{SampleRate: 1.5},
			expectError: true,
			errContains: "sample rate",
		},
		{
			name:        "invalid metrics exporter",
			config:      Config{MetricsExporter: "invalid"},
			expectError: true,
			errContains: "invalid metrics exporter",
		},
		{
			name:        "invalid tracing exporter",
			config:      Config{TracingExporter: "invalid"},
			expectError: true,
			errContains: "invalid tracing exporter",
		},
		{
			name:        "otlp tracing without endpoint",
			config:      Config{TracingExporter: ExporterOTLP},
			expectError: true,
			errContains: "OTLP endpoint is required",
		},
		{
			name:        "otlp metrics without endpoint",
			config:      Config{MetricsExporter: ExporterOTLP},
			expectError: true,
			errContains: "OTLP endpoint is required",
		},
		{
			name:        "textfile without prometheus exporter",
			config:      Config{PrometheusTextfile: "schedule.prom"},
			expectError: true,
			errContains: "requires the prometheus metrics exporter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				} else if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("expected error containing %q, got %q", tt.errContains, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
