// Package instrumentation provides OpenTelemetry instrumentation for the
// schedule CLI.
//
// Instrumentation is off by default. When enabled, a single run records:
//   - OpenTelemetry metrics for Google API calls, OAuth sessions and reports
//   - Spans for each report and each provider call
//   - A structured run record per report
//
// # Metrics
//
// Google API Metrics:
//   - google_api_operations_total: Counter of Google API operations by service, operation, status
//   - google_api_operation_duration_seconds: Histogram of Google API operation durations
//
// OAuth Metrics:
//   - oauth_auth_total: Counter of session acquisitions by variant (cached-valid, refreshed, interactive) and result
//
// Report Metrics:
//   - report_runs_total: Counter of rendered reports by mode and status
//   - report_duration_seconds: Histogram of report durations
//   - free_slots_computed_total: Counter of free intervals produced
//
// # Tracing
//
// Spans are created for:
//   - Each report (report.<mode>)
//   - Google API calls (google.<service>.<operation>)
//   - OAuth session acquisition (oauth.session)
//
// # Exporters
//
// A CLI exits right after its work, so every exporter flushes on Shutdown.
// The stdout exporters write to stderr. The prometheus exporter has no scrape
// endpoint here; instead it can dump its registry to a node-exporter textfile.
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
//		ServiceName:        "schedule",
//		ServiceVersion:     version,
//		Enabled:            true,
//		MetricsExporter:    instrumentation.ExporterPrometheus,
//		PrometheusTextfile: "/var/lib/node_exporter/schedule.prom",
//	}, nil)
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	run := instrumentation.NewReportRun(instrumentation.ModeFree, "primary")
//	// ... render ...
//	instrumentation.NewRunLogger(logger, provider.Metrics()).Log(ctx, run.Complete(n, err))
package instrumentation
