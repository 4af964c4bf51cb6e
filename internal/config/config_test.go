package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/schedule/internal/instrumentation"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(New(), "", dir)
	require.NoError(t, err)

	assert.Equal(t, "primary", cfg.CalendarID)
	assert.Equal(t, filepath.Join(dir, "credentials.json"), cfg.CredentialsFile)
	assert.Equal(t, filepath.Join(dir, "token.json"), cfg.TokenFile)
	assert.Equal(t, 7, cfg.WeekDays)
	assert.Equal(t, 10, cfg.NextCount)
	assert.Equal(t, 15, cfg.Free.HorizonDays)
	assert.Equal(t, []string{"mon", "tue", "wed", "thu", "fri"}, cfg.Free.Weekdays)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.Telemetry.Enabled)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	assert.Equal(t, 15*24*time.Hour, cfg.FreeHorizon())
	assert.Equal(t, 7*24*time.Hour, cfg.WeekSpan())
}

func TestLoad_DefaultPolicy(t *testing.T) {
	cfg, err := Load(New(), "", t.TempDir())
	require.NoError(t, err)

	policy, err := cfg.Policy()
	require.NoError(t, err)

	assert.Equal(t, 13, policy.StartHour)
	assert.Equal(t, 18, policy.EndHour)
	assert.Equal(t, 30*time.Minute, policy.SlotSize)
	assert.Equal(t, time.Minute, policy.Inset)
	assert.Equal(t, []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}, policy.Weekdays)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
calendar_id: team@example.com
credentials_file: /etc/schedule/client_secret.json
timezone: Europe/Berlin
next_count: 5
free:
  start_hour: 9
  end_hour: 12
  weekdays: [mon, wed]
log:
  level: debug
`)

	cfg, err := Load(New(), "", dir)
	require.NoError(t, err)

	assert.Equal(t, "team@example.com", cfg.CalendarID)
	assert.Equal(t, "/etc/schedule/client_secret.json", cfg.CredentialsFile, "absolute paths are kept")
	assert.Equal(t, filepath.Join(dir, "token.json"), cfg.TokenFile)
	assert.Equal(t, 5, cfg.NextCount)
	assert.Equal(t, "debug", cfg.Log.Level)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, 9, policy.StartHour)
	assert.Equal(t, 12, policy.EndHour)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, policy.Weekdays)
	assert.Equal(t, "Europe/Berlin", policy.Location.String())
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	other := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(other, []byte("calendar_id: other@example.com\n"), 0600))

	cfg, err := Load(New(), "other.yaml", dir)
	require.NoError(t, err)
	assert.Equal(t, "other@example.com", cfg.CalendarID)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, err := Load(New(), "missing.yaml", t.TempDir())
	assert.Error(t, err)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SCHEDULE_CALENDAR_ID", "env@example.com")
	t.Setenv("SCHEDULE_FREE_START_HOUR", "10")
	t.Setenv("SCHEDULE_FREE_WEEKDAYS", "sat,sun")
	t.Setenv("SCHEDULE_TOKEN_FILE", "state/token.json")

	dir := t.TempDir()
	writeConfig(t, dir, "calendar_id: file@example.com\n")

	cfg, err := Load(New(), "", dir)
	require.NoError(t, err)

	assert.Equal(t, "env@example.com", cfg.CalendarID, "environment wins over the file")
	assert.Equal(t, 10, cfg.Free.StartHour)
	assert.Equal(t, []string{"sat", "sun"}, cfg.Free.Weekdays)
	assert.Equal(t, filepath.Join(dir, "state", "token.json"), cfg.TokenFile)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"empty calendar", "calendar_id: \"\"\n", "calendar_id"},
		{"zero week", "week_days: 0\n", "week_days"},
		{"negative next", "next_count: -1\n", "next_count"},
		{"zero horizon", "free:\n  horizon_days: 0\n", "horizon_days"},
		{"unknown zone", "timezone: Mars/Olympus\n", "invalid timezone"},
		{"unknown weekday", "free:\n  weekdays: [funday]\n", "free.weekdays"},
		{"no weekdays", "free:\n  weekdays: []\n", "no working weekdays"},
		{"inverted hours", "free:\n  start_hour: 18\n  end_hour: 13\n", "working hours"},
		{"zero slot", "free:\n  slot_minutes: 0\n", "slot size"},
		{"otlp without endpoint", "telemetry:\n  enabled: true\n  metrics_exporter: otlp\n", "OTLP endpoint"},
		{"sample rate", "telemetry:\n  enabled: true\n  sample_rate: 2\n", "sample rate"},
		{"malformed yaml", "free: [\n", "failed to read config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			cfg, err := Load(New(), "", dir)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestConfig_Instrumentation(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "")

	dir := t.TempDir()
	writeConfig(t, dir, `
telemetry:
  enabled: true
  metrics_exporter: prometheus
  tracing_exporter: otlp
  otlp_endpoint: localhost:4318
  otlp_insecure: true
  prometheus_textfile: metrics/schedule.prom
`)

	cfg, err := Load(New(), "", dir)
	require.NoError(t, err)

	ic := cfg.Instrumentation("1.2.3")
	assert.True(t, ic.Enabled)
	assert.Equal(t, "1.2.3", ic.ServiceVersion)
	assert.Equal(t, instrumentation.ExporterPrometheus, ic.MetricsExporter)
	assert.Equal(t, instrumentation.ExporterOTLP, ic.TracingExporter)
	assert.Equal(t, "localhost:4318", ic.OTLPEndpoint)
	assert.True(t, ic.OTLPInsecure)
	assert.Equal(t, filepath.Join(dir, "metrics", "schedule.prom"), ic.PrometheusTextfile)
	assert.Equal(t, instrumentation.DefaultServiceName, ic.ServiceName)
	assert.Equal(t, 1.0, ic.SampleRate)
	assert.NoError(t, ic.Validate())
}

func TestLoad_OTELEnvironment(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "schedule-cron")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.5")

	cfg, err := Load(New(), "", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "schedule-cron", cfg.Telemetry.ServiceName)
	assert.Equal(t, "collector:4318", cfg.Telemetry.OTLPEndpoint)
	assert.True(t, cfg.Telemetry.OTLPInsecure)
	assert.Equal(t, 0.5, cfg.Telemetry.SampleRate)
}

func TestLoad_OTELEnvironmentLosesToOwnPrefix(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("SCHEDULE_TELEMETRY_OTLP_ENDPOINT", "local:4318")

	cfg, err := Load(New(), "", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "local:4318", cfg.Telemetry.OTLPEndpoint)
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name string
		base string
		path string
		want string
	}{
		{"relative", "/opt/schedule", "token.json", "/opt/schedule/token.json"},
		{"nested", "/opt/schedule", "state/token.json", "/opt/schedule/state/token.json"},
		{"absolute", "/opt/schedule", "/var/lib/token.json", "/var/lib/token.json"},
		{"empty", "/opt/schedule", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), ResolvePath(filepath.FromSlash(tt.base), tt.path))
		})
	}
}

func TestExecutableDir(t *testing.T) {
	dir, err := ExecutableDir()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dir))
}
