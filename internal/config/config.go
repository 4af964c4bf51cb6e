package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/teemow/schedule/internal/freebusy"
	"github.com/teemow/schedule/internal/instrumentation"
)

// EnvPrefix prefixes every environment variable, e.g. SCHEDULE_CALENDAR_ID
const EnvPrefix = "SCHEDULE"

// FileName is the config file looked up next to the executable, without extension
const FileName = "schedule"

// Config holds all configuration values.
type Config struct {
	CalendarID      string `mapstructure:"calendar_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenFile       string `mapstructure:"token_file"`

	// Timezone is an IANA zone name; empty means the process local zone
	Timezone string `mapstructure:"timezone"`

	WeekDays  int `mapstructure:"week_days"`
	NextCount int `mapstructure:"next_count"`

	Free      FreeConfig      `mapstructure:"free"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// FreeConfig configures the free-time report.
type FreeConfig struct {
	HorizonDays int      `mapstructure:"horizon_days"`
	SlotMinutes int      `mapstructure:"slot_minutes"`
	StartHour   int      `mapstructure:"start_hour"`
	EndHour     int      `mapstructure:"end_hour"`
	Weekdays    []string `mapstructure:"weekdays"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled            bool    `mapstructure:"enabled"`
	ServiceName        string  `mapstructure:"service_name"`
	MetricsExporter    string  `mapstructure:"metrics_exporter"`
	TracingExporter    string  `mapstructure:"tracing_exporter"`
	OTLPEndpoint       string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure       bool    `mapstructure:"otlp_insecure"`
	SampleRate         float64 `mapstructure:"sample_rate"`
	PrometheusTextfile string  `mapstructure:"prometheus_textfile"`
}

// otelEnv lists the standard OTEL_* variables each telemetry key falls back to.
var otelEnv = map[string]string{
	"telemetry.service_name":  "OTEL_SERVICE_NAME",
	"telemetry.otlp_endpoint": "OTEL_EXPORTER_OTLP_ENDPOINT",
	"telemetry.otlp_insecure": "OTEL_EXPORTER_OTLP_INSECURE",
	"telemetry.sample_rate":   "OTEL_TRACES_SAMPLER_ARG",
}

// New returns a viper instance with defaults and environment lookup configured.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, otel := range otelEnv {
		// BindEnv only errors on an empty key
		_ = v.BindEnv(key, envName(key), otel)
	}
	SetDefaults(v)
	return v
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// SetDefaults registers the default of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("calendar_id", "primary")
	v.SetDefault("credentials_file", "credentials.json")
	v.SetDefault("token_file", "token.json")
	v.SetDefault("timezone", "")
	v.SetDefault("week_days", 7)
	v.SetDefault("next_count", 10)

	v.SetDefault("free.horizon_days", 15)
	v.SetDefault("free.slot_minutes", int(freebusy.DefaultSlotSize/time.Minute))
	v.SetDefault("free.start_hour", freebusy.DefaultStartHour)
	v.SetDefault("free.end_hour", freebusy.DefaultEndHour)
	v.SetDefault("free.weekdays", []string{"mon", "tue", "wed", "thu", "fri"})

	v.SetDefault("log.level", "warn")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", instrumentation.DefaultServiceName)
	v.SetDefault("telemetry.metrics_exporter", instrumentation.ExporterStdout)
	v.SetDefault("telemetry.tracing_exporter", instrumentation.ExporterNone)
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_insecure", false)
	v.SetDefault("telemetry.sample_rate", 1.0)
	v.SetDefault("telemetry.prometheus_textfile", "")
}

// Load reads the config file, applies environment overrides and resolves
// relative paths against baseDir. An explicit file must exist; otherwise
// schedule.yaml in baseDir is optional.
func Load(v *viper.Viper, file, baseDir string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(ResolvePath(baseDir, file))
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(baseDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.CredentialsFile = ResolvePath(baseDir, cfg.CredentialsFile)
	cfg.TokenFile = ResolvePath(baseDir, cfg.TokenFile)
	if cfg.Telemetry.PrometheusTextfile != "" {
		cfg.Telemetry.PrometheusTextfile = ResolvePath(baseDir, cfg.Telemetry.PrometheusTextfile)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that cannot be checked by decoding alone.
func (c *Config) Validate() error {
	if c.CalendarID == "" {
		return fmt.Errorf("calendar_id cannot be empty")
	}
	if c.WeekDays <= 0 {
		return fmt.Errorf("week_days must be positive, got %d", c.WeekDays)
	}
	if c.NextCount <= 0 {
		return fmt.Errorf("next_count must be positive, got %d", c.NextCount)
	}
	if c.Free.HorizonDays <= 0 {
		return fmt.Errorf("free.horizon_days must be positive, got %d", c.Free.HorizonDays)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	policy, err := c.Policy()
	if err != nil {
		return err
	}
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("invalid free-time policy: %w", err)
	}
	if c.Telemetry.Enabled {
		telemetry := c.Instrumentation("")
		if err := telemetry.Validate(); err != nil {
			return fmt.Errorf("invalid telemetry config: %w", err)
		}
	}
	return nil
}

// Location returns the display and policy zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Policy returns the working-hours policy for the free-time report.
func (c *Config) Policy() (freebusy.Policy, error) {
	days, err := freebusy.ParseWeekdays(c.Free.Weekdays)
	if err != nil {
		return freebusy.Policy{}, fmt.Errorf("invalid free.weekdays: %w", err)
	}
	loc, err := c.Location()
	if err != nil {
		return freebusy.Policy{}, err
	}
	return freebusy.Policy{
		StartHour: c.Free.StartHour,
		EndHour:   c.Free.EndHour,
		Weekdays:  days,
		Location:  loc,
		SlotSize:  time.Duration(c.Free.SlotMinutes) * time.Minute,
		Inset:     freebusy.DefaultInset,
	}, nil
}

// FreeHorizon is the length of the free-time window.
func (c *Config) FreeHorizon() time.Duration {
	return time.Duration(c.Free.HorizonDays) * 24 * time.Hour
}

// WeekSpan is the length of the week report window.
func (c *Config) WeekSpan() time.Duration {
	return time.Duration(c.WeekDays) * 24 * time.Hour
}

// Instrumentation maps the telemetry section onto the instrumentation config.
func (c *Config) Instrumentation(version string) instrumentation.Config {
	return instrumentation.Config{
		ServiceName:        c.Telemetry.ServiceName,
		ServiceVersion:     version,
		Enabled:            c.Telemetry.Enabled,
		MetricsExporter:    c.Telemetry.MetricsExporter,
		TracingExporter:    c.Telemetry.TracingExporter,
		OTLPEndpoint:       c.Telemetry.OTLPEndpoint,
		OTLPInsecure:       c.Telemetry.OTLPInsecure,
		SampleRate:         c.Telemetry.SampleRate,
		PrometheusTextfile: c.Telemetry.PrometheusTextfile,
	}
}

// ExecutableDir returns the directory holding the running binary, with symlinks resolved.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// ResolvePath joins a relative path onto baseDir. Absolute paths are returned unchanged.
func ResolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
