// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Errors are wrapped with this package's sentinels.
package config

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/okian/rollcall/internal/domain/voice"
)

// Storage backends accepted by the storage key.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Log destinations accepted by the log_output key.
const (
	LogOutputStdout = "stdout"
	LogOutputStderr = "stderr"
)

// metricName matches namespaces, subsystems and label names Prometheus accepts.
var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// LogOutput selects the log destination: stdout or stderr.
	LogOutput string `koanf:"log_output"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// SystemMetricsInterval is the period of the runtime gauges updater.
	SystemMetricsInterval time.Duration `koanf:"system_metrics_interval"`

	// MetricsNamespace and MetricsSubsystem prefix every exported metric name.
	// Empty keeps rollcall_ledger.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsLabels are constant labels attached to every metric, e.g. site.
	MetricsLabels map[string]string `koanf:"metrics_labels"`

	// MetricsBuckets overrides the latency histogram buckets in milliseconds.
	MetricsBuckets []float64 `koanf:"metrics_buckets"`

	// Storage selects the ledger backend: file, sqlite or memory.
	Storage string `koanf:"storage"`

	// DataDir holds one attendance_YYYY-MM-DD.csv per day for the file backend.
	DataDir string `koanf:"data_dir"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `koanf:"sqlite_path"`

	// RosterFile is the roll,name CSV listing the tracked subjects.
	RosterFile string `koanf:"roster_file"`

	// Timezone names the location calendar days are computed in; empty means local time.
	Timezone string `koanf:"timezone"`

	// IDPrefix and IDWidth define the identifier shape, e.g. R and 3 for R005.
	IDPrefix string `koanf:"id_prefix"`
	IDWidth  int    `koanf:"id_width"`

	// StrictRoster rejects commands for ids that are not on the roster.
	StrictRoster bool `koanf:"strict_roster"`

	// Corrections overrides the transcript substitution table. Nil keeps the
	// built-in table.
	Corrections []voice.Correction `koanf:"corrections"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		LogOutput:             LogOutputStdout,
		Addr:                  ":8080",
		ShutdownTimeout:       10 * time.Second,
		SystemMetricsInterval: 15 * time.Second,
		Storage:               StorageFile,
		DataDir:               "data",
		SQLitePath:            "data/attendance.db",
		RosterFile:            "students.csv",
		IDPrefix:              "R",
		IDWidth:               3,
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	switch c.LogOutput {
	case LogOutputStdout, LogOutputStderr:
	default:
		return fmt.Errorf("%w: unknown log_output %q", ErrInvalidConfig, c.LogOutput)
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	switch c.Storage {
	case StorageFile:
		if c.DataDir == "" {
			return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
		}
	case StorageSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("%w: unknown storage %q", ErrInvalidConfig, c.Storage)
	}
	if p := []rune(c.IDPrefix); len(p) != 1 || !unicode.IsLetter(p[0]) {
		return fmt.Errorf("%w: id_prefix must be a single letter, got %q", ErrInvalidConfig, c.IDPrefix)
	}
	if c.IDWidth < 1 || c.IDWidth > 9 {
		return fmt.Errorf("%w: id_width must be within 1..9, got %d", ErrInvalidConfig, c.IDWidth)
	}
	for i, corr := range c.Corrections {
		if strings.TrimSpace(corr.Wrong) == "" {
			return fmt.Errorf("%w: corrections[%d] has an empty wrong word", ErrInvalidConfig, i)
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMetrics() error {
	for _, part := range [...]struct{ key, value string }{
		{"metrics_namespace", c.MetricsNamespace},
		{"metrics_subsystem", c.MetricsSubsystem},
	} {
		if part.value != "" && !metricName.MatchString(part.value) {
			return fmt.Errorf("%w: %s %q is not a valid metric name part", ErrInvalidConfig, part.key, part.value)
		}
	}
	for name := range c.MetricsLabels {
		if !metricName.MatchString(name) || strings.HasPrefix(name, "__") {
			return fmt.Errorf("%w: metrics_labels has invalid label name %q", ErrInvalidConfig, name)
		}
	}
	for i, b := range c.MetricsBuckets {
		if i > 0 && b <= c.MetricsBuckets[i-1] {
			return fmt.Errorf("%w: metrics_buckets must be strictly increasing, got %v", ErrInvalidConfig, c.MetricsBuckets)
		}
	}
	return nil
}
