package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/huangsam/riskboard/schema"
)

// Default values for configuration.
const (
	DefaultOutputDir = "static/data"
	DefaultPrecision = 3
	MaxPrecision     = 6
	DefaultAddr      = "127.0.0.1:5000"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// DefaultWorkers is the default number of aggregations allowed to run at once.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a pipeline run.
// This struct is the "final, validated" config.
type Config struct {
	InputPath    string
	OutputDir    string
	Outputs      []schema.OutputMode
	MinSupport   int
	FocusCountry string
	Precision    int
	Workers      int
	Width        int // Terminal width override (0 = auto-detect)
	UseColors    bool

	ExportBackend   schema.DatabaseBackend
	ExportDBConnect string // Please use env var as this is plaintext

	LogLevel  string
	LogFormat string

	Addr string // Listen address for the serve command
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputPathStr string

	OutputDir       string `mapstructure:"output-dir"`
	Output          string `mapstructure:"output"`
	MinSupport      int    `mapstructure:"min-support"`
	FocusCountry    string `mapstructure:"focus-country"`
	Precision       int    `mapstructure:"precision"`
	Workers         int    `mapstructure:"workers"`
	Width           int    `mapstructure:"width"`
	Color           string `mapstructure:"color"`
	ExportBackend   string `mapstructure:"export-backend"`
	ExportDBConnect string `mapstructure:"export-db-connect"`
	LogLevel        string `mapstructure:"log-level"`
	LogFormat       string `mapstructure:"log-format"`
	Addr            string `mapstructure:"addr"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Outputs != nil {
		clone.Outputs = slices.Clone(c.Outputs)
	}
	return &clone
}

// HasOutput reports whether the given output format was requested.
func (c *Config) HasOutput(mode schema.OutputMode) bool {
	return slices.Contains(c.Outputs, mode)
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct. The input path is required.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := ProcessSettings(cfg, input); err != nil {
		return err
	}
	return resolveInputPath(cfg, input)
}

// ProcessSettings validates every raw input except the input path, which is
// resolved only when one was given.
func ProcessSettings(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processOutputs(cfg, input); err != nil {
		return err
	}
	if err := validateExportConfig(cfg, input); err != nil {
		return err
	}
	if strings.TrimSpace(input.InputPathStr) == "" {
		cfg.InputPath = ""
		return nil
	}
	return resolveInputPath(cfg, input)
}

// validateSimpleInputs processes and validates the scalar fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Width = input.Width
	cfg.Addr = strings.TrimSpace(input.Addr)
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.MinSupport < 0 {
		return fmt.Errorf("min-support must not be negative (received %d)", input.MinSupport)
	}
	cfg.MinSupport = input.MinSupport

	cfg.FocusCountry = strings.TrimSpace(input.FocusCountry)
	if cfg.FocusCountry == "" {
		return fmt.Errorf("focus-country must not be empty")
	}

	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(input.LogLevel))
	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = DefaultLogLevel
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level '%s'. must be debug, info, warn, error", input.LogLevel)
	}

	cfg.LogFormat = strings.ToLower(strings.TrimSpace(input.LogFormat))
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = DefaultLogFormat
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format '%s'. must be console or json", input.LogFormat)
	}
	return nil
}

// processOutputs parses the comma-separated output formats and the output directory.
func processOutputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputDir = strings.TrimSpace(input.OutputDir)
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	cfg.Outputs = nil
	for part := range strings.SplitSeq(input.Output, ",") {
		mode := schema.OutputMode(strings.ToLower(strings.TrimSpace(part)))
		if mode == "" {
			continue
		}
		if _, ok := schema.ValidOutputModes[mode]; !ok {
			return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", mode)
		}
		if !slices.Contains(cfg.Outputs, mode) {
			cfg.Outputs = append(cfg.Outputs, mode)
		}
	}
	if len(cfg.Outputs) == 0 {
		cfg.Outputs = []schema.OutputMode{schema.TextOut}
	}
	return nil
}

// validateExportConfig validates the SQL export backend and its connection string.
func validateExportConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.ExportBackend = schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(input.ExportBackend)))
	if cfg.ExportBackend == "" {
		cfg.ExportBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.ExportBackend]; !ok {
		return fmt.Errorf("invalid export backend '%s'. must be sqlite, mysql, postgresql, none", input.ExportBackend)
	}
	cfg.ExportDBConnect = input.ExportDBConnect
	return ValidateDatabaseConnectionString(cfg.ExportBackend, cfg.ExportDBConnect)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("export-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("export-db-connect is required when using %s backend", backend)
		}
		if !strings.HasPrefix(connStr, "postgres://") && !strings.HasPrefix(connStr, "postgresql://") {
			if !strings.Contains(connStr, "host=") {
				return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
			}
			if !strings.Contains(connStr, "dbname=") {
				return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
			}
		}
	}
	return nil
}

// resolveInputPath checks that the positional input path names a regular file.
// A missing file is left for the loader, which reports it as an IO error.
func resolveInputPath(cfg *Config, input *ConfigRawInput) error {
	path := strings.TrimSpace(input.InputPathStr)
	if path == "" {
		return fmt.Errorf("an input JSON file is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if info, statErr := os.Stat(abs); statErr == nil && info.IsDir() {
		return fmt.Errorf("input path %s is a directory", path)
	}
	cfg.InputPath = filepath.Clean(abs)
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
