package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Input     InputConfig     `yaml:"input" envconfig:"INPUT"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// InputConfig describes the readings spreadsheet
type InputConfig struct {
	File         string `yaml:"file" envconfig:"FILE" validate:"required"`
	Sheet        string `yaml:"sheet" envconfig:"SHEET"`
	CSVSeparator string `yaml:"csv_separator" envconfig:"CSV_SEPARATOR" validate:"required,len=1"`
}

// OutputConfig describes where artifacts are written
type OutputConfig struct {
	Dir          string `yaml:"dir" envconfig:"DIR" validate:"required"`
	TemplateFile string `yaml:"template_file" envconfig:"TEMPLATE_FILE" validate:"required"`
	TableClasses string `yaml:"table_classes" envconfig:"TABLE_CLASSES"`
	ExportCSV    bool   `yaml:"export_csv" envconfig:"EXPORT_CSV"`
	Manifest     bool   `yaml:"manifest" envconfig:"MANIFEST"`
}

// AnalysisConfig holds the statistical knobs
type AnalysisConfig struct {
	AlertThreshold float64 `yaml:"alert_threshold" envconfig:"ALERT_THRESHOLD" validate:"gt=0"`
	HeadRows       int     `yaml:"head_rows" envconfig:"HEAD_ROWS" validate:"min=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	ServiceName   string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout file"`
	TraceFile     string `yaml:"trace_file" envconfig:"TRACE_FILE" validate:"required_if=TraceExporter file"`
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// Load loads configuration from defaults, then the config file if one
// exists, then environment variables (highest priority).
func Load() (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configFile, err)
		}
	}

	// Only variables that are set overwrite; no default tags are declared so
	// file values survive.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Keys absent from the file
// keep their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints and normalizes a few values.
func (c *Config) Validate() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	c.Logging.Output = strings.ToLower(c.Logging.Output)
	c.Telemetry.TraceExporter = strings.ToLower(c.Telemetry.TraceExporter)

	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging output %q requires a file path", c.Logging.Output)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(ConfigFileEnv); explicit != "" {
		return explicit
	}

	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration. The defaults reproduce a run of
// the report in the current working directory.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			File:         DefaultInputFile,
			CSVSeparator: DefaultCSVSeparator,
		},
		Output: OutputConfig{
			Dir:          DefaultOutputDir,
			TemplateFile: DefaultTemplateFile,
			TableClasses: DefaultTableClasses,
		},
		Analysis: AnalysisConfig{
			AlertThreshold: DefaultAlertThreshold,
			HeadRows:       DefaultHeadRows,
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   DefaultLogOutput,
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   DefaultServiceName,
			TraceExporter: DefaultTraceExporter,
		},
	}
}
