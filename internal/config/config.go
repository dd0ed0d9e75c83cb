package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "psconvert/internal/errors"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "PSCONVERT"

// Config represents the complete application configuration
type Config struct {
	Parser    ParserConfig    `yaml:"parser" envconfig:"PARSER"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ParserConfig controls how PStouch exports are decoded and laid out.
type ParserConfig struct {
	// Delimiter separates cells on a line. PStouch writes ",".
	Delimiter string `yaml:"delimiter" envconfig:"DELIMITER" validate:"required,len=1"`
	// Encoding of the raw file. PStouch writes UTF-16 with a BOM.
	Encoding string `yaml:"encoding" envconfig:"ENCODING" validate:"required"`
	// HeaderSearchRows bounds how far from the top the column header row may be.
	HeaderSearchRows int `yaml:"header_search_rows" envconfig:"HEADER_SEARCH_ROWS" validate:"min=1,max=10000"`
	// DecimalSeparator is "auto", "dot" or "comma".
	DecimalSeparator string `yaml:"decimal_separator" envconfig:"DECIMAL_SEPARATOR" validate:"oneof=auto dot comma"`
	// NameMarkers identify the preamble row holding scan names.
	NameMarkers []string `yaml:"name_markers" envconfig:"NAME_MARKERS" validate:"dive,required"`
	// DateMarkers identify the preamble row holding per-scan measurement dates.
	DateMarkers []string `yaml:"date_markers" envconfig:"DATE_MARKERS" validate:"dive,required"`
}

// ExportConfig contains output defaults
type ExportConfig struct {
	Format       string `yaml:"format" envconfig:"FORMAT" validate:"oneof=csv excel txt chi"`
	OutputDir    string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	Technique    string `yaml:"technique" envconfig:"TECHNIQUE" validate:"required"`
	TXTDelimiter string `yaml:"txt_delimiter" envconfig:"TXT_DELIMITER" validate:"required,len=1"`
	Concurrency  int    `yaml:"concurrency" envconfig:"CONCURRENCY" validate:"min=1,max=64"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format      string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Addr            string          `yaml:"addr" envconfig:"ADDR" validate:"required"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	MaxBodyBytes    int64           `yaml:"max_body_bytes" envconfig:"MAX_BODY_BYTES" validate:"min=1"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gt=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"min=1"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	ServiceName   string  `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableTracing bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"min=0,max=1"`
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
}

// Load builds the configuration from defaults, then the YAML file at path
// (or the first config file found in the usual locations when path is empty),
// then PSCONVERT_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("failed to load config from %s", path), err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var validate = validator.New()

// Validate checks every field against its validate tag.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewConfigError("config validation failed", err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return apperrors.NewConfigError("config validation failed", fmt.Errorf("%s", strings.Join(messages, "; "))).
		WithContext("fields", len(validationErrors))
}

// DelimiterRune returns the parser delimiter as a rune.
func (p ParserConfig) DelimiterRune() rune {
	for _, r := range p.Delimiter {
		return r
	}
	return ','
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"psconvert.yaml",
		"configs/psconvert.yaml",
		"../configs/psconvert.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Parser: ParserConfig{
			Delimiter:        ",",
			Encoding:         "utf-16",
			HeaderSearchRows: 20,
			DecimalSeparator: "auto",
			NameMarkers: []string{
				"Cyclic Voltammetry",
				"Linear Sweep Voltammetry",
				"Differential Pulse Voltammetry",
				"Square Wave Voltammetry",
				"Chronoamperometry",
			},
			DateMarkers: []string{"Date and time measurement"},
		},
		Export: ExportConfig{
			Format:       "excel",
			Technique:    "Cyclic Voltammetry",
			TXTDelimiter: "\t",
			Concurrency:  4,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/psconvert.log",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    32 << 20, // 32MB
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "psconvert",
			Environment:   "development",
			EnableTracing: false,
			TraceExporter: "stdout",
			SampleRatio:   1.0,
			EnableMetrics: true,
		},
	}
}
