package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v2"

	apperrors "mlxcli/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Combine   CombineConfig   `yaml:"combine" envconfig:"COMBINE"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// CombineConfig controls discovery, parsing and the produced workbook
type CombineConfig struct {
	Output       string   `yaml:"output" split_words:"true" validate:"required,xlsx"`
	Recursive    bool     `yaml:"recursive" split_words:"true"`
	SheetPrefix  string   `yaml:"sheet_prefix" split_words:"true"`
	TimeDecimals int      `yaml:"time_decimals" split_words:"true" validate:"gte=0,lte=9"`
	Patterns     []string `yaml:"patterns" split_words:"true" validate:"min=1,dive,required"`
	IndexCSV     string   `yaml:"index_csv" split_words:"true" validate:"omitempty,csvfile"`
	LongCSV      string   `yaml:"long_csv" split_words:"true" validate:"omitempty,csvfile"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" split_words:"true" validate:"oneof=json text"`
	Output   string `yaml:"output" split_words:"true" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" split_words:"true" validate:"required_unless=Output console"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	Trace       bool   `yaml:"trace" split_words:"true"`
	ServiceName string `yaml:"service_name" split_words:"true" validate:"required"`
	MetricsFile string `yaml:"metrics_file" split_words:"true"`
}

// Overrides carries command-line values. Nil fields leave the loaded value
// untouched.
type Overrides struct {
	Output       *string
	Recursive    *bool
	SheetPrefix  *string
	TimeDecimals *int
	Patterns     []string
	IndexCSV     *string
	LongCSV      *string
	LogLevel     *string
	LogFormat    *string
	LogFile      *string
	Trace        *bool
	MetricsFile  *string
}

// Load builds the configuration from defaults, the YAML file at path (or
// the first default location that exists), MLX_* environment variables and
// finally the command-line overrides, in increasing precedence.
func Load(path string, o Overrides) (*Config, error) {
	cfg := Default()

	configFile, err := getConfigFilePath(path)
	if err != nil {
		return nil, err
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).WithContext("path", configFile)
		}
	}

	// Fields without a matching variable keep their current value
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	cfg.Apply(o)

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
	return yaml.UnmarshalStrict(data, cfg)
}

// getConfigFilePath returns the explicit path, which must exist, or the
// first default location found
func getConfigFilePath(explicit string) (string, error) {
	if explicit != "" {
		p, err := homedir.Expand(explicit)
		if err != nil {
			return "", apperrors.NewConfigError("cannot expand config path", err)
		}
		if _, err := os.Stat(p); err != nil {
			return "", apperrors.NewConfigError("config file not found", err).WithContext("path", p)
		}
		return p, nil
	}

	for _, location := range []string{DefaultConfigFile, DefaultUserConfigFile} {
		p, err := homedir.Expand(location)
		if err != nil {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// Apply copies every set override into c
func (c *Config) Apply(o Overrides) {
	setString(&c.Combine.Output, o.Output)
	setBool(&c.Combine.Recursive, o.Recursive)
	setString(&c.Combine.SheetPrefix, o.SheetPrefix)
	if o.TimeDecimals != nil {
		c.Combine.TimeDecimals = *o.TimeDecimals
	}
	if len(o.Patterns) > 0 {
		c.Combine.Patterns = append([]string(nil), o.Patterns...)
	}
	setString(&c.Combine.IndexCSV, o.IndexCSV)
	setString(&c.Combine.LongCSV, o.LongCSV)

	setString(&c.Logging.Level, o.LogLevel)
	setString(&c.Logging.Format, o.LogFormat)
	if o.LogFile != nil && *o.LogFile != "" {
		c.Logging.FilePath = *o.LogFile
		if c.Logging.Output == "console" {
			c.Logging.Output = "both"
		}
	}

	setBool(&c.Telemetry.Trace, o.Trace)
	setString(&c.Telemetry.MetricsFile, o.MetricsFile)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Validate checks the configuration against its struct tags
func (c *Config) Validate() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	c.Logging.Output = strings.ToLower(c.Logging.Output)
	if c.Logging.Level == "warning" {
		c.Logging.Level = "warn"
	}

	err := newValidator().Struct(c)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewConfigError("config validation failed", err)
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, formatValidationError(fe))
	}
	return apperrors.NewValidationError("invalid configuration: "+strings.Join(messages, "; "), err).
		WithContext("fields", len(fieldErrs))
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	v.RegisterValidation("xlsx", hasExtension(".xlsx"))
	v.RegisterValidation("csvfile", hasExtension(".csv"))
	return v
}

func hasExtension(ext string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return strings.HasSuffix(strings.ToLower(fl.Field().String()), ext)
	}
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_unless":
		return fmt.Sprintf("%s is required unless %s", field, param)
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "xlsx":
		return fmt.Sprintf("%s must name an .xlsx file", field)
	case "csvfile":
		return fmt.Sprintf("%s must name a .csv file", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Combine: CombineConfig{
			Output:       DefaultOutput,
			TimeDecimals: DefaultTimeDecimals,
			Patterns:     []string{DefaultPattern},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   DefaultLogOutput,
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			ServiceName: DefaultServiceName,
		},
	}
}
