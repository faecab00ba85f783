package config

// Application constants
const (
	// Application Info
	AppName = "mlxcli combiner"

	// EnvPrefix namespaces every environment variable, e.g. MLX_COMBINE_TIME_DECIMALS
	EnvPrefix = "MLX"

	// Combine defaults
	DefaultOutput       = "combined_by_channel_wide.xlsx"
	DefaultPattern      = "*.txt"
	DefaultTimeDecimals = 3
	MaxTimeDecimals     = 9

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "console"
	DefaultLogFile   = "logs/combiner.log"

	// Telemetry
	DefaultServiceName = "mlxcli"
	MetricsNamespace   = "mlx"

	// Config file lookup, relative to the working directory and the home directory
	DefaultConfigFile     = "combiner.yaml"
	DefaultUserConfigFile = "~/.config/mlxcli/combiner.yaml"
)
