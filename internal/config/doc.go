// Package config loads the combiner configuration.
//
// # Configuration Sources
//
// Values are layered in increasing precedence:
//
//  1. Defaults (Default)
//  2. A YAML file: the --config path, else ./combiner.yaml, else
//     ~/.config/mlxcli/combiner.yaml
//  3. Environment variables with the MLX_ prefix
//  4. Command-line flags (Overrides)
//
// # Environment Variables
//
//	MLX_COMBINE_OUTPUT=combined.xlsx
//	MLX_COMBINE_RECURSIVE=true
//	MLX_COMBINE_TIME_DECIMALS=3
//	MLX_COMBINE_PATTERNS=*.txt,*.asc
//	MLX_LOGGING_LEVEL=debug
//	MLX_TELEMETRY_METRICS_FILE=/var/lib/node_exporter/mlx.prom
//
// # YAML File
//
//	combine:
//	  output: combined_by_channel_wide.xlsx
//	  sheet_prefix: Day1_
//	  time_decimals: 3
//	logging:
//	  level: info
//	  format: text
//
// Unknown keys in the file are rejected. The merged result is checked with
// validator struct tags; violations are reported together as one
// validation error.
package config
