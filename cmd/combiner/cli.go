package main

import (
	"github.com/jessevdk/go-flags"

	"mlxcli/internal/config"
)

// Options defines command line options
type Options struct {
	Output       string   `short:"o" long:"output" description:"output workbook, relative to input_dir unless absolute (default: combined_by_channel_wide.xlsx)"`
	Recursive    bool     `short:"r" long:"recursive" description:"scan subfolders recursively"`
	SheetPrefix  string   `short:"p" long:"sheet-prefix" description:"prefix for channel sheet names, e.g. Day1_"`
	TimeDecimals int      `short:"t" long:"time-decimals" description:"decimals used to round retention times before aligning (0-9, default: 3)"`
	Patterns     []string `long:"pattern" description:"file name glob to include, repeatable (default: *.txt)"`
	IndexCSV     string   `long:"index-csv" description:"also write the INDEX summary to this CSV file"`
	LongCSV      string   `long:"long-csv" description:"also write every observation to this long-format CSV file"`
	Config       string   `short:"c" long:"config" description:"YAML config file"`
	LogLevel     string   `long:"log-level" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"log level"`
	LogFormat    string   `long:"log-format" choice:"json" choice:"text" description:"console log format"`
	LogFile      string   `long:"log-file" description:"also write JSON logs to this file"`
	Trace        bool     `long:"trace" description:"print OpenTelemetry spans to stderr"`
	MetricsFile  string   `long:"metrics-file" description:"write Prometheus metrics to this textfile-collector file"`
	Version      bool     `short:"v" long:"version" description:"display the version and exit"`

	Args struct {
		InputDir string `positional-arg-name:"input_dir" description:"folder containing MassLynx .txt exports"`
	} `positional-args:"yes"`
}

// Parse returns parsed command-line flags and the overrides for the options
// that were actually given
func Parse(args []string) (*Options, config.Overrides, error) {
	opt := &Options{}
	parser := flags.NewParser(opt, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "combiner"
	parser.Usage = "[OPTIONS] input_dir"

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, config.Overrides{}, err
	}
	return opt, opt.overrides(parser), nil
}

// IsHelp reports whether err is the help request
func IsHelp(err error) bool {
	return flags.WroteHelp(err)
}

func (o *Options) overrides(p *flags.Parser) config.Overrides {
	isSet := func(long string) bool {
		opt := p.FindOptionByLongName(long)
		return opt != nil && opt.IsSet()
	}

	var ov config.Overrides
	if isSet("output") {
		ov.Output = &o.Output
	}
	if isSet("recursive") {
		ov.Recursive = &o.Recursive
	}
	if isSet("sheet-prefix") {
		ov.SheetPrefix = &o.SheetPrefix
	}
	if isSet("time-decimals") {
		ov.TimeDecimals = &o.TimeDecimals
	}
	ov.Patterns = o.Patterns
	if isSet("index-csv") {
		ov.IndexCSV = &o.IndexCSV
	}
	if isSet("long-csv") {
		ov.LongCSV = &o.LongCSV
	}
	if isSet("log-level") {
		ov.LogLevel = &o.LogLevel
	}
	if isSet("log-format") {
		ov.LogFormat = &o.LogFormat
	}
	if isSet("log-file") {
		ov.LogFile = &o.LogFile
	}
	if isSet("trace") {
		ov.Trace = &o.Trace
	}
	if isSet("metrics-file") {
		ov.MetricsFile = &o.MetricsFile
	}
	return ov
}
