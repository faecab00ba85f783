// Command combiner merges a folder of Waters MassLynx ASCII chromatogram
// exports into one Excel workbook with a sheet per channel.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mlxcli/internal/config"
	apperrors "mlxcli/internal/errors"
	"mlxcli/internal/infrastructure"
	"mlxcli/internal/services"
	"mlxcli/pkg/contracts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one combine and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, overrides, err := Parse(args)
	if err != nil {
		if IsHelp(err) {
			fmt.Fprintln(stdout, err)
			return 0
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	if opts.Version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return 0
	}
	if opts.Args.InputDir == "" {
		fmt.Fprintln(stderr, "error: the required argument `input_dir` was not provided")
		return 1
	}

	cfg, err := config.Load(opts.Config, overrides)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	logger, closeLog, err := infrastructure.InitializeLogger(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: failed to initialize logger: %v\n", err)
		return 1
	}
	defer closeLog()

	tel, err := infrastructure.InitializeTelemetry(cfg.Telemetry, contracts.Version, stderr, logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.CreateCombineMetrics(tel.Meter)
	if err != nil {
		logger.Error("Failed to create metrics", slog.String("error", err.Error()))
		return 1
	}

	ctx = infrastructure.EnsureRunID(ctx)
	logger.InfoContext(ctx, "Starting combine",
		slog.String("version", contracts.Version),
		slog.String("input_dir", opts.Args.InputDir),
		slog.String("output", cfg.Combine.Output),
		slog.Int("time_decimals", cfg.Combine.TimeDecimals))

	svc := services.NewCombineServiceWithLogger(opts.Args.InputDir, cfg.Combine, logger,
		services.WithTracer(tel.Tracer),
		services.WithMetrics(metrics),
	)
	result, err := svc.Run(ctx)
	if result != nil {
		printSummary(stdout, result, err == nil)
	}
	if err != nil {
		logger.ErrorContext(ctx, "Combine failed",
			slog.String("error", err.Error()),
			slog.String("error_type", string(apperrors.TypeOf(err))))
		fmt.Fprintf(stderr, "error: %s\n", userMessage(err, cfg.Combine))
		return 1
	}
	return 0
}

// printSummary writes the per-file outcome and, after a successful run, the
// produced files
func printSummary(w io.Writer, r *services.Result, written bool) {
	for _, f := range r.Files {
		switch {
		case f.Skipped:
			fmt.Fprintf(w, "  skipped %s: %s\n", f.RelPath, f.Reason)
		case f.Reason != "":
			fmt.Fprintf(w, "  partial %s: %d point(s), %s\n", f.RelPath, f.Points, f.Reason)
		case f.Points == 0:
			fmt.Fprintf(w, "  warning %s: no recognizable traces found\n", f.RelPath)
		default:
			fmt.Fprintf(w, "  ok      %s: %d point(s)\n", f.RelPath, f.Points)
		}
	}
	if !written {
		return
	}
	fmt.Fprintf(w, "Wrote workbook: %s (%d channel sheet(s), %s)\n",
		r.OutputPath, len(r.Sheets), r.Duration.Round(time.Millisecond))
	if r.IndexCSV != "" {
		fmt.Fprintf(w, "Wrote index CSV: %s\n", r.IndexCSV)
	}
	if r.LongCSV != "" {
		fmt.Fprintf(w, "Wrote long CSV: %s\n", r.LongCSV)
	}
}

// userMessage phrases the run-level failures for the terminal
func userMessage(err error, cfg config.CombineConfig) string {
	switch {
	case errors.Is(err, apperrors.ErrNoInputFiles):
		return fmt.Sprintf("no files matching %v found (recursive=%t)", cfg.Patterns, cfg.Recursive)
	case errors.Is(err, apperrors.ErrNoData):
		return "no data parsed from any file, nothing to write"
	case errors.Is(err, context.Canceled):
		return "interrupted, no workbook written"
	default:
		return err.Error()
	}
}
