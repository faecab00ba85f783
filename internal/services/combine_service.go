package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mlxcli/internal/channels"
	"mlxcli/internal/config"
	apperrors "mlxcli/internal/errors"
	"mlxcli/internal/exporter"
	"mlxcli/internal/files"
	"mlxcli/internal/infrastructure"
	"mlxcli/internal/masslynx"
	"mlxcli/pkg/contracts/domain"
)

// FileResult describes what one input file contributed to a run
type FileResult struct {
	Name     string         `json:"name"`
	RelPath  string         `json:"rel_path"`
	Points   int            `json:"points"`
	Recorded int            `json:"recorded"`
	Skipped  bool           `json:"skipped"`
	Reason   string         `json:"reason,omitempty"`
	Stats    masslynx.Stats `json:"stats"`
}

// Result summarizes a combine run
type Result struct {
	RunID      string              `json:"run_id"`
	InputDir   string              `json:"input_dir"`
	OutputPath string              `json:"output_path"`
	IndexCSV   string              `json:"index_csv,omitempty"`
	LongCSV    string              `json:"long_csv,omitempty"`
	Files      []FileResult        `json:"files"`
	Sheets     []domain.IndexEntry `json:"sheets"`
	Warnings   []string            `json:"warnings,omitempty"`
	Duration   time.Duration       `json:"duration"`
}

// ServiceOption configures a CombineService
type ServiceOption func(*CombineService)

// WithTracer sets the tracer used for per-file spans
func WithTracer(tracer trace.Tracer) ServiceOption {
	return func(s *CombineService) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithMetrics sets the instruments recorded by Run
func WithMetrics(m *infrastructure.CombineMetrics) ServiceOption {
	return func(s *CombineService) {
		s.metrics = m
	}
}

// CombineService turns a directory of MassLynx exports into one workbook
type CombineService struct {
	inputDir string
	cfg      config.CombineConfig
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *infrastructure.CombineMetrics
	workbook *exporter.WorkbookWriter
	csv      *exporter.CSVWriter
	readText func(string) (string, error)
}

// NewCombineService creates a combine service using the default logger
func NewCombineService(inputDir string, cfg config.CombineConfig, opts ...ServiceOption) *CombineService {
	return NewCombineServiceWithLogger(inputDir, cfg, slog.Default(), opts...)
}

// NewCombineServiceWithLogger creates a combine service with a specific logger
func NewCombineServiceWithLogger(inputDir string, cfg config.CombineConfig, logger *slog.Logger, opts ...ServiceOption) *CombineService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &CombineService{
		inputDir: inputDir,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "combine_service")),
		tracer:   noop.NewTracerProvider().Tracer(infrastructure.InstrumentationName),
		workbook: exporter.NewWorkbookWriter(logger),
		csv:      exporter.NewCSVWriter(logger),
		readText: files.ReadText,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run discovers, parses and aggregates every input file sequentially, then
// writes the workbook and any configured CSV exports. Unreadable files are
// skipped with a warning; no files or no data at all fail the run before
// anything is written.
func (s *CombineService) Run(ctx context.Context) (result *Result, err error) {
	start := time.Now()
	ctx = infrastructure.EnsureRunID(ctx)
	result = &Result{RunID: infrastructure.GetRunID(ctx)}

	defer func() {
		result.Duration = time.Since(start)
		status := "success"
		if err != nil {
			status = "failure"
		}
		s.metrics.RecordRun(ctx, result.Duration, len(result.Sheets), status)
	}()

	root, err := s.resolveInputDir()
	if err != nil {
		return result, err
	}
	result.InputDir = root

	output, err := files.ResolveOutput(root, s.cfg.Output)
	if err != nil {
		return result, err
	}
	result.OutputPath = output

	found, err := files.NewDiscovery(root, output).FindChromatograms(s.cfg.Recursive, s.cfg.Patterns)
	if err != nil {
		return result, err
	}
	if len(found) == 0 {
		return result, apperrors.ErrNoInputFiles.
			WithContext("dir", root).
			WithContext("recursive", s.cfg.Recursive)
	}
	if s.metrics != nil {
		s.metrics.FilesDiscovered.Add(ctx, int64(len(found)))
	}

	s.logger.InfoContext(ctx, "Combining chromatograms",
		slog.String("input_dir", root),
		slog.Int("files", len(found)),
		slog.Bool("recursive", s.cfg.Recursive))

	agg := channels.NewAggregator(
		channels.WithSheetPrefix(s.cfg.SheetPrefix),
		channels.WithLogger(s.logger),
	)
	names := displayNames(found)
	for i, f := range found {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("combine interrupted: %w", err)
		}
		fr := s.parseFile(ctx, f, names[i], agg)
		if fr.Reason != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", f.RelPath, fr.Reason))
		}
		result.Files = append(result.Files, fr)
	}

	wb, err := agg.Finalize()
	if err != nil {
		return result, err
	}
	result.Sheets = wb.Index

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("combine interrupted: %w", err)
	}
	if err := s.write(ctx, root, output, wb, result); err != nil {
		return result, err
	}

	s.logger.InfoContext(ctx, "Workbook written",
		slog.String("output", output),
		slog.Int("sheets", len(wb.Sheets)),
		slog.Int("warnings", len(result.Warnings)))
	return result, nil
}

// resolveInputDir expands the input directory and checks it is a directory
func (s *CombineService) resolveInputDir() (string, error) {
	root, err := files.ExpandPath(s.inputDir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", apperrors.NewValidationError("input directory does not exist", err).WithContext("path", root)
	}
	if !info.IsDir() {
		return "", apperrors.NewValidationError("input path is not a directory", nil).WithContext("path", root)
	}
	return root, nil
}

// parseFile reads and parses one file into agg inside its own span
func (s *CombineService) parseFile(ctx context.Context, f files.FileInfo, name string, agg *channels.Aggregator) FileResult {
	ctx, span := s.tracer.Start(ctx, "combine.parse_file", trace.WithAttributes(
		attribute.String("file.path", f.RelPath),
		attribute.Int64("file.size", f.Size),
	))
	defer span.End()
	started := time.Now()

	fr := FileResult{Name: name, RelPath: f.RelPath}
	logger := s.logger.With(slog.String("file", f.RelPath))

	text, err := s.readText(f.Path)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		logger.WarnContext(ctx, "File skipped", slog.String("error", err.Error()))
		if s.metrics != nil {
			s.metrics.FilesSkipped.Add(ctx, 1)
		}
		fr.Skipped = true
		fr.Reason = err.Error()
		return fr
	}

	reader := masslynx.NewReader(strings.NewReader(text),
		masslynx.WithTimeDecimals(s.cfg.TimeDecimals),
		masslynx.WithLogger(logger))
	fr.Recorded = agg.Add(name, reader.Points())
	fr.Stats = reader.Stats()
	fr.Points = fr.Stats.Emitted

	if err := reader.Err(); err != nil {
		infrastructure.RecordError(ctx, err)
		logger.WarnContext(ctx, "File only partially parsed", slog.String("error", err.Error()))
		fr.Reason = err.Error()
	}

	span.SetAttributes(
		attribute.Int("parse.points", fr.Points),
		attribute.Int("parse.lines", fr.Stats.Lines),
	)
	if s.metrics != nil {
		s.metrics.FilesParsed.Add(ctx, 1)
		s.metrics.PointsParsed.Add(ctx, int64(fr.Points))
		s.metrics.ParseDuration.Record(ctx, time.Since(started).Seconds())
	}

	if fr.Points == 0 {
		logger.InfoContext(ctx, "No recognizable traces found", slog.Int("lines", fr.Stats.Lines))
	} else {
		logger.InfoContext(ctx, "File parsed",
			slog.Int("points", fr.Points),
			slog.Int("recorded", fr.Recorded),
			slog.Int("functions", fr.Stats.Functions),
			slog.Int("no_context", fr.Stats.NoContext))
	}
	return fr
}

// write stores the workbook and the optional CSV exports while holding the
// output lock
func (s *CombineService) write(ctx context.Context, root, output string, wb *channels.Workbook, result *Result) error {
	lock, err := files.LockOutput(output)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.WarnContext(ctx, "Failed to release output lock", slog.String("error", err.Error()))
		}
	}()

	if err := s.workbook.Write(output, wb); err != nil {
		return apperrors.NewStorageError("failed to write workbook", err).WithContext("path", output)
	}

	if s.cfg.IndexCSV != "" {
		p, err := files.ResolveOutput(root, s.cfg.IndexCSV)
		if err != nil {
			return err
		}
		if err := s.csv.WriteIndexCSV(p, wb.Index); err != nil {
			return apperrors.NewStorageError("failed to write index CSV", err).WithContext("path", p)
		}
		result.IndexCSV = p
	}

	if s.cfg.LongCSV != "" {
		p, err := files.ResolveOutput(root, s.cfg.LongCSV)
		if err != nil {
			return err
		}
		if err := s.csv.WriteLongCSV(p, wb); err != nil {
			return apperrors.NewStorageError("failed to write long CSV", err).WithContext("path", p)
		}
		result.LongCSV = p
	}
	return nil
}

// displayNames labels each file by its base name, falling back to the
// relative path for base names that occur more than once
func displayNames(found []files.FileInfo) []string {
	counts := make(map[string]int, len(found))
	for _, f := range found {
		counts[f.Name]++
	}
	names := make([]string, len(found))
	for i, f := range found {
		if counts[f.Name] > 1 {
			names[i] = path.Clean(f.RelPath)
		} else {
			names[i] = f.Name
		}
	}
	return names
}
