package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"mlxcli/internal/channels"
	"mlxcli/pkg/contracts/domain"
)

// utf8BOM helps Excel recognize UTF-8 CSV files
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LongHeaders are the columns of the long-format CSV export
var LongHeaders = []string{"sheet_name", "function", "channel_id", "source_file", "time", "intensity"}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool
}

// WriteCSV writes data to a CSV file with the given options, truncating any
// existing file
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	sw, err := w.CreateStreamWriter(filePath, options.Headers, options.BOMPrefix)
	if err != nil {
		return err
	}
	for i, record := range options.Records {
		if err := sw.WriteRecord(record); err != nil {
			sw.Close()
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return sw.Close()
}

// WriteIndexCSV writes the INDEX summary as a CSV file
func (w *CSVWriter) WriteIndexCSV(filePath string, entries []domain.IndexEntry) error {
	records := make([][]string, 0, len(entries))
	for _, e := range entries {
		records = append(records, []string{
			e.SheetName,
			formatInt(e.Function),
			formatChannelID(e.ChannelID),
			e.ChannelLabel,
			formatInt(e.Chromatograms),
			formatInt(e.RowsInSheet),
		})
	}
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   domain.IndexHeaders,
		Records:   records,
		BOMPrefix: true,
	})
}

// WriteLongCSV streams every recorded observation as one tidy row per
// (sheet, file, time). Rows follow sheet order, then file order, then time.
func (w *CSVWriter) WriteLongCSV(filePath string, wb *channels.Workbook) error {
	sw, err := w.CreateStreamWriter(filePath, LongHeaders, true)
	if err != nil {
		return err
	}

	var rows int
	for _, sheet := range wb.Sheets {
		key := sheet.Table.Key()
		for _, file := range sheet.Table.Files() {
			for _, at := range sheet.Table.Times() {
				v, ok := sheet.Table.Value(file, at)
				if !ok {
					continue
				}
				record := []string{
					sheet.Name,
					formatInt(key.Function),
					formatChannelID(key.Channel),
					file,
					formatFloat(at),
					formatFloat(v),
				}
				if err := sw.WriteRecord(record); err != nil {
					sw.Close()
					return fmt.Errorf("failed to write row for %s: %w", sheet.Name, err)
				}
				rows++
			}
		}
	}

	w.logger.Info("Long-format CSV written",
		slog.String("file_path", filePath),
		slog.Int("rows", rows))
	return sw.Close()
}

// StreamWriter provides streaming CSV writing for large datasets
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
}

// CreateStreamWriter creates a new streaming CSV writer
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string, bom bool) (*StreamWriter, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	if bom {
		if _, err := file.Write(utf8BOM); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return &StreamWriter{file: file, writer: writer}, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Close flushes and closes the stream writer
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
