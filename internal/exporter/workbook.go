package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"mlxcli/internal/channels"
	"mlxcli/pkg/contracts/domain"
)

const (
	timeColumnWidth      = 14
	intensityColumnWidth = 18
)

// WorkbookWriter writes a finalized channel workbook as .xlsx
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{logger: logger.With(slog.String("component", "workbook_writer"))}
}

// Write stores wb at path: the INDEX sheet first, then one sheet per
// channel. The file is written next to path and renamed into place, so a
// failed run never leaves a truncated workbook behind.
func (w *WorkbookWriter) Write(path string, wb *channels.Workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetName(f.GetSheetName(0), channels.IndexSheetName); err != nil {
		return fmt.Errorf("failed to name index sheet: %w", err)
	}
	if err := writeIndexSheet(f, wb.Index, header); err != nil {
		return err
	}

	for _, sheet := range wb.Sheets {
		if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet.Name, err)
		}
		if err := writeChannelSheet(f, sheet, header); err != nil {
			return err
		}
		w.logger.Debug("Sheet written",
			slog.String("sheet", sheet.Name),
			slog.Int("rows", sheet.Table.Len()),
			slog.Int("files", len(sheet.Table.Files())))
	}
	f.SetActiveSheet(0)

	if err := save(f, path); err != nil {
		return err
	}

	w.logger.Info("Workbook written",
		slog.String("path", path),
		slog.Int("sheets", len(wb.Sheets)+1))
	return nil
}

func writeIndexSheet(f *excelize.File, entries []domain.IndexEntry, headerStyle int) error {
	sw, err := f.NewStreamWriter(channels.IndexSheetName)
	if err != nil {
		return fmt.Errorf("failed to open index sheet: %w", err)
	}
	if err := sw.SetColWidth(1, 1, 24); err != nil {
		return err
	}
	if err := sw.SetRow("A1", toRow(domain.IndexHeaders), excelize.RowOpts{StyleID: headerStyle}); err != nil {
		return fmt.Errorf("failed to write index header: %w", err)
	}

	for i, e := range entries {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			e.SheetName,
			e.Function,
			channelIDCell(e.ChannelID),
			e.ChannelLabel,
			e.Chromatograms,
			e.RowsInSheet,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write index row %d: %w", i+1, err)
		}
	}
	return sw.Flush()
}

func writeChannelSheet(f *excelize.File, sheet channels.Sheet, headerStyle int) error {
	sw, err := f.NewStreamWriter(sheet.Name)
	if err != nil {
		return fmt.Errorf("failed to open sheet %s: %w", sheet.Name, err)
	}

	header := sheet.Table.Header()
	for col := 1; col <= len(header); col += 2 {
		if err := sw.SetColWidth(col, col, timeColumnWidth); err != nil {
			return err
		}
		if err := sw.SetColWidth(col+1, col+1, intensityColumnWidth); err != nil {
			return err
		}
	}
	if err := sw.SetPanes(&excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header of %s: %w", sheet.Name, err)
	}

	if err := sw.SetRow("A1", toRow(header), excelize.RowOpts{StyleID: headerStyle}); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet.Name, err)
	}
	for i, row := range sheet.Table.Rows() {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet.Name, err)
		}
	}
	return sw.Flush()
}

// save writes f to a temporary file in path's directory and renames it
func save(f *excelize.File, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary workbook: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := f.Write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close workbook: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move workbook into place: %w", err)
	}
	return nil
}

func toRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

// channelIDCell keeps PDA/UV channel ids numeric in the sheet
func channelIDCell(id domain.ChannelID) interface{} {
	if id.MS {
		return id.String()
	}
	return id.Number
}
