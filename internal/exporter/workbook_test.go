package exporter

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"mlxcli/internal/channels"
	"mlxcli/internal/masslynx"
)

// buildWorkbook aggregates two runs with different time grids
func buildWorkbook(t *testing.T) *channels.Workbook {
	t.Helper()

	agg := channels.NewAggregator()
	agg.Add("A.txt", masslynx.Parse(
		"FUNCTION 1\nRetention Time 0.500\n100.0 500\n"+
			"FUNCTION 2\nRetention Time 1.000\n220 10\n"))
	agg.Add("B.txt", masslynx.Parse(
		"FUNCTION 2\nRetention Time 1.000\n220 20\nRetention Time 2.000\n220 30.5\n"))

	wb, err := agg.Finalize()
	require.NoError(t, err)
	return wb
}

func openWorkbook(t *testing.T, path string) *excelize.File {
	t.Helper()

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWorkbookWriter_Write(t *testing.T) {
	wb := buildWorkbook(t)
	path := filepath.Join(t.TempDir(), "combined_by_channel_wide.xlsx")

	require.NoError(t, NewWorkbookWriter(nil).Write(path, wb))

	f := openWorkbook(t, path)
	assert.Equal(t, []string{"INDEX", "F1_MS", "F2_ch-220"}, f.GetSheetList())

	raw := excelize.Options{RawCellValue: true}

	index, err := f.GetRows("INDEX", raw)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"sheet_name", "function", "channel_id", "channel_label", "chromatograms", "rows_in_sheet"},
		{"F1_MS", "1", "MS", "MS", "1", "1"},
		{"F2_ch-220", "2", "220", "ch-220", "2", "2"},
	}, index)

	rows, err := f.GetRows("F2_ch-220", raw)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"A.txt_time", "A.txt_intensity", "B.txt_time", "B.txt_intensity"},
		{"1", "10", "1", "20"},
		{"", "", "2", "30.5"},
	}, rows)

	ms, err := f.GetRows("F1_MS", raw)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"A.txt_time", "A.txt_intensity"},
		{"0.5", "500"},
	}, ms)
}

func TestWorkbookWriter_RoundTrip(t *testing.T) {
	wb := buildWorkbook(t)
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, NewWorkbookWriter(nil).Write(path, wb))

	f := openWorkbook(t, path)
	raw := excelize.Options{RawCellValue: true}

	for _, sheet := range wb.Sheets {
		times := sheet.Table.Times()
		for col, file := range sheet.Table.Files() {
			for row, at := range times {
				want, ok := sheet.Table.Value(file, at)
				if !ok {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(2*col+2, row+2)
				require.NoError(t, err)

				got, err := f.GetCellValue(sheet.Name, cell, raw)
				require.NoError(t, err)
				v, err := strconv.ParseFloat(got, 64)
				require.NoError(t, err, "sheet %s cell %s", sheet.Name, cell)
				assert.Equal(t, want, v, "sheet %s cell %s", sheet.Name, cell)
			}
		}
	}
}

func TestWorkbookWriter_ReplacesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	require.NoError(t, NewWorkbookWriter(nil).Write(path, buildWorkbook(t)))

	f := openWorkbook(t, path)
	assert.True(t, slices.Contains(f.GetSheetList(), "INDEX"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestWorkbookWriter_UnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := NewWorkbookWriter(nil).Write(filepath.Join(blocker, "out.xlsx"), buildWorkbook(t))
	assert.Error(t, err)
}
