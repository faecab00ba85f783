// Package exporter writes the combined chromatogram workbook and its
// optional CSV companions.
//
// WorkbookWriter: Streams the INDEX summary and one wide-format sheet per
// channel into an .xlsx file with excelize. The workbook is written to a
// temporary file first and renamed into place.
//
// CSVWriter: Writes the INDEX summary and the long-format (tidy) export as
// CSV, with a UTF-8 BOM for Excel compatibility.
//
// Example usage:
//
//	wb, err := aggregator.Finalize()
//	if err != nil {
//	    return err
//	}
//	err = exporter.NewWorkbookWriter(logger).Write("combined_by_channel_wide.xlsx", wb)
package exporter
