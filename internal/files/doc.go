// Package files finds chromatogram exports on disk and guards the output
// workbook.
//
// Discovery: Lists the files below an input directory that match one or
// more glob patterns (default *.txt), optionally recursing into
// subdirectories. Results are sorted by relative path so runs are
// reproducible. Office owner files (~$*) and the output workbook are skipped.
//
// Access: ReadText reads an export, ExpandPath resolves ~ and relative
// paths, and LockOutput takes a non-blocking file lock next to the output.
//
// Example usage:
//
//	discovery := files.NewDiscovery("/data/run42", "/data/run42/combined_by_channel_wide.xlsx")
//	found, err := discovery.FindChromatograms(true, []string{"*.txt"})
//
//	lock, err := files.LockOutput("/data/run42/combined_by_channel_wide.xlsx")
//	if err != nil {
//	    return err
//	}
//	defer lock.Unlock()
package files
