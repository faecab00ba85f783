// Package masslynx parses Waters MassLynx ASCII chromatogram exports.
//
// An export is a loosely delimited text file made of FUNCTION blocks:
//
//	FUNCTION 2
//	Scan 1
//	Retention Time 0.015
//	220	1234
//	254	987
//
// Every line is classified once (see Classify) and folded into a small
// parse state. Numeric pairs become domain.DataPoint values once both a
// FUNCTION and a Retention Time line are known for the current block.
// Function 1 pairs are (m/z, intensity) and are collapsed into a single MS
// trace; pairs of every other function are (channel, intensity).
//
// Parsing is best effort: unknown lines are counted in Stats and skipped,
// and only I/O failures are reported through Reader.Err.
//
// Usage:
//
//	r := masslynx.NewReader(f, masslynx.WithTimeDecimals(3))
//	for p := range r.Points() {
//	    aggregate(p)
//	}
//	if err := r.Err(); err != nil {
//	    return err
//	}
package masslynx
