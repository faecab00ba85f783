// Package channels merges parsed chromatogram points of many files into one
// wide table per (function, channel) pair.
//
// Every table keeps the union of the rounded retention times of its
// contributing files as the row axis, so files sampled on different time
// grids line up on shared rows and leave empty cells where they have no
// observation. Finalize assigns each table an Excel-safe, workbook-unique
// sheet name of the form "F<function>_<label>" and produces the INDEX
// summary in the same key order.
package channels
