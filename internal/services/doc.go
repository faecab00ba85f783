// Package services implements the combine run on top of the parser,
// aggregator and exporters.
//
// # Combine Flow
//
// CombineService.Run processes one input directory:
//
//  1. Resolve the input directory and the output path
//  2. Discover exports (files.Discovery), failing with ErrNoInputFiles
//  3. Read and parse each file in order, one span per file; unreadable
//     files are skipped and reported in Result.Warnings
//  4. Finalize the channel tables, failing with ErrNoData
//  5. Lock the output and write the workbook plus optional CSV exports
//
// Files are processed sequentially and the context is checked between
// files, so an interrupted run never writes a partial workbook.
//
// # Service Pattern
//
//	svc := services.NewCombineServiceWithLogger(dir, cfg.Combine, logger,
//	    services.WithTracer(tel.Tracer),
//	    services.WithMetrics(metrics))
//	result, err := svc.Run(ctx)
package services
