// Package services implements the application layer of psconvert. It sits
// between the CLI/HTTP front ends and the parsing and export packages.
//
// ConvertService owns the parse → export flow. Every parse and export runs
// in its own OpenTelemetry span and is counted in the conversion metrics:
//
//	svc := services.NewConvertService(cfg, telemetry.Tracer, metrics, logger)
//	result, err := svc.Convert(ctx, services.ConvertRequest{
//	    InputPath: "seconde misure.csv",
//	    Format:    exporter.FormatExcel,
//	})
//
// ConvertBatch fans conversions out over an errgroup bounded by the
// configured concurrency and never stops early on a failing file.
package services
