// Package exporter serialises parsed PStouch documents.
//
// Four formats are supported:
//
//   - csv: two columns for one scan, or Scan_{n}_Potential_V/Scan_{n}_Current_µA
//     columns side by side for all scans
//   - excel: a Metadata sheet, one Scan_{n} sheet per scan and an All_Scans sheet
//   - txt: tab separated potential and current of one scan
//   - chi: CH Instruments text with currents converted from µA to A
//
// Example usage:
//
//	exp := exporter.New(cfg.Export, logger)
//	err := exp.ExportFile(ctx, doc, exporter.Request{Format: exporter.FormatCHI}, "scan1.chi")
package exporter
