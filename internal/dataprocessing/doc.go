// Package dataprocessing parses CSV exports written by the PalmSens PStouch
// software. A PStouch export places every scan of a session side by side:
// a preamble of metadata rows, one column header row, then one potential and
// one current column per scan.
//
// # Pipeline
//
//	raw bytes → Decode → SplitRows → Detect → Extract → domain.Document
//
// Detect finds the header row and the first column of every scan. Extract
// reads each column pair until the first blank or non-numeric cell, so scans
// of different lengths in a rectangular file come out with their own point
// counts.
//
// # Usage
//
//	parser := dataprocessing.NewParser(cfg.Parser, logger)
//	doc, err := parser.ParseFile(ctx, "seconde misure.csv")
//	if err != nil {
//	    return err
//	}
//	scan, err := doc.Scan(0)
//
// # Errors
//
// Undecodable input fails with a DECODE error and an unrecognised layout with
// a MALFORMED_LAYOUT error. No partial Document is ever returned.
package dataprocessing
