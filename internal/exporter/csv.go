package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"psconvert/pkg/contracts/domain"
)

// Column headers shared by the single-scan writers.
const (
	PotentialHeader = "Potential (V)"
	CurrentHeader   = "Current (µA)"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Comma     rune
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes headers then records to w.
func WriteCSV(w io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if options.Comma != 0 {
		writer.Comma = options.Comma
	}

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ScanRecords renders a scan as potential/current string pairs.
func ScanRecords(scan domain.Scan) [][]string {
	records := make([][]string, scan.Len())
	for i := range scan.Potential {
		records[i] = []string{formatFloat(scan.Potential[i]), formatFloat(scan.Current[i])}
	}
	return records
}

// WideHeaders names the columns of the all-scans table. Scans are numbered
// from one.
func WideHeaders(count int) []string {
	headers := make([]string, 0, count*2)
	for i := 1; i <= count; i++ {
		headers = append(headers,
			fmt.Sprintf("Scan_%d_Potential_V", i),
			fmt.Sprintf("Scan_%d_Current_µA", i))
	}
	return headers
}

// WideRecords lays scans side by side. Shorter scans are padded with empty
// cells up to the longest one.
func WideRecords(scans []domain.Scan) [][]string {
	longest := 0
	for _, s := range scans {
		longest = max(longest, s.Len())
	}

	records := make([][]string, longest)
	for row := range records {
		record := make([]string, 0, len(scans)*2)
		for _, s := range scans {
			if row < s.Len() {
				record = append(record, formatFloat(s.Potential[row]), formatFloat(s.Current[row]))
			} else {
				record = append(record, "", "")
			}
		}
		records[row] = record
	}
	return records
}

// WriteScanCSV writes one scan as a two-column table.
func WriteScanCSV(w io.Writer, scan domain.Scan) error {
	return WriteCSV(w, WriteOptions{
		Headers: []string{PotentialHeader, CurrentHeader},
		Records: ScanRecords(scan),
	})
}

// WriteWideCSV writes every scan side by side.
func WriteWideCSV(w io.Writer, scans []domain.Scan) error {
	return WriteCSV(w, WriteOptions{
		Headers: WideHeaders(len(scans)),
		Records: WideRecords(scans),
	})
}
