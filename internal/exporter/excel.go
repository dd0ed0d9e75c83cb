package exporter

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"psconvert/pkg/contracts/domain"
)

// Sheet names used by the Excel workbook.
const (
	MetadataSheet = "Metadata"
	AllScansSheet = "All_Scans"
)

// Scan sheets start their data table below a two-line name/date block.
const scanHeaderRow = 4

// ScanSheetName names the sheet of the scan at zero-based index.
func ScanSheetName(index int) string {
	return fmt.Sprintf("Scan_%d", index+1)
}

// IndexedScan pairs a scan with its position in the document.
type IndexedScan struct {
	Index int
	Scan  domain.Scan
}

// ExcelWriter builds the workbook for a document.
type ExcelWriter struct {
	now func() time.Time
}

// NewExcelWriter creates an Excel writer. A nil clock uses time.Now.
func NewExcelWriter(now func() time.Time) *ExcelWriter {
	if now == nil {
		now = time.Now
	}
	return &ExcelWriter{now: now}
}

// Write renders the workbook and streams it to w. The workbook holds a
// Metadata sheet, one sheet per scan and the All_Scans wide table.
func (e *ExcelWriter) Write(w io.Writer, doc *domain.Document, scans []IndexedScan) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", MetadataSheet); err != nil {
		return fmt.Errorf("failed to create metadata sheet: %w", err)
	}
	if err := e.writeMetadata(f, doc, len(scans)); err != nil {
		return err
	}

	plain := make([]domain.Scan, 0, len(scans))
	for _, s := range scans {
		if err := writeScanSheet(f, s); err != nil {
			return err
		}
		plain = append(plain, s.Scan)
	}

	if err := writeWideSheet(f, plain); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (e *ExcelWriter) writeMetadata(f *excelize.File, doc *domain.Document, scanCount int) error {
	rows := [][]interface{}{
		{"Property", "Value"},
		{"Original file", filepath.Base(doc.SourcePath)},
		{"Import date", e.now().Format("2006-01-02 15:04:05")},
		{"Number of scans", scanCount},
	}
	if doc.RecordedAt != "" {
		rows = append(rows, []interface{}{"Recorded at", doc.RecordedAt})
	}
	if doc.Encoding != "" {
		rows = append(rows, []interface{}{"Encoding", doc.Encoding})
	}

	for i, row := range rows {
		if err := setRow(f, MetadataSheet, 1, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func writeScanSheet(f *excelize.File, s IndexedScan) error {
	sheet := ScanSheetName(s.Index)
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	if err := f.SetCellValue(sheet, "A1", "Name: "+s.Scan.Metadata.Name); err != nil {
		return err
	}
	if s.Scan.Metadata.HasDate() {
		date := s.Scan.Metadata.Date
		if at, ok := s.Scan.Metadata.MeasuredAt(); ok {
			date = at.Format("2006-01-02 15:04:05")
		}
		if err := f.SetCellValue(sheet, "A2", "Measurement date: "+date); err != nil {
			return err
		}
	}

	if err := setRow(f, sheet, 1, scanHeaderRow, []interface{}{PotentialHeader, CurrentHeader}); err != nil {
		return err
	}
	for i := range s.Scan.Potential {
		row := []interface{}{s.Scan.Potential[i], s.Scan.Current[i]}
		if err := setRow(f, sheet, 1, scanHeaderRow+1+i, row); err != nil {
			return err
		}
	}
	return nil
}

func writeWideSheet(f *excelize.File, scans []domain.Scan) error {
	if _, err := f.NewSheet(AllScansSheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", AllScansSheet, err)
	}

	headers := WideHeaders(len(scans))
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := setRow(f, AllScansSheet, 1, 1, header); err != nil {
		return err
	}

	for s, scan := range scans {
		col := s*2 + 1
		for i := range scan.Potential {
			if err := setRow(f, AllScansSheet, col, i+2, []interface{}{scan.Potential[i], scan.Current[i]}); err != nil {
				return err
			}
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, col, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
	}
	return nil
}
