package domain

import (
	"math"
	"slices"
	"strings"
	"time"

	apperrors "psconvert/internal/errors"
)

// ScanDateLayouts are the timestamp layouts accepted for the "Date and time
// measurement" row: ISO dates, and day-first dates separated by "/", "." or
// "-", each optionally followed by a time with or without seconds.
var ScanDateLayouts = buildDateLayouts()

func buildDateLayouts() []string {
	layouts := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006-01-02",
	}
	for _, sep := range []string{"/", ".", "-"} {
		day := "2" + sep + "1" + sep + "2006"
		layouts = append(layouts, day+" 15:04:05", day+" 15:04", day)
	}
	return layouts
}

// ScanMetadata describes one scan block of a PStouch export.
type ScanMetadata struct {
	Name         string `json:"name"`
	Date         string `json:"date,omitempty"`
	ColumnOffset int    `json:"column_offset"`
}

// HasDate reports whether a measurement date was found for the scan.
func (m ScanMetadata) HasDate() bool {
	return strings.TrimSpace(m.Date) != ""
}

// MeasuredAt parses Date with the known PStouch layouts.
func (m ScanMetadata) MeasuredAt() (time.Time, bool) {
	if !m.HasDate() {
		return time.Time{}, false
	}
	value := strings.TrimSpace(m.Date)
	for _, layout := range ScanDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Scan is one potential/current sweep. Potential and Current are point-aligned.
type Scan struct {
	Metadata  ScanMetadata `json:"metadata"`
	Potential []float64    `json:"potential"`
	Current   []float64    `json:"current"`
}

// Len returns the number of points in the scan.
func (s Scan) Len() int {
	return len(s.Potential)
}

// Clone returns a deep copy of the scan.
func (s Scan) Clone() Scan {
	return Scan{
		Metadata:  s.Metadata,
		Potential: slices.Clone(s.Potential),
		Current:   slices.Clone(s.Current),
	}
}

// Range is a closed numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ScanSummary carries the descriptive statistics reported for a scan.
type ScanSummary struct {
	Index          int    `json:"index"`
	Name           string `json:"name"`
	Date           string `json:"date,omitempty"`
	Points         int    `json:"points"`
	PotentialRange *Range `json:"potential_range,omitempty"`
	CurrentRange   *Range `json:"current_range,omitempty"`
}

// Summary computes point count and value ranges. Ranges are nil for an empty scan.
func (s Scan) Summary() ScanSummary {
	summary := ScanSummary{
		Name:   s.Metadata.Name,
		Date:   s.Metadata.Date,
		Points: s.Len(),
	}
	if s.Len() > 0 {
		summary.PotentialRange = rangeOf(s.Potential)
		summary.CurrentRange = rangeOf(s.Current)
	}
	return summary
}

func rangeOf(values []float64) *Range {
	r := &Range{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range values {
		r.Min = math.Min(r.Min, v)
		r.Max = math.Max(r.Max, v)
	}
	return r
}

// Document is the parsed content of one export file. It is built once by the
// parser and must be treated as read-only afterwards.
type Document struct {
	SourcePath string `json:"source_path"`
	Encoding   string `json:"encoding"`
	RecordedAt string `json:"recorded_at,omitempty"`
	Scans      []Scan `json:"scans"`
}

// ScanCount returns the number of scans in the document.
func (d *Document) ScanCount() int {
	return len(d.Scans)
}

// ScanNames returns scan names in discovery order.
func (d *Document) ScanNames() []string {
	names := make([]string, len(d.Scans))
	for i, s := range d.Scans {
		names[i] = s.Metadata.Name
	}
	return names
}

// Scan returns a copy of the scan at index.
func (d *Document) Scan(index int) (Scan, error) {
	if index < 0 || index >= len(d.Scans) {
		return Scan{}, apperrors.NewIndexOutOfRangeError(index, len(d.Scans))
	}
	return d.Scans[index].Clone(), nil
}

// DocumentSummary is the listing returned by inspect operations.
type DocumentSummary struct {
	SourcePath string        `json:"source_path"`
	Encoding   string        `json:"encoding"`
	RecordedAt string        `json:"recorded_at,omitempty"`
	ScanCount  int           `json:"scan_count"`
	Scans      []ScanSummary `json:"scans"`
}

// Summary builds a DocumentSummary.
func (d *Document) Summary() DocumentSummary {
	summary := DocumentSummary{
		SourcePath: d.SourcePath,
		Encoding:   d.Encoding,
		RecordedAt: d.RecordedAt,
		ScanCount:  d.ScanCount(),
		Scans:      make([]ScanSummary, 0, len(d.Scans)),
	}
	for i, s := range d.Scans {
		ss := s.Summary()
		ss.Index = i
		summary.Scans = append(summary.Scans, ss)
	}
	return summary
}
