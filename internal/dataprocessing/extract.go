package dataprocessing

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "psconvert/internal/errors"
	"psconvert/pkg/contracts/domain"
)

// ExtractOptions configures metadata lookup and number parsing.
type ExtractOptions struct {
	Decimal     DecimalMode
	NameMarkers []string
	DateMarkers []string
}

// fileDateMarker labels the file-level timestamp PStouch writes on line one.
const fileDateMarker = "date and time:"

// dateLike matches exactly the forms domain.ScanDateLayouts can parse.
var dateLike = regexp.MustCompile(`\d{4}-\d{2}-\d{2}(?:[ T]\d{1,2}:\d{2}(?::\d{2})?)?` +
	`|(?:\d{1,2}/\d{1,2}/\d{4}|\d{1,2}\.\d{1,2}\.\d{4}|\d{1,2}-\d{1,2}-\d{4})(?: \d{1,2}:\d{2}(?::\d{2})?)?`)

// Extract builds one Scan per layout start. Data rows are read until the
// first row where either cell of the pair is blank or non-numeric. A column
// pair outside the header row fails the whole extraction.
func Extract(rows RawTable, layout Layout, opts ExtractOptions) ([]domain.Scan, error) {
	if layout.HeaderRow < 0 || layout.HeaderRow >= len(rows) {
		return nil, apperrors.NewMalformedLayoutError(
			fmt.Sprintf("header row %d outside table of %d rows", layout.HeaderRow, len(rows)))
	}
	if len(layout.ScanStarts) == 0 {
		return nil, apperrors.NewMalformedLayoutError("layout has no scan columns")
	}

	header := rows[layout.HeaderRow]
	preamble := rows[:layout.HeaderRow]
	nameRow := findMarkerRow(preamble, opts.NameMarkers)
	dateRow := findDateRow(preamble, opts.DateMarkers)

	scans := make([]domain.Scan, 0, len(layout.ScanStarts))
	for i, start := range layout.ScanStarts {
		if start < 0 || start+ScanWidth > len(header) {
			return nil, apperrors.NewMalformedLayoutError(
				fmt.Sprintf("scan %d columns [%d,%d) outside header row of %d cells", i+1, start, start+ScanWidth, len(header))).
				WithContext("scan", i).
				WithContext("column", start)
		}

		meta := domain.ScanMetadata{
			Name:         fmt.Sprintf("Scan %d", i+1),
			ColumnOffset: start,
		}
		if name := firstInSpan(rows, nameRow, start, isNonBlank); name != "" {
			meta.Name = name
		}
		meta.Date = dateLike.FindString(firstInSpan(rows, dateRow, start, dateLike.MatchString))

		potential, current := extractSeries(rows, layout.DataStartRow, start, opts.Decimal)
		scans = append(scans, domain.Scan{
			Metadata:  meta,
			Potential: potential,
			Current:   current,
		})
	}
	return scans, nil
}

func extractSeries(rows RawTable, from, col int, mode DecimalMode) ([]float64, []float64) {
	potential := []float64{}
	current := []float64{}
	for r := from; r < len(rows); r++ {
		pCell, ok := rows.Cell(r, col)
		if !ok {
			break
		}
		cCell, ok := rows.Cell(r, col+1)
		if !ok {
			break
		}
		p, ok := ParseNumber(pCell, mode)
		if !ok {
			break
		}
		c, ok := ParseNumber(cCell, mode)
		if !ok {
			break
		}
		potential = append(potential, p)
		current = append(current, c)
	}
	return potential, current
}

// DocumentDate returns the file-level timestamp from the first row when
// that row is preamble, as in "Date and time:,2024-03-05 10:15:30".
func DocumentDate(rows RawTable, layout Layout) string {
	if layout.HeaderRow <= 0 || len(rows) == 0 {
		return ""
	}
	label, _ := rows.Cell(0, 0)
	value, ok := rows.Cell(0, 1)
	if !ok || !dateLike.MatchString(value) {
		return ""
	}
	if label != "" && !strings.HasPrefix(strings.ToLower(label), "date") {
		return ""
	}
	return value
}

func findMarkerRow(preamble RawTable, markers []string) int {
	for i, row := range preamble {
		if rowContainsMarker(row, markers) {
			return i
		}
	}
	return -1
}

func findDateRow(preamble RawTable, markers []string) int {
	if i := findMarkerRow(preamble, markers); i >= 0 {
		return i
	}
	for i := len(preamble) - 1; i >= 0; i-- {
		if isFileDateRow(preamble[i]) {
			continue
		}
		for _, cell := range preamble[i] {
			if dateLike.MatchString(cell) {
				return i
			}
		}
	}
	return -1
}

func isFileDateRow(row []string) bool {
	return len(row) > 0 && strings.HasPrefix(strings.ToLower(strings.TrimSpace(row[0])), fileDateMarker)
}

func rowContainsMarker(row []string, markers []string) bool {
	for _, cell := range row {
		lower := strings.ToLower(cell)
		for _, m := range markers {
			if m != "" && strings.Contains(lower, strings.ToLower(m)) {
				return true
			}
		}
	}
	return false
}

// firstInSpan returns the first trimmed cell of row within the scan's column
// span that satisfies match.
func firstInSpan(rows RawTable, row, start int, match func(string) bool) string {
	if row < 0 {
		return ""
	}
	for col := start; col < start+ScanWidth; col++ {
		cell, ok := rows.Cell(row, col)
		if ok && match(cell) {
			return cell
		}
	}
	return ""
}

func isNonBlank(s string) bool {
	return s != ""
}
