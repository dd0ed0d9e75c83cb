package dataprocessing

import (
	"fmt"

	apperrors "psconvert/internal/errors"
)

// ScanWidth is the number of columns every scan occupies: potential then current.
const ScanWidth = 2

// DefaultHeaderSearchRows bounds the preamble when DetectOptions leaves it unset.
const DefaultHeaderSearchRows = 20

// Layout holds the positional facts needed to locate scan data in a RawTable.
type Layout struct {
	ScanStarts   []int `json:"scan_starts"`
	HeaderRow    int   `json:"header_row"`
	DataStartRow int   `json:"data_start_row"`
}

// DetectOptions tunes the layout heuristics.
type DetectOptions struct {
	HeaderSearchRows int
}

// Detect locates the column header row and the first column of every scan.
// The header row is the first row within the search window holding both a
// potential-like and a current-like cell. Every potential-like cell on it
// starts a scan and must be immediately followed by a current-like cell.
func Detect(rows RawTable, opts DetectOptions) (Layout, error) {
	window := opts.HeaderSearchRows
	if window <= 0 {
		window = DefaultHeaderSearchRows
	}
	if window > len(rows) {
		window = len(rows)
	}

	for i := 0; i < window; i++ {
		starts, hasCurrent := headerColumns(rows[i])
		if len(starts) == 0 || !hasCurrent {
			continue
		}
		if col, ok := unpairedPotential(rows[i], starts); ok {
			return Layout{}, apperrors.NewMalformedLayoutError(
				fmt.Sprintf("potential column %d on header row %d is not followed by a current column", col, i)).
				WithContext("header_row", i).
				WithContext("column", col)
		}
		return Layout{
			ScanStarts:   starts,
			HeaderRow:    i,
			DataStartRow: i + 1,
		}, nil
	}

	return Layout{}, apperrors.NewMalformedLayoutError(
		fmt.Sprintf("no potential/current header row in the first %d rows", window)).
		WithContext("rows_searched", window)
}

func headerColumns(row []string) (starts []int, hasCurrent bool) {
	for col, cell := range row {
		switch classifyHeader(cell) {
		case columnPotential:
			starts = append(starts, col)
		case columnCurrent:
			hasCurrent = true
		}
	}
	return starts, hasCurrent
}

func unpairedPotential(row []string, starts []int) (int, bool) {
	for _, col := range starts {
		if col+1 >= len(row) || classifyHeader(row[col+1]) != columnCurrent {
			return col, true
		}
	}
	return 0, false
}
