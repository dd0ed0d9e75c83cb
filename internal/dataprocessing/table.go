package dataprocessing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	apperrors "psconvert/internal/errors"
)

// RawTable is decoded file content as rows of text cells. Rows may have
// different lengths. An empty line between records is an empty row; trailing
// empty lines are dropped.
type RawTable [][]string

// Cell returns the trimmed cell at (row, col) and whether it exists.
func (t RawTable) Cell(row, col int) (string, bool) {
	if row < 0 || row >= len(t) || col < 0 || col >= len(t[row]) {
		return "", false
	}
	return strings.TrimSpace(t[row][col]), true
}

// SplitRows splits text into rows of cells on delimiter. Quoted cells are
// honoured; stray quotes are kept literally.
func SplitRows(text string, delimiter rune) (RawTable, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows RawTable
	lastLine := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, apperrors.NewMalformedLayoutError(
					fmt.Sprintf("cannot split line %d: %v", parseErr.Line, parseErr.Err))
			}
			return nil, apperrors.NewAppValidationError(
				fmt.Sprintf("cannot split rows on delimiter %q: %v", delimiter, err))
		}
		line, _ := r.FieldPos(0)
		for ; lastLine+1 < line; lastLine++ {
			rows = append(rows, []string{})
		}
		rows = append(rows, record)
		lastLine = recordEndLine(r, record)
	}
	return rows, nil
}

// recordEndLine returns the line on which record's last field ends, counting
// newlines kept inside a quoted field.
func recordEndLine(r *csv.Reader, record []string) int {
	last := len(record) - 1
	line, _ := r.FieldPos(last)
	return line + strings.Count(record[last], "\n")
}
