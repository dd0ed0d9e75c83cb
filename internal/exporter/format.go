package exporter

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "psconvert/internal/errors"
)

// Format identifies an output file format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatTXT   Format = "txt"
	FormatCHI   Format = "chi"
)

// Formats lists every supported output format.
func Formats() []Format {
	return []Format{FormatCSV, FormatExcel, FormatTXT, FormatCHI}
}

// ParseFormat resolves a format name. "xlsx" is accepted for Excel.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	case "txt", "text":
		return FormatTXT, nil
	case "chi":
		return FormatCHI, nil
	}
	return "", apperrors.NewAppValidationError(
		fmt.Sprintf("unknown output format %q (want csv, excel, txt or chi)", name)).
		WithContext("format", name)
}

// Extension returns the file extension, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatExcel:
		return ".xlsx"
	case FormatTXT:
		return ".txt"
	case FormatCHI:
		return ".chi"
	default:
		return ".csv"
	}
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// SingleScan reports whether the format holds exactly one scan.
func (f Format) SingleScan() bool {
	return f == FormatTXT || f == FormatCHI
}

// formatFloat writes the shortest representation that reads back to f.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
