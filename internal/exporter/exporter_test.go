package exporter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"psconvert/internal/config"
	apperrors "psconvert/internal/errors"
	"psconvert/pkg/contracts/domain"
)

func testDocument() *domain.Document {
	return &domain.Document{
		SourcePath: "data/seconde misure.csv",
		Encoding:   "utf-16",
		RecordedAt: "2024-03-05 10:20:00",
		Scans: []domain.Scan{
			{
				Metadata:  domain.ScanMetadata{Name: "Cyclic Voltammetry: CV 1", Date: "2024-03-05 10:15:30"},
				Potential: []float64{-0.5, -0.4, -0.3},
				Current:   []float64{1.25, -2.5, 3.333},
			},
			{
				Metadata:  domain.ScanMetadata{Name: "Scan 2", ColumnOffset: 2},
				Potential: []float64{0.1},
				Current:   []float64{7.5},
			},
		},
	}
}

func testExporter() *Exporter {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return New(config.Default().Export, logger).WithClock(func() time.Time { return fixed })
}

func intPtr(i int) *int { return &i }

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func TestExport_CSVSingleScan(t *testing.T) {
	var buf bytes.Buffer
	err := testExporter().Export(context.Background(), testDocument(), Request{Format: FormatCSV, ScanIndex: intPtr(0)}, &buf)
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"Potential (V)", "Current (µA)"},
		{"-0.5", "1.25"},
		{"-0.4", "-2.5"},
		{"-0.3", "3.333"},
	}, readCSV(t, buf.Bytes()))
}

func TestExport_CSVWide(t *testing.T) {
	var buf bytes.Buffer
	err := testExporter().Export(context.Background(), testDocument(), Request{Format: FormatCSV}, &buf)
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"Scan_1_Potential_V", "Scan_1_Current_µA", "Scan_2_Potential_V", "Scan_2_Current_µA"},
		{"-0.5", "1.25", "0.1", "7.5"},
		{"-0.4", "-2.5", "", ""},
		{"-0.3", "3.333", "", ""},
	}, readCSV(t, buf.Bytes()))
}

func TestExport_TXT(t *testing.T) {
	var buf bytes.Buffer
	err := testExporter().Export(context.Background(), testDocument(), Request{Format: FormatTXT, ScanIndex: intPtr(1)}, &buf)
	require.NoError(t, err)

	assert.Equal(t, "Potential (V)\tCurrent (µA)\n0.1\t7.5\n", buf.String())
}

func TestExport_TXTDefaultsToFirstScan(t *testing.T) {
	var buf bytes.Buffer
	err := testExporter().Export(context.Background(), testDocument(), Request{Format: FormatTXT}, &buf)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, "-0.5\t1.25", lines[1])
}

func TestExport_CHI(t *testing.T) {
	var buf bytes.Buffer
	err := testExporter().Export(context.Background(), testDocument(), Request{Format: FormatCHI}, &buf)
	require.NoError(t, err)

	want := "CH Instruments Data Format\n" +
		"Technique: Cyclic Voltammetry\n" +
		"File: seconde misure.csv\n" +
		"Date: 03/05/2024\n" +
		"Time: 10:15:30\n" +
		"Scan: Cyclic Voltammetry: CV 1\n" +
		"Points: 3\n" +
		"Header end\n" +
		"-0.5\t1.250000000000e-06\n" +
		"-0.4\t-2.500000000000e-06\n" +
		"-0.3\t3.333000000000e-06\n"
	assert.Equal(t, want, buf.String())
}

func TestExport_CHIWithoutDate(t *testing.T) {
	var buf bytes.Buffer
	err := testExporter().Export(context.Background(), testDocument(), Request{Format: FormatCHI, ScanIndex: intPtr(1)}, &buf)
	require.NoError(t, err)

	assert.NotContains(t, buf.String(), "Date:")
	assert.NotContains(t, buf.String(), "Time:")
	assert.Contains(t, buf.String(), "Scan: Scan 2\n")
}

func TestWriteCHI_DayFirstDates(t *testing.T) {
	tests := []struct {
		date     string
		wantDate string
		wantTime string
	}{
		{date: "05.03.2024 10:15:30", wantDate: "03/05/2024", wantTime: "10:15:30"},
		{date: "05-03-2024 10:15", wantDate: "03/05/2024", wantTime: "10:15:00"},
		{date: "5/3/2024", wantDate: "03/05/2024", wantTime: "00:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			scan := domain.Scan{
				Metadata:  domain.ScanMetadata{Name: "CV", Date: tt.date},
				Potential: []float64{0.1},
				Current:   []float64{1},
			}
			var buf bytes.Buffer
			require.NoError(t, WriteCHI(&buf, CHIHeader{Technique: "Cyclic Voltammetry", SourceFile: "a.csv"}, scan))

			assert.Contains(t, buf.String(), "Date: "+tt.wantDate+"\n")
			assert.Contains(t, buf.String(), "Time: "+tt.wantTime+"\n")
		})
	}
}

func TestExport_CHIUnitConversion(t *testing.T) {
	currents := []float64{1.5, -3.0, 0, 123.456789, 1e-3, -987654.321}
	doc := &domain.Document{
		SourcePath: "x.csv",
		Scans: []domain.Scan{{
			Metadata:  domain.ScanMetadata{Name: "Scan 1"},
			Potential: make([]float64, len(currents)),
			Current:   currents,
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, testExporter().Export(context.Background(), doc, Request{Format: FormatCHI}, &buf))

	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		if scanner.Text() == "Header end" {
			break
		}
	}
	i := 0
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		require.Len(t, fields, 2)
		got, err := strconv.ParseFloat(fields[1], 64)
		require.NoError(t, err)
		assert.Equal(t, currents[i]*1e-6, ToAmps(currents[i]))
		assert.InEpsilon(t, currents[i]*1e-6+1e-30, got+1e-30, 1e-11, "point %d", i)
		i++
	}
	assert.Equal(t, len(currents), i)
}

func TestExport_Excel(t *testing.T) {
	var buf bytes.Buffer
	err := testExporter().Export(context.Background(), testDocument(), Request{Format: FormatExcel}, &buf)
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Metadata", "Scan_1", "Scan_2", "All_Scans"}, f.GetSheetList())

	meta, err := f.GetRows(MetadataSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Property", "Value"}, meta[0])
	assert.Equal(t, []string{"Original file", "seconde misure.csv"}, meta[1])
	assert.Equal(t, []string{"Import date", "2025-01-02 03:04:05"}, meta[2])
	assert.Equal(t, []string{"Number of scans", "2"}, meta[3])
	assert.Equal(t, []string{"Recorded at", "2024-03-05 10:20:00"}, meta[4])

	name, err := f.GetCellValue("Scan_1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Name: Cyclic Voltammetry: CV 1", name)
	date, err := f.GetCellValue("Scan_1", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Measurement date: 2024-03-05 10:15:30", date)
	header, err := f.GetCellValue("Scan_1", "B4")
	require.NoError(t, err)
	assert.Equal(t, "Current (µA)", header)
	first, err := f.GetCellValue("Scan_1", "A5")
	require.NoError(t, err)
	assert.Equal(t, "-0.5", first)

	noDate, err := f.GetCellValue("Scan_2", "A2")
	require.NoError(t, err)
	assert.Empty(t, noDate)

	wide, err := f.GetRows(AllScansSheet)
	require.NoError(t, err)
	require.Len(t, wide, 4)
	assert.Equal(t, "Scan_2_Current_µA", wide[0][3])
	assert.Equal(t, "7.5", wide[1][3])
	assert.Len(t, wide[2], 2)
}

func TestExport_ExcelSelectedScan(t *testing.T) {
	var buf bytes.Buffer
	err := testExporter().Export(context.Background(), testDocument(), Request{Format: FormatExcel, ScanIndex: intPtr(1)}, &buf)
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Metadata", "Scan_2", "All_Scans"}, f.GetSheetList())
}

func TestExport_Errors(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		wantType apperrors.ErrorType
	}{
		{name: "index past end", req: Request{Format: FormatCSV, ScanIndex: intPtr(2)}, wantType: apperrors.ErrTypeIndexOutOfRange},
		{name: "negative index", req: Request{Format: FormatCHI, ScanIndex: intPtr(-1)}, wantType: apperrors.ErrTypeIndexOutOfRange},
		{name: "unknown format", req: Request{Format: Format("pdf")}, wantType: apperrors.ErrTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := testExporter().Export(context.Background(), testDocument(), tt.req, &buf)
			require.Error(t, err)
			assert.Equal(t, tt.wantType, apperrors.TypeOf(err))
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestExport_WriterFailureIsExportError(t *testing.T) {
	err := testExporter().Export(context.Background(), testDocument(), Request{Format: FormatTXT}, failingWriter{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrExport))
}

func TestExport_DoesNotMutateDocument(t *testing.T) {
	doc := testDocument()
	before := testDocument()

	for _, f := range Formats() {
		require.NoError(t, testExporter().Export(context.Background(), doc, Request{Format: f}, io.Discard))
	}
	assert.Equal(t, before, doc)
}

func TestExportFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out", "scan.txt")

	err := testExporter().ExportFile(context.Background(), testDocument(), Request{Format: FormatTXT}, path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Potential (V)\tCurrent (µA)\n"))
}

func TestExportFile_UnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := testExporter().ExportFile(context.Background(), testDocument(), Request{Format: FormatTXT}, filepath.Join(blocker, "out.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrExport))
}

func TestExportFile_IndexErrorCreatesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	err := testExporter().ExportFile(context.Background(), testDocument(), Request{Format: FormatCSV, ScanIndex: intPtr(9)}, path)
	require.Error(t, err)
	assert.NoFileExists(t, path)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "run1.xlsx"), OutputPath(filepath.Join("data", "run1.csv"), FormatExcel, ""))
	assert.Equal(t, filepath.Join("out", "run1.chi"), OutputPath(filepath.Join("data", "run1.csv"), FormatCHI, "out"))
}
