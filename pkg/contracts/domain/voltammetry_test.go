package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "psconvert/internal/errors"
)

func sampleDocument() *Document {
	return &Document{
		SourcePath: "seconde misure.csv",
		Encoding:   "utf-16",
		Scans: []Scan{
			{
				Metadata:  ScanMetadata{Name: "Cyclic Voltammetry: CV 1", Date: "2024-03-05 10:15:30", ColumnOffset: 0},
				Potential: []float64{-0.2, 0.1, 0.4},
				Current:   []float64{1.5, -3.0, 2.25},
			},
			{
				Metadata:  ScanMetadata{Name: "Scan 2", ColumnOffset: 2},
				Potential: []float64{},
				Current:   []float64{},
			},
		},
	}
}

func TestDocument_Accessors(t *testing.T) {
	doc := sampleDocument()

	assert.Equal(t, 2, doc.ScanCount())
	assert.Equal(t, []string{"Cyclic Voltammetry: CV 1", "Scan 2"}, doc.ScanNames())
}

func TestDocument_Scan(t *testing.T) {
	tests := []struct {
		name    string
		index   int
		wantErr bool
	}{
		{name: "first scan", index: 0},
		{name: "last scan", index: 1},
		{name: "index equal to count", index: 2, wantErr: true},
		{name: "negative index", index: -1, wantErr: true},
	}

	doc := sampleDocument()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scan, err := doc.Scan(tt.index)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrIndexOutOfRange))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, doc.Scans[tt.index].Metadata, scan.Metadata)
		})
	}
}

func TestDocument_ScanReturnsCopy(t *testing.T) {
	doc := sampleDocument()

	scan, err := doc.Scan(0)
	require.NoError(t, err)
	scan.Potential[0] = 99
	scan.Current[0] = 99

	assert.Equal(t, -0.2, doc.Scans[0].Potential[0])
	assert.Equal(t, 1.5, doc.Scans[0].Current[0])
}

func TestDocument_IndexErrorDoesNotInvalidate(t *testing.T) {
	doc := sampleDocument()

	_, err := doc.Scan(7)
	require.Error(t, err)

	scan, err := doc.Scan(0)
	require.NoError(t, err)
	assert.Equal(t, 3, scan.Len())
}

func TestScan_Summary(t *testing.T) {
	doc := sampleDocument()

	summary := doc.Scans[0].Summary()
	assert.Equal(t, 3, summary.Points)
	require.NotNil(t, summary.PotentialRange)
	require.NotNil(t, summary.CurrentRange)
	assert.Equal(t, Range{Min: -0.2, Max: 0.4}, *summary.PotentialRange)
	assert.Equal(t, Range{Min: -3.0, Max: 2.25}, *summary.CurrentRange)

	empty := doc.Scans[1].Summary()
	assert.Equal(t, 0, empty.Points)
	assert.Nil(t, empty.PotentialRange)
	assert.Nil(t, empty.CurrentRange)
}

func TestDocument_Summary(t *testing.T) {
	summary := sampleDocument().Summary()

	assert.Equal(t, 2, summary.ScanCount)
	require.Len(t, summary.Scans, 2)
	assert.Equal(t, 0, summary.Scans[0].Index)
	assert.Equal(t, 1, summary.Scans[1].Index)
	assert.Equal(t, "Scan 2", summary.Scans[1].Name)
}

func TestScanMetadata_MeasuredAt(t *testing.T) {
	tests := []struct {
		name   string
		date   string
		want   time.Time
		wantOK bool
	}{
		{
			name:   "iso with seconds",
			date:   "2024-03-05 10:15:30",
			want:   time.Date(2024, 3, 5, 10, 15, 30, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "surrounding whitespace",
			date:   " 2024-03-05 10:15 ",
			want:   time.Date(2024, 3, 5, 10, 15, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "dotted day first",
			date:   "05.03.2024 10:15:30",
			want:   time.Date(2024, 3, 5, 10, 15, 30, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "dashed day first without seconds",
			date:   "05-03-2024 10:15",
			want:   time.Date(2024, 3, 5, 10, 15, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "single digit day and month",
			date:   "5/3/2024 9:05",
			want:   time.Date(2024, 3, 5, 9, 5, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "date only",
			date:   "2024-03-05",
			want:   time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{name: "absent", date: "", wantOK: false},
		{name: "free text", date: "yesterday", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ScanMetadata{Date: tt.date}.MeasuredAt()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got))
			}
		})
	}
}
