package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "psconvert/internal/errors"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{input: "csv", want: FormatCSV},
		{input: "Excel", want: FormatExcel},
		{input: "xlsx", want: FormatExcel},
		{input: " txt ", want: FormatTXT},
		{input: "chi", want: FormatCHI},
		{input: "pdf", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_Properties(t *testing.T) {
	tests := []struct {
		format     Format
		ext        string
		single     bool
		typePrefix string
	}{
		{FormatCSV, ".csv", false, "text/csv"},
		{FormatExcel, ".xlsx", false, "application/vnd.openxmlformats"},
		{FormatTXT, ".txt", true, "text/plain"},
		{FormatCHI, ".chi", true, "text/plain"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			assert.Equal(t, tt.ext, tt.format.Extension())
			assert.Equal(t, tt.single, tt.format.SingleScan())
			assert.Contains(t, tt.format.ContentType(), tt.typePrefix)
		})
	}
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "0.1", formatFloat(0.1))
	assert.Equal(t, "-2.5", formatFloat(-2.5))
	assert.Equal(t, "1e-07", formatFloat(1e-7))
	assert.Equal(t, "3", formatFloat(3))
}
