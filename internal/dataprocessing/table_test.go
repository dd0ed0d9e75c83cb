package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRows(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		delimiter rune
		want      RawTable
	}{
		{
			name:      "ragged rows",
			text:      "a,b,c\n1,2\n",
			delimiter: ',',
			want:      RawTable{{"a", "b", "c"}, {"1", "2"}},
		},
		{
			name:      "blank line kept as empty row",
			text:      "a,b\n\n1,2\n\n",
			delimiter: ',',
			want:      RawTable{{"a", "b"}, {}, {"1", "2"}},
		},
		{
			name:      "consecutive blank lines",
			text:      "a,b\n\n\n1,2\n",
			delimiter: ',',
			want:      RawTable{{"a", "b"}, {}, {}, {"1", "2"}},
		},
		{
			name:      "leading blank line",
			text:      "\na,b\n",
			delimiter: ',',
			want:      RawTable{{}, {"a", "b"}},
		},
		{
			name:      "quoted newline is not a blank line",
			text:      "\"x\ny\",b\n1,2\n",
			delimiter: ',',
			want:      RawTable{{"x\ny", "b"}, {"1", "2"}},
		},
		{
			name:      "blank line in crlf text",
			text:      "a,b\r\n\r\n1,2\r\n",
			delimiter: ',',
			want:      RawTable{{"a", "b"}, {}, {"1", "2"}},
		},
		{
			name:      "crlf endings",
			text:      "a,b\r\n1,2\r\n",
			delimiter: ',',
			want:      RawTable{{"a", "b"}, {"1", "2"}},
		},
		{
			name:      "quoted cell keeps delimiter",
			text:      "\"1,5\",2\n",
			delimiter: ',',
			want:      RawTable{{"1,5", "2"}},
		},
		{
			name:      "semicolon delimiter",
			text:      "V;µA\n0,1;1,5\n",
			delimiter: ';',
			want:      RawTable{{"V", "µA"}, {"0,1", "1,5"}},
		},
		{
			name:      "empty text",
			text:      "",
			delimiter: ',',
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitRows(tt.text, tt.delimiter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRawTable_Cell(t *testing.T) {
	table := RawTable{{" a ", "b"}, {"c"}}

	cell, ok := table.Cell(0, 0)
	assert.True(t, ok)
	assert.Equal(t, "a", cell)

	_, ok = table.Cell(1, 1)
	assert.False(t, ok)

	_, ok = table.Cell(2, 0)
	assert.False(t, ok)

	_, ok = table.Cell(-1, 0)
	assert.False(t, ok)
}
