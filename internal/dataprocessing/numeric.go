package dataprocessing

import (
	"math"
	"strconv"
	"strings"
)

// DecimalMode selects how decimal separators in data cells are read.
type DecimalMode string

const (
	// DecimalAuto reads "1,5" as 1.5 when the cell has one comma and no dot.
	DecimalAuto  DecimalMode = "auto"
	DecimalDot   DecimalMode = "dot"
	DecimalComma DecimalMode = "comma"
)

// ParseNumber parses a data cell. Blank, non-numeric, NaN and infinite
// values are rejected.
func ParseNumber(cell string, mode DecimalMode) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}

	switch mode {
	case DecimalComma:
		if strings.Contains(s, ",") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
	case DecimalDot:
	default:
		if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
			s = strings.Replace(s, ",", ".", 1)
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
