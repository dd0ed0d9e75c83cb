package exporter

import (
	"bufio"
	"fmt"
	"io"

	"psconvert/pkg/contracts/domain"
)

// WriteTXT writes one scan as delimited text with a single header line.
// Cells are never quoted.
func WriteTXT(w io.Writer, scan domain.Scan, delimiter string) error {
	if delimiter == "" {
		delimiter = "\t"
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s%s%s\n", PotentialHeader, delimiter, CurrentHeader)
	for i := range scan.Potential {
		fmt.Fprintf(bw, "%s%s%s\n", formatFloat(scan.Potential[i]), delimiter, formatFloat(scan.Current[i]))
	}
	return bw.Flush()
}
