package exporter

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"

	"psconvert/pkg/contracts/domain"
)

// MicroampsToAmps rescales PStouch currents (µA) to the amperes CHI expects.
const MicroampsToAmps = 1e-6

// CHIHeader carries the values of the CHI header block.
type CHIHeader struct {
	Technique  string
	SourceFile string
}

// WriteCHI writes one scan in CH Instruments text format. Date and Time
// lines are written only when the scan date parses.
func WriteCHI(w io.Writer, header CHIHeader, scan domain.Scan) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "CH Instruments Data Format")
	fmt.Fprintf(bw, "Technique: %s\n", header.Technique)
	fmt.Fprintf(bw, "File: %s\n", filepath.Base(header.SourceFile))
	if at, ok := scan.Metadata.MeasuredAt(); ok {
		fmt.Fprintf(bw, "Date: %s\n", at.Format("01/02/2006"))
		fmt.Fprintf(bw, "Time: %s\n", at.Format("15:04:05"))
	}
	fmt.Fprintf(bw, "Scan: %s\n", scan.Metadata.Name)
	fmt.Fprintf(bw, "Points: %d\n", scan.Len())
	fmt.Fprintln(bw, "Header end")

	for i := range scan.Potential {
		fmt.Fprintf(bw, "%s\t%.12e\n", formatFloat(scan.Potential[i]), ToAmps(scan.Current[i]))
	}
	return bw.Flush()
}

// ToAmps converts a current in µA to A.
func ToAmps(microamps float64) float64 {
	return microamps * MicroampsToAmps
}
