// Package files resolves command line inputs into the export files to
// convert and prepares output directories.
//
// Discovery expands each input in turn: a directory contributes its CSV
// files sorted by name, a glob pattern contributes its matches, and any
// other path is kept as given so a missing file is reported by the parser
// like any other unreadable input.
//
// Example usage:
//
//	discovery := files.NewDiscovery("")
//	inputs, err := discovery.Expand([]string{"runs/", "extra/*.csv", "single.csv"})
//
//	if err := files.EnsureOutputDir(logger, "converted"); err != nil {
//	    // cannot write results
//	}
package files
