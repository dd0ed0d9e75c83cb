package dataprocessing

import "strings"

type columnKind int

const (
	columnOther columnKind = iota
	columnPotential
	columnCurrent
)

var (
	potentialNames = map[string]bool{"e": true, "ewe": true, "voltage": true}
	potentialUnits = map[string]bool{"v": true, "mv": true}
	currentNames   = map[string]bool{"i": true, "im": true}
	currentUnits   = map[string]bool{"a": true, "ma": true, "µa": true, "μa": true, "ua": true, "na": true, "pa": true}
)

// splitHeader separates "Potential (V)", "Current [µA]" or "E/V" into a
// lower-cased name and unit. A cell without a unit returns an empty unit.
func splitHeader(cell string) (name, unit string) {
	s := strings.ToLower(strings.TrimSpace(cell))
	if i := strings.IndexAny(s, "(["); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(strings.Trim(s[i+1:], ")] "))
	}
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

// classifyHeader matches a header cell against the potential/current vocabulary.
func classifyHeader(cell string) columnKind {
	name, unit := splitHeader(cell)
	if name == "" && unit == "" {
		return columnOther
	}

	switch {
	case strings.Contains(name, "current") || currentNames[name]:
		return columnCurrent
	case strings.Contains(name, "potential") || potentialNames[name]:
		return columnPotential
	case unit == "" && currentUnits[name]:
		return columnCurrent
	case unit == "" && potentialUnits[name]:
		return columnPotential
	case currentUnits[unit]:
		return columnCurrent
	case potentialUnits[unit]:
		return columnPotential
	}
	return columnOther
}

// IsPotentialHeader reports whether cell names a potential column.
func IsPotentialHeader(cell string) bool {
	return classifyHeader(cell) == columnPotential
}

// IsCurrentHeader reports whether cell names a current column.
func IsCurrentHeader(cell string) bool {
	return classifyHeader(cell) == columnCurrent
}
