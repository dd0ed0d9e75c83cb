package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyHeader(t *testing.T) {
	tests := []struct {
		cell string
		want columnKind
	}{
		{"Potential (V)", columnPotential},
		{"potential [mV]", columnPotential},
		{"V", columnPotential},
		{" v ", columnPotential},
		{"E / V", columnPotential},
		{"Ewe/V", columnPotential},
		{"Voltage", columnPotential},
		{"Current (µA)", columnCurrent},
		{"CURRENT [uA]", columnCurrent},
		{"µA", columnCurrent},
		{"μA", columnCurrent},
		{"nA", columnCurrent},
		{"I/mA", columnCurrent},
		{"i", columnCurrent},
		{"", columnOther},
		{"Time (s)", columnOther},
		{"Cyclic Voltammetry: CV 1", columnOther},
		{"0.1", columnOther},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyHeader(tt.cell))
		})
	}
}

func TestHeaderPredicates(t *testing.T) {
	assert.True(t, IsPotentialHeader("Potential (V)"))
	assert.False(t, IsPotentialHeader("Current (µA)"))
	assert.True(t, IsCurrentHeader("Current (µA)"))
	assert.False(t, IsCurrentHeader("Potential (V)"))
}
