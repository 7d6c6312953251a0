package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClosest(t *testing.T) {
	services := []string{"Corte Caballero", "Corte Señora", "Tinte", "Peinado"}

	tests := []struct {
		name      string
		input     string
		want      string
		wantMatch bool
	}{
		{name: "exact", input: "Tinte", want: "Tinte", wantMatch: true},
		{name: "case and accent drift", input: "corte senora", want: "Corte Señora", wantMatch: true},
		{name: "typo", input: "tintr", want: "Tinte", wantMatch: true},
		{name: "small typo long name", input: "corte cabalero", want: "Corte Caballero", wantMatch: true},
		{name: "gibberish", input: "zzzzqqqq", wantMatch: false},
		{name: "empty input", input: "", wantMatch: false},
		{name: "whitespace only", input: "   ", wantMatch: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Closest(tt.input, services, DefaultMatchThreshold)
			require.Equal(t, tt.wantMatch, ok)
			if tt.wantMatch {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

// Closest must never invent a value outside the candidate set.
func TestClosestReturnsCandidate(t *testing.T) {
	candidates := []string{"Haircut", "Shave", "Beard Trim"}
	inputs := []string{"haircut", "shav", "beard", "xyz", "", "trim", "háircut"}

	for _, in := range inputs {
		got, ok := Closest(in, candidates, DefaultMatchThreshold)
		if !ok {
			assert.Empty(t, got)
			continue
		}
		assert.Contains(t, candidates, got)
	}
}

func TestClosestEmptyCandidates(t *testing.T) {
	_, ok := Closest("anything", nil, DefaultMatchThreshold)
	assert.False(t, ok)
}

func TestClosestTieBreaksFirst(t *testing.T) {
	// Both candidates normalize to the same string; the first wins.
	got, ok := Closest("cafe", []string{"Café", "Cafe"}, DefaultMatchThreshold)
	require.True(t, ok)
	assert.Equal(t, "Café", got)
}

func TestClosestThresholdZeroUsesDefault(t *testing.T) {
	_, ok := Closest("zzzz", []string{"Haircut"}, 0)
	assert.False(t, ok)
}

func TestContainsKeyword(t *testing.T) {
	assert.True(t, ContainsKeyword("Quiero CANCELAR mi cita", "cancelar"))
	assert.True(t, ContainsKeyword("cambiar el día", "dia", "fecha"))
	assert.False(t, ContainsKeyword("hola", "cancelar", "modificar"))
	assert.False(t, ContainsKeyword("", "cancelar"))
}

func TestEqualsKeyword(t *testing.T) {
	assert.True(t, EqualsKeyword("Sí", "si", "yes"))
	assert.True(t, EqualsKeyword(" no ", "no"))
	assert.False(t, EqualsKeyword("note", "no"))
	assert.False(t, EqualsKeyword("nope cancel it", "no"))
}
