package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercases", input: "HairCut", want: "haircut"},
		{name: "strips accents", input: "Peluquería", want: "peluqueria"},
		{name: "strips tilde n", input: "Tinte Baño", want: "tinte bano"},
		{name: "collapses whitespace", input: "  corte   de  pelo ", want: "corte de pelo"},
		{name: "mixed", input: "  CORTE   Señora\t", want: "corte senora"},
		{name: "empty", input: "", want: ""},
		{name: "only spaces", input: "   ", want: ""},
		{name: "digits preserved", input: "612 345 678", want: "612 345 678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Peluquería SialWeb", "CAFÉ  con   LECHE", "", "ya normalizado", "ñÑáÉîöü"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "normalize must be idempotent for %q", in)
	}
}

func TestDigits(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "612345678", want: "612345678"},
		{input: "612 34 56 78", want: "612345678"},
		{input: "+34-612-345-678", want: "34612345678"},
		{input: "no digits", want: ""},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Digits(tt.input))
	}
}
