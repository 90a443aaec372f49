package fuzzy

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
		{name: "already normal", input: "kevin durant", want: "kevin durant"},
		{name: "uppercase", input: "KEVIN DURANT", want: "kevin durant"},
		{name: "periods stripped", input: "T.J. Watt", want: "tj watt"},
		{name: "apostrophe stripped", input: "O'Neal", want: "oneal"},
		{name: "accents stripped", input: "Luka Dončić", want: "luka doncic"},
		{name: "cedilla", input: "Alperen Şengün", want: "alperen sengun"},
		{name: "whitespace collapsed", input: "  Lebron   James ", want: "lebron james"},
		{name: "tabs and newlines", input: "Lebron\t\nJames", want: "lebron james"},
		{name: "digits kept", input: "Ochocinco 85", want: "ochocinco 85"},
		{name: "emoji stripped", input: "Steph 🏀 Curry", want: "steph curry"},
		{name: "hyphenated", input: "Shai Gilgeous-Alexander", want: "shai gilgeousalexander"},
		{name: "empty", input: "", want: ""},
		{name: "only punctuation", input: "?!...", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"T.J. Watt", "Luka Dončić", "  LeBron   James ", "", "Д'Артаньян"}
	for _, s := range inputs {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once), "Normalize(%q) not idempotent", s)
	}
}

func TestNormalizeStrict(t *testing.T) {
	assert.Equal(t, "ochocinco", NormalizeStrict("Ochocinco 85"))
	assert.Equal(t, "tj watt", NormalizeStrict("T.J. Watt"))
	assert.Equal(t, "", NormalizeStrict("23 45"))
}
