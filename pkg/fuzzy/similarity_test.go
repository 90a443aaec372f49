package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilar(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "exact", a: "kevin durant", b: "kevin durant", want: true},
		{name: "empty vs empty", a: "", b: "", want: true},
		{name: "empty vs name", a: "", b: "kevin durant", want: false},
		{name: "substring long enough", a: "lebron", b: "lebron james", want: true},
		{name: "substring too short", a: "al", b: "albert", want: false},
		{name: "one edit within threshold", a: "lebron james", b: "lebron jame", want: true},
		{name: "two edits within threshold", a: "lebron james", b: "lebrun jame", want: true},
		{name: "distinct names", a: "kevin durant", b: "lebron james", want: false},
		{name: "short names no tolerance", a: "kobe", b: "koby", want: false},
		{name: "five chars one edit", a: "bryan", b: "brian", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Similar(tt.a, tt.b))
			assert.Equal(t, tt.want, Similar(tt.b, tt.a), "not symmetric")
		})
	}
}

func TestSimilarReflexive(t *testing.T) {
	for _, s := range []string{"", "al", "kevin durant", "shaquille oneal"} {
		n := Normalize(s)
		assert.True(t, Similar(n, n))
	}
}

func TestSimilarNames(t *testing.T) {
	tests := []struct {
		name          string
		guess, answer string
		want          bool
	}{
		{name: "typo tolerated", guess: "Lebron James", answer: "LeBron Jame", want: true},
		{name: "prefix too short", guess: "Al", answer: "Albert", want: false},
		{name: "suffix variation", guess: "Gary Payton", answer: "Gary Payton Jr.", want: true},
		{name: "punctuation ignored", guess: "TJ Watt", answer: "T.J. Watt", want: true},
		{name: "accents ignored", guess: "Luka Doncic", answer: "Luka Dončić", want: true},
		{name: "digits ignored", guess: "Ochocinco", answer: "Ochocinco 85", want: true},
		{name: "wrong player", guess: "Kevin Durant", answer: "Lebron James", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SimilarNames(tt.guess, tt.answer))
		})
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{a: "", b: "", want: 0},
		{a: "", b: "abc", want: 3},
		{a: "abc", b: "", want: 3},
		{a: "kitten", b: "sitting", want: 3},
		{a: "flaw", b: "lawn", want: 2},
		{a: "lebron james", b: "lebron jame", want: 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levenshtein(tt.a, tt.b), "levenshtein(%q, %q)", tt.a, tt.b)
	}
}
