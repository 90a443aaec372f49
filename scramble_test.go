package main

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sortedLetters(s string) string {
	letters := strings.Split(s, "")
	sort.Strings(letters)
	return strings.Join(letters, "")
}

func TestScrambleNameKeepsWordBoundaries(t *testing.T) {
	scrambled := scrambleName("Shaquille O'Neal")

	words := strings.Fields(scrambled)
	require.Len(t, words, 2)

	// Each word is an anagram of the lowercased original.
	assert.Equal(t, sortedLetters("shaquille"), sortedLetters(words[0]))
	assert.Equal(t, sortedLetters("o'neal"), sortedLetters(words[1]))
}

func TestScrambleNameDiffersFromInput(t *testing.T) {
	// Long enough that five shuffles landing back on the original is
	// effectively impossible.
	for i := 0; i < 20; i++ {
		scrambled := scrambleName("Giannis Antetokounmpo")
		assert.False(t, strings.EqualFold("Giannis Antetokounmpo", scrambled), "got %q", scrambled)
	}
}

func TestScrambleNameSingleLetterWords(t *testing.T) {
	// Nothing to shuffle; falls through to the lowercased original.
	assert.Equal(t, "a j", scrambleName("A J"))
}

func TestEligibleForSlot(t *testing.T) {
	for _, tc := range []struct {
		position string
		slot     string
		eligible bool
	}{
		{"PG", "PG", true},
		{"PG", "SG", false},
		{"G", "PG", true},
		{"G", "SG", true},
		{"G", "SF", false},
		{"F", "SF", true},
		{"F", "PF", true},
		{"F", "C", false},
		{"C", "C", true},
		{"F-C", "C", true},
		{"F-C", "PF", true},
		{"G/F", "SG", true},
		{"G/F", "SF", true},
		{"G/F", "C", false},
		{"", "PG", false},
	} {
		assert.Equal(t, tc.eligible, eligibleForSlot(tc.position, tc.slot),
			"position %q slot %q", tc.position, tc.slot)
	}
}
