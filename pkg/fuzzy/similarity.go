package fuzzy

import "strings"

// Similar reports whether two already-normalized strings refer to the same
// name. Checked in order: exact equality, substring containment (only when
// the contained string has at least 5 characters, so "al" doesn't swallow
// every name containing it), then Levenshtein distance within one tolerated
// edit per 5 characters of the longer string.
//
// The relation is reflexive and symmetric but not transitive; callers that
// group by it must pick their own closure policy (see FindSuggestions).
func Similar(a, b string) bool {
	if a == b {
		return true
	}

	if containsEither(a, b) {
		return true
	}

	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	threshold := maxLen / 5
	if threshold > 0 && levenshtein(a, b) <= threshold {
		return true
	}

	return false
}

// SimilarNames is the raw-string guess predicate: normalize both sides
// with NormalizeStrict, then compare. Accepts minor typos and suffix
// variations ("Jr."), and ignores digits so "Ochocinco 85" matches
// "Ochocinco".
func SimilarNames(guess, answer string) bool {
	return Similar(NormalizeStrict(guess), NormalizeStrict(answer))
}

func containsEither(a, b string) bool {
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) < 5 {
		return false
	}
	return strings.Contains(long, short)
}

// levenshtein computes edit distance with unit-cost insert, delete, and
// substitute, using the two-row dynamic-programming form. No transposition
// credit. Operates on bytes; inputs are already reduced to ASCII by
// Normalize.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			best := prev[j] + 1 // deletion
			if ins := curr[j-1] + 1; ins < best {
				best = ins
			}
			if sub := prev[j-1] + cost; sub < best {
				best = sub
			}
			curr[j] = best
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
