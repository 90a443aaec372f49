package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMergesCollapsesConfirmedGroups(t *testing.T) {
	entries := []Entry{
		entry("e1", "Lebron James", "alice"),
		entry("e2", "LeBron Jame", "bob"),
		entry("e3", "Kevin Durant", "carol"),
	}

	got := ApplyMerges(entries, [][]string{{"e1", "e2"}})
	require.Len(t, got, 2)

	merged := got[0]
	assert.Equal(t, "Lebron James", merged.Canonical)
	assert.Equal(t, 2, merged.Submitters)
	assert.Len(t, merged.Variants, 2)

	single := got[1]
	assert.Equal(t, "Kevin Durant", single.Canonical)
	assert.Equal(t, 1, single.Submitters)
	require.Len(t, single.Variants, 1)
	assert.Equal(t, "carol", single.Variants[0].SubmitterName)
}

func TestApplyMergesCountsDistinctSubmitters(t *testing.T) {
	// Same person submitting twice counts once; identical text from two
	// people counts twice.
	entries := []Entry{
		entry("e1", "Lebron James", "alice"),
		entry("e2", "Lebron James", "alice"),
		entry("e3", "LeBron Jame", "bob"),
	}

	got := ApplyMerges(entries, [][]string{{"e1", "e2", "e3"}})
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Submitters)
	assert.Len(t, got[0].Variants, 3)
}

func TestApplyMergesDropsStaleIDs(t *testing.T) {
	entries := []Entry{
		entry("e1", "Lebron James", "alice"),
		entry("e2", "Kevin Durant", "bob"),
	}

	// e9 no longer exists; the group still forms from what resolves.
	got := ApplyMerges(entries, [][]string{{"e1", "e9"}})
	require.Len(t, got, 2)

	// A group of nothing but stale IDs is skipped entirely.
	got = ApplyMerges(entries, [][]string{{"e8", "e9"}})
	require.Len(t, got, 2)
	for _, g := range got {
		assert.Equal(t, 1, g.Submitters)
	}
}

func TestApplyMergesCoversEveryEntryOnce(t *testing.T) {
	entries := []Entry{
		entry("e1", "Lebron James", "alice"),
		entry("e2", "LeBron Jame", "bob"),
		entry("e3", "Kevin Durant", "carol"),
		entry("e4", "Steph Curry", "dave"),
	}

	// Overlapping groups must not duplicate an entry.
	got := ApplyMerges(entries, [][]string{{"e1", "e2"}, {"e2", "e3"}})

	seen := make(map[string]int)
	for _, g := range got {
		for _, v := range g.Variants {
			seen[v.Text]++
		}
	}
	assert.Len(t, seen, 4)
	for text, n := range seen {
		assert.Equal(t, 1, n, "entry %q appears %d times", text, n)
	}
}

func TestApplyMergesOrdering(t *testing.T) {
	entries := []Entry{
		entry("e1", "Zion Williamson", "alice"),
		entry("e2", "Anthony Davis", "bob"),
		entry("e3", "Lebron James", "carol"),
		entry("e4", "LeBron Jame", "dave"),
	}

	got := ApplyMerges(entries, [][]string{{"e3", "e4"}})
	require.Len(t, got, 3)

	// Two submitters first, then singletons in canonical order.
	assert.Equal(t, "Lebron James", got[0].Canonical)
	assert.Equal(t, "Anthony Davis", got[1].Canonical)
	assert.Equal(t, "Zion Williamson", got[2].Canonical)
}

func TestApplyMergesEmptyInputs(t *testing.T) {
	assert.Empty(t, ApplyMerges(nil, nil))
	assert.Empty(t, ApplyMerges(nil, [][]string{{"e1"}}))

	got := ApplyMerges([]Entry{entry("e1", "Kevin Durant", "alice")}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "Kevin Durant", got[0].Canonical)
}
