package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id, text, submitter string) Entry {
	return Entry{ID: id, Text: text, SubmitterID: submitter, SubmitterName: submitter}
}

var noKeys = map[string]struct{}{}

func TestSuggestionKey(t *testing.T) {
	assert.Equal(t, "a|b|c", SuggestionKey([]string{"c", "a", "b"}))
	assert.Equal(t, SuggestionKey([]string{"b", "a"}), SuggestionKey([]string{"a", "b"}))
	assert.Equal(t, "solo", SuggestionKey([]string{"solo"}))

	in := []string{"c", "a"}
	_ = SuggestionKey(in)
	assert.Equal(t, []string{"c", "a"}, in, "input slice reordered")
}

func TestFindSuggestionsGroupsNearDuplicates(t *testing.T) {
	entries := []Entry{
		entry("e1", "Lebron James", "alice"),
		entry("e2", "LeBron Jame", "bob"),
		entry("e3", "Kevin Durant", "carol"),
	}

	got := FindSuggestions(entries, noKeys, noKeys)
	require.Len(t, got, 1)

	s := got[0]
	assert.Equal(t, "e1|e2", s.Key)
	assert.Equal(t, "Lebron James", s.Canonical)
	require.Len(t, s.Members, 2)
	for _, m := range s.Members {
		assert.NotEqual(t, "e3", m.ID)
	}
}

func TestFindSuggestionsChainsNonTransitivePairs(t *testing.T) {
	// d(a,b) = 2 and d(b,c) = 2, both within the threshold for 10-char
	// strings, but d(a,c) = 4 is not. Connectivity must still place all
	// three in one cluster.
	a, b, c := "aaaaaaaaaa", "aaaaaaaabb", "aaaaaabbbb"
	require.True(t, Similar(a, b))
	require.True(t, Similar(b, c))
	require.False(t, Similar(a, c))

	entries := []Entry{
		entry("e1", a, "alice"),
		entry("e2", b, "bob"),
		entry("e3", c, "carol"),
	}

	got := FindSuggestions(entries, noKeys, noKeys)
	require.Len(t, got, 1)
	assert.Equal(t, "e1|e2|e3", got[0].Key)
	assert.Len(t, got[0].Members, 3)
}

func TestFindSuggestionsDeterministicKeys(t *testing.T) {
	entries := []Entry{
		entry("z9", "Lebron James", "alice"),
		entry("a1", "LeBron Jame", "bob"),
	}

	first := FindSuggestions(entries, noKeys, noKeys)
	second := FindSuggestions(entries, noKeys, noKeys)
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, "a1|z9", first[0].Key)
	assert.Equal(t, first[0].Key, second[0].Key)
}

func TestFindSuggestionsSkipsResolvedClusters(t *testing.T) {
	entries := []Entry{
		entry("e1", "Lebron James", "alice"),
		entry("e2", "LeBron Jame", "bob"),
	}

	key := FindSuggestions(entries, noKeys, noKeys)[0].Key

	dismissed := map[string]struct{}{key: {}}
	assert.Empty(t, FindSuggestions(entries, noKeys, dismissed))

	confirmed := map[string]struct{}{key: {}}
	assert.Empty(t, FindSuggestions(entries, confirmed, noKeys))
}

func TestFindSuggestionsResolvedClusterGrowsIntoNewKey(t *testing.T) {
	entries := []Entry{
		entry("e1", "Lebron James", "alice"),
		entry("e2", "LeBron Jame", "bob"),
	}
	dismissed := map[string]struct{}{
		FindSuggestions(entries, noKeys, noKeys)[0].Key: {},
	}

	// A third near-duplicate joins the dismissed cluster: the member set
	// changes, so the grown cluster comes back under a fresh key.
	entries = append(entries, entry("e3", "Lebron Jams", "carol"))
	got := FindSuggestions(entries, noKeys, dismissed)
	require.Len(t, got, 1)
	assert.Equal(t, "e1|e2|e3", got[0].Key)
}

func TestFindSuggestionsCanonicalTieBreak(t *testing.T) {
	// Equal-length variants: first encountered in input order wins.
	entries := []Entry{
		entry("e1", "lebron jamez", "alice"),
		entry("e2", "lebron james", "bob"),
	}
	got := FindSuggestions(entries, noKeys, noKeys)
	require.Len(t, got, 1)
	assert.Equal(t, "lebron jamez", got[0].Canonical)
}

func TestFindSuggestionsSmallInputs(t *testing.T) {
	assert.Empty(t, FindSuggestions(nil, noKeys, noKeys))
	assert.Empty(t, FindSuggestions([]Entry{entry("e1", "Kevin Durant", "alice")}, noKeys, noKeys))
	assert.Empty(t, FindSuggestions([]Entry{
		entry("e1", "Kevin Durant", "alice"),
		entry("e2", "Lebron James", "bob"),
	}, noKeys, noKeys))
}
