package fuzzy

import (
	"sort"
	"strings"
	"time"
)

// Entry is a raw submitted name with its provenance. Entries are never
// mutated here; clustering and merging only group references to them.
type Entry struct {
	ID            string
	Text          string
	SubmitterID   string
	SubmitterName string
	SubmittedAt   time.Time
}

// Suggestion is an ephemeral cluster of entries judged similar, offered to
// a moderator for confirmation. Key is derived from the sorted member IDs,
// so recomputation (by this process or any other) converges on the same key
// for the same member set.
type Suggestion struct {
	Key       string
	Canonical string
	Members   []Entry
}

// SuggestionKey returns the stable key for a set of member entry IDs:
// sorted lexicographically and joined with "|". The input slice is not
// modified.
func SuggestionKey(memberIDs []string) string {
	ids := make([]string, len(memberIDs))
	copy(ids, memberIDs)
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

// FindSuggestions partitions entries into clusters of mutually or
// transitively similar names and returns the unresolved ones.
//
// Similarity is tested pairwise on normalized texts, and every similar pair
// is unioned into one component. Connectivity, not pairwise similarity,
// defines cluster membership: Similar is not transitive, so a chain
// A~B, B~C lands all three in one cluster even when A and C alone would
// not match. Components with fewer than two members are skipped, as is any
// component whose key appears in confirmed or dismissed — a resolved
// cluster never resurfaces. If a new entry later joins a resolved cluster
// the member set (and therefore the key) changes, and the grown cluster is
// offered again as a fresh suggestion.
//
// Canonical is the longest raw member text; when lengths tie the first one
// encountered in input order wins. Output order is unspecified.
func FindSuggestions(entries []Entry, confirmed, dismissed map[string]struct{}) []Suggestion {
	if len(entries) < 2 {
		return nil
	}

	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = Normalize(e.Text)
	}

	ds := newDisjointSet(len(entries))
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			if Similar(keys[i], keys[j]) {
				ds.union(i, j)
			}
		}
	}

	components := make(map[int][]int)
	for i := range entries {
		root := ds.find(i)
		components[root] = append(components[root], i)
	}

	var out []Suggestion
	for _, members := range components {
		if len(members) < 2 {
			continue
		}

		ids := make([]string, len(members))
		for i, idx := range members {
			ids[i] = entries[idx].ID
		}
		key := SuggestionKey(ids)

		if _, ok := confirmed[key]; ok {
			continue
		}
		if _, ok := dismissed[key]; ok {
			continue
		}

		s := Suggestion{Key: key, Members: make([]Entry, len(members))}
		for i, idx := range members {
			s.Members[i] = entries[idx]
			if len(entries[idx].Text) > len(s.Canonical) {
				s.Canonical = entries[idx].Text
			}
		}
		out = append(out, s)
	}

	return out
}

// disjointSet is a union-find structure with union by size and path
// compression.
type disjointSet struct {
	parent []int
	size   []int
}

func newDisjointSet(n int) *disjointSet {
	ds := &disjointSet{
		parent: make([]int, n),
		size:   make([]int, n),
	}
	for i := range ds.parent {
		ds.parent[i] = i
		ds.size[i] = 1
	}
	return ds
}

func (ds *disjointSet) find(i int) int {
	for ds.parent[i] != i {
		ds.parent[i] = ds.parent[ds.parent[i]]
		i = ds.parent[i]
	}
	return i
}

func (ds *disjointSet) union(a, b int) {
	ra, rb := ds.find(a), ds.find(b)
	if ra == rb {
		return
	}
	if ds.size[ra] < ds.size[rb] {
		ra, rb = rb, ra
	}
	ds.parent[rb] = ra
	ds.size[ra] += ds.size[rb]
}
