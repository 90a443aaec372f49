package fuzzy

import "sort"

// Variant is one submitted spelling inside a display group.
type Variant struct {
	Text          string
	SubmitterID   string
	SubmitterName string
}

// Group is a unit of the final grouped feed: either a confirmed merge of
// several entries or a standalone singleton.
type Group struct {
	Canonical  string
	Variants   []Variant
	Submitters int
}

// ApplyMerges collapses the confirmed merge groups and leaves every other
// entry standalone.
//
// Each confirmed group is a list of entry IDs; IDs that no longer resolve
// to an entry are dropped silently, and a group whose IDs all fail to
// resolve is skipped. Canonical is the longest raw text among the resolved
// members, same rule as FindSuggestions. Submitters counts distinct
// submitter IDs, not distinct texts.
//
// Every entry lands in exactly one group. Output is sorted by submitter
// count descending, ties by canonical ascending — most-corroborated names
// surface first, and callers render it in this order.
func ApplyMerges(entries []Entry, confirmed [][]string) []Group {
	byID := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	used := make(map[string]bool, len(entries))
	groups := make([]Group, 0, len(entries))

	for _, memberIDs := range confirmed {
		var members []Entry
		for _, id := range memberIDs {
			e, ok := byID[id]
			if !ok || used[id] {
				continue
			}
			members = append(members, e)
		}
		if len(members) == 0 {
			continue
		}

		g := Group{Variants: make([]Variant, 0, len(members))}
		submitters := make(map[string]bool, len(members))
		for _, e := range members {
			used[e.ID] = true
			submitters[e.SubmitterID] = true
			g.Variants = append(g.Variants, Variant{
				Text:          e.Text,
				SubmitterID:   e.SubmitterID,
				SubmitterName: e.SubmitterName,
			})
			if len(e.Text) > len(g.Canonical) {
				g.Canonical = e.Text
			}
		}
		g.Submitters = len(submitters)
		groups = append(groups, g)
	}

	for _, e := range entries {
		if used[e.ID] {
			continue
		}
		groups = append(groups, Group{
			Canonical: e.Text,
			Variants: []Variant{{
				Text:          e.Text,
				SubmitterID:   e.SubmitterID,
				SubmitterName: e.SubmitterName,
			}},
			Submitters: 1,
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Submitters != groups[j].Submitters {
			return groups[i].Submitters > groups[j].Submitters
		}
		return groups[i].Canonical < groups[j].Canonical
	})

	return groups
}
