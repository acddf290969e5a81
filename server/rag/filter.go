package rag

import "github.com/scholarstream/scholarstream/store"

// Filter applies facet constraints and removes repeated parent documents,
// preserving the delivered rank order and stopping once limit sources are
// accepted. It only removes elements, never reorders them.
func Filter(candidates []*store.CandidateMatch, facets Facets, limit int) []*Source {
	sources := make([]*Source, 0, limit)
	seen := make(map[int64]struct{}, limit)

	for _, c := range candidates {
		if len(sources) >= limit {
			break
		}
		if _, ok := seen[c.DocumentID]; ok {
			continue
		}
		if !matchesFacet(facets.Author, c.Author) {
			continue
		}
		if !matchesFacet(facets.SourceType, c.SourceType) {
			continue
		}
		seen[c.DocumentID] = struct{}{}
		sources = append(sources, sourceFromCandidate(c))
	}
	return sources
}

// FallbackUnfiltered returns the top candidates ignoring facets, still
// deduplicated by parent document. Used in flat mode when filtering
// excludes everything.
func FallbackUnfiltered(candidates []*store.CandidateMatch, limit int) []*Source {
	return Filter(candidates, Facets{}, limit)
}

// matchesFacet reports whether value satisfies the filter. Empty and
// "any" filters match every value.
func matchesFacet(filter, value string) bool {
	if filter == "" || filter == FacetAny {
		return true
	}
	return filter == value
}
