package search

import (
	"fmt"
	"sort"
)

// suggestionThreshold is the minimum Jaro-Winkler score for a crate name
// to count as a plausible near miss.
const suggestionThreshold = 0.8

// suggest returns up to max crate names close to the normalized query,
// best first.
func (s *Searcher) suggest(normalized string, max int) ([]string, error) {
	names, err := s.store.CrateNames()
	if err != nil {
		return nil, fmt.Errorf("load crate names: %w", err)
	}

	type scored struct {
		name  string
		score float64
	}
	var candidates []scored
	for _, name := range names {
		if score := similarity(normalized, name); score >= suggestionThreshold {
			candidates = append(candidates, scored{name: name, score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > max {
		candidates = candidates[:max]
	}
	suggestions := make([]string, len(candidates))
	for i, c := range candidates {
		suggestions[i] = c.name
	}
	return suggestions, nil
}
