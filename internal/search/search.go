// Package search finds crates in the registry and suggests near misses.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/euphemism/cratedocs/internal/registry"
)

// Result holds the outcome of a crate search.
type Result struct {
	Query    string
	Releases []*registry.ReleaseSummary
	// Suggestions holds close crate names, filled only when the search
	// itself came up empty.
	Suggestions []string
}

// Searcher queries the registry for crates matching free text.
type Searcher struct {
	store *registry.Store
	log   *slog.Logger
}

// NewSearcher creates a searcher backed by the given store.
func NewSearcher(store *registry.Store, log *slog.Logger) *Searcher {
	if log == nil {
		log = slog.Default()
	}
	return &Searcher{store: store, log: log}
}

// Search returns the latest release of every crate matching the query,
// best matches first. An empty result carries "did you mean" suggestions
// when the query is close to known crate names.
func (s *Searcher) Search(ctx context.Context, query string, limit int) (*Result, error) {
	normalized := NormalizeQuery(query)
	result := &Result{Query: query}
	if normalized == "" {
		return result, nil
	}

	pattern := "%" + strings.ReplaceAll(normalized, " ", "%") + "%"
	releases, err := s.store.SearchReleases(pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	// Rank by name similarity so "serde" beats "serde_yaml_ng" for the
	// query "serde".
	sort.SliceStable(releases, func(i, j int) bool {
		return similarity(normalized, releases[i].CrateName) > similarity(normalized, releases[j].CrateName)
	})
	result.Releases = releases

	if len(releases) == 0 {
		suggestions, err := s.suggest(normalized, 3)
		if err != nil {
			// Suggestions are best-effort; the empty result still stands.
			s.log.Warn("suggestion lookup failed", "query", query, "error", err)
		} else {
			result.Suggestions = suggestions
		}
	}

	return result, nil
}

// similarity scores a query against a crate name using Jaro-Winkler,
// which favors shared prefixes (good for crate names).
func similarity(query, crateName string) float64 {
	return float64(edlib.JaroWinklerSimilarity(query, NormalizeQuery(crateName)))
}
