package web

import (
	"fmt"
	"net/http"

	"github.com/euphemism/cratedocs/internal/web/page"
)

// home serves the landing page with recent releases.
func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	release, ok := s.acquire(w, r)
	if !ok {
		return
	}
	defer release()

	recent, err := s.store.RecentReleases(s.cfg.RecentReleases)
	if err != nil {
		s.log.Error("recent releases failed", "error", err)
		s.renderError(w, r, InternalServerError)
		return
	}

	s.renderPage(w, "home", page.Home{Title: "Releases", Recent: recent})
}

// searchPage serves /releases/search. A search that comes up empty takes
// the NoResults rendering path, which re-derives the attempted query from
// the request URL.
func (s *Server) searchPage(w http.ResponseWriter, r *http.Request) {
	release, ok := s.acquire(w, r)
	if !ok {
		return
	}
	defer release()

	query, _ := findQuery(r)
	result, err := s.searcher.Search(r.Context(), query, s.cfg.SearchLimit)
	if err != nil {
		s.log.Error("search failed", "query", query, "error", err)
		s.renderError(w, r, InternalServerError)
		return
	}

	if len(result.Releases) == 0 {
		s.renderError(w, r, NoResults)
		return
	}

	model := page.SearchResults{
		Title:       fmt.Sprintf("Search results for '%s'", query),
		SearchQuery: &query,
		Releases:    result.Releases,
		Status:      http.StatusOK,
	}
	if err := s.renderer.SearchPage(w, r, model); err != nil {
		s.log.Error("page render failed", "template", "search", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
