package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/euphemism/cratedocs/internal/registry"
	"github.com/euphemism/cratedocs/internal/web/page"
)

// Kind classifies the failures this layer turns into rendered pages. The
// set is closed: Status and renderError must both handle every variant
// explicitly, and neither may fall back to a generic branch for a value
// it does not know.
type Kind int

const (
	ResourceNotFound Kind = iota
	BuildNotFound
	CrateNotFound
	OwnerNotFound
	VersionNotFound
	NoResults
	InternalServerError
)

// Error implements the error interface so handlers can pass a Kind through
// error-returning call chains.
func (k Kind) Error() string {
	switch k {
	case ResourceNotFound:
		return "requested resource not found"
	case BuildNotFound:
		return "requested build not found"
	case CrateNotFound:
		return "requested crate not found"
	case OwnerNotFound:
		return "requested owner not found"
	case VersionNotFound:
		return "requested crate does not have specified version"
	case NoResults:
		return "search yielded no results"
	case InternalServerError:
		return "internal server error"
	}
	panic(fmt.Sprintf("web: unhandled error kind %d", int(k)))
}

// Status returns the HTTP status code for the kind. Every kind maps to
// 404 except InternalServerError.
func (k Kind) Status() int {
	switch k {
	case ResourceNotFound, BuildNotFound, CrateNotFound, OwnerNotFound, VersionNotFound, NoResults:
		return http.StatusNotFound
	case InternalServerError:
		return http.StatusInternalServerError
	}
	panic(fmt.Sprintf("web: unhandled error kind %d", int(k)))
}

// errorModel builds the generic error page model for a kind. NoResults is
// the one kind that renders through the search page instead; asking for
// its generic model is a programming error.
func errorModel(k Kind) page.Error {
	switch k {
	case ResourceNotFound:
		return page.Error{
			Title:   "The requested resource does not exist",
			Message: "no such resource",
			Status:  http.StatusNotFound,
		}
	case BuildNotFound:
		return page.Error{
			Title:   "The requested build does not exist",
			Message: "no such build",
			Status:  http.StatusNotFound,
		}
	case CrateNotFound:
		return page.Error{
			Title:   "The requested crate does not exist",
			Message: "no such crate",
			Status:  http.StatusNotFound,
		}
	case OwnerNotFound:
		return page.Error{
			Title:   "The requested owner does not exist",
			Message: "no such owner",
			Status:  http.StatusNotFound,
		}
	case VersionNotFound:
		return page.Error{
			Title:   "The requested version does not exist",
			Message: "no such version for this crate",
			Status:  http.StatusNotFound,
		}
	case InternalServerError:
		return page.Error{
			Title:   "Internal server error",
			Message: "internal server error",
			Status:  http.StatusInternalServerError,
		}
	case NoResults:
		panic("web: NoResults renders through the search page")
	}
	panic(fmt.Sprintf("web: unhandled error kind %d", int(k)))
}

// findQuery returns the value of the first query-string pair whose key is
// exactly "query". It distinguishes a missing parameter from one with an
// empty value. Pairs are split on "&" only; url.Values would reject any
// pair containing a semicolon, which is a legal value character here.
func findQuery(r *http.Request) (string, bool) {
	for _, pair := range strings.Split(r.URL.RawQuery, "&") {
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil || key != "query" {
			continue
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			continue
		}
		return value, true
	}
	return "", false
}

// noResultsModel builds the search page model for a search that came up
// empty, re-deriving the attempted query from the request URL. Escaping of
// the query value is the template layer's job.
func noResultsModel(r *http.Request) page.SearchResults {
	if query, ok := findQuery(r); ok {
		return page.SearchResults{
			Title:       fmt.Sprintf("No crates found matching '%s'", query),
			SearchQuery: &query,
			Status:      http.StatusNotFound,
		}
	}
	return page.SearchResults{
		Title:  "No results given for empty search query",
		Status: http.StatusNotFound,
	}
}

// renderError writes the finished error page for a kind. The underlying
// cause, if any, must have been logged before calling; this layer only
// renders.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, kind Kind) {
	var err error
	switch kind {
	case NoResults:
		err = s.renderer.SearchPage(w, r, noResultsModel(r))
	case ResourceNotFound, BuildNotFound, CrateNotFound, OwnerNotFound, VersionNotFound, InternalServerError:
		err = s.renderer.ErrorPage(w, r, errorModel(kind))
	default:
		panic(fmt.Sprintf("web: unhandled error kind %d", int(kind)))
	}
	if err != nil {
		// The template engine itself is broken; nothing nicer to serve.
		s.log.Error("error page render failed", "kind", kind.Error(), "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// renderPoolError converts a connection-pool failure into the plain 500
// page. The failure is never inspected for a more specific category, and
// its detail is not retained in the response; callers log it first.
func (s *Server) renderPoolError(w http.ResponseWriter, r *http.Request, _ *registry.AcquireError) {
	model := page.Error{
		Title:   "Internal server error",
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
	}
	if err := s.renderer.ErrorPage(w, r, model); err != nil {
		s.log.Error("error page render failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
