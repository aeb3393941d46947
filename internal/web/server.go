// Package web implements the HTML frontend and admin API of cratedocs.
package web

import (
	"context"
	"embed"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/euphemism/cratedocs/internal/registry"
	"github.com/euphemism/cratedocs/internal/search"
	"github.com/euphemism/cratedocs/internal/web/page"
)

//go:embed static
var staticFS embed.FS

// Searcher is the search collaborator used by the search handlers.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) (*search.Result, error)
}

// Config holds frontend configuration.
type Config struct {
	SearchLimit    int
	RecentReleases int
}

// Server serves the HTML frontend and the admin API.
type Server struct {
	store    *registry.Store
	pool     *registry.Pool
	searcher Searcher
	renderer *page.Renderer
	cfg      Config
	log      *slog.Logger
}

// NewServer creates the frontend server.
func NewServer(store *registry.Store, pool *registry.Pool, searcher Searcher, renderer *page.Renderer, cfg Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if cfg.SearchLimit == 0 {
		cfg.SearchLimit = 30
	}
	if cfg.RecentReleases == 0 {
		cfg.RecentReleases = 15
	}
	return &Server{
		store:    store,
		pool:     pool,
		searcher: searcher,
		renderer: renderer,
		cfg:      cfg,
		log:      log,
	}
}

// RegisterRoutes registers frontend and API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Frontend
	mux.HandleFunc("GET /{$}", s.home)
	mux.HandleFunc("GET /releases/search", s.searchPage)
	mux.HandleFunc("GET /releases/owner/{owner}", s.ownerPage)
	mux.HandleFunc("GET /crate/{name}", s.cratePage)
	mux.HandleFunc("GET /crate/{name}/{version}", s.cratePage)
	mux.HandleFunc("GET /crate/{name}/{version}/builds", s.buildListPage)
	mux.HandleFunc("GET /builds/{id}", s.buildPage)
	mux.HandleFunc("GET /-/static/{file...}", s.static)

	// Admin API
	mux.HandleFunc("GET /api/v1/status", s.apiStatus)
	mux.HandleFunc("GET /api/v1/crates", s.apiListCrates)
	mux.HandleFunc("POST /api/v1/crates", s.apiAddCrate)
	mux.HandleFunc("POST /api/v1/releases", s.apiAddRelease)
	mux.HandleFunc("POST /api/v1/releases/yank", s.apiYankRelease)
	mux.HandleFunc("POST /api/v1/builds", s.apiAddBuild)
	mux.HandleFunc("GET /api/v1/search", s.apiSearch)

	// Anything else is a resource we don't host.
	mux.HandleFunc("/", s.notFound)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, ResourceNotFound)
}

// acquire claims a database slot for the request. On failure it logs the
// cause and writes the normalized 500 page, and the handler must return.
func (s *Server) acquire(w http.ResponseWriter, r *http.Request) (release func(), ok bool) {
	release, err := s.pool.Acquire(r.Context())
	if err != nil {
		s.log.Error("database pool acquire failed", "path", r.URL.Path, "error", err)
		var acquireErr *registry.AcquireError
		if errors.As(err, &acquireErr) {
			s.renderPoolError(w, r, acquireErr)
		} else {
			s.renderError(w, r, InternalServerError)
		}
		return nil, false
	}
	return release, true
}

// renderPage renders a regular 200 page, treating a template failure as
// fatal for the response.
func (s *Server) renderPage(w http.ResponseWriter, name string, data any) {
	if err := s.renderer.Render(w, http.StatusOK, name, data); err != nil {
		s.log.Error("page render failed", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (s *Server) static(w http.ResponseWriter, r *http.Request) {
	name := path.Clean(r.PathValue("file"))
	data, err := staticFS.ReadFile("static/" + name)
	if err != nil {
		s.renderError(w, r, ResourceNotFound)
		return
	}

	if ctype := mime.TypeByExtension(path.Ext(name)); ctype != "" {
		w.Header().Set("Content-Type", ctype)
	}
	_, _ = w.Write(data)
}
