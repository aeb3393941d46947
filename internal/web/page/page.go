// Package page renders the HTML frontend from embedded templates.
package page

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/euphemism/cratedocs/internal/registry"
)

//go:embed templates/*.html
var templateFS embed.FS

// Error is the view model for the generic error page.
type Error struct {
	Title   string
	Message string // empty means no message line
	Status  int
}

// SearchResults is the view model for the search results page. The error
// layer reuses it in its "no results" configuration with everything but
// Title, SearchQuery, and Status left at its zero value.
type SearchResults struct {
	Title       string
	SearchQuery *string // nil when the request carried no query parameter
	Releases    []*registry.ReleaseSummary
	Suggestions []string
	Status      int
}

// Home is the view model for the landing page.
type Home struct {
	Title  string
	Recent []*registry.ReleaseSummary
}

// Crate is the view model for a crate's documentation page.
type Crate struct {
	Title    string
	Crate    *registry.Crate
	Release  *registry.Release
	Releases []*registry.Release
	Owners   []*registry.Owner
	Build    *registry.Build // most recent build, nil if never built
}

// Builds is the view model for a release's build list.
type Builds struct {
	Title     string
	CrateName string
	Version   string
	Builds    []*registry.Build
}

// Build is the view model for a single build's log page.
type Build struct {
	Title     string
	BuildItem *registry.Build
}

// OwnerReleases is the view model for the per-owner crate listing.
type OwnerReleases struct {
	Title  string
	Owner  *registry.Owner
	Crates []*registry.Crate
}

// Renderer executes the embedded template set.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"date": func(t time.Time) string { return t.Format("Jan 2, 2006") },
	}
	templates, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{templates: templates}, nil
}

// ErrorPage renders the generic error page with the model's status.
func (rd *Renderer) ErrorPage(w http.ResponseWriter, r *http.Request, model Error) error {
	return rd.Render(w, model.Status, "error", model)
}

// SearchPage renders the search results page with the model's status.
func (rd *Renderer) SearchPage(w http.ResponseWriter, r *http.Request, model SearchResults) error {
	return rd.Render(w, model.Status, "search", model)
}

// Render executes the named template and writes it with the given status.
// The page is buffered first so a template failure never emits a partial
// document.
func (rd *Renderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := rd.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := io.Copy(w, &buf); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
