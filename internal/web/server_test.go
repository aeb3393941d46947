package web

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	_ "modernc.org/sqlite"

	"github.com/euphemism/cratedocs/internal/migrations"
	"github.com/euphemism/cratedocs/internal/registry"
	"github.com/euphemism/cratedocs/internal/search"
	"github.com/euphemism/cratedocs/internal/web/mocks"
	"github.com/euphemism/cratedocs/internal/web/page"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	require.NoError(t, err, "open db")
	// One connection keeps transactions on the same in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(migrations.InitialSQL)
	require.NoError(t, err, "apply schema")
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServerWith builds a Server around an in-memory registry. A nil
// searcher gets the real one.
func newTestServerWith(t *testing.T, searcher Searcher) *Server {
	t.Helper()
	store := registry.NewStore(setupTestDB(t))
	renderer, err := page.NewRenderer()
	require.NoError(t, err, "parse templates")

	if searcher == nil {
		searcher = search.NewSearcher(store, testLogger())
	}
	pool := registry.NewPool(4, time.Second)
	return NewServer(store, pool, searcher, renderer, Config{}, testLogger())
}

func newTestServer(t *testing.T) *Server {
	return newTestServerWith(t, nil)
}

func newTestMux(t *testing.T, s *Server) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

func get(t *testing.T, mux *http.ServeMux, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

// seedCrate inserts a crate with releases, returning the crate.
func seedCrate(t *testing.T, s *Server, name string, versions ...string) *registry.Crate {
	t.Helper()
	c := &registry.Crate{Name: name, Description: name + " crate"}
	require.NoError(t, s.store.AddCrate(c))
	base := time.Now().Add(-time.Duration(len(versions)) * time.Hour)
	for i, v := range versions {
		require.NoError(t, s.store.AddRelease(&registry.Release{
			CrateID:    c.ID,
			Version:    v,
			ReleasedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	return c
}

func TestHomePage(t *testing.T) {
	s := newTestServer(t)
	seedCrate(t, s, "serde", "1.0.0")
	mux := newTestMux(t, s)

	rec := get(t, mux, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Recent releases")
	assert.Contains(t, body, "serde")
}

func TestCratePage(t *testing.T) {
	s := newTestServer(t)
	c := seedCrate(t, s, "serde", "1.0.0", "1.1.0")
	owner := &registry.Owner{Login: "dtolnay"}
	require.NoError(t, s.store.AddOwner(owner))
	require.NoError(t, s.store.SetCrateOwner(c.ID, owner.ID))
	mux := newTestMux(t, s)

	rec := get(t, mux, "/crate/serde")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<h1 id="crate-title">serde 1.1.0</h1>`, "bare crate URL should show the latest release")
	assert.Contains(t, body, "dtolnay")

	rec = get(t, mux, "/crate/serde/1.0.0")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "serde 1.0.0")
}

func TestCratePage_CrateNotFound(t *testing.T) {
	s := newTestServer(t)
	mux := newTestMux(t, s)

	rec := get(t, mux, "/crate/crate-which-doesnt-exist")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `<h1 id="crate-title">The requested crate does not exist</h1>`)
}

func TestCratePage_VersionNotFound(t *testing.T) {
	s := newTestServer(t)
	seedCrate(t, s, "dummy", "1.0.0")
	mux := newTestMux(t, s)

	// Both a malformed version string and a well-formed missing one.
	for _, url := range []string{"/crate/dummy/not-semver", "/crate/dummy/2.0"} {
		rec := get(t, mux, url)
		assert.Equal(t, http.StatusNotFound, rec.Code, "GET %s", url)
		assert.Contains(t, rec.Body.String(), `<h1 id="crate-title">The requested version does not exist</h1>`, "GET %s", url)
	}
}

func TestCratePage_AllVersionsYanked(t *testing.T) {
	s := newTestServer(t)
	c := seedCrate(t, s, "dummy", "1.0.0")
	require.NoError(t, s.store.SetReleaseYanked(c.ID, "1.0.0", true))
	mux := newTestMux(t, s)

	rec := get(t, mux, "/crate/dummy/*")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "The requested version does not exist")
}

func TestOwnerPage(t *testing.T) {
	s := newTestServer(t)
	c := seedCrate(t, s, "serde", "1.0.0")
	owner := &registry.Owner{Login: "dtolnay"}
	require.NoError(t, s.store.AddOwner(owner))
	require.NoError(t, s.store.SetCrateOwner(c.ID, owner.ID))
	mux := newTestMux(t, s)

	rec := get(t, mux, "/releases/owner/dtolnay")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Crates owned by dtolnay")

	rec = get(t, mux, "/releases/owner/nobody")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `<h1 id="crate-title">The requested owner does not exist</h1>`)
}

func TestBuildPages(t *testing.T) {
	s := newTestServer(t)
	c := seedCrate(t, s, "serde", "1.0.0")
	rel, err := s.store.GetRelease(c.ID, "1.0.0")
	require.NoError(t, err)
	build := &registry.Build{ReleaseID: rel.ID, Status: registry.BuildSuccess, RustcVersion: "rustc 1.52.0", Log: "docs built"}
	require.NoError(t, s.store.AddBuild(build))
	mux := newTestMux(t, s)

	rec := get(t, mux, "/crate/serde/1.0.0/builds")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Builds of serde 1.0.0")

	rec = get(t, mux, "/builds/"+strconv.FormatInt(build.ID, 10))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "docs built")
}

func TestBuildPage_NotFound(t *testing.T) {
	s := newTestServer(t)
	mux := newTestMux(t, s)

	for _, url := range []string{"/builds/9999", "/builds/not-a-number"} {
		rec := get(t, mux, url)
		assert.Equal(t, http.StatusNotFound, rec.Code, "GET %s", url)
		assert.Contains(t, rec.Body.String(), `<h1 id="crate-title">The requested build does not exist</h1>`, "GET %s", url)
	}
}

func TestSearchPage_Results(t *testing.T) {
	s := newTestServer(t)
	seedCrate(t, s, "serde", "1.0.0")
	mux := newTestMux(t, s)

	rec := get(t, mux, "/releases/search?query=serde")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Search results for")
	assert.Contains(t, body, "/crate/serde/1.0.0")
}

func TestSearchPage_NoResults(t *testing.T) {
	s := newTestServer(t)
	mux := newTestMux(t, s)

	rec := get(t, mux, "/releases/search?query=foobar")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "No crates found matching")
	assert.Contains(t, body, "foobar")
}

func TestSearchPage_EmptyQuery(t *testing.T) {
	s := newTestServer(t)
	mux := newTestMux(t, s)

	rec := get(t, mux, "/releases/search")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "No results given for empty search query")
}

func TestSearchPage_SearcherFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSearcher := mocks.NewMockSearcher(ctrl)
	mockSearcher.EXPECT().
		Search(gomock.Any(), "serde", gomock.Any()).
		Return(nil, context.DeadlineExceeded)

	s := newTestServerWith(t, mockSearcher)
	mux := newTestMux(t, s)

	rec := get(t, mux, "/releases/search?query=serde")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `<h1 id="crate-title">Internal server error</h1>`)
}

func TestUnknownPath_ResourceNotFound(t *testing.T) {
	s := newTestServer(t)
	mux := newTestMux(t, s)

	rec := get(t, mux, "/resource-which-doesnt-exist.js")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `<h1 id="crate-title">The requested resource does not exist</h1>`)
}

func TestStatic(t *testing.T) {
	s := newTestServer(t)
	mux := newTestMux(t, s)

	rec := get(t, mux, "/-/static/style.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")

	rec = get(t, mux, "/-/static/missing.js")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "The requested resource does not exist")
}

func TestPoolExhaustion_RendersInternalError(t *testing.T) {
	s := newTestServer(t)
	seedCrate(t, s, "serde", "1.0.0")
	s.pool = registry.NewPool(1, 10*time.Millisecond)
	mux := newTestMux(t, s)

	// Hold the only slot so the request times out acquiring one.
	release, err := s.pool.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	rec := get(t, mux, "/crate/serde")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<h1 id="crate-title">Internal server error</h1>`)
	assert.NotContains(t, body, "acquire database slot", "pool failure detail must not leak to the client")
}
