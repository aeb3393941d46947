package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/euphemism/cratedocs/internal/registry"
)

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// acquireAPI claims a database slot for an API request. On failure it logs
// the cause and writes a JSON 500 carrying no detail, and the handler must
// return.
func (s *Server) acquireAPI(w http.ResponseWriter, r *http.Request) (release func(), ok bool) {
	release, err := s.pool.Acquire(r.Context())
	if err != nil {
		s.log.Error("database pool acquire failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "POOL_ERROR", "internal server error")
		return nil, false
	}
	return release, true
}

type statusResponse struct {
	Status string `json:"status"`
	Crates int    `json:"crates"`
}

type crateResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Repository  string `json:"repository,omitempty"`
}

type addCrateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Repository  string `json:"repository"`
}

type addReleaseRequest struct {
	Crate       string `json:"crate"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Yanked      bool   `json:"yanked"`
}

type addBuildRequest struct {
	Crate        string `json:"crate"`
	Version      string `json:"version"`
	Status       string `json:"status"`
	RustcVersion string `json:"rustc_version"`
	Log          string `json:"log"`
}

type buildResponse struct {
	ID      int64  `json:"id"`
	Crate   string `json:"crate"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

type searchResponse struct {
	Query       string            `json:"query"`
	Releases    []releaseResponse `json:"releases"`
	Suggestions []string          `json:"suggestions,omitempty"`
}

type releaseResponse struct {
	Crate       string    `json:"crate"`
	Version     string    `json:"version"`
	Description string    `json:"description"`
	ReleasedAt  time.Time `json:"released_at"`
}

func (s *Server) apiStatus(w http.ResponseWriter, r *http.Request) {
	release, ok := s.acquireAPI(w, r)
	if !ok {
		return
	}
	defer release()

	crates, err := s.store.ListCrates(0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Crates: len(crates)})
}

func (s *Server) apiListCrates(w http.ResponseWriter, r *http.Request) {
	release, ok := s.acquireAPI(w, r)
	if !ok {
		return
	}
	defer release()

	crates, err := s.store.ListCrates(0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := make([]crateResponse, len(crates))
	for i, c := range crates {
		resp[i] = crateResponse{Name: c.Name, Description: c.Description, Repository: c.Repository}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) apiAddCrate(w http.ResponseWriter, r *http.Request) {
	var req addCrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "INVALID_NAME", "crate name is required")
		return
	}

	release, ok := s.acquireAPI(w, r)
	if !ok {
		return
	}
	defer release()

	c := &registry.Crate{Name: req.Name, Description: req.Description, Repository: req.Repository}
	if err := s.store.AddCrate(c); err != nil {
		if errors.Is(err, registry.ErrDuplicate) {
			writeError(w, http.StatusConflict, "DUPLICATE", "Crate already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, crateResponse{Name: c.Name, Description: c.Description, Repository: c.Repository})
}

func (s *Server) apiAddRelease(w http.ResponseWriter, r *http.Request) {
	var req addReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.Crate == "" || req.Version == "" {
		writeError(w, http.StatusBadRequest, "INVALID_RELEASE", "crate and version are required")
		return
	}

	release, ok := s.acquireAPI(w, r)
	if !ok {
		return
	}
	defer release()

	// Crate lookup and release insert form one unit of work.
	tx, err := s.store.Begin()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	defer func() { _ = tx.Rollback() }()

	c, err := tx.GetCrate(req.Crate)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Crate not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	rel := &registry.Release{
		CrateID:     c.ID,
		Version:     req.Version,
		Description: req.Description,
		Yanked:      req.Yanked,
	}
	if err := tx.AddRelease(rel); err != nil {
		if errors.Is(err, registry.ErrDuplicate) {
			writeError(w, http.StatusConflict, "DUPLICATE", "Release already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	if err := tx.Commit(); err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, releaseResponse{
		Crate:       c.Name,
		Version:     rel.Version,
		Description: rel.Description,
		ReleasedAt:  rel.ReleasedAt,
	})
}

type yankReleaseRequest struct {
	Crate   string `json:"crate"`
	Version string `json:"version"`
	Undo    bool   `json:"undo"`
}

func (s *Server) apiYankRelease(w http.ResponseWriter, r *http.Request) {
	var req yankReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	release, ok := s.acquireAPI(w, r)
	if !ok {
		return
	}
	defer release()

	c, err := s.store.GetCrate(req.Crate)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Crate not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	if err := s.store.SetReleaseYanked(c.ID, req.Version, !req.Undo); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Release not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiAddBuild(w http.ResponseWriter, r *http.Request) {
	var req addBuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	status := registry.BuildStatus(req.Status)
	switch status {
	case "", registry.BuildQueued, registry.BuildInProgress, registry.BuildSuccess, registry.BuildFailure:
	default:
		writeError(w, http.StatusBadRequest, "INVALID_STATUS", "status must be queued, in_progress, success, or failure")
		return
	}

	release, ok := s.acquireAPI(w, r)
	if !ok {
		return
	}
	defer release()

	// Release lookup and build insert form one unit of work.
	tx, err := s.store.Begin()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	defer func() { _ = tx.Rollback() }()

	c, err := tx.GetCrate(req.Crate)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Crate not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	rel, err := tx.GetRelease(c.ID, req.Version)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Release not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	b := &registry.Build{ReleaseID: rel.ID, Status: status, RustcVersion: req.RustcVersion, Log: req.Log}
	if status == registry.BuildSuccess || status == registry.BuildFailure {
		now := time.Now()
		b.FinishedAt = &now
	}
	if err := tx.AddBuild(b); err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	if err := tx.Commit(); err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, buildResponse{ID: b.ID, Crate: c.Name, Version: rel.Version, Status: string(b.Status)})
}

func (s *Server) apiSearch(w http.ResponseWriter, r *http.Request) {
	release, ok := s.acquireAPI(w, r)
	if !ok {
		return
	}
	defer release()

	query, _ := findQuery(r)
	result, err := s.searcher.Search(r.Context(), query, s.cfg.SearchLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SEARCH_ERROR", err.Error())
		return
	}

	resp := searchResponse{
		Query:       query,
		Releases:    make([]releaseResponse, len(result.Releases)),
		Suggestions: result.Suggestions,
	}
	for i, rel := range result.Releases {
		resp.Releases[i] = releaseResponse{
			Crate:       rel.CrateName,
			Version:     rel.Version,
			Description: rel.Description,
			ReleasedAt:  rel.ReleasedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
