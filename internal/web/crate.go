package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/euphemism/cratedocs/internal/registry"
	"github.com/euphemism/cratedocs/internal/web/page"
)

// cratePage serves /crate/{name} and /crate/{name}/{version}. An empty
// version resolves to the latest non-yanked release.
func (s *Server) cratePage(w http.ResponseWriter, r *http.Request) {
	release, ok := s.acquire(w, r)
	if !ok {
		return
	}
	defer release()

	name := r.PathValue("name")
	crate, err := s.store.GetCrate(name)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			s.renderError(w, r, CrateNotFound)
			return
		}
		s.log.Error("load crate failed", "crate", name, "error", err)
		s.renderError(w, r, InternalServerError)
		return
	}

	rel, err := s.store.ResolveVersion(crate.ID, r.PathValue("version"))
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			s.renderError(w, r, VersionNotFound)
			return
		}
		s.log.Error("resolve version failed", "crate", name, "error", err)
		s.renderError(w, r, InternalServerError)
		return
	}

	releases, err := s.store.ListReleases(crate.ID)
	if err != nil {
		s.log.Error("list releases failed", "crate", name, "error", err)
		s.renderError(w, r, InternalServerError)
		return
	}

	owners, err := s.store.ListCrateOwners(crate.ID)
	if err != nil {
		s.log.Error("list owners failed", "crate", name, "error", err)
		s.renderError(w, r, InternalServerError)
		return
	}

	builds, err := s.store.ListBuilds(rel.ID)
	if err != nil {
		s.log.Error("list builds failed", "crate", name, "error", err)
		s.renderError(w, r, InternalServerError)
		return
	}
	var lastBuild *registry.Build
	if len(builds) > 0 {
		lastBuild = builds[0]
	}

	s.renderPage(w, "crate", page.Crate{
		Title:    crate.Name + " " + rel.Version,
		Crate:    crate,
		Release:  rel,
		Releases: releases,
		Owners:   owners,
		Build:    lastBuild,
	})
}

// ownerPage serves /releases/owner/{owner}.
func (s *Server) ownerPage(w http.ResponseWriter, r *http.Request) {
	release, ok := s.acquire(w, r)
	if !ok {
		return
	}
	defer release()

	login := r.PathValue("owner")
	owner, err := s.store.GetOwner(login)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			s.renderError(w, r, OwnerNotFound)
			return
		}
		s.log.Error("load owner failed", "owner", login, "error", err)
		s.renderError(w, r, InternalServerError)
		return
	}

	crates, err := s.store.ListCratesByOwner(login)
	if err != nil {
		s.log.Error("list crates by owner failed", "owner", login, "error", err)
		s.renderError(w, r, InternalServerError)
		return
	}

	s.renderPage(w, "owner", page.OwnerReleases{
		Title:  "Crates owned by " + owner.Login,
		Owner:  owner,
		Crates: crates,
	})
}

// buildListPage serves /crate/{name}/{version}/builds.
func (s *Server) buildListPage(w http.ResponseWriter, r *http.Request) {
	release, ok := s.acquire(w, r)
	if !ok {
		return
	}
	defer release()

	name := r.PathValue("name")
	crate, err := s.store.GetCrate(name)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			s.renderError(w, r, CrateNotFound)
			return
		}
		s.log.Error("load crate failed", "crate", name, "error", err)
		s.renderError(w, r, InternalServerError)
		return
	}

	rel, err := s.store.ResolveVersion(crate.ID, r.PathValue("version"))
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			s.renderError(w, r, VersionNotFound)
			return
		}
		s.log.Error("resolve version failed", "crate", name, "error", err)
		s.renderError(w, r, InternalServerError)
		return
	}

	builds, err := s.store.ListBuilds(rel.ID)
	if err != nil {
		s.log.Error("list builds failed", "crate", name, "error", err)
		s.renderError(w, r, InternalServerError)
		return
	}

	s.renderPage(w, "builds", page.Builds{
		Title:     "Builds of " + crate.Name + " " + rel.Version,
		CrateName: crate.Name,
		Version:   rel.Version,
		Builds:    builds,
	})
}

// buildPage serves /builds/{id}. A malformed ID is indistinguishable from
// a missing build as far as the visitor is concerned.
func (s *Server) buildPage(w http.ResponseWriter, r *http.Request) {
	release, ok := s.acquire(w, r)
	if !ok {
		return
	}
	defer release()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.renderError(w, r, BuildNotFound)
		return
	}

	build, err := s.store.GetBuild(id)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			s.renderError(w, r, BuildNotFound)
			return
		}
		s.log.Error("load build failed", "build_id", id, "error", err)
		s.renderError(w, r, InternalServerError)
		return
	}

	s.renderPage(w, "build", page.Build{
		Title:     "Build #" + strconv.FormatInt(build.ID, 10),
		BuildItem: build,
	})
}
