package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Status(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/status").
		ExpectGET().
		RespondJSON(StatusResponse{Status: "ok", Crates: 42}).
		Build()
	defer srv.Close()

	client := NewClient(srv.URL)
	resp, err := client.Status()
	require.NoError(t, err)

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 42, resp.Crates)
}

func TestClient_Status_ServerError(t *testing.T) {
	srv := newMockServer(t).
		RespondError(http.StatusInternalServerError, "boom").
		Build()
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Status()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server error 500")
	assert.Contains(t, err.Error(), "boom")
}

func TestClient_Crates(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/crates").
		ExpectGET().
		RespondJSON([]CrateResponse{
			{Name: "serde", Description: "Serialization framework"},
			{Name: "tokio", Description: "Async runtime"},
		}).
		Build()
	defer srv.Close()

	client := NewClient(srv.URL)
	crates, err := client.Crates()
	require.NoError(t, err)

	require.Len(t, crates, 2)
	assert.Equal(t, "serde", crates[0].Name)
}

func TestClient_AddCrate(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/crates").
		ExpectPOST().
		RespondJSON(CrateResponse{Name: "serde", Description: "Serialization framework"}).
		Build()
	defer srv.Close()

	client := NewClient(srv.URL)
	crate, err := client.AddCrate(AddCrateRequest{Name: "serde", Description: "Serialization framework"})
	require.NoError(t, err)
	assert.Equal(t, "serde", crate.Name)
}

func TestClient_AddRelease(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/releases").
		ExpectPOST().
		RespondJSON(ReleaseResponse{Crate: "serde", Version: "1.0.200", ReleasedAt: time.Now()}).
		Build()
	defer srv.Close()

	client := NewClient(srv.URL)
	rel, err := client.AddRelease(AddReleaseRequest{Crate: "serde", Version: "1.0.200"})
	require.NoError(t, err)
	assert.Equal(t, "1.0.200", rel.Version)
}

func TestClient_YankRelease(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/releases/yank").
		ExpectPOST().
		RespondStatus(http.StatusNoContent).
		Build()
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.YankRelease(YankReleaseRequest{Crate: "serde", Version: "1.0.200"})
	require.NoError(t, err)
}

func TestClient_YankRelease_NotFound(t *testing.T) {
	srv := newMockServer(t).
		RespondError(http.StatusNotFound, `{"error":"Release not found","code":"NOT_FOUND"}`).
		Build()
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.YankRelease(YankReleaseRequest{Crate: "serde", Version: "9.9.9"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server error 404")
}

func TestClient_AddBuild(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/builds").
		ExpectPOST().
		RespondJSON(BuildResponse{ID: 7, Crate: "serde", Version: "1.0.200", Status: "success"}).
		Build()
	defer srv.Close()

	client := NewClient(srv.URL)
	build, err := client.AddBuild(AddBuildRequest{Crate: "serde", Version: "1.0.200", Status: "success"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), build.ID)
	assert.Equal(t, "success", build.Status)
}

func TestClient_Search(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/search").
		ExpectGET().
		RespondJSON(SearchResponse{
			Query: "serde",
			Releases: []ReleaseResponse{
				{Crate: "serde", Version: "1.0.200", Description: "Serialization framework"},
			},
		}).
		Build()
	defer srv.Close()

	client := NewClient(srv.URL)
	resp, err := client.Search("serde")
	require.NoError(t, err)
	require.Len(t, resp.Releases, 1)
	assert.Equal(t, "serde", resp.Releases[0].Crate)
}

func TestClient_Search_QueryEscaped(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"query":"","releases":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Search("async runtime")
	require.NoError(t, err)
	assert.Equal(t, "async runtime", gotQuery)
}
