package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client wraps HTTP calls to the cratedocs server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new cratedocs API client.
func NewClient(serverURL string) *Client {
	return &Client{
		baseURL: serverURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) get(path string, result any) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func (c *Client) post(path string, body any, result any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// API response types (mirror server types)

type StatusResponse struct {
	Status string `json:"status"`
	Crates int    `json:"crates"`
}

type CrateResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Repository  string `json:"repository,omitempty"`
}

type ReleaseResponse struct {
	Crate       string    `json:"crate"`
	Version     string    `json:"version"`
	Description string    `json:"description"`
	ReleasedAt  time.Time `json:"released_at"`
}

type BuildResponse struct {
	ID      int64  `json:"id"`
	Crate   string `json:"crate"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

type SearchResponse struct {
	Query       string            `json:"query"`
	Releases    []ReleaseResponse `json:"releases"`
	Suggestions []string          `json:"suggestions,omitempty"`
}

// API request types

type AddCrateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Repository  string `json:"repository"`
}

type AddReleaseRequest struct {
	Crate       string `json:"crate"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Yanked      bool   `json:"yanked"`
}

type YankReleaseRequest struct {
	Crate   string `json:"crate"`
	Version string `json:"version"`
	Undo    bool   `json:"undo"`
}

type AddBuildRequest struct {
	Crate        string `json:"crate"`
	Version      string `json:"version"`
	Status       string `json:"status"`
	RustcVersion string `json:"rustc_version"`
	Log          string `json:"log"`
}

// API methods

func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get("/api/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Crates() ([]CrateResponse, error) {
	var resp []CrateResponse
	if err := c.get("/api/v1/crates", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) AddCrate(req AddCrateRequest) (*CrateResponse, error) {
	var resp CrateResponse
	if err := c.post("/api/v1/crates", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) AddRelease(req AddReleaseRequest) (*ReleaseResponse, error) {
	var resp ReleaseResponse
	if err := c.post("/api/v1/releases", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) YankRelease(req YankReleaseRequest) error {
	return c.post("/api/v1/releases/yank", req, nil)
}

func (c *Client) AddBuild(req AddBuildRequest) (*BuildResponse, error) {
	var resp BuildResponse
	if err := c.post("/api/v1/builds", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Search(query string) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.get("/api/v1/search?query="+url.QueryEscape(query), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
