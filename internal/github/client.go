// Package github is the authenticated client for the GitHub REST API used
// by the indexing pipeline: repository search, file and directory content
// retrieval, and rate-limit introspection.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/plugdex/plugdex/internal/manifest"
)

const (
	defaultBaseURL = "https://api.github.com"
	userAgent      = "plugdex-indexer/1.0"
)

// Repo is an ephemeral repository candidate returned by search. It is
// consumed once per indexing pass and never persisted directly.
type Repo struct {
	ID            int64    `json:"id"`
	FullName      string   `json:"full_name"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	HTMLURL       string   `json:"html_url"`
	Stars         int      `json:"stargazers_count"`
	Owner         Owner    `json:"owner"`
	Topics        []string `json:"topics"`
	Language      string   `json:"language"`
	DefaultBranch string   `json:"default_branch"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
	PushedAt      string   `json:"pushed_at"`
}

// Owner is the repository owner as reported by the API.
type Owner struct {
	Login string `json:"login"`
}

// Content is one entry of a repository directory listing.
type Content struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url"`
	HTMLURL     string `json:"html_url"`
}

// RateLimit reports the remaining API budget.
type RateLimit struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

type searchResponse struct {
	TotalCount        int    `json:"total_count"`
	IncompleteResults bool   `json:"incomplete_results"`
	Items             []Repo `json:"items"`
}

type contentResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type rateLimitResponse struct {
	Rate RateLimit `json:"rate"`
}

// Client is the authenticated GitHub API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client. It fails fast when no token is supplied;
// unauthenticated search quota is too small to be useful.
func NewClient(token string, logger *slog.Logger) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("github token is required")
	}
	return &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With("component", "github"),
	}, nil
}

// SetBaseURL overrides the API base URL. Used by tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimSuffix(u, "/")
}

// SearchRepositories executes a repository search sorted by recency and
// returns the matching page of candidates.
func (c *Client) SearchRepositories(ctx context.Context, query string, page, perPage int) ([]Repo, error) {
	u := fmt.Sprintf("%s/search/repositories?q=%s&per_page=%d&page=%d&sort=updated",
		c.baseURL, url.QueryEscape(query), perPage, page)

	var resp searchResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("search repositories: %w", err)
	}
	return resp.Items, nil
}

// GetRepository fetches a single repository by "owner/name".
func (c *Client) GetRepository(ctx context.Context, fullName string) (Repo, error) {
	var repo Repo
	u := fmt.Sprintf("%s/repos/%s", c.baseURL, fullName)
	if err := c.getJSON(ctx, u, &repo); err != nil {
		return Repo{}, fmt.Errorf("get repository %s: %w", fullName, err)
	}
	return repo, nil
}

// GetManifest fetches the plugin manifest from its fixed path. A repository
// without a manifest is reported as absent (false), not as an error.
func (c *Client) GetManifest(ctx context.Context, fullName string) ([]byte, bool, error) {
	content, ok, err := c.GetFileContent(ctx, fullName, manifest.Path, "")
	if err != nil || !ok {
		return nil, false, err
	}
	return []byte(content), true, nil
}

// GetFileContent fetches one file through the contents API and decodes the
// base64 payload. A 404 is reported as absent (false), not as an error.
func (c *Client) GetFileContent(ctx context.Context, fullName, path, ref string) (string, bool, error) {
	u := fmt.Sprintf("%s/repos/%s/contents/%s", c.baseURL, fullName, path)
	if ref != "" {
		u += "?ref=" + url.QueryEscape(ref)
	}

	var resp contentResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		if IsNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get %s from %s: %w", path, fullName, err)
	}

	if resp.Content == "" {
		return "", false, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(resp.Content, "\n", ""))
	if err != nil {
		return "", false, fmt.Errorf("decode %s from %s: %w", path, fullName, err)
	}
	return string(decoded), true, nil
}

// GetDirectoryContents lists one directory through the contents API.
// A 404 is reported as absent (false), not as an error.
func (c *Client) GetDirectoryContents(ctx context.Context, fullName, path, ref string) ([]Content, bool, error) {
	u := fmt.Sprintf("%s/repos/%s/contents/%s", c.baseURL, fullName, path)
	if ref != "" {
		u += "?ref=" + url.QueryEscape(ref)
	}

	req, err := c.newRequest(ctx, u)
	if err != nil {
		return nil, false, err
	}

	body, err := c.do(req)
	if err != nil {
		if IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("list %s from %s: %w", path, fullName, err)
	}

	// The contents API returns an object for files and an array for
	// directories; a non-array means the path is not a directory.
	var entries []Content
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, false, nil
	}
	return entries, true, nil
}

// GetRateLimit returns the current API rate-limit window. Operational
// visibility only; the pipeline never blocks on it.
func (c *Client) GetRateLimit(ctx context.Context) (RateLimit, error) {
	var resp rateLimitResponse
	if err := c.getJSON(ctx, c.baseURL+"/rate_limit", &resp); err != nil {
		return RateLimit{}, fmt.Errorf("get rate limit: %w", err)
	}
	return resp.Rate, nil
}

func (c *Client) newRequest(ctx context.Context, u string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

// do executes the request and returns the body, or an *APIError for any
// non-2xx response.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := c.newRequest(ctx, u)
	if err != nil {
		return err
	}
	body, err := c.do(req)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
