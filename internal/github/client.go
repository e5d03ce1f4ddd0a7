// Package github is a thin typed client for the GitHub REST and GraphQL
// APIs, covering only the operations the workflow engine needs. Each call
// may fail with an *APIError carrying the HTTP status and response body.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/alucardeht/ghflow-mcp/internal/logger"
)

var log = logger.ForComponent("github")

const defaultBaseURL = "https://api.github.com"

// apiVersion pins the REST API version header for consistent behavior.
const apiVersion = "2022-11-28"

type Config struct {
	// Token is a personal access token or fine-grained token. Required.
	Token string

	// BaseURL is the API root. Defaults to https://api.github.com.
	BaseURL string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(config Config) (*Client, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("github: no token configured")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		token:      config.Token,
		httpClient: httpClient,
	}, nil
}

// do executes an authenticated request against a path relative to the base
// URL and returns the raw response body. Non-2xx responses become an
// *APIError with the status code and body text.
func (c *Client) do(ctx context.Context, method, path string, requestBody any) ([]byte, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("github: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	url := c.baseURL + path
	request, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("github: creating request: %w", err)
	}

	request.Header.Set("Authorization", "Bearer "+c.token)
	request.Header.Set("Accept", "application/vnd.github+json")
	request.Header.Set("X-GitHub-Api-Version", apiVersion)
	request.Header.Set("User-Agent", "ghflow-mcp")
	if bodyReader != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	log.Debug("github request", "method", method, "path", path)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("github: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("github: reading response body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, parseAPIError(response.StatusCode, body)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("github: decoding response: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, requestBody, out any) error {
	body, err := c.do(ctx, http.MethodPost, path, requestBody)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("github: decoding response: %w", err)
	}
	return nil
}

// User returns the authenticated user.
func (c *Client) User(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, "/user", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Repository returns repository metadata.
func (c *Client) Repository(ctx context.Context, owner, repo string) (*Repository, error) {
	var repository Repository
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/%s", owner, repo), &repository); err != nil {
		return nil, err
	}
	return &repository, nil
}
