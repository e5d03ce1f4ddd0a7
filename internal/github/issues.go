package github

import (
	"context"
	"fmt"
	"net/url"
)

// ListIssues returns the repository's issues, optionally filtered by
// state ("open", "closed", "all").
func (c *Client) ListIssues(ctx context.Context, owner, repo, state string) ([]Issue, error) {
	path := fmt.Sprintf("/repos/%s/%s/issues", owner, repo)
	if state != "" {
		path += "?state=" + url.QueryEscape(state)
	}

	var issues []Issue
	if err := c.get(ctx, path, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

type NewIssue struct {
	Title  string   `json:"title"`
	Body   string   `json:"body,omitempty"`
	Labels []string `json:"labels,omitempty"`
}

// CreateIssue opens a new issue.
func (c *Client) CreateIssue(ctx context.Context, owner, repo string, issue NewIssue) (*Issue, error) {
	path := fmt.Sprintf("/repos/%s/%s/issues", owner, repo)

	var created Issue
	if err := c.post(ctx, path, issue, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
