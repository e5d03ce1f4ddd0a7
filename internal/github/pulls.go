package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ListPullRequests returns the repository's pull requests, optionally
// filtered by state.
func (c *Client) ListPullRequests(ctx context.Context, owner, repo, state string) ([]PullRequest, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls", owner, repo)
	if state != "" {
		path += "?state=" + url.QueryEscape(state)
	}

	var prs []PullRequest
	if err := c.get(ctx, path, &prs); err != nil {
		return nil, err
	}
	return prs, nil
}

type NewPullRequest struct {
	Title string `json:"title"`
	Head  string `json:"head"`
	Base  string `json:"base"`
	Body  string `json:"body,omitempty"`
	Draft bool   `json:"draft"`
}

// CreatePullRequest opens a new pull request.
func (c *Client) CreatePullRequest(ctx context.Context, owner, repo string, pr NewPullRequest) (*PullRequest, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls", owner, repo)

	var created PullRequest
	if err := c.post(ctx, path, pr, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// PullRequest fetches a single pull request. Unlike the list endpoint,
// this response carries the computed mergeability state.
func (c *Client) PullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	var pr PullRequest
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, number), &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// PullRequestForBranch finds the open pull request whose head is the given
// branch. Returns a 404 *APIError when no such pull request exists, so
// callers can distinguish "no PR" from transport failures via IsNotFound.
func (c *Client) PullRequestForBranch(ctx context.Context, owner, repo, branch string) (*PullRequest, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls?head=%s&state=open",
		owner, repo, url.QueryEscape(owner+":"+branch))

	var prs []PullRequest
	if err := c.get(ctx, path, &prs); err != nil {
		return nil, err
	}
	if len(prs) == 0 {
		return nil, &APIError{
			StatusCode: 404,
			Message:    fmt.Sprintf("no open pull request for branch %s", branch),
		}
	}
	return &prs[0], nil
}

// MarkReadyForReview flips a draft pull request to ready. Draft state is
// only mutable through the GraphQL API.
func (c *Client) MarkReadyForReview(ctx context.Context, pr *PullRequest) error {
	const mutation = `mutation($id: ID!) {
		markPullRequestReadyForReview(input: {pullRequestId: $id}) {
			pullRequest { isDraft }
		}
	}`

	var result struct {
		Data struct {
			MarkPullRequestReadyForReview struct {
				PullRequest struct {
					IsDraft bool `json:"isDraft"`
				} `json:"pullRequest"`
			} `json:"markPullRequestReadyForReview"`
		} `json:"data"`
		Errors []graphQLError `json:"errors"`
	}

	if err := c.graphql(ctx, mutation, map[string]any{"id": pr.NodeID}, &result); err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		return &APIError{StatusCode: 200, Message: result.Errors[0].Message}
	}
	return nil
}

type MergeResult struct {
	SHA     string `json:"sha"`
	Merged  bool   `json:"merged"`
	Message string `json:"message"`
}

// MergePullRequest merges the pull request using the default merge method.
func (c *Client) MergePullRequest(ctx context.Context, owner, repo string, number int) (*MergeResult, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/merge", owner, repo, number)

	body, err := c.do(ctx, http.MethodPut, path, map[string]any{})
	if err != nil {
		return nil, err
	}

	var result MergeResult
	if err := unmarshalResponse(body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
