package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{Token: "test-token", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error without token")
	}
}

func TestRequestHeaders(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/vnd.github+json" {
			t.Errorf("Accept = %q", got)
		}
		if got := r.Header.Get("X-GitHub-Api-Version"); got != apiVersion {
			t.Errorf("api version = %q", got)
		}
		json.NewEncoder(w).Encode(User{Login: "octocat"})
	})

	user, err := client.User(context.Background())
	if err != nil {
		t.Fatalf("User: %v", err)
	}
	if user.Login != "octocat" {
		t.Errorf("login = %q", user.Login)
	}
}

func TestAPIErrorFromResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "Bad credentials"}`))
	})

	_, err := client.User(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsAuthFailure(err) {
		t.Errorf("expected auth failure, got %v", err)
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Message != "Bad credentials" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestPullRequestForBranchFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("head"); got != "octocat:feature/x" {
			t.Errorf("head = %q", got)
		}
		if got := r.URL.Query().Get("state"); got != "open" {
			t.Errorf("state = %q", got)
		}
		json.NewEncoder(w).Encode([]PullRequest{{Number: 7, Title: "feature x"}})
	})

	pr, err := client.PullRequestForBranch(context.Background(), "octocat", "widgets", "feature/x")
	if err != nil {
		t.Fatalf("PullRequestForBranch: %v", err)
	}
	if pr.Number != 7 {
		t.Errorf("number = %d", pr.Number)
	}
}

func TestPullRequestForBranchEmptyIsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	})

	_, err := client.PullRequestForBranch(context.Background(), "octocat", "widgets", "feature/x")
	if !IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestPullRequestDetailCarriesMergeable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/octocat/widgets/pulls":
			// List payloads omit the mergeable field entirely.
			w.Write([]byte(`[{"number": 7, "title": "feature x"}]`))
		case "/repos/octocat/widgets/pulls/7":
			w.Write([]byte(`{"number": 7, "title": "feature x", "mergeable": false}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	listed, err := client.PullRequestForBranch(context.Background(), "octocat", "widgets", "feature/x")
	if err != nil {
		t.Fatalf("PullRequestForBranch: %v", err)
	}
	if listed.Mergeable != nil {
		t.Errorf("list payload must leave mergeable unknown, got %v", *listed.Mergeable)
	}

	detail, err := client.PullRequest(context.Background(), "octocat", "widgets", listed.Number)
	if err != nil {
		t.Fatalf("PullRequest: %v", err)
	}
	if detail.Mergeable == nil || *detail.Mergeable {
		t.Errorf("detail payload must carry mergeable=false, got %v", detail.Mergeable)
	}
}

func TestMergePullRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s", r.Method)
		}
		if r.URL.Path != "/repos/octocat/widgets/pulls/7/merge" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(MergeResult{Merged: true, SHA: "abc123"})
	})

	result, err := client.MergePullRequest(context.Background(), "octocat", "widgets", 7)
	if err != nil {
		t.Fatalf("MergePullRequest: %v", err)
	}
	if !result.Merged || result.SHA != "abc123" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestListIssuesFiltersByState(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("state"); got != "open" {
			t.Errorf("state = %q", got)
		}
		json.NewEncoder(w).Encode([]Issue{{Number: 1, Title: "bug"}})
	})

	issues, err := client.ListIssues(context.Background(), "octocat", "widgets", "open")
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if len(issues) != 1 || issues[0].Number != 1 {
		t.Errorf("unexpected issues: %v", issues)
	}
}

func TestCreateIssue(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		var issue NewIssue
		json.NewDecoder(r.Body).Decode(&issue)
		if issue.Title != "broken login" {
			t.Errorf("title = %q", issue.Title)
		}
		json.NewEncoder(w).Encode(Issue{Number: 12, Title: issue.Title})
	})

	created, err := client.CreateIssue(context.Background(), "octocat", "widgets", NewIssue{Title: "broken login"})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	if created.Number != 12 {
		t.Errorf("number = %d", created.Number)
	}
}

func TestCreatePullRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var pr NewPullRequest
		json.NewDecoder(r.Body).Decode(&pr)
		if pr.Head != "feature/x" || pr.Base != "main" {
			t.Errorf("head/base = %q/%q", pr.Head, pr.Base)
		}
		json.NewEncoder(w).Encode(PullRequest{Number: 8, Draft: pr.Draft})
	})

	created, err := client.CreatePullRequest(context.Background(), "octocat", "widgets", NewPullRequest{
		Title: "feature x",
		Head:  "feature/x",
		Base:  "main",
		Draft: true,
	})
	if err != nil {
		t.Fatalf("CreatePullRequest: %v", err)
	}
	if created.Number != 8 || !created.Draft {
		t.Errorf("unexpected PR: %+v", created)
	}
}

func TestListPullRequests(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]PullRequest{{Number: 1}, {Number: 2}})
	})

	prs, err := client.ListPullRequests(context.Background(), "octocat", "widgets", "open")
	if err != nil {
		t.Fatalf("ListPullRequests: %v", err)
	}
	if len(prs) != 2 {
		t.Errorf("expected 2 PRs, got %d", len(prs))
	}
}

const projectItemsFixture = `{
	"data": {
		"organization": null,
		"user": {
			"projectV2": {
				"items": {
					"nodes": [
						{
							"id": "PVTI_1",
							"content": {
								"__typename": "Issue",
								"title": "Fix login",
								"body": "details",
								"url": "https://github.com/octocat/widgets/issues/1"
							},
							"fieldValues": {
								"nodes": [
									{"name": "In Progress", "field": {"name": "Status"}},
									{"name": "High", "field": {"name": "Priority"}},
									{"text": "auth", "field": {"name": "Area"}},
									{}
								]
							}
						},
						{
							"id": "PVTI_2",
							"content": {"__typename": "DraftIssue", "title": "Spike", "body": ""},
							"fieldValues": {"nodes": []}
						}
					]
				}
			}
		}
	}
}`

func TestProjectItems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/graphql" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var payload struct {
			Variables map[string]any `json:"variables"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		if payload.Variables["owner"] != "octocat" {
			t.Errorf("owner variable = %v", payload.Variables["owner"])
		}
		w.Write([]byte(projectItemsFixture))
	})

	items, err := client.ProjectItems(context.Background(), "octocat", 31)
	if err != nil {
		t.Fatalf("ProjectItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.Title != "Fix login" || first.Type != "Issue" {
		t.Errorf("unexpected first item: %+v", first)
	}
	if first.Fields["Status"] != "In Progress" || first.Fields["Priority"] != "High" {
		t.Errorf("unexpected fields: %v", first.Fields)
	}
	if first.Fields["Area"] != "auth" {
		t.Errorf("text field not captured: %v", first.Fields)
	}

	if items[1].Fields != nil {
		t.Errorf("expected no fields on draft item, got %v", items[1].Fields)
	}
}

func TestMarkReadyForReview(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/graphql" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var payload struct {
			Variables map[string]any `json:"variables"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		if payload.Variables["id"] != "PR_node1" {
			t.Errorf("id variable = %v", payload.Variables["id"])
		}
		w.Write([]byte(`{"data": {"markPullRequestReadyForReview": {"pullRequest": {"isDraft": false}}}}`))
	})

	pr := &PullRequest{NodeID: "PR_node1", Draft: true}
	if err := client.MarkReadyForReview(context.Background(), pr); err != nil {
		t.Fatalf("MarkReadyForReview: %v", err)
	}
}

func TestMarkReadyForReviewSurfacesGraphQLErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors": [{"message": "not authorized"}]}`))
	})

	err := client.MarkReadyForReview(context.Background(), &PullRequest{NodeID: "PR_node1"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestProjectItemsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"organization": null, "user": null}}`))
	})

	_, err := client.ProjectItems(context.Background(), "octocat", 99)
	if !IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestProjectItemsRequiresOwner(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent without an owner")
	})

	if _, err := client.ProjectItems(context.Background(), "", 31); err == nil {
		t.Fatal("expected error")
	}
}
