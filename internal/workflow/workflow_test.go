package workflow

import (
	"context"
	"errors"

	"github.com/alucardeht/ghflow-mcp/internal/github"
)

// fakeGit records every operation and simulates a working tree whose
// status becomes clean after a commit.
type fakeGit struct {
	branch    string
	main      string
	status    []string
	remoteURL string

	currentBranchErr error
	statusErr        error
	commitErr        error
	pushErr          error
	pullErr          error
	checkoutErr      error
	deleteErr        error

	calls []string
}

func (f *fakeGit) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeGit) called(call string) bool {
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeGit) CurrentBranch(ctx context.Context) (string, error) {
	f.record("current-branch")
	return f.branch, f.currentBranchErr
}

func (f *fakeGit) MainBranch(ctx context.Context) string {
	f.record("main-branch")
	if f.main == "" {
		return "main"
	}
	return f.main
}

func (f *fakeGit) Status(ctx context.Context) ([]string, error) {
	f.record("status")
	return f.status, f.statusErr
}

func (f *fakeGit) CommitAll(ctx context.Context, message string) error {
	f.record("commit:" + message)
	if f.commitErr != nil {
		return f.commitErr
	}
	f.status = nil
	return nil
}

func (f *fakeGit) Push(ctx context.Context, branch string) error {
	f.record("push:" + branch)
	return f.pushErr
}

func (f *fakeGit) Pull(ctx context.Context, branch string) error {
	f.record("pull:" + branch)
	return f.pullErr
}

func (f *fakeGit) Checkout(ctx context.Context, branch string) error {
	f.record("checkout:" + branch)
	return f.checkoutErr
}

func (f *fakeGit) DeleteBranch(ctx context.Context, branch string) error {
	f.record("delete:" + branch)
	return f.deleteErr
}

func (f *fakeGit) RemoteURL(ctx context.Context) (string, error) {
	f.record("remote-url")
	if f.remoteURL == "" {
		return "git@github.com:octocat/widgets.git", nil
	}
	return f.remoteURL, nil
}

type fakeHub struct {
	pr       *github.PullRequest
	prErr    error
	detail   *github.PullRequest
	markErr  error
	merge    *github.MergeResult
	mergeErr error
	items    []github.ProjectItem
	itemsErr error

	prLookups   int
	detailCalls int
	markCalls   int
	mergeCalls  int
	itemsCalls  int
	markedReady *github.PullRequest
}

func notFoundErr() error {
	return &github.APIError{StatusCode: 404, Message: "no pull request"}
}

func (f *fakeHub) PullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	f.detailCalls++
	if f.detail != nil {
		return f.detail, nil
	}
	if f.pr != nil {
		return f.pr, nil
	}
	return nil, notFoundErr()
}

func (f *fakeHub) PullRequestForBranch(ctx context.Context, owner, repo, branch string) (*github.PullRequest, error) {
	f.prLookups++
	if f.prErr != nil {
		return nil, f.prErr
	}
	if f.pr == nil {
		return nil, notFoundErr()
	}
	return f.pr, nil
}

func (f *fakeHub) MarkReadyForReview(ctx context.Context, pr *github.PullRequest) error {
	f.markCalls++
	f.markedReady = pr
	return f.markErr
}

func (f *fakeHub) MergePullRequest(ctx context.Context, owner, repo string, number int) (*github.MergeResult, error) {
	f.mergeCalls++
	if f.mergeErr != nil {
		return nil, f.mergeErr
	}
	if f.merge == nil {
		return &github.MergeResult{Merged: true, SHA: "abc123"}, nil
	}
	return f.merge, nil
}

func (f *fakeHub) ProjectItems(ctx context.Context, owner string, number int) ([]github.ProjectItem, error) {
	f.itemsCalls++
	return f.items, f.itemsErr
}

func newTestEngine(git *fakeGit, hub Hub) *Engine {
	locator := NewProjectLocator("testdata/does-not-exist.md", "")
	return NewEngine(git, hub, locator, nil, "octocat")
}

var errGitBoom = errors.New("git exploded")

func asWorkflowError(err error) (*Error, bool) {
	var wfErr *Error
	ok := errors.As(err, &wfErr)
	return wfErr, ok
}
