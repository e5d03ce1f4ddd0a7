package workflow

import (
	"context"

	"github.com/alucardeht/ghflow-mcp/internal/github"
	"github.com/alucardeht/ghflow-mcp/pkg/protocol"
)

// executeMerge completes a feature branch: final push, mandatory PR
// lookup, merge, and return to main. Branch deletion and work-folder
// cleanup are best-effort tail steps.
func (e *Engine) executeMerge(ctx context.Context, cmd MergeCommand) (map[string]interface{}, error) {
	log.Info("executing merge workflow")

	// The merge path cannot run without API access; refuse before any
	// mutation.
	if e.hub == nil {
		return nil, authError("GitHub client not available")
	}

	branch, err := e.resolveBranch(ctx, cmd.Branch)
	if err != nil {
		return nil, err
	}
	mainBranch := e.git.MainBranch(ctx)

	if branch == mainBranch {
		return nil, validationError("already on main branch (%s), switch to a feature branch first", mainBranch)
	}

	status, err := e.git.Status(ctx)
	if err != nil {
		return nil, wrapStep("status check", branch, err)
	}
	if len(status) > 0 {
		log.Info("committing final changes", "branch", branch)
		if err := e.git.CommitAll(ctx, "Final changes for "+branch); err != nil {
			return nil, wrapStep("commit", branch, err)
		}
	}

	if err := e.git.Push(ctx, branch); err != nil {
		return nil, wrapStep("push", branch, err)
	}

	owner, repo, err := e.resolveRepo(ctx)
	if err != nil {
		return nil, err
	}

	// Unlike push, a missing PR is terminal here: there is nothing to
	// merge.
	pr, err := e.hub.PullRequestForBranch(ctx, owner, repo, branch)
	if err != nil {
		if github.IsNotFound(err) {
			return nil, validationError("no open pull request found for branch %s", branch)
		}
		return nil, wrapStep("pull request lookup", branch, err)
	}

	// The list endpoint omits mergeability; only the single-PR fetch
	// carries it.
	pr, err = e.hub.PullRequest(ctx, owner, repo, pr.Number)
	if err != nil {
		return nil, wrapStep("pull request lookup", branch, err)
	}

	if pr.Mergeable != nil && !*pr.Mergeable {
		return nil, validationError("pull request #%d is not mergeable, resolve conflicts first", pr.Number)
	}

	log.Info("merging pull request", "number", pr.Number)
	merge, err := e.hub.MergePullRequest(ctx, owner, repo, pr.Number)
	if err != nil {
		return nil, wrapStep("merge", branch, err)
	}
	if !merge.Merged {
		return nil, &Error{
			Code:    protocol.WorkflowError,
			Message: "merge was not completed: " + merge.Message,
			Data:    map[string]interface{}{"stage": "merge", "branch": branch},
		}
	}

	if err := e.git.Checkout(ctx, mainBranch); err != nil {
		return nil, wrapStep("checkout main", branch, err)
	}
	if err := e.git.Pull(ctx, mainBranch); err != nil {
		return nil, wrapStep("pull main", branch, err)
	}

	workFolderCleaned := false
	if cmd.CleanupWorkFolder && e.cleaner != nil {
		workFolderCleaned = e.cleaner.Clean()
	}

	branchDeleted := false
	if cmd.DeleteBranch {
		if err := e.git.DeleteBranch(ctx, branch); err != nil {
			log.Warn("branch deletion failed", "branch", branch, "error", err)
		} else {
			branchDeleted = true
		}
	}

	return map[string]interface{}{
		"status":  StatusSuccess,
		"message": "Merge complete",
		"merged_pr": map[string]interface{}{
			"number": pr.Number,
			"url":    pr.HTMLURL,
			"title":  pr.Title,
		},
		"current_branch":      mainBranch,
		"branch_deleted":      branchDeleted,
		"work_folder_cleaned": workFolderCleaned,
		"timestamp":           timestamp(),
	}, nil
}
