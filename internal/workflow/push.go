package workflow

import (
	"context"

	"github.com/alucardeht/ghflow-mcp/internal/github"
)

// executePush pushes a feature branch and surfaces its pull request state.
// Pushing from the main branch is refused with a warning and no mutation.
func (e *Engine) executePush(ctx context.Context, cmd PushCommand) (map[string]interface{}, error) {
	log.Info("executing push workflow")

	branch, err := e.resolveBranch(ctx, cmd.Branch)
	if err != nil {
		return nil, err
	}
	mainBranch := e.git.MainBranch(ctx)

	if branch == mainBranch {
		log.Warn("push requested on main branch", "branch", branch)
		return map[string]interface{}{
			"status":                StatusWarning,
			"message":               "You're on the main branch (" + mainBranch + "). Are you sure you want to push?",
			"branch":                branch,
			"requires_confirmation": true,
		}, nil
	}

	if cmd.Message != "" {
		log.Info("committing pending changes", "message", cmd.Message)
		if err := e.git.CommitAll(ctx, cmd.Message); err != nil {
			return nil, wrapStep("commit", branch, err)
		}
	}

	status, err := e.git.Status(ctx)
	if err != nil {
		return nil, wrapStep("status check", branch, err)
	}
	if len(status) > 0 {
		return map[string]interface{}{
			"status":              StatusError,
			"message":             "Uncommitted changes detected. Commit them or provide a commit message.",
			"branch":              branch,
			"uncommitted_changes": status,
		}, nil
	}

	log.Info("pushing branch", "branch", branch)
	if err := e.git.Push(ctx, branch); err != nil {
		return nil, wrapStep("push", branch, err)
	}

	// PR lookup is best-effort on push: no credential or no PR still
	// means the push itself succeeded.
	if e.hub != nil {
		if owner, repo, err := e.resolveRepo(ctx); err == nil {
			pr, err := e.hub.PullRequestForBranch(ctx, owner, repo, branch)
			if err == nil {
				return e.pushResultWithPR(ctx, branch, pr, cmd.ReadyForReview), nil
			}
			if !github.IsNotFound(err) {
				log.Warn("pull request lookup failed", "branch", branch, "error", err)
			}
		}
	}

	return map[string]interface{}{
		"status":     StatusSuccess,
		"message":    "Pushed to feature branch: " + branch,
		"branch":     branch,
		"suggestion": "Consider creating a pull request for this branch",
	}, nil
}

func (e *Engine) pushResultWithPR(ctx context.Context, branch string, pr *github.PullRequest, readyForReview bool) map[string]interface{} {
	log.Info("found existing pull request", "number", pr.Number, "draft", pr.Draft)

	prPayload := map[string]interface{}{
		"number": pr.Number,
		"url":    pr.HTMLURL,
		"title":  pr.Title,
		"draft":  pr.Draft,
	}
	result := map[string]interface{}{
		"status":       StatusSuccess,
		"message":      "Pushed to feature branch: " + branch,
		"branch":       branch,
		"pull_request": prPayload,
	}

	if readyForReview && pr.Draft {
		if err := e.hub.MarkReadyForReview(ctx, pr); err != nil {
			log.Warn("marking PR ready for review failed", "number", pr.Number, "error", err)
			result["message"] = "Pushed, but marking the PR ready for review failed"
		} else {
			prPayload["draft"] = false
			prPayload["ready_for_review"] = true
			result["message"] = "Pushed and marked PR as ready for review"
		}
	}

	return result
}
