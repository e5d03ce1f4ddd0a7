package workflow

import (
	"context"
)

// WorkflowStatus is the read-only query behind the workflow/status
// resource: current branch, dirty flag, and the branch's pull request
// when one can be resolved.
func (e *Engine) WorkflowStatus(ctx context.Context) (map[string]interface{}, error) {
	branch, err := e.git.CurrentBranch(ctx)
	if err != nil {
		return nil, wrapStep("resolve branch", "", err)
	}

	status, err := e.git.Status(ctx)
	if err != nil {
		return nil, wrapStep("status check", branch, err)
	}

	result := map[string]interface{}{
		"current_branch":          branch,
		"has_uncommitted_changes": len(status) > 0,
		"git_status":              status,
		"pull_request":            nil,
		"timestamp":               timestamp(),
	}

	// PR state is informational here; lookup failures leave the field
	// null rather than failing the query.
	if e.hub != nil {
		if owner, repo, err := e.resolveRepo(ctx); err == nil {
			if pr, err := e.hub.PullRequestForBranch(ctx, owner, repo, branch); err == nil {
				result["pull_request"] = map[string]interface{}{
					"number": pr.Number,
					"url":    pr.HTMLURL,
					"title":  pr.Title,
					"draft":  pr.Draft,
				}
			}
		}
	}

	return result, nil
}

// ProjectTasks is the read-only query behind the projects/tasks resource.
func (e *Engine) ProjectTasks(ctx context.Context) (map[string]interface{}, error) {
	projectNumber, err := e.projects.Locate("")
	if err != nil {
		return nil, err
	}

	if e.hub == nil {
		return nil, authError("GitHub client not available")
	}

	items, err := e.hub.ProjectItems(ctx, e.owner, projectNumber)
	if err != nil {
		return nil, wrapStep("fetch project items", "", err)
	}

	return map[string]interface{}{
		"project_number": projectNumber,
		"tasks":          items,
		"total_count":    len(items),
		"timestamp":      timestamp(),
	}, nil
}
