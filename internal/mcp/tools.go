package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/alucardeht/ghflow-mcp/internal/workflow"
	"github.com/alucardeht/ghflow-mcp/pkg/protocol"
)

const (
	toolPush      = "github_push"
	toolScanTasks = "github_scan_tasks"
	toolMerge     = "github_merge"
)

// toolDescriptors is the static, immutable tools/list payload.
var toolDescriptors = []protocol.Tool{
	{
		Name:        toolPush,
		Description: "Intelligent git push with PR management and workflow automation",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"branch": {
					"type": "string",
					"description": "Branch to push (defaults to current branch)"
				},
				"message": {
					"type": "string",
					"description": "Optional commit message if changes need to be committed"
				},
				"ready_for_review": {
					"type": "boolean",
					"description": "Mark PR as ready for review after push"
				}
			}
		}`),
	},
	{
		Name:        toolScanTasks,
		Description: "Scan GitHub Projects for tasks and present organized by type/priority",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project_number": {
					"type": "string",
					"description": "GitHub Project number (optional, will auto-detect from the tracking document)"
				},
				"filter_type": {
					"type": "string",
					"enum": ["bug", "feature", "enhancement", "documentation", "refactor", "test", "chore"],
					"description": "Filter tasks by type"
				},
				"status": {
					"type": "string",
					"description": "Filter tasks by status (In Progress, To Do, etc.)"
				}
			}
		}`),
	},
	{
		Name:        toolMerge,
		Description: "Complete merge workflow with checks, cleanup, and project updates",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"branch": {
					"type": "string",
					"description": "Branch to merge (defaults to current branch)"
				},
				"delete_branch": {
					"type": "boolean",
					"description": "Delete branch after merge (default: true)"
				},
				"cleanup_work_folder": {
					"type": "boolean",
					"description": "Clean up work folder after merge"
				}
			}
		}`),
	},
}

// stringArg reads an optional string field; a present non-string value is
// a parameter error.
func stringArg(args map[string]interface{}, key string) (string, error) {
	value, ok := args[key]
	if !ok || value == nil {
		return "", nil
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", key)
	}
	return s, nil
}

// boolArg reads an optional boolean field, reporting whether it was
// present so callers can apply defaults to absent values.
func boolArg(args map[string]interface{}, key string) (value, present bool, err error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return false, false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, false, fmt.Errorf("argument %q must be a boolean", key)
	}
	return b, true, nil
}

// commandForTool maps a tool invocation's JSON arguments onto the
// corresponding workflow command, field by field, leaving absent fields
// at their zero value.
func commandForTool(name string, args map[string]interface{}) (workflow.Command, error) {
	switch name {
	case toolPush:
		branch, err := stringArg(args, "branch")
		if err != nil {
			return nil, err
		}
		message, err := stringArg(args, "message")
		if err != nil {
			return nil, err
		}
		ready, _, err := boolArg(args, "ready_for_review")
		if err != nil {
			return nil, err
		}
		return workflow.PushCommand{
			Branch:         branch,
			Message:        message,
			ReadyForReview: ready,
		}, nil

	case toolScanTasks:
		projectNumber, err := stringArg(args, "project_number")
		if err != nil {
			return nil, err
		}
		filterType, err := stringArg(args, "filter_type")
		if err != nil {
			return nil, err
		}
		status, err := stringArg(args, "status")
		if err != nil {
			return nil, err
		}
		return workflow.ScanTasksCommand{
			ProjectNumber: projectNumber,
			FilterType:    filterType,
			Status:        status,
		}, nil

	case toolMerge:
		branch, err := stringArg(args, "branch")
		if err != nil {
			return nil, err
		}
		deleteBranch, present, err := boolArg(args, "delete_branch")
		if err != nil {
			return nil, err
		}
		if !present {
			deleteBranch = true
		}
		cleanup, _, err := boolArg(args, "cleanup_work_folder")
		if err != nil {
			return nil, err
		}
		return workflow.MergeCommand{
			Branch:            branch,
			DeleteBranch:      deleteBranch,
			CleanupWorkFolder: cleanup,
		}, nil
	}

	return nil, nil
}
