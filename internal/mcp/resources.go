package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alucardeht/ghflow-mcp/pkg/protocol"
)

const (
	resourceWorkflowStatus = "github://workflow/status"
	resourceProjectTasks   = "github://projects/tasks"
)

// resourceDescriptors is the static resources/list payload.
var resourceDescriptors = []protocol.Resource{
	{
		URI:         resourceWorkflowStatus,
		Name:        "Workflow Status",
		Description: "Current GitHub workflow status and active tasks",
		MimeType:    "application/json",
	},
	{
		URI:         resourceProjectTasks,
		Name:        "Project Tasks",
		Description: "GitHub Project tasks with current status",
		MimeType:    "application/json",
	},
}

func (h *Handler) handleResourcesRead(ctx context.Context, req *Request) *Response {
	if req.Params == nil {
		return protocol.Error(req.ID, protocol.InvalidParams, "Missing parameters for resources/read", nil)
	}

	uri, ok := req.Params["uri"].(string)
	if !ok || uri == "" {
		return protocol.Error(req.ID, protocol.InvalidParams, "Missing URI for resources/read", nil)
	}

	var content map[string]interface{}
	var err error
	switch uri {
	case resourceWorkflowStatus:
		content, err = h.engine.WorkflowStatus(ctx)
	case resourceProjectTasks:
		content, err = h.engine.ProjectTasks(ctx)
	default:
		return protocol.Error(req.ID, protocol.MethodNotFound,
			fmt.Sprintf("Unknown resource: %s", uri), nil)
	}
	if err != nil {
		return errorResponse(req.ID, err)
	}

	text, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return protocol.Error(req.ID, protocol.InternalError, err.Error(), nil)
	}

	return protocol.Success(req.ID, map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"uri":      uri,
				"mimeType": "application/json",
				"text":     string(text),
			},
		},
	})
}
