package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"github.com/alucardeht/ghflow-mcp/internal/logger"
	"github.com/alucardeht/ghflow-mcp/internal/workflow"
	"github.com/alucardeht/ghflow-mcp/pkg/protocol"
)

var log = logger.ForComponent("mcp")

type Request = protocol.JSONRPCRequest
type Response = protocol.JSONRPCResponse

// ServerInfo identifies this server in initialize responses.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Handler validates protocol envelopes and routes methods to the workflow
// engine. One handler serves all transports; it keeps no per-request
// state.
type Handler struct {
	engine      *workflow.Engine
	info        ServerInfo
	initialized atomic.Bool
}

func NewHandler(engine *workflow.Engine, info ServerInfo) *Handler {
	return &Handler{
		engine: engine,
		info:   info,
	}
}

// Handle dispatches one request and builds exactly one response carrying
// the request's correlation id.
func (h *Handler) Handle(ctx context.Context, req *Request) *Response {
	log.Debug("handling request", "method", req.Method)

	switch req.Method {
	case protocol.MethodInitialize:
		return h.handleInitialize(req)
	case protocol.MethodPing:
		return protocol.Success(req.ID, map[string]interface{}{})
	case protocol.MethodToolsList:
		return protocol.Success(req.ID, map[string]interface{}{"tools": toolDescriptors})
	case protocol.MethodToolsCall:
		return h.handleToolsCall(ctx, req)
	case protocol.MethodResourcesList:
		return protocol.Success(req.ID, map[string]interface{}{"resources": resourceDescriptors})
	case protocol.MethodResourcesRead:
		return h.handleResourcesRead(ctx, req)
	case protocol.MethodNotificationsInitialized:
		h.initialized.Store(true)
		return protocol.Success(req.ID, map[string]interface{}{})
	case protocol.MethodGitHubPush:
		return h.handleAlias(ctx, req, toolPush)
	case protocol.MethodGitHubScanTasks:
		return h.handleAlias(ctx, req, toolScanTasks)
	case protocol.MethodGitHubMerge:
		return h.handleAlias(ctx, req, toolMerge)
	default:
		return protocol.Error(req.ID, protocol.MethodNotFound,
			fmt.Sprintf("Method not found: %s", req.Method), nil)
	}
}

func (h *Handler) handleInitialize(req *Request) *Response {
	initReq := struct {
		ProtocolVersion string `json:"protocolVersion"`
		ClientInfo      struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"clientInfo"`
	}{}

	if req.Params != nil {
		paramsData, err := json.Marshal(req.Params)
		if err == nil {
			_ = json.Unmarshal(paramsData, &initReq)
		}
	}

	if initReq.ClientInfo.Name != "" {
		log.Info("client initialized", "client", initReq.ClientInfo.Name, "version", initReq.ClientInfo.Version)
	}

	return protocol.Success(req.ID, map[string]interface{}{
		"protocolVersion": protocol.MCPVersion,
		"capabilities": map[string]interface{}{
			"tools":     map[string]interface{}{"listChanged": true},
			"resources": map[string]interface{}{"subscribe": false, "listChanged": true},
			"logging":   map[string]interface{}{"level": "info"},
		},
		"serverInfo": h.info,
	})
}

func (h *Handler) handleToolsCall(ctx context.Context, req *Request) *Response {
	if req.Params == nil {
		return protocol.Error(req.ID, protocol.InvalidParams, "Missing parameters for tools/call", nil)
	}

	name, ok := req.Params["name"].(string)
	if !ok || name == "" {
		return protocol.Error(req.ID, protocol.InvalidParams, "Missing tool name", nil)
	}

	var args map[string]interface{}
	if raw, present := req.Params["arguments"]; present && raw != nil {
		args, ok = raw.(map[string]interface{})
		if !ok {
			return protocol.Error(req.ID, protocol.InvalidParams, "Tool arguments must be an object", nil)
		}
	}

	cmd, err := commandForTool(name, args)
	if err != nil {
		return protocol.Error(req.ID, protocol.InvalidParams, err.Error(), nil)
	}
	if cmd == nil {
		return protocol.Error(req.ID, protocol.MethodNotFound,
			fmt.Sprintf("Unknown tool: %s", name), nil)
	}

	return h.executeCommand(ctx, req.ID, cmd)
}

// handleAlias serves the direct github/* methods: params map straight onto
// the tool's arguments.
func (h *Handler) handleAlias(ctx context.Context, req *Request, tool string) *Response {
	cmd, err := commandForTool(tool, req.Params)
	if err != nil {
		return protocol.Error(req.ID, protocol.InvalidParams, err.Error(), nil)
	}
	return h.executeCommand(ctx, req.ID, cmd)
}

func (h *Handler) executeCommand(ctx context.Context, id interface{}, cmd workflow.Command) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("workflow panic recovered", "panic", r, "stack", string(debug.Stack()))
			resp = protocol.Error(id, protocol.InternalError,
				fmt.Sprintf("workflow execution panicked: %v", r), nil)
		}
	}()

	result, err := h.engine.Execute(ctx, cmd)
	if err != nil {
		return errorResponse(id, err)
	}
	return protocol.Success(id, result)
}

// errorResponse maps engine failures onto the wire error registry.
// Structured workflow errors keep their domain code and context data;
// anything else is internal.
func errorResponse(id interface{}, err error) *Response {
	var wfErr *workflow.Error
	if errors.As(err, &wfErr) {
		return protocol.Error(id, wfErr.Code, wfErr.Message, wfErr.Data)
	}
	return protocol.Error(id, protocol.InternalError, err.Error(), nil)
}
