package protocol

import "encoding/json"

// MCPVersion is the protocol revision this server speaks.
const MCPVersion = "2024-11-05"

type JSONRPCRequest struct {
	JSONRPC string                 `json:"jsonrpc"`
	ID      interface{}            `json:"id,omitempty"`
	Method  string                 `json:"method"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      interface{}   `json:"id"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Standard JSON-RPC error codes, plus the domain codes this server reserves
// in the implementation-defined -32000..-32099 range.
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603

	GitHubAPIError      = -32000
	AuthenticationError = -32001
	RateLimitError      = -32002
	WorkflowError       = -32003
)

// Method names the dispatcher recognizes. The github/* methods are direct
// aliases for the corresponding tools.
const (
	MethodInitialize               = "initialize"
	MethodPing                     = "ping"
	MethodToolsList                = "tools/list"
	MethodToolsCall                = "tools/call"
	MethodResourcesList            = "resources/list"
	MethodResourcesRead            = "resources/read"
	MethodNotificationsInitialized = "notifications/initialized"

	MethodGitHubPush      = "github/push"
	MethodGitHubScanTasks = "github/scan-tasks"
	MethodGitHubMerge     = "github/merge"
)

type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// Success builds a response carrying a result. The request id is echoed
// verbatim, including a null id.
func Success(id interface{}, result interface{}) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
}

// Error builds a response carrying an error. A response never carries both
// a result and an error.
func Error(id interface{}, code int, message string, data interface{}) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}
