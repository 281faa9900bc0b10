// Package mcp implements the server side of the Model Context Protocol
// over newline-delimited JSON-RPC 2.0.
package mcp

import (
	"bytes"
	"encoding/json"
	"errors"

	"kalimcp/internal/tools"
)

// JSONRPCVersion is the only protocol version emitted.
const JSONRPCVersion = "2.0"

// JSON-RPC error codes.
const (
	CodeMethodNotFound = -32601
	CodeInternalError  = -32603
)

// MCP method names.
const (
	MethodInitialize  = "initialize"
	MethodInitialized = "notifications/initialized"
	MethodToolsList   = "tools/list"
	MethodToolsCall   = "tools/call"
)

// JSONRPCRequest represents an incoming JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	// ID is kept as raw JSON so it is echoed back byte for byte.
	ID        json.RawMessage `json:"id"`
	Method    string          `json:"method"`
	Params    json.RawMessage `json:"params,omitempty"`
	idPresent bool
}

// ErrNotObject is returned when a well-formed JSON value is not an object.
var ErrNotObject = errors.New("request is not a JSON object")

// UnmarshalJSON records whether the id member was present at all. Only
// the object shape is enforced: a jsonrpc or method member that is not a
// string decodes as empty so the request still reaches routing.
func (r *JSONRPCRequest) UnmarshalJSON(data []byte) error {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return ErrNotObject
		}
		return err
	}
	if object == nil {
		return ErrNotObject
	}

	*r = JSONRPCRequest{}
	if raw, ok := object["jsonrpc"]; ok {
		_ = json.Unmarshal(raw, &r.JSONRPC)
	}
	if raw, ok := object["method"]; ok {
		_ = json.Unmarshal(raw, &r.Method)
	}
	r.Params = object["params"]

	rawID, ok := object["id"]
	if !ok {
		return nil
	}
	r.idPresent = true
	r.ID = json.RawMessage(bytes.TrimSpace(rawID))
	return nil
}

// IsNotification reports whether the request carried no id.
func (r *JSONRPCRequest) IsNotification() bool {
	return !r.idPresent
}

// JSONRPCResponse represents an outgoing JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewResult builds a success response. A nil id is encoded as null.
func NewResult(id json.RawMessage, result any) *JSONRPCResponse {
	return &JSONRPCResponse{JSONRPC: JSONRPCVersion, ID: nullIfEmpty(id), Result: result}
}

// NewError builds an error response. A nil id is encoded as null.
func NewError(id json.RawMessage, code int, message string) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      nullIfEmpty(id),
		Error:   &JSONRPCError{Code: code, Message: message},
	}
}

func nullIfEmpty(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}

// InitializeResult is the handshake result.
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
}

// Capabilities declares what the server offers.
type Capabilities struct {
	Tools ToolsCapability `json:"tools"`
}

// ToolsCapability is the tools capability block.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ServerInfo names the server.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// MCPTool represents a tool in the MCP protocol.
type MCPTool struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	InputSchema tools.ToolSchema `json:"inputSchema"`
}

// ToolsListResult is the tools/list result.
type ToolsListResult struct {
	Tools []MCPTool `json:"tools"`
}

// ToolCallParams are the tools/call params.
type ToolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// MCPContentBlock is one content item of a tool result.
type MCPContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// MCPToolResult is the tools/call result.
type MCPToolResult struct {
	Content []MCPContentBlock `json:"content"`
}
