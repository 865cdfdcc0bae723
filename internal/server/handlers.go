package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/ambient-extractor/internal/ambient"
)

// errUnknownTool is returned by executeTool for names it does not serve.
var errUnknownTool = errors.New("unknown tool")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "ambient_turn_on").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// ToolErrorData is the data member of a failed tools/call response.
type ToolErrorData struct {
	// Kind is validation, access_denied, fetch, decode, extract, dispatch,
	// unknown_tool or internal.
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000
// and a ToolErrorData naming the error kind.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	args := map[string]any{}
	if len(params.Arguments) > 0 && string(params.Arguments) != "null" {
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			return s.errorResponse(req.ID, -32602, "Invalid params", fmt.Sprintf("arguments must be an object: %v", err))
		}
	}

	result, err := s.executeTool(ctx, params.Name, args)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", toolErrorData(err))
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Every tool accepts the ambient action parameters; ParseRequest validates
// them and applies defaults before the service runs.
func (s *Server) executeTool(ctx context.Context, name string, args map[string]any) (interface{}, error) {
	switch name {
	case "ambient_turn_on":
		return s.handleTurnOn(ctx, args)
	case "ambient_extract":
		return s.handleExtract(ctx, args)
	case "ambient_crop_preview":
		return s.handleCropPreview(ctx, args)
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownTool, name)
	}
}

func (s *Server) handleTurnOn(ctx context.Context, args map[string]any) (interface{}, error) {
	req, err := ambient.ParseRequest(args)
	if err != nil {
		return nil, err
	}
	return s.svc.TurnOn(ctx, req)
}

func (s *Server) handleExtract(ctx context.Context, args map[string]any) (interface{}, error) {
	req, err := ambient.ParseRequest(args)
	if err != nil {
		return nil, err
	}
	return s.svc.Extract(ctx, req)
}

func (s *Server) handleCropPreview(ctx context.Context, args map[string]any) (interface{}, error) {
	scale, err := ambient.ParsePreviewScale(args["scale"])
	if err != nil {
		return nil, err
	}
	delete(args, "scale")

	req, err := ambient.ParseRequest(args)
	if err != nil {
		return nil, err
	}
	return s.svc.Preview(ctx, req, scale)
}

func toolErrorData(err error) ToolErrorData {
	kind := ambient.KindName(err)
	if errors.Is(err, errUnknownTool) {
		kind = "unknown_tool"
	}
	return ToolErrorData{Kind: kind, Detail: err.Error()}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
