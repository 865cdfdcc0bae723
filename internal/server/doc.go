// Package server implements the MCP (Model Context Protocol) server for ambient extraction.
//
// This package provides a JSON-RPC 2.0 server that exposes the ambient
// extraction pipeline through the MCP protocol, so MCP clients can sample an
// image's dominant color and brightness and drive a light with them.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - ambient_turn_on: Extract color and brightness, then turn on the light
//   - ambient_extract: Extract color and brightness only
//   - ambient_crop_preview: Return the analyzed region as a PNG
//
// All tools take the same source, brightness and crop arguments (url or
// path, brightness_auto, brightness_mode, brightness_min, brightness_max,
// crop_offset_left, crop_offset_top, crop_width, crop_height, crop_region).
// ambient_turn_on forwards every other argument to the light unchanged.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: ToolErrorData with the error kind and the Go error string
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	srv := server.New(svc, version)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal().Err(err).Msg("mcp server failed")
//	}
//
// Logging goes to stderr; stdout carries only protocol frames.
package server
