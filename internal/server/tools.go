package server

import "github.com/ironsheep/ambient-extractor/internal/imaging"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// sourceProperties returns the schema properties shared by every tool: the
// image source, brightness options and crop rectangle.
func sourceProperties() map[string]interface{} {
	modes := make([]string, len(imaging.BrightnessModes))
	for i, m := range imaging.BrightnessModes {
		modes[i] = string(m)
	}

	return map[string]interface{}{
		"url": map[string]interface{}{
			"type":        "string",
			"description": "http(s) URL of the image. Must match an allow-listed prefix. Exclusive with path.",
		},
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Local path of the image. Must be inside an allow-listed directory. Exclusive with url.",
		},
		"brightness_auto": map[string]interface{}{
			"type":        "boolean",
			"description": "Compute brightness from the image. Default true",
			"default":     true,
		},
		"brightness_mode": map[string]interface{}{
			"type":        "string",
			"enum":        modes,
			"description": "Brightness formula. Default mean",
			"default":     string(imaging.BrightnessMean),
		},
		"brightness_min": map[string]interface{}{
			"type":        "integer",
			"minimum":     0,
			"description": "Brightness sent for a black image. Default 2",
			"default":     2,
		},
		"brightness_max": map[string]interface{}{
			"type":        "integer",
			"minimum":     0,
			"description": "Brightness sent for a white image. Default 70",
			"default":     70,
		},
		"crop_offset_left": map[string]interface{}{
			"type":        "integer",
			"minimum":     0,
			"maximum":     99,
			"description": "Left edge of the analyzed region, percent of image width",
		},
		"crop_offset_top": map[string]interface{}{
			"type":        "integer",
			"minimum":     0,
			"maximum":     99,
			"description": "Top edge of the analyzed region, percent of image height",
		},
		"crop_width": map[string]interface{}{
			"type":        "integer",
			"minimum":     0,
			"description": "Width of the analyzed region, percent of image width. 0 analyzes the whole image",
		},
		"crop_height": map[string]interface{}{
			"type":        "integer",
			"minimum":     0,
			"description": "Height of the analyzed region, percent of image height. 0 analyzes the whole image",
		},
		"crop_region": map[string]interface{}{
			"type":        "string",
			"enum":        imaging.RegionNames,
			"description": "Named region to analyze. crop_width and crop_height take precedence",
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	turnOn := sourceProperties()
	turnOn["entity_id"] = map[string]interface{}{
		"type":        "string",
		"description": "Light entity to turn on. Any other light parameter (transition, flash, ...) is forwarded unchanged",
	}

	preview := sourceProperties()
	preview["scale"] = map[string]interface{}{
		"type":        "number",
		"description": "Optional scale factor (e.g., 0.5 to halve the preview). Default 1.0",
		"default":     1.0,
	}

	return []Tool{
		{
			Name:        "ambient_turn_on",
			Description: "Extract the dominant color and brightness of an image (optionally a cropped region) and turn on a light with them.",
			InputSchema: map[string]interface{}{
				"type":                 "object",
				"properties":           turnOn,
				"additionalProperties": true,
			},
		},
		{
			Name:        "ambient_extract",
			Description: "Extract the dominant color and brightness of an image (optionally a cropped region) without touching any light.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": sourceProperties(),
			},
		},
		{
			Name:        "ambient_crop_preview",
			Description: "Return the region of the image that extraction would analyze, as a base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": preview,
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
