package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// circleSchema describes one droplet circle argument.
var circleSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"x": map[string]interface{}{
			"type":        "integer",
			"description": "Center X coordinate in pixels",
		},
		"y": map[string]interface{}{
			"type":        "integer",
			"description": "Center Y coordinate in pixels",
		},
		"r": map[string]interface{}{
			"type":        "integer",
			"description": "Radius in pixels",
		},
	},
	"required": []string{"x", "y", "r"},
}

// recordSchema describes one frame step record argument.
var recordSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"temperature": map[string]interface{}{
			"type":        "number",
			"description": "Stage temperature of the step",
		},
		"frozen": map[string]interface{}{
			"type":        "integer",
			"description": "Droplets that froze in the step",
		},
		"radii": map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "integer"},
			"description": "Pixel radii of the droplets that froze",
		},
	},
	"required": []string{"temperature", "frozen"},
}

// aggregationProperties are the optional overrides shared by the
// aggregation tools.
func aggregationProperties() map[string]interface{} {
	return map[string]interface{}{
		"volume_policy": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"mean", "individually"},
			"description": "Droplet volume used in Nm. Default mean",
			"default":     "mean",
		},
		"d": map[string]interface{}{
			"type":        "number",
			"description": "Dilution factor. Default 1",
			"default":     1.0,
		},
		"a": map[string]interface{}{
			"type":        "number",
			"description": "Suspension correction a. Default 1",
			"default":     1.0,
		},
		"b": map[string]interface{}{
			"type":        "number",
			"description": "Suspension correction b. Default 1",
			"default":     1.0,
		},
		"sig_figs": map[string]interface{}{
			"type":        "integer",
			"description": "Significant figures of frozen fraction and Nm. Default 4",
			"default":     4,
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	aggregate := aggregationProperties()
	aggregate["records"] = map[string]interface{}{
		"type":        "array",
		"items":       recordSchema,
		"description": "Step records of one or more experiments",
	}

	folder := aggregationProperties()
	folder["dir"] = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to a folder holding droplets_*.csv files",
	}
	folder["write"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Also write overall_evaluation_<folder>.csv and Nm_<folder>.png into the folder. Default false",
		"default":     false,
	}

	return []Tool{
		{
			Name:        "droplets_detect",
			Description: "Detect droplets on a reference frame and return their circles. Droplets inside the label zone are excluded.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "freeze_classify",
			Description: "Compare two consecutive frames and report which of the given liquid droplets froze between them.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"previous": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the earlier frame",
					},
					"current": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the later frame",
					},
					"droplets": map[string]interface{}{
						"type":        "array",
						"items":       circleSchema,
						"description": "Liquid droplets to test",
					},
					"temperature": map[string]interface{}{
						"type":        "number",
						"description": "Temperature of the later frame",
					},
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "Normalized difference a droplet must exceed to count as frozen. Default 50",
						"default":     50.0,
					},
				},
				"required": []string{"previous", "current", "droplets"},
			},
		},
		{
			Name:        "nm_aggregate",
			Description: "Turn step records into cumulative frozen counts, frozen fraction and ice nucleation site density Nm.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": aggregate,
				"required":   []string{"records"},
			},
		},
		{
			Name:        "sig_round",
			Description: "Round numbers to a number of significant figures.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"values": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "number"},
						"description": "Values to round",
					},
					"sig_figs": map[string]interface{}{
						"type":        "integer",
						"description": "Significant figures. Default 4",
						"default":     4,
					},
				},
				"required": []string{"values"},
			},
		},
		{
			Name:        "folder_evaluate",
			Description: "Read every droplets_*.csv of a folder and evaluate them as one pooled experiment.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": folder,
				"required":   []string{"dir"},
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
