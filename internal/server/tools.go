package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var sessionIDProperty = map[string]interface{}{
	"type":        "string",
	"description": "Session id returned by commentary_session_start",
}

var boxSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"x": map[string]interface{}{"type": "integer"},
		"y": map[string]interface{}{"type": "integer"},
		"w": map[string]interface{}{"type": "integer"},
		"h": map[string]interface{}{"type": "integer"},
	},
	"required": []string{"x", "y", "w", "h"},
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Sessions
		{
			Name:        "commentary_session_start",
			Description: "Start a commentary session with empty entity state. The first line of a session is voiced by the hype caster.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "commentary_session_end",
			Description: "End a session: clears its entity state, writes its session log and returns its final counters.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty,
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "commentary_session_pause",
			Description: "Pause a session. Its entity state is kept, but cycles processed while paused emit nothing and record nothing.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty,
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "commentary_session_resume",
			Description: "Resume a paused session from the state it was paused with.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty,
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "commentary_session_stats",
			Description: "Get the counters of a session, or of every open session when session_id is omitted.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty,
				},
			},
		},

		// Processing
		{
			Name:        "commentary_process_regions",
			Description: "Run one poll cycle over regions whose text has already been read. Returns the commentary lines emitted, in delivery order. Unrecognized text and unchanged entities produce no lines.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty,
					"timestamp": map[string]interface{}{
						"type":        "string",
						"format":      "date-time",
						"description": "Capture time of the regions (RFC 3339). Default now",
					},
					"regions": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"label": map[string]interface{}{
									"type":        "string",
									"description": "Region label, e.g. buy-slot-3, kill-feed-line, agent-card-2, score-display, round-timer, spike-status",
								},
								"raw_text": map[string]interface{}{
									"type":        "string",
									"description": "OCR text of the region",
								},
								"confidence": map[string]interface{}{
									"type":        "number",
									"description": "OCR confidence 0.0-1.0",
								},
								"cues": map[string]interface{}{
									"type":        "array",
									"items":       map[string]interface{}{"type": "string", "enum": []string{"highlighted", "hovered"}},
									"description": "Visual cues of the region",
								},
								"box": boxSchema,
							},
							"required": []string{"label", "raw_text", "confidence"},
						},
					},
				},
				"required": []string{"session_id", "regions"},
			},
		},
		{
			Name:        "commentary_process_frame",
			Description: "Run one poll cycle over a captured frame: detect HUD regions (or use the given detections), crop and read them, then classify and comment. Provide either path or image_base64.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty,
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the frame image",
					},
					"image_base64": map[string]interface{}{
						"type":        "string",
						"description": "Frame image as base64 PNG or JPEG",
					},
					"timestamp": map[string]interface{}{
						"type":        "string",
						"format":      "date-time",
						"description": "Capture time of the frame (RFC 3339). Default now",
					},
					"detections": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"label":      map[string]interface{}{"type": "string"},
								"box":        boxSchema,
								"confidence": map[string]interface{}{"type": "number"},
							},
							"required": []string{"label", "box"},
						},
						"description": "Regions to read instead of running the configured detector",
					},
				},
				"required": []string{"session_id"},
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
