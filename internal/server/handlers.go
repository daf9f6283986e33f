package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/arnab-maity007/Advanced-Valo/internal/event"
	"github.com/arnab-maity007/Advanced-Valo/internal/imaging"
	"github.com/arnab-maity007/Advanced-Valo/internal/pipeline"
	"github.com/arnab-maity007/Advanced-Valo/internal/region"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "commentary_process_regions").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
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
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Sessions
	case "commentary_session_start":
		return s.handleSessionStart()
	case "commentary_session_end":
		return s.handleSessionEnd(ctx, args)
	case "commentary_session_pause":
		return s.handleSessionPause(args, true)
	case "commentary_session_resume":
		return s.handleSessionPause(args, false)
	case "commentary_session_stats":
		return s.handleSessionStats(args)

	// Processing
	case "commentary_process_regions":
		return s.handleProcessRegions(ctx, args)
	case "commentary_process_frame":
		return s.handleProcessFrame(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
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
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments; absent arguments decode as {}.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	return json.Unmarshal(args, v)
}

// === Session Handlers ===

type sessionStartResult struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleSessionStart() (interface{}, error) {
	sess := s.pipeline.NewSession()
	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()
	return sessionStartResult{SessionID: sess.ID()}, nil
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleSessionEnd(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	s.mu.Lock()
	sess, ok := s.sessions[a.SessionID]
	delete(s.sessions, a.SessionID)
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown session: %q", a.SessionID)
	}

	if err := sess.Close(ctx); err != nil {
		return nil, fmt.Errorf("failed to close session: %w", err)
	}
	return sess.Stats(), nil
}

func (s *Server) handleSessionPause(args json.RawMessage, pause bool) (interface{}, error) {
	var a sessionArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	sess, err := s.session(a.SessionID)
	if err != nil {
		return nil, err
	}
	if pause {
		err = sess.Pause()
	} else {
		err = sess.Resume()
	}
	if err != nil {
		return nil, err
	}
	return sess.Stats(), nil
}

type sessionStatsResult struct {
	Sessions []pipeline.Stats `json:"sessions"`
}

func (s *Server) handleSessionStats(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.SessionID != "" {
		sess, err := s.session(a.SessionID)
		if err != nil {
			return nil, err
		}
		return sess.Stats(), nil
	}

	out := sessionStatsResult{Sessions: []pipeline.Stats{}}
	for _, id := range s.sessionIDs() {
		if sess, err := s.session(id); err == nil {
			out.Sessions = append(out.Sessions, sess.Stats())
		}
	}
	return out, nil
}

// === Processing Handlers ===

type linesResult struct {
	SessionID string                 `json:"session_id"`
	Lines     []event.CommentaryLine `json:"lines"`
}

type processRegionsArgs struct {
	SessionID string                  `json:"session_id"`
	Timestamp *time.Time              `json:"timestamp"`
	Regions   []region.DetectedRegion `json:"regions"`
}

func (s *Server) handleProcessRegions(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a processRegionsArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	sess, err := s.session(a.SessionID)
	if err != nil {
		return nil, err
	}

	batch := pipeline.Batch{Regions: a.Regions}
	if a.Timestamp != nil {
		batch.Timestamp = *a.Timestamp
	}
	lines, err := sess.Process(ctx, batch)
	if err != nil {
		return nil, err
	}
	return newLinesResult(sess.ID(), lines), nil
}

type processFrameArgs struct {
	SessionID   string             `json:"session_id"`
	Path        string             `json:"path"`
	ImageBase64 string             `json:"image_base64"`
	Timestamp   *time.Time         `json:"timestamp"`
	Detections  []region.Detection `json:"detections"`
}

func (s *Server) handleProcessFrame(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a processFrameArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	sess, err := s.session(a.SessionID)
	if err != nil {
		return nil, err
	}

	img, source, err := loadFrame(a.Path, a.ImageBase64)
	if err != nil {
		return nil, err
	}
	frame := pipeline.Frame{Image: img, Source: source}
	if a.Timestamp != nil {
		frame.Timestamp = *a.Timestamp
	}

	lines, err := sess.ProcessFrame(ctx, frame, a.Detections)
	if err != nil {
		return nil, err
	}
	return newLinesResult(sess.ID(), lines), nil
}

func loadFrame(path, b64 string) (image.Image, string, error) {
	switch {
	case path != "" && b64 != "":
		return nil, "", errors.New("provide either path or image_base64, not both")
	case path != "":
		img, err := imaging.LoadFrame(path)
		return img, path, err
	case b64 != "":
		img, err := imaging.DecodeBase64Frame(b64)
		return img, "base64", err
	default:
		return nil, "", errors.New("path or image_base64 is required")
	}
}

func newLinesResult(id string, lines []event.CommentaryLine) linesResult {
	if lines == nil {
		lines = []event.CommentaryLine{}
	}
	return linesResult{SessionID: id, Lines: lines}
}
