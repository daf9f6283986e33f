// Package server exposes the commentary pipeline as an MCP (Model Context
// Protocol) server speaking JSON-RPC 2.0 over stdio.
//
// # Protocol
//
// Requests arrive on stdin, one JSON object per line; responses are
// written to stdout, one per line. Logs go to stderr so they never mix
// with protocol traffic.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Tools
//
// Sessions:
//   - commentary_session_start: Open a session and return its id
//   - commentary_session_end: Close a session and return its final stats
//   - commentary_session_pause: Keep a session but stop commenting
//   - commentary_session_resume: Continue a paused session
//   - commentary_session_stats: Counters of one or all sessions
//
// Processing:
//   - commentary_process_regions: Run one cycle over already-read regions
//   - commentary_process_frame: Detect, read and process one frame
//
// Each session keeps its own entity state and caster alternation, so
// several callers can drive independent sessions through one server.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with
// code -32000 and the Go error string as data. A cycle that produces no
// commentary is not an error; it returns an empty line list.
package server
