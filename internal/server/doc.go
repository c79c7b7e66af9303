// Package server implements the MCP (Model Context Protocol) server for the
// droplet freezing analysis.
//
// The server exposes the analysis steps as tools so an MCP client can
// inspect a single frame pair or re-evaluate recorded experiments without
// running a whole sequence.
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
//   - droplets_detect: Hough circle detection on a reference frame
//   - freeze_classify: one classifier step between two frames
//   - nm_aggregate: cumulative counts, frozen fraction and Nm from records
//   - sig_round: significant-figure rounding
//   - folder_evaluate: pooled evaluation of a folder's record files
//
// Frames are decoded through a two-frame window, so consecutive
// freeze_classify calls along a sequence decode each frame once.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with
// code -32000 and the Go error string as data. Logs go to the logger
// given in Options, never to stdout.
package server
