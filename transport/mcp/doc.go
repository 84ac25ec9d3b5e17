// Package mcp exposes a read-only Model Context Protocol view of the arena.
//
// The Client proxies every tool call to the REST API, so the same binary
// can inspect a local or a remote relay:
//   - server_health: status and live counters
//   - list_rooms: all live rooms
//   - get_room: one room with player health and positions
//   - arena_rules: spawn tables and max health for new rooms
//   - list_configs: arena files on the server
//   - protocol_reference: WebSocket message reference
//
// Two transports are supported. ServeStdio from mcp-go drives the server
// returned by GetMCPServer, and HTTPHandler answers single JSON-RPC
// requests posted to /mcp.
//
// None of the tools can change match state. Playing happens over the
// WebSocket endpoint only.
package mcp
