// Package api provides the HTTP surface of the duel relay.
//
// The api package implements:
//   - Read-only room inspection for operators and tooling
//   - Arena rule and arena file listing
//   - A health endpoint with live counters
//   - Mounting of the WebSocket upgrade and optional extra handlers (MCP)
//
// Endpoints:
//   - GET /api/health - status, version, room/player/connection counters
//   - GET /api/rooms - {count, rooms:[...]} ordered by room code
//   - GET /api/rooms/{id} - one room snapshot, 404 when unknown
//   - GET /api/rules - arena rules new rooms are created with
//   - GET /api/configs - arena files found in the config directory
//   - GET /ws - WebSocket upgrade for game clients
//
// Error Handling:
//
// Errors are returned as JSON with an appropriate HTTP status code:
//
//	{"error": "room 4821: room not found"}
//
// Usage:
//
//	srv := api.NewServer(arena, http.HandlerFunc(hub.ServeWS),
//		api.WithConfigs(configs), api.WithVersion(version))
//	http.ListenAndServe(":3000", srv)
package api
