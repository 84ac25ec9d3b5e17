// Package service provides the business logic layer for the duel relay.
//
// The service package implements:
//   - Routing of decoded client frames to room operations (Dispatcher)
//   - The connection side table mapping a transport connection to its room
//     and player
//   - Read-only inspection of live rooms for the REST and MCP surfaces
//     (ArenaService)
//
// Core Interfaces:
//
// RoomRegistry abstracts the room store (see package registry).
// ArenaService exposes room listings, rules and server statistics.
//
// Architecture:
//
// The transport hands every inbound frame to Dispatcher.HandleMessage on the
// connection's read goroutine, so frames of one connection are handled in
// order. Errors that the client must see are unicast as error events; stale
// or malformed frames are logged and dropped.
//
// Usage:
//
//	rooms := registry.New(hub, rules)
//	dispatcher := service.NewDispatcher(rooms, hub)
//	hub.SetHandler(dispatcher)
//
//	arena := service.NewArenaService(rooms, hub)
//	infos, err := arena.ListRooms(ctx)
package service
