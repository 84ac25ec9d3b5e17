// Package websocket provides the WebSocket transport for the duel relay.
//
// The package implements:
//   - Connection accept and identity assignment (one UUID per socket)
//   - Per-connection read and write goroutines with keepalive pings
//   - Non-blocking delivery of server frames by connection id
//   - Disconnect detection handed to the game layer
//
// Architecture:
//
// The Hub owns every live Client. Each Client has a read goroutine that hands
// inbound frames to the Handler one at a time, and a write goroutine that
// drains a buffered channel. The Hub never interprets frames; it only knows
// connection ids.
//
// Delivery:
//
// Send enqueues without blocking. A client whose buffer is full is treated as
// dead: its channel is closed, the socket goes down and the read goroutine
// reports the disconnect.
//
// Usage:
//
//	hub := websocket.NewHub()
//	hub.SetHandler(dispatcher)
//	router.HandleFunc("/ws", hub.ServeWS)
//
//	// on shutdown
//	hub.Close()
package websocket
