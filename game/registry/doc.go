// Package registry owns the set of live duel rooms.
//
// Rooms are addressed by a 4-digit numeric code that players read to each
// other, so codes are short and reused once a room empties out.
//
// Core Types:
//
// Manager creates, looks up and removes rooms. Each room carries its own lock
// (see package room); the manager lock only guards the code map, so rooms
// never contend with each other.
//
// Usage:
//
//	rooms := registry.New(hub, room.DefaultRules())
//
//	// the creator is seated before anyone can look the code up
//	r, err := rooms.CreateWith(func(r *room.Room) error {
//		_, err := r.Enter(connID, name, "", protocol.TypeRoomCreated)
//		return err
//	})
//	if err != nil {
//		return err
//	}
//
//	r, err = rooms.Get("4821")
//	if errors.Is(err, registry.ErrRoomNotFound) {
//		// tell the client
//	}
//
//	// when the last player leaves
//	rooms.Remove(r.ID())
package registry
