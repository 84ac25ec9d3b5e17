// Package room implements the state machine for one two-player duel.
//
// A Room owns its membership, team and host assignment, per-player transient
// state (position, rotation, health, life state, ready flag) and the
// delivery of events to its occupants. Every exported method takes the
// room's lock, so all mutations of one room are serialized while different
// rooms never contend with each other.
//
// Lifecycle:
//
//	empty -> filling -> ready -> in_progress
//	            ^  |      |          |
//	            |  +------+          |
//	            +-> closed <---------+
//
// A room closes the moment its last player leaves; a closed room rejects
// every operation with ErrRoomClosed. in_progress is never left except by
// closing.
//
// Delivery:
//
// Events are serialized once and handed to a Sender keyed by connection id.
// Failure to deliver (the peer is already gone) is logged and skipped; the
// transport's disconnect path removes the player separately.
package room
