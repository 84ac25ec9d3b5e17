// Package protocol defines the JSON wire format spoken between duel clients
// and the relay server.
//
// Every frame is a single JSON object carrying a string "type" tag plus
// type-specific fields:
//   - Inbound:  {"type": "hit", "targetId": "...", "damage": 25, "isHeadshot": false}
//   - Outbound: {"type": "playerHit", "playerId": "...", "health": 75, "isHeadshot": false}
//
// Decoding:
//
// Decode parses one inbound frame into a typed Message and checks that the
// fields each type requires are present. Frames that fail to parse, carry an
// unknown type, or miss a required field are reported as ErrMalformed; the
// relay logs and drops them without answering the sender.
//
// Encoding:
//
// Outbound events are plain structs with their type tag already filled in by
// the New* constructors. Frame is the union of every outbound field and is
// what clients (and tests) decode server frames into.
package protocol
