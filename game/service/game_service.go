package service

import (
	"context"

	"github.com/wricardo/fps-arena-relay/game/room"
)

// ArenaService defines the read-only operations behind the inspection APIs
type ArenaService interface {
	ListRooms(ctx context.Context) ([]room.Info, error)
	GetRoom(ctx context.Context, roomID string) (*room.Info, error)
	Rules(ctx context.Context) room.Rules
	Stats(ctx context.Context) Stats
}

// RoomRegistry defines room storage operations
type RoomRegistry interface {
	CreateWith(seat func(*room.Room) error) (*room.Room, error)
	Get(id string) (*room.Room, error)
	Remove(id string)
	List() []*room.Room
	Count() int
	Rules() room.Rules
}

// ConnectionCounter reports open transport connections.
type ConnectionCounter interface {
	ConnectionCount() int
}
