package service

import (
	"context"
	"fmt"

	"github.com/wricardo/fps-arena-relay/game/room"
)

// arenaServiceImpl implements the ArenaService interface
type arenaServiceImpl struct {
	rooms RoomRegistry
	conns ConnectionCounter
}

// NewArenaService creates the inspection service. conns may be nil.
func NewArenaService(rooms RoomRegistry, conns ConnectionCounter) ArenaService {
	return &arenaServiceImpl{
		rooms: rooms,
		conns: conns,
	}
}

// ListRooms returns a snapshot of every live room ordered by code
func (s *arenaServiceImpl) ListRooms(ctx context.Context) ([]room.Info, error) {
	rooms := s.rooms.List()
	result := make([]room.Info, 0, len(rooms))
	for _, r := range rooms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result = append(result, r.Snapshot())
	}
	return result, nil
}

// GetRoom returns a snapshot of one room
func (s *arenaServiceImpl) GetRoom(ctx context.Context, roomID string) (*room.Info, error) {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return nil, fmt.Errorf("room %s: %w", roomID, err)
	}
	info := r.Snapshot()
	return &info, nil
}

// Rules returns the arena rules new rooms play by
func (s *arenaServiceImpl) Rules(ctx context.Context) room.Rules {
	return s.rooms.Rules()
}

// Stats summarizes rooms, seated players and open connections
func (s *arenaServiceImpl) Stats(ctx context.Context) Stats {
	var stats Stats
	for _, r := range s.rooms.List() {
		stats.Rooms++
		stats.Players += r.PlayerCount()
		if r.GameStarted() {
			stats.InProgress++
		}
	}
	if s.conns != nil {
		stats.Connections = s.conns.ConnectionCount()
	}
	return stats
}
