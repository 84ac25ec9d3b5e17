package service

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/wricardo/fps-arena-relay/game/protocol"
	"github.com/wricardo/fps-arena-relay/game/room"
)

// Dispatcher routes decoded client frames to room operations and keeps the
// connection side table. It implements the transport's message handler.
type Dispatcher struct {
	rooms  RoomRegistry
	sender room.Sender

	mu       sync.Mutex
	bindings map[string]binding
}

// NewDispatcher creates a dispatcher over rooms that reports errors to
// clients through sender.
func NewDispatcher(rooms RoomRegistry, sender room.Sender) *Dispatcher {
	return &Dispatcher{
		rooms:    rooms,
		sender:   sender,
		bindings: make(map[string]binding),
	}
}

// HandleMessage decodes one frame from connID and applies it. It must not be
// called concurrently for the same connection.
func (d *Dispatcher) HandleMessage(connID string, data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("conn", connID).Int("bytes", len(data)).Msg("Dropping malformed frame")
		return
	}

	switch m := msg.(type) {
	case protocol.CreateRoom:
		d.createRoom(connID, m)
	case protocol.JoinRoom:
		d.joinRoom(connID, m)
	case protocol.StartGame:
		d.startGame(connID)
	default:
		d.relay(connID, msg)
	}
}

// HandleDisconnect removes the connection's player from its room and drops
// the room once it is empty. Unbound connections are ignored.
func (d *Dispatcher) HandleDisconnect(connID string) {
	d.mu.Lock()
	b, ok := d.bindings[connID]
	delete(d.bindings, connID)
	d.mu.Unlock()
	if !ok {
		return
	}

	r, err := d.rooms.Get(b.roomID)
	if err != nil {
		log.Debug().Str("conn", connID).Str("room", b.roomID).Msg("Disconnect for a room that is already gone")
		return
	}
	if r.RemovePlayer(b.playerID) {
		d.rooms.Remove(b.roomID)
	}
}

// BoundConnections returns how many connections are seated in a room.
func (d *Dispatcher) BoundConnections() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.bindings)
}

func (d *Dispatcher) createRoom(connID string, m protocol.CreateRoom) {
	if _, bound := d.lookup(connID); bound {
		d.sendError(connID, protocol.KindAlreadyInRoom, "Already in a room")
		return
	}

	var p *room.Player
	r, err := d.rooms.CreateWith(func(r *room.Room) error {
		var err error
		p, err = r.Enter(connID, m.PlayerName, m.RequestedTeam(), protocol.TypeRoomCreated)
		return err
	})
	if err != nil {
		log.Error().Err(err).Str("conn", connID).Msg("Failed to create room")
		d.sendError(connID, protocol.KindUnavailable, "No rooms available, try again later")
		return
	}

	d.bind(connID, r.ID(), p.ID)
}

func (d *Dispatcher) joinRoom(connID string, m protocol.JoinRoom) {
	if _, bound := d.lookup(connID); bound {
		d.sendError(connID, protocol.KindAlreadyInRoom, "Already in a room")
		return
	}

	r, err := d.rooms.Get(m.RoomID)
	if err != nil {
		d.sendError(connID, protocol.KindRoomNotFound, "Room not found")
		return
	}

	p, err := r.Enter(connID, m.PlayerName, m.RequestedTeam(), protocol.TypeRoomJoined)
	switch {
	case errors.Is(err, room.ErrRoomFull):
		d.sendError(connID, protocol.KindRoomFull, "Room is full")
		return
	case errors.Is(err, room.ErrRoomClosed), errors.Is(err, room.ErrRoomNotOpen):
		d.sendError(connID, protocol.KindRoomNotFound, "Room not found")
		return
	case err != nil:
		log.Error().Err(err).Str("conn", connID).Str("room", m.RoomID).Msg("Failed to join room")
		return
	}

	d.bind(connID, r.ID(), p.ID)
}

func (d *Dispatcher) startGame(connID string) {
	r, b, ok := d.resolve(connID, protocol.TypeStartGame)
	if !ok {
		return
	}

	err := r.StartGame(b.playerID)
	switch {
	case err == nil:
	case errors.Is(err, room.ErrNotHost):
		d.sendError(connID, protocol.KindUnauthorized, "Only the host can start the game")
	case errors.Is(err, room.ErrNotEnoughPlayers):
		d.sendError(connID, protocol.KindNotEnoughPlayers, "Waiting for an opponent")
	case errors.Is(err, room.ErrAlreadyStarted):
		d.sendError(connID, protocol.KindAlreadyStarted, "Game already started")
	default:
		d.stale(connID, b, protocol.TypeStartGame, err)
	}
}

// relay applies in-match frames. Failures here are never reported to the
// client: they come from stale bindings or frames that raced a state change.
func (d *Dispatcher) relay(connID string, msg protocol.Message) {
	r, b, ok := d.resolve(connID, msg.MessageType())
	if !ok {
		return
	}

	var err error
	switch m := msg.(type) {
	case protocol.Ready:
		err = r.MarkReady(b.playerID)
	case protocol.UpdatePosition:
		err = r.UpdatePosition(b.playerID, *m.Position, *m.Rotation)
	case protocol.Shoot:
		err = r.Shoot(b.playerID, *m.Position, *m.Direction)
	case protocol.Hit:
		_, err = r.Hit(b.playerID, m.TargetID, m.DamageAmount(), m.IsHeadshot)
	case protocol.Respawn:
		_, err = r.Respawn(b.playerID)
	default:
		log.Warn().Str("conn", connID).Str("type", msg.MessageType()).Msg("No route for message")
		return
	}
	if err != nil {
		d.stale(connID, b, msg.MessageType(), err)
	}
}

// resolve maps a connection to its room. Unbound connections and vanished
// rooms are dropped.
func (d *Dispatcher) resolve(connID, msgType string) (*room.Room, binding, bool) {
	b, ok := d.lookup(connID)
	if !ok {
		log.Debug().Str("conn", connID).Str("type", msgType).Msg("Ignoring frame from connection outside any room")
		return nil, binding{}, false
	}
	r, err := d.rooms.Get(b.roomID)
	if err != nil {
		d.stale(connID, b, msgType, err)
		return nil, b, false
	}
	return r, b, true
}

func (d *Dispatcher) stale(connID string, b binding, msgType string, err error) {
	log.Debug().
		Err(err).
		Str("conn", connID).
		Str("room", b.roomID).
		Str("player", b.playerID).
		Str("type", msgType).
		Msg("Dropping stale frame")
}

func (d *Dispatcher) lookup(connID string) (binding, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.bindings[connID]
	return b, ok
}

func (d *Dispatcher) bind(connID, roomID, playerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bindings[connID] = binding{roomID: roomID, playerID: playerID}
}

func (d *Dispatcher) sendError(connID string, kind protocol.ErrorKind, message string) {
	data, err := protocol.Encode(protocol.NewError(kind, message))
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode error event")
		return
	}
	if err := d.sender.Send(connID, data); err != nil {
		log.Debug().Err(err).Str("conn", connID).Str("kind", string(kind)).Msg("Skipping error delivery to closed connection")
	}
}
