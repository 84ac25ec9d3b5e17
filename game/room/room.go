package room

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wricardo/fps-arena-relay/game/protocol"
)

var (
	ErrRoomFull         = errors.New("room is full")
	ErrRoomClosed       = errors.New("room is closed")
	ErrRoomNotOpen      = errors.New("room has no host yet")
	ErrPlayerNotFound   = errors.New("player not found in room")
	ErrNotHost          = errors.New("only the host can start the game")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrAlreadyStarted   = errors.New("game already started")
	ErrGameNotStarted   = errors.New("game not started")
)

// Sender delivers a serialized event to one transport connection.
type Sender interface {
	Send(connID string, data []byte) error
}

// Room is one duel session.
type Room struct {
	id        string
	sender    Sender
	rules     Rules
	createdAt time.Time

	// pick returns a uniform index in [0, n); swapped in tests.
	pick func(n int) int

	mu      sync.Mutex
	state   State
	players map[string]*Player
	order   []string // player ids in join order
}

// New creates an empty room.
func New(id string, sender Sender, rules Rules) *Room {
	return &Room{
		id:        id,
		sender:    sender,
		rules:     rules,
		createdAt: time.Now(),
		pick:      rand.IntN,
		state:     StateEmpty,
		players:   make(map[string]*Player),
	}
}

// ID returns the room code.
func (r *Room) ID() string { return r.id }

// Rules returns the arena rules the room plays by.
func (r *Room) Rules() Rules { return r.rules }

// State returns the current lifecycle phase.
func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// GameStarted reports whether the match has been started.
func (r *Room) GameStarted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == StateInProgress
}

// PlayerCount returns the number of occupants.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Player returns a copy of one occupant.
func (r *Room) Player(id string) (Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// Players returns copies of all occupants in join order.
func (r *Room) Players() []Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]Player, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, *r.players[id])
	}
	return result
}

// OtherPlayer returns the sole occupant that is not playerID.
func (r *Room) OtherPlayer(playerID string) (Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.otherLocked(playerID); p != nil {
		return *p, true
	}
	return Player{}, false
}

// CanStart reports whether the room is at capacity.
func (r *Room) CanStart() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players) == MaxPlayers
}

// AddPlayer admits a new player bound to connID. The first player of the room
// becomes host. An unspecified or already-taken team yields the free one.
func (r *Room) AddPlayer(connID, name string, team protocol.Team) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.addLocked(connID, name, team)
	if err != nil {
		return nil, err
	}
	cp := *p
	return &cp, nil
}

// Enter admits a player and performs the join handshake atomically: the
// requester receives ack (roomCreated or roomJoined); on a join the requester
// also learns about every existing occupant and the whole room hears about
// the newcomer. Joining a room whose creator is not seated yet fails with
// ErrRoomNotOpen.
func (r *Room) Enter(connID, name string, team protocol.Team, ack string) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ack != protocol.TypeRoomCreated && r.state == StateEmpty {
		return nil, ErrRoomNotOpen
	}

	p, err := r.addLocked(connID, name, team)
	if err != nil {
		return nil, err
	}

	if ack == protocol.TypeRoomCreated {
		r.sendLocked(p, protocol.NewRoomCreated(r.id, p.ID, p.Team))
	} else {
		r.sendLocked(p, protocol.NewRoomJoined(r.id, p.ID, p.Team))
		for _, id := range r.order {
			if id != p.ID {
				r.sendLocked(p, protocol.NewPlayerJoined(r.players[id].summary()))
			}
		}
		r.broadcastLocked(protocol.NewPlayerJoined(p.summary()), "")
	}

	cp := *p
	return &cp, nil
}

func (r *Room) addLocked(connID, name string, team protocol.Team) (*Player, error) {
	if r.state == StateClosed {
		return nil, ErrRoomClosed
	}
	if len(r.players) >= MaxPlayers {
		return nil, ErrRoomFull
	}

	p := &Player{
		ID:       uuid.NewString(),
		Name:     name,
		Team:     r.assignTeamLocked(team),
		RoomID:   r.id,
		Position: r.rules.JoinPosition,
		Health:   r.rules.MaxHealth,
		Life:     Alive,
		IsHost:   len(r.players) == 0,
		connID:   connID,
	}
	r.players[p.ID] = p
	r.order = append(r.order, p.ID)

	switch r.state {
	case StateEmpty:
		r.state = StateFilling
	case StateFilling:
		if len(r.players) == MaxPlayers {
			r.state = StateReady
		}
	}

	log.Info().
		Str("room", r.id).
		Str("player", p.ID).
		Str("name", name).
		Str("team", string(p.Team)).
		Bool("host", p.IsHost).
		Msg("Player joined room")

	return p, nil
}

// assignTeamLocked honours a free requested team, otherwise alternates
// red/blue by occupancy and falls back to whichever team is still free.
func (r *Room) assignTeamLocked(requested protocol.Team) protocol.Team {
	taken := make(map[protocol.Team]bool, len(r.players))
	for _, p := range r.players {
		taken[p.Team] = true
	}
	if requested.Valid() && !taken[requested] {
		return requested
	}

	preferred := protocol.TeamRed
	if len(r.players)%2 == 1 {
		preferred = protocol.TeamBlue
	}
	if !taken[preferred] {
		return preferred
	}
	return preferred.Opponent()
}

// RemovePlayer deletes an occupant and tells the rest. If the host leaves the
// remaining player inherits host. It reports whether the room is now closed,
// in which case the caller must drop it from the registry.
func (r *Room) RemovePlayer(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return r.state == StateClosed
	}

	delete(r.players, playerID)
	for i, id := range r.order {
		if id == playerID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if p.IsHost && len(r.order) > 0 {
		heir := r.players[r.order[0]]
		heir.IsHost = true
		log.Info().Str("room", r.id).Str("from", p.ID).Str("to", heir.ID).Msg("Host transferred")
	}

	switch {
	case len(r.players) == 0:
		r.state = StateClosed
	case r.state == StateReady:
		r.state = StateFilling
	}

	log.Info().
		Str("room", r.id).
		Str("player", playerID).
		Int("remaining", len(r.players)).
		Msg("Player left room")

	r.broadcastLocked(protocol.NewPlayerLeft(playerID), "")
	return r.state == StateClosed
}

// StartGame moves the room into the match. Only the host may call it, only
// once, and only with both players present.
func (r *Room) StartGame(requesterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateClosed {
		return ErrRoomClosed
	}
	requester, ok := r.players[requesterID]
	if !ok {
		return ErrPlayerNotFound
	}
	if !requester.IsHost {
		return ErrNotHost
	}
	if r.state == StateInProgress {
		return ErrAlreadyStarted
	}
	if len(r.players) != MaxPlayers {
		return ErrNotEnoughPlayers
	}

	assignments := make([]protocol.SpawnAssignment, 0, len(r.order))
	for i, id := range r.order {
		p := r.players[id]
		p.Position = r.rules.StartSpawns[i%len(r.rules.StartSpawns)]
		p.Health = r.rules.MaxHealth
		p.Life = Alive
		assignments = append(assignments, protocol.SpawnAssignment{
			ID:       p.ID,
			Name:     p.Name,
			Position: p.Position,
		})
	}
	r.state = StateInProgress

	log.Info().Str("room", r.id).Msg("Game started")
	r.broadcastLocked(protocol.NewGameStart(assignments), "")
	return nil
}

// Close marks the room closed without notifying anyone. Used at shutdown.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateClosed
}

// Broadcast sends event to every occupant except excludeID (if non-empty).
func (r *Room) Broadcast(event any, excludeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(event, excludeID)
}

// SendTo sends event to one occupant. Unknown players are ignored.
func (r *Room) SendTo(playerID string, event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[playerID]; ok {
		r.sendLocked(p, event)
	}
}

// Snapshot returns an inspection view of the room.
func (r *Room) Snapshot() Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := Info{
		ID:          r.id,
		State:       r.state,
		GameStarted: r.state == StateInProgress,
		MaxPlayers:  MaxPlayers,
		CreatedAt:   r.createdAt,
		Players:     make([]PlayerInfo, 0, len(r.order)),
	}
	for _, id := range r.order {
		p := r.players[id]
		info.Players = append(info.Players, PlayerInfo{
			ID:       p.ID,
			Name:     p.Name,
			Team:     p.Team,
			Position: p.Position,
			Rotation: p.Rotation,
			Health:   p.Health,
			Dead:     p.IsDead(),
			Ready:    p.Ready,
			IsHost:   p.IsHost,
		})
	}
	return info
}

func (r *Room) otherLocked(playerID string) *Player {
	for _, id := range r.order {
		if id != playerID {
			return r.players[id]
		}
	}
	return nil
}

func (r *Room) broadcastLocked(event any, excludeID string) {
	data, err := protocol.Encode(event)
	if err != nil {
		log.Error().Err(err).Str("room", r.id).Msg("Failed to encode broadcast event")
		return
	}
	for _, id := range r.order {
		if id == excludeID {
			continue
		}
		r.deliverLocked(r.players[id], data)
	}
}

func (r *Room) sendLocked(p *Player, event any) {
	data, err := protocol.Encode(event)
	if err != nil {
		log.Error().Err(err).Str("room", r.id).Msg("Failed to encode event")
		return
	}
	r.deliverLocked(p, data)
}

func (r *Room) deliverLocked(p *Player, data []byte) {
	if r.sender == nil {
		return
	}
	if err := r.sender.Send(p.connID, data); err != nil {
		log.Debug().
			Err(err).
			Str("room", r.id).
			Str("player", p.ID).
			Str("conn", p.connID).
			Msg("Skipping delivery to closed connection")
	}
}
