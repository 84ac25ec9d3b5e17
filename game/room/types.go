package room

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wricardo/fps-arena-relay/game/protocol"
)

// MaxPlayers is the capacity of every room.
const MaxPlayers = 2

// State is the lifecycle phase of a room.
type State int

const (
	StateEmpty State = iota
	StateFilling
	StateReady
	StateInProgress
	StateClosed
)

var stateNames = map[State]string{
	StateEmpty:      "empty",
	StateFilling:    "filling",
	StateReady:      "ready",
	StateInProgress: "in_progress",
	StateClosed:     "closed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalJSON renders the state by name.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a state name.
func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for state, n := range stateNames {
		if n == name {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown room state %q", name)
}

// LifeState tracks whether a player can take damage.
type LifeState int

const (
	Alive LifeState = iota
	Dead
)

func (l LifeState) String() string {
	if l == Dead {
		return "dead"
	}
	return "alive"
}

// Player is one match participant. Values handed out by Room are copies.
type Player struct {
	ID       string
	Name     string
	Team     protocol.Team
	RoomID   string
	Position protocol.Vec3
	Rotation protocol.Rotation
	Health   int
	Life     LifeState
	Ready    bool
	IsHost   bool

	connID string
}

// ConnID returns the transport connection that owns the player.
func (p Player) ConnID() string { return p.connID }

// IsDead reports whether the player is waiting to respawn.
func (p Player) IsDead() bool { return p.Life == Dead }

func (p Player) summary() protocol.PlayerSummary {
	return protocol.PlayerSummary{ID: p.ID, Name: p.Name, Team: p.Team}
}

// HitOutcome describes what a reported hit did.
type HitOutcome int

const (
	HitIgnored HitOutcome = iota
	HitDamaged
	HitKilled
)

func (h HitOutcome) String() string {
	switch h {
	case HitDamaged:
		return "damaged"
	case HitKilled:
		return "killed"
	default:
		return "ignored"
	}
}

// Info is a read-only snapshot of a room for inspection surfaces.
type Info struct {
	ID          string       `json:"id"`
	State       State        `json:"state"`
	GameStarted bool         `json:"game_started"`
	MaxPlayers  int          `json:"max_players"`
	CreatedAt   time.Time    `json:"created_at"`
	Players     []PlayerInfo `json:"players"`
}

// PlayerInfo is the inspection view of a player.
type PlayerInfo struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Team     protocol.Team     `json:"team"`
	Position protocol.Vec3     `json:"position"`
	Rotation protocol.Rotation `json:"rotation"`
	Health   int               `json:"health"`
	Dead     bool              `json:"dead"`
	Ready    bool              `json:"ready"`
	IsHost   bool              `json:"is_host"`
}
