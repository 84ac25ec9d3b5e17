package room

import (
	"errors"
	"fmt"
	"slices"

	"github.com/wricardo/fps-arena-relay/game/protocol"
)

// Validation limits for Rules
const (
	MinHealth = 1
	MaxHealth = 1000
)

var ErrInvalidRules = errors.New("invalid rules")

// Rules holds the arena-specific constants of a match: spawn tables and the
// health a player (re)spawns with.
type Rules struct {
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	MaxHealth     int             `json:"max_health"`
	JoinPosition  protocol.Vec3   `json:"join_position"`
	StartSpawns   []protocol.Vec3 `json:"start_spawns"`
	RespawnPoints []protocol.Vec3 `json:"respawn_points"`
}

// DefaultRules returns the stock duel arena: opposite corners at match start,
// any of the four corners on respawn.
func DefaultRules() Rules {
	return Rules{
		Name:         "default",
		Description:  "Square arena with four corner spawns",
		MaxHealth:    100,
		JoinPosition: protocol.Vec3{X: 0, Y: 1.6, Z: 0},
		StartSpawns: []protocol.Vec3{
			{X: -15, Y: 0.1, Z: -15},
			{X: 15, Y: 0.1, Z: 15},
		},
		RespawnPoints: []protocol.Vec3{
			{X: -15, Y: 0.1, Z: -15},
			{X: 15, Y: 0.1, Z: 15},
			{X: -15, Y: 0.1, Z: 15},
			{X: 15, Y: 0.1, Z: -15},
		},
	}
}

// Clone returns a copy that shares no spawn tables with r.
func (r Rules) Clone() Rules {
	r.StartSpawns = slices.Clone(r.StartSpawns)
	r.RespawnPoints = slices.Clone(r.RespawnPoints)
	return r
}

// ValidateRules checks that a rule set can drive a match.
func ValidateRules(r *Rules) error {
	if r == nil {
		return fmt.Errorf("%w: rules cannot be nil", ErrInvalidRules)
	}
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRules)
	}
	if r.MaxHealth < MinHealth || r.MaxHealth > MaxHealth {
		return fmt.Errorf("%w: max_health must be between %d and %d, got %d",
			ErrInvalidRules, MinHealth, MaxHealth, r.MaxHealth)
	}
	if len(r.StartSpawns) < MaxPlayers {
		return fmt.Errorf("%w: need %d start spawns, got %d",
			ErrInvalidRules, MaxPlayers, len(r.StartSpawns))
	}
	if len(r.RespawnPoints) == 0 {
		return fmt.Errorf("%w: at least one respawn point is required", ErrInvalidRules)
	}
	return nil
}
