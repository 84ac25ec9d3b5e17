package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Inbound message type tags
const (
	TypeCreateRoom     = "createRoom"
	TypeJoinRoom       = "joinRoom"
	TypeReady          = "ready"
	TypeUpdatePosition = "updatePosition"
	TypeShoot          = "shoot"
	TypeHit            = "hit"
	TypeRespawn        = "respawn"
	TypeStartGame      = "startGame"
)

var (
	ErrMalformed     = errors.New("malformed message")
	ErrUnknownType   = fmt.Errorf("%w: unknown type", ErrMalformed)
	ErrMissingField  = fmt.Errorf("%w: missing required field", ErrMalformed)
	ErrInvalidField  = fmt.Errorf("%w: invalid field", ErrMalformed)
	ErrEmptyEnvelope = fmt.Errorf("%w: missing type", ErrMalformed)
)

// Team is one side of a duel.
type Team string

const (
	TeamRed  Team = "red"
	TeamBlue Team = "blue"
)

// Valid reports whether t names a real team.
func (t Team) Valid() bool {
	return t == TeamRed || t == TeamBlue
}

// Opponent returns the other team.
func (t Team) Opponent() Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

// Vec3 is a point or direction in arena space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Rotation is a camera orientation (pitch, yaw).
type Rotation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Message is a decoded inbound frame.
type Message interface {
	MessageType() string
}

// CreateRoom asks the server to open a new room with the sender as host.
type CreateRoom struct {
	PlayerName string `json:"playerName"`
	Team       Team   `json:"team,omitempty"`
}

// JoinRoom asks to enter an existing room by code.
type JoinRoom struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
	Team       Team   `json:"team,omitempty"`
}

// Ready flags the sender as ready. Advisory only.
type Ready struct{}

// UpdatePosition reports the sender's current transform.
type UpdatePosition struct {
	Position *Vec3     `json:"position"`
	Rotation *Rotation `json:"rotation"`
}

// Shoot reports a fired shot for the opponent to simulate.
type Shoot struct {
	Position  *Vec3 `json:"position"`
	Direction *Vec3 `json:"direction"`
}

// Hit reports that the sender's shot struck TargetID.
type Hit struct {
	TargetID   string   `json:"targetId"`
	Damage     *float64 `json:"damage"`
	IsHeadshot bool     `json:"isHeadshot"`
}

// Respawn asks for a fresh spawn point.
type Respawn struct{}

// StartGame asks the host's room to enter the match.
type StartGame struct{}

func (CreateRoom) MessageType() string     { return TypeCreateRoom }
func (JoinRoom) MessageType() string       { return TypeJoinRoom }
func (Ready) MessageType() string          { return TypeReady }
func (UpdatePosition) MessageType() string { return TypeUpdatePosition }
func (Shoot) MessageType() string          { return TypeShoot }
func (Hit) MessageType() string            { return TypeHit }
func (Respawn) MessageType() string        { return TypeRespawn }
func (StartGame) MessageType() string      { return TypeStartGame }

// RequestedTeam returns the team asked for, or "" when none (or an unknown
// value) was sent.
func (m CreateRoom) RequestedTeam() Team { return normalizeTeam(m.Team) }

// RequestedTeam returns the team asked for, or "" when none was sent.
func (m JoinRoom) RequestedTeam() Team { return normalizeTeam(m.Team) }

// maxDamage caps absurd reports so the int conversion stays in range.
const maxDamage = 1 << 20

// DamageAmount returns the reported damage rounded to whole health points.
func (m Hit) DamageAmount() int {
	if m.Damage == nil {
		return 0
	}
	d := math.Round(*m.Damage)
	if d > maxDamage {
		return maxDamage
	}
	return int(d)
}

func normalizeTeam(t Team) Team {
	if t.Valid() {
		return t
	}
	return ""
}

type envelope struct {
	Type string `json:"type"`
}

// Decode parses a single inbound frame.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var msg Message
	switch env.Type {
	case "":
		return nil, ErrEmptyEnvelope
	case TypeCreateRoom:
		var m CreateRoom
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		msg = m
	case TypeJoinRoom:
		var m JoinRoom
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if m.RoomID == "" {
			return nil, fmt.Errorf("%w: roomId", ErrMissingField)
		}
		msg = m
	case TypeReady:
		msg = Ready{}
	case TypeUpdatePosition:
		var m UpdatePosition
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if m.Position == nil {
			return nil, fmt.Errorf("%w: position", ErrMissingField)
		}
		if m.Rotation == nil {
			return nil, fmt.Errorf("%w: rotation", ErrMissingField)
		}
		msg = m
	case TypeShoot:
		var m Shoot
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if m.Position == nil {
			return nil, fmt.Errorf("%w: position", ErrMissingField)
		}
		if m.Direction == nil {
			return nil, fmt.Errorf("%w: direction", ErrMissingField)
		}
		msg = m
	case TypeHit:
		var m Hit
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if m.TargetID == "" {
			return nil, fmt.Errorf("%w: targetId", ErrMissingField)
		}
		if m.Damage == nil {
			return nil, fmt.Errorf("%w: damage", ErrMissingField)
		}
		if *m.Damage < 0 || math.IsNaN(*m.Damage) {
			return nil, fmt.Errorf("%w: damage %v", ErrInvalidField, *m.Damage)
		}
		msg = m
	case TypeRespawn:
		msg = Respawn{}
	case TypeStartGame:
		msg = StartGame{}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownType, env.Type)
	}

	return msg, nil
}

// EncodeMessage serializes an inbound message with its type tag, as a client
// would send it.
func EncodeMessage(m Message) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	tag, err := json.Marshal(m.MessageType())
	if err != nil {
		return nil, err
	}
	fields["type"] = tag
	return json.Marshal(fields)
}
