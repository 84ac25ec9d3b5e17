package protocol

import "encoding/json"

// Outbound event type tags
const (
	TypeRoomCreated   = "roomCreated"
	TypeRoomJoined    = "roomJoined"
	TypePlayerJoined  = "playerJoined"
	TypePlayerReady   = "playerReady"
	TypeGameStart     = "gameStart"
	TypePlayerUpdate  = "playerUpdate"
	TypePlayerShoot   = "playerShoot"
	TypePlayerKilled  = "playerKilled"
	TypeTakeDamage    = "takeDamage"
	TypePlayerHit     = "playerHit"
	TypeRespawnAt     = "respawn"
	TypePlayerRespawn = "playerRespawn"
	TypePlayerLeft    = "playerLeft"
	TypeError         = "error"
)

// ErrorKind is the machine-readable category of an error event.
type ErrorKind string

const (
	KindRoomNotFound     ErrorKind = "roomNotFound"
	KindRoomFull         ErrorKind = "roomFull"
	KindUnauthorized     ErrorKind = "unauthorized"
	KindNotEnoughPlayers ErrorKind = "notEnoughPlayers"
	KindAlreadyStarted   ErrorKind = "alreadyStarted"
	KindAlreadyInRoom    ErrorKind = "alreadyInRoom"
	KindUnavailable      ErrorKind = "unavailable"
)

// RoomAck answers createRoom (roomCreated) and joinRoom (roomJoined).
type RoomAck struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Team     Team   `json:"team"`
}

// PlayerSummary is the public identity of a room occupant.
type PlayerSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Team Team   `json:"team"`
}

// PlayerJoined announces an occupant.
type PlayerJoined struct {
	Type   string        `json:"type"`
	Player PlayerSummary `json:"player"`
}

// PlayerReady announces that a player flagged ready.
type PlayerReady struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

// SpawnAssignment is one player's starting spot in a gameStart event.
type SpawnAssignment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position Vec3   `json:"position"`
}

// GameStart opens the match.
type GameStart struct {
	Type    string            `json:"type"`
	Players []SpawnAssignment `json:"players"`
}

// PlayerUpdate relays the opponent's transform.
type PlayerUpdate struct {
	Type     string   `json:"type"`
	PlayerID string   `json:"playerId"`
	Position Vec3     `json:"position"`
	Rotation Rotation `json:"rotation"`
}

// PlayerShoot relays a shot for local simulation.
type PlayerShoot struct {
	Type      string `json:"type"`
	PlayerID  string `json:"playerId"`
	Position  Vec3   `json:"position"`
	Direction Vec3   `json:"direction"`
}

// PlayerKilled is the kill-feed entry sent to everyone.
type PlayerKilled struct {
	Type       string `json:"type"`
	KillerID   string `json:"killerId"`
	VictimID   string `json:"victimId"`
	IsHeadshot bool   `json:"isHeadshot"`
}

// TakeDamage is the victim-only pain notification.
type TakeDamage struct {
	Type       string `json:"type"`
	Damage     int    `json:"damage"`
	FromID     string `json:"fromId"`
	IsHeadshot bool   `json:"isHeadshot"`
}

// PlayerHit is the hit confirmation sent to everyone but the victim.
type PlayerHit struct {
	Type       string `json:"type"`
	PlayerID   string `json:"playerId"`
	Health     int    `json:"health"`
	IsHeadshot bool   `json:"isHeadshot"`
}

// RespawnAt tells the requester where it respawned.
type RespawnAt struct {
	Type     string `json:"type"`
	Position Vec3   `json:"position"`
}

// PlayerRespawn tells the opponent where to move the remote avatar.
type PlayerRespawn struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	Position Vec3   `json:"position"`
}

// PlayerLeft announces a departure.
type PlayerLeft struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

// ErrorEvent reports a rejected request to its sender.
type ErrorEvent struct {
	Type    string    `json:"type"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func NewRoomCreated(roomID, playerID string, team Team) RoomAck {
	return RoomAck{Type: TypeRoomCreated, RoomID: roomID, PlayerID: playerID, Team: team}
}

func NewRoomJoined(roomID, playerID string, team Team) RoomAck {
	return RoomAck{Type: TypeRoomJoined, RoomID: roomID, PlayerID: playerID, Team: team}
}

func NewPlayerJoined(p PlayerSummary) PlayerJoined {
	return PlayerJoined{Type: TypePlayerJoined, Player: p}
}

func NewPlayerReady(playerID string) PlayerReady {
	return PlayerReady{Type: TypePlayerReady, PlayerID: playerID}
}

func NewGameStart(players []SpawnAssignment) GameStart {
	return GameStart{Type: TypeGameStart, Players: players}
}

func NewPlayerUpdate(playerID string, pos Vec3, rot Rotation) PlayerUpdate {
	return PlayerUpdate{Type: TypePlayerUpdate, PlayerID: playerID, Position: pos, Rotation: rot}
}

func NewPlayerShoot(playerID string, pos, dir Vec3) PlayerShoot {
	return PlayerShoot{Type: TypePlayerShoot, PlayerID: playerID, Position: pos, Direction: dir}
}

func NewPlayerKilled(killerID, victimID string, headshot bool) PlayerKilled {
	return PlayerKilled{Type: TypePlayerKilled, KillerID: killerID, VictimID: victimID, IsHeadshot: headshot}
}

func NewTakeDamage(damage int, fromID string, headshot bool) TakeDamage {
	return TakeDamage{Type: TypeTakeDamage, Damage: damage, FromID: fromID, IsHeadshot: headshot}
}

func NewPlayerHit(playerID string, health int, headshot bool) PlayerHit {
	return PlayerHit{Type: TypePlayerHit, PlayerID: playerID, Health: health, IsHeadshot: headshot}
}

func NewRespawnAt(pos Vec3) RespawnAt {
	return RespawnAt{Type: TypeRespawnAt, Position: pos}
}

func NewPlayerRespawn(playerID string, pos Vec3) PlayerRespawn {
	return PlayerRespawn{Type: TypePlayerRespawn, PlayerID: playerID, Position: pos}
}

func NewPlayerLeft(playerID string) PlayerLeft {
	return PlayerLeft{Type: TypePlayerLeft, PlayerID: playerID}
}

func NewError(kind ErrorKind, message string) ErrorEvent {
	return ErrorEvent{Type: TypeError, Kind: kind, Message: message}
}

// Frame is the union of all outbound fields, used by clients to decode
// whatever the server sent.
type Frame struct {
	Type       string            `json:"type"`
	RoomID     string            `json:"roomId,omitempty"`
	PlayerID   string            `json:"playerId,omitempty"`
	Team       Team              `json:"team,omitempty"`
	Player     *PlayerSummary    `json:"player,omitempty"`
	Players    []SpawnAssignment `json:"players,omitempty"`
	Position   *Vec3             `json:"position,omitempty"`
	Rotation   *Rotation         `json:"rotation,omitempty"`
	Direction  *Vec3             `json:"direction,omitempty"`
	KillerID   string            `json:"killerId,omitempty"`
	VictimID   string            `json:"victimId,omitempty"`
	FromID     string            `json:"fromId,omitempty"`
	Damage     int               `json:"damage,omitempty"`
	Health     int               `json:"health,omitempty"`
	IsHeadshot bool              `json:"isHeadshot,omitempty"`
	Kind       ErrorKind         `json:"kind,omitempty"`
	Message    string            `json:"message,omitempty"`
}

// ParseFrame decodes one server frame.
func ParseFrame(data []byte) (Frame, error) {
	var f Frame
	err := json.Unmarshal(data, &f)
	return f, err
}

// Encode serializes an outbound event.
func Encode(event any) ([]byte, error) {
	return json.Marshal(event)
}
