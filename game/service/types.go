package service

// Stats is a point-in-time summary of the server
type Stats struct {
	Rooms       int `json:"rooms"`
	Players     int `json:"players"`
	InProgress  int `json:"in_progress"`
	Connections int `json:"connections"`
}

// binding ties a transport connection to the player it created.
type binding struct {
	roomID   string
	playerID string
}
