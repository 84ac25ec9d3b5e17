package room

import (
	"errors"
	"sync"
	"testing"

	"github.com/wricardo/fps-arena-relay/game/protocol"
)

// recordingSender captures frames per connection.
type recordingSender struct {
	mu     sync.Mutex
	frames map[string][]protocol.Frame
	gone   map[string]bool
}

func newRecordingSender() *recordingSender {
	return &recordingSender{
		frames: make(map[string][]protocol.Frame),
		gone:   make(map[string]bool),
	}
}

var errGone = errors.New("connection gone")

func (s *recordingSender) Send(connID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gone[connID] {
		return errGone
	}
	f, err := protocol.ParseFrame(data)
	if err != nil {
		return err
	}
	s.frames[connID] = append(s.frames[connID], f)
	return nil
}

func (s *recordingSender) take(connID string) []protocol.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.frames[connID]
	delete(s.frames, connID)
	return f
}

func (s *recordingSender) disconnect(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gone[connID] = true
}

func types(frames []protocol.Frame) []string {
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = f.Type
	}
	return out
}

func equalTypes(got []protocol.Frame, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i].Type != want[i] {
			return false
		}
	}
	return true
}

// newDuel returns a room with host "a" and guest "b" already seated.
func newDuel(t *testing.T) (*Room, *recordingSender, *Player, *Player) {
	t.Helper()
	sender := newRecordingSender()
	r := New("1234", sender, DefaultRules())
	a, err := r.AddPlayer("conn-a", "alice", "")
	if err != nil {
		t.Fatalf("Failed to add host: %v", err)
	}
	b, err := r.AddPlayer("conn-b", "bob", "")
	if err != nil {
		t.Fatalf("Failed to add guest: %v", err)
	}
	return r, sender, a, b
}

func countHosts(r *Room) int {
	n := 0
	for _, p := range r.Players() {
		if p.IsHost {
			n++
		}
	}
	return n
}

func TestRoom_AddPlayer(t *testing.T) {
	t.Run("first player is red host", func(t *testing.T) {
		r := New("1000", newRecordingSender(), DefaultRules())
		p, err := r.AddPlayer("c1", "alice", "")
		if err != nil {
			t.Fatalf("AddPlayer failed: %v", err)
		}
		if !p.IsHost {
			t.Error("First player should be host")
		}
		if p.Team != protocol.TeamRed {
			t.Errorf("Expected team red, got %s", p.Team)
		}
		if p.Health != 100 || p.IsDead() {
			t.Errorf("Expected fresh player with 100 health, got %d dead=%v", p.Health, p.IsDead())
		}
		if p.RoomID != "1000" || p.ConnID() != "c1" {
			t.Errorf("Unexpected back references: room=%s conn=%s", p.RoomID, p.ConnID())
		}
		if r.State() != StateFilling {
			t.Errorf("Expected state filling, got %s", r.State())
		}
	})

	t.Run("second player is blue guest", func(t *testing.T) {
		r, _, a, b := newDuel(t)
		if b.IsHost {
			t.Error("Second player must not be host")
		}
		if a.Team == b.Team {
			t.Errorf("Teams must differ, both %s", a.Team)
		}
		if b.Team != protocol.TeamBlue {
			t.Errorf("Expected team blue, got %s", b.Team)
		}
		if r.State() != StateReady || !r.CanStart() {
			t.Errorf("Expected ready room, got %s", r.State())
		}
	})

	t.Run("third player rejected", func(t *testing.T) {
		r, _, _, _ := newDuel(t)
		_, err := r.AddPlayer("conn-c", "carol", "")
		if !errors.Is(err, ErrRoomFull) {
			t.Errorf("Expected ErrRoomFull, got %v", err)
		}
		if r.PlayerCount() != 2 {
			t.Errorf("Expected 2 players, got %d", r.PlayerCount())
		}
	})

	t.Run("requested team honoured when free", func(t *testing.T) {
		r := New("1001", newRecordingSender(), DefaultRules())
		a, _ := r.AddPlayer("c1", "alice", protocol.TeamBlue)
		b, _ := r.AddPlayer("c2", "bob", "")
		if a.Team != protocol.TeamBlue {
			t.Errorf("Expected requested blue, got %s", a.Team)
		}
		if b.Team != protocol.TeamRed {
			t.Errorf("Expected remaining red, got %s", b.Team)
		}
	})

	t.Run("requested team already taken", func(t *testing.T) {
		r := New("1002", newRecordingSender(), DefaultRules())
		r.AddPlayer("c1", "alice", protocol.TeamRed)
		b, _ := r.AddPlayer("c2", "bob", protocol.TeamRed)
		if b.Team != protocol.TeamBlue {
			t.Errorf("Expected conflicting request to fall back to blue, got %s", b.Team)
		}
	})
}

func TestRoom_ConcurrentJoins(t *testing.T) {
	r := New("2000", newRecordingSender(), DefaultRules())

	var wg sync.WaitGroup
	var mu sync.Mutex
	joined, full := 0, 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.AddPlayer("conn", "p", "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				joined++
			case errors.Is(err, ErrRoomFull):
				full++
			default:
				t.Errorf("Unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if joined != MaxPlayers {
		t.Errorf("Expected exactly %d joins, got %d", MaxPlayers, joined)
	}
	if full != 50-MaxPlayers {
		t.Errorf("Expected %d rejections, got %d", 50-MaxPlayers, full)
	}
	if countHosts(r) != 1 {
		t.Errorf("Expected exactly one host, got %d", countHosts(r))
	}
	players := r.Players()
	if players[0].Team == players[1].Team {
		t.Error("Concurrent joiners ended up on the same team")
	}
}

func TestRoom_Enter(t *testing.T) {
	sender := newRecordingSender()
	r := New("3000", sender, DefaultRules())

	a, err := r.Enter("conn-a", "alice", "", protocol.TypeRoomCreated)
	if err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	got := sender.take("conn-a")
	if !equalTypes(got, protocol.TypeRoomCreated) {
		t.Fatalf("Expected [roomCreated], got %v", types(got))
	}
	if got[0].RoomID != "3000" || got[0].PlayerID != a.ID || got[0].Team != protocol.TeamRed {
		t.Errorf("Unexpected roomCreated: %+v", got[0])
	}

	b, err := r.Enter("conn-b", "bob", "", protocol.TypeRoomJoined)
	if err != nil {
		t.Fatalf("Enter failed: %v", err)
	}

	host := sender.take("conn-a")
	if !equalTypes(host, protocol.TypePlayerJoined) {
		t.Fatalf("Host expected [playerJoined], got %v", types(host))
	}
	if host[0].Player == nil || host[0].Player.ID != b.ID || host[0].Player.Name != "bob" {
		t.Errorf("Host got wrong playerJoined: %+v", host[0].Player)
	}

	guest := sender.take("conn-b")
	if !equalTypes(guest, protocol.TypeRoomJoined, protocol.TypePlayerJoined, protocol.TypePlayerJoined) {
		t.Fatalf("Guest expected [roomJoined playerJoined playerJoined], got %v", types(guest))
	}
	if guest[0].PlayerID != b.ID || guest[0].Team != protocol.TeamBlue {
		t.Errorf("Unexpected roomJoined: %+v", guest[0])
	}
	if guest[1].Player.ID != a.ID {
		t.Errorf("Guest should first learn about the host, got %+v", guest[1].Player)
	}
	if guest[2].Player.ID != b.ID {
		t.Errorf("Guest should then see its own announcement, got %+v", guest[2].Player)
	}
}

func TestRoom_EnterBeforeCreator(t *testing.T) {
	sender := newRecordingSender()
	r := New("3001", sender, DefaultRules())

	if _, err := r.Enter("conn-b", "bob", "", protocol.TypeRoomJoined); !errors.Is(err, ErrRoomNotOpen) {
		t.Fatalf("Expected ErrRoomNotOpen, got %v", err)
	}
	if got := sender.take("conn-b"); len(got) != 0 {
		t.Errorf("Rejected joiner should get no frames, got %v", types(got))
	}
	if r.PlayerCount() != 0 || r.State() != StateEmpty {
		t.Errorf("Room should stay empty, got %d players in %s", r.PlayerCount(), r.State())
	}

	a, err := r.Enter("conn-a", "alice", "", protocol.TypeRoomCreated)
	if err != nil {
		t.Fatalf("Creator Enter failed: %v", err)
	}
	if !a.IsHost || a.Team != protocol.TeamRed {
		t.Errorf("Creator should be red host, got host=%v team=%s", a.IsHost, a.Team)
	}
}

func TestRoom_RemovePlayer(t *testing.T) {
	t.Run("guest leaves", func(t *testing.T) {
		r, sender, a, b := newDuel(t)
		if closed := r.RemovePlayer(b.ID); closed {
			t.Error("Room should not close with one player left")
		}
		got := sender.take("conn-a")
		if !equalTypes(got, protocol.TypePlayerLeft) || got[0].PlayerID != b.ID {
			t.Errorf("Expected playerLeft for guest, got %v", types(got))
		}
		if r.State() != StateFilling {
			t.Errorf("Expected state filling, got %s", r.State())
		}
		if p, _ := r.Player(a.ID); !p.IsHost {
			t.Error("Host should remain host")
		}
	})

	t.Run("host leaves", func(t *testing.T) {
		r, _, a, b := newDuel(t)
		r.RemovePlayer(a.ID)
		p, ok := r.Player(b.ID)
		if !ok || !p.IsHost {
			t.Error("Surviving player should inherit host")
		}
		if countHosts(r) != 1 {
			t.Errorf("Expected exactly one host, got %d", countHosts(r))
		}
	})

	t.Run("last player closes room", func(t *testing.T) {
		r, _, a, b := newDuel(t)
		r.RemovePlayer(a.ID)
		if closed := r.RemovePlayer(b.ID); !closed {
			t.Error("Room should close when empty")
		}
		if r.State() != StateClosed {
			t.Errorf("Expected closed, got %s", r.State())
		}
		if _, err := r.AddPlayer("conn-c", "carol", ""); !errors.Is(err, ErrRoomClosed) {
			t.Errorf("Expected ErrRoomClosed, got %v", err)
		}
		if err := r.MarkReady(a.ID); !errors.Is(err, ErrRoomClosed) {
			t.Errorf("Expected ErrRoomClosed, got %v", err)
		}
	})

	t.Run("unknown player", func(t *testing.T) {
		r, sender, _, _ := newDuel(t)
		if r.RemovePlayer("ghost") {
			t.Error("Removing unknown player should not close room")
		}
		if len(sender.take("conn-a")) != 0 {
			t.Error("Removing unknown player should not broadcast")
		}
	})

	t.Run("in progress room stays in progress", func(t *testing.T) {
		r, _, a, b := newDuel(t)
		if err := r.StartGame(a.ID); err != nil {
			t.Fatalf("StartGame failed: %v", err)
		}
		r.RemovePlayer(b.ID)
		if !r.GameStarted() || r.State() != StateInProgress {
			t.Errorf("Match should stay in progress, got %s", r.State())
		}
	})
}

func TestRoom_StartGame(t *testing.T) {
	t.Run("non-host rejected", func(t *testing.T) {
		r, sender, _, b := newDuel(t)
		if err := r.StartGame(b.ID); !errors.Is(err, ErrNotHost) {
			t.Errorf("Expected ErrNotHost, got %v", err)
		}
		if r.GameStarted() {
			t.Error("Game must not start")
		}
		if len(sender.take("conn-a"))+len(sender.take("conn-b")) != 0 {
			t.Error("No frames expected after rejected start")
		}
	})

	t.Run("not enough players", func(t *testing.T) {
		sender := newRecordingSender()
		r := New("4000", sender, DefaultRules())
		a, _ := r.AddPlayer("conn-a", "alice", "")
		if err := r.StartGame(a.ID); !errors.Is(err, ErrNotEnoughPlayers) {
			t.Errorf("Expected ErrNotEnoughPlayers, got %v", err)
		}
		if len(sender.take("conn-a")) != 0 {
			t.Error("No gameStart expected")
		}
	})

	t.Run("host starts", func(t *testing.T) {
		r, sender, a, b := newDuel(t)
		if err := r.StartGame(a.ID); err != nil {
			t.Fatalf("StartGame failed: %v", err)
		}
		if r.State() != StateInProgress {
			t.Errorf("Expected in_progress, got %s", r.State())
		}

		for _, conn := range []string{"conn-a", "conn-b"} {
			got := sender.take(conn)
			if !equalTypes(got, protocol.TypeGameStart) {
				t.Fatalf("%s expected [gameStart], got %v", conn, types(got))
			}
			players := got[0].Players
			if len(players) != 2 {
				t.Fatalf("Expected 2 spawn assignments, got %d", len(players))
			}
			if players[0].ID != a.ID || players[0].Position != (protocol.Vec3{X: -15, Y: 0.1, Z: -15}) {
				t.Errorf("Unexpected first spawn: %+v", players[0])
			}
			if players[1].ID != b.ID || players[1].Position != (protocol.Vec3{X: 15, Y: 0.1, Z: 15}) {
				t.Errorf("Unexpected second spawn: %+v", players[1])
			}
		}
	})

	t.Run("second start rejected", func(t *testing.T) {
		r, sender, a, _ := newDuel(t)
		r.StartGame(a.ID)
		sender.take("conn-a")
		if err := r.StartGame(a.ID); !errors.Is(err, ErrAlreadyStarted) {
			t.Errorf("Expected ErrAlreadyStarted, got %v", err)
		}
		if len(sender.take("conn-a")) != 0 {
			t.Error("Second start must not broadcast")
		}
	})

	t.Run("start resets health", func(t *testing.T) {
		r, _, a, b := newDuel(t)
		r.Hit(a.ID, b.ID, 40, false)
		r.StartGame(a.ID)
		p, _ := r.Player(b.ID)
		if p.Health != 100 || p.IsDead() {
			t.Errorf("Expected health reset to 100, got %d", p.Health)
		}
	})
}

func TestRoom_Delivery(t *testing.T) {
	t.Run("broadcast with exclusion", func(t *testing.T) {
		r, sender, a, _ := newDuel(t)
		r.Broadcast(protocol.NewPlayerReady("x"), a.ID)
		if len(sender.take("conn-a")) != 0 {
			t.Error("Excluded player should receive nothing")
		}
		if got := sender.take("conn-b"); !equalTypes(got, protocol.TypePlayerReady) {
			t.Errorf("Expected [playerReady], got %v", types(got))
		}
	})

	t.Run("closed connection skipped", func(t *testing.T) {
		r, sender, _, _ := newDuel(t)
		sender.disconnect("conn-a")
		r.Broadcast(protocol.NewPlayerReady("x"), "")
		if got := sender.take("conn-b"); len(got) != 1 {
			t.Errorf("Open peer should still receive the event, got %d frames", len(got))
		}
	})

	t.Run("send to unknown player", func(t *testing.T) {
		r, sender, _, _ := newDuel(t)
		r.SendTo("ghost", protocol.NewPlayerReady("x"))
		if len(sender.take("conn-a"))+len(sender.take("conn-b")) != 0 {
			t.Error("Unknown recipient should be a no-op")
		}
	})

	t.Run("other player", func(t *testing.T) {
		r, _, a, b := newDuel(t)
		other, ok := r.OtherPlayer(a.ID)
		if !ok || other.ID != b.ID {
			t.Errorf("Expected other player %s, got %+v", b.ID, other)
		}
		r.RemovePlayer(b.ID)
		if _, ok := r.OtherPlayer(a.ID); ok {
			t.Error("Expected no other player in a one-player room")
		}
	})
}

func TestRoom_Snapshot(t *testing.T) {
	r, _, a, b := newDuel(t)
	info := r.Snapshot()
	if info.ID != "1234" || info.State != StateReady || info.GameStarted {
		t.Errorf("Unexpected snapshot header: %+v", info)
	}
	if len(info.Players) != 2 || info.Players[0].ID != a.ID || info.Players[1].ID != b.ID {
		t.Fatalf("Snapshot players out of join order: %+v", info.Players)
	}
	if !info.Players[0].IsHost || info.Players[1].IsHost {
		t.Error("Snapshot host flags wrong")
	}
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Rules)
		wantErr bool
	}{
		{"default", func(r *Rules) {}, false},
		{"missing name", func(r *Rules) { r.Name = "" }, true},
		{"zero health", func(r *Rules) { r.MaxHealth = 0 }, true},
		{"excessive health", func(r *Rules) { r.MaxHealth = MaxHealth + 1 }, true},
		{"one start spawn", func(r *Rules) { r.StartSpawns = r.StartSpawns[:1] }, true},
		{"no respawn points", func(r *Rules) { r.RespawnPoints = nil }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := DefaultRules()
			tt.mutate(&rules)
			err := ValidateRules(&rules)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRules() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRules) {
				t.Errorf("Expected ErrInvalidRules, got %v", err)
			}
		})
	}

	if err := ValidateRules(nil); err == nil {
		t.Error("Expected error for nil rules")
	}
}

func TestState_String(t *testing.T) {
	if StateInProgress.String() != "in_progress" {
		t.Errorf("Unexpected name %q", StateInProgress.String())
	}
	data, err := StateClosed.MarshalJSON()
	if err != nil || string(data) != `"closed"` {
		t.Errorf("Unexpected JSON %s (%v)", data, err)
	}

	var parsed State
	if err := parsed.UnmarshalJSON([]byte(`"ready"`)); err != nil || parsed != StateReady {
		t.Errorf("Expected ready, got %s (%v)", parsed, err)
	}
	if err := parsed.UnmarshalJSON([]byte(`"paused"`)); err == nil {
		t.Error("Expected error for unknown state")
	}
}
