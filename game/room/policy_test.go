package room

import (
	"errors"
	"testing"

	"github.com/wricardo/fps-arena-relay/game/protocol"
)

// startedDuel returns a duel already in progress with frames drained.
func startedDuel(t *testing.T) (*Room, *recordingSender, *Player, *Player) {
	t.Helper()
	r, sender, a, b := newDuel(t)
	if err := r.StartGame(a.ID); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	sender.take("conn-a")
	sender.take("conn-b")
	return r, sender, a, b
}

func TestRoom_MarkReady(t *testing.T) {
	r, sender, a, _ := newDuel(t)
	if err := r.MarkReady(a.ID); err != nil {
		t.Fatalf("MarkReady failed: %v", err)
	}
	if p, _ := r.Player(a.ID); !p.Ready {
		t.Error("Player should be ready")
	}
	for _, conn := range []string{"conn-a", "conn-b"} {
		got := sender.take(conn)
		if !equalTypes(got, protocol.TypePlayerReady) || got[0].PlayerID != a.ID {
			t.Errorf("%s expected playerReady for host, got %v", conn, types(got))
		}
	}
	if r.GameStarted() {
		t.Error("Readiness must not start the game")
	}
	if err := r.MarkReady("ghost"); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("Expected ErrPlayerNotFound, got %v", err)
	}
}

func TestRoom_UpdatePosition(t *testing.T) {
	pos := protocol.Vec3{X: 3, Y: 1.6, Z: -4}
	rot := protocol.Rotation{X: 0.2, Y: 1.1}

	t.Run("before start", func(t *testing.T) {
		r, sender, a, _ := newDuel(t)
		if err := r.UpdatePosition(a.ID, pos, rot); !errors.Is(err, ErrGameNotStarted) {
			t.Errorf("Expected ErrGameNotStarted, got %v", err)
		}
		if len(sender.take("conn-b")) != 0 {
			t.Error("Nothing should be relayed before start")
		}
		if p, _ := r.Player(a.ID); p.Position == pos {
			t.Error("Position must not change before start")
		}
	})

	t.Run("during match", func(t *testing.T) {
		r, sender, a, _ := startedDuel(t)
		if err := r.UpdatePosition(a.ID, pos, rot); err != nil {
			t.Fatalf("UpdatePosition failed: %v", err)
		}
		if len(sender.take("conn-a")) != 0 {
			t.Error("Sender should not receive its own update")
		}
		got := sender.take("conn-b")
		if !equalTypes(got, protocol.TypePlayerUpdate) {
			t.Fatalf("Expected [playerUpdate], got %v", types(got))
		}
		if got[0].PlayerID != a.ID || *got[0].Position != pos || *got[0].Rotation != rot {
			t.Errorf("Unexpected playerUpdate: %+v", got[0])
		}
		if p, _ := r.Player(a.ID); p.Position != pos || p.Rotation != rot {
			t.Errorf("Stored transform not updated: %+v", p)
		}
	})
}

func TestRoom_Shoot(t *testing.T) {
	r, sender, a, _ := newDuel(t)
	pos := protocol.Vec3{X: 1, Y: 1.5, Z: 1}
	dir := protocol.Vec3{X: 0, Y: 0, Z: -1}
	if err := r.Shoot(a.ID, pos, dir); err != nil {
		t.Fatalf("Shoot failed: %v", err)
	}
	if len(sender.take("conn-a")) != 0 {
		t.Error("Shooter should not receive its own shot")
	}
	got := sender.take("conn-b")
	if !equalTypes(got, protocol.TypePlayerShoot) {
		t.Fatalf("Expected [playerShoot], got %v", types(got))
	}
	if *got[0].Position != pos || *got[0].Direction != dir || got[0].PlayerID != a.ID {
		t.Errorf("Unexpected playerShoot: %+v", got[0])
	}
}

func TestRoom_Hit(t *testing.T) {
	t.Run("non-lethal hit", func(t *testing.T) {
		r, sender, a, b := startedDuel(t)
		outcome, err := r.Hit(b.ID, a.ID, 30, true)
		if err != nil {
			t.Fatalf("Hit failed: %v", err)
		}
		if outcome != HitDamaged {
			t.Errorf("Expected damaged, got %s", outcome)
		}

		victim := sender.take("conn-a")
		if !equalTypes(victim, protocol.TypeTakeDamage) {
			t.Fatalf("Victim expected only [takeDamage], got %v", types(victim))
		}
		if victim[0].Damage != 30 || victim[0].FromID != b.ID || !victim[0].IsHeadshot {
			t.Errorf("Unexpected takeDamage: %+v", victim[0])
		}

		attacker := sender.take("conn-b")
		if !equalTypes(attacker, protocol.TypePlayerHit) {
			t.Fatalf("Attacker expected only [playerHit], got %v", types(attacker))
		}
		if attacker[0].PlayerID != a.ID || attacker[0].Health != 70 {
			t.Errorf("Unexpected playerHit: %+v", attacker[0])
		}

		if p, _ := r.Player(a.ID); p.Health != 70 || p.IsDead() {
			t.Errorf("Expected 70 health alive, got %d dead=%v", p.Health, p.IsDead())
		}
	})

	t.Run("lethal hit", func(t *testing.T) {
		r, sender, a, b := startedDuel(t)
		outcome, err := r.Hit(b.ID, a.ID, 120, false)
		if err != nil {
			t.Fatalf("Hit failed: %v", err)
		}
		if outcome != HitKilled {
			t.Errorf("Expected killed, got %s", outcome)
		}
		for _, conn := range []string{"conn-a", "conn-b"} {
			got := sender.take(conn)
			if !equalTypes(got, protocol.TypePlayerKilled) {
				t.Fatalf("%s expected [playerKilled], got %v", conn, types(got))
			}
			if got[0].KillerID != b.ID || got[0].VictimID != a.ID {
				t.Errorf("Unexpected playerKilled: %+v", got[0])
			}
		}
		p, _ := r.Player(a.ID)
		if p.Health != 0 || !p.IsDead() {
			t.Errorf("Expected 0 health dead, got %d dead=%v", p.Health, p.IsDead())
		}
	})

	t.Run("exact lethal damage", func(t *testing.T) {
		r, _, a, b := startedDuel(t)
		if outcome, _ := r.Hit(b.ID, a.ID, 100, false); outcome != HitKilled {
			t.Errorf("Damage equal to health should kill, got %s", outcome)
		}
	})

	t.Run("dead target absorbs hits", func(t *testing.T) {
		r, sender, a, b := startedDuel(t)
		r.Hit(b.ID, a.ID, 120, false)
		sender.take("conn-a")
		sender.take("conn-b")

		for i := 0; i < 3; i++ {
			outcome, err := r.Hit(b.ID, a.ID, 50, true)
			if err != nil || outcome != HitIgnored {
				t.Errorf("Expected ignored hit, got %s (%v)", outcome, err)
			}
		}
		if len(sender.take("conn-a"))+len(sender.take("conn-b")) != 0 {
			t.Error("Hits on a dead target must not emit anything")
		}
		if p, _ := r.Player(a.ID); p.Health != 0 {
			t.Errorf("Dead player health changed to %d", p.Health)
		}
	})

	t.Run("unknown target", func(t *testing.T) {
		r, _, _, b := startedDuel(t)
		if _, err := r.Hit(b.ID, "ghost", 10, false); !errors.Is(err, ErrPlayerNotFound) {
			t.Errorf("Expected ErrPlayerNotFound, got %v", err)
		}
	})

	t.Run("unknown attacker", func(t *testing.T) {
		r, _, a, _ := startedDuel(t)
		if _, err := r.Hit("ghost", a.ID, 10, false); !errors.Is(err, ErrPlayerNotFound) {
			t.Errorf("Expected ErrPlayerNotFound, got %v", err)
		}
		if p, _ := r.Player(a.ID); p.Health != 100 {
			t.Errorf("Hit from a stranger changed health to %d", p.Health)
		}
	})
}

func TestRoom_Respawn(t *testing.T) {
	rules := DefaultRules()
	valid := make(map[protocol.Vec3]bool)
	for _, p := range rules.RespawnPoints {
		valid[p] = true
	}

	t.Run("dead player respawns", func(t *testing.T) {
		r, sender, a, b := startedDuel(t)
		r.Hit(b.ID, a.ID, 150, false)
		sender.take("conn-a")
		sender.take("conn-b")

		spawn, err := r.Respawn(a.ID)
		if err != nil {
			t.Fatalf("Respawn failed: %v", err)
		}
		if !valid[spawn] {
			t.Errorf("Spawn %+v is not a respawn point", spawn)
		}
		p, _ := r.Player(a.ID)
		if p.Health != 100 || p.IsDead() || p.Position != spawn {
			t.Errorf("Unexpected player after respawn: %+v", p)
		}

		self := sender.take("conn-a")
		if !equalTypes(self, protocol.TypeRespawnAt) || *self[0].Position != spawn {
			t.Errorf("Requester expected [respawn] at %+v, got %v", spawn, types(self))
		}
		other := sender.take("conn-b")
		if !equalTypes(other, protocol.TypePlayerRespawn) || other[0].PlayerID != a.ID || *other[0].Position != spawn {
			t.Errorf("Opponent expected [playerRespawn], got %v", types(other))
		}
	})

	t.Run("every pick is a respawn point", func(t *testing.T) {
		r, _, a, _ := startedDuel(t)
		for i := range rules.RespawnPoints {
			r.pick = func(int) int { return i }
			spawn, err := r.Respawn(a.ID)
			if err != nil {
				t.Fatalf("Respawn failed: %v", err)
			}
			if spawn != rules.RespawnPoints[i] {
				t.Errorf("Expected spawn %d to be %+v, got %+v", i, rules.RespawnPoints[i], spawn)
			}
		}
	})

	t.Run("alive player is reset", func(t *testing.T) {
		r, _, a, b := startedDuel(t)
		r.Hit(b.ID, a.ID, 10, false)
		if _, err := r.Respawn(a.ID); err != nil {
			t.Fatalf("Respawn failed: %v", err)
		}
		if p, _ := r.Player(a.ID); p.Health != 100 {
			t.Errorf("Expected health reset to 100, got %d", p.Health)
		}
	})

	t.Run("unknown player", func(t *testing.T) {
		r, _, _, _ := startedDuel(t)
		if _, err := r.Respawn("ghost"); !errors.Is(err, ErrPlayerNotFound) {
			t.Errorf("Expected ErrPlayerNotFound, got %v", err)
		}
	})
}
