package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wricardo/fps-arena-relay/game/protocol"
)

// maxHitsPerRound bounds a round in case the server never reports a kill.
const maxHitsPerRound = 1000

// Options configure a scripted duel.
type Options struct {
	URL      string
	Rounds   int
	Damage   float64
	Headshot bool
	Timeout  time.Duration
}

func (o Options) validate() error {
	if o.URL == "" {
		return errors.New("url is required")
	}
	if o.Rounds < 1 {
		return fmt.Errorf("rounds must be positive, got %d", o.Rounds)
	}
	if o.Damage <= 0 {
		return fmt.Errorf("damage must be positive, got %v", o.Damage)
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", o.Timeout)
	}
	return nil
}

// Report summarizes a finished duel.
type Report struct {
	RoomID   string
	Rounds   int
	Hits     int
	Kills    int
	Respawns int
	Duration time.Duration
}

// RunDuel connects two bots, plays opts.Rounds rounds with alternating
// attackers, and checks every relayed event along the way.
func RunDuel(ctx context.Context, opts Options) (*Report, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	started := time.Now()

	host, err := Dial(ctx, opts.URL, "host-bot")
	if err != nil {
		return nil, err
	}
	defer host.Close()

	guest, err := Dial(ctx, opts.URL, "guest-bot")
	if err != nil {
		return nil, err
	}
	defer guest.Close()

	if err := setupMatch(ctx, host, guest); err != nil {
		return nil, err
	}

	report := &Report{RoomID: host.RoomID}
	for round := 1; round <= opts.Rounds; round++ {
		attacker, victim := guest, host
		if round%2 == 0 {
			attacker, victim = host, guest
		}

		hits, err := playRound(ctx, attacker, victim, opts)
		if err != nil {
			return report, fmt.Errorf("round %d: %w", round, err)
		}
		report.Rounds++
		report.Hits += hits
		report.Kills++
		report.Respawns++

		log.Info().
			Int("round", round).
			Str("attacker", attacker.Name).
			Str("victim", victim.Name).
			Int("hits", hits).
			Msg("Round complete")
	}

	report.Duration = time.Since(started)
	return report, nil
}

// setupMatch creates a room, seats the guest and starts the game.
func setupMatch(ctx context.Context, host, guest *Bot) error {
	if err := host.Send(protocol.CreateRoom{PlayerName: host.Name}); err != nil {
		return err
	}
	ack, err := host.Expect(ctx, protocol.TypeRoomCreated)
	if err != nil {
		return err
	}
	host.RoomID, host.PlayerID, host.Team = ack.RoomID, ack.PlayerID, ack.Team
	log.Info().Str("room", host.RoomID).Str("team", string(host.Team)).Msg("Room created")

	if err := guest.Send(protocol.JoinRoom{RoomID: host.RoomID, PlayerName: guest.Name}); err != nil {
		return err
	}
	ack, err = guest.Expect(ctx, protocol.TypeRoomJoined)
	if err != nil {
		return err
	}
	guest.RoomID, guest.PlayerID, guest.Team = ack.RoomID, ack.PlayerID, ack.Team
	if guest.Team == host.Team {
		return fmt.Errorf("both players were put on team %s", guest.Team)
	}

	joined, err := host.Expect(ctx, protocol.TypePlayerJoined)
	if err != nil {
		return err
	}
	if joined.Player == nil || joined.Player.ID != guest.PlayerID {
		return fmt.Errorf("host saw unexpected join: %+v", joined.Player)
	}

	if err := host.Send(protocol.StartGame{}); err != nil {
		return err
	}
	for _, b := range []*Bot{host, guest} {
		start, err := b.Expect(ctx, protocol.TypeGameStart)
		if err != nil {
			return err
		}
		if len(start.Players) != 2 {
			return fmt.Errorf("%s got gameStart with %d players", b.Name, len(start.Players))
		}
	}
	log.Info().Str("room", host.RoomID).Msg("Match started")
	return nil
}

// playRound moves, shoots and hits until the victim dies, then respawns it.
// It returns the number of hits it took.
func playRound(ctx context.Context, attacker, victim *Bot, opts Options) (int, error) {
	pos := protocol.Vec3{X: 5, Y: 1.6, Z: -5}
	rot := protocol.Rotation{X: 0, Y: 1.2}
	if err := attacker.Send(protocol.UpdatePosition{Position: &pos, Rotation: &rot}); err != nil {
		return 0, err
	}
	update, err := victim.Expect(ctx, protocol.TypePlayerUpdate)
	if err != nil {
		return 0, err
	}
	if update.PlayerID != attacker.PlayerID || update.Position == nil || *update.Position != pos {
		return 0, fmt.Errorf("unexpected playerUpdate: %+v", update)
	}

	dir := protocol.Vec3{X: 0, Y: 0, Z: -1}
	if err := attacker.Send(protocol.Shoot{Position: &pos, Direction: &dir}); err != nil {
		return 0, err
	}
	if _, err := victim.Expect(ctx, protocol.TypePlayerShoot); err != nil {
		return 0, err
	}

	lastHealth := -1
	for hits := 1; hits <= maxHitsPerRound; hits++ {
		damage := opts.Damage
		if err := attacker.Send(protocol.Hit{TargetID: victim.PlayerID, Damage: &damage, IsHeadshot: opts.Headshot}); err != nil {
			return hits, err
		}

		seen, err := attacker.Expect(ctx, protocol.TypePlayerHit, protocol.TypePlayerKilled)
		if err != nil {
			return hits, err
		}
		felt, err := victim.Expect(ctx, protocol.TypeTakeDamage, protocol.TypePlayerKilled)
		if err != nil {
			return hits, err
		}

		if seen.Type == protocol.TypePlayerKilled {
			if felt.Type != protocol.TypePlayerKilled {
				return hits, fmt.Errorf("victim got %s for a lethal hit", felt.Type)
			}
			if seen.KillerID != attacker.PlayerID || seen.VictimID != victim.PlayerID {
				return hits, fmt.Errorf("unexpected playerKilled: %+v", seen)
			}
			return hits, respawn(ctx, attacker, victim)
		}

		if felt.FromID != attacker.PlayerID {
			return hits, fmt.Errorf("takeDamage from %q, expected %q", felt.FromID, attacker.PlayerID)
		}
		if lastHealth >= 0 && seen.Health >= lastHealth {
			return hits, fmt.Errorf("health did not drop: %d -> %d", lastHealth, seen.Health)
		}
		lastHealth = seen.Health
	}
	return maxHitsPerRound, fmt.Errorf("no kill after %d hits", maxHitsPerRound)
}

func respawn(ctx context.Context, attacker, victim *Bot) error {
	if err := victim.Send(protocol.Respawn{}); err != nil {
		return err
	}
	at, err := victim.Expect(ctx, protocol.TypeRespawnAt)
	if err != nil {
		return err
	}
	seen, err := attacker.Expect(ctx, protocol.TypePlayerRespawn)
	if err != nil {
		return err
	}
	if at.Position == nil || seen.Position == nil || *at.Position != *seen.Position {
		return fmt.Errorf("respawn positions disagree: %v vs %v", at.Position, seen.Position)
	}
	return nil
}
