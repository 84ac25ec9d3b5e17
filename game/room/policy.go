package room

import (
	"github.com/rs/zerolog/log"
	"github.com/wricardo/fps-arena-relay/game/protocol"
)

// memberLocked returns the occupant or the error a stale caller should get.
func (r *Room) memberLocked(playerID string) (*Player, error) {
	if r.state == StateClosed {
		return nil, ErrRoomClosed
	}
	p, ok := r.players[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return p, nil
}

// MarkReady flags the player ready and tells the room. Readiness gates
// nothing; it is informational for the clients.
func (r *Room) MarkReady(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.memberLocked(playerID)
	if err != nil {
		return err
	}
	p.Ready = true
	r.broadcastLocked(protocol.NewPlayerReady(p.ID), "")
	return nil
}

// UpdatePosition stores the sender's transform and relays it to the
// opponent. Movement is trusted as reported.
func (r *Room) UpdatePosition(playerID string, pos protocol.Vec3, rot protocol.Rotation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.memberLocked(playerID)
	if err != nil {
		return err
	}
	if r.state != StateInProgress {
		return ErrGameNotStarted
	}
	p.Position = pos
	p.Rotation = rot
	r.broadcastLocked(protocol.NewPlayerUpdate(p.ID, pos, rot), p.ID)
	return nil
}

// Shoot relays a shot to the opponent. The server keeps no projectile state.
func (r *Room) Shoot(playerID string, pos, dir protocol.Vec3) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.memberLocked(playerID)
	if err != nil {
		return err
	}
	r.broadcastLocked(protocol.NewPlayerShoot(p.ID, pos, dir), p.ID)
	return nil
}

// Hit applies reported damage from attackerID to targetID.
//
// A dead target absorbs the hit silently. A lethal hit clamps health to zero
// and broadcasts playerKilled to everyone. A non-lethal hit sends takeDamage
// to the victim only and playerHit to everyone except the victim.
func (r *Room) Hit(attackerID, targetID string, damage int, headshot bool) (HitOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.memberLocked(attackerID); err != nil {
		return HitIgnored, err
	}
	target, ok := r.players[targetID]
	if !ok {
		return HitIgnored, ErrPlayerNotFound
	}
	if target.IsDead() {
		return HitIgnored, nil
	}

	target.Health -= damage
	if target.Health <= 0 {
		target.Health = 0
		target.Life = Dead
		log.Info().
			Str("room", r.id).
			Str("killer", attackerID).
			Str("victim", targetID).
			Bool("headshot", headshot).
			Msg("Player killed")
		r.broadcastLocked(protocol.NewPlayerKilled(attackerID, targetID, headshot), "")
		return HitKilled, nil
	}

	r.sendLocked(target, protocol.NewTakeDamage(damage, attackerID, headshot))
	r.broadcastLocked(protocol.NewPlayerHit(targetID, target.Health, headshot), targetID)
	return HitDamaged, nil
}

// Respawn moves the player to a random respawn point with full health. It is
// allowed while alive and then just resets the player.
func (r *Room) Respawn(playerID string) (protocol.Vec3, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.memberLocked(playerID)
	if err != nil {
		return protocol.Vec3{}, err
	}

	spawn := r.rules.RespawnPoints[r.pick(len(r.rules.RespawnPoints))]
	p.Position = spawn
	p.Health = r.rules.MaxHealth
	p.Life = Alive

	r.sendLocked(p, protocol.NewRespawnAt(spawn))
	r.broadcastLocked(protocol.NewPlayerRespawn(p.ID, spawn), p.ID)
	return spawn, nil
}
