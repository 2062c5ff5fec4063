package combat

import (
	"time"

	"github.com/cory-johannsen/mudcombat/internal/game/monster"
)

const (
	// policyFleeChance is the probability a wounded hostile tries to flee.
	policyFleeChance = 0.3
	// policyAttackChance is the probability a hostile attacks rather than defends.
	policyAttackChance = 0.8
)

// ChooseAction picks the next action for a hostile. It is a pure function of
// the session snapshot, the actor, its definition, and the random draws.
//
// A hostile whose health fraction is below its flee threshold tries to flee
// with 30% probability. Otherwise it attacks the living player with the lowest
// health (ties by participant order) with 80% probability, and defends
// itself with 20% probability. A hostile with no living player to target defends.
//
// Precondition: actor must be an active hostile in s; def may be nil when the
// definition is unknown, which disables the flee check.
// Postcondition: Returns a request whose ActorID is actor.ID.
func ChooseAction(s *Session, actor *Participant, def *monster.Definition, src Source, now time.Time) ActionRequest {
	req := ActionRequest{ActorID: actor.ID, Timestamp: now}

	if def != nil && actor.HealthFraction() < def.AI.FleeHealthPercent/100 {
		if src.Float64() < policyFleeChance {
			req.Kind = ActionFlee
			return req
		}
	}

	target := weakestPlayer(s)
	if target != nil && src.Float64() < policyAttackChance {
		req.Kind = ActionAttack
		req.TargetID = target.ID
		return req
	}
	req.Kind = ActionDefend
	req.TargetID = actor.ID
	return req
}

// weakestPlayer returns the living player with the lowest health, or nil.
func weakestPlayer(s *Session) *Participant {
	var best *Participant
	for _, p := range s.ActivePlayers() {
		if best == nil || p.Health < best.Health {
			best = p
		}
	}
	return best
}
