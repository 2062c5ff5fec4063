package combat

import (
	"fmt"
	"math"
)

// Source is the subset of dice.Source used by the resolver and policy.
// Using a local interface avoids a circular import.
type Source interface {
	Float64() float64
}

const (
	minFleeChance = 20
	maxFleeChance = 80
)

// Resolver applies attack, defend, and flee actions to participants.
// It holds no state besides the random source.
type Resolver struct {
	src Source
}

// NewResolver creates a Resolver drawing from src.
//
// Precondition: src must be non-nil.
func NewResolver(src Source) *Resolver {
	return &Resolver{src: src}
}

// Attack resolves one attack of damageType from actor against target.
//
// Precondition: actor and target must be non-nil and active.
// A miss changes nothing but the result, so a defending target keeps its guard
// until a hit lands. This settles two conflicting rules: one clears the defend
// flag whatever the outcome, the other leaves all state untouched on a miss.
// The second wins.
//
// Postcondition: On a miss, Dodged is true, Damage is 0, and target is unchanged,
// including Defending. On a hit, Damage >= 1, target health is clamped to
// [0, MaxHealth], and the target's defend flag is cleared.
func (r *Resolver) Attack(actor, target *Participant, damageType DamageType) ActionResult {
	res := ActionResult{
		Kind:     ActionAttack,
		ActorID:  actor.ID,
		TargetID: target.ID,
	}

	hitChance := actor.Stats.HitRate - target.Stats.DodgeRate
	if r.src.Float64()*100 >= hitChance {
		res.Dodged = true
		res.RemainingHP = target.Health
		res.Message = fmt.Sprintf("%s attacks %s but misses.", actor.Name, target.Name)
		return res
	}

	attack, defense := actor.Stats.Attack, target.Stats.Defense
	if damageType == DamageMagical {
		attack, defense = actor.Stats.MagicAttack, target.Stats.MagicDefense
	}
	if defense < 0 {
		defense = 0
	}
	if target.Defending {
		defense *= 2
	}

	reduction := float64(defense) / float64(defense+100)
	damage := float64(attack) * (1 - reduction)
	damage *= 0.9 + r.src.Float64()*0.2

	if r.src.Float64()*100 < actor.Stats.CritRate {
		res.Critical = true
		damage *= actor.Stats.CritDamage / 100
	}

	final := int(math.Floor(damage))
	if final < 1 {
		final = 1
	}
	target.ApplyDamage(final)
	target.Defending = false

	res.Success = true
	res.Damage = final
	res.RemainingHP = target.Health
	switch {
	case !target.Alive:
		res.Message = fmt.Sprintf("%s strikes %s for %d %s damage. %s is defeated!", actor.Name, target.Name, final, damageType, target.Name)
	case res.Critical:
		res.Message = fmt.Sprintf("Critical hit! %s strikes %s for %d %s damage.", actor.Name, target.Name, final, damageType)
	default:
		res.Message = fmt.Sprintf("%s strikes %s for %d %s damage.", actor.Name, target.Name, final, damageType)
	}
	return res
}

// Defend raises actor's guard until the next hit it takes.
//
// Postcondition: actor.Defending is true; the result always succeeds.
func (r *Resolver) Defend(actor *Participant) ActionResult {
	actor.Defending = true
	return ActionResult{
		Success:     true,
		Kind:        ActionDefend,
		ActorID:     actor.ID,
		TargetID:    actor.ID,
		RemainingHP: actor.Health,
		Message:     fmt.Sprintf("%s takes a defensive stance.", actor.Name),
	}
}

// FleeChance returns the percentage chance that a participant of the given
// speed escapes opponents whose average speed is avgOpposingSpeed.
//
// Postcondition: Returns a value in [20, 80], non-decreasing in speed-avgOpposingSpeed.
func FleeChance(speed int, avgOpposingSpeed float64) float64 {
	return clampFloat(50+(float64(speed)-avgOpposingSpeed)*2, minFleeChance, maxFleeChance)
}

// Flee attempts to disengage actor from s. A player who escapes moves the
// session to StatusFled; a hostile who escapes is marked Fled and leaves the
// fight.
//
// Precondition: actor must be an active participant of s.
// Postcondition: Success reports whether the attempt itself succeeded.
func (r *Resolver) Flee(s *Session, actor *Participant) ActionResult {
	var opponents []*Participant
	if actor.IsPlayer() {
		opponents = s.ActiveHostiles()
	} else {
		opponents = s.ActivePlayers()
	}
	avg := 0.0
	if len(opponents) > 0 {
		total := 0
		for _, o := range opponents {
			total += o.Stats.Speed
		}
		avg = float64(total) / float64(len(opponents))
	}

	res := ActionResult{
		Kind:        ActionFlee,
		ActorID:     actor.ID,
		RemainingHP: actor.Health,
	}
	if r.src.Float64()*100 >= FleeChance(actor.Stats.Speed, avg) {
		res.Message = fmt.Sprintf("%s tries to flee but cannot escape!", actor.Name)
		return res
	}

	res.Success = true
	res.Message = fmt.Sprintf("%s flees from combat!", actor.Name)
	if actor.IsPlayer() {
		s.Status = StatusFled
	} else {
		actor.Fled = true
		actor.Defending = false
	}
	return res
}
