package combat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/mudcombat/internal/game/combat"
	"github.com/cory-johannsen/mudcombat/internal/game/dice"
	"github.com/cory-johannsen/mudcombat/internal/game/monster"
)

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// Draw layout for one landed attack: hit, variance, crit.
const (
	drawHit     = 0.0
	drawNoCrit  = 0.99
	drawNeutral = 0.5
)

func attacker(attack int) combat.Participant {
	return combat.Participant{
		ID: "p1", Kind: combat.KindPlayer, Name: "Hero",
		Health: 50, MaxHealth: 50, Alive: true,
		Stats: monster.Stats{Attack: attack, MagicAttack: attack / 2, Speed: 12, HitRate: 90, CritRate: 5, CritDamage: 150},
	}
}

func hostile(maxHealth, defense int) combat.Participant {
	return combat.Participant{
		ID: "h1", Kind: combat.KindHostile, Name: "Rat",
		Health: maxHealth, MaxHealth: maxHealth, Alive: true,
		Stats: monster.Stats{Defense: defense, MagicDefense: defense, Speed: 8, DodgeRate: 5, HitRate: 80},
	}
}

func TestAttack_ScenarioA_DamageBand(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		hit := rapid.Float64Range(0, 0.84).Draw(rt, "hit")
		variance := rapid.Float64Range(0, 0.999).Draw(rt, "variance")
		crit := rapid.Float64Range(0, 0.999).Draw(rt, "crit")

		a, h := attacker(20), hostile(30, 0)
		r := combat.NewResolver(dice.NewSequenceSource(hit, variance, crit))
		res := r.Attack(&a, &h, combat.DamagePhysical)

		require.True(rt, res.Success)
		assert.False(rt, res.Dodged)
		if res.Critical {
			assert.GreaterOrEqual(rt, res.Damage, 26)
			assert.LessOrEqual(rt, res.Damage, 33)
		} else {
			assert.GreaterOrEqual(rt, res.Damage, 17)
			assert.LessOrEqual(rt, res.Damage, 22)
		}
		assert.Equal(rt, max(0, 30-res.Damage), h.Health)
		assert.Equal(rt, h.Health, res.RemainingHP)
	})
}

func TestAttack_ExactDamageWithNeutralVariance(t *testing.T) {
	a, h := attacker(20), hostile(30, 0)
	r := combat.NewResolver(dice.NewSequenceSource(drawHit, drawNeutral, drawNoCrit))
	res := r.Attack(&a, &h, combat.DamagePhysical)

	assert.Equal(t, 20, res.Damage)
	assert.False(t, res.Critical)
	assert.Equal(t, 10, h.Health)
	assert.Equal(t, "p1", res.ActorID)
	assert.Equal(t, "h1", res.TargetID)
	assert.Equal(t, combat.ActionAttack, res.Kind)
}

func TestAttack_CriticalMultipliesDamage(t *testing.T) {
	a, h := attacker(20), hostile(100, 0)
	r := combat.NewResolver(dice.NewSequenceSource(drawHit, drawNeutral, 0.01))
	res := r.Attack(&a, &h, combat.DamagePhysical)

	assert.True(t, res.Critical)
	assert.Equal(t, 30, res.Damage)
}

func TestAttack_MissChangesNothing(t *testing.T) {
	a, h := attacker(20), hostile(30, 0)
	h.Defending = true
	src := dice.NewSequenceSource(0.9)
	r := combat.NewResolver(src)
	res := r.Attack(&a, &h, combat.DamagePhysical)

	assert.False(t, res.Success)
	assert.True(t, res.Dodged)
	assert.Equal(t, 0, res.Damage)
	assert.Equal(t, 30, h.Health)
	assert.Equal(t, 30, res.RemainingHP)
	assert.True(t, h.Defending, "a miss does not consume the guard")
	assert.Equal(t, 1, src.Drawn(), "a miss draws only the hit roll")
}

func TestAttack_HitChanceIsHitRateMinusDodge(t *testing.T) {
	a, h := attacker(20), hostile(30, 0)
	// hit chance 90 - 5 = 85
	r := combat.NewResolver(dice.NewSequenceSource(0.849, drawNeutral, drawNoCrit))
	assert.True(t, r.Attack(&a, &h, combat.DamagePhysical).Success)

	h = hostile(30, 0)
	r = combat.NewResolver(dice.NewSequenceSource(0.86))
	assert.True(t, r.Attack(&a, &h, combat.DamagePhysical).Dodged)
}

func TestAttack_ScenarioB_DefendingReducesDamage(t *testing.T) {
	draws := []float64{drawHit, drawNeutral, drawNoCrit}

	a, open := attacker(100), hostile(500, 100)
	openRes := combat.NewResolver(dice.NewSequenceSource(draws...)).Attack(&a, &open, combat.DamagePhysical)

	guarded := hostile(500, 100)
	guarded.Defending = true
	guardRes := combat.NewResolver(dice.NewSequenceSource(draws...)).Attack(&a, &guarded, combat.DamagePhysical)

	// defense 100 mitigates half; doubled to 200 it mitigates two thirds.
	assert.Equal(t, 50, openRes.Damage)
	assert.Equal(t, 33, guardRes.Damage)
	assert.Less(t, guardRes.Damage, openRes.Damage)
	assert.False(t, guarded.Defending, "a landed hit consumes the guard")
}

func TestAttack_ScenarioC_LethalHitEndsCombat(t *testing.T) {
	a, h := attacker(20), hostile(20, 0)
	s := combat.NewSession("s1", []combat.Participant{a, h}, fixedNow)
	r := combat.NewResolver(dice.NewSequenceSource(drawHit, drawNeutral, drawNoCrit))

	res := r.Attack(s.Participant("p1"), s.Participant("h1"), combat.DamagePhysical)

	assert.Equal(t, 0, res.RemainingHP)
	assert.Equal(t, 0, s.Participant("h1").Health)
	assert.False(t, s.Participant("h1").Alive)
	assert.True(t, s.CheckEnded())
}

func TestAttack_MinimumDamageIsOne(t *testing.T) {
	a, h := attacker(0), hostile(10, 500)
	res := combat.NewResolver(dice.NewSequenceSource(drawHit, 0.0, drawNoCrit)).Attack(&a, &h, combat.DamagePhysical)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Damage)
	assert.Equal(t, 9, h.Health)
}

func TestAttack_MagicalUsesMagicStats(t *testing.T) {
	a, h := attacker(40), hostile(100, 0)
	h.Stats.MagicDefense = 100
	res := combat.NewResolver(dice.NewSequenceSource(drawHit, drawNeutral, drawNoCrit)).Attack(&a, &h, combat.DamageMagical)
	// magic attack 20 against magic defense 100
	assert.Equal(t, 10, res.Damage)
	assert.Contains(t, res.Message, "magical")
}

func TestProperty_Attack_Invariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := attacker(rapid.IntRange(0, 300).Draw(rt, "attack"))
		a.Stats.CritRate = rapid.Float64Range(0, 100).Draw(rt, "crit_rate")
		a.Stats.CritDamage = rapid.Float64Range(100, 300).Draw(rt, "crit_damage")
		maxHP := rapid.IntRange(1, 500).Draw(rt, "max_hp")
		h := hostile(maxHP, rapid.IntRange(0, 300).Draw(rt, "defense"))
		h.Health = rapid.IntRange(1, maxHP).Draw(rt, "hp")
		h.Defending = rapid.Bool().Draw(rt, "defending")
		before, wasDefending := h.Health, h.Defending

		draws := make([]float64, 3)
		for i := range draws {
			draws[i] = rapid.Float64Range(0, 0.999).Draw(rt, "draw")
		}
		res := combat.NewResolver(dice.NewSequenceSource(draws...)).Attack(&a, &h, combat.DamagePhysical)

		assert.GreaterOrEqual(rt, h.Health, 0)
		assert.LessOrEqual(rt, h.Health, h.MaxHealth)
		assert.Equal(rt, h.Health > 0, h.Alive)
		if res.Dodged {
			assert.Equal(rt, 0, res.Damage)
			assert.Equal(rt, before, h.Health)
			assert.Equal(rt, wasDefending, h.Defending)
		} else {
			assert.GreaterOrEqual(rt, res.Damage, 1)
			assert.False(rt, h.Defending)
		}
	})
}

func TestDefend_SetsGuard(t *testing.T) {
	a := attacker(10)
	res := combat.NewResolver(dice.NewSequenceSource(drawNeutral)).Defend(&a)
	assert.True(t, res.Success)
	assert.Equal(t, combat.ActionDefend, res.Kind)
	assert.True(t, a.Defending)
	assert.Equal(t, 0, res.Damage)
}

func TestFleeChance_Bounds(t *testing.T) {
	assert.InDelta(t, 50.0, combat.FleeChance(10, 10), 1e-9)
	assert.InDelta(t, 58.0, combat.FleeChance(14, 10), 1e-9)
	assert.InDelta(t, 80.0, combat.FleeChance(100, 10), 1e-9)
	assert.InDelta(t, 20.0, combat.FleeChance(0, 100), 1e-9)
}

func TestProperty_FleeChance_MonotonicAndBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		avg := rapid.Float64Range(0, 100).Draw(rt, "avg")
		s1 := rapid.IntRange(0, 100).Draw(rt, "s1")
		s2 := rapid.IntRange(s1, 120).Draw(rt, "s2")
		c1, c2 := combat.FleeChance(s1, avg), combat.FleeChance(s2, avg)
		assert.GreaterOrEqual(rt, c1, 20.0)
		assert.LessOrEqual(rt, c1, 80.0)
		assert.GreaterOrEqual(rt, c2, c1)
	})
}

func TestFlee_PlayerSuccessMarksSessionFled(t *testing.T) {
	s := combat.NewSession("s1", []combat.Participant{attacker(10), hostile(10, 0)}, fixedNow)
	// speed 12 vs 8: chance 58
	res := combat.NewResolver(dice.NewSequenceSource(0.57)).Flee(s, s.Player())

	assert.True(t, res.Success)
	assert.Equal(t, combat.ActionFlee, res.Kind)
	assert.Equal(t, combat.StatusFled, s.Status)
}

func TestFlee_PlayerFailureKeepsSession(t *testing.T) {
	s := combat.NewSession("s1", []combat.Participant{attacker(10), hostile(10, 0)}, fixedNow)
	res := combat.NewResolver(dice.NewSequenceSource(0.6)).Flee(s, s.Player())

	assert.False(t, res.Success)
	assert.Equal(t, combat.StatusInProgress, s.Status)
	assert.NotEmpty(t, res.Message)
}

func TestFlee_AveragesOnlyActiveHostiles(t *testing.T) {
	h2 := hostile(10, 0)
	h2.ID = "h2"
	h2.Stats.Speed = 100
	h2.Health, h2.Alive = 0, false
	s := combat.NewSession("s1", []combat.Participant{attacker(10), hostile(10, 0), h2}, fixedNow)
	// the dead hostile's speed is ignored, so chance stays 58
	res := combat.NewResolver(dice.NewSequenceSource(0.57)).Flee(s, s.Player())
	assert.True(t, res.Success)
}

func TestFlee_HostileSuccessLeavesFight(t *testing.T) {
	s := combat.NewSession("s1", []combat.Participant{attacker(10), hostile(10, 0)}, fixedNow)
	h := s.Participant("h1")
	// speed 8 vs 12: chance 42
	res := combat.NewResolver(dice.NewSequenceSource(0.41)).Flee(s, h)

	assert.True(t, res.Success)
	assert.True(t, h.Fled)
	assert.Equal(t, combat.StatusInProgress, s.Status)
	assert.True(t, s.CheckEnded())
}
