// Package combat implements the turn-based combat resolution engine: session
// lifecycle, action resolution, the opponent policy, and reward settlement.
package combat

import (
	"github.com/cory-johannsen/mudcombat/internal/game/monster"
	"github.com/cory-johannsen/mudcombat/internal/game/player"
)

// Kind distinguishes player participants from hostile participants.
type Kind string

const (
	KindPlayer  Kind = "player"
	KindHostile Kind = "hostile"
)

// Effect is an active effect on a participant. Reserved: the resolver does
// not apply effects yet, so the list is always empty.
type Effect struct {
	ID       string `json:"id"`
	Duration int    `json:"duration"`
}

// Participant is a combat-scoped snapshot of a player or hostile. It is copied
// into the session at creation and never synchronised back until the session
// ends.
type Participant struct {
	ID        string        `json:"id"`
	Kind      Kind          `json:"type"`
	Name      string        `json:"name"`
	Level     int           `json:"level"`
	Health    int           `json:"health"`
	MaxHealth int           `json:"maxHealth"`
	Mana      int           `json:"mana"`
	MaxMana   int           `json:"maxMana"`
	Stats     monster.Stats `json:"stats"`
	Effects   []Effect      `json:"effects"`
	Alive     bool          `json:"isAlive"`
	Defending bool          `json:"isDefending"`
	// DefinitionID is the monster definition a hostile was instantiated from;
	// empty for players.
	DefinitionID string `json:"definitionId,omitempty"`
	// Fled is true once a hostile has disengaged from the fight.
	Fled bool `json:"fled,omitempty"`
}

// IsPlayer reports whether this participant is the player.
func (p *Participant) IsPlayer() bool { return p.Kind == KindPlayer }

// Active reports whether the participant can still act and be targeted.
//
// Postcondition: Returns true iff Alive and not Fled.
func (p *Participant) Active() bool { return p.Alive && !p.Fled }

// ApplyDamage reduces Health by amount, flooring at zero, and marks the
// participant dead when Health reaches zero.
//
// Precondition: amount >= 0.
// Postcondition: 0 <= Health <= MaxHealth; Alive == (Health > 0).
func (p *Participant) ApplyDamage(amount int) {
	p.Health -= amount
	if p.Health < 0 {
		p.Health = 0
	}
	if p.Health > p.MaxHealth {
		p.Health = p.MaxHealth
	}
	p.Alive = p.Health > 0
}

// HealthFraction returns Health/MaxHealth in [0, 1].
func (p *Participant) HealthFraction() float64 {
	if p.MaxHealth <= 0 {
		return 0
	}
	return float64(p.Health) / float64(p.MaxHealth)
}

// DerivePlayerStats computes a player's combat stat block from level and the
// six base attributes. Health and mana maxima come from the player record.
//
// Postcondition: Returns a stat block using the fixed linear formulas:
//
//	attack        = 10 + 2*STR
//	defense       = 5 + CON + level
//	magic attack  = 10 + 2*INT
//	magic defense = 5 + WIS + level
//	speed         = 10 + DEX
//	crit rate     = 5 + 0.5*CHA
//	crit damage   = 150
//	dodge rate    = 5 + 0.3*DEX
//	hit rate      = 85 + 0.5*DEX
func DerivePlayerStats(level int, maxHealth, maxMana int, a player.Attributes) monster.Stats {
	return monster.Stats{
		MaxHealth:    maxHealth,
		MaxMana:      maxMana,
		Attack:       10 + 2*a.Strength,
		Defense:      5 + a.Constitution + level,
		MagicAttack:  10 + 2*a.Intelligence,
		MagicDefense: 5 + a.Wisdom + level,
		Speed:        10 + a.Dexterity,
		CritRate:     5 + 0.5*float64(a.Charisma),
		CritDamage:   150,
		DodgeRate:    5 + 0.3*float64(a.Dexterity),
		HitRate:      85 + 0.5*float64(a.Dexterity),
	}
}

// NewPlayerParticipant snapshots a player record into a Participant.
//
// Precondition: p must be non-nil.
// Postcondition: Health is clamped to [0, MaxHealth]; Alive == (Health > 0).
func NewPlayerParticipant(p *player.Player) Participant {
	part := Participant{
		ID:        p.ID,
		Kind:      KindPlayer,
		Name:      p.Name,
		Level:     p.Level,
		Health:    clampInt(p.Health, 0, p.MaxHealth),
		MaxHealth: p.MaxHealth,
		Mana:      clampInt(p.Mana, 0, p.MaxMana),
		MaxMana:   p.MaxMana,
		Stats:     DerivePlayerStats(p.Level, p.MaxHealth, p.MaxMana, p.Attributes),
		Effects:   []Effect{},
	}
	part.Alive = part.Health > 0
	return part
}

// NewHostileParticipant instantiates a hostile from a monster definition.
// Stats are copied directly and health starts full.
//
// Precondition: def must be non-nil and valid; id must be non-empty.
func NewHostileParticipant(id string, def *monster.Definition) Participant {
	return Participant{
		ID:           id,
		Kind:         KindHostile,
		Name:         def.Name,
		Level:        def.Level,
		Health:       def.Stats.MaxHealth,
		MaxHealth:    def.Stats.MaxHealth,
		Mana:         def.Stats.MaxMana,
		MaxMana:      def.Stats.MaxMana,
		Stats:        def.Stats,
		Effects:      []Effect{},
		Alive:        true,
		DefinitionID: def.ID,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
