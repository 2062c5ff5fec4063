// Package player defines the persistent player record consumed by the combat
// engine and the pure leveling rule applied when experience is awarded.
package player

import "time"

// Status is the player's presence state as seen by the rest of the world.
type Status string

const (
	StatusOnline   Status = "online"
	StatusInCombat Status = "in_combat"
	StatusOffline  Status = "offline"
)

// Valid reports whether s is a recognised status.
func (s Status) Valid() bool {
	switch s {
	case StatusOnline, StatusInCombat, StatusOffline:
		return true
	}
	return false
}

// Attributes holds the six base attribute scores of a player.
type Attributes struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// Player is a player's persistent state.
type Player struct {
	ID         string
	Name       string
	Level      int
	Experience int
	Health     int
	MaxHealth  int
	Mana       int
	MaxMana    int
	Attributes Attributes
	Currency   int
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

const (
	// HealthPerLevel is the max health gained on each level-up.
	HealthPerLevel = 10
	// ManaPerLevel is the max mana gained on each level-up.
	ManaPerLevel = 5
)

// ExperienceToNext returns the experience needed to advance from level.
//
// Precondition: level >= 1.
// Postcondition: Returns 100*level.
func ExperienceToNext(level int) int {
	return 100 * level
}

// ApplyExperience adds amount experience to p and performs every level-up it
// unlocks. Experience is stored as progress toward the next level.
//
// Precondition: p must be non-nil; p.Level >= 1; amount >= 0.
// Postcondition: 0 <= p.Experience < ExperienceToNext(p.Level); each level
// gained raises MaxHealth by HealthPerLevel and MaxMana by ManaPerLevel and
// refills Health and Mana. Returns the number of levels gained.
func ApplyExperience(p *Player, amount int) int {
	if amount <= 0 {
		return 0
	}
	p.Experience += amount
	gained := 0
	for p.Experience >= ExperienceToNext(p.Level) {
		p.Experience -= ExperienceToNext(p.Level)
		p.Level++
		p.MaxHealth += HealthPerLevel
		p.MaxMana += ManaPerLevel
		gained++
	}
	if gained > 0 {
		p.Health = p.MaxHealth
		p.Mana = p.MaxMana
	}
	return gained
}
