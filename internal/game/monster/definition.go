// Package monster provides the static monster catalog: stat blocks, drop
// tables, and AI thresholds loaded once from YAML at startup.
package monster

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Stats is the combat stat block shared by monster definitions and combat
// participants. Rates are percentages in [0, 100]; CritDamage is a percent
// multiplier (150 means one and a half times damage).
type Stats struct {
	MaxHealth    int     `yaml:"max_health" json:"maxHealth"`
	MaxMana      int     `yaml:"max_mana" json:"maxMana"`
	Attack       int     `yaml:"attack" json:"attack"`
	Defense      int     `yaml:"defense" json:"defense"`
	MagicAttack  int     `yaml:"magic_attack" json:"magicAttack"`
	MagicDefense int     `yaml:"magic_defense" json:"magicDefense"`
	Speed        int     `yaml:"speed" json:"speed"`
	CritRate     float64 `yaml:"crit_rate" json:"critRate"`
	CritDamage   float64 `yaml:"crit_damage" json:"critDamage"`
	DodgeRate    float64 `yaml:"dodge_rate" json:"dodgeRate"`
	HitRate      float64 `yaml:"hit_rate" json:"hitRate"`
}

// AIThresholds tunes the opponent policy for a monster.
type AIThresholds struct {
	// FleeHealthPercent is the health percentage below which the monster may try to flee.
	FleeHealthPercent float64 `yaml:"flee_health_percent" json:"fleeHealthPercent"`
	Aggressiveness    float64 `yaml:"aggressiveness" json:"aggressiveness"`
	// SkillUsageRate is reserved; skills are not resolved yet.
	SkillUsageRate float64 `yaml:"skill_usage_rate" json:"skillUsageRate"`
}

// Definition is an immutable monster archetype.
type Definition struct {
	ID    string       `yaml:"id" json:"id"`
	Name  string       `yaml:"name" json:"name"`
	Level int          `yaml:"level" json:"level"`
	Stats Stats        `yaml:"stats" json:"stats"`
	Drops DropTable    `yaml:"drops" json:"drops"`
	AI    AIThresholds `yaml:"ai" json:"ai"`
}

// Validate checks that the definition satisfies basic invariants.
//
// Precondition: d must not be nil.
// Postcondition: Returns nil iff every field is in range; returns an error on
// the first violation otherwise.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("monster: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("monster %q: name must not be empty", d.ID)
	}
	if d.Level < 1 {
		return fmt.Errorf("monster %q: level must be >= 1", d.ID)
	}
	if err := d.Stats.validate(); err != nil {
		return fmt.Errorf("monster %q: %w", d.ID, err)
	}
	if err := d.Drops.Validate(); err != nil {
		return fmt.Errorf("monster %q: %w", d.ID, err)
	}
	if d.AI.FleeHealthPercent < 0 || d.AI.FleeHealthPercent > 100 {
		return fmt.Errorf("monster %q: ai.flee_health_percent must be in [0, 100], got %v", d.ID, d.AI.FleeHealthPercent)
	}
	return nil
}

func (s Stats) validate() error {
	if s.MaxHealth < 1 {
		return fmt.Errorf("stats.max_health must be >= 1, got %d", s.MaxHealth)
	}
	if s.MaxMana < 0 {
		return fmt.Errorf("stats.max_mana must be >= 0, got %d", s.MaxMana)
	}
	if s.Attack < 0 || s.Defense < 0 || s.MagicAttack < 0 || s.MagicDefense < 0 {
		return fmt.Errorf("stats: attack and defense values must be >= 0")
	}
	if s.Speed < 0 {
		return fmt.Errorf("stats.speed must be >= 0, got %d", s.Speed)
	}
	for name, rate := range map[string]float64{"crit_rate": s.CritRate, "dodge_rate": s.DodgeRate, "hit_rate": s.HitRate} {
		if rate < 0 || rate > 100 {
			return fmt.Errorf("stats.%s must be in [0, 100], got %v", name, rate)
		}
	}
	if s.CritDamage < 100 {
		return fmt.Errorf("stats.crit_damage must be >= 100, got %v", s.CritDamage)
	}
	return nil
}

// LoadDefinitionFromBytes parses a single monster definition from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Definition.
// Postcondition: Returns a validated *Definition, or an error.
func LoadDefinitionFromBytes(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing monster YAML: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadDefinitions reads all *.yaml files in dir and returns the parsed definitions.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all definitions or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadDefinitions(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading monster dir %q: %w", dir, err)
	}
	var defs []*Definition
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		def, err := LoadDefinitionFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Catalog is the read-only registry of monster definitions.
// It is immutable after construction and therefore safe for concurrent use.
type Catalog struct {
	byID    map[string]*Definition
	ordered []*Definition
}

// NewCatalog builds a Catalog from defs.
//
// Precondition: every definition must have passed Validate.
// Postcondition: Returns an error if two definitions share an id.
func NewCatalog(defs []*Definition) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]*Definition, len(defs))}
	for _, d := range defs {
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("monster catalog: duplicate id %q", d.ID)
		}
		c.byID[d.ID] = d
		c.ordered = append(c.ordered, d)
	}
	sort.Slice(c.ordered, func(i, j int) bool { return c.ordered[i].ID < c.ordered[j].ID })
	return c, nil
}

// LoadCatalog loads every definition in dir into a Catalog.
func LoadCatalog(dir string) (*Catalog, error) {
	defs, err := LoadDefinitions(dir)
	if err != nil {
		return nil, err
	}
	return NewCatalog(defs)
}

// Get returns the definition with the given id.
//
// Postcondition: Returns (def, true) if found, or (nil, false) otherwise.
func (c *Catalog) Get(id string) (*Definition, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// All returns every definition ordered by id.
//
// Postcondition: Returns a new slice; callers may not mutate the definitions.
func (c *Catalog) All() []*Definition {
	out := make([]*Definition, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Len returns the number of definitions in the catalog.
func (c *Catalog) Len() int { return len(c.ordered) }
