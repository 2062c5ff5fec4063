package player_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/mudcombat/internal/game/player"
)

func TestStatus_Valid(t *testing.T) {
	assert.True(t, player.StatusOnline.Valid())
	assert.True(t, player.StatusInCombat.Valid())
	assert.True(t, player.StatusOffline.Valid())
	assert.False(t, player.Status("sleeping").Valid())
}

func TestApplyExperience_NoLevelUp(t *testing.T) {
	p := &player.Player{Level: 1, Experience: 10, Health: 20, MaxHealth: 50}
	gained := player.ApplyExperience(p, 40)
	assert.Equal(t, 0, gained)
	assert.Equal(t, 50, p.Experience)
	assert.Equal(t, 20, p.Health, "health is not refilled without a level-up")
}

func TestApplyExperience_MultipleLevels(t *testing.T) {
	p := &player.Player{Level: 1, Health: 5, MaxHealth: 50, Mana: 0, MaxMana: 20}
	// level 1 -> 2 costs 100, 2 -> 3 costs 200
	gained := player.ApplyExperience(p, 350)
	assert.Equal(t, 2, gained)
	assert.Equal(t, 3, p.Level)
	assert.Equal(t, 50, p.Experience)
	assert.Equal(t, 70, p.MaxHealth)
	assert.Equal(t, 30, p.MaxMana)
	assert.Equal(t, 70, p.Health)
	assert.Equal(t, 30, p.Mana)
}

func TestApplyExperience_IgnoresNonPositive(t *testing.T) {
	p := &player.Player{Level: 2, Experience: 5}
	assert.Equal(t, 0, player.ApplyExperience(p, 0))
	assert.Equal(t, 0, player.ApplyExperience(p, -10))
	assert.Equal(t, 5, p.Experience)
}

func TestProperty_ApplyExperience_ProgressBelowThreshold(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		level := rapid.IntRange(1, 50).Draw(rt, "level")
		amount := rapid.IntRange(0, 100000).Draw(rt, "amount")
		p := &player.Player{Level: level, MaxHealth: 100, Health: 1}
		gained := player.ApplyExperience(p, amount)

		assert.Equal(rt, level+gained, p.Level)
		assert.GreaterOrEqual(rt, p.Experience, 0)
		assert.Less(rt, p.Experience, player.ExperienceToNext(p.Level))
		assert.Equal(rt, 100+gained*player.HealthPerLevel, p.MaxHealth)
	})
}
