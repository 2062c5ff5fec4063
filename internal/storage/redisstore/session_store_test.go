package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/mudcombat/internal/config"
	"github.com/cory-johannsen/mudcombat/internal/game/combat"
	"github.com/cory-johannsen/mudcombat/internal/game/monster"
	"github.com/cory-johannsen/mudcombat/internal/game/player"
	"github.com/cory-johannsen/mudcombat/internal/storage/redisstore"
)

var startedAt = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func setupStore(t *testing.T, ttl time.Duration) (*redisstore.SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redisstore.NewClient(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return redisstore.NewSessionStore(client, "combat:session:", ttl), mr
}

func sampleSession(id string) *combat.Session {
	p := combat.NewPlayerParticipant(&player.Player{
		ID: "p1", Name: "Zara", Level: 2, Health: 30, MaxHealth: 40, Mana: 5, MaxMana: 10,
		Attributes: player.Attributes{Strength: 5, Dexterity: 4, Constitution: 3, Intelligence: 2, Wisdom: 1, Charisma: 2},
	})
	h := combat.NewHostileParticipant("wolf-1", &monster.Definition{
		ID: "wolf", Name: "Wolf", Level: 1,
		Stats: monster.Stats{MaxHealth: 25, Attack: 12, Defense: 3, Speed: 14, CritRate: 5, CritDamage: 150, DodgeRate: 5, HitRate: 90},
	})
	s := combat.NewSession(id, []combat.Participant{p, h}, startedAt)
	return s
}

func TestSessionStore_PutGetDelete(t *testing.T) {
	st, mr := setupStore(t, 0)
	ctx := context.Background()
	s := sampleSession("s1")
	s.Participant("wolf-1").ApplyDamage(7)

	require.NoError(t, st.Put(ctx, s))
	assert.True(t, mr.Exists("combat:session:s1"))

	got, err := st.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, s, got)
	assert.Equal(t, 18, got.Participant("wolf-1").Health)

	require.NoError(t, st.Delete(ctx, "s1"))
	_, err = st.Get(ctx, "s1")
	assert.ErrorIs(t, err, combat.ErrSessionNotFound)
	assert.ErrorIs(t, err, combat.ErrNotFound)
}

func TestSessionStore_DeleteUnknownIsNoop(t *testing.T) {
	st, _ := setupStore(t, 0)
	assert.NoError(t, st.Delete(context.Background(), "missing"))
}

func TestSessionStore_RejectsMissingID(t *testing.T) {
	st, _ := setupStore(t, 0)
	assert.ErrorIs(t, st.Put(context.Background(), &combat.Session{}), combat.ErrPreconditionFailed)
}

func TestSessionStore_ExpiresAfterTTL(t *testing.T) {
	st, mr := setupStore(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, st.Put(ctx, sampleSession("s1")))
	assert.Equal(t, time.Minute, mr.TTL("combat:session:s1"))

	mr.FastForward(61 * time.Second)
	_, err := st.Get(ctx, "s1")
	assert.ErrorIs(t, err, combat.ErrSessionNotFound)
}

func TestSessionStore_PutRefreshesTTL(t *testing.T) {
	st, mr := setupStore(t, time.Minute)
	ctx := context.Background()
	s := sampleSession("s1")
	require.NoError(t, st.Put(ctx, s))

	mr.FastForward(45 * time.Second)
	require.NoError(t, st.Put(ctx, s))
	mr.FastForward(45 * time.Second)

	_, err := st.Get(ctx, "s1")
	assert.NoError(t, err)
}

func TestSessionStore_ZeroTTLNeverExpires(t *testing.T) {
	st, mr := setupStore(t, 0)
	require.NoError(t, st.Put(context.Background(), sampleSession("s1")))
	assert.Zero(t, mr.TTL("combat:session:s1"))
}

func TestSessionStore_CorruptPayload(t *testing.T) {
	st, mr := setupStore(t, 0)
	require.NoError(t, mr.Set("combat:session:bad", "{not json"))
	_, err := st.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, combat.ErrNotFound)
}

func TestSessionStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	st := redisstore.NewSessionStore(client, "combat:session:", 0)
	mr.Close()

	assert.Error(t, st.Ping(context.Background()))
	_, err := st.Get(context.Background(), "s1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, combat.ErrNotFound)
}

func TestNewClient_FailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err := redisstore.NewClient(context.Background(), config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}
