package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/mudcombat/internal/game/combat"
	"github.com/cory-johannsen/mudcombat/internal/game/dice"
	"github.com/cory-johannsen/mudcombat/internal/game/monster"
	"github.com/cory-johannsen/mudcombat/internal/game/player"
	"github.com/cory-johannsen/mudcombat/internal/httpapi"
	"github.com/cory-johannsen/mudcombat/internal/testutil"
)

// hero derives attack 20, defense 11, speed 15.
func hero() *player.Player {
	return &player.Player{
		ID: "p1", Name: "Hero", Level: 1,
		Health: 50, MaxHealth: 50, Mana: 10, MaxMana: 10,
		Attributes: player.Attributes{Strength: 5, Dexterity: 5, Constitution: 5, Intelligence: 5, Wisdom: 5},
		Status:     player.StatusOnline,
	}
}

func catalog(t *testing.T) *monster.Catalog {
	t.Helper()
	def := func(id string, maxHealth int, drops monster.DropTable) *monster.Definition {
		return &monster.Definition{
			ID: id, Name: id, Level: 1,
			Stats: monster.Stats{MaxHealth: maxHealth, Attack: 10, Speed: 5, CritDamage: 150, HitRate: 100},
			Drops: drops,
		}
	}
	c, err := monster.NewCatalog([]*monster.Definition{
		def("rat", 10, monster.DropTable{
			Experience: 20, Currency: 7,
			Items: []monster.ItemDrop{{ItemID: "tail", Chance: 100, MinQty: 1, MaxQty: 1}},
		}),
		def("ogre", 200, monster.DropTable{Experience: 100}),
	})
	require.NoError(t, err)
	return c
}

type fixture struct {
	e     *echo.Echo
	fakes *testutil.FakeCollaborators
}

// newFixture serves a real Manager whose every draw is 0.5: the hero always
// hits for 20 and the ogre always answers with a 9 damage hit.
func newFixture(t *testing.T, health httpapi.HealthCheck) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	fakes := testutil.NewFakeCollaborators(hero())
	cat := catalog(t)
	mgr := combat.NewManager(combat.NewMemoryStore(), cat, fakes, fakes, fakes, nil, dice.NewSequenceSource(0.5), logger)
	srv := httpapi.NewServer("127.0.0.1:0", httpapi.NewHandler(mgr, cat, health, logger), logger)
	return &fixture{e: srv.Echo(), fakes: fakes}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func (f *fixture) start(t *testing.T, body string) string {
	t.Helper()
	rec, out := f.do(t, http.MethodPost, "/combat/start", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return out["combat"].(map[string]any)["id"].(string)
}

func TestListMonsters(t *testing.T) {
	f := newFixture(t, nil)
	rec, _ := f.do(t, http.MethodGet, "/combat/monsters", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var defs []monster.Definition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &defs))
	require.Len(t, defs, 2)
	assert.Equal(t, "ogre", defs[0].ID)
	assert.Equal(t, "rat", defs[1].ID)
	assert.Equal(t, 20, defs[1].Drops.Experience)
}

func TestStart_Validation(t *testing.T) {
	f := newFixture(t, nil)
	for name, body := range map[string]string{
		"missing player":  `{"monsterId":"rat"}`,
		"missing monster": `{"playerId":"p1"}`,
		"unknown monster": `{"playerId":"p1","monsterId":"unicorn"}`,
		"unknown player":  `{"playerId":"ghost","monsterId":"rat"}`,
		"malformed":       `{"playerId":`,
	} {
		t.Run(name, func(t *testing.T) {
			rec, out := f.do(t, http.MethodPost, "/combat/start", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, false, out["success"])
			assert.NotEmpty(t, out["message"])
		})
	}
}

func TestStart_ReturnsSnapshot(t *testing.T) {
	f := newFixture(t, nil)
	rec, out := f.do(t, http.MethodPost, "/combat/start", `{"playerId":"p1","monsterId":"rat"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])

	snap := out["combat"].(map[string]any)
	assert.Equal(t, "in_progress", snap["status"])
	assert.Equal(t, float64(1), snap["currentTurn"])
	assert.Equal(t, []any{"p1", "rat-1"}, snap["turnOrder"])
	assert.Equal(t, player.StatusInCombat, f.fakes.Player("p1").Status)
}

func TestStart_MultipleMonsters(t *testing.T) {
	f := newFixture(t, nil)
	_, out := f.do(t, http.MethodPost, "/combat/start", `{"playerId":"p1","monsterIds":["rat","ogre"]}`)
	snap := out["combat"].(map[string]any)
	assert.Equal(t, []any{"p1", "rat-1", "ogre-2"}, snap["turnOrder"])
}

func TestAction_VictoryEndsCombat(t *testing.T) {
	f := newFixture(t, nil)
	id := f.start(t, `{"playerId":"p1","monsterId":"rat"}`)

	rec, out := f.do(t, http.MethodPost, "/combat/action",
		`{"combatId":"`+id+`","playerId":"p1","action":{"actorId":"p1","targetId":"rat-1","type":"attack"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, out["combatEnded"])
	assert.Equal(t, true, out["victory"])
	reward := out["reward"].(map[string]any)
	assert.Equal(t, float64(20), reward["experience"])
	assert.Equal(t, float64(7), reward["currency"])
	results := out["roundResults"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, float64(20), results[0].(map[string]any)["damage"])

	assert.Equal(t, 1, f.fakes.Items("p1")["tail"])
	assert.Equal(t, player.StatusOnline, f.fakes.Player("p1").Status)

	rec, _ = f.do(t, http.MethodGet, "/combat/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAction_RoundContinues(t *testing.T) {
	f := newFixture(t, nil)
	id := f.start(t, `{"playerId":"p1","monsterId":"ogre"}`)

	rec, out := f.do(t, http.MethodPost, "/combat/action",
		`{"combatId":"`+id+`","playerId":"p1","action":{"actorId":"p1","targetId":"ogre-1","type":"attack"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, false, out["combatEnded"])
	assert.NotContains(t, out, "victory")
	assert.NotContains(t, out, "reward")
	assert.Len(t, out["roundResults"].([]any), 2)
	assert.Equal(t, "Round 1 complete.", out["message"])

	rec, snap := f.do(t, http.MethodGet, "/combat/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), snap["currentTurn"])
	parts := snap["participants"].([]any)
	assert.Equal(t, float64(41), parts[0].(map[string]any)["health"])
	assert.Equal(t, float64(180), parts[1].(map[string]any)["health"])
}

func TestAction_Rejections(t *testing.T) {
	f := newFixture(t, nil)
	id := f.start(t, `{"playerId":"p1","monsterId":"ogre"}`)

	for name, body := range map[string]string{
		"wrong actor":     `{"combatId":"` + id + `","playerId":"p1","action":{"actorId":"ogre-1","targetId":"p1","type":"attack"}}`,
		"bad target":      `{"combatId":"` + id + `","playerId":"p1","action":{"actorId":"p1","targetId":"p1","type":"attack"}}`,
		"unknown type":    `{"combatId":"` + id + `","playerId":"p1","action":{"actorId":"p1","type":"dance"}}`,
		"unknown session": `{"combatId":"nope","playerId":"p1","action":{"actorId":"p1","type":"defend"}}`,
		"missing ids":     `{"action":{"actorId":"p1","type":"defend"}}`,
		"malformed":       `{"combatId":`,
	} {
		t.Run(name, func(t *testing.T) {
			rec, out := f.do(t, http.MethodPost, "/combat/action", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, false, out["success"])
		})
	}
}

func TestFlee_Success(t *testing.T) {
	f := newFixture(t, nil)
	id := f.start(t, `{"playerId":"p1","monsterId":"ogre"}`)

	// speed 15 against 5 gives a 70% chance; 0.5 succeeds.
	rec, out := f.do(t, http.MethodPost, "/combat/flee", `{"combatId":"`+id+`","playerId":"p1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, out["success"])
	assert.Equal(t, true, out["fleeSuccessful"])
	assert.Equal(t, true, out["combatEnded"])
	assert.Equal(t, player.StatusOnline, f.fakes.Player("p1").Status)

	rec, _ = f.do(t, http.MethodGet, "/combat/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFlee_Validation(t *testing.T) {
	f := newFixture(t, nil)
	rec, out := f.do(t, http.MethodPost, "/combat/flee", `{"playerId":"p1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, out["success"])

	rec, _ = f.do(t, http.MethodPost, "/combat/flee", `{"combatId":"nope","playerId":"p1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSession_NotFound(t *testing.T) {
	f := newFixture(t, nil)
	rec, out := f.do(t, http.MethodGet, "/combat/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, out["success"])
}

func TestHealth(t *testing.T) {
	rec, out := newFixture(t, nil).do(t, http.MethodGet, "/combat/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])

	failing := func(context.Context) map[string]error {
		return map[string]error{"redis": errors.New("connection refused")}
	}
	rec, out = newFixture(t, failing).do(t, http.MethodGet, "/combat/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", out["status"])
	assert.Equal(t, map[string]any{"redis": "connection refused"}, out["failed"])
}

type brokenEngine struct{}

func (brokenEngine) StartEncounter(context.Context, string, ...string) (*combat.Session, error) {
	return nil, errors.New("redis: connection refused")
}

func (brokenEngine) ExecuteAction(context.Context, string, string, combat.ActionRequest) (*combat.ActionOutcome, error) {
	return nil, errors.New("redis: connection refused")
}

func (brokenEngine) FleeSession(context.Context, string, string) (*combat.ActionOutcome, error) {
	return nil, errors.New("redis: connection refused")
}

func (brokenEngine) Session(context.Context, string) (*combat.Session, error) {
	return nil, errors.New("redis: connection refused")
}

func TestInfrastructureErrorsAre500(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	srv := httpapi.NewServer("127.0.0.1:0", httpapi.NewHandler(brokenEngine{}, catalog(t), nil, logger), logger)
	f := &fixture{e: srv.Echo()}

	rec, out := f.do(t, http.MethodPost, "/combat/start", `{"playerId":"p1","monsterId":"rat"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", out["message"])
	rec, _ = f.do(t, http.MethodGet, "/combat/abc", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	assert.Equal(t, 2, logs.FilterMessage("combat request failed").Len())
	reqs := logs.FilterMessage("http request").All()
	require.Len(t, reqs, 2)
	assert.Equal(t, zap.ErrorLevel, reqs[0].Level)
	assert.Equal(t, int64(500), reqs[0].ContextMap()["status"])
	assert.NotEmpty(t, reqs[0].ContextMap()["request_id"])
}
