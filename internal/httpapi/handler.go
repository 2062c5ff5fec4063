// Package httpapi exposes the combat engine over HTTP with echo.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcombat/internal/game/combat"
	"github.com/cory-johannsen/mudcombat/internal/game/monster"
)

// Engine is the combat surface the handlers drive.
type Engine interface {
	StartEncounter(ctx context.Context, playerID string, monsterIDs ...string) (*combat.Session, error)
	ExecuteAction(ctx context.Context, sessionID, playerID string, action combat.ActionRequest) (*combat.ActionOutcome, error)
	FleeSession(ctx context.Context, sessionID, playerID string) (*combat.ActionOutcome, error)
	Session(ctx context.Context, id string) (*combat.Session, error)
}

// Monsters lists the loaded monster catalog.
type Monsters interface {
	All() []*monster.Definition
}

// HealthCheck runs dependency probes and returns the failing ones by name.
type HealthCheck func(ctx context.Context) map[string]error

// Handler serves the /combat routes.
type Handler struct {
	engine   Engine
	monsters Monsters
	health   HealthCheck
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandler creates a Handler. health may be nil, in which case /combat/health
// always reports ok.
//
// Precondition: engine, monsters, and logger must be non-nil.
func NewHandler(engine Engine, monsters Monsters, health HealthCheck, logger *zap.Logger) *Handler {
	return &Handler{
		engine:   engine,
		monsters: monsters,
		health:   health,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterRoutes registers the combat routes on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/combat")
	g.GET("/monsters", h.ListMonsters)
	g.GET("/health", h.Health)
	g.POST("/start", h.Start)
	g.POST("/action", h.Action)
	g.POST("/flee", h.Flee)
	g.GET("/:combatId", h.GetSession)
}

// StartRequest is the body of POST /combat/start. MonsterIDs, when present,
// starts a multi-hostile encounter and takes precedence over MonsterID.
type StartRequest struct {
	PlayerID   string   `json:"playerId"`
	MonsterID  string   `json:"monsterId"`
	MonsterIDs []string `json:"monsterIds,omitempty"`
}

// ActionRequest is the body of POST /combat/action.
type ActionRequest struct {
	CombatID string     `json:"combatId"`
	PlayerID string     `json:"playerId"`
	Action   ActionBody `json:"action"`
}

// FleeRequest is the body of POST /combat/flee.
type FleeRequest struct {
	CombatID string `json:"combatId"`
	PlayerID string `json:"playerId"`
}

// Response is the envelope returned by start and action.
type Response struct {
	Success      bool                  `json:"success"`
	Message      string                `json:"message"`
	Combat       *combat.Session       `json:"combat,omitempty"`
	RoundResults []combat.ActionResult `json:"roundResults,omitempty"`
	CombatEnded  *bool                 `json:"combatEnded,omitempty"`
	Victory      *bool                 `json:"victory,omitempty"`
	Reward       *combat.Reward        `json:"reward,omitempty"`
}

// FleeResponse is returned by POST /combat/flee.
type FleeResponse struct {
	Success        bool                  `json:"success"`
	Message        string                `json:"message"`
	FleeSuccessful bool                  `json:"fleeSuccessful"`
	RoundResults   []combat.ActionResult `json:"roundResults,omitempty"`
	CombatEnded    bool                  `json:"combatEnded"`
}

// ListMonsters returns every monster definition.
// GET /combat/monsters
func (h *Handler) ListMonsters(c echo.Context) error {
	return c.JSON(http.StatusOK, h.monsters.All())
}

// Health reports dependency status.
// GET /combat/health
func (h *Handler) Health(c echo.Context) error {
	if h.health == nil {
		return c.JSON(http.StatusOK, map[string]any{"status": "ok"})
	}
	failed := h.health(c.Request().Context())
	if len(failed) == 0 {
		return c.JSON(http.StatusOK, map[string]any{"status": "ok"})
	}
	deps := make(map[string]string, len(failed))
	for name, err := range failed {
		deps[name] = err.Error()
	}
	return c.JSON(http.StatusServiceUnavailable, map[string]any{"status": "degraded", "failed": deps})
}

// Start begins a combat session.
// POST /combat/start
func (h *Handler) Start(c echo.Context) error {
	var req StartRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, http.StatusBadRequest, "invalid request body")
	}
	monsterIDs := req.MonsterIDs
	if len(monsterIDs) == 0 && req.MonsterID != "" {
		monsterIDs = []string{req.MonsterID}
	}
	if req.PlayerID == "" || len(monsterIDs) == 0 {
		return h.fail(c, http.StatusBadRequest, "playerId and monsterId are required")
	}

	s, err := h.engine.StartEncounter(c.Request().Context(), req.PlayerID, monsterIDs...)
	if err != nil {
		return h.failErr(c, err, false)
	}
	return c.JSON(http.StatusOK, Response{Success: true, Message: "Combat started.", Combat: s})
}

// Action resolves one player action and the hostile responses.
// POST /combat/action
func (h *Handler) Action(c echo.Context) error {
	var req ActionRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.CombatID == "" || req.PlayerID == "" {
		return h.fail(c, http.StatusBadRequest, "combatId and playerId are required")
	}
	out, err := h.engine.ExecuteAction(c.Request().Context(), req.CombatID, req.PlayerID, req.Action.request(h.now()))
	if err != nil {
		return h.failErr(c, err, false)
	}
	h.logSettlement(req.CombatID, out)

	resp := Response{
		Success:      true,
		Message:      out.Message,
		Combat:       out.Session,
		RoundResults: out.Results,
		CombatEnded:  &out.Ended,
	}
	if out.Ended {
		resp.Victory = &out.Victory
		resp.Reward = out.Reward
	}
	return c.JSON(http.StatusOK, resp)
}

// Flee attempts to escape combat.
// POST /combat/flee
func (h *Handler) Flee(c echo.Context) error {
	var req FleeRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.CombatID == "" || req.PlayerID == "" {
		return h.fail(c, http.StatusBadRequest, "combatId and playerId are required")
	}

	out, err := h.engine.FleeSession(c.Request().Context(), req.CombatID, req.PlayerID)
	if err != nil {
		return h.failErr(c, err, false)
	}
	h.logSettlement(req.CombatID, out)
	return c.JSON(http.StatusOK, FleeResponse{
		Success:        true,
		Message:        out.Message,
		FleeSuccessful: out.Fled,
		RoundResults:   out.Results,
		CombatEnded:    out.Ended,
	})
}

// GetSession returns a session snapshot.
// GET /combat/:combatId
func (h *Handler) GetSession(c echo.Context) error {
	s, err := h.engine.Session(c.Request().Context(), c.Param("combatId"))
	if err != nil {
		return h.failErr(c, err, true)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, Response{Success: false, Message: msg})
}

// failErr maps engine errors to responses. Domain errors become 400, or 404
// for a missing resource when notFound404 is set; anything else is a 500.
func (h *Handler) failErr(c echo.Context, err error, notFound404 bool) error {
	switch {
	case notFound404 && errors.Is(err, combat.ErrNotFound):
		return h.fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, combat.ErrNotFound),
		errors.Is(err, combat.ErrInvalidActor),
		errors.Is(err, combat.ErrInvalidState),
		errors.Is(err, combat.ErrPreconditionFailed):
		return h.fail(c, http.StatusBadRequest, err.Error())
	}
	h.logger.Error("combat request failed",
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return h.fail(c, http.StatusInternalServerError, "internal error")
}

func (h *Handler) logSettlement(sessionID string, out *combat.ActionOutcome) {
	if out.SettleErr != nil {
		h.logger.Warn("combat ended with unsettled rewards",
			zap.String("session_id", sessionID),
			zap.Error(out.SettleErr),
		)
	}
}
