package combat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcombat/internal/game/player"
)

// ActionOutcome is the result of one ExecuteAction or FleeSession request.
type ActionOutcome struct {
	// Results holds every action resolved during the request, player first.
	Results []ActionResult
	// Session is the post-request snapshot. For an ended session it is the
	// final state; the session itself is already gone from the Store.
	Session *Session
	Ended   bool
	Victory bool
	// Fled is true when the player escaped.
	Fled bool
	// Reward is non-nil iff Victory.
	Reward  *Reward
	Message string
	// SettleErr joins every collaborator failure seen while ending the
	// session. Those failures never abort the request.
	SettleErr error
}

// Manager orchestrates combat sessions: it validates requests, drives the
// resolver and opponent policy, detects termination, and settles rewards with
// the external collaborators.
//
// Requests addressed to the same session id are serialised; requests for
// different sessions run independently.
type Manager struct {
	store     Store
	catalog   Catalog
	players   PlayerStore
	inventory Inventory
	wallet    Wallet
	narrator  Narrator
	src       Source
	resolver  *Resolver
	locks     *sessionLocks
	logger    *zap.Logger
	now       func() time.Time
}

// NewManager creates a Manager.
//
// Precondition: every argument except narrator must be non-nil. A nil
// narrator keeps the default end messages.
// Postcondition: Returns a Manager ready for use.
func NewManager(store Store, catalog Catalog, players PlayerStore, inventory Inventory, wallet Wallet, narrator Narrator, src Source, logger *zap.Logger) *Manager {
	return &Manager{
		store:     store,
		catalog:   catalog,
		players:   players,
		inventory: inventory,
		wallet:    wallet,
		narrator:  narrator,
		src:       src,
		resolver:  NewResolver(src),
		locks:     newSessionLocks(),
		logger:    logger,
		now:       time.Now,
	}
}

// StartSession starts combat between a player and a single monster.
//
// Precondition: playerID and monsterID must be non-empty.
// Postcondition: See StartEncounter.
func (m *Manager) StartSession(ctx context.Context, playerID, monsterID string) (*Session, error) {
	return m.StartEncounter(ctx, playerID, monsterID)
}

// StartEncounter starts combat between a player and one hostile per monster id.
// The same monster id may appear more than once.
//
// Precondition: playerID must be non-empty; at least one monster id is required.
// Postcondition: On success the session is in the Store with status
// in_progress, turn 1, and a frozen turn order, and the player's status is
// in_combat. Unknown ids return errors wrapping ErrNotFound.
func (m *Manager) StartEncounter(ctx context.Context, playerID string, monsterIDs ...string) (*Session, error) {
	if playerID == "" {
		return nil, fmt.Errorf("%w: playerId is required", ErrPreconditionFailed)
	}
	if len(monsterIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one monsterId is required", ErrPreconditionFailed)
	}

	hostiles := make([]Participant, 0, len(monsterIDs))
	for i, id := range monsterIDs {
		if id == "" {
			return nil, fmt.Errorf("%w: monsterId is required", ErrPreconditionFailed)
		}
		def, ok := m.catalog.Get(id)
		if !ok {
			return nil, fmt.Errorf("monster %q: %w", id, ErrNotFound)
		}
		hostiles = append(hostiles, NewHostileParticipant(fmt.Sprintf("%s-%d", def.ID, i+1), def))
	}

	p, err := m.players.FindByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("loading player %q: %w", playerID, err)
	}
	pp := NewPlayerParticipant(p)
	if !pp.Alive {
		return nil, fmt.Errorf("%w: player %q has no health", ErrInvalidActor, playerID)
	}

	s := NewSession(uuid.NewString(), append([]Participant{pp}, hostiles...), m.now())
	if err := m.store.Put(ctx, s); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}
	if err := m.players.UpdateStatus(ctx, playerID, player.StatusInCombat); err != nil {
		if delErr := m.store.Delete(context.WithoutCancel(ctx), s.ID); delErr != nil {
			m.logger.Error("dropping session after status failure", zap.String("session_id", s.ID), zap.Error(delErr))
		}
		return nil, fmt.Errorf("marking player %q in combat: %w", playerID, err)
	}

	m.logger.Info("combat session started",
		zap.String("session_id", s.ID),
		zap.String("player_id", playerID),
		zap.Strings("monsters", monsterIDs),
		zap.Strings("turn_order", s.TurnOrder),
	)
	return s.Clone(), nil
}

// Session returns a snapshot of the session stored under id.
//
// Postcondition: Returns an error wrapping ErrNotFound if id is unknown.
func (m *Manager) Session(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: combatId is required", ErrPreconditionFailed)
	}
	return m.store.Get(ctx, id)
}

// ExecuteAction resolves the player's action and then one action for each
// active hostile, in participant order. Termination is checked after every
// single action; once combat is over no further action is resolved. A flee
// action is handled as FleeSession.
//
// Precondition: the session must exist and be in progress; action.ActorID must
// equal playerID and name the living player.
// Postcondition: If the request did not end combat, one round is appended to
// history and the turn counter advances by one. If it did, the session has
// been removed from the Store.
func (m *Manager) ExecuteAction(ctx context.Context, sessionID, playerID string, action ActionRequest) (*ActionOutcome, error) {
	if err := action.Validate(); err != nil {
		return nil, err
	}
	unlock, s, actor, err := m.acquire(ctx, sessionID, playerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if action.ActorID != playerID {
		return nil, fmt.Errorf("%w: actor %q is not player %q", ErrInvalidActor, action.ActorID, playerID)
	}
	if action.Kind == ActionFlee {
		return m.flee(ctx, s, actor)
	}

	var first ActionResult
	switch action.Kind {
	case ActionAttack:
		target := s.Participant(action.TargetID)
		if target == nil || target.IsPlayer() || !target.Active() {
			return nil, fmt.Errorf("%w: %q is not an active hostile", ErrInvalidActor, action.TargetID)
		}
		first = m.resolver.Attack(actor, target, DamagePhysical)
	case ActionDefend:
		first = m.resolver.Defend(actor)
	}

	results := []ActionResult{first}
	if s.CheckEnded() {
		return m.finish(ctx, s, actor, results), nil
	}

	for _, h := range s.ActiveHostiles() {
		if !h.Active() {
			continue
		}
		def, _ := m.catalog.Get(h.DefinitionID)
		req := ChooseAction(s, h, def, m.src, m.now())
		results = append(results, m.resolveHostile(s, h, req))
		if s.CheckEnded() {
			return m.finish(ctx, s, actor, results), nil
		}
	}

	return m.advance(ctx, s, results)
}

// FleeSession attempts to escape combat. On success the session is removed
// and the player returns to normal status with no hostile retaliation. On
// failure every active hostile gets one free physical attack on the player;
// if the player dies the session ends in defeat.
//
// Precondition: the session must exist and be in progress; playerID must name
// its living player.
func (m *Manager) FleeSession(ctx context.Context, sessionID, playerID string) (*ActionOutcome, error) {
	unlock, s, actor, err := m.acquire(ctx, sessionID, playerID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return m.flee(ctx, s, actor)
}

// acquire validates ids, locks the session, loads it, and resolves the
// requesting player. On error the lock is already released.
func (m *Manager) acquire(ctx context.Context, sessionID, playerID string) (func(), *Session, *Participant, error) {
	if sessionID == "" || playerID == "" {
		return nil, nil, nil, fmt.Errorf("%w: combatId and playerId are required", ErrPreconditionFailed)
	}
	unlock := m.locks.lock(sessionID)
	s, err := m.store.Get(ctx, sessionID)
	if err != nil {
		unlock()
		return nil, nil, nil, err
	}
	if s.Status != StatusInProgress {
		unlock()
		return nil, nil, nil, fmt.Errorf("%w: session %q is %s", ErrInvalidState, sessionID, s.Status)
	}
	actor := s.Participant(playerID)
	if actor == nil || !actor.IsPlayer() {
		unlock()
		return nil, nil, nil, fmt.Errorf("%w: %q is not the player of session %q", ErrInvalidActor, playerID, sessionID)
	}
	if !actor.Alive {
		unlock()
		return nil, nil, nil, fmt.Errorf("%w: player %q is dead", ErrInvalidActor, playerID)
	}
	return unlock, s, actor, nil
}

// resolveHostile applies a policy decision for hostile h.
func (m *Manager) resolveHostile(s *Session, h *Participant, req ActionRequest) ActionResult {
	switch req.Kind {
	case ActionFlee:
		return m.resolver.Flee(s, h)
	case ActionAttack:
		if target := s.Participant(req.TargetID); target != nil && target.Active() {
			return m.resolver.Attack(h, target, DamagePhysical)
		}
	}
	return m.resolver.Defend(h)
}

func (m *Manager) flee(ctx context.Context, s *Session, actor *Participant) (*ActionOutcome, error) {
	res := m.resolver.Flee(s, actor)
	results := []ActionResult{res}

	if res.Success {
		bg := context.WithoutCancel(ctx)
		var errs []error
		errs = m.settle(errs, s, "update_health", m.players.UpdateHealth(bg, actor.ID, actor.Health))
		errs = m.settle(errs, s, "update_status", m.players.UpdateStatus(bg, actor.ID, player.StatusOnline))
		errs = m.settle(errs, s, "delete_session", m.store.Delete(bg, s.ID))
		m.logger.Info("player fled combat", zap.String("session_id", s.ID), zap.String("player_id", actor.ID))
		return &ActionOutcome{
			Results:   results,
			Session:   s.Clone(),
			Ended:     true,
			Fled:      true,
			Message:   res.Message,
			SettleErr: errors.Join(errs...),
		}, nil
	}

	for _, h := range s.ActiveHostiles() {
		results = append(results, m.resolver.Attack(h, actor, DamagePhysical))
		if s.CheckEnded() {
			return m.finish(ctx, s, actor, results), nil
		}
	}
	out, err := m.advance(ctx, s, results)
	if err != nil {
		return nil, err
	}
	out.Message = res.Message
	return out, nil
}

// advance records a completed exchange that did not end combat.
func (m *Manager) advance(ctx context.Context, s *Session, results []ActionResult) (*ActionOutcome, error) {
	s.appendRound(results, m.now())
	if err := m.store.Put(ctx, s); err != nil {
		return nil, fmt.Errorf("storing session %q: %w", s.ID, err)
	}
	return &ActionOutcome{
		Results: results,
		Session: s.Clone(),
		Message: fmt.Sprintf("Round %d complete.", s.Turn-1),
	}, nil
}

// finish ends combat: it records the final exchange, determines victory,
// settles rewards with the collaborators, and removes the session.
//
// Postcondition: s.Status is completed and s is absent from the Store, even
// when collaborator calls fail.
func (m *Manager) finish(ctx context.Context, s *Session, actor *Participant, results []ActionResult) *ActionOutcome {
	s.appendRound(results, m.now())
	s.Status = StatusCompleted

	bg := context.WithoutCancel(ctx)
	victory := actor.Alive
	out := &ActionOutcome{Results: results, Ended: true, Victory: victory}
	var errs []error

	if victory {
		reward := CalculateReward(s, m.catalog, m.src)
		out.Reward = &reward
		errs = m.settle(errs, s, "update_health", m.players.UpdateHealth(bg, actor.ID, actor.Health))
		if reward.Experience > 0 {
			errs = m.settle(errs, s, "add_experience", m.players.AddExperience(bg, actor.ID, reward.Experience))
		}
		for _, it := range reward.Items {
			errs = m.settle(errs, s, "add_item", m.inventory.AddItem(bg, actor.ID, it.ItemID, it.Quantity))
		}
		if reward.Currency > 0 {
			errs = m.settle(errs, s, "add_currency", m.wallet.AddCurrency(bg, actor.ID, reward.Currency))
		}
	} else {
		errs = m.settle(errs, s, "update_health", m.players.UpdateHealth(bg, actor.ID, 1))
	}
	errs = m.settle(errs, s, "update_status", m.players.UpdateStatus(bg, actor.ID, player.StatusOnline))
	errs = m.settle(errs, s, "delete_session", m.store.Delete(bg, s.ID))

	out.Session = s.Clone()
	out.SettleErr = errors.Join(errs...)
	out.Message = m.endMessage(bg, s, actor, out.Reward)

	fields := []zap.Field{
		zap.String("session_id", s.ID),
		zap.String("player_id", actor.ID),
		zap.Bool("victory", victory),
		zap.Int("rounds", len(s.History)),
	}
	if out.Reward != nil {
		fields = append(fields, zap.Int("experience", out.Reward.Experience), zap.Int("currency", out.Reward.Currency))
	}
	m.logger.Info("combat session ended", fields...)
	return out
}

// settle records a failed collaborator step and carries on.
func (m *Manager) settle(errs []error, s *Session, step string, err error) []error {
	if err == nil {
		return errs
	}
	p := s.Player()
	playerID := ""
	if p != nil {
		playerID = p.ID
	}
	m.logger.Error("combat settlement step failed",
		zap.String("session_id", s.ID),
		zap.String("player_id", playerID),
		zap.String("step", step),
		zap.Error(err),
	)
	return append(errs, fmt.Errorf("%s: %w", step, err))
}

func (m *Manager) endMessage(ctx context.Context, s *Session, actor *Participant, reward *Reward) string {
	summary := EndSummary{
		SessionID:  s.ID,
		Victory:    actor.Alive,
		PlayerName: actor.Name,
	}
	for i := range s.Participants {
		if !s.Participants[i].IsPlayer() && !s.Participants[i].Alive {
			summary.Hostiles = append(summary.Hostiles, s.Participants[i].Name)
		}
	}
	if reward != nil {
		summary.Experience = reward.Experience
		summary.Currency = reward.Currency
	}
	if m.narrator != nil {
		if msg, ok := m.narrator.NarrateEnd(ctx, summary); ok {
			return msg
		}
	}
	if !summary.Victory {
		return "You have been defeated..."
	}
	msg := "Victory! Your foes have fled."
	if len(summary.Hostiles) > 0 {
		msg = fmt.Sprintf("Victory! You defeated %s.", strings.Join(summary.Hostiles, ", "))
	}
	if reward != nil {
		msg += fmt.Sprintf(" Gained %d experience and %d currency.", reward.Experience, reward.Currency)
	}
	return msg
}
