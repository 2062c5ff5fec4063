package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/cory-johannsen/mudcombat/internal/game/combat"
	"github.com/cory-johannsen/mudcombat/internal/game/player"
)

// Call records one collaborator invocation.
type Call struct {
	Method   string
	PlayerID string
	Arg      string
	Amount   int
}

// FakeCollaborators is an in-memory PlayerStore, Inventory, and Wallet that
// records every call in order. Methods listed in Fail return an error without
// changing state.
type FakeCollaborators struct {
	mu      sync.Mutex
	players map[string]*player.Player
	items   map[string]map[string]int
	calls   []Call
	// Fail maps a method name (for example "AddItem") to the error it returns.
	Fail map[string]error
}

// NewFakeCollaborators creates fakes seeded with copies of players.
func NewFakeCollaborators(players ...*player.Player) *FakeCollaborators {
	f := &FakeCollaborators{
		players: make(map[string]*player.Player),
		items:   make(map[string]map[string]int),
		Fail:    make(map[string]error),
	}
	for _, p := range players {
		cp := *p
		f.players[p.ID] = &cp
	}
	return f
}

func (f *FakeCollaborators) record(c Call) error {
	f.calls = append(f.calls, c)
	return f.Fail[c.Method]
}

// FindByID implements combat.PlayerStore.
func (f *FakeCollaborators) FindByID(_ context.Context, id string) (*player.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: "FindByID", PlayerID: id}); err != nil {
		return nil, err
	}
	p, ok := f.players[id]
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, combat.ErrPlayerNotFound)
	}
	cp := *p
	return &cp, nil
}

// UpdateStatus implements combat.PlayerStore.
func (f *FakeCollaborators) UpdateStatus(_ context.Context, id string, status player.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: "UpdateStatus", PlayerID: id, Arg: string(status)}); err != nil {
		return err
	}
	p, ok := f.players[id]
	if !ok {
		return fmt.Errorf("%q: %w", id, combat.ErrPlayerNotFound)
	}
	p.Status = status
	return nil
}

// UpdateHealth implements combat.PlayerStore.
func (f *FakeCollaborators) UpdateHealth(_ context.Context, id string, health int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: "UpdateHealth", PlayerID: id, Amount: health}); err != nil {
		return err
	}
	p, ok := f.players[id]
	if !ok {
		return fmt.Errorf("%q: %w", id, combat.ErrPlayerNotFound)
	}
	p.Health = health
	return nil
}

// AddExperience implements combat.PlayerStore.
func (f *FakeCollaborators) AddExperience(_ context.Context, id string, amount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: "AddExperience", PlayerID: id, Amount: amount}); err != nil {
		return err
	}
	p, ok := f.players[id]
	if !ok {
		return fmt.Errorf("%q: %w", id, combat.ErrPlayerNotFound)
	}
	player.ApplyExperience(p, amount)
	return nil
}

// AddItem implements combat.Inventory.
func (f *FakeCollaborators) AddItem(_ context.Context, playerID, itemID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: "AddItem", PlayerID: playerID, Arg: itemID, Amount: quantity}); err != nil {
		return err
	}
	if f.items[playerID] == nil {
		f.items[playerID] = make(map[string]int)
	}
	f.items[playerID][itemID] += quantity
	return nil
}

// AddCurrency implements combat.Wallet.
func (f *FakeCollaborators) AddCurrency(_ context.Context, playerID string, amount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: "AddCurrency", PlayerID: playerID, Amount: amount}); err != nil {
		return err
	}
	p, ok := f.players[playerID]
	if !ok {
		return fmt.Errorf("%q: %w", playerID, combat.ErrPlayerNotFound)
	}
	p.Currency += amount
	return nil
}

// Player returns a copy of the stored player, or nil.
func (f *FakeCollaborators) Player(id string) *player.Player {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// Items returns a copy of the player's inventory.
func (f *FakeCollaborators) Items(playerID string) map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int, len(f.items[playerID]))
	for k, v := range f.items[playerID] {
		out[k] = v
	}
	return out
}

// Calls returns the recorded calls in order.
func (f *FakeCollaborators) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call{}, f.calls...)
}

// Methods returns the method names of the recorded calls in order.
func (f *FakeCollaborators) Methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Method
	}
	return out
}
