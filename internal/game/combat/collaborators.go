package combat

import (
	"context"

	"github.com/cory-johannsen/mudcombat/internal/game/monster"
	"github.com/cory-johannsen/mudcombat/internal/game/player"
)

// Catalog resolves monster definitions by id.
type Catalog interface {
	Get(id string) (*monster.Definition, bool)
}

// PlayerStore is the persistent player record the engine reads at session
// start and writes back when a session ends.
type PlayerStore interface {
	FindByID(ctx context.Context, id string) (*player.Player, error)
	UpdateStatus(ctx context.Context, id string, status player.Status) error
	UpdateHealth(ctx context.Context, id string, health int) error
	// AddExperience credits experience and applies any level-ups.
	AddExperience(ctx context.Context, id string, amount int) error
}

// Inventory receives dropped items.
type Inventory interface {
	AddItem(ctx context.Context, playerID, itemID string, quantity int) error
}

// Wallet receives currency.
type Wallet interface {
	AddCurrency(ctx context.Context, playerID string, amount int) error
}

// Narrator optionally produces the end-of-combat message. Returning ok=false
// keeps the default message.
type Narrator interface {
	NarrateEnd(ctx context.Context, summary EndSummary) (msg string, ok bool)
}

// EndSummary describes a finished session for narration.
type EndSummary struct {
	SessionID  string
	Victory    bool
	PlayerName string
	// Hostiles names the defeated hostiles.
	Hostiles []string
	Experience int
	Currency   int
}
