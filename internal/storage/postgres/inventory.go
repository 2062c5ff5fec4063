package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/mudcombat/internal/game/combat"
)

// InventoryRepository persists per-player item stacks. It implements combat.Inventory.
type InventoryRepository struct {
	db *pgxpool.Pool
}

// NewInventoryRepository creates an InventoryRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewInventoryRepository(db *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// AddItem adds quantity of itemID to the player's inventory, creating the
// stack if needed.
//
// Precondition: itemID must be non-empty; quantity >= 1.
// Postcondition: The stack quantity grows by quantity, or a non-nil error is
// returned. An unknown player yields an error wrapping combat.ErrPlayerNotFound.
func (r *InventoryRepository) AddItem(ctx context.Context, playerID, itemID string, quantity int) error {
	if itemID == "" || quantity < 1 {
		return fmt.Errorf("item %q x%d: %w", itemID, quantity, combat.ErrPreconditionFailed)
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO player_inventory (player_id, item_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_id, item_id)
		DO UPDATE SET quantity = player_inventory.quantity + EXCLUDED.quantity, updated_at = NOW()`,
		playerID, itemID, quantity,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("%q: %w", playerID, combat.ErrPlayerNotFound)
		}
		return fmt.Errorf("adding inventory item: %w", err)
	}
	return nil
}

// Quantities returns the player's item stacks keyed by item id.
//
// Postcondition: Returns a non-nil map (may be empty) or a non-nil error.
func (r *InventoryRepository) Quantities(ctx context.Context, playerID string) (map[string]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT item_id, quantity FROM player_inventory WHERE player_id = $1`, playerID)
	if err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var qty int
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, fmt.Errorf("scanning inventory row: %w", err)
		}
		out[id] = qty
	}
	return out, rows.Err()
}

func isForeignKeyError(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23503"
	}
	return false
}
