package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/mudcombat/internal/game/combat"
	"github.com/cory-johannsen/mudcombat/internal/game/player"
)

// ErrPlayerExists is returned when creating a player whose id is already taken.
var ErrPlayerExists = errors.New("player already exists")

const playerColumns = `id, name, level, experience, health, max_health, mana, max_mana,
	strength, dexterity, constitution, intelligence, wisdom, charisma,
	currency, status, created_at, updated_at`

// PlayerRepository persists player records. It implements combat.PlayerStore
// and combat.Wallet.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository creates a PlayerRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*player.Player, error) {
	var p player.Player
	var status string
	err := row.Scan(
		&p.ID, &p.Name, &p.Level, &p.Experience,
		&p.Health, &p.MaxHealth, &p.Mana, &p.MaxMana,
		&p.Attributes.Strength, &p.Attributes.Dexterity, &p.Attributes.Constitution,
		&p.Attributes.Intelligence, &p.Attributes.Wisdom, &p.Attributes.Charisma,
		&p.Currency, &status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = player.Status(status)
	return &p, nil
}

// Create inserts a new player and returns it with timestamps set.
//
// Precondition: p.ID and p.Name must be non-empty; p.Level >= 1.
// Postcondition: Returns the stored player, or ErrPlayerExists on duplicate id.
func (r *PlayerRepository) Create(ctx context.Context, p *player.Player) (*player.Player, error) {
	status := p.Status
	if status == "" {
		status = player.StatusOnline
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO players
			(id, name, level, experience, health, max_health, mana, max_mana,
			 strength, dexterity, constitution, intelligence, wisdom, charisma,
			 currency, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING `+playerColumns,
		p.ID, p.Name, p.Level, p.Experience, p.Health, p.MaxHealth, p.Mana, p.MaxMana,
		p.Attributes.Strength, p.Attributes.Dexterity, p.Attributes.Constitution,
		p.Attributes.Intelligence, p.Attributes.Wisdom, p.Attributes.Charisma,
		p.Currency, string(status),
	)
	out, err := scanPlayer(row)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrPlayerExists
		}
		return nil, fmt.Errorf("inserting player: %w", err)
	}
	return out, nil
}

// FindByID retrieves a player by id.
//
// Postcondition: Returns the player, or an error wrapping combat.ErrPlayerNotFound.
func (r *PlayerRepository) FindByID(ctx context.Context, id string) (*player.Player, error) {
	p, err := scanPlayer(r.db.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%q: %w", id, combat.ErrPlayerNotFound)
		}
		return nil, fmt.Errorf("querying player: %w", err)
	}
	return p, nil
}

// UpdateStatus sets the player's presence status.
//
// Precondition: status must be valid.
// Postcondition: Returns nil on success or an error wrapping combat.ErrPlayerNotFound.
func (r *PlayerRepository) UpdateStatus(ctx context.Context, id string, status player.Status) error {
	if !status.Valid() {
		return fmt.Errorf("status %q: %w", status, combat.ErrPreconditionFailed)
	}
	return r.exec(ctx, "updating player status", id,
		`UPDATE players SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
}

// UpdateHealth writes the player's current health, clamped to [0, max_health].
//
// Postcondition: Returns nil on success or an error wrapping combat.ErrPlayerNotFound.
func (r *PlayerRepository) UpdateHealth(ctx context.Context, id string, health int) error {
	return r.exec(ctx, "updating player health", id, `
		UPDATE players SET health = LEAST(GREATEST($2, 0), max_health), updated_at = NOW()
		WHERE id = $1`, id, health)
}

// AddCurrency credits amount to the player's wallet. It implements combat.Wallet.
//
// Precondition: amount >= 0.
// Postcondition: Returns nil on success or an error wrapping combat.ErrPlayerNotFound.
func (r *PlayerRepository) AddCurrency(ctx context.Context, id string, amount int) error {
	if amount < 0 {
		return fmt.Errorf("currency amount %d: %w", amount, combat.ErrPreconditionFailed)
	}
	return r.exec(ctx, "adding player currency", id,
		`UPDATE players SET currency = currency + $2, updated_at = NOW() WHERE id = $1`, id, amount)
}

// AddExperience credits experience and applies every level-up it unlocks in a
// single transaction.
//
// Precondition: amount >= 0.
// Postcondition: The stored player reflects player.ApplyExperience, or the
// transaction is rolled back and a non-nil error returned.
func (r *PlayerRepository) AddExperience(ctx context.Context, id string, amount int) error {
	if amount < 0 {
		return fmt.Errorf("experience amount %d: %w", amount, combat.ErrPreconditionFailed)
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning experience transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := scanPlayer(tx.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%q: %w", id, combat.ErrPlayerNotFound)
		}
		return fmt.Errorf("locking player: %w", err)
	}

	player.ApplyExperience(p, amount)

	if _, err := tx.Exec(ctx, `
		UPDATE players
		SET level = $2, experience = $3, health = $4, max_health = $5, mana = $6, max_mana = $7,
		    updated_at = NOW()
		WHERE id = $1`,
		id, p.Level, p.Experience, p.Health, p.MaxHealth, p.Mana, p.MaxMana,
	); err != nil {
		return fmt.Errorf("saving player experience: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing experience transaction: %w", err)
	}
	return nil
}

func (r *PlayerRepository) exec(ctx context.Context, op, id, sql string, args ...any) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%q: %w", id, combat.ErrPlayerNotFound)
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
