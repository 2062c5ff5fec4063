// Package app assembles the combat service from configuration. Its providers
// are consumed by the wire injector in cmd/combatd.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcombat/internal/config"
	"github.com/cory-johannsen/mudcombat/internal/game/combat"
	"github.com/cory-johannsen/mudcombat/internal/game/dice"
	"github.com/cory-johannsen/mudcombat/internal/game/monster"
	"github.com/cory-johannsen/mudcombat/internal/httpapi"
	"github.com/cory-johannsen/mudcombat/internal/observability"
	"github.com/cory-johannsen/mudcombat/internal/scripting"
	"github.com/cory-johannsen/mudcombat/internal/server"
	"github.com/cory-johannsen/mudcombat/internal/storage/postgres"
	"github.com/cory-johannsen/mudcombat/internal/storage/redisstore"
)

// ServiceName tags every log entry of the combat daemon.
const ServiceName = "combatd"

// healthInterval is how often dependency probes run.
const healthInterval = 30 * time.Second

// ProviderSet is the full provider graph for the combat daemon.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideSource,
	ProvideCatalog,
	ProvidePool,
	ProvidePlayerRepository,
	ProvideInventoryRepository,
	ProvideSessionStore,
	ProvideNarrator,
	ProvideManager,
	ProvideHealthService,
	ProvideHandler,
	ProvideHTTPServer,
	NewApp,
)

// ProvideLogger builds the process logger.
func ProvideLogger(cfg config.Config) (*zap.Logger, func(), error) {
	logger, err := observability.NewLogger(cfg.Logging, ServiceName)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideSource selects the random source named by combat.rng. With
// combat.log_draws every draw is logged at debug level.
func ProvideSource(cfg config.Config, logger *zap.Logger) dice.Source {
	var src dice.Source
	switch cfg.Combat.RNG {
	case "seeded":
		logger.Warn("using seeded random source", zap.Int64("seed", cfg.Combat.Seed))
		src = dice.NewSeededSource(cfg.Combat.Seed)
	default:
		src = dice.NewCryptoSource()
	}
	if cfg.Combat.LogDraws {
		return dice.NewLoggedSource(src, logger)
	}
	return src
}

// ProvideCatalog loads every monster definition from combat.monsters_dir.
func ProvideCatalog(cfg config.Config, logger *zap.Logger) (*monster.Catalog, error) {
	start := time.Now()
	cat, err := monster.LoadCatalog(cfg.Combat.MonstersDir)
	if err != nil {
		return nil, fmt.Errorf("loading monster catalog: %w", err)
	}
	logger.Info("loaded monster catalog",
		zap.Int("count", cat.Len()),
		zap.String("dir", cfg.Combat.MonstersDir),
		zap.Duration("elapsed", time.Since(start)),
	)
	return cat, nil
}

// ProvidePool connects to PostgreSQL.
func ProvidePool(ctx context.Context, cfg config.Config, logger *zap.Logger) (*postgres.Pool, func(), error) {
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	logger.Info("connected to database", zap.String("host", cfg.Database.Host), zap.String("name", cfg.Database.Name))
	return pool, pool.Close, nil
}

// ProvidePlayerRepository provides the player store and wallet.
func ProvidePlayerRepository(pool *postgres.Pool) *postgres.PlayerRepository {
	return postgres.NewPlayerRepository(pool.DB())
}

// ProvideInventoryRepository provides the inventory collaborator.
func ProvideInventoryRepository(pool *postgres.Pool) *postgres.InventoryRepository {
	return postgres.NewInventoryRepository(pool.DB())
}

// ProvideSessionStore selects the session store named by combat.store.
func ProvideSessionStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (combat.Store, func(), error) {
	switch cfg.Combat.Store {
	case "redis":
		client, err := redisstore.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		logger.Info("using redis session store",
			zap.String("addr", cfg.Redis.Addr),
			zap.Duration("ttl", cfg.Combat.SessionTTL),
		)
		st := redisstore.NewSessionStore(client, cfg.Redis.KeyPrefix, cfg.Combat.SessionTTL)
		return st, func() { _ = client.Close() }, nil
	default:
		logger.Info("using in-memory session store")
		return combat.NewMemoryStore(), func() {}, nil
	}
}

// ProvideNarrator loads the Lua narration hooks. Narration is disabled, and
// nil returned, when combat.scripts_dir is empty or absent.
func ProvideNarrator(cfg config.Config, logger *zap.Logger) (combat.Narrator, func(), error) {
	dir := cfg.Combat.ScriptsDir
	if dir == "" {
		return nil, func() {}, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		logger.Info("combat scripts dir not found, narration disabled", zap.String("dir", dir))
		return nil, func() {}, nil
	}
	n, err := scripting.NewNarrator(dir, 0, logger)
	if err != nil {
		return nil, nil, err
	}
	return n, n.Close, nil
}

// ProvideManager builds the combat session manager.
func ProvideManager(
	store combat.Store,
	catalog *monster.Catalog,
	players *postgres.PlayerRepository,
	inventory *postgres.InventoryRepository,
	narrator combat.Narrator,
	src dice.Source,
	logger *zap.Logger,
) *combat.Manager {
	return combat.NewManager(store, catalog, players, inventory, players, narrator, src, logger)
}

// pinger is implemented by stores with a remote backend.
type pinger interface {
	Ping(ctx context.Context) error
}

// ProvideHealthService builds the gRPC health service with probes for every
// remote dependency.
func ProvideHealthService(cfg config.Config, pool *postgres.Pool, store combat.Store, logger *zap.Logger) *server.HealthService {
	hs := server.NewHealthService(cfg.Server.GRPCAddr(), healthInterval, logger)
	hs.AddProbe("postgres", func(ctx context.Context) error {
		return pool.Health(ctx, 5*time.Second)
	})
	if p, ok := store.(pinger); ok {
		hs.AddProbe("redis", p.Ping)
	}
	return hs
}

// ProvideHandler builds the HTTP handler; /combat/health runs the same probes
// as the gRPC health service.
func ProvideHandler(mgr *combat.Manager, catalog *monster.Catalog, hs *server.HealthService, logger *zap.Logger) *httpapi.Handler {
	return httpapi.NewHandler(mgr, catalog, hs.Check, logger)
}

// ProvideHTTPServer builds the echo server.
func ProvideHTTPServer(cfg config.Config, h *httpapi.Handler, logger *zap.Logger) *httpapi.Server {
	return httpapi.NewServer(cfg.Server.HTTPAddr(), h, logger)
}
