package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcombat/internal/config"
	"github.com/cory-johannsen/mudcombat/internal/httpapi"
	"github.com/cory-johannsen/mudcombat/internal/server"
)

// App is the assembled combat daemon.
type App struct {
	lifecycle *server.Lifecycle
	logger    *zap.Logger
}

// NewApp registers the HTTP API and, unless server.grpc_port is zero, the
// gRPC health service.
//
// Postcondition: Run starts the registered services.
func NewApp(cfg config.Config, logger *zap.Logger, httpSrv *httpapi.Server, health *server.HealthService) *App {
	lc := server.NewLifecycle(logger, cfg.Server.ShutdownTimeout)
	lc.Add("http", httpSrv)
	if cfg.Server.GRPCPort != 0 {
		lc.Add("grpc-health", health)
	}
	logger.Info("combat service initialized",
		zap.String("http_addr", cfg.Server.HTTPAddr()),
		zap.Int("grpc_port", cfg.Server.GRPCPort),
		zap.String("store", cfg.Combat.Store),
	)
	return &App{lifecycle: lc, logger: logger}
}

// Logger returns the process logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Run blocks until a termination signal, ctx cancellation, or a service failure.
func (a *App) Run(ctx context.Context) error {
	return a.lifecycle.Run(ctx)
}
