// Package main provides the combat daemon: the HTTP combat API plus the gRPC
// health service.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcombat/internal/config"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx := context.Background()
	app, cleanup, err := InitializeApp(ctx, cfg)
	if err != nil {
		log.Fatalf("initializing combat service: %v", err)
	}
	defer cleanup()

	logger := app.Logger()
	logger.Info("startup complete", zap.Duration("elapsed", time.Since(start)))
	if err := app.Run(ctx); err != nil {
		logger.Error("combat service stopped", zap.Error(err))
	}
}
