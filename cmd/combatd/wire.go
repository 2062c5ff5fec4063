//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/cory-johannsen/mudcombat/internal/app"
	"github.com/cory-johannsen/mudcombat/internal/config"
)

// InitializeApp builds the combat daemon from cfg.
func InitializeApp(ctx context.Context, cfg config.Config) (*app.App, func(), error) {
	wire.Build(app.ProviderSet)
	return nil, nil, nil
}
