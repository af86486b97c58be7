//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"context"

	"github.com/google/wire"

	"github.com/zeusync/playscript/internal/config"
	"github.com/zeusync/playscript/internal/player"
)

func InitializePlayer(ctx context.Context, cfg *config.Config, assets Assets) (*player.Player, func(), error) {
	wire.Build(PlayerSet, wire.Struct(new(player.Player), "*"))
	return nil, nil, nil
}
