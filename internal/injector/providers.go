package injector

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/wire"

	"github.com/zeusync/playscript/internal/config"
	"github.com/zeusync/playscript/internal/core/command/script"
	"github.com/zeusync/playscript/internal/core/director"
	"github.com/zeusync/playscript/internal/core/events/bus"
	"github.com/zeusync/playscript/internal/core/observability/log"
	"github.com/zeusync/playscript/internal/core/stage"
	"github.com/zeusync/playscript/internal/inspector"
)

// Assets is everything read from disk before the graph is built.
type Assets struct {
	Scene    config.Scene
	Manifest *stage.Manifest
	Script   []byte
}

var PlayerSet = wire.NewSet(
	ProvideLogger,
	ProvideSession,
	ProvideBus,
	ProvideStage,
	ProvideDocument,
	ProvideController,
	ProvideInspector,
	wire.FieldsOf(new(Assets), "Scene", "Manifest"),
)

func ProvideLogger(cfg *config.Config) (log.Log, func(), error) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	logger, err := log.New(level, log.Options{
		Encoding: cfg.Log.Encoding,
		Outputs:  cfg.Log.Outputs,
		Caller:   cfg.Log.Caller,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideSession loads the built-in schemas, then the schema directory if it
// exists. Directory files override built-ins of the same name.
func ProvideSession(ctx context.Context, cfg *config.Config, logger log.Log) (*director.Session, error) {
	session, err := director.NewSession(logger)
	if err != nil {
		return nil, err
	}
	if _, err := session.LoadBuiltins(ctx); err != nil {
		return nil, fmt.Errorf("load built-in schemas: %w", err)
	}

	dir := cfg.Paths.Schemas
	if dir == "" {
		return session, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		logger.Debug("schema directory not found, using built-ins only", log.String("dir", dir))
		return session, nil
	}
	if _, err := session.LoadSchemas(ctx, os.DirFS(dir), "."); err != nil {
		return nil, fmt.Errorf("load schemas: %w", err)
	}
	return session, nil
}

func ProvideBus() bus.EventBus {
	return bus.New()
}

func ProvideStage(scene config.Scene, manifest *stage.Manifest) director.Stage {
	return director.NewStage(scene, manifest)
}

func ProvideDocument(session *director.Session, assets Assets) (*script.Document, error) {
	return session.ParseScript(assets.Script)
}

func ProvideController(session *director.Session, st director.Stage, events bus.EventBus, cfg *config.Config) *director.Controller {
	return director.NewController(session, st, events, cfg.Playback)
}

func ProvideInspector(cfg *config.Config, events bus.EventBus, logger log.Log) *inspector.Server {
	return inspector.New(cfg.Inspector, events, logger)
}
