// Package player hosts one scene: it drives the controller from a frame
// ticker until the end-of-script signal, a fatal error or cancellation.
package player

import (
	"context"
	"time"

	"github.com/zeusync/playscript/internal/config"
	"github.com/zeusync/playscript/internal/core/command/script"
	"github.com/zeusync/playscript/internal/core/director"
	"github.com/zeusync/playscript/internal/core/events/bus"
	"github.com/zeusync/playscript/internal/core/observability/log"
	"github.com/zeusync/playscript/internal/inspector"
)

const inspectorShutdown = 2 * time.Second

type Player struct {
	Config     *config.Config
	Logger     log.Log
	Scene      config.Scene
	Document   *script.Document
	Controller *director.Controller
	Events     bus.EventBus
	Inspector  *inspector.Server
}

// Run starts the scene and ticks it at the configured frame rate. It returns
// nil once the script has ended normally.
func (p *Player) Run(ctx context.Context) error {
	ended := make(chan struct{}, 1)
	sub, err := p.Events.Subscribe(director.EventEnded, func(bus.Event) error {
		select {
		case ended <- struct{}{}:
		default:
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer func() { _ = sub.Cancel() }()

	if p.Inspector != nil && p.Config.Inspector.Enabled() {
		if err := p.Inspector.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), inspectorShutdown)
			defer cancel()
			if err := p.Inspector.Stop(stopCtx); err != nil {
				p.Logger.Warn("inspector shutdown failed", log.Error(err))
			}
		}()
		p.Inspector.SetScript(p.Document)
	}

	interval := p.Config.Playback.FrameInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.Controller.Start(p.Scene, p.Document)
	last := time.Now()
	frames := 0
	for {
		select {
		case <-ctx.Done():
			p.Logger.Info("playback interrupted", log.Int("frames", frames))
			return ctx.Err()
		case <-ended:
			p.Logger.Info("playback finished", log.Int("frames", frames))
			return p.Controller.Scheduler().Err()
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			frames++
			if err := p.Controller.Tick(dt); err != nil {
				p.Logger.Error("playback failed", log.Int("frames", frames), log.Error(err))
				return err
			}
		}
	}
}
