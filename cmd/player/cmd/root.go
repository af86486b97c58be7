package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/playscript/internal/config"
	"github.com/zeusync/playscript/internal/core/stage"
	"github.com/zeusync/playscript/internal/injector"
)

// options are the command line overrides applied on top of the config file.
type options struct {
	config  string
	script  string
	scene   string
	schemas string
	inspect string
}

// NewRootCmd creates the player command. It is called once in main.
func NewRootCmd() *cobra.Command {
	var opts options

	rootCmd := &cobra.Command{
		Use:           "player",
		Short:         "Play a scene script against the in-memory stage",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return run(cmd.Context(), &cfg)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&opts.config, "config", "", "path to the player config (YAML)")
	flags.StringVar(&opts.script, "script", "", "override paths.script")
	flags.StringVar(&opts.scene, "scene", "", "override paths.scene")
	flags.StringVar(&opts.schemas, "schemas", "", "override paths.schemas")
	flags.StringVar(&opts.inspect, "inspect", "", "override inspector.listen, e.g. 127.0.0.1:7070")

	return rootCmd
}

func (o options) load() (config.Config, error) {
	cfg, err := config.Load(o.config)
	if err != nil {
		return config.Config{}, err
	}
	override(&cfg.Paths.Script, o.script)
	override(&cfg.Paths.Scene, o.scene)
	override(&cfg.Paths.Schemas, o.schemas)
	override(&cfg.Inspector.Listen, o.inspect)
	return cfg, nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	assets, err := loadAssets(ctx, cfg.Paths)
	if err != nil {
		return fmt.Errorf("load assets: %w", err)
	}

	p, cleanup, err := injector.InitializePlayer(ctx, cfg, assets)
	if err != nil {
		return fmt.Errorf("start player: %w", err)
	}
	defer cleanup()

	return p.Run(ctx)
}

// loadAssets reads the script, scene and clip manifest concurrently. Only
// the script is required.
func loadAssets(ctx context.Context, paths config.Paths) (injector.Assets, error) {
	var assets injector.Assets
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		data, err := os.ReadFile(paths.Script)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		assets.Script = data
		return nil
	})
	g.Go(func() error {
		scene, err := config.LoadScene(paths.Scene)
		if errors.Is(err, fs.ErrNotExist) {
			scene = config.DefaultScene()
		} else if err != nil {
			return err
		}
		assets.Scene = scene
		return nil
	})
	g.Go(func() error {
		if paths.Manifest == "" {
			return nil
		}
		m, err := stage.ReadManifestFile(paths.Manifest)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		} else if err != nil {
			return err
		}
		assets.Manifest = m
		return nil
	})

	if err := g.Wait(); err != nil {
		return injector.Assets{}, err
	}
	return assets, nil
}
