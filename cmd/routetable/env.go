package main

import (
	"io"
	"log/slog"

	"github.com/vango-dev/routetable/internal/app"
	"github.com/vango-dev/routetable/internal/config"
	"github.com/vango-dev/routetable/pkg/assets"
	"github.com/vango-dev/routetable/pkg/lazy"
	"github.com/vango-dev/routetable/pkg/router"
)

// options are shared by every command.
type options struct {
	configPath string

	// overlay holds values from command flags. It is merged after Finalize
	// so flags win over the environment.
	overlay config.Config

	// newTable builds the table; nil means app.NewTable.
	newTable func(reg *lazy.Registry, logger *slog.Logger, maxRedirects int) (*router.Table, error)
}

// env is everything a command needs once configuration is loaded.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *lazy.Registry
	table    *router.Table
	manifest *assets.Manifest
	chunks   assets.Resolver
}

// loadConfig reads, merges and finalizes the configuration.
func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	cfg.Merge(&o.overlay)
	cfg.Server.StaticDir = cfg.Resolve(cfg.Server.StaticDir)
	cfg.Loader.Dir = cfg.Resolve(cfg.Loader.Dir)
	cfg.Loader.Manifest = cfg.Resolve(cfg.Loader.Manifest)
	return cfg, nil
}

// setup loads configuration, builds the loader and the table. Logs go to
// logOut.
func (o *options) setup(logOut io.Writer) (*env, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := slog.New(cfg.Logging.Handler(logOut))

	manifest, err := app.LoadManifest(&cfg.Loader)
	if err != nil {
		return nil, err
	}
	loader, err := app.NewLoader(&cfg.Loader, manifest, logger)
	if err != nil {
		return nil, err
	}
	reg := app.NewRegistry(loader, &cfg.Loader, logger)

	newTable := o.newTable
	if newTable == nil {
		newTable = app.NewTable
	}
	table, err := newTable(reg, logger, cfg.Router.MaxRedirects)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		table:    table,
		manifest: manifest,
		chunks:   app.ChunkResolver(&cfg.Loader, manifest),
	}, nil
}
