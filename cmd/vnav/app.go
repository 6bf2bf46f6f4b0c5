package main

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vnav/internal/config"
	"github.com/vango-dev/vnav/pkg/chunk"
	"github.com/vango-dev/vnav/pkg/router"
)

// app holds the state shared by every command.
type app struct {
	cfgFile    string
	routesFile string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
	chunks config.ChunkSource
}

// load reads the config and applies the persistent flags.
func (a *app) load(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.cfgFile != "" {
		cfg, err = config.LoadFile(a.cfgFile)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.routesFile != "" {
		abs, err := filepath.Abs(a.routesFile)
		if err != nil {
			return err
		}
		cfg.Routes = abs
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = cfg.Logger(cmd.ErrOrStderr())
	a.chunks = newChunkSource(cfg.Chunks, a.logger)
	return nil
}

// routes loads and builds the route table.
func (a *app) routes() ([]router.RouteConfig, error) {
	specs, err := config.LoadRoutes(a.cfg.RoutesPath())
	if err != nil {
		return nil, err
	}
	return config.BuildRoutes(specs, a.chunks)
}

// newChunkSource returns an S3 chunk loader, or nil when no bucket is set.
// One loader serves every route table load so its cache survives reloads.
func newChunkSource(c config.ChunksConfig, logger *slog.Logger) config.ChunkSource {
	if c.Bucket == "" {
		return nil
	}
	return chunk.NewLoader(chunk.NewS3Client(c.Region), c.Bucket,
		chunk.WithPrefix(c.Prefix),
		chunk.WithLogger(logger),
	)
}

// newRouter builds a router from the config. opts are applied last.
func (a *app) newRouter(routes []router.RouteConfig, opts ...router.Option) (*router.Router, error) {
	all := append(a.cfg.RouterOptions(routes...), router.WithLogger(a.logger))
	return router.New(append(all, opts...)...)
}

// newAbstractRouter builds an in-memory router for one-shot commands.
func (a *app) newAbstractRouter(opts ...router.Option) (*router.Router, error) {
	routes, err := a.routes()
	if err != nil {
		return nil, err
	}
	return a.newRouter(routes, append([]router.Option{router.WithMode(router.ModeAbstract)}, opts...)...)
}
