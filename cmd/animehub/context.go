package main

import (
	"log/slog"
	"strings"
	"sync"

	"animehub/internal/config"
	"animehub/internal/events"
	"animehub/internal/library"
	"animehub/internal/logging"
	"animehub/internal/materialize"
	"animehub/internal/pipeline"
	"animehub/internal/scanner"
	"animehub/internal/stats"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// runtime bundles everything a pipeline-facing command needs: the open
// store, a bus with the pipeline and stats reactor wired on, and the
// scanner.
type runtime struct {
	cfg      *config.Config
	store    *library.Store
	bus      *events.Bus
	logger   *slog.Logger
	pipeline *pipeline.Pipeline
	engine   *materialize.Engine
	scanner  *scanner.Scanner
	stats    *stats.Reactor
}

func (c *commandContext) openRuntime() (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	store, err := library.Open(cfg)
	if err != nil {
		return nil, err
	}

	bus := events.NewBus()
	rt := &runtime{
		cfg:      cfg,
		store:    store,
		bus:      bus,
		logger:   logger,
		pipeline: pipeline.New(cfg, store, bus, logger),
		engine:   materialize.NewEngine(store, bus, logger),
		scanner:  scanner.New(cfg, store, logger),
	}
	rt.stats = stats.NewReactor(store, bus, logger)
	return rt, nil
}

func (rt *runtime) close() {
	_ = rt.store.Close()
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
}
