package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/jywlabs/skillhub/internal/central"
	"github.com/jywlabs/skillhub/internal/config"
	"github.com/jywlabs/skillhub/internal/gitsource"
	"github.com/jywlabs/skillhub/internal/logging"
	"github.com/jywlabs/skillhub/internal/output"
	"github.com/jywlabs/skillhub/internal/registry"
	"github.com/jywlabs/skillhub/internal/skills"
	"github.com/jywlabs/skillhub/internal/tools"
	"go.uber.org/zap"
)

// app holds the components a command works with.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *registry.Store
	git    *gitsource.Client
	engine *skills.Engine
	out    *output.Printer
}

// hubDir resolves the skillhub home from --hub or the environment.
func hubDir() (string, error) {
	if hubFlag != "" {
		return config.ExpandPath(hubFlag), nil
	}
	return config.HubDir()
}

// loadConfig loads .env files and config.yaml for the current hub.
func loadConfig() (*config.Config, error) {
	dir, err := hubDir()
	if err != nil {
		return nil, err
	}
	config.LoadEnv(dir)
	return config.Load(dir)
}

// openApp wires the registry, central store, git client and engine.
// Callers must call close.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if verboseFlag {
		level = "debug"
	}
	logger, err := logging.New(level)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.HubDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", cfg.HubDir, err)
	}

	store, err := registry.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	cs := central.New(cfg.CentralDir, cfg.Ignore, logger)
	if err := cs.Sweep(); err != nil {
		logger.Warn("central store sweep failed", zap.Error(err))
	}

	gc := gitsource.NewClient(cfg.Git, logger)

	engine := skills.New(skills.Options{
		Store:    store,
		Tools:    tools.NewRegistry(cfg.Home, store),
		Central:  cs,
		Fetcher:  gc,
		LinkMode: cfg.LinkMode,
		Logger:   logger,
	})

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		git:    gc,
		engine: engine,
		out:    output.New(os.Stdout),
	}, nil
}

func (a *app) close() {
	if err := a.git.Close(); err != nil {
		a.logger.Debug("git cleanup failed", zap.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("registry close failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// withApp runs fn with an opened app and closes it afterwards.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

// syncTargets resolves --tools: an empty list means the default targets.
func syncTargets(toolIDs []string) []string {
	if len(toolIDs) == 0 {
		return nil
	}
	return toolIDs
}

// reportSync prints sync outcomes and counts them by status.
func (a *app) reportSync(skill string, outcomes []skills.SyncOutcome, tally *output.Tally) {
	a.out.SyncOutcomes(skill, outcomes)
	for _, o := range outcomes {
		tally.Add(string(o.Status))
	}
}
