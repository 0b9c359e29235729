package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"bindery/internal/checker"
	"bindery/internal/config"
	"bindery/internal/history"
	"bindery/internal/logging"
	"bindery/internal/notifications"
	"bindery/internal/notify"
	"bindery/internal/registry"
	"bindery/internal/runner"
	"bindery/internal/state"
)

type commandContext struct {
	configFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	appOnce sync.Once
	app     *app
	appErr  error
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
		cfg, resolvedPath, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolvedPath
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// app is the wired set of services behind the stateful commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	hub      *notify.Hub
	registry *registry.Registry
	states   *state.Store
	history  *history.Store
	notifier notifications.Service
	runner   *runner.Runner
	checker  *checker.Checker
}

func (c *commandContext) ensureApp() (*app, error) {
	c.appOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.appErr = err
			return
		}

		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.appErr = fmt.Errorf("build logger: %w", err)
			return
		}

		hub := notify.NewHub()
		reg := registry.FromConfig(cfg)
		states := state.NewStore(cfg.StatePath(), logger)
		notifier := notifications.NewService(cfg)

		hist, err := history.Open(cfg.HistoryPath())
		if err != nil {
			c.appErr = fmt.Errorf("open history store: %w", err)
			return
		}

		run, err := runner.New(runner.Options{
			Config:   cfg,
			Registry: reg,
			Hub:      hub,
			Logger:   logger,
			History:  hist,
			Notifier: notifier,
		})
		if err != nil {
			_ = hist.Close()
			c.appErr = err
			return
		}

		chk, err := checker.New(checker.Options{
			Config:   cfg,
			Registry: reg,
			Hub:      hub,
			Logger:   logger,
			Store:    states,
			Runner:   run,
			Notifier: notifier,
		})
		if err != nil {
			_ = hist.Close()
			c.appErr = err
			return
		}

		c.app = &app{
			cfg:      cfg,
			logger:   logger,
			hub:      hub,
			registry: reg,
			states:   states,
			history:  hist,
			notifier: notifier,
			runner:   run,
			checker:  chk,
		}
	})
	return c.app, c.appErr
}

func (a *app) close() {
	if a == nil {
		return
	}
	_ = a.history.Close()
}
