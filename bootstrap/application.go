// Package bootstrap provides the application container wiring configuration,
// logging, and the scheduler together.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/shenning00/gosdl/config"
	"github.com/shenning00/gosdl/core"
	"github.com/shenning00/gosdl/logger"
)

// SetupFunc spawns the application's initial processes once the system is
// ready, before the scheduler starts running.
type SetupFunc func(sys *core.System, cfg *config.Config) error

// Application owns a configured runtime: one system, its scheduler, and the
// managed services around it.
type Application struct {
	cfg       *config.Config
	system    *core.System
	lifecycle LifecycleManager
	setup     SetupFunc

	mutex   sync.RWMutex
	running bool
}

// NewApplication builds an application from the given configuration. A nil
// config loads one via the standard search paths and environment.
func NewApplication(cfg *config.Config, setup SetupFunc) (*Application, error) {
	if cfg == nil {
		loaded, err := config.NewLoader().AutoLoad()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	}

	configureLogging(cfg)

	system := core.NewSystemWithOptions(core.Options{
		QueueCapacity:  cfg.Scheduler.QueueCapacity,
		PollInterval:   cfg.Scheduler.PollInterval,
		ReadyListLimit: cfg.Scheduler.ReadyListLimit,
	})

	app := &Application{
		cfg:       cfg,
		system:    system,
		lifecycle: NewLifecycleManager(),
		setup:     setup,
	}
	if err := app.lifecycle.Register("scheduler", &schedulerService{app: app}); err != nil {
		return nil, err
	}
	return app, nil
}

// NewApplicationFromFile builds an application from a configuration file and
// keeps watching it: log level, format, and category changes are applied on
// reload without a restart. Scheduler settings are fixed at startup.
func NewApplicationFromFile(configFile string, setup SetupFunc) (*Application, error) {
	watcher, err := config.NewWatcher(configFile, config.NewLoader())
	if err != nil {
		return nil, err
	}

	app, err := NewApplication(watcher.Config(), setup)
	if err != nil {
		watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(oldConfig, newConfig *config.Config) {
		configureLogging(newConfig)
		app.mutex.Lock()
		app.cfg = newConfig
		app.mutex.Unlock()
	})

	if err := app.lifecycle.Register("config-watcher", &watcherService{watcher: watcher}); err != nil {
		watcher.Stop()
		return nil, err
	}
	return app, nil
}

// configureLogging maps the configuration onto the logging sink.
func configureLogging(cfg *config.Config) {
	var out io.Writer
	switch cfg.Log.Output {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Log.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			out = os.Stdout
		} else {
			out = f
		}
	}

	logger.Configure(logger.Options{
		Level:      cfg.Log.Level.String(),
		Format:     cfg.Log.Format,
		Output:     out,
		Categories: cfg.Log.Categories,
	})
}

// Config returns the current application configuration.
func (app *Application) Config() *config.Config {
	app.mutex.RLock()
	defer app.mutex.RUnlock()
	return app.cfg
}

// System returns the runtime system.
func (app *Application) System() *core.System {
	return app.system
}

// LifecycleManager returns the lifecycle manager for registering additional
// services next to the scheduler.
func (app *Application) LifecycleManager() LifecycleManager {
	return app.lifecycle
}

// Run starts the managed services, spawns the initial processes, and drives
// the scheduler until the context is cancelled, SIGINT or SIGTERM arrives, or
// the system stops itself.
func (app *Application) Run(ctx context.Context) error {
	app.mutex.Lock()
	if app.running {
		app.mutex.Unlock()
		return fmt.Errorf("application is already running")
	}
	app.running = true
	app.mutex.Unlock()
	defer func() {
		app.mutex.Lock()
		app.running = false
		app.mutex.Unlock()
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.lifecycle.Start(ctx); err != nil {
		return err
	}

	if app.setup != nil {
		if err := app.setup(app.system, app.Config()); err != nil {
			app.system.Stop()
			app.lifecycle.Stop(context.Background())
			return fmt.Errorf("application setup failed: %w", err)
		}
	}

	cfg := app.Config()
	logger.System("application started", "name", cfg.App.Name, "version", cfg.App.Version)

	g, runCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := app.system.Run(runCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	err := g.Wait()

	app.system.Stop()
	if stopErr := app.lifecycle.Stop(context.Background()); stopErr != nil && err == nil {
		err = stopErr
	}

	logger.System("application stopped", "name", cfg.App.Name)
	return err
}

// Shutdown requests the scheduler to stop; Run returns once the current
// iteration finishes.
func (app *Application) Shutdown() {
	app.system.Stop()
}

// Health reports the health of all managed services.
func (app *Application) Health(ctx context.Context) (map[string]HealthStatus, error) {
	return app.lifecycle.Health(ctx)
}

// watcherService exposes the config file watcher as a managed service.
type watcherService struct {
	watcher *config.Watcher
}

func (s *watcherService) Name() string {
	return "config-watcher"
}

func (s *watcherService) Start(ctx context.Context) error {
	return s.watcher.Start()
}

func (s *watcherService) Stop(ctx context.Context) error {
	return s.watcher.Stop()
}

func (s *watcherService) Health(ctx context.Context) (HealthStatus, error) {
	return HealthStatus{
		State:   HealthHealthy,
		Message: "watching configuration file",
	}, nil
}

// schedulerService exposes the system scheduler as a managed service.
type schedulerService struct {
	app *Application
}

func (s *schedulerService) Name() string {
	return "scheduler"
}

func (s *schedulerService) Start(ctx context.Context) error {
	return nil
}

func (s *schedulerService) Stop(ctx context.Context) error {
	s.app.system.Stop()
	return nil
}

func (s *schedulerService) Health(ctx context.Context) (HealthStatus, error) {
	stats := s.app.system.Snapshot()
	state := HealthHealthy
	message := "scheduler running"
	if s.app.system.Stopped() {
		state = HealthStopped
		message = "scheduler stopped"
	}
	return HealthStatus{
		State:   state,
		Message: message,
		Data: map[string]interface{}{
			"processes":      stats.Processes,
			"active_timers":  stats.ActiveTimers,
			"queued_signals": stats.QueuedSignals,
		},
	}, nil
}
