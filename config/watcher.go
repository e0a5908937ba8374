// Package config provides configuration watching and hot-reload functionality
package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/shenning00/gosdl/logger"
)

// ChangeCallback is called with the old and new configuration after a
// successful reload.
type ChangeCallback func(oldConfig, newConfig *Config)

// Watcher watches a configuration file and reloads it on change. A reload
// that fails to parse or validate keeps the previous configuration.
type Watcher struct {
	configFile string
	loader     *Loader

	config   *Config
	configMu sync.RWMutex

	fsWatcher *fsnotify.Watcher

	callbacks   []ChangeCallback
	callbacksMu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher and loads the initial configuration.
func NewWatcher(configFile string, loader *Loader) (*Watcher, error) {
	if _, err := formatForFile(configFile); err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file system watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := &Watcher{
		configFile: configFile,
		loader:     loader,
		fsWatcher:  fsWatcher,
		ctx:        ctx,
		cancel:     cancel,
	}

	config, err := loader.LoadFromFile(configFile)
	if err != nil {
		fsWatcher.Close()
		cancel()
		return nil, fmt.Errorf("failed to load initial config: %w", err)
	}
	w.config = config

	return w, nil
}

// Start begins watching the configuration file.
func (w *Watcher) Start() error {
	if err := w.fsWatcher.Add(w.configFile); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigWatchError, err)
	}

	w.wg.Add(1)
	go w.watchLoop()

	return nil
}

// Stop stops watching the configuration file.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.fsWatcher.Close()
	w.wg.Wait()
	return err
}

// Config returns the current configuration.
func (w *Watcher) Config() *Config {
	w.configMu.RLock()
	defer w.configMu.RUnlock()
	return w.config
}

// OnChange registers a callback for configuration changes.
func (w *Watcher) OnChange(callback ChangeCallback) {
	w.callbacksMu.Lock()
	defer w.callbacksMu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Reload manually reloads the configuration.
func (w *Watcher) Reload() error {
	return w.reloadConfig()
}

// watchLoop consumes file system events. Rapid successive writes are
// debounced into a single reload.
func (w *Watcher) watchLoop() {
	defer w.wg.Done()

	var debounce *time.Timer
	const debounceDelay = 500 * time.Millisecond

	for {
		select {
		case <-w.ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Name != w.configFile {
				continue
			}

			switch {
			case event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create):
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceDelay, func() {
					if err := w.reloadConfig(); err != nil {
						logger.Warn("config reload failed", "file", w.configFile, "err", err)
					}
				})

			case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
				logger.Warn("config file removed or renamed", "file", w.configFile)
				// Editors often replace the file; try to re-add it.
				time.AfterFunc(time.Second, func() {
					if err := w.fsWatcher.Add(w.configFile); err != nil {
						logger.Warn("failed to re-watch config file", "file", w.configFile, "err", err)
					}
				})
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher error", "err", err)
		}
	}
}

// reloadConfig reloads the configuration from the watched file.
func (w *Watcher) reloadConfig() error {
	newConfig, err := w.loader.LoadFromFile(w.configFile)
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}

	w.configMu.Lock()
	oldConfig := w.config
	w.config = newConfig
	w.configMu.Unlock()

	w.notifyCallbacks(oldConfig, newConfig)

	logger.Info("configuration reloaded", "file", w.configFile)
	return nil
}

// notifyCallbacks runs each registered callback on its own goroutine so a
// slow or panicking callback cannot stall the watch loop.
func (w *Watcher) notifyCallbacks(oldConfig, newConfig *Config) {
	w.callbacksMu.RLock()
	callbacks := make([]ChangeCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.callbacksMu.RUnlock()

	for _, callback := range callbacks {
		go func(cb ChangeCallback) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("config change callback panicked", "panic", r)
				}
			}()
			cb(oldConfig, newConfig)
		}(callback)
	}
}
