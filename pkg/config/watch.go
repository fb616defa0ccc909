package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"

	"github.com/deviceflow/resbroker/internal/logger"
)

// Watch starts an fsnotify watch on path and invokes onChange with a
// freshly loaded and validated Config every time the file is written.
// A reload that fails to load or validate is logged and discarded — the
// previously applied Config stays in effect. The returned stop function
// closes the watcher and blocks until its goroutine has exited; it is
// safe to call exactly once.
func Watch(path string, onChange func(*Config)) (stop func() error, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}

	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch config file %q: %w", path, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				reloadConfig(path, onChange)
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", "path", path, "error", werr)
			}
		}
	}()

	stop = func() error {
		err := watcher.Close()
		<-done
		return err
	}
	return stop, nil
}

// reloadConfig loads and validates path, invoking onChange only on
// success; a bad edit never displaces a previously good configuration.
func reloadConfig(path string, onChange func(*Config)) {
	cfg, err := Load(path)
	if err != nil {
		logger.Warn("config reload failed, keeping previous configuration", "path", path, "error", err)
		return
	}
	if err := Validate(cfg); err != nil {
		logger.Warn("reloaded configuration is invalid, keeping previous configuration", "path", path, "error", err)
		return
	}
	logger.Info("configuration reloaded", "path", path)
	onChange(cfg)
}
