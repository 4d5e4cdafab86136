package utils

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// WatchConfig reloads filename whenever it is written or recreated and hands
// every config that validates to onChange. Invalid files are logged and
// skipped. It blocks until ctx is cancelled.
//
// The parent directory is watched rather than the file so that editors which
// replace the file on save keep triggering reloads.
func WatchConfig(ctx context.Context, filename string, onChange func(Config), logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "[WatchConfig] failed to create watcher")
	}
	defer watcher.Close()

	target, err := filepath.Abs(filename)
	if err != nil {
		return errors.Wrapf(err, "[WatchConfig] failed to resolve path: %+v", filename)
	}
	if err = watcher.Add(filepath.Dir(target)); err != nil {
		return errors.Wrapf(err, "[WatchConfig] failed to watch: %+v", filepath.Dir(target))
	}
	logger.Debug("Watching config file.", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			config, err := LoadConfig(target)
			if err != nil {
				logger.Warn("Ignoring config reload.", "path", target, "error", err)
				continue
			}
			logger.Info("Config reloaded.", "path", target, "delay", config.Delay.Std())
			onChange(config)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Config watcher error.", "error", err)
		}
	}
}
