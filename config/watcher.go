package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"reflect"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long the watcher waits after the last write before it
// re-reads the file. Editors tend to write a file in several steps.
const settle = 200 * time.Millisecond

// Watch re-reads cfile whenever it changes and calls onChange with the new
// Mode section if that section differs from the last one seen. Invalid
// files are logged and ignored. Watch blocks until ctx is done. If the file
// can't be watched, reload is off for this run and Watch returns nil.
func Watch(ctx context.Context, cfile string, current ModeConfig, onChange func(ModeConfig)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("Config reload disabled, can't create config watcher", "error", err)
		return nil
	}
	defer watcher.Close()

	// Watch the directory, the file itself goes away on an atomic save
	dir := filepath.Dir(cfile)
	if err := watcher.Add(dir); err != nil {
		slog.Warn("Config reload disabled, can't watch config directory", "dir", dir, "error", err)
		return nil
	}
	name := filepath.Clean(cfile)
	slog.Info("Watching config file for mode changes", "file", name)

	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(settle)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Config watcher error", "error", err)
		case <-timer.C:
			conf, err := ReadConfig(cfile)
			if err != nil {
				slog.Error("Ignoring changed config file", "error", err)
				continue
			}
			if reflect.DeepEqual(conf.Mode, current) {
				slog.Debug("Config file changed, mode section unchanged")
				continue
			}
			slog.Info("Mode configuration reloaded", "kind", conf.Mode.Kind, "rate", conf.Mode.Rate)
			current = conf.Mode
			onChange(conf.Mode)
		}
	}
}
