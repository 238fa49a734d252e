package config

import (
	"context"
	"log"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads path on every change and hands the parsed config to
// apply. Invalid or unreadable updates are logged and skipped; the
// previous config stays in effect. Watch returns once ctx is done.
func Watch(ctx context.Context, path string, apply func(Config)) error {
	if path == "" {
		path = DefaultConfigFilename
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				log.Printf("Config reload failed: %v", err)
				continue
			}
			if err := cfg.Validate(); err != nil {
				log.Printf("Ignoring invalid config update: %v", err)
				continue
			}
			log.Printf("Config reloaded from %s", path)
			apply(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Config watcher error: %v", err)
		}
	}
}
