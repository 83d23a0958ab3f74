package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads the config file into a Store whenever it changes on disk.
// An edit that fails validation is logged and ignored, leaving the previous
// configuration active.
type Watcher struct {
	cfile    string
	store    *Store
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// NewWatcher watches the directory holding cfile, so that editors which save
// through rename-and-replace are noticed as well.
func NewWatcher(cfile string, store *Store, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(cfile)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(cfile), err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		cfile:    filepath.Clean(cfile),
		store:    store,
		debounce: debounce,
		watcher:  fw,
	}, nil
}

// Run processes file events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Ending config watcher")
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.cfile {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			slog.Debug("Config file event", "op", event.Op.String(), "file", event.Name)
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Config watcher error", "error", err)
		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	conf, err := ReadConfig(w.cfile)
	if err != nil {
		slog.Error("Rejected config change, keeping previous configuration",
			"file", w.cfile, "revision", w.store.Current().Revision, "error", err)
		return
	}
	w.store.Replace(conf)
}
