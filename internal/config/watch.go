package config

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadCallback is called with the freshly loaded config after the
// watched file changes
type ReloadCallback func(cfg *Config)

// Watcher reloads the config file when it changes on disk. Editors often
// write several events in quick succession, so reloads are debounced.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	callback ReloadCallback
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher for the given config file path
func NewWatcher(path string, callback ReloadCallback) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory: editors replace files rather than writing
	// in place, which would drop a watch on the file itself.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		watcher:  fsw,
		path:     path,
		callback: callback,
		debounce: 250 * time.Millisecond,
	}, nil
}

// Start processes file events until ctx is cancelled
func (w *Watcher) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Close()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("config watcher error: %v", err)
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		cfg, err := Load(w.path)
		if err != nil {
			log.Printf("config reload failed, keeping previous: %v", err)
			return
		}
		log.Printf("config reloaded from %s", w.path)
		w.callback(cfg)
	})
}

// Close stops watching
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.watcher.Close()
}
