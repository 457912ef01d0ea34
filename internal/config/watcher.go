package config

import (
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Watcher hot-reloads a Config file on write, without restarting the
// process; the whole parsed Config is republished. The reloaded Config is
// published behind an atomic pointer so readers never observe a partially
// updated value, mirroring the Index's atomic-swap discipline.
type Watcher struct {
	path    string
	current atomic.Pointer[Config]
	fsw     *fsnotify.Watcher
	onError func(error)

	mu      sync.Mutex
	closed  bool
}

// NewWatcher loads path once and begins watching it for changes.
func NewWatcher(path string, onError func(error)) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{path: path, fsw: fsw, onError: onError}
	w.current.Store(cfg)

	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				if w.onError != nil {
					w.onError(err)
				}
				continue
			}
			w.current.Store(cfg)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

// Current returns the most recently loaded, validated Config.
func (w *Watcher) Current() *Config {
	return w.current.Load()
}

// Close stops watching the config file.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.fsw.Close()
}
