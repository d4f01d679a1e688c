package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"lineking/logger"

	"github.com/fsnotify/fsnotify"
)

// Store caches the current config and reloads it on demand
type Store struct {
	mu       sync.RWMutex
	cfg      Config
	path     string
	env      string
	handlers []func(Config)
}

// NewStore loads the initial config
func NewStore(path, env string) (*Store, error) {
	cfg, err := Load(path, env)
	if err != nil {
		return nil, err
	}
	return &Store{cfg: cfg, path: path, env: env}, nil
}

// Get returns the current config
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Path returns the config file path, which may be empty
func (s *Store) Path() string { return s.path }

// OnChange registers fn to run after every successful reload
func (s *Store) OnChange(fn func(Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, fn)
}

// Reload re-reads the file and environment document. On error the
// previous config is kept.
func (s *Store) Reload() error {
	cfg, err := Load(s.path, s.env)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	handlers := append([]func(Config){}, s.handlers...)
	s.mu.Unlock()

	for _, h := range handlers {
		h(cfg)
	}
	return nil
}

// Watcher reloads a Store when its config file changes
type Watcher struct {
	store    *Store
	fsw      *fsnotify.Watcher
	debounce time.Duration
	done     chan struct{}
	wg       sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// Watch starts watching the store's file. The containing directory is
// watched so that editors which save by renaming are picked up.
func Watch(store *Store, debounce time.Duration) (*Watcher, error) {
	if store.Path() == "" {
		return nil, fmt.Errorf("%w: no config file to watch", ErrInvalid)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(store.Path())
	if err != nil {
		fsw.Close()
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{store: store, fsw: fsw, debounce: debounce, done: make(chan struct{})}
	w.wg.Add(1)
	go w.loop(abs)
	return w, nil
}

func (w *Watcher) loop(path string) {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			if err := w.store.Reload(); err != nil {
				logger.Warn("config: reload of %s failed, keeping previous settings: %v", path, err)
				continue
			}
			logger.Info("config: reloaded %s", path)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Error("config: watcher error: %v", err)
		}
	}
}

// Close stops watching. Later calls return the first call's error.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		w.closeErr = w.fsw.Close()
		w.wg.Wait()
	})
	return w.closeErr
}
