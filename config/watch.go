package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher keeps a profile file loaded and reloads it when it changes
// on disk. The parent directory is watched rather than the file
// itself, so editors that replace the file atomically are picked up.
// A failed reload keeps the last good state and reports the error.
type Watcher struct {
	path     string
	fw       *fsnotify.Watcher
	debounce time.Duration
	onChange func(*File)
	onError  func(error)

	mu   sync.RWMutex
	file *File
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// OnChange sets a callback invoked with the new state after every
// successful reload.
func OnChange(fn func(*File)) WatchOption {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// OnError sets a callback for reload failures. The default logs the
// failure and keeps watching.
func OnError(fn func(error)) WatchOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithDebounce sets how long bursts of write events are coalesced
// before reloading. Default is 100ms.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// Watch loads the profile file and starts watching it for changes.
func Watch(path string, opts ...WatchOption) (*Watcher, error) {
	file, err := Load(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}
	w := &Watcher{
		path:     path,
		fw:       fw,
		debounce: 100 * time.Millisecond,
		onError: func(err error) {
			slog.Warn("profile reload failed", "path", path, "error", err)
		},
		file: file,
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.loop()
	return w, nil
}

// File returns the current state of the profile file.
func (w *Watcher) File() *File {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.file
}

// Profile returns the named profile from the current state.
func (w *Watcher) Profile(name string) (Profile, error) {
	return w.File().Profile(name)
}

// Close stops watching. The last loaded state stays readable.
func (w *Watcher) Close() error {
	return w.fw.Close()
}

func (w *Watcher) loop() {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	base := filepath.Base(w.path)
	for {
		select {
		case e, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Base(e.Name) != base {
				continue
			}
			if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, w.reload)
			} else {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) reload() {
	file, err := Load(w.path)
	if err != nil {
		w.onError(err)
		return
	}
	w.mu.Lock()
	w.file = file
	w.mu.Unlock()
	if w.onChange != nil {
		w.onChange(file)
	}
}
