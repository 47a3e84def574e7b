package catalog

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for more changes before
// reloading.
const DefaultDebounce = 200 * time.Millisecond

// ReloadFunc receives the freshly loaded catalog after a change.
type ReloadFunc func(entries []Entry, errs []error)

// Watcher reloads a catalog directory when its files change.
//
// Editors tend to write a file in several steps, so changes are batched:
// the reload happens once no event arrived for the debounce window.
type Watcher struct {
	dir      string
	mode     LoadMode
	debounce time.Duration
	onReload ReloadFunc
	watcher  *fsnotify.Watcher
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLoadMode sets the mode used on reload (default LoadModeCollectAll).
func WithLoadMode(mode LoadMode) WatcherOption {
	return func(w *Watcher) { w.mode = mode }
}

// NewWatcher starts watching dir. Call Run to process events and Close
// when Run is not used.
func NewWatcher(dir string, onReload ReloadFunc, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		dir:      dir,
		mode:     LoadModeCollectAll,
		debounce: DefaultDebounce,
		onReload: onReload,
		watcher:  fw,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run processes events until ctx is done. It closes the underlying
// watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			slog.Debug("catalog change", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer, timerC = nil, nil
			entries, errs := Load(w.dir, w.mode)
			slog.Info("catalog reloaded", "dir", w.dir, "tactics", len(entries), "errors", len(errs))
			w.onReload(entries, errs)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("catalog watch error", "dir", w.dir, "error", err)
		}
	}
}

// Close stops watching without running.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	switch filepath.Ext(event.Name) {
	case ".cue", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
