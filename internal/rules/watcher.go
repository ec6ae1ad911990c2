package rules

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/funvibe/matchkit/internal/config"
)

// Watcher reloads a Registry when its rule file changes.
//
// # Description
//
// The parent directory is watched rather than the file itself, because most
// editors save by writing a temporary file and renaming it over the
// original, which drops a watch placed on the old inode. Bursts of events
// are collapsed into one reload after Debounce.
//
// # Thread Safety
//
// Start should only be called once. Stop is safe to call multiple times.
type Watcher struct {
	registry *Registry
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	// Debounce is the quiet period before a reload. Defaults to config.ReloadDebounce.
	Debounce time.Duration

	// OnReload, if set, is called after each reload attempt with its result.
	OnReload func(error)

	stopOnce sync.Once
}

// NewWatcher creates a watcher for the registry's rule file.
func NewWatcher(registry *Registry, logger *slog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		registry: registry,
		watcher:  w,
		logger:   logger,
		Debounce: config.ReloadDebounce,
	}, nil
}

// Start watches until ctx is cancelled. Run it in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	target, err := filepath.Abs(w.registry.Path())
	if err != nil {
		return err
	}
	dir := filepath.Dir(target)
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	w.logger.Debug("Watching rule file", "path", target)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event, target) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.logger.Info("Rule file changed, reloading", "path", target)
			err := w.registry.Reload()
			if w.OnReload != nil {
				w.OnReload(err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Rule watcher error", "error", err)

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Debug("Rule watcher stopping")
			return nil
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event, target string) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return name == target
}

// Stop releases the underlying watcher.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() { err = w.watcher.Close() })
	return err
}
